// Package confidence turns classifier confidence scores into routing decisions.
package confidence

import "math"

// Band is a discretized confidence tier.
type Band string

const (
	BandCertain Band = "A_CERTAIN"
	BandHigh    Band = "B_HIGH"
	BandMedium  Band = "C_MEDIUM"
	BandLow     Band = "D_LOW"
	BandUnknown Band = "E_UNKNOWN"
)

// Inclusive lower bounds for each band.
const (
	CertainMin = 0.92
	HighMin    = 0.82
	MediumMin  = 0.68
	LowMin     = 0.50
)

// Clamp bounds a score to [0,1]. NaN maps to 0.
func Clamp(score float64) float64 {
	switch {
	case math.IsNaN(score), score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}

// MapToBand classifies a score. It never fails: out of range scores are clamped first.
func MapToBand(score float64) Band {
	s := Clamp(score)
	switch {
	case s >= CertainMin:
		return BandCertain
	case s >= HighMin:
		return BandHigh
	case s >= MediumMin:
		return BandMedium
	case s >= LowMin:
		return BandLow
	default:
		return BandUnknown
	}
}

// Rank orders bands by certainty; higher is more certain.
func (b Band) Rank() int {
	switch b {
	case BandCertain:
		return 4
	case BandHigh:
		return 3
	case BandMedium:
		return 2
	case BandLow:
		return 1
	default:
		return 0
	}
}

// AllowsDraft reports whether a draft may be suggested at this band.
func AllowsDraft(b Band) bool {
	return b == BandCertain || b == BandHigh || b == BandMedium
}

// RequiresEscalation reports whether a human must be looped in at this band.
// BandMedium both allows a draft and requires escalation.
func RequiresEscalation(b Band) bool {
	return b == BandMedium || b == BandLow || b == BandUnknown
}
