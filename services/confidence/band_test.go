package confidence

import (
	"math"
	"testing"
)

func TestMapToBandBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Band
	}{
		{1.0, BandCertain},
		{0.92, BandCertain},
		{0.9199, BandHigh},
		{0.82, BandHigh},
		{0.8199, BandMedium},
		{0.68, BandMedium},
		{0.6799, BandLow},
		{0.50, BandLow},
		{0.4999, BandUnknown},
		{0, BandUnknown},
	}
	for _, tt := range tests {
		if got := MapToBand(tt.score); got != tt.want {
			t.Errorf("MapToBand(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestMapToBandClampsOutOfRange(t *testing.T) {
	for _, s := range []float64{-0.1, -5, math.Inf(-1), math.NaN()} {
		if got := MapToBand(s); got != MapToBand(0) {
			t.Errorf("MapToBand(%v) = %s, want %s", s, got, MapToBand(0))
		}
	}
	for _, s := range []float64{1.01, 42, math.Inf(1)} {
		if got := MapToBand(s); got != MapToBand(1) {
			t.Errorf("MapToBand(%v) = %s, want %s", s, got, MapToBand(1))
		}
	}
}

func TestMapToBandMonotonic(t *testing.T) {
	prev := MapToBand(0)
	for i := 1; i <= 1000; i++ {
		s := float64(i) / 1000
		b := MapToBand(s)
		if b.Rank() < prev.Rank() {
			t.Fatalf("band dropped from %s to %s at score %v", prev, b, s)
		}
		if again := MapToBand(s); again != b {
			t.Fatalf("MapToBand(%v) not deterministic: %s then %s", s, b, again)
		}
		prev = b
	}
}

func TestBandPredicates(t *testing.T) {
	tests := []struct {
		band     Band
		draft    bool
		escalate bool
	}{
		{BandCertain, true, false},
		{BandHigh, true, false},
		{BandMedium, true, true},
		{BandLow, false, true},
		{BandUnknown, false, true},
	}
	for _, tt := range tests {
		if got := AllowsDraft(tt.band); got != tt.draft {
			t.Errorf("AllowsDraft(%s) = %v, want %v", tt.band, got, tt.draft)
		}
		if got := RequiresEscalation(tt.band); got != tt.escalate {
			t.Errorf("RequiresEscalation(%s) = %v, want %v", tt.band, got, tt.escalate)
		}
	}
}

func TestSignalsBandUsesWeakerSignal(t *testing.T) {
	s := Signals{RelevanceConfidence: 0.95, IntentConfidence: 0.70}
	if got := s.Band(); got != BandMedium {
		t.Errorf("Band() = %s, want %s", got, BandMedium)
	}
}
