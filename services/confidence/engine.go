package confidence

import (
	"fmt"
	"math"
)

// DecisionType is the engine's verdict for one message.
type DecisionType string

const (
	DecisionIgnore       DecisionType = "IGNORE"
	DecisionEscalateOnly DecisionType = "ESCALATE_ONLY"
	DecisionProceed      DecisionType = "PROCEED"
)

// ReasonCode identifies which branch of the policy produced a decision.
type ReasonCode string

const (
	ReasonRelevanceBelowMinimum ReasonCode = "relevance_below_minimum"
	ReasonIntentUnclear         ReasonCode = "intent_unclear"
	ReasonIntentBelowDraftMin   ReasonCode = "intent_below_draft_minimum"
	ReasonConfident             ReasonCode = "confident"
)

// Thresholds is a decision policy. All bounds are inclusive lower bounds.
type Thresholds struct {
	RelevanceMin     float64
	IntentNoEscalate float64
	IntentDraftMin   float64
}

// DefaultThresholds is the production policy. Changing it is a policy change.
var DefaultThresholds = Thresholds{
	RelevanceMin:     0.60,
	IntentNoEscalate: 0.50,
	IntentDraftMin:   0.70,
}

// Validate checks that every threshold is in [0,1] and the intent bounds are ordered.
func (t Thresholds) Validate() error {
	bounds := []struct {
		name  string
		value float64
	}{
		{"relevance minimum", t.RelevanceMin},
		{"intent no-escalation minimum", t.IntentNoEscalate},
		{"intent draft minimum", t.IntentDraftMin},
	}
	for _, b := range bounds {
		if b.value < 0 || b.value > 1 {
			return fmt.Errorf("%s must be between 0.0 and 1.0, got %.2f", b.name, b.value)
		}
	}
	if t.IntentNoEscalate > t.IntentDraftMin {
		return fmt.Errorf("intent no-escalation minimum (%.2f) exceeds draft minimum (%.2f)", t.IntentNoEscalate, t.IntentDraftMin)
	}
	return nil
}

// Signals is the confidence pair an engine decides on.
type Signals struct {
	RelevanceConfidence float64 `json:"relevance_confidence"`
	IntentConfidence    float64 `json:"intent_confidence"`
}

// Band is the band of the weaker of the two signals.
func (s Signals) Band() Band {
	return MapToBand(math.Min(s.RelevanceConfidence, s.IntentConfidence))
}

// Decision is the engine output. Signals holds the clamped inputs so every
// action stays traceable to the pair that produced it.
type Decision struct {
	Type    DecisionType `json:"decision"`
	Reason  ReasonCode   `json:"reason_code"`
	Signals Signals      `json:"signals"`
}

// Engine is the only place the thresholds are compared.
type Engine struct {
	thresholds Thresholds
}

// NewEngine builds an engine around a policy.
func NewEngine(t Thresholds) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid decision thresholds: %w", err)
	}
	return &Engine{thresholds: t}, nil
}

// NewDefaultEngine builds an engine around DefaultThresholds.
func NewDefaultEngine() *Engine {
	return &Engine{thresholds: DefaultThresholds}
}

// Thresholds returns the policy the engine was built with.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Decide evaluates relevance first, then intent against the no-escalation
// minimum, then against the draft minimum.
func (e *Engine) Decide(in Signals) Decision {
	s := Signals{
		RelevanceConfidence: Clamp(in.RelevanceConfidence),
		IntentConfidence:    Clamp(in.IntentConfidence),
	}
	t := e.thresholds

	switch {
	case s.RelevanceConfidence < t.RelevanceMin:
		return Decision{Type: DecisionIgnore, Reason: ReasonRelevanceBelowMinimum, Signals: s}
	case s.IntentConfidence < t.IntentNoEscalate:
		return Decision{Type: DecisionEscalateOnly, Reason: ReasonIntentUnclear, Signals: s}
	case s.IntentConfidence < t.IntentDraftMin:
		return Decision{Type: DecisionEscalateOnly, Reason: ReasonIntentBelowDraftMin, Signals: s}
	default:
		return Decision{Type: DecisionProceed, Reason: ReasonConfident, Signals: s}
	}
}
