package confidence

import (
	"testing"

	"bookdesk/models"

	"github.com/google/go-cmp/cmp"
)

func TestEngineDecide(t *testing.T) {
	e := NewDefaultEngine()
	tests := []struct {
		name       string
		in         Signals
		wantType   DecisionType
		wantReason ReasonCode
	}{
		{"irrelevant", Signals{0.10, 0.99}, DecisionIgnore, ReasonRelevanceBelowMinimum},
		{"relevance at minimum", Signals{0.60, 0.95}, DecisionProceed, ReasonConfident},
		{"intent unclear", Signals{0.90, 0.30}, DecisionEscalateOnly, ReasonIntentUnclear},
		{"between minimums", Signals{0.90, 0.55}, DecisionEscalateOnly, ReasonIntentBelowDraftMin},
		{"intent at draft minimum", Signals{0.90, 0.70}, DecisionProceed, ReasonConfident},
		{"intent at no-escalation minimum", Signals{0.90, 0.50}, DecisionEscalateOnly, ReasonIntentBelowDraftMin},
		{"out of range clamps", Signals{3, -1}, DecisionEscalateOnly, ReasonIntentUnclear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.Decide(tt.in)
			if d.Type != tt.wantType || d.Reason != tt.wantReason {
				t.Errorf("Decide(%+v) = %s/%s, want %s/%s", tt.in, d.Type, d.Reason, tt.wantType, tt.wantReason)
			}
		})
	}
}

func TestEngineRecordsClampedSignals(t *testing.T) {
	d := NewDefaultEngine().Decide(Signals{RelevanceConfidence: 1.4, IntentConfidence: -0.2})
	want := Signals{RelevanceConfidence: 1, IntentConfidence: 0}
	if diff := cmp.Diff(want, d.Signals); diff != "" {
		t.Errorf("signals mismatch (-want +got):\n%s", diff)
	}
}

func TestNewEngineRejectsBadPolicy(t *testing.T) {
	bad := []Thresholds{
		{RelevanceMin: 1.2, IntentNoEscalate: 0.5, IntentDraftMin: 0.7},
		{RelevanceMin: 0.6, IntentNoEscalate: 0.8, IntentDraftMin: 0.7},
		{RelevanceMin: 0.6, IntentNoEscalate: -0.1, IntentDraftMin: 0.7},
	}
	for _, th := range bad {
		if _, err := NewEngine(th); err == nil {
			t.Errorf("NewEngine(%+v) succeeded, want error", th)
		}
	}
}

func TestEngineAlternatePolicy(t *testing.T) {
	e, err := NewEngine(Thresholds{RelevanceMin: 0.2, IntentNoEscalate: 0.1, IntentDraftMin: 0.3})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if d := e.Decide(Signals{0.25, 0.35}); d.Type != DecisionProceed {
		t.Errorf("decision = %s, want %s", d.Type, DecisionProceed)
	}
}

func TestGateDecideBooking(t *testing.T) {
	g := NewGate(NewDefaultEngine())
	tests := []struct {
		name string
		in   BookingInput
		want Action
	}{
		{"confident booking", BookingInput{true, 0.95, models.IntentBooking, 0.95}, ActionAIReply},
		{"irrelevant regardless of intent", BookingInput{false, 0.10, models.IntentBooking, 0.99}, ActionIgnore},
		{"irrelevant with low intent", BookingInput{false, 0.10, models.IntentOther, 0.01}, ActionIgnore},
		{"between minimums", BookingInput{true, 0.90, models.IntentBooking, 0.55}, ActionEscalate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := g.DecideBooking(tt.in)
			if first.Action != tt.want {
				t.Errorf("action = %s, want %s", first.Action, tt.want)
			}
			if diff := cmp.Diff(first, g.DecideBooking(tt.in)); diff != "" {
				t.Errorf("DecideBooking not pure (-first +second):\n%s", diff)
			}
		})
	}
}
