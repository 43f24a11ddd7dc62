package confidence

import "bookdesk/models"

// Action is what the message pipeline should do with a message.
type Action string

const (
	ActionIgnore   Action = "ignore"
	ActionEscalate Action = "escalate"
	ActionAIReply  Action = "ai_reply"
)

// BookingInput is the classifier output the gate decides on.
type BookingInput struct {
	Relevance           bool          `json:"relevance"`
	RelevanceConfidence float64       `json:"relevance_confidence"`
	Intent              models.Intent `json:"intent"`
	IntentConfidence    float64       `json:"intent_confidence"`
}

// BookingDecision is the gate's verdict, with the engine decision behind it.
type BookingDecision struct {
	Action   Action   `json:"action"`
	Decision Decision `json:"decision"`
}

// Gate is the stable seam between the message pipeline and the engine.
type Gate struct {
	engine *Engine
}

// NewGate wraps an engine.
func NewGate(engine *Engine) *Gate {
	return &Gate{engine: engine}
}

// InputFromClassification adapts classifier output to gate input.
func InputFromClassification(c models.Classification) BookingInput {
	return BookingInput{
		Relevance:           c.Relevance,
		RelevanceConfidence: c.RelevanceConfidence,
		Intent:              c.Intent,
		IntentConfidence:    c.IntentConfidence,
	}
}

// DecideBooking maps the engine decision onto a pipeline action.
// Only the confidence pair is consulted; Relevance and Intent ride along for callers.
func (g *Gate) DecideBooking(in BookingInput) BookingDecision {
	d := g.engine.Decide(Signals{
		RelevanceConfidence: in.RelevanceConfidence,
		IntentConfidence:    in.IntentConfidence,
	})
	return BookingDecision{Action: actionFor(d.Type), Decision: d}
}

func actionFor(t DecisionType) Action {
	switch t {
	case DecisionProceed:
		return ActionAIReply
	case DecisionEscalateOnly:
		return ActionEscalate
	default:
		return ActionIgnore
	}
}
