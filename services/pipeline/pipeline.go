// Package pipeline routes an inbound customer message to ignore, escalation or an AI draft.
package pipeline

import (
	"context"
	"fmt"
	"time"

	inboxRepo "bookdesk/database/repository/inbox"
	"bookdesk/models"
	"bookdesk/services/confidence"
	"bookdesk/services/drafts"
	ai "bookdesk/services/intelligence"
	"bookdesk/services/runner"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Escalation reasons that do not come from the decision engine.
const (
	ReasonClassifierUnavailable = "classifier_unavailable"
	ReasonBandReview            = "band_requires_review"
	ReasonDraftTimeout          = "draft_timeout"
	ReasonDraftFailed           = "draft_failed"
)

// Ingester is the part of the ingestion layer the pipeline needs.
type Ingester interface {
	Ingest(ctx context.Context, event models.InboundEvent) (models.IngestResult, error)
	ResolveConversation(ctx context.Context, channel models.Channel, customerID string) (string, error)
	MarkProcessed(ctx context.Context, id string) error
}

// Drafter produces a draft when eligibility allows it.
type Drafter interface {
	Draft(ctx context.Context, req drafts.Request) (drafts.Outcome, error)
}

// Outcome is everything the pipeline decided about one message.
type Outcome struct {
	Ingest             models.IngestResult         `json:"ingest"`
	ConversationID     string                      `json:"conversation_id,omitempty"`
	Classification     *models.Classification      `json:"classification,omitempty"`
	ClassifierTimedOut bool                        `json:"classifier_timed_out,omitempty"`
	Decision           *confidence.BookingDecision `json:"decision,omitempty"`
	Draft              *drafts.Outcome             `json:"draft,omitempty"`
	Escalation         *models.Escalation          `json:"escalation,omitempty"`
}

// Pipeline wires ingestion, classification, the gate and drafting together.
type Pipeline struct {
	Ingest          Ingester
	Classifier      ai.MessageClassifier
	Gate            *confidence.Gate
	Drafts          Drafter
	Escalations     inboxRepo.EscalationRepository
	Memory          ai.ConversationMemory // optional
	BusinessName    string
	ClassifyTimeout time.Duration
	Logger          *zap.Logger
	Now             func() time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

// HandleInbound processes one customer message. Duplicates of a processed
// message stop after ingestion. A redelivery of a message whose first delivery
// failed part way is routed again, so an error here is always safe to retry.
func (p *Pipeline) HandleInbound(ctx context.Context, event models.InboundEvent) (Outcome, error) {
	event.Kind = models.EventMessage
	res, err := p.Ingest.Ingest(ctx, event)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Ingest: res}
	if res.Status == models.IngestAlreadyExists {
		if !res.Pending {
			return out, nil
		}
		p.Logger.Info("resuming unfinished delivery", zap.String("event_id", res.ID), zap.String("external_id", event.ExternalID))
	}

	out, err = p.route(ctx, event, out)
	if err != nil {
		return out, err
	}
	if err := p.Ingest.MarkProcessed(ctx, res.ID); err != nil {
		return out, err
	}

	p.remember(ctx, out.ConversationID, "Customer", event.Text)
	if out.Draft != nil && out.Draft.Draft != nil {
		p.remember(ctx, out.ConversationID, "Instructor (draft)", out.Draft.Draft.Text)
	}
	return out, nil
}

func (p *Pipeline) route(ctx context.Context, event models.InboundEvent, out Outcome) (Outcome, error) {
	res := out.Ingest
	convID, err := p.Ingest.ResolveConversation(ctx, event.Channel, event.SenderID)
	if err != nil {
		return out, err
	}
	out.ConversationID = convID

	timeout := p.ClassifyTimeout
	if timeout <= 0 {
		timeout = runner.ClassifyDeadline
	}
	cls := runner.WithTimeout(ctx, func(ctx context.Context) (models.Classification, error) {
		return p.Classifier.Classify(ctx, event.Text, models.ClassifyContext{ConversationID: convID, BusinessName: p.BusinessName})
	}, timeout)
	if cls.TimedOut || cls.Err != nil {
		out.ClassifierTimedOut = cls.TimedOut
		p.Logger.Warn("classifier unavailable, escalating",
			zap.String("conversation_id", convID), zap.Bool("timed_out", cls.TimedOut), zap.Error(cls.Err))
		out.Escalation, err = p.escalate(ctx, convID, res.ID, ReasonClassifierUnavailable, confidence.Signals{})
		return out, err
	}
	out.Classification = &cls.Value

	decision := p.Gate.DecideBooking(confidence.InputFromClassification(cls.Value))
	out.Decision = &decision
	sig := decision.Decision.Signals
	logFields := []zap.Field{
		zap.String("conversation_id", convID),
		zap.String("action", string(decision.Action)),
		zap.String("reason", string(decision.Decision.Reason)),
		zap.Float64("relevance_confidence", sig.RelevanceConfidence),
		zap.Float64("intent_confidence", sig.IntentConfidence),
	}

	switch decision.Action {
	case confidence.ActionIgnore:
		p.Logger.Debug("message ignored", logFields...)
		return out, nil
	case confidence.ActionEscalate:
		p.Logger.Info("message escalated", logFields...)
		out.Escalation, err = p.escalate(ctx, convID, res.ID, string(decision.Decision.Reason), sig)
		return out, err
	}

	draft, err := p.Drafts.Draft(ctx, drafts.Request{
		ConversationID: convID,
		ChannelID:      event.ChannelID,
		RecipientID:    event.SenderID,
		Text:           event.Text,
		Decision:       decision,
	})
	if err != nil {
		return out, err
	}
	out.Draft = &draft

	var reason string
	switch {
	case draft.TimedOut:
		reason = ReasonDraftTimeout
	case draft.GenerateErr != nil:
		reason = ReasonDraftFailed
	case !draft.Eligibility.Eligible:
		reason = string(draft.Eligibility.Reason)
	case confidence.RequiresEscalation(sig.Band()):
		reason = ReasonBandReview
	}
	if reason != "" {
		out.Escalation, err = p.escalate(ctx, convID, res.ID, reason, sig)
	}
	p.Logger.Info("message drafted", append(logFields, zap.Bool("stored", draft.Draft != nil), zap.String("escalation", reason))...)
	return out, err
}

func (p *Pipeline) escalate(ctx context.Context, convID, eventID, reason string, sig confidence.Signals) (*models.Escalation, error) {
	esc := &models.Escalation{
		ID:                  uuid.New().String(),
		ConversationID:      convID,
		EventID:             eventID,
		Reason:              reason,
		RelevanceConfidence: sig.RelevanceConfidence,
		IntentConfidence:    sig.IntentConfidence,
		CreatedAt:           p.now(),
	}
	if err := p.Escalations.Save(ctx, esc); err != nil {
		return nil, fmt.Errorf("failed to store escalation: %w", err)
	}
	return esc, nil
}

func (p *Pipeline) remember(ctx context.Context, convID, role, text string) {
	if p.Memory == nil || text == "" {
		return
	}
	if err := p.Memory.Append(ctx, convID, ai.Turn{Role: role, Text: text, At: p.now()}); err != nil {
		p.Logger.Warn("failed to remember turn", zap.String("conversation_id", convID), zap.Error(err))
	}
}
