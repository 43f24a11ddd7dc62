package drafts

import (
	"context"
	"fmt"
	"time"

	inboxRepo "bookdesk/database/repository/inbox"
	quotaRepo "bookdesk/database/repository/quota"
	"bookdesk/models"
	"bookdesk/services/confidence"
	"bookdesk/services/runner"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Generated is a candidate reply returned by a generator.
type Generated struct {
	Text      string
	Model     string
	CreatedAt time.Time
}

// Generator produces a reply for the latest message of a conversation.
type Generator interface {
	Generate(ctx context.Context, conversationID, latestMessage string) (Generated, error)
}

// Request identifies the message a draft is wanted for.
type Request struct {
	ConversationID string
	ChannelID      string
	RecipientID    string
	Text           string
	Decision       confidence.BookingDecision
}

// Outcome reports what happened to a draft request. Draft is nil unless one was stored.
type Outcome struct {
	Eligibility Eligibility   `json:"eligibility"`
	Draft       *models.Draft `json:"draft,omitempty"`
	TimedOut    bool          `json:"timed_out"`
	Elapsed     time.Duration `json:"elapsed"`
	GenerateErr error         `json:"-"`
}

// Service resolves eligibility and, when allowed, generates and stores a draft.
type Service struct {
	resolver  *Resolver
	generator Generator
	drafts    inboxRepo.DraftRepository
	quota     quotaRepo.QuotaRepository
	deadline  time.Duration
	logger    *zap.Logger
}

// NewService builds a draft service. A non-positive deadline uses runner.DraftDeadline.
func NewService(resolver *Resolver, gen Generator, drafts inboxRepo.DraftRepository, quota quotaRepo.QuotaRepository, deadline time.Duration, logger *zap.Logger) *Service {
	if deadline <= 0 {
		deadline = runner.DraftDeadline
	}
	return &Service{resolver: resolver, generator: gen, drafts: drafts, quota: quota, deadline: deadline, logger: logger}
}

// Draft never calls the generator once eligibility is blocked. A quota slot is
// reserved before generating and given back unless a draft is stored. A
// timeout or a generator failure is reported in the outcome, not as an error.
func (s *Service) Draft(ctx context.Context, req Request) (Outcome, error) {
	elig, err := s.resolver.Resolve(ctx, req.ChannelID, req.Decision.Action)
	if err != nil {
		s.logger.Warn("quota check failed, draft blocked", zap.String("channel_id", req.ChannelID), zap.Error(err))
	}
	out := Outcome{Eligibility: elig}
	if !elig.Eligible {
		return out, nil
	}

	day := time.Now().UTC()
	used, reserved, err := s.quota.Reserve(ctx, req.ChannelID, day, elig.Limit)
	switch {
	case err != nil:
		s.logger.Warn("quota reservation failed, draft blocked", zap.String("channel_id", req.ChannelID), zap.Error(err))
		out.Eligibility = blocked(ReasonQuotaUnavailable)
		return out, nil
	case !reserved:
		out.Eligibility = Eligibility{Reason: ReasonQuotaExceeded, Used: used, Limit: elig.Limit}
		return out, nil
	}
	out.Eligibility.Used = used
	release := func() {
		if err := s.quota.Release(context.WithoutCancel(ctx), req.ChannelID, day); err != nil {
			s.logger.Warn("failed to release quota slot", zap.String("channel_id", req.ChannelID), zap.Error(err))
		}
	}

	res := runner.WithTimeout(ctx, func(ctx context.Context) (Generated, error) {
		return s.generator.Generate(ctx, req.ConversationID, req.Text)
	}, s.deadline)
	out.TimedOut = res.TimedOut
	out.Elapsed = res.Elapsed

	switch {
	case res.TimedOut:
		release()
		s.logger.Warn("draft generation timed out",
			zap.String("conversation_id", req.ConversationID), zap.Duration("elapsed", res.Elapsed))
		return out, nil
	case res.Err != nil:
		release()
		out.GenerateErr = res.Err
		s.logger.Warn("draft generation failed",
			zap.String("conversation_id", req.ConversationID), zap.Error(res.Err))
		return out, nil
	}

	createdAt := res.Value.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	sig := req.Decision.Decision.Signals
	draft := &models.Draft{
		ID:                  uuid.New().String(),
		ConversationID:      req.ConversationID,
		ChannelID:           req.ChannelID,
		RecipientID:         req.RecipientID,
		Text:                res.Value.Text,
		Model:               res.Value.Model,
		Band:                string(sig.Band()),
		RelevanceConfidence: sig.RelevanceConfidence,
		IntentConfidence:    sig.IntentConfidence,
		CreatedAt:           createdAt,
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		release()
		return out, fmt.Errorf("failed to store draft: %w", err)
	}
	out.Draft = draft
	s.logger.Info("draft stored",
		zap.String("draft_id", draft.ID), zap.String("conversation_id", draft.ConversationID), zap.Duration("elapsed", res.Elapsed))
	return out, nil
}
