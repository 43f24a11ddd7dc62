package outbound

import (
	"context"
	"errors"
	"fmt"
	"time"

	inboxRepo "bookdesk/database/repository/inbox"
	"bookdesk/models"

	"go.uber.org/zap"
)

var (
	ErrDraftNotFound  = errors.New("draft not found")
	ErrAlreadySent    = errors.New("draft already sent")
	ErrSendInProgress = errors.New("draft send in progress")
)

// claimTimeout bounds how long a crashed sender can hold a draft. It exceeds
// the send timeout.
const claimTimeout = 2 * time.Minute

// Dispatcher sends stored drafts once a human approves them.
type Dispatcher struct {
	Drafts inboxRepo.DraftRepository
	Sender Sender
	Logger *zap.Logger
	Now    func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

// SendDraft claims a draft, delivers it and stamps it sent. Only the holder
// of the claim sends. A failed or rate-limited attempt releases the claim and
// leaves the draft unsent so it can be retried.
func (d *Dispatcher) SendDraft(ctx context.Context, draftID string) (*models.Draft, error) {
	draft, err := d.Drafts.GetByID(ctx, draftID)
	if errors.Is(err, inboxRepo.ErrNotFound) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	if !draft.SentAt.IsZero() {
		return nil, ErrAlreadySent
	}

	claimedAt := d.now()
	claimed, err := d.Drafts.Claim(ctx, draftID, claimedAt, claimedAt.Add(-claimTimeout))
	if err != nil {
		return nil, err
	}
	if !claimed {
		if current, err := d.Drafts.GetByID(ctx, draftID); err == nil && !current.SentAt.IsZero() {
			return nil, ErrAlreadySent
		}
		return nil, ErrSendInProgress
	}

	msg := Message{ChannelID: draft.ChannelID, RecipientID: draft.RecipientID, Text: draft.Text}
	if err := d.Sender.Send(ctx, msg); err != nil {
		if rerr := d.Drafts.Release(context.WithoutCancel(ctx), draftID); rerr != nil {
			d.Logger.Warn("failed to release draft claim", zap.String("draft_id", draftID), zap.Error(rerr))
		}
		return nil, fmt.Errorf("failed to send draft %s: %w", draftID, err)
	}

	sentAt := d.now()
	ok, err := d.Drafts.MarkSent(ctx, draftID, sentAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		d.Logger.Warn("draft sent twice", zap.String("draft_id", draftID))
		return nil, ErrAlreadySent
	}
	draft.SentAt = sentAt
	d.Logger.Info("draft sent", zap.String("draft_id", draftID), zap.String("conversation_id", draft.ConversationID))
	return draft, nil
}
