package inboxRepo

import (
	"context"
	"errors"
	"time"

	"bookdesk/models"
)

// ErrNotFound is returned when no draft matches the given id.
var ErrNotFound = errors.New("draft not found")

// DraftRepository stores AI drafts awaiting review.
type DraftRepository interface {
	Save(ctx context.Context, draft *models.Draft) error
	GetByID(ctx context.Context, id string) (*models.Draft, error)
	// Claim reserves an unsent draft for one sender. It reports false if the
	// draft is sent or holds a claim taken after staleBefore.
	Claim(ctx context.Context, id string, at, staleBefore time.Time) (bool, error)
	// Release drops the claim on an unsent draft.
	Release(ctx context.Context, id string) error
	// MarkSent stamps a draft as sent. It reports false if it was already sent.
	MarkSent(ctx context.Context, id string, at time.Time) (bool, error)
}

// EscalationRepository stores conversations flagged for a human.
type EscalationRepository interface {
	Save(ctx context.Context, esc *models.Escalation) error
}
