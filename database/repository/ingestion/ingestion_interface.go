package ingestionRepo

import (
	"context"
	"errors"
	"time"

	"bookdesk/models"
)

var (
	// ErrDuplicate is returned when an event with the same channel and external id exists.
	ErrDuplicate = errors.New("inbound event already recorded")
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("inbound event not found")
)

// EventRepository stores inbound events under a unique (channel, external_id) constraint.
type EventRepository interface {
	// Insert stores the event, or returns ErrDuplicate if its key is taken.
	Insert(ctx context.Context, event *models.InboundEvent) error
	FindByKey(ctx context.Context, channel models.Channel, externalID string) (*models.InboundEvent, error)
	// MarkProcessed sets processed_at once. Marking an already processed event is a no-op.
	MarkProcessed(ctx context.Context, id string, at time.Time) error
}

// IdentityRepository maps external customer identities to conversations.
type IdentityRepository interface {
	// GetOrCreate stores m unless a mapping for its (channel, customer) exists,
	// and returns whichever mapping is stored. Existing mappings are never overwritten.
	GetOrCreate(ctx context.Context, m models.ChannelIdentityMapping) (*models.ChannelIdentityMapping, bool, error)
}
