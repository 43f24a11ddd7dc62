package bookingRepo

import (
	"context"
	"errors"
	"time"

	"bookdesk/models"
)

// ErrNotFound is returned when no booking matches the given id.
var ErrNotFound = errors.New("booking not found")

// BookingRepository persists booking rows.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// UpdateStateIf moves a booking from one state to another only if the row is
	// still in from, and bumps its version. It returns the new version, or false
	// when no row matched.
	UpdateStateIf(ctx context.Context, id string, from, to models.BookingState, at time.Time) (int64, bool, error)
	// ListByState returns bookings in a given state last updated before cutoff.
	ListByState(ctx context.Context, state models.BookingState, updatedBefore time.Time) ([]models.Booking, error)
}

// AuditRepository is the append-only ledger of booking transitions.
type AuditRepository interface {
	// Append stores an entry. Seq must be set; a repeated (booking, seq) is rejected.
	Append(ctx context.Context, entry *models.BookingAuditEntry) error
	// ListForBooking returns entries ordered by sequence.
	ListForBooking(ctx context.Context, bookingID string) ([]models.BookingAuditEntry, error)
}
