package booking

import (
	"context"
	"fmt"
	"time"

	bookingRepo "bookdesk/database/repository/booking"
	"bookdesk/models"

	"github.com/google/uuid"
)

// AuditRecord is one approved transition to be written to the ledger.
type AuditRecord struct {
	BookingID     string
	PreviousState models.BookingState
	NewState      models.BookingState
	Actor         models.Actor
	// Seq is the booking version the transition produced.
	Seq int64
}

// AuditLog records booking transitions. Entries are never updated or removed.
type AuditLog struct {
	repo bookingRepo.AuditRepository
	now  func() time.Time
}

// NewAuditLog wraps an audit repository.
func NewAuditLog(repo bookingRepo.AuditRepository, now func() time.Time) *AuditLog {
	if now == nil {
		now = time.Now
	}
	return &AuditLog{repo: repo, now: now}
}

// Record appends one entry. Any failure comes back as *AuditWriteError.
func (a *AuditLog) Record(ctx context.Context, rec AuditRecord) error {
	fail := func(err error) error {
		return &AuditWriteError{BookingID: rec.BookingID, From: rec.PreviousState, To: rec.NewState, Err: err}
	}
	if rec.BookingID == "" {
		return fail(fmt.Errorf("missing booking id"))
	}
	if !rec.Actor.Valid() {
		return fail(fmt.Errorf("unknown actor %q", rec.Actor))
	}
	if rec.Seq <= 0 {
		return fail(fmt.Errorf("missing sequence number"))
	}

	entry := &models.BookingAuditEntry{
		ID:            uuid.New().String(),
		BookingID:     rec.BookingID,
		PreviousState: rec.PreviousState,
		NewState:      rec.NewState,
		Actor:         rec.Actor,
		Timestamp:     a.now().UTC(),
		Seq:           rec.Seq,
	}
	if err := a.repo.Append(ctx, entry); err != nil {
		return fail(err)
	}
	return nil
}

// ListForBooking returns a booking's entries in ledger order.
func (a *AuditLog) ListForBooking(ctx context.Context, bookingID string) ([]models.BookingAuditEntry, error) {
	entries, err := a.repo.ListForBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}
