package booking

import (
	"errors"
	"fmt"

	bookingRepo "bookdesk/database/repository/booking"
	"bookdesk/models"
)

// ErrBookingNotFound is returned when the booking to transition does not exist.
var ErrBookingNotFound = bookingRepo.ErrNotFound

// ErrTransitionConflict means the booking left the expected source state between
// read and write. The transition is no longer possible and must not be retried blindly.
var ErrTransitionConflict = errors.New("booking: transition no longer possible")

// ErrInvalidRequest wraps input that fails validation before anything is written.
var ErrInvalidRequest = errors.New("booking: invalid request")

// ErrBrokenAuditChain is returned by Replay when entries do not chain.
var ErrBrokenAuditChain = errors.New("booking: audit chain broken")

// InvalidTransitionError is a policy rejection: the requested edge is not whitelisted.
type InvalidTransitionError struct {
	From models.BookingState
	To   models.BookingState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid booking transition: %s -> %s", e.From, e.To)
}

// AuditWriteError means the state write may have landed but its audit entry did not.
// The enclosing operation has failed.
type AuditWriteError struct {
	BookingID string
	From      models.BookingState
	To        models.BookingState
	Err       error
}

func (e *AuditWriteError) Error() string {
	return fmt.Sprintf("audit write failed for booking %s (%s -> %s): %v", e.BookingID, e.From, e.To, e.Err)
}

func (e *AuditWriteError) Unwrap() error { return e.Err }
