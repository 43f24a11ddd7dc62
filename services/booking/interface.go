package booking

import (
	"context"
	"time"

	"bookdesk/models"
)

// LifecycleService creates bookings and moves them through their states.
type LifecycleService interface {
	Create(ctx context.Context, req CreateRequest) (*models.Booking, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	Transition(ctx context.Context, id string, next models.BookingState, actor models.Actor) (*models.Booking, error)
	History(ctx context.Context, id string) (*History, error)
}

// ExpiryScheduler arranges for a proposed booking to be expired later.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, bookingID string, at time.Time) error
}

// CreateRequest is the input for a new booking, which always starts in draft.
type CreateRequest struct {
	InstructorID   string  `json:"instructor_id" binding:"required"`
	ConversationID string  `json:"conversation_id"`
	CustomerRef    string  `json:"customer_ref" binding:"required"`
	Date           string  `json:"date" binding:"required"`
	Start          int     `json:"start"`
	End            int     `json:"end"`
	TotalPrice     float64 `json:"total_price"`
}

// History is a booking's audit trail and whether it reproduces the stored state.
type History struct {
	Booking    *models.Booking            `json:"booking"`
	Entries    []models.BookingAuditEntry `json:"entries"`
	Replayed   models.BookingState        `json:"replayed_state"`
	Consistent bool                       `json:"consistent"`
}
