package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

const TypeExpireProposal = "booking:expire"

// ExpirePayload names the booking a proposal expiry task acts on.
type ExpirePayload struct {
	BookingID string `json:"booking_id"`
}

// ExpireTaskID is the asynq task id for a booking, so a proposal is queued at most once.
func ExpireTaskID(bookingID string) string {
	return "expire:" + bookingID
}

func NewExpireProposalTask(bookingID string, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(ExpirePayload{BookingID: bookingID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeExpireProposal, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(ExpireTaskID(bookingID)),
		asynq.MaxRetry(5),
	}

	return task, opts, nil
}

// ParseExpirePayload decodes a task payload.
func ParseExpirePayload(task *asynq.Task) (ExpirePayload, error) {
	var p ExpirePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, err
	}
	if p.BookingID == "" {
		return p, errors.New("expire task without booking id")
	}
	return p, nil
}

// Enqueuer is the slice of *asynq.Client the scheduler uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqExpiryScheduler queues proposal expiries on asynq.
type AsynqExpiryScheduler struct {
	Client Enqueuer
}

// ScheduleExpiry treats an already queued task for the booking as success.
func (s *AsynqExpiryScheduler) ScheduleExpiry(ctx context.Context, bookingID string, at time.Time) error {
	task, opts, err := NewExpireProposalTask(bookingID, at)
	if err != nil {
		return err
	}
	_, err = s.Client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}
