package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
)

type captureEnqueuer struct {
	tasks []*asynq.Task
	ids   map[string]bool
}

func (c *captureEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.ids == nil {
		c.ids = make(map[string]bool)
	}
	var id string
	for _, o := range opts {
		if o.Type() == asynq.TaskIDOpt {
			id = o.Value().(string)
		}
	}
	if c.ids[id] {
		return nil, asynq.ErrTaskIDConflict
	}
	c.ids[id] = true
	c.tasks = append(c.tasks, task)
	return &asynq.TaskInfo{ID: id, Type: task.Type()}, nil
}

func TestScheduleExpiryIsIdempotent(t *testing.T) {
	c := &captureEnqueuer{}
	s := &AsynqExpiryScheduler{Client: c}
	at := time.Now().Add(time.Hour)

	for i := 0; i < 2; i++ {
		if err := s.ScheduleExpiry(context.Background(), "b1", at); err != nil {
			t.Fatalf("ScheduleExpiry #%d: %v", i+1, err)
		}
	}
	if len(c.tasks) != 1 {
		t.Fatalf("enqueued %d tasks, want 1", len(c.tasks))
	}
	if c.tasks[0].Type() != TypeExpireProposal {
		t.Errorf("type = %s", c.tasks[0].Type())
	}
	p, err := ParseExpirePayload(c.tasks[0])
	if err != nil || p.BookingID != "b1" {
		t.Errorf("payload = %+v, %v", p, err)
	}
}

func TestParseExpirePayloadRejectsEmpty(t *testing.T) {
	if _, err := ParseExpirePayload(asynq.NewTask(TypeExpireProposal, []byte(`{}`))); err == nil {
		t.Error("expected error for missing booking id")
	}
}
