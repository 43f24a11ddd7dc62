package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bookdesk/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type fakeExpirer struct {
	expired []string
	cutoff  time.Time
	err     error
}

func (f *fakeExpirer) ExpireIfProposed(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.expired = append(f.expired, id)
	return true, nil
}

func (f *fakeExpirer) ExpireStale(_ context.Context, cutoff time.Time) (int, error) {
	f.cutoff = cutoff
	return 2, f.err
}

func TestExpireTaskHandler(t *testing.T) {
	f := &fakeExpirer{}
	mux := NewMux(f, time.Hour, zap.NewNop())
	task, _, err := tasks.NewExpireProposalTask("b1", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if err := mux.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if len(f.expired) != 1 || f.expired[0] != "b1" {
		t.Errorf("expired = %v, want [b1]", f.expired)
	}
}

func TestExpireTaskBadPayloadSkipsRetry(t *testing.T) {
	mux := NewMux(&fakeExpirer{}, time.Hour, zap.NewNop())
	b, _ := json.Marshal(map[string]string{})
	err := mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeExpireProposal, b))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("err = %v, want SkipRetry", err)
	}
}

func TestSweepUsesTTLCutoff(t *testing.T) {
	f := &fakeExpirer{}
	mux := NewMux(f, 48*time.Hour, zap.NewNop())
	before := time.Now().UTC().Add(-48 * time.Hour)
	if err := mux.ProcessTask(context.Background(), tasks.NewSweepProposalsTask()); err != nil {
		t.Fatal(err)
	}
	if f.cutoff.Before(before) || f.cutoff.After(before.Add(time.Minute)) {
		t.Errorf("cutoff = %v, want about %v", f.cutoff, before)
	}
}
