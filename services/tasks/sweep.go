package tasks

import "github.com/hibiken/asynq"

const TypeSweepProposals = "booking:sweep"

// NewSweepProposalsTask catches proposals whose expiry task was never queued.
func NewSweepProposalsTask() *asynq.Task {
	return asynq.NewTask(TypeSweepProposals, nil)
}
