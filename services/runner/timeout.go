// Package runner executes unreliable calls under a hard deadline.
package runner

import (
	"context"
	"fmt"
	"time"
)

// Preset deadlines for AI calls.
const (
	ClassifyDeadline = 2500 * time.Millisecond
	DraftDeadline    = 6000 * time.Millisecond
)

// Result is the outcome of a bounded task. When TimedOut is set, Value and Err are zero.
type Result[T any] struct {
	Value    T
	Err      error
	TimedOut bool
	Elapsed  time.Duration
}

// Task is a unit of work run by WithTimeout.
type Task[T any] func(ctx context.Context) (T, error)

type outcome[T any] struct {
	value T
	err   error
}

// WithTimeout races task against deadline and returns as soon as either finishes.
//
// The task is not cancelled on timeout: it receives a context that keeps the
// caller's values but not its cancellation, and is left to finish on its own.
// A panicking task is reported through Result.Err.
func WithTimeout[T any](ctx context.Context, task Task[T], deadline time.Duration) Result[T] {
	start := time.Now()
	done := make(chan outcome[T], 1)

	go func() {
		var out outcome[T]
		defer func() {
			if r := recover(); r != nil {
				out = outcome[T]{err: fmt.Errorf("task panicked: %v", r)}
			}
			done <- out
		}()
		out.value, out.err = task(context.WithoutCancel(ctx))
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case out := <-done:
		return Result[T]{Value: out.value, Err: out.err, Elapsed: time.Since(start)}
	case <-timer.C:
		return Result[T]{TimedOut: true, Elapsed: time.Since(start)}
	}
}
