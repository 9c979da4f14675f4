package core

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskRunning is returned by Execute when the task is already running.
	ErrTaskRunning = errors.New("task is running, can not execute again")

	// ErrTaskFinished is returned by Execute when the task already finished.
	// Task instances are single-shot; construct a new one instead.
	ErrTaskFinished = errors.New("task is finished, can not execute again")

	// ErrPoolSaturated is returned when the pool queue is full and no more
	// workers may be spawned. Submission fails fast instead of blocking.
	ErrPoolSaturated = errors.New("worker pool saturated")

	// ErrPoolClosed is returned when submitting to a stopped pool.
	ErrPoolClosed = errors.New("worker pool closed")
)

// ComputationError wraps an error raised by a task's computation.
// The original cause is available via errors.Unwrap / errors.As.
type ComputationError struct {
	TaskID TaskID
	Err    error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("task %s: an error occurred while executing the computation: %v", e.TaskID, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// PanicError carries a panic value recovered from a computation,
// so the completion path can treat panics as ordinary failures.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("computation panicked: %v", e.Value)
}
