package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// SerialExecutor guarantees strict FIFO, one-at-a-time execution of jobs
// across however many tasks share it, regardless of backend parallelism.
//
// It never occupies a backend worker while idle: each submitted job is
// wrapped so that its completion pops and dispatches the next queued job.
// Dispatch is triggered from exactly two places, a fresh submission while
// idle and the completion of the previously active job.
type SerialExecutor struct {
	name    string
	backend Executor
	logger  Logger

	mu     sync.Mutex
	queue  *JobQueue
	active bool

	running int32 // atomic guard for concurrency assertion
}

// NewSerialExecutor creates a serial executor dispatching to backend.
func NewSerialExecutor(name string, backend Executor) *SerialExecutor {
	if name == "" {
		name = "serial"
	}
	return &SerialExecutor{
		name:    name,
		backend: backend,
		logger:  NewDefaultLogger(),
		queue:   NewJobQueue(),
	}
}

// WithLogger replaces the executor's logger and returns the executor.
func (e *SerialExecutor) WithLogger(logger Logger) *SerialExecutor {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// Name returns the executor's name, used in logs and stats.
func (e *SerialExecutor) Name() string {
	return e.name
}

// Execute enqueues job and, when no job is currently active, dispatches the
// head of the queue to the backend. The enqueue and the idle check form one
// critical section, so two concurrent submissions can never both observe
// "idle" and double-dispatch.
func (e *SerialExecutor) Execute(job Job) error {
	wrapped := func(ctx context.Context) {
		// Assertion: strictly one job of this executor in flight at a time
		if n := atomic.AddInt32(&e.running, 1); n > 1 {
			panic(fmt.Sprintf("SerialExecutor %s: concurrent execution detected (count=%d)", e.name, n))
		}
		defer func() {
			atomic.AddInt32(&e.running, -1)
			e.dispatchNext()
		}()

		job(ctx)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.queue.Push(wrapped)
	if !e.active {
		return e.dispatchNextLocked()
	}
	return nil
}

// dispatchNext advances the queue after the active job completed.
// A rejection here has no submitter to report to; it is logged and the
// executor returns to idle, so the next Execute call restarts the chain.
func (e *SerialExecutor) dispatchNext() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.dispatchNextLocked(); err != nil {
		e.logger.Error("failed to dispatch next queued job",
			F("executor", e.name), F("error", err))
	}
}

// dispatchNextLocked pops the next wrapper and hands it to the backend.
// Caller must hold e.mu.
func (e *SerialExecutor) dispatchNextLocked() error {
	next, ok := e.queue.Pop()
	if !ok {
		e.active = false
		return nil
	}

	e.active = true
	if err := e.backend.Execute(next); err != nil {
		// Put the wrapper back at the head so no job is lost and FIFO
		// order survives a saturated backend.
		e.queue.PushFront(next)
		e.active = false
		return err
	}
	return nil
}

// Pending returns the number of queued jobs not yet dispatched.
func (e *SerialExecutor) Pending() int {
	return e.queue.Len()
}

// Stats returns a snapshot of the executor's state.
func (e *SerialExecutor) Stats() ExecutorStats {
	e.mu.Lock()
	active := e.active
	e.mu.Unlock()

	return ExecutorStats{
		Name:    e.name,
		Pending: e.queue.Len(),
		Active:  active,
	}
}
