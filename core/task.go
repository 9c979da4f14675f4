package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Status is the lifecycle state of an AsyncTask.
// The only legal sequence is Pending -> Running -> Finished.
type Status int32

const (
	// StatusPending: created, Execute has not been called yet
	StatusPending Status = iota

	// StatusRunning: Execute was called; the computation is queued or in flight
	StatusRunning

	// StatusFinished: the completion path ran; the instance is inert
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusRunning:
		return "RUNNING"
	case StatusFinished:
		return "FINISHED"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// Computation produces a result from params on a background worker.
// It must observe ctx to participate in cooperative cancellation;
// interruption is never forced on it.
type Computation[P, R any] func(ctx context.Context, params ...P) (R, error)

// AsyncTask is a single-shot unit of asynchronous work with its own
// lifecycle. Construct one per execution with NewAsyncTask, configure hooks
// with the On*/With* setters, then call Execute exactly once.
//
// The pre-execute hook runs synchronously on the goroutine calling Execute,
// before any background work starts. The post-execute hook runs after the
// computation completes, unless the task was cancelled. Hooks are delivered
// inline on the worker goroutine, or on a CallbackLoop when one is attached.
type AsyncTask[P, R any] struct {
	id       TaskID
	executor Executor
	compute  Computation[P, R]

	preExecute  func()
	postExecute func(R)
	onFailure   func(error)

	callbacks *CallbackLoop
	logger    Logger

	status    atomic.Int32
	cancelled atomic.Bool

	mu        sync.Mutex
	interrupt context.CancelFunc
	completed bool

	params []P
}

// NewAsyncTask creates a task that will run compute through the given
// executor. The task starts in StatusPending.
func NewAsyncTask[P, R any](executor Executor, compute Computation[P, R]) *AsyncTask[P, R] {
	return &AsyncTask[P, R]{
		id:       GenerateTaskID(),
		executor: executor,
		compute:  compute,
		logger:   NewDefaultLogger(),
	}
}

// OnPreExecute installs a hook invoked synchronously by Execute on the
// calling goroutine, before the computation is submitted.
// Must be called before Execute.
func (t *AsyncTask[P, R]) OnPreExecute(hook func()) *AsyncTask[P, R] {
	t.preExecute = hook
	return t
}

// OnPostExecute installs a hook receiving the computed result after
// completion. It is skipped when the task was cancelled.
// Must be called before Execute.
func (t *AsyncTask[P, R]) OnPostExecute(hook func(R)) *AsyncTask[P, R] {
	t.postExecute = hook
	return t
}

// OnFailure installs a handler receiving the wrapped failure when the
// computation returns an error or panics. Without a handler the completion
// path panics with the wrapped failure, so the pool's PanicHandler surfaces
// it loudly instead of swallowing it.
// Must be called before Execute.
func (t *AsyncTask[P, R]) OnFailure(handler func(error)) *AsyncTask[P, R] {
	t.onFailure = handler
	return t
}

// WithCallbackLoop routes the completion path (post-execute hook or failure
// delivery) onto the given loop instead of the worker goroutine.
// Must be called before Execute.
func (t *AsyncTask[P, R]) WithCallbackLoop(loop *CallbackLoop) *AsyncTask[P, R] {
	t.callbacks = loop
	return t
}

// WithLogger replaces the task's logger. Must be called before Execute.
func (t *AsyncTask[P, R]) WithLogger(logger Logger) *AsyncTask[P, R] {
	if logger != nil {
		t.logger = logger
	}
	return t
}

// ID returns the task's unique identifier.
func (t *AsyncTask[P, R]) ID() TaskID {
	return t.id
}

// Status returns the current lifecycle state. It may be read from any
// goroutine and never moves backward.
func (t *AsyncTask[P, R]) Status() Status {
	return Status(t.status.Load())
}

// IsCancelled reports whether Cancel has been called.
func (t *AsyncTask[P, R]) IsCancelled() bool {
	return t.cancelled.Load()
}

// Execute records params, transitions the task to StatusRunning, runs the
// pre-execute hook on the calling goroutine, and submits the computation to
// the executor. It returns once the job is queued; it never waits for the
// computation.
//
// Calling Execute on a running or finished task is a caller bug and fails
// with ErrTaskRunning / ErrTaskFinished. If the executor rejects the job
// (backend saturated or closed), the task transitions to StatusFinished and
// the rejection is returned to the caller.
func (t *AsyncTask[P, R]) Execute(params ...P) error {
	if !t.status.CompareAndSwap(int32(StatusPending), int32(StatusRunning)) {
		if t.Status() == StatusRunning {
			return fmt.Errorf("task %s: %w", t.id, ErrTaskRunning)
		}
		return fmt.Errorf("task %s: %w", t.id, ErrTaskFinished)
	}

	t.params = params

	if t.preExecute != nil {
		t.preExecute()
	}

	if err := t.executor.Execute(t.run); err != nil {
		t.mu.Lock()
		t.completed = true
		t.mu.Unlock()
		t.status.Store(int32(StatusFinished))
		return fmt.Errorf("task %s: %w", t.id, err)
	}
	return nil
}

// Cancel marks the task as cancelled. Cancellation only suppresses the
// post-execute hook; a computation already in flight keeps running unless
// mayInterrupt is true, in which case its context is cancelled and the
// computation is expected to observe it. Safe to call repeatedly and after
// completion.
//
// Returns false when the computation has already completed.
func (t *AsyncTask[P, R]) Cancel(mayInterrupt bool) bool {
	t.cancelled.Store(true)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.completed {
		return false
	}
	if mayInterrupt && t.interrupt != nil {
		t.interrupt()
	}
	return true
}

// run is the wrapped computation handed to the executor.
func (t *AsyncTask[P, R]) run(jobCtx context.Context) {
	t.mu.Lock()
	if t.completed {
		// Already finished through the rejection path; a requeued copy of
		// this job must not run the completion path twice.
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	var (
		result R
		err    error
	)

	// A task cancelled before its computation starts skips the computation
	// entirely but still goes through the completion path to FINISHED.
	if !t.cancelled.Load() {
		ctx, cancel := context.WithCancel(jobCtx)
		t.mu.Lock()
		t.interrupt = cancel
		t.mu.Unlock()

		result, err = t.invoke(ctx)
		cancel()
	}

	t.finish(jobCtx, result, err)
}

// invoke runs the computation, converting panics into errors so the
// completion path can surface them as wrapped failures.
func (t *AsyncTask[P, R]) invoke(ctx context.Context) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return t.compute(ctx, t.params...)
}

// finish is the single completion path. It delivers the result or failure,
// then stores StatusFinished strictly last, after the hook has run.
func (t *AsyncTask[P, R]) finish(ctx context.Context, result R, err error) {
	t.mu.Lock()
	t.completed = true
	t.interrupt = nil
	t.mu.Unlock()

	deliver := func(ctx context.Context) {
		// FINISHED must never be observable before the hook has had its
		// chance to run, and must be reached even if the hook panics.
		defer t.status.Store(int32(StatusFinished))

		if err != nil {
			if t.cancelled.Load() && errors.Is(err, context.Canceled) {
				// Expected outcome of cooperative cancellation, not a bug.
				t.logger.Warn("the task is interrupted", F("task", t.id))
				return
			}
			failure := &ComputationError{TaskID: t.id, Err: err}
			if t.onFailure != nil {
				t.onFailure(failure)
				return
			}
			panic(failure)
		}

		if !t.cancelled.Load() && t.postExecute != nil {
			t.postExecute(result)
		}
	}

	if t.callbacks != nil {
		t.callbacks.Post(deliver)
		return
	}
	deliver(ctx)
}
