package core

import "context"

// Job is the unit of work handed to an executor (Closure)
type Job func(ctx context.Context)

// =============================================================================
// Executor: Define job submission interface
// =============================================================================

// Executor is the submission policy sitting in front of the worker pool.
// Two implementations exist:
//   - SerialExecutor: strict FIFO, at most one job in flight at a time
//   - WorkerPool itself: direct submission, full parallelism up to pool limits
//
// Execute hands a job to the executor. It never blocks waiting for the job
// to run; it returns an error only when the job could not be accepted
// (backend saturated or shut down).
type Executor interface {
	Execute(job Job) error
}

// =============================================================================
// Context Helper
// =============================================================================
type executorKeyType struct{}

var executorKey executorKeyType

// WithExecutor returns a context carrying the given executor.
func WithExecutor(ctx context.Context, e Executor) context.Context {
	return context.WithValue(ctx, executorKey, e)
}

// GetCurrentExecutor retrieves the executor a job was dispatched through,
// or nil when the job was not run by this library.
func GetCurrentExecutor(ctx context.Context) Executor {
	if v := ctx.Value(executorKey); v != nil {
		return v.(Executor)
	}
	return nil
}
