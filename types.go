package asynctask

import "github.com/Swind/go-async-task/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the asynctask package for most use cases.

// Job is the unit of work handed to an executor (Closure)
type Job = core.Job

// Executor is the pluggable submission policy (serial vs. direct pool)
type Executor = core.Executor

// SerialExecutor guarantees strict FIFO, one-at-a-time execution
type SerialExecutor = core.SerialExecutor

// CallbackLoop delivers completion hooks on one dedicated goroutine
type CallbackLoop = core.CallbackLoop

// Status is the task lifecycle state
type Status = core.Status

// TaskID uniquely identifies a task or job execution
type TaskID = core.TaskID

// Logger is the structured logging interface
type Logger = core.Logger

// Field is a structured logging key-value pair
type Field = core.Field

// Lifecycle states
const (
	StatusPending  Status = core.StatusPending
	StatusRunning  Status = core.StatusRunning
	StatusFinished Status = core.StatusFinished
)

// Errors
var (
	ErrTaskRunning   = core.ErrTaskRunning
	ErrTaskFinished  = core.ErrTaskFinished
	ErrPoolSaturated = core.ErrPoolSaturated
	ErrPoolClosed    = core.ErrPoolClosed
)

// Convenience constructors and helpers
var (
	F                         = core.F
	NewDefaultLogger          = core.NewDefaultLogger
	NewDefaultLoggerWithLevel = core.NewDefaultLoggerWithLevel
	NewNoOpLogger             = core.NewNoOpLogger
	NewCallbackLoop           = core.NewCallbackLoop
	GenerateTaskID            = core.GenerateTaskID
	GetCurrentExecutor        = core.GetCurrentExecutor
)

// NewSerialExecutor creates a serial strategy in front of the given backend.
// This is re-exported for advanced users who want private FIFO lanes
// sharing one pool.
func NewSerialExecutor(name string, backend Executor) *SerialExecutor {
	return core.NewSerialExecutor(name, backend)
}

// NewAsyncTask creates a task bound to an explicit executor, bypassing the
// process-wide default strategy.
func NewAsyncTask[P, R any](executor Executor, compute core.Computation[P, R]) *core.AsyncTask[P, R] {
	return core.NewAsyncTask(executor, compute)
}
