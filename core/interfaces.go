package core

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling job panics
// =============================================================================

// PanicHandler is called when a job panics during execution. Task failures
// without an installed failure handler surface here as well, wrapped in a
// ComputationError, so nothing is silently discarded.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a job panics.
	//
	// Parameters:
	// - ctx: The context from the panicked job
	// - poolName: The name of the pool or loop where the panic occurred
	// - workerID: The ID of the worker (-1 for the callback loop)
	// - panicInfo: The panic value recovered from the job
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, poolName string, workerID int, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler provides a basic panic handler that logs to stdout.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stdout.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, poolName string, workerID int, panicInfo any, stackTrace []byte) {
	if workerID >= 0 {
		fmt.Printf("[Worker %d @ %s] Panic: %v\nStack trace:\n%s",
			workerID, poolName, panicInfo, stackTrace)
	} else {
		fmt.Printf("[%s] Panic: %v\nStack trace:\n%s",
			poolName, panicInfo, stackTrace)
	}
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting execution metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods should be non-blocking and fast to avoid impacting job execution.
type Metrics interface {
	// RecordJobDuration records how long a job took to execute.
	RecordJobDuration(poolName string, duration time.Duration)

	// RecordJobPanic records that a job panicked during execution.
	RecordJobPanic(poolName string, panicInfo any)

	// RecordQueueDepth records the current queue depth.
	// Called periodically to track queue growth/shrinkage.
	RecordQueueDepth(poolName string, depth int)

	// RecordJobRejected records that a job was rejected
	// (pool saturated or shut down).
	RecordJobRejected(poolName string, reason string)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordJobDuration is a no-op.
func (m *NilMetrics) RecordJobDuration(poolName string, duration time.Duration) {}

// RecordJobPanic is a no-op.
func (m *NilMetrics) RecordJobPanic(poolName string, panicInfo any) {}

// RecordQueueDepth is a no-op.
func (m *NilMetrics) RecordQueueDepth(poolName string, depth int) {}

// RecordJobRejected is a no-op.
func (m *NilMetrics) RecordJobRejected(poolName string, reason string) {}

// =============================================================================
// RejectedJobHandler: Interface for handling rejected jobs
// =============================================================================

// RejectedJobHandler is called when a job is rejected by the pool.
// This happens when:
// - The pool is shutting down
// - The job queue is full and the pool is at its maximum worker count
//
// Implementations should be thread-safe as they may be called concurrently.
type RejectedJobHandler interface {
	// HandleRejectedJob is called when a job is rejected.
	//
	// Parameters:
	// - poolName: The name of the pool
	// - reason: Why the job was rejected (e.g., "shutdown", "saturated")
	HandleRejectedJob(poolName string, reason string)
}

// DefaultRejectedJobHandler provides a basic handler that logs rejected jobs.
type DefaultRejectedJobHandler struct{}

// HandleRejectedJob logs the rejected job.
func (h *DefaultRejectedJobHandler) HandleRejectedJob(poolName string, reason string) {
	fmt.Printf("[Pool %s] Job rejected: %s\n", poolName, reason)
}
