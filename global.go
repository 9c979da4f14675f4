package asynctask

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Swind/go-async-task/core"
)

// =============================================================================
// Global Worker Pool and Default Executor Strategy (Singleton)
// =============================================================================

var (
	globalPool   *WorkerPool
	globalSerial *core.SerialExecutor
	globalMu     sync.Mutex

	// defaultExecutor holds the process-wide strategy for tasks created
	// through NewTask, stored as an executorBox.
	defaultExecutor atomic.Value
)

type executorBox struct {
	executor core.Executor
}

// InitGlobalPool initializes and starts the global worker pool with the
// default configuration and installs the serial strategy as the default.
func InitGlobalPool() {
	InitGlobalPoolWithConfig(DefaultPoolConfig())
}

// InitGlobalPoolWithConfig is InitGlobalPool with a custom configuration.
// Calling it again after initialization is a no-op.
func InitGlobalPoolWithConfig(config PoolConfig) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool != nil {
		return // Already initialized
	}

	globalPool = NewWorkerPool(config)
	globalPool.Start(context.Background())

	globalSerial = core.NewSerialExecutor("serial-default", globalPool)
	defaultExecutor.Store(executorBox{executor: globalSerial})
}

// GetGlobalPool returns the global worker pool instance.
// It panics if InitGlobalPool has not been called.
func GetGlobalPool() *WorkerPool {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool == nil {
		panic("global pool not initialized. Call InitGlobalPool() first.")
	}
	return globalPool
}

// ShutdownGlobalPool stops the global pool and clears the default strategy.
func ShutdownGlobalPool() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool != nil {
		globalPool.Stop()
		globalPool = nil
		globalSerial = nil
		defaultExecutor.Store(executorBox{})
	}
}

// UseSerialExecutor makes the serial strategy singleton the default again:
// one task body at a time, strict FIFO. This is the initial default.
// Affects tasks created after the switch.
func UseSerialExecutor() {
	globalMu.Lock()
	serial := globalSerial
	globalMu.Unlock()

	if serial == nil {
		panic("global pool not initialized. Call InitGlobalPool() first.")
	}
	defaultExecutor.Store(executorBox{executor: serial})
}

// UseParallelExecutor makes the pool itself the default strategy:
// tasks run concurrently up to the pool limits.
// Affects tasks created after the switch.
func UseParallelExecutor() {
	defaultExecutor.Store(executorBox{executor: GetGlobalPool()})
}

// SetDefaultExecutor installs a custom default strategy.
func SetDefaultExecutor(executor core.Executor) {
	if executor == nil {
		panic("SetDefaultExecutor: nil executor")
	}
	defaultExecutor.Store(executorBox{executor: executor})
}

// DefaultExecutor returns the currently configured default strategy.
// It panics if InitGlobalPool has not been called.
func DefaultExecutor() core.Executor {
	box, _ := defaultExecutor.Load().(executorBox)
	if box.executor == nil {
		panic("global pool not initialized. Call InitGlobalPool() first.")
	}
	return box.executor
}

// NewTask creates an AsyncTask bound to the currently configured default
// strategy. This is the recommended way to create a task.
func NewTask[P, R any](compute core.Computation[P, R]) *core.AsyncTask[P, R] {
	return core.NewAsyncTask(DefaultExecutor(), compute)
}
