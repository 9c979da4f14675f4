// Package asynctask provides an AsyncTask-inspired single-result background
// work primitive for Go.
//
// Each AsyncTask is one unit of asynchronous work with a strict lifecycle
// (PENDING -> RUNNING -> FINISHED), a user-supplied computation, optional
// pre/post execution hooks, and cooperative cancellation. Execution happens
// on a shared bounded worker pool, fronted by a pluggable executor strategy:
// strictly serial FIFO (the default) or direct submission for full
// parallelism.
//
// # Quick Start
//
// Initialize the global worker pool at application startup:
//
//	asynctask.InitGlobalPool()
//	defer asynctask.ShutdownGlobalPool()
//
// Create and execute a task:
//
//	task := asynctask.NewTask(func(ctx context.Context, params ...int) (int, error) {
//		return params[0] * 2, nil
//	}).OnPostExecute(func(result int) {
//		fmt.Println("result:", result) // 42
//	})
//
//	if err := task.Execute(21); err != nil {
//		// invalid state or pool saturated
//	}
//
// # Key Concepts
//
// AsyncTask: A single-shot task instance. Execute may be called exactly
// once; a second call fails with an invalid-state error. Cancel sets a flag
// that suppresses the post-execute hook and, with mayInterrupt, cancels the
// computation's context.
//
// Executor strategy: The submission policy in front of the pool. The
// process-wide default is a serial strategy (one task body at a time, FIFO);
// UseParallelExecutor switches subsequently created tasks to direct pool
// submission. Independent serial lanes can be created with
// NewSerialExecutor.
//
// WorkerPool: The shared bounded execution backend: NumCPU+1 core workers,
// growing to 2*NumCPU+1 under load, a 128-slot queue, and fail-fast
// saturation errors instead of blocking.
//
// CallbackLoop: An optional dedicated goroutine for hook delivery when all
// completion callbacks must land on one goroutine (the UI-thread analogue).
//
// # Thread Safety
//
// Status and cancellation are readable from any goroutine. Within one
// serial strategy, jobs never overlap and execute in submission order,
// which allows lock-free programming for resources owned by that lane.
package asynctask
