package core

// PoolStats represents runtime observability state for a worker pool.
type PoolStats struct {
	Name         string
	CoreWorkers  int
	MaxWorkers   int
	ExtraWorkers int
	Queued       int
	Active       int
	Running      bool
}

// ExecutorStats represents runtime observability state for a serial executor.
type ExecutorStats struct {
	Name    string
	Pending int
	Active  bool
}
