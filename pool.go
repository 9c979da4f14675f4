package asynctask

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Swind/go-async-task/core"
)

// PoolConfig holds the worker pool configuration.
// It is immutable once the pool has been started.
// All handlers are optional; if not provided, default implementations will be used.
type PoolConfig struct {
	// Name identifies the pool in logs, metrics, and history records.
	Name string

	// CoreWorkers is the number of always-on workers.
	// Defaults to NumCPU+1.
	CoreWorkers int

	// MaxWorkers caps the total worker count, including excess workers
	// spawned under load. Defaults to 2*NumCPU+1.
	MaxWorkers int

	// QueueCapacity bounds the job queue. Submissions beyond it grow the
	// pool up to MaxWorkers, then fail with ErrPoolSaturated.
	QueueCapacity int

	// KeepAlive is how long an excess worker may sit idle before exiting.
	KeepAlive time.Duration

	// HistoryCapacity sizes the execution history ring buffer.
	HistoryCapacity int

	// PanicHandler is called when a job panics. Defaults to DefaultPanicHandler.
	PanicHandler core.PanicHandler

	// Metrics is called to record execution metrics. Defaults to NilMetrics.
	Metrics core.Metrics

	// RejectedJobHandler is called when a job is rejected. Defaults to DefaultRejectedJobHandler.
	RejectedJobHandler core.RejectedJobHandler

	// Logger is used for pool lifecycle logging. Defaults to DefaultLogger.
	Logger core.Logger
}

// DefaultPoolConfig returns the stock configuration: CPU-derived sizing,
// a 128-slot queue, and a one second keep-alive for excess workers.
func DefaultPoolConfig() PoolConfig {
	cpus := runtime.NumCPU()
	return PoolConfig{
		Name:            "asynctask-pool",
		CoreWorkers:     cpus + 1,
		MaxWorkers:      2*cpus + 1,
		QueueCapacity:   128,
		KeepAlive:       time.Second,
		HistoryCapacity: 100,
	}
}

func (c PoolConfig) withDefaults() PoolConfig {
	stock := DefaultPoolConfig()
	if c.Name == "" {
		c.Name = stock.Name
	}
	if c.CoreWorkers <= 0 {
		c.CoreWorkers = stock.CoreWorkers
	}
	if c.MaxWorkers < c.CoreWorkers {
		c.MaxWorkers = max(stock.MaxWorkers, c.CoreWorkers)
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = stock.QueueCapacity
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = stock.KeepAlive
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = stock.HistoryCapacity
	}
	if c.PanicHandler == nil {
		c.PanicHandler = &core.DefaultPanicHandler{}
	}
	if c.Metrics == nil {
		c.Metrics = &core.NilMetrics{}
	}
	if c.RejectedJobHandler == nil {
		c.RejectedJobHandler = &core.DefaultRejectedJobHandler{}
	}
	if c.Logger == nil {
		c.Logger = core.NewDefaultLogger()
	}
	return c
}

// WorkerPool is the shared execution backend: a bounded set of worker
// goroutines pulling jobs from a bounded queue. It grows from CoreWorkers
// up to MaxWorkers when the queue fills, and sheds the excess again after
// KeepAlive of idleness.
//
// WorkerPool implements core.Executor; submitting to it directly is the
// "parallel" strategy, full parallelism up to the pool limits.
type WorkerPool struct {
	config  PoolConfig
	jobs    chan core.Job
	history *core.ExecutionHistory

	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	runningMu sync.RWMutex

	extra        atomic.Int32 // excess workers currently alive
	active       atomic.Int32 // jobs currently executing
	nextWorkerID atomic.Int32
}

var _ core.Executor = (*WorkerPool)(nil)

// NewWorkerPool creates a pool with the given configuration.
// Call Start before submitting jobs.
func NewWorkerPool(config PoolConfig) *WorkerPool {
	config = config.withDefaults()
	return &WorkerPool{
		config:  config,
		jobs:    make(chan core.Job, config.QueueCapacity),
		history: core.NewExecutionHistory(config.HistoryCapacity),
	}
}

// Start spawns the core workers.
func (p *WorkerPool) Start(ctx context.Context) {
	p.runningMu.Lock()
	defer p.runningMu.Unlock()

	if p.running {
		return // Already running
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true

	for i := 0; i < p.config.CoreWorkers; i++ {
		id := int(p.nextWorkerID.Add(1)) - 1
		p.wg.Add(1)
		go p.coreWorkerLoop(id, p.ctx)
	}

	p.config.Logger.Info("worker pool started",
		core.F("pool", p.config.Name),
		core.F("core_workers", p.config.CoreWorkers),
		core.F("max_workers", p.config.MaxWorkers))
}

// Stop cancels all workers and drops queued jobs.
func (p *WorkerPool) Stop() {
	p.runningMu.Lock()
	if !p.running {
		p.runningMu.Unlock()
		return
	}
	p.running = false
	p.runningMu.Unlock()

	p.cancel()
	p.Join()
	p.drainQueue()

	p.config.Logger.Info("worker pool stopped", core.F("pool", p.config.Name))
}

// StopGraceful stops the pool after the queue has drained and all active
// jobs finished. Returns an error if timeout elapses first; the pool is
// stopped either way.
func (p *WorkerPool) StopGraceful(timeout time.Duration) error {
	p.runningMu.Lock()
	if !p.running {
		p.runningMu.Unlock()
		return nil
	}
	p.running = false // stop accepting new jobs
	p.runningMu.Unlock()

	deadline := time.After(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			p.cancel()
			p.Join()
			p.drainQueue()
			return fmt.Errorf("pool %s: graceful stop timeout after %v", p.config.Name, timeout)
		case <-ticker.C:
			if len(p.jobs) == 0 && p.active.Load() == 0 {
				p.cancel()
				p.Join()
				return nil
			}
		}
	}
}

// Join waits for all worker goroutines to finish.
func (p *WorkerPool) Join() {
	p.wg.Wait()
}

// Name returns the pool's name.
func (p *WorkerPool) Name() string {
	return p.config.Name
}

// IsRunning returns whether the pool is accepting jobs.
func (p *WorkerPool) IsRunning() bool {
	p.runningMu.RLock()
	defer p.runningMu.RUnlock()
	return p.running
}

// History returns the pool's execution history.
func (p *WorkerPool) History() *core.ExecutionHistory {
	return p.history
}

// Execute submits a job for parallel execution. The job is queued when the
// queue has room; a full queue grows the pool with an excess worker that
// takes the job directly. With the queue full and the pool at MaxWorkers
// the submission fails fast with ErrPoolSaturated - it never blocks.
func (p *WorkerPool) Execute(job core.Job) error {
	p.runningMu.RLock()
	running, ctx := p.running, p.ctx
	p.runningMu.RUnlock()

	if !running {
		p.config.RejectedJobHandler.HandleRejectedJob(p.config.Name, "shutdown")
		p.config.Metrics.RecordJobRejected(p.config.Name, "shutdown")
		return fmt.Errorf("pool %s: %w", p.config.Name, core.ErrPoolClosed)
	}

	wrapped := core.WrapObservedJob(job, p.config.Name, p.history.Add)

	select {
	case p.jobs <- wrapped:
		p.config.Metrics.RecordQueueDepth(p.config.Name, len(p.jobs))
		return nil
	default:
	}

	// Queue is full: hand the job to a fresh excess worker, if allowed.
	for {
		n := p.extra.Load()
		if int(n) >= p.config.MaxWorkers-p.config.CoreWorkers {
			p.config.RejectedJobHandler.HandleRejectedJob(p.config.Name, "saturated")
			p.config.Metrics.RecordJobRejected(p.config.Name, "saturated")
			return fmt.Errorf("pool %s: %w", p.config.Name, core.ErrPoolSaturated)
		}
		if p.extra.CompareAndSwap(n, n+1) {
			id := int(p.nextWorkerID.Add(1)) - 1
			p.wg.Add(1)
			go p.extraWorkerLoop(id, ctx, wrapped)
			return nil
		}
	}
}

// coreWorkerLoop is the main loop of an always-on worker.
func (p *WorkerPool) coreWorkerLoop(id int, ctx context.Context) {
	defer p.wg.Done()

	p.config.Logger.Debug("worker started",
		core.F("pool", p.config.Name), core.F("worker", fmt.Sprintf("%s-worker-%d", p.config.Name, id)))

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			p.runJob(id, ctx, job)
		}
	}
}

// extraWorkerLoop runs the handed-off job, then keeps draining the queue
// until it has been idle for KeepAlive.
func (p *WorkerPool) extraWorkerLoop(id int, ctx context.Context, first core.Job) {
	defer p.wg.Done()
	defer p.extra.Add(-1)

	p.config.Logger.Debug("excess worker started",
		core.F("pool", p.config.Name), core.F("worker", fmt.Sprintf("%s-worker-%d", p.config.Name, id)))

	p.runJob(id, ctx, first)

	timer := time.NewTimer(p.config.KeepAlive)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			p.runJob(id, ctx, job)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(p.config.KeepAlive)
		case <-timer.C:
			// Idle past keep-alive: shed this worker
			return
		}
	}
}

// runJob executes one job with panic recovery and metrics.
func (p *WorkerPool) runJob(id int, ctx context.Context, job core.Job) {
	start := time.Now()
	p.active.Add(1)

	defer func() {
		p.active.Add(-1)
		p.config.Metrics.RecordJobDuration(p.config.Name, time.Since(start))
		if r := recover(); r != nil {
			p.config.Metrics.RecordJobPanic(p.config.Name, r)
			p.config.PanicHandler.HandlePanic(ctx, p.config.Name, id, r, debug.Stack())
		}
	}()

	job(core.WithExecutor(ctx, p))
}

// drainQueue discards queued jobs after a stop, releasing their references.
func (p *WorkerPool) drainQueue() {
	for {
		select {
		case <-p.jobs:
		default:
			return
		}
	}
}

// QueuedJobCount returns the number of jobs waiting in the queue.
func (p *WorkerPool) QueuedJobCount() int {
	return len(p.jobs)
}

// ActiveJobCount returns the number of jobs currently executing.
func (p *WorkerPool) ActiveJobCount() int {
	return int(p.active.Load())
}

// ExtraWorkerCount returns the number of excess workers currently alive.
func (p *WorkerPool) ExtraWorkerCount() int {
	return int(p.extra.Load())
}

// Stats returns a snapshot of the pool's state.
func (p *WorkerPool) Stats() core.PoolStats {
	return core.PoolStats{
		Name:         p.config.Name,
		CoreWorkers:  p.config.CoreWorkers,
		MaxWorkers:   p.config.MaxWorkers,
		ExtraWorkers: int(p.extra.Load()),
		Queued:       len(p.jobs),
		Active:       int(p.active.Load()),
		Running:      p.IsRunning(),
	}
}
