package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-async-task/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExecutorSnapshotProvider provides current serial executor stats snapshots.
type ExecutorSnapshotProvider interface {
	Stats() core.ExecutorStats
}

// PoolSnapshotProvider provides current pool stats snapshots.
type PoolSnapshotProvider interface {
	Stats() core.PoolStats
}

// SnapshotPoller periodically exports executor/pool Stats() snapshots into
// Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	executorsMu sync.RWMutex
	executors   map[string]ExecutorSnapshotProvider

	poolsMu sync.RWMutex
	pools   map[string]PoolSnapshotProvider

	executorPending *prom.GaugeVec
	executorActive  *prom.GaugeVec

	poolQueued  *prom.GaugeVec
	poolActive  *prom.GaugeVec
	poolWorkers *prom.GaugeVec
	poolExtra   *prom.GaugeVec
	poolRunning *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	executorPending := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "asynctask",
		Name:      "executor_pending",
		Help:      "Number of queued jobs per serial executor.",
	}, []string{"executor"})
	executorActive := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "asynctask",
		Name:      "executor_active",
		Help:      "Serial executor dispatch state (1=job in flight, 0=idle).",
	}, []string{"executor"})

	poolQueued := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "asynctask",
		Name:      "pool_queued",
		Help:      "Queued jobs per pool.",
	}, []string{"pool"})
	poolActive := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "asynctask",
		Name:      "pool_active",
		Help:      "Active jobs per pool.",
	}, []string{"pool"})
	poolWorkers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "asynctask",
		Name:      "pool_workers",
		Help:      "Core worker count per pool.",
	}, []string{"pool"})
	poolExtra := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "asynctask",
		Name:      "pool_extra_workers",
		Help:      "Excess workers currently alive per pool.",
	}, []string{"pool"})
	poolRunning := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "asynctask",
		Name:      "pool_running",
		Help:      "Pool running state (1=running, 0=stopped).",
	}, []string{"pool"})

	var err error
	if executorPending, err = registerCollector(reg, executorPending); err != nil {
		return nil, err
	}
	if executorActive, err = registerCollector(reg, executorActive); err != nil {
		return nil, err
	}
	if poolQueued, err = registerCollector(reg, poolQueued); err != nil {
		return nil, err
	}
	if poolActive, err = registerCollector(reg, poolActive); err != nil {
		return nil, err
	}
	if poolWorkers, err = registerCollector(reg, poolWorkers); err != nil {
		return nil, err
	}
	if poolExtra, err = registerCollector(reg, poolExtra); err != nil {
		return nil, err
	}
	if poolRunning, err = registerCollector(reg, poolRunning); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:        interval,
		executors:       make(map[string]ExecutorSnapshotProvider),
		pools:           make(map[string]PoolSnapshotProvider),
		executorPending: executorPending,
		executorActive:  executorActive,
		poolQueued:      poolQueued,
		poolActive:      poolActive,
		poolWorkers:     poolWorkers,
		poolExtra:       poolExtra,
		poolRunning:     poolRunning,
	}, nil
}

// AddExecutor adds or replaces a serial executor snapshot provider by name.
func (p *SnapshotPoller) AddExecutor(name string, provider ExecutorSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "executor")
	p.executorsMu.Lock()
	p.executors[name] = provider
	p.executorsMu.Unlock()
}

// AddPool adds or replaces a pool snapshot provider by name.
func (p *SnapshotPoller) AddPool(name string, provider PoolSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "pool")
	p.poolsMu.Lock()
	p.pools[name] = provider
	p.poolsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.executorsMu.RLock()
	for name, provider := range p.executors {
		stats := provider.Stats()
		p.executorPending.WithLabelValues(name).Set(float64(stats.Pending))
		if stats.Active {
			p.executorActive.WithLabelValues(name).Set(1)
		} else {
			p.executorActive.WithLabelValues(name).Set(0)
		}
	}
	p.executorsMu.RUnlock()

	p.poolsMu.RLock()
	for name, provider := range p.pools {
		stats := provider.Stats()
		p.poolQueued.WithLabelValues(name).Set(float64(stats.Queued))
		p.poolActive.WithLabelValues(name).Set(float64(stats.Active))
		p.poolWorkers.WithLabelValues(name).Set(float64(stats.CoreWorkers))
		p.poolExtra.WithLabelValues(name).Set(float64(stats.ExtraWorkers))
		if stats.Running {
			p.poolRunning.WithLabelValues(name).Set(1)
		} else {
			p.poolRunning.WithLabelValues(name).Set(0)
		}
	}
	p.poolsMu.RUnlock()
}
