package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/Swind/go-async-task/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type executorStub struct {
	stats core.ExecutorStats
}

func (s executorStub) Stats() core.ExecutorStats { return s.stats }

type poolStub struct {
	stats core.PoolStats
}

func (s poolStub) Stats() core.PoolStats { return s.stats }

func TestSnapshotPoller_CollectsExecutorAndPoolStats(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	poller.AddExecutor("serial-a", executorStub{stats: core.ExecutorStats{
		Name:    "serial-a",
		Pending: 3,
		Active:  true,
	}})
	poller.AddPool("pool-a", poolStub{stats: core.PoolStats{
		Name:         "pool-a",
		CoreWorkers:  5,
		MaxWorkers:   9,
		ExtraWorkers: 2,
		Queued:       4,
		Active:       2,
		Running:      true,
	}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		pending := testutil.ToFloat64(poller.executorPending.WithLabelValues("serial-a"))
		active := testutil.ToFloat64(poller.poolActive.WithLabelValues("pool-a"))
		return pending == 3 && active == 2
	})

	if got := testutil.ToFloat64(poller.executorActive.WithLabelValues("serial-a")); got != 1 {
		t.Fatalf("executor active gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(poller.poolExtra.WithLabelValues("pool-a")); got != 2 {
		t.Fatalf("pool extra workers gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(poller.poolRunning.WithLabelValues("pool-a")); got != 1 {
		t.Fatalf("pool running gauge = %v, want 1", got)
	}
}

func TestSnapshotPoller_StartStop_Idempotent(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller.Start(ctx)
	poller.Start(ctx)
	poller.Stop()
	poller.Stop()
}

func assertEventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}
