package core_test

import (
	"bytes"
	"context"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Swind/go-async-task/core"
)

func goroutineID() uint64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	// "goroutine <id> [...]"
	fields := bytes.Fields(buf)
	id, _ := strconv.ParseUint(string(fields[1]), 10, 64)
	return id
}

// TestCallbackLoop_OrderAndAffinity verifies sequential same-goroutine delivery
// Given: a callback loop with several posted callbacks
// When: they execute
// Then: they run in post order, all on the same goroutine, never the caller's
func TestCallbackLoop_OrderAndAffinity(t *testing.T) {
	// Arrange
	loop := core.NewCallbackLoop("order-loop")
	defer loop.Close()

	callerID := goroutineID()
	const callbacks = 10

	var (
		mu    sync.Mutex
		order []int
		gids  = make(map[uint64]bool)
		done  sync.WaitGroup
	)
	done.Add(callbacks)

	// Act
	for i := 0; i < callbacks; i++ {
		id := i
		loop.Post(func(ctx context.Context) {
			mu.Lock()
			order = append(order, id)
			gids[goroutineID()] = true
			mu.Unlock()
			done.Done()
		})
	}
	done.Wait()

	// Assert
	mu.Lock()
	defer mu.Unlock()
	for i, id := range order {
		if id != i {
			t.Fatalf("order[%d] = %d, want %d", i, id, i)
		}
	}
	if len(gids) != 1 {
		t.Errorf("callbacks ran on %d goroutines, want 1", len(gids))
	}
	if gids[callerID] {
		t.Error("callbacks ran inline on the caller's goroutine")
	}
}

// countingPanicHandler records panics for assertions.
type countingPanicHandler struct {
	mu     sync.Mutex
	panics []any
}

func (h *countingPanicHandler) HandlePanic(ctx context.Context, poolName string, workerID int, panicInfo any, stackTrace []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.panics = append(h.panics, panicInfo)
}

func (h *countingPanicHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.panics)
}

// TestCallbackLoop_SurvivesPanic verifies the loop outlives a panicking callback
// Given: a loop with a custom panic handler
// When: a callback panics and another is posted afterwards
// Then: the panic is reported and the later callback still runs
func TestCallbackLoop_SurvivesPanic(t *testing.T) {
	// Arrange
	handler := &countingPanicHandler{}
	loop := core.NewCallbackLoop("panic-loop").WithPanicHandler(handler)
	defer loop.Close()

	done := make(chan struct{})

	// Act
	loop.Post(func(ctx context.Context) {
		panic("callback boom")
	})
	loop.Post(func(ctx context.Context) {
		close(done)
	})

	// Assert
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not survive the panic")
	}
	if handler.count() != 1 {
		t.Errorf("panic handler invocations = %d, want 1", handler.count())
	}
}

// TestCallbackLoop_CloseDropsLatePosts verifies post-close behavior
// Given: a closed loop
// When: a callback is posted
// Then: it is dropped without panicking and the loop reports closed
func TestCallbackLoop_CloseDropsLatePosts(t *testing.T) {
	// Arrange
	loop := core.NewCallbackLoop("closed-loop")

	ran := make(chan struct{}, 1)
	loop.Post(func(ctx context.Context) {
		ran <- struct{}{}
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("pre-close callback not delivered")
	}

	// Act
	loop.Close()
	loop.Close() // idempotent
	loop.Post(func(ctx context.Context) {
		t.Error("callback posted after Close was executed")
	})

	// Assert
	if !loop.IsClosed() {
		t.Error("IsClosed = false after Close")
	}
	time.Sleep(20 * time.Millisecond) // give a buggy delivery a chance to fire
}
