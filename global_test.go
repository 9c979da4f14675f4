package asynctask_test

import (
	"context"
	"sync"
	"testing"
	"time"

	asynctask "github.com/Swind/go-async-task"
	"github.com/Swind/go-async-task/core"
)

// TestGlobalPool_InitAndShutdown verifies the singleton lifecycle
// Given: an initialized global pool
// When: it is shut down
// Then: accessing it panics until the next init
func TestGlobalPool_InitAndShutdown(t *testing.T) {
	// Arrange
	asynctask.InitGlobalPoolWithConfig(asynctask.PoolConfig{
		Name:        "global-lifecycle",
		CoreWorkers: 1,
		MaxWorkers:  1,
		Logger:      core.NewNoOpLogger(),
	})

	pool := asynctask.GetGlobalPool()
	if !pool.IsRunning() {
		t.Fatal("global pool not running after init")
	}

	// Second init is a no-op
	asynctask.InitGlobalPool()
	if asynctask.GetGlobalPool() != pool {
		t.Error("second init replaced the global pool")
	}

	// Act
	asynctask.ShutdownGlobalPool()

	// Assert
	assertPanics(t, "GetGlobalPool after shutdown", func() {
		asynctask.GetGlobalPool()
	})
	assertPanics(t, "DefaultExecutor after shutdown", func() {
		asynctask.DefaultExecutor()
	})
}

// TestNewTask_DefaultSerialStrategy verifies the out-of-the-box behavior
// Given: a fresh global pool
// When: a task is created with NewTask and executed
// Then: it runs on the serial strategy and delivers its result
func TestNewTask_DefaultSerialStrategy(t *testing.T) {
	// Arrange
	asynctask.InitGlobalPoolWithConfig(asynctask.PoolConfig{
		Name:        "global-serial",
		CoreWorkers: 2,
		MaxWorkers:  2,
		Logger:      core.NewNoOpLogger(),
	})
	defer asynctask.ShutdownGlobalPool()

	results := make(chan int, 1)
	task := asynctask.NewTask(func(ctx context.Context, params ...int) (int, error) {
		return params[0] * 2, nil
	}).OnPostExecute(func(result int) {
		results <- result
	})

	// Act
	if err := task.Execute(21); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// Assert
	select {
	case got := <-results:
		if got != 42 {
			t.Errorf("result = %d, want 42", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task did not complete")
	}
}

// TestUseParallelExecutor_TasksOverlap verifies the strategy switch
// Given: the parallel strategy installed as default
// When: two blocking tasks execute
// Then: their computations overlap in time
func TestUseParallelExecutor_TasksOverlap(t *testing.T) {
	// Arrange
	asynctask.InitGlobalPoolWithConfig(asynctask.PoolConfig{
		Name:        "global-parallel",
		CoreWorkers: 2,
		MaxWorkers:  2,
		Logger:      core.NewNoOpLogger(),
	})
	defer asynctask.ShutdownGlobalPool()

	asynctask.UseParallelExecutor()
	defer asynctask.UseSerialExecutor()

	firstRunning := make(chan struct{})
	secondRunning := make(chan struct{})
	var done sync.WaitGroup
	done.Add(2)

	// Each task waits for the other, so serial execution would deadlock
	// the test instead of passing it.
	first := asynctask.NewTask(func(ctx context.Context, params ...struct{}) (struct{}, error) {
		close(firstRunning)
		select {
		case <-secondRunning:
		case <-time.After(2 * time.Second):
		}
		done.Done()
		return struct{}{}, nil
	})
	second := asynctask.NewTask(func(ctx context.Context, params ...struct{}) (struct{}, error) {
		close(secondRunning)
		select {
		case <-firstRunning:
		case <-time.After(2 * time.Second):
		}
		done.Done()
		return struct{}{}, nil
	})

	// Act
	if err := first.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if err := second.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	finished := make(chan struct{})
	go func() {
		done.Wait()
		close(finished)
	}()

	// Assert
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("parallel tasks did not both run")
	}
	select {
	case <-firstRunning:
	default:
		t.Error("first task never ran")
	}
	select {
	case <-secondRunning:
	default:
		t.Error("second task never ran")
	}
}

// TestUseSerialExecutor_RestoresOrdering verifies switching back
// Given: the default switched to parallel and back to serial
// When: several tasks created afterwards execute
// Then: they complete in submission order
func TestUseSerialExecutor_RestoresOrdering(t *testing.T) {
	// Arrange
	asynctask.InitGlobalPoolWithConfig(asynctask.PoolConfig{
		Name:        "global-restore",
		CoreWorkers: 4,
		MaxWorkers:  4,
		Logger:      core.NewNoOpLogger(),
	})
	defer asynctask.ShutdownGlobalPool()

	asynctask.UseParallelExecutor()
	asynctask.UseSerialExecutor()

	var mu sync.Mutex
	var order []int
	var done sync.WaitGroup

	const tasks = 8
	done.Add(tasks)

	// Act
	for i := 0; i < tasks; i++ {
		task := asynctask.NewTask(func(ctx context.Context, params ...int) (int, error) {
			return params[0], nil
		}).OnPostExecute(func(result int) {
			mu.Lock()
			order = append(order, result)
			mu.Unlock()
			done.Done()
		})
		if err := task.Execute(i); err != nil {
			t.Fatalf("Execute %d failed: %v", i, err)
		}
	}
	done.Wait()

	// Assert
	mu.Lock()
	defer mu.Unlock()
	for i, got := range order {
		if got != i {
			t.Fatalf("completion order = %v, want ascending", order)
		}
	}
}

// TestSetDefaultExecutor verifies a custom strategy can be installed
func TestSetDefaultExecutor(t *testing.T) {
	asynctask.InitGlobalPoolWithConfig(asynctask.PoolConfig{
		Name:        "global-custom",
		CoreWorkers: 1,
		MaxWorkers:  1,
		Logger:      core.NewNoOpLogger(),
	})
	defer asynctask.ShutdownGlobalPool()
	defer asynctask.UseSerialExecutor()

	custom := core.NewSerialExecutor("custom-serial", asynctask.GetGlobalPool())
	asynctask.SetDefaultExecutor(custom)

	done := make(chan struct{})
	task := asynctask.NewTask(func(ctx context.Context, params ...struct{}) (struct{}, error) {
		close(done)
		return struct{}{}, nil
	})
	if err := task.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run on the custom executor")
	}
	if custom.Stats().Name != "custom-serial" {
		t.Errorf("executor name = %q, want custom-serial", custom.Stats().Name)
	}

	assertPanics(t, "SetDefaultExecutor with nil", func() {
		asynctask.SetDefaultExecutor(nil)
	})
}

func assertPanics(t *testing.T, what string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s did not panic", what)
		}
	}()
	fn()
}
