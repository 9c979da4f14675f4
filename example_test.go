package asynctask_test

import (
	"context"
	"fmt"

	asynctask "github.com/Swind/go-async-task"
	"github.com/Swind/go-async-task/core"
)

// ExampleNewTask shows the basic lifecycle: create a task, execute it
// with parameters, and receive the result in the post-execute hook.
func ExampleNewTask() {
	asynctask.InitGlobalPoolWithConfig(asynctask.PoolConfig{
		Name:   "example-pool",
		Logger: core.NewNoOpLogger(),
	})
	defer asynctask.ShutdownGlobalPool()

	done := make(chan struct{})

	task := asynctask.NewTask(func(ctx context.Context, params ...int) (int, error) {
		return params[0] * 2, nil
	}).OnPostExecute(func(result int) {
		fmt.Println("result:", result)
		close(done)
	})

	if err := task.Execute(21); err != nil {
		fmt.Println("execute failed:", err)
	}
	<-done

	// Output:
	// result: 42
}

// ExampleNewSerialExecutor shows the ordering guarantee of the serial
// strategy: tasks sharing a serial executor complete strictly in
// submission order, even over a multi-worker pool.
func ExampleNewSerialExecutor() {
	asynctask.InitGlobalPoolWithConfig(asynctask.PoolConfig{
		Name:   "example-serial-pool",
		Logger: core.NewNoOpLogger(),
	})
	defer asynctask.ShutdownGlobalPool()

	serial := asynctask.NewSerialExecutor("example-serial", asynctask.GetGlobalPool())

	done := make(chan struct{})
	for i := 1; i <= 3; i++ {
		last := i == 3
		task := asynctask.NewAsyncTask(serial, func(ctx context.Context, params ...int) (int, error) {
			return params[0] * 10, nil
		}).OnPostExecute(func(result int) {
			fmt.Println("finished:", result)
			if last {
				close(done)
			}
		})
		if err := task.Execute(i); err != nil {
			fmt.Println("execute failed:", err)
		}
	}
	<-done

	// Output:
	// finished: 10
	// finished: 20
	// finished: 30
}
