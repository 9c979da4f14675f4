package core

import (
	"context"
	"reflect"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskID uniquely identifies a task or job execution.
type TaskID string

// GenerateTaskID returns a new random TaskID.
func GenerateTaskID() TaskID {
	return TaskID(uuid.NewString())
}

func (id TaskID) String() string {
	return string(id)
}

const defaultHistoryCapacity = 100

// ExecutionRecord captures one completed job execution.
type ExecutionRecord struct {
	JobID      TaskID
	Name       string
	PoolName   string
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Panicked   bool
}

// ExecutionHistory is a fixed-capacity ring buffer of recent executions.
// Safe for concurrent use.
type ExecutionHistory struct {
	mu    sync.Mutex
	items []ExecutionRecord
	head  int
	count int
}

// NewExecutionHistory creates a history holding up to capacity records.
func NewExecutionHistory(capacity int) *ExecutionHistory {
	if capacity < 1 {
		capacity = defaultHistoryCapacity
	}
	return &ExecutionHistory{items: make([]ExecutionRecord, capacity)}
}

// Add appends a record, evicting the oldest when full.
func (h *ExecutionHistory) Add(record ExecutionRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.items) == 0 {
		return
	}

	h.items[h.head] = record
	h.head = (h.head + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

// Recent returns up to limit records, newest first.
// limit <= 0 returns everything retained.
func (h *ExecutionHistory) Recent(limit int) []ExecutionRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return nil
	}

	if limit <= 0 || limit > h.count {
		limit = h.count
	}

	out := make([]ExecutionRecord, 0, limit)
	for i := range limit {
		idx := (h.head - 1 - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out
}

// Last returns the most recent record, if any.
func (h *ExecutionHistory) Last() (ExecutionRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return ExecutionRecord{}, false
	}

	idx := (h.head - 1 + len(h.items)) % len(h.items)
	return h.items[idx], true
}

// ResolveJobName derives a human-readable name for a job from its function
// symbol, falling back to "anonymous".
func ResolveJobName(job Job) string {
	if job == nil {
		return "anonymous"
	}

	v := reflect.ValueOf(job)
	if v.Kind() != reflect.Func {
		return "anonymous"
	}

	pc := v.Pointer()
	if pc == 0 {
		return "anonymous"
	}

	fn := runtime.FuncForPC(pc)
	if fn == nil || fn.Name() == "" {
		return "anonymous"
	}
	return fn.Name()
}

// WrapObservedJob wraps a job so its execution is recorded into record,
// including executions that end in a panic (the panic is re-raised).
func WrapObservedJob(job Job, poolName string, record func(ExecutionRecord)) Job {
	jobID := GenerateTaskID()
	name := ResolveJobName(job)

	return func(ctx context.Context) {
		startedAt := time.Now()

		emit := func(panicked bool) {
			finishedAt := time.Now()
			record(ExecutionRecord{
				JobID:      jobID,
				Name:       name,
				PoolName:   poolName,
				StartedAt:  startedAt,
				FinishedAt: finishedAt,
				Duration:   finishedAt.Sub(startedAt),
				Panicked:   panicked,
			})
		}

		defer func() {
			if rec := recover(); rec != nil {
				emit(true)
				panic(rec)
			}
			emit(false)
		}()

		job(ctx)
	}
}
