package core

import "sync"

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// JobQueue is an unbounded FIFO of ready-to-run jobs.
// Safe for concurrent use.
type JobQueue struct {
	mu   sync.Mutex
	jobs []Job
}

func NewJobQueue() *JobQueue {
	return &JobQueue{
		jobs: make([]Job, 0, defaultQueueCap),
	}
}

func (q *JobQueue) Push(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
}

// PushFront re-inserts a job at the head of the queue, ahead of everything
// queued after it. Used to undo a dispatch the backend rejected.
func (q *JobQueue) PushFront(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append([]Job{job}, q.jobs...)
}

func (q *JobQueue) Pop() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return nil, false
	}

	job := q.jobs[0]
	// Zero out the element in the underlying array to prevent memory leak
	q.jobs[0] = nil
	q.jobs = q.jobs[1:]
	q.maybeCompactLocked()

	return job, true
}

func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *JobQueue) IsEmpty() bool {
	return q.Len() == 0
}

// Clear removes all jobs from the queue and releases references
func (q *JobQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = make([]Job, 0, defaultQueueCap)
}

// maybeCompactLocked re-allocates the backing array when the slice window
// has drifted far from its base, so popped jobs do not pin memory forever.
func (q *JobQueue) maybeCompactLocked() {
	n := len(q.jobs)
	c := cap(q.jobs)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.jobs = make([]Job, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultQueueCap), n)

	newSlice := make([]Job, n, newCap)
	copy(newSlice, q.jobs)
	q.jobs = newSlice
}
