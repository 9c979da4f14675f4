package core

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// CallbackLoop binds a dedicated goroutine to deliver completion callbacks
// sequentially. It is the serial channel completion hooks are routed onto
// when callers need all hooks on one goroutine (the UI-thread analogue).
//
// Key properties:
// - All posted callbacks run on the same goroutine, in post order
// - Posting never runs the callback inline on the caller's goroutine
// - A panicking callback is reported to the PanicHandler; the loop survives
type CallbackLoop struct {
	workQueue chan Job

	ctx    context.Context
	cancel context.CancelFunc

	stopped   chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once

	name         string
	panicHandler PanicHandler
}

// NewCallbackLoop creates and starts a callback loop with a dedicated
// goroutine.
func NewCallbackLoop(name string) *CallbackLoop {
	if name == "" {
		name = "callback-loop"
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &CallbackLoop{
		workQueue:    make(chan Job, 100), // Buffer to avoid blocking senders
		ctx:          ctx,
		cancel:       cancel,
		stopped:      make(chan struct{}),
		name:         name,
		panicHandler: &DefaultPanicHandler{},
	}

	go l.runLoop()

	return l
}

// WithPanicHandler replaces the loop's panic handler and returns the loop.
func (l *CallbackLoop) WithPanicHandler(h PanicHandler) *CallbackLoop {
	if h != nil {
		l.panicHandler = h
	}
	return l
}

// Name returns the loop's name.
func (l *CallbackLoop) Name() string {
	return l.name
}

// Post submits a callback for execution on the loop's goroutine.
// Callbacks posted after Close are dropped.
func (l *CallbackLoop) Post(cb Job) {
	if l.closed.Load() {
		return
	}

	select {
	case <-l.ctx.Done():
		// Loop stopped, drop callback
	case l.workQueue <- cb:
	}
}

// Close stops the loop. Callbacks already queued are still delivered;
// subsequent posts are dropped. Safe to call multiple times.
func (l *CallbackLoop) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		l.cancel()
		<-l.stopped
	})
}

// IsClosed returns true if the loop has been closed.
func (l *CallbackLoop) IsClosed() bool {
	return l.closed.Load()
}

func (l *CallbackLoop) runLoop() {
	defer close(l.stopped)

	for {
		select {
		case <-l.ctx.Done():
			// Drain callbacks that were queued before the close
			for {
				select {
				case cb := <-l.workQueue:
					l.safeRun(cb)
				default:
					return
				}
			}
		case cb := <-l.workQueue:
			l.safeRun(cb)
		}
	}
}

func (l *CallbackLoop) safeRun(cb Job) {
	defer func() {
		if r := recover(); r != nil {
			l.panicHandler.HandlePanic(l.ctx, l.name, -1, r, debug.Stack())
		}
	}()
	cb(l.ctx)
}
