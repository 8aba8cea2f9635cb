// Package loop provides the single-goroutine event loop the view controllers run on.
//
// Controller callbacks (timer expiry, fetch completion, navigation) are executed one
// at a time on the loop goroutine, so controller state needs no locking. Blocking
// work such as HTTP fetches is started with Go and hands its result back with Post.
package loop

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Timer is a cancellable handle for a scheduled callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call stopped it.
	Stop() bool
}

// Runner is what controllers schedule work on.
type Runner interface {
	// Post queues fn to run on the loop.
	Post(fn func())
	// Go runs fn off the loop.
	Go(fn func())
	// AfterFunc runs fn on the loop once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Loop is the production Runner.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// New creates a loop with the given task queue size.
func New(queue int) *Loop {
	if queue <= 0 {
		queue = 64
	}
	return &Loop{
		tasks: make(chan func(), queue),
		done:  make(chan struct{}),
	}
}

// Run executes posted callbacks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			log.Println("Event loop shutting down.")
			return
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in loop callback: %v", r)
		}
	}()
	fn()
}

// Post queues fn on the loop. Callbacks posted after shutdown are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// Go runs fn in its own goroutine.
func (l *Loop) Go(fn func()) {
	go fn()
}

// AfterFunc schedules fn on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	lt.t = time.AfterFunc(d, func() {
		l.Post(func() {
			// Stop may have been called after the timer fired but before this ran.
			if lt.stopped.Load() {
				return
			}
			lt.fired.Store(true)
			fn()
		})
	})
	return lt
}

type loopTimer struct {
	t       *time.Timer
	stopped atomic.Bool
	fired   atomic.Bool
}

func (lt *loopTimer) Stop() bool {
	if lt.fired.Load() {
		return false
	}
	lt.t.Stop()
	return !lt.stopped.Swap(true)
}
