// Package dispatch provides the designated consumer context: a single
// goroutine draining an ordered queue of commands. Anything that refreshes a
// view or reports to the user runs here and nowhere else.
package dispatch

import (
	"context"
	"sync"
)

// Loop is an unbounded FIFO command queue drained by whichever goroutine
// calls Run. Post never blocks, so a slow consumer never stalls a worker.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
	done   chan struct{}
}

// New creates an idle loop.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post queues fn for execution on the consumer goroutine.
// It returns false once the loop has been closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run drains the queue on the calling goroutine until ctx is cancelled or
// Close is called. After Close, commands already queued still run.
func (l *Loop) Run(ctx context.Context) {
	for {
		for _, fn := range l.take() {
			fn()
		}

		l.mu.Lock()
		finished := l.closed && len(l.queue) == 0
		l.mu.Unlock()
		if finished {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-l.done:
		case <-l.wake:
		}
	}
}

// Close stops accepting commands. Safe to call more than once.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.done)
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.queue
	l.queue = nil
	return batch
}
