package render

import (
	"context"
	"sync"
)

// Dispatcher delivers callbacks to the interactive context.
type Dispatcher interface {
	Dispatch(fn func())
}

// Inline runs callbacks immediately on the calling goroutine.
type Inline struct{}

func (Inline) Dispatch(fn func()) { fn() }

// MainQueue serializes callbacks onto the goroutine that calls Run.
type MainQueue struct {
	ch   chan func()
	done chan struct{}
	once sync.Once
}

func NewMainQueue(buffer int) *MainQueue {
	if buffer < 0 {
		buffer = 0
	}
	return &MainQueue{
		ch:   make(chan func(), buffer),
		done: make(chan struct{}),
	}
}

// Dispatch enqueues fn. Callbacks dispatched after Close are dropped.
func (q *MainQueue) Dispatch(fn func()) {
	select {
	case <-q.done:
		return
	default:
	}
	select {
	case q.ch <- fn:
	case <-q.done:
	}
}

// Run executes queued callbacks until ctx ends or the queue is closed.
func (q *MainQueue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			return nil
		case fn := <-q.ch:
			fn()
		}
	}
}

func (q *MainQueue) Close() {
	q.once.Do(func() { close(q.done) })
}
