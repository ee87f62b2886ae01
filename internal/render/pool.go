package render

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

var ErrPoolClosed = errors.New("render pool closed")

// Pool is a fixed set of background workers.
type Pool struct {
	tasks  chan func()
	closed chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		tasks:  make(chan func()),
		closed: make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.closed:
			return
		case fn := <-p.tasks:
			fn()
		}
	}
}

// Submit hands fn to a worker, blocking until one accepts it.
func (p *Pool) Submit(ctx context.Context, fn func()) error {
	select {
	case <-p.closed:
		return ErrPoolClosed
	default:
	}
	select {
	case p.tasks <- fn:
		return nil
	case <-p.closed:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the workers after their current task and waits for them.
func (p *Pool) Close() {
	p.once.Do(func() { close(p.closed) })
	p.wg.Wait()
}

type result[T any] struct {
	val T
	err error
}

// Do runs fn on the pool and waits for its result. If ctx ends first Do
// returns ctx.Err(); fn still runs to completion on its worker.
func Do[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	ch := make(chan result[T], 1)
	err := p.Submit(ctx, func() {
		v, err := fn()
		ch <- result[T]{v, err}
	})
	if err != nil {
		var zero T
		return zero, err
	}
	select {
	case r := <-ch:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
