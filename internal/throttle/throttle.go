// Package throttle coalesces bursts of requests into periodic executions that
// always see the most recent request.
package throttle

import (
	"fmt"
	"sync"
	"time"
)

// DefaultDelay is the minimum interval between two fires.
const DefaultDelay = 12500 * time.Microsecond

type State int

const (
	Idle State = iota
	Scheduled
	Rendering
	RenderingWithPending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Rendering:
		return "rendering"
	case RenderingWithPending:
		return "rendering_with_pending"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Timer interface {
	Stop() bool
}

// AfterFunc arms f to run once after d. It must not call f synchronously.
type AfterFunc func(d time.Duration, f func()) Timer

type options struct {
	afterFunc AfterFunc
	now       func() time.Time
}

type Option func(*options)

func WithAfterFunc(fn AfterFunc) Option {
	return func(o *options) { o.afterFunc = fn }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Throttler runs fire with the latest notified value at most once per delay.
// The delay is measured from the first unconsumed notification, not reset by
// later ones. At most one fire runs at a time and at most one follow-up is
// retained while it runs.
type Throttler[T any] struct {
	delay     time.Duration
	fire      func(T)
	afterFunc AfterFunc
	now       func() time.Time

	mu          sync.Mutex
	state       State
	pending     T
	hasPending  bool
	lastRequest time.Time
	lastFire    time.Time
	timer       Timer
	epoch       uint64
	stopped     bool
}

func New[T any](delay time.Duration, fire func(T), opts ...Option) *Throttler[T] {
	o := options{
		afterFunc: func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) },
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if delay < 0 {
		delay = 0
	}
	return &Throttler[T]{
		delay:     delay,
		fire:      fire,
		afterFunc: o.afterFunc,
		now:       o.now,
	}
}

// Notify records v as the latest request and arms a fire if none is
// scheduled or running.
func (t *Throttler[T]) Notify(v T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	t.pending = v
	t.hasPending = true
	t.lastRequest = t.now()

	switch t.state {
	case Idle:
		t.state = Scheduled
		t.armLocked(t.delay)
	case Rendering:
		t.state = RenderingWithPending
	}
}

// Cancel drops the pending request and any armed fire. A fire that is
// already running completes, but its follow-up is discarded.
func (t *Throttler[T]) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

// Stop cancels and makes every later Notify a no-op.
func (t *Throttler[T]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.stopped = true
}

func (t *Throttler[T]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Throttler[T]) LastRequest() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRequest
}

func (t *Throttler[T]) cancelLocked() {
	t.epoch++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	var zero T
	t.pending = zero
	t.hasPending = false

	switch t.state {
	case Scheduled:
		t.state = Idle
	case RenderingWithPending:
		t.state = Rendering
	}
}

func (t *Throttler[T]) armLocked(d time.Duration) {
	epoch := t.epoch
	t.timer = t.afterFunc(d, func() { t.run(epoch) })
}

func (t *Throttler[T]) run(epoch uint64) {
	t.mu.Lock()
	if epoch != t.epoch || t.state != Scheduled || !t.hasPending {
		t.mu.Unlock()
		return
	}
	v := t.pending
	var zero T
	t.pending = zero
	t.hasPending = false
	t.timer = nil
	t.state = Rendering
	t.lastFire = t.now()
	t.mu.Unlock()

	defer t.finish()
	t.fire(v)
}

func (t *Throttler[T]) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == RenderingWithPending && t.hasPending && !t.stopped {
		t.state = Scheduled
		wait := t.delay - t.now().Sub(t.lastFire)
		if wait < 0 {
			wait = 0
		}
		t.armLocked(wait)
		return
	}
	t.state = Idle
}
