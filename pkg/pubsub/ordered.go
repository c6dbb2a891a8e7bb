package pubsub

import (
	"context"
	"sync"
)

// Versioned tags a value with the version of the state it was read from.
// Versions grow with every change of that state.
type Versioned[T any] struct {
	Version uint64
	Value   T
}

// Ordered is a Subscriber handing values to one callback at a time, in
// increasing version order. A value not newer than one already accepted is
// dropped. A value arriving while the callback runs, from another goroutine
// or from the callback itself, is queued and delivered by the goroutine
// already delivering.
type Ordered[T any] struct {
	fn func(T)

	mu      sync.Mutex
	last    uint64
	queue   []Versioned[T]
	running bool
}

// NewOrdered returns an Ordered subscriber that holds delivery until Start
// hands it the initial value.
func NewOrdered[T any](fn func(T)) *Ordered[T] {
	return &Ordered[T]{fn: fn, running: true}
}

// Start delivers the initial value, then everything queued meanwhile.
func (o *Ordered[T]) Start(initial Versioned[T]) {
	o.mu.Lock()
	if initial.Version > o.last {
		o.last = initial.Version
	}
	newer := o.queue[:0]
	for _, v := range o.queue {
		if v.Version > initial.Version {
			newer = append(newer, v)
		}
	}
	o.queue = newer
	o.mu.Unlock()

	o.fn(initial.Value)
	o.drain()
}

func (o *Ordered[T]) Handle(_ context.Context, message Versioned[T]) error {
	o.mu.Lock()
	if message.Version <= o.last {
		o.mu.Unlock()
		return nil
	}
	o.last = message.Version
	o.queue = append(o.queue, message)
	if o.running {
		o.mu.Unlock()
		return nil
	}
	o.running = true
	o.mu.Unlock()

	o.drain()
	return nil
}

func (o *Ordered[T]) drain() {
	for {
		o.mu.Lock()
		if len(o.queue) == 0 {
			o.running = false
			o.mu.Unlock()
			return
		}
		next := o.queue[0]
		o.queue = o.queue[1:]
		o.mu.Unlock()
		o.fn(next.Value)
	}
}

var _ Subscriber[Versioned[string]] = (*Ordered[string])(nil)

// SubscribeOrdered registers fn on reg and reads the current value while
// holding mu, the lock every change of that value is made under. fn gets the
// current value first, then every newer one, never two at once.
func SubscribeOrdered[T any](mu sync.Locker, reg *Registry[Versioned[T]], current func() Versioned[T], fn func(T)) func() {
	o := NewOrdered(fn)
	mu.Lock()
	unsubscribe := reg.Subscribe(o)
	initial := current()
	mu.Unlock()
	o.Start(initial)
	return unsubscribe
}
