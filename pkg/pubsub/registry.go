package pubsub

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
)

type entry[T any] struct {
	subscriber Subscriber[T]
	removed    bool
}

// Registry keeps subscribers in registration order. Publish walks a copy of
// the list taken when it starts, so subscribing or unsubscribing from inside
// a handler never skips or repeats another subscriber. A subscriber removed
// during a pass is not called if its turn has not come yet.
type Registry[T any] struct {
	mu      sync.Mutex
	entries []*entry[T]
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Subscribe adds a subscriber and returns the function removing it. The
// returned function may be called any number of times.
func (r *Registry[T]) Subscribe(subscriber Subscriber[T]) func() {
	e := &entry[T]{subscriber: subscriber}
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if e.removed {
			return
		}
		e.removed = true
		for i, candidate := range r.entries {
			if candidate == e {
				r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
				break
			}
		}
	}
}

// SubscribeFunc is Subscribe for a plain callback.
func (r *Registry[T]) SubscribeFunc(fn func(T)) func() {
	return r.Subscribe(Listener(fn))
}

// Publish calls every subscriber with the message. Handler errors do not stop
// the pass; they are returned together.
func (r *Registry[T]) Publish(ctx context.Context, message T) error {
	r.mu.Lock()
	snapshot := make([]*entry[T], len(r.entries))
	copy(snapshot, r.entries)
	r.mu.Unlock()

	var result *multierror.Error
	for _, e := range snapshot {
		if r.isRemoved(e) {
			continue
		}
		if err := e.subscriber.Handle(ctx, message); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Notify publishes to subscribers that cannot fail.
func (r *Registry[T]) Notify(message T) {
	_ = r.Publish(context.Background(), message)
}

func (r *Registry[T]) isRemoved(e *entry[T]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return e.removed
}

// Len returns the number of subscribers.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Clear removes every subscriber.
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		e.removed = true
	}
	r.entries = nil
}

// compile-time interface assertions
var _ Publisher[string] = (*Registry[string])(nil)
