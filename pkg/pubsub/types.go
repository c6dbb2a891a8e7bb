package pubsub

import "context"

// Publisher delivers messages to whatever is listening.
type Publisher[T any] interface {
	Publish(ctx context.Context, message T) error
}

// Subscriber handles messages delivered by a Publisher.
type Subscriber[T any] interface {
	Handle(ctx context.Context, message T) error
}

// PublisherFunc is a helper function that implements Publisher interface
type PublisherFunc[T any] func(ctx context.Context, message T) error

func (f PublisherFunc[T]) Publish(ctx context.Context, message T) error {
	return f(ctx, message)
}

// SubscriberFunc is a helper function that implements Subscriber interface
type SubscriberFunc[T any] func(ctx context.Context, message T) error

func (f SubscriberFunc[T]) Handle(ctx context.Context, message T) error {
	return f(ctx, message)
}

// Listener adapts a plain callback into a Subscriber that never fails.
func Listener[T any](fn func(T)) Subscriber[T] {
	return SubscriberFunc[T](func(_ context.Context, message T) error {
		fn(message)
		return nil
	})
}
