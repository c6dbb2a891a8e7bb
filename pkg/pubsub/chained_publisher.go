package pubsub

import (
	"context"
	"reflect"

	"github.com/rs/zerolog/log"
)

// ChainedPublisher fans a message out to several publishers in order.
type ChainedPublisher[T any] struct {
	publishers   []Publisher[T]
	ignoreErrors bool
}

func NewChainedPublisher[T any](ignoreErrors bool, publishers ...Publisher[T]) *ChainedPublisher[T] {
	return &ChainedPublisher[T]{
		publishers:   publishers,
		ignoreErrors: ignoreErrors,
	}
}

// Add publisher to the chain
func (c *ChainedPublisher[T]) Add(publisher Publisher[T]) {
	c.publishers = append(c.publishers, publisher)
}

func (c *ChainedPublisher[T]) Publish(ctx context.Context, message T) error {
	for _, publisher := range c.publishers {
		if err := publisher.Publish(ctx, message); err != nil {
			if !c.ignoreErrors {
				return err
			}
			log.Ctx(ctx).Warn().Err(err).Msgf("error publishing message by %s", reflect.TypeOf(publisher))
		}
	}
	return nil
}

// compile-time interface assertions
var _ Publisher[string] = (*ChainedPublisher[string])(nil)
