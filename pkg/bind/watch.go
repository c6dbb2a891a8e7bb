// Package bind projects observable state onto channels, the Go counterpart
// of framework hooks. Every channel receives the current state first, then
// each transition. A consumer that falls behind skips to the latest state.
// Channels close when the context is done.
package bind

import (
	"context"
	"sync"

	"github.com/B3Pay/ic-reactor-sub004/pkg/client"
	"github.com/B3Pay/ic-reactor-sub004/pkg/reactor"
)

// subscribeFunc registers fn and returns the function removing it.
type subscribeFunc[T any] func(fn func(T)) func()

// watch forwards subscription callbacks to a channel holding at most one
// undelivered value.
func watch[T any](ctx context.Context, subscribe subscribeFunc[T]) <-chan T {
	out := make(chan T)
	latest := make(chan T, 1)
	var mu sync.Mutex

	unsubscribe := subscribe(func(v T) {
		mu.Lock()
		defer mu.Unlock()
		// replace any value the consumer has not picked up yet
		select {
		case <-latest:
		default:
		}
		select {
		case latest <- v:
		default:
		}
	})

	go func() {
		defer close(out)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case v := <-latest:
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// WatchMethod streams the state of a method call.
func WatchMethod(ctx context.Context, call *reactor.MethodCall) <-chan reactor.MethodState {
	return watch[reactor.MethodState](ctx, call.Subscribe)
}

// WatchActorState streams the snapshots of a store.
func WatchActorState(ctx context.Context, store *reactor.Store) <-chan reactor.ActorState {
	return watch[reactor.ActorState](ctx, store.SubscribeActorState)
}

// WatchAgentState streams the agent state of a manager.
func WatchAgentState(ctx context.Context, manager *client.Manager) <-chan client.AgentState {
	return watch[client.AgentState](ctx, manager.SubscribeAgentState)
}

// WatchAuthState streams the authentication state of a manager.
func WatchAuthState(ctx context.Context, manager *client.Manager) <-chan client.AuthState {
	return watch[client.AuthState](ctx, manager.SubscribeAuthState)
}

// UseQuery creates a query call and watches its state. The call is made
// right away when params.RefetchOnMount is set.
func UseQuery(ctx context.Context, store *reactor.Store, params reactor.QueryParams) (<-chan reactor.MethodState, *reactor.MethodCall) {
	call := store.QueryCall(params)
	states := WatchMethod(ctx, call)
	go func() {
		<-ctx.Done()
		call.Stop()
	}()
	return states, call
}

// UseUpdate creates an update call and watches its state.
func UseUpdate(ctx context.Context, store *reactor.Store, params reactor.UpdateParams) (<-chan reactor.MethodState, *reactor.MethodCall) {
	call := store.UpdateCall(params)
	return WatchMethod(ctx, call), call
}
