//go:generate mockgen --source types.go --destination mocks.go --package agent

// Package agent describes the transport used to reach canisters. The wire
// protocol itself lives behind the Agent interface; httpagent provides a JSON
// gateway implementation.
package agent

import (
	"context"
	"net/url"
	"time"

	"github.com/B3Pay/ic-reactor-sub004/pkg/lib/backoff"
	"github.com/B3Pay/ic-reactor-sub004/pkg/principal"
)

// Agent sends queries and update calls to canisters.
type Agent interface {
	// Query performs a read-only call and returns the encoded reply.
	Query(ctx context.Context, canisterID principal.Principal, req QueryRequest) ([]byte, error)
	// Call submits an update call and polls until it is replied or rejected.
	Call(ctx context.Context, canisterID principal.Principal, req CallRequest) ([]byte, error)
	// FetchRootKey trusts the root key reported by the replica. Only local
	// replicas need it.
	FetchRootKey(ctx context.Context) error
	// Principal of the identity signing requests.
	Principal() principal.Principal
	// ReplaceIdentity swaps the identity used for later requests.
	ReplaceIdentity(identity Identity)
	// Host the agent talks to.
	Host() *url.URL
}

// Identity signs requests on behalf of a principal.
type Identity interface {
	Principal() principal.Principal
}

type QueryRequest struct {
	Method              string
	Arg                 []byte
	EffectiveCanisterID *principal.Principal
}

type CallRequest struct {
	Method              string
	Arg                 []byte
	EffectiveCanisterID *principal.Principal
	// Nonce makes otherwise identical calls distinct. Generated when empty.
	Nonce []byte
}

// PollingOptions bounds how an update call waits for its reply.
type PollingOptions struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Timeout     time.Duration
	// Strategy builds the wait policy of one request. Defaults to a phased
	// polling strategy between Interval and MaxInterval.
	Strategy func() backoff.Backoff
}

func DefaultPollingOptions() PollingOptions {
	return PollingOptions{
		Interval:    100 * time.Millisecond,
		MaxInterval: 5 * time.Second,
		Timeout:     5 * time.Minute,
	}
}

// Options configure an agent.
type Options struct {
	Host                  string
	Identity              Identity
	VerifyQuerySignatures *bool
	RootKey               []byte
	RetryMax              int
	Polling               PollingOptions
}

// Factory builds an agent from options.
type Factory func(opts Options) (Agent, error)
