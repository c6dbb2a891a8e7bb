package client

import (
	"github.com/B3Pay/ic-reactor-sub004/pkg/agent"
	"github.com/B3Pay/ic-reactor-sub004/pkg/agent/httpagent"
	"github.com/B3Pay/ic-reactor-sub004/pkg/pubsub"
)

// Option configures a Manager.
type Option func(*options)

type options struct {
	agent              agent.Options
	port               int
	withLocalEnv       bool
	withProcessEnv     bool
	authProvider       AuthProvider
	factory            agent.Factory
	initializeOnCreate bool
	publishers         []pubsub.Publisher[AgentState]
}

func defaultOptions() *options {
	return &options{
		port:    agent.LocalPort,
		factory: httpagent.Factory,
	}
}

// WithHost points the agent at a host.
func WithHost(host string) Option {
	return func(o *options) {
		o.agent.Host = host
	}
}

// WithPort sets the port of the local replica used by WithLocalEnv and
// WithProcessEnv.
func WithPort(port int) Option {
	return func(o *options) {
		o.port = port
	}
}

// WithLocalEnv connects to the local replica.
func WithLocalEnv() Option {
	return func(o *options) {
		o.withLocalEnv = true
	}
}

// WithProcessEnv picks the network from DFX_NETWORK, and the local host from
// IC_HOST when set.
func WithProcessEnv() Option {
	return func(o *options) {
		o.withProcessEnv = true
	}
}

func WithIdentity(identity agent.Identity) Option {
	return func(o *options) {
		o.agent.Identity = identity
	}
}

func WithVerifyQuerySignatures(verify bool) Option {
	return func(o *options) {
		o.agent.VerifyQuerySignatures = &verify
	}
}

// WithAgentOptions sets every agent option at once. Later options still
// override individual fields.
func WithAgentOptions(opts agent.Options) Option {
	return func(o *options) {
		o.agent = opts
	}
}

func WithAuthProvider(provider AuthProvider) Option {
	return func(o *options) {
		o.authProvider = provider
	}
}

// WithAgentFactory replaces the JSON gateway agent.
func WithAgentFactory(factory agent.Factory) Option {
	return func(o *options) {
		o.factory = factory
	}
}

// WithInitializeOnCreate starts Initialize in the background.
func WithInitializeOnCreate() Option {
	return func(o *options) {
		o.initializeOnCreate = true
	}
}

// WithAgentStatePublisher forwards every agent state change to p, after
// the Manager's own subscribers.
func WithAgentStatePublisher(p pubsub.Publisher[AgentState]) Option {
	return func(o *options) {
		o.publishers = append(o.publishers, p)
	}
}
