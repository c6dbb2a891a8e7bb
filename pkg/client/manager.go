// Package client manages the agent shared by every reactor and the session
// of the signed-in user.
package client

import (
	"context"
	"os"
	"sync"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/B3Pay/ic-reactor-sub004/pkg/agent"
	"github.com/B3Pay/ic-reactor-sub004/pkg/icerrors"
	"github.com/B3Pay/ic-reactor-sub004/pkg/principal"
	"github.com/B3Pay/ic-reactor-sub004/pkg/pubsub"
)

// ErrAuthUnavailable is returned by Login and Logout without an AuthProvider.
var ErrAuthUnavailable = errors.New("no auth provider configured")

const (
	flightInitialize   = "initialize"
	flightAuthenticate = "authenticate"
)

// Manager owns one agent and the authentication state. Reactors read the
// agent through Agent() at call time, so calls in flight keep the agent they
// started with when it is replaced.
type Manager struct {
	mu        sync.RWMutex
	opts      agent.Options
	factory   agent.Factory
	agent     agent.Agent
	auth      AuthProvider
	agentSt   AgentState
	authSt    AuthState
	version   uint64
	canisters []string

	group       singleflight.Group
	agentStates *pubsub.Registry[pubsub.Versioned[AgentState]]
	authStates  *pubsub.Registry[pubsub.Versioned[AuthState]]
	identities  *pubsub.Registry[agent.Identity]
	agentEvents *pubsub.ChainedPublisher[AgentState]
}

// NewManager builds a Manager and its agent.
func NewManager(opts ...Option) (*Manager, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	agentOpts := o.agent
	agentOpts.Host = resolveHost(o)
	if agentOpts.Identity == nil {
		agentOpts.Identity = agent.AnonymousIdentity{}
	}

	a, err := o.factory(agentOpts)
	if err != nil {
		return nil, errors.Wrap(err, "creating agent")
	}

	m := &Manager{
		opts:        agentOpts,
		factory:     o.factory,
		agent:       a,
		auth:        o.authProvider,
		agentStates: pubsub.NewRegistry[pubsub.Versioned[AgentState]](),
		authStates:  pubsub.NewRegistry[pubsub.Versioned[AuthState]](),
		identities:  pubsub.NewRegistry[agent.Identity](),
	}
	m.agentEvents = pubsub.NewChainedPublisher[AgentState](true)
	for _, p := range o.publishers {
		m.agentEvents.Add(p)
	}

	network := agent.NetworkByHost(agentOpts.Host)
	m.agentSt = AgentState{Network: network, IsLocalhost: network != agent.NetworkIC}
	m.authSt = AuthState{Identity: agentOpts.Identity, Authenticated: !agent.IsAnonymous(agentOpts.Identity)}

	if o.initializeOnCreate {
		go func() {
			if err := m.Initialize(context.Background()); err != nil {
				log.Warn().Err(err).Msg("agent initialization failed")
			}
		}()
	}
	return m, nil
}

func resolveHost(o *options) string {
	switch {
	case o.withProcessEnv:
		switch agent.ProcessEnvNetwork() {
		case agent.NetworkIC:
			return agent.ICHost
		case agent.NetworkLocal:
			if host := os.Getenv(agent.EnvHost); host != "" {
				return host
			}
			return agent.LocalHost(o.port)
		}
	case o.withLocalEnv:
		return agent.LocalHost(o.port)
	}
	if o.agent.Host != "" {
		return o.agent.Host
	}
	return agent.ICHost
}

// Agent returns the current transport.
func (m *Manager) Agent() agent.Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.agent
}

func (m *Manager) AgentState() AgentState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.agentSt
}

func (m *Manager) AuthState() AuthState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authSt
}

// Network of the current agent host.
func (m *Manager) Network() agent.Network {
	host := m.Agent().Host()
	if host == nil {
		return agent.NetworkIC
	}
	return agent.NetworkByHostname(host.Hostname())
}

func hostString(a agent.Agent) string {
	if host := a.Host(); host != nil {
		return host.String()
	}
	return ""
}

// IsLocal reports whether the agent talks to anything but the IC.
func (m *Manager) IsLocal() bool {
	return m.Network() != agent.NetworkIC
}

func (m *Manager) UserPrincipal() principal.Principal {
	return m.Agent().Principal()
}

// Initialize initializes the agent, then restores the session in the
// background.
func (m *Manager) Initialize(ctx context.Context) error {
	if err := m.InitializeAgent(ctx); err != nil {
		return err
	}
	go func() {
		if _, err := m.Authenticate(context.WithoutCancel(ctx)); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("session restore failed")
		}
	}()
	return nil
}

// InitializeAgent prepares the agent, fetching the root key on local
// networks. Concurrent callers share a single attempt; a failed attempt is
// recorded in AgentState and may be retried.
func (m *Manager) InitializeAgent(ctx context.Context) error {
	if m.AgentState().Initialized {
		return nil
	}
	_, err, _ := m.group.Do(flightInitialize, func() (any, error) {
		if m.AgentState().Initialized {
			return nil, nil
		}
		network := m.Network()
		log.Ctx(ctx).Info().
			Str("network", string(network)).
			Str("host", hostString(m.Agent())).
			Msg("initializing agent")
		m.updateAgentState(ctx, func(s *AgentState) {
			s.Initializing = true
		})

		if network != agent.NetworkIC {
			if err := m.Agent().FetchRootKey(context.WithoutCancel(ctx)); err != nil {
				m.updateAgentState(ctx, func(s *AgentState) {
					s.Initializing = false
					s.Error = err
				})
				return nil, err
			}
		}
		m.updateAgentState(ctx, func(s *AgentState) {
			s.Initializing = false
			s.Initialized = true
			s.Error = nil
		})
		return nil, nil
	})
	return err
}

// Authenticate restores a stored session from the AuthProvider. Without a
// provider it returns a nil identity and leaves the state untouched.
func (m *Manager) Authenticate(ctx context.Context) (agent.Identity, error) {
	st := m.AuthState()
	if st.Authenticated {
		return st.Identity, nil
	}
	if m.auth == nil {
		return nil, nil
	}
	v, err, _ := m.group.Do(flightAuthenticate, func() (any, error) {
		log.Ctx(ctx).Info().Str("network", string(m.Network())).Msg("authenticating")
		m.updateAuthState(ctx, func(s *AuthState) {
			s.Authenticating = true
		})
		identity, err := m.auth.Identity(ctx)
		if err != nil {
			m.updateAuthState(ctx, func(s *AuthState) {
				s.Authenticating = false
				s.Error = err
			})
			return nil, errors.Wrap(err, "authentication failed")
		}
		m.UpdateIdentity(ctx, identity)
		m.updateAuthState(ctx, func(s *AuthState) {
			s.Identity = identity
			s.Authenticated = !agent.IsAnonymous(identity)
			s.Authenticating = false
		})
		return identity, nil
	})
	if err != nil {
		return nil, err
	}
	identity, _ := v.(agent.Identity)
	return identity, nil
}

// Login signs in through the AuthProvider, initializing the agent first.
func (m *Manager) Login(ctx context.Context, opts LoginOptions) error {
	if err := m.InitializeAgent(ctx); err != nil {
		m.updateAuthState(ctx, func(s *AuthState) {
			s.Error = err
			s.Authenticating = false
		})
		return err
	}
	if m.auth == nil {
		return ErrAuthUnavailable
	}
	if opts.IdentityProvider == "" {
		opts.IdentityProvider = agent.DefaultIdentityProvider(m.Network())
	}

	m.updateAuthState(ctx, func(s *AuthState) {
		s.Authenticating = true
		s.Error = nil
	})
	identity, err := m.auth.Login(ctx, opts)
	if err != nil {
		m.updateAuthState(ctx, func(s *AuthState) {
			s.Error = err
			s.Authenticating = false
		})
		return errors.Wrap(err, "login failed")
	}
	if identity == nil {
		identity = agent.AnonymousIdentity{}
	}
	m.UpdateIdentity(ctx, identity)
	m.updateAuthState(ctx, func(s *AuthState) {
		s.Identity = identity
		s.Authenticated = true
		s.Authenticating = false
	})
	return nil
}

// Logout signs out and reverts the agent to the provider's identity,
// normally the anonymous one.
func (m *Manager) Logout(ctx context.Context) error {
	if m.auth == nil {
		return ErrAuthUnavailable
	}
	m.updateAuthState(ctx, func(s *AuthState) {
		s.Authenticating = true
		s.Error = nil
	})
	identity, err := m.auth.Logout(ctx)
	if err != nil {
		m.updateAuthState(ctx, func(s *AuthState) {
			s.Error = err
			s.Authenticating = false
		})
		return errors.Wrap(err, "logout failed")
	}
	if identity == nil {
		identity = agent.AnonymousIdentity{}
	}
	m.UpdateIdentity(ctx, identity)
	m.updateAuthState(ctx, func(s *AuthState) {
		s.Identity = identity
		s.Authenticated = false
		s.Authenticating = false
	})
	return nil
}

// UpdateIdentity replaces the identity of the current agent and notifies
// identity subscribers.
func (m *Manager) UpdateIdentity(ctx context.Context, identity agent.Identity) {
	log.Ctx(ctx).Info().Stringer("principal", identity.Principal()).Msg("updating agent identity")
	m.mu.Lock()
	m.opts.Identity = identity
	a := m.agent
	m.mu.Unlock()

	a.ReplaceIdentity(identity)
	if err := m.identities.Publish(ctx, identity); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("identity subscriber failed")
	}
}

// UpdateAgent rebuilds the agent from opts merged over the current options
// and publishes exactly one agent state change. Calls in flight keep the
// previous agent. A local agent must fetch its root key again, so it starts
// uninitialized.
func (m *Manager) UpdateAgent(ctx context.Context, opts agent.Options) error {
	m.mu.RLock()
	current := m.opts
	m.mu.RUnlock()

	if err := mergo.Merge(&opts, current); err != nil {
		return icerrors.NewConfigError("agent", err.Error())
	}
	a, err := m.factory(opts)
	if err != nil {
		return errors.Wrap(err, "creating agent")
	}

	network := agent.NetworkByHost(opts.Host)
	m.mu.Lock()
	m.opts = opts
	m.agent = a
	m.agentSt.Network = network
	m.agentSt.IsLocalhost = network != agent.NetworkIC
	m.agentSt.Error = nil
	if network != agent.NetworkIC {
		m.agentSt.Initialized = false
	}
	m.version++
	st := pubsub.Versioned[AgentState]{Version: m.version, Value: m.agentSt}
	m.mu.Unlock()

	log.Ctx(ctx).Info().Str("host", opts.Host).Str("network", string(network)).Msg("agent updated")
	m.publishAgentState(ctx, st)
	return nil
}

// RegisterCanisterID records a canister reached through this manager.
func (m *Manager) RegisterCanisterID(ctx context.Context, canisterID, name string) {
	if name == "" {
		name = canisterID
	}
	log.Ctx(ctx).Info().
		Str("canister", name).
		Str("canister_id", canisterID).
		Str("network", string(m.Network())).
		Msg("adding actor")

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.canisters {
		if id == canisterID {
			return
		}
	}
	m.canisters = append(m.canisters, canisterID)
}

// ConnectedCanisterIDs lists registered canisters in registration order.
func (m *Manager) ConnectedCanisterIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.canisters...)
}

// SubscribeAgentState calls fn with the current state, then on every change.
func (m *Manager) SubscribeAgentState(fn func(AgentState)) func() {
	return pubsub.SubscribeOrdered(&m.mu, m.agentStates, func() pubsub.Versioned[AgentState] {
		return pubsub.Versioned[AgentState]{Version: m.version, Value: m.agentSt}
	}, fn)
}

// SubscribeAuthState calls fn with the current state, then on every change.
func (m *Manager) SubscribeAuthState(fn func(AuthState)) func() {
	return pubsub.SubscribeOrdered(&m.mu, m.authStates, func() pubsub.Versioned[AuthState] {
		return pubsub.Versioned[AuthState]{Version: m.version, Value: m.authSt}
	}, fn)
}

// SubscribeIdentity calls fn whenever the identity changes.
func (m *Manager) SubscribeIdentity(fn func(agent.Identity)) func() {
	return m.identities.SubscribeFunc(fn)
}

func (m *Manager) updateAgentState(ctx context.Context, mutate func(*AgentState)) {
	m.mu.Lock()
	mutate(&m.agentSt)
	m.version++
	st := pubsub.Versioned[AgentState]{Version: m.version, Value: m.agentSt}
	m.mu.Unlock()
	m.publishAgentState(ctx, st)
}

func (m *Manager) publishAgentState(ctx context.Context, st pubsub.Versioned[AgentState]) {
	m.agentStates.Notify(st)
	if err := m.agentEvents.Publish(ctx, st.Value); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("agent state subscriber failed")
	}
}

func (m *Manager) updateAuthState(ctx context.Context, mutate func(*AuthState)) {
	m.mu.Lock()
	mutate(&m.authSt)
	m.version++
	st := pubsub.Versioned[AuthState]{Version: m.version, Value: m.authSt}
	m.mu.Unlock()
	log.Ctx(ctx).Debug().
		Bool("authenticated", st.Value.Authenticated).
		Bool("authenticating", st.Value.Authenticating).
		AnErr("error", st.Value.Error).
		Msg("auth state updated")
	m.authStates.Notify(st)
}
