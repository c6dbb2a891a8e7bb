package reactor

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/B3Pay/ic-reactor-sub004/pkg/client"
	"github.com/B3Pay/ic-reactor-sub004/pkg/icerrors"
	"github.com/B3Pay/ic-reactor-sub004/pkg/pubsub"
	"github.com/B3Pay/ic-reactor-sub004/pkg/telemetry"
)

// ErrNotInitialized is the cause of calls made on a store that is not
// initialized.
var ErrNotInitialized = errors.New("actor store is not initialized")

// Caller performs canister calls for a Store. Both Reactor and
// DisplayReactor implement it.
type Caller interface {
	Name() string
	CanisterID() string
	IsQueryMethod(method string) bool
	CallMethod(ctx context.Context, params CallParams) (any, error)
	Manager() *client.Manager
}

type metered interface {
	Metrics() *Metrics
}

var (
	_ Caller = (*Reactor)(nil)
	_ Caller = (*DisplayReactor)(nil)
)

type storeOptions struct {
	initializeOnCreate bool
}

// StoreOption configures NewStore.
type StoreOption func(*storeOptions)

// WithInitializeOnCreate controls whether NewStore initializes the store.
// Defaults to true.
func WithInitializeOnCreate(initialize bool) StoreOption {
	return func(o *storeOptions) {
		o.initializeOnCreate = initialize
	}
}

// QueryParams binds a query method and its arguments.
type QueryParams struct {
	Method string
	Args   []any
	// RefetchOnMount calls the method as soon as the query is created.
	RefetchOnMount bool
	// RefetchInterval calls the method repeatedly until the store is
	// cleaned up or the call is stopped.
	RefetchInterval time.Duration
}

// UpdateParams binds an update method and its arguments.
type UpdateParams struct {
	Method string
	Args   []any
}

// Store keeps the state of every request made through a Caller. At most
// one call per request key is in flight. Subscribers are notified outside
// the store lock; each one sees the states in the order they were stored,
// one call at a time, and may drop a state already superseded.
type Store struct {
	caller  Caller
	metrics *Metrics

	mu         sync.Mutex
	state      ActorState
	generation uint64
	version    uint64
	pending    map[string]*Pending
	lifetime   context.Context
	stop       context.CancelFunc

	actorSubs  *pubsub.Registry[pubsub.Versioned[ActorState]]
	methodSubs map[string]*pubsub.Registry[pubsub.Versioned[MethodState]]
}

// NewStore builds a store over caller.
func NewStore(caller Caller, opts ...StoreOption) *Store {
	o := &storeOptions{initializeOnCreate: true}
	for _, opt := range opts {
		opt(o)
	}
	s := &Store{
		caller:     caller,
		pending:    map[string]*Pending{},
		actorSubs:  pubsub.NewRegistry[pubsub.Versioned[ActorState]](),
		methodSubs: map[string]*pubsub.Registry[pubsub.Versioned[MethodState]]{},
		state: ActorState{
			Name:        caller.Name(),
			CanisterID:  caller.CanisterID(),
			MethodState: map[string]MethodState{},
		},
	}
	if m, ok := caller.(metered); ok {
		s.metrics = m.Metrics()
	}
	if o.initializeOnCreate {
		s.Initialize()
	}
	return s
}

// NewDisplayStore builds a store whose calls take and return display values.
func NewDisplayStore(d *DisplayReactor, opts ...StoreOption) *Store {
	return NewStore(d, opts...)
}

func (s *Store) Caller() Caller { return s.caller }

// State returns the current snapshot.
func (s *Store) State() ActorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SubscribeActorState calls fn with the current snapshot, then after every
// change.
func (s *Store) SubscribeActorState(fn func(ActorState)) func() {
	return pubsub.SubscribeOrdered(&s.mu, s.actorSubs, func() pubsub.Versioned[ActorState] {
		return pubsub.Versioned[ActorState]{Version: s.version, Value: s.state}
	}, fn)
}

// Initialize binds the store: method state is cleared and calls are
// accepted. Initializing twice is a no-op.
func (s *Store) Initialize() {
	s.mu.Lock()
	if s.state.Initialized {
		s.mu.Unlock()
		return
	}
	s.lifetime, s.stop = context.WithCancel(context.Background())
	s.state = ActorState{
		Name:        s.caller.Name(),
		CanisterID:  s.caller.CanisterID(),
		Initialized: true,
		MethodState: map[string]MethodState{},
	}
	s.version++
	snapshot := pubsub.Versioned[ActorState]{Version: s.version, Value: s.state}
	s.mu.Unlock()

	log.Debug().Str("canister", snapshot.Value.Name).Str("canister_id", snapshot.Value.CanisterID).Msg("actor store initialized")
	s.actorSubs.Notify(snapshot)
}

// Cleanup unbinds the store: refetch loops stop, results of calls still in
// flight are dropped and every method returns to idle. Cleaning up a store
// that is not initialized is a no-op.
func (s *Store) Cleanup() {
	s.mu.Lock()
	if !s.state.Initialized {
		s.mu.Unlock()
		return
	}
	s.stop()
	s.generation++
	s.pending = map[string]*Pending{}
	s.state = ActorState{
		Name:        s.state.Name,
		CanisterID:  s.state.CanisterID,
		MethodState: map[string]MethodState{},
	}
	s.version++
	version := s.version
	subs := make(map[string]*pubsub.Registry[pubsub.Versioned[MethodState]], len(s.methodSubs))
	for k, v := range s.methodSubs {
		subs[k] = v
	}
	snapshot := pubsub.Versioned[ActorState]{Version: version, Value: s.state}
	s.mu.Unlock()

	s.actorSubs.Notify(snapshot)
	for key, reg := range subs {
		reg.Notify(pubsub.Versioned[MethodState]{Version: version, Value: MethodState{RequestKey: key}})
	}
}

// Close cleans up and drops every subscriber.
func (s *Store) Close() {
	s.Cleanup()
	s.actorSubs.Clear()
	s.mu.Lock()
	subs := s.methodSubs
	s.methodSubs = map[string]*pubsub.Registry[pubsub.Versioned[MethodState]]{}
	s.mu.Unlock()
	for _, reg := range subs {
		reg.Clear()
	}
}

// QueryCall prepares calls of a query method.
func (s *Store) QueryCall(params QueryParams) *MethodCall {
	mc := s.newMethodCall(params.Method, params.Args)
	if params.RefetchOnMount {
		mc.Mounted = mc.Call(context.Background())
	}
	if params.RefetchInterval > 0 {
		s.startRefetch(mc, params.RefetchInterval)
	}
	return mc
}

// UpdateCall prepares calls of an update method.
func (s *Store) UpdateCall(params UpdateParams) *MethodCall {
	return s.newMethodCall(params.Method, params.Args)
}

func (s *Store) newMethodCall(method string, args []any) *MethodCall {
	if args == nil {
		args = []any{}
	}
	return &MethodCall{
		RequestKey: RequestKey(method, args),
		method:     method,
		args:       args,
		store:      s,
		stopped:    make(chan struct{}),
	}
}

func (s *Store) startRefetch(mc *MethodCall, interval time.Duration) {
	s.mu.Lock()
	lifetime := s.lifetime
	s.mu.Unlock()
	if lifetime == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-lifetime.Done():
				return
			case <-mc.stopped:
				return
			case <-ticker.C:
				mc.Call(lifetime)
			}
		}
	}()
}

func (s *Store) methodRegistry(key string) *pubsub.Registry[pubsub.Versioned[MethodState]] {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.methodSubs[key]
	if !ok {
		reg = pubsub.NewRegistry[pubsub.Versioned[MethodState]]()
		s.methodSubs[key] = reg
	}
	return reg
}

// change is one stored transition waiting to be published.
type change struct {
	version  uint64
	snapshot ActorState
	method   MethodState
	reg      *pubsub.Registry[pubsub.Versioned[MethodState]]
}

// setMethodLocked stores st and returns what must be published.
func (s *Store) setMethodLocked(key string, st MethodState) change {
	s.state = s.state.withMethod(key, st)
	s.version++
	return change{version: s.version, snapshot: s.state, method: st, reg: s.methodSubs[key]}
}

func (s *Store) publish(c change) {
	if c.reg != nil {
		c.reg.Notify(pubsub.Versioned[MethodState]{Version: c.version, Value: c.method})
	}
	s.actorSubs.Notify(pubsub.Versioned[ActorState]{Version: c.version, Value: c.snapshot})
}

func (s *Store) call(ctx context.Context, method, key string, args []any) *Pending {
	flightKey := RequestKey(method, args)

	s.mu.Lock()
	if !s.state.Initialized {
		st := MethodState{Error: icerrors.NewCallError(method, ErrNotInitialized), RequestKey: key}
		c := s.setMethodLocked(key, st)
		s.mu.Unlock()
		s.publish(c)
		return resolvedPending(st)
	}
	if p, ok := s.pending[flightKey]; ok {
		s.mu.Unlock()
		s.metrics.IncDeduplicated(s.caller.Name(), method)
		return p
	}
	p := newPending()
	s.pending[flightKey] = p
	generation := s.generation
	st := s.state.Method(key)
	st.Loading = true
	st.Error = nil
	c := s.setMethodLocked(key, st)
	s.mu.Unlock()

	s.publish(c)
	go s.run(telemetry.NewDetachedContext(ctx), generation, flightKey, key, method, args, p)
	return p
}

func (s *Store) run(ctx context.Context, generation uint64, flightKey, key, method string, args []any, p *Pending) {
	data, err := s.caller.CallMethod(ctx, CallParams{Method: method, Args: args})
	st := MethodState{Data: data, RequestKey: key}
	if err != nil {
		st = MethodState{Error: err, RequestKey: key}
		log.Ctx(ctx).Debug().Err(err).Str("method", method).Str("request_key", key).Msg("call resolved with error")
	}

	s.mu.Lock()
	if s.pending[flightKey] == p {
		delete(s.pending, flightKey)
	}
	if generation != s.generation {
		s.mu.Unlock()
		p.resolve(st)
		return
	}
	c := s.setMethodLocked(key, st)
	s.mu.Unlock()

	s.publish(c)
	p.resolve(st)
}

// MethodCall is bound to one method and argument list.
type MethodCall struct {
	RequestKey string
	// Mounted is the call issued on creation by RefetchOnMount.
	Mounted *Pending

	method   string
	args     []any
	store    *Store
	stopOnce sync.Once
	stopped  chan struct{}
}

// Call triggers the method. replaceArgs, when given, are sent instead of
// the bound arguments; the state is still stored under RequestKey. A call
// identical to one in flight returns the same Pending.
func (c *MethodCall) Call(ctx context.Context, replaceArgs ...any) *Pending {
	args := c.args
	if len(replaceArgs) > 0 {
		args = replaceArgs
	}
	return c.store.call(ctx, c.method, c.RequestKey, args)
}

// Subscribe calls fn with the current state, then after every transition.
func (c *MethodCall) Subscribe(fn func(MethodState)) func() {
	s := c.store
	return pubsub.SubscribeOrdered(&s.mu, s.methodRegistry(c.RequestKey), func() pubsub.Versioned[MethodState] {
		return pubsub.Versioned[MethodState]{Version: s.version, Value: s.state.Method(c.RequestKey)}
	}, fn)
}

func (c *MethodCall) GetState() MethodState {
	return c.store.State().Method(c.RequestKey)
}

// Get returns one field of the state, see MethodState.Get.
func (c *MethodCall) Get(field string) any {
	return c.GetState().Get(field)
}

// Stop ends the refetch loop of a query.
func (c *MethodCall) Stop() {
	c.stopOnce.Do(func() { close(c.stopped) })
}

func (c *MethodCall) Method() string { return c.method }
