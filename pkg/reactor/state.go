package reactor

import (
	"context"
)

// Fields readable through MethodCall.Get.
const (
	FieldData       = "data"
	FieldLoading    = "loading"
	FieldError      = "error"
	FieldRequestKey = "requestKey"
)

// MethodState is the state of one request. Data is kept while a new call
// is loading and cleared when a call fails.
type MethodState struct {
	Loading    bool   `json:"loading"`
	Data       any    `json:"data"`
	Error      error  `json:"error,omitempty"`
	RequestKey string `json:"requestKey"`
}

// Get returns a single field, or the whole state for an unknown field.
func (s MethodState) Get(field string) any {
	switch field {
	case FieldData:
		return s.Data
	case FieldLoading:
		return s.Loading
	case FieldError:
		return s.Error
	case FieldRequestKey:
		return s.RequestKey
	default:
		return s
	}
}

// ActorState is a snapshot of a store. MethodState is never mutated after
// the snapshot is published.
type ActorState struct {
	Name         string                 `json:"name"`
	CanisterID   string                 `json:"canisterId"`
	Initializing bool                   `json:"initializing"`
	Initialized  bool                   `json:"initialized"`
	Error        error                  `json:"error,omitempty"`
	MethodState  map[string]MethodState `json:"methodState"`
}

// Method returns the state stored under a request key; unknown keys are
// idle.
func (s ActorState) Method(requestKey string) MethodState {
	if st, ok := s.MethodState[requestKey]; ok {
		return st
	}
	return MethodState{RequestKey: requestKey}
}

func (s ActorState) withMethod(requestKey string, st MethodState) ActorState {
	methods := make(map[string]MethodState, len(s.MethodState)+1)
	for k, v := range s.MethodState {
		methods[k] = v
	}
	methods[requestKey] = st
	s.MethodState = methods
	return s
}

// Pending is the handle of a call in flight. Calls joining an identical
// request share the same handle.
type Pending struct {
	done  chan struct{}
	state MethodState
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func resolvedPending(st MethodState) *Pending {
	p := newPending()
	p.resolve(st)
	return p
}

func (p *Pending) resolve(st MethodState) {
	p.state = st
	close(p.done)
}

// Done is closed once the call resolved and the store was updated.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the call resolves. The returned error only reports that
// ctx ended first; call failures are in the state. The call itself keeps
// running and still updates the store.
func (p *Pending) Wait(ctx context.Context) (MethodState, error) {
	select {
	case <-p.done:
		return p.state, nil
	case <-ctx.Done():
		return MethodState{}, ctx.Err()
	}
}

// State returns the resolved state without blocking.
func (p *Pending) State() (MethodState, bool) {
	select {
	case <-p.done:
		return p.state, true
	default:
		return MethodState{}, false
	}
}
