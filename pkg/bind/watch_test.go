//go:build unit || !integration

package bind

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"

	"github.com/B3Pay/ic-reactor-sub004/pkg/agent"
	"github.com/B3Pay/ic-reactor-sub004/pkg/client"
	"github.com/B3Pay/ic-reactor-sub004/pkg/logger"
	"github.com/B3Pay/ic-reactor-sub004/pkg/principal"
	"github.com/B3Pay/ic-reactor-sub004/pkg/reactor"
)

type WatchSuite struct {
	suite.Suite
	agent   *agent.MockAgent
	manager *client.Manager
	store   *reactor.Store
}

func TestWatchSuite(t *testing.T) {
	suite.Run(t, new(WatchSuite))
}

func (s *WatchSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
	ctrl := gomock.NewController(s.T())
	s.agent = agent.NewMockAgent(ctrl)
	host, _ := url.Parse(agent.ICHost)
	s.agent.EXPECT().Host().Return(host).AnyTimes()
	s.agent.EXPECT().Principal().Return(principal.Anonymous()).AnyTimes()

	m, err := client.NewManager(client.WithAgentFactory(func(agent.Options) (agent.Agent, error) {
		return s.agent, nil
	}))
	s.Require().NoError(err)
	s.manager = m

	r, err := reactor.New(reactor.Params{
		Manager:    m,
		Name:       "greeter",
		CanisterID: "ryjl3-tyaaa-aaaaa-aaaba-cai",
		Candid:     `service : { greet : (text) -> (text) query; save : (text) -> () }`,
	})
	s.Require().NoError(err)
	s.store = reactor.NewStore(r)
	s.T().Cleanup(s.store.Close)
}

func receive[T any](s *WatchSuite, ch <-chan T) T {
	select {
	case v, ok := <-ch:
		s.Require().True(ok, "channel closed")
		return v
	case <-time.After(5 * time.Second):
		s.FailNow("timed out waiting for state")
	}
	var zero T
	return zero
}

func (s *WatchSuite) TestUseQuerySnapshotThenResult() {
	s.agent.EXPECT().Query(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte(`["Hello, World!"]`), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states, call := UseQuery(ctx, s.store, reactor.QueryParams{Method: "greet", Args: []any{"World"}})

	first := receive(s, states)
	s.Equal(reactor.MethodState{RequestKey: call.RequestKey}, first)

	_, err := call.Call(ctx).Wait(ctx)
	s.Require().NoError(err)

	var last reactor.MethodState
	for last.Data == nil {
		last = receive(s, states)
	}
	s.Equal("Hello, World!", last.Data)
	s.False(last.Loading)
}

func (s *WatchSuite) TestSlowConsumerGetsLatest() {
	s.agent.EXPECT().Call(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).Times(3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states, call := UseUpdate(ctx, s.store, reactor.UpdateParams{Method: "save", Args: []any{"x"}})

	for i := 0; i < 3; i++ {
		_, err := call.Call(ctx).Wait(ctx)
		s.Require().NoError(err)
	}

	s.Eventually(func() bool {
		select {
		case st := <-states:
			return !st.Loading && st.Error == nil && call.GetState() == st
		default:
			return false
		}
	}, 5*time.Second, 5*time.Millisecond)
}

func (s *WatchSuite) TestChannelClosesWithContext() {
	ctx, cancel := context.WithCancel(context.Background())
	states := WatchActorState(ctx, s.store)
	st := receive(s, states)
	s.True(st.Initialized)

	cancel()
	s.Eventually(func() bool {
		_, ok := <-states
		return !ok
	}, 5*time.Second, time.Millisecond)
}

func (s *WatchSuite) TestAgentAndAuthState() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	agentStates := WatchAgentState(ctx, s.manager)
	s.Equal(agent.NetworkIC, receive(s, agentStates).Network)

	s.Require().NoError(s.manager.UpdateAgent(ctx, agent.Options{Host: "http://localhost:4943"}))
	s.True(receive(s, agentStates).IsLocalhost)

	authStates := WatchAuthState(ctx, s.manager)
	s.False(receive(s, authStates).Authenticated)
}
