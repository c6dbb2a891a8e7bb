//go:build unit || !integration

package client

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"

	"github.com/B3Pay/ic-reactor-sub004/pkg/agent"
	"github.com/B3Pay/ic-reactor-sub004/pkg/logger"
	"github.com/B3Pay/ic-reactor-sub004/pkg/principal"
	"github.com/B3Pay/ic-reactor-sub004/pkg/pubsub"
)

type ManagerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	agents  []*agent.MockAgent
	created []agent.Options
	auth    *MockAuthProvider
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
	s.ctrl = gomock.NewController(s.T())
	s.agents = nil
	s.created = nil
	s.auth = NewMockAuthProvider(s.ctrl)
}

func (s *ManagerSuite) factory(opts agent.Options) (agent.Agent, error) {
	host, err := url.Parse(opts.Host)
	if err != nil {
		return nil, err
	}
	a := agent.NewMockAgent(s.ctrl)
	a.EXPECT().Host().Return(host).AnyTimes()
	a.EXPECT().Principal().DoAndReturn(func() principal.Principal {
		return opts.Identity.Principal()
	}).AnyTimes()
	s.agents = append(s.agents, a)
	s.created = append(s.created, opts)
	return a, nil
}

func (s *ManagerSuite) newManager(opts ...Option) *Manager {
	m, err := NewManager(append([]Option{WithAgentFactory(s.factory)}, opts...)...)
	s.Require().NoError(err)
	return m
}

func (s *ManagerSuite) TestDefaultsToIC() {
	m := s.newManager()
	s.Equal(agent.ICHost, s.created[0].Host)
	s.Equal(agent.NetworkIC, m.Network())
	s.False(m.IsLocal())
	s.False(m.AgentState().IsLocalhost)
	s.True(m.UserPrincipal().IsAnonymous())
}

func (s *ManagerSuite) TestLocalEnv() {
	m := s.newManager(WithLocalEnv(), WithPort(8000))
	s.Equal("http://127.0.0.1:8000", s.created[0].Host)
	s.True(m.IsLocal())
	s.True(m.AgentState().IsLocalhost)
}

func (s *ManagerSuite) TestProcessEnv() {
	s.T().Setenv(agent.EnvNetwork, "local")
	s.T().Setenv(agent.EnvHost, "http://localhost:9999")
	s.newManager(WithProcessEnv(), WithHost("https://ignored.example"))
	s.Equal("http://localhost:9999", s.created[0].Host)

	s.T().Setenv(agent.EnvNetwork, "ic")
	s.newManager(WithProcessEnv())
	s.Equal(agent.ICHost, s.created[1].Host)
}

func (s *ManagerSuite) TestFactoryError() {
	_, err := NewManager(WithAgentFactory(func(agent.Options) (agent.Agent, error) {
		return nil, errors.New("no transport")
	}))
	s.ErrorContains(err, "no transport")
}

func (s *ManagerSuite) TestInitializeAgentSharesOneAttempt() {
	m := s.newManager(WithLocalEnv())
	release := make(chan struct{})
	s.agents[0].EXPECT().FetchRootKey(gomock.Any()).DoAndReturn(func(context.Context) error {
		<-release
		return nil
	}).Times(1)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = m.InitializeAgent(context.Background())
		}(i)
	}
	s.Eventually(func() bool { return m.AgentState().Initializing }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		s.NoError(err)
	}
	s.True(m.AgentState().Initialized)
	s.NoError(m.InitializeAgent(context.Background()), "initialized agents return immediately")
}

func (s *ManagerSuite) TestInitializeAgentFailureIsRecorded() {
	m := s.newManager(WithLocalEnv())
	boom := errors.New("replica down")
	gomock.InOrder(
		s.agents[0].EXPECT().FetchRootKey(gomock.Any()).Return(boom),
		s.agents[0].EXPECT().FetchRootKey(gomock.Any()).Return(nil),
	)

	s.ErrorIs(m.InitializeAgent(context.Background()), boom)
	st := m.AgentState()
	s.False(st.Initialized)
	s.False(st.Initializing)
	s.ErrorIs(st.Error, boom)

	s.NoError(m.InitializeAgent(context.Background()))
	s.True(m.AgentState().Initialized)
	s.NoError(m.AgentState().Error)
}

func (s *ManagerSuite) TestInitializeSkipsRootKeyOnIC() {
	m := s.newManager()
	s.NoError(m.InitializeAgent(context.Background()))
	s.True(m.AgentState().Initialized)
}

func (s *ManagerSuite) TestUpdateAgentNotifiesOnce() {
	m := s.newManager()
	var states []AgentState
	unsubscribe := m.SubscribeAgentState(func(st AgentState) { states = append(states, st) })
	defer unsubscribe()
	s.Require().Len(states, 1, "snapshot first")

	previous := m.Agent()
	s.Require().NoError(m.UpdateAgent(context.Background(), agent.Options{Host: "http://localhost:4943"}))

	s.Len(states, 2)
	s.Equal(agent.NetworkLocal, states[1].Network)
	s.True(states[1].IsLocalhost)
	s.NotSame(previous, m.Agent())
	s.Require().Len(s.created, 2)
	s.Equal("http://localhost:4943", s.created[1].Host)
	s.NotNil(s.created[1].Identity, "unset options keep their current value")
}

func (s *ManagerSuite) TestAgentStatePublisher() {
	var seen []AgentState
	m := s.newManager(WithAgentStatePublisher(pubsub.PublisherFunc[AgentState](func(_ context.Context, st AgentState) error {
		seen = append(seen, st)
		return errors.New("ignored")
	})))
	s.NoError(m.InitializeAgent(context.Background()))
	s.Len(seen, 2)
	s.True(seen[1].Initialized)
}

func (s *ManagerSuite) TestLoginAndLogout() {
	m := s.newManager(WithAuthProvider(s.auth))
	user := agent.NewPrincipalIdentity(principal.MustFromText("rrkah-fqaaa-aaaaa-aaaaq-cai"))

	s.auth.EXPECT().Login(gomock.Any(), LoginOptions{IdentityProvider: agent.ICIdentityProvider}).Return(user, nil)
	s.agents[0].EXPECT().ReplaceIdentity(user)
	s.auth.EXPECT().Logout(gomock.Any()).Return(agent.AnonymousIdentity{}, nil)
	s.agents[0].EXPECT().ReplaceIdentity(agent.AnonymousIdentity{})

	var states []AuthState
	m.SubscribeAuthState(func(st AuthState) { states = append(states, st) })
	var identities []agent.Identity
	m.SubscribeIdentity(func(id agent.Identity) { identities = append(identities, id) })

	s.Require().NoError(m.Login(context.Background(), LoginOptions{}))
	st := m.AuthState()
	s.True(st.Authenticated)
	s.False(st.Authenticating)
	s.Equal(user, st.Identity)

	s.Require().NoError(m.Logout(context.Background()))
	s.False(m.AuthState().Authenticated)
	s.Equal([]agent.Identity{user, agent.AnonymousIdentity{}}, identities)

	s.Require().GreaterOrEqual(len(states), 5)
	s.True(states[1].Authenticating)
}

func (s *ManagerSuite) TestLoginFailure() {
	m := s.newManager(WithAuthProvider(s.auth))
	s.auth.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, errors.New("window closed"))

	err := m.Login(context.Background(), LoginOptions{IdentityProvider: "https://custom.example"})
	s.ErrorContains(err, "window closed")
	st := m.AuthState()
	s.False(st.Authenticating)
	s.ErrorContains(st.Error, "window closed")
}

func (s *ManagerSuite) TestWithoutAuthProvider() {
	m := s.newManager()
	s.ErrorIs(m.Login(context.Background(), LoginOptions{}), ErrAuthUnavailable)
	s.ErrorIs(m.Logout(context.Background()), ErrAuthUnavailable)
	identity, err := m.Authenticate(context.Background())
	s.NoError(err)
	s.Nil(identity)
}

func (s *ManagerSuite) TestAuthenticateRestoresSession() {
	m := s.newManager(WithAuthProvider(s.auth))
	user := agent.NewPrincipalIdentity(principal.MustFromText("rrkah-fqaaa-aaaaa-aaaaq-cai"))
	s.auth.EXPECT().Identity(gomock.Any()).Return(user, nil).Times(1)
	s.agents[0].EXPECT().ReplaceIdentity(user)

	identity, err := m.Authenticate(context.Background())
	s.Require().NoError(err)
	s.Equal(user, identity)

	identity, err = m.Authenticate(context.Background())
	s.Require().NoError(err)
	s.Equal(user, identity, "authenticated sessions are not restored twice")
}

func (s *ManagerSuite) TestRegisterCanisterID() {
	m := s.newManager()
	m.RegisterCanisterID(context.Background(), "ryjl3-tyaaa-aaaaa-aaaba-cai", "ledger")
	m.RegisterCanisterID(context.Background(), "rrkah-fqaaa-aaaaa-aaaaq-cai", "")
	m.RegisterCanisterID(context.Background(), "ryjl3-tyaaa-aaaaa-aaaba-cai", "ledger")
	s.Equal([]string{"ryjl3-tyaaa-aaaaa-aaaba-cai", "rrkah-fqaaa-aaaaa-aaaaq-cai"}, m.ConnectedCanisterIDs())
}

func (s *ManagerSuite) TestSubscribeRacingAgentUpdates() {
	m := s.newManager()
	hosts := []string{"http://localhost:4943", "https://icp-api.io"}

	for i := 0; i < 200; i++ {
		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 4; j++ {
				s.NoError(m.UpdateAgent(context.Background(), agent.Options{Host: hosts[j%2]}))
			}
		}()

		var active int32
		var overlapped bool
		var mu sync.Mutex
		var states []AgentState
		unsubscribe := m.SubscribeAgentState(func(st AgentState) {
			mu.Lock()
			active++
			overlapped = overlapped || active > 1
			mu.Unlock()
			time.Sleep(time.Microsecond)
			mu.Lock()
			active--
			states = append(states, st)
			mu.Unlock()
		})
		<-done

		mu.Lock()
		s.Require().False(overlapped, "callbacks never run concurrently")
		s.Require().NotEmpty(states)
		s.Require().Equal(m.AgentState(), states[len(states)-1], "the last state seen is the current one")
		mu.Unlock()
		unsubscribe()
	}
}
