//go:build unit || !integration

package httpagent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/B3Pay/ic-reactor-sub004/pkg/agent"
	"github.com/B3Pay/ic-reactor-sub004/pkg/icerrors"
	"github.com/B3Pay/ic-reactor-sub004/pkg/lib/backoff"
	"github.com/B3Pay/ic-reactor-sub004/pkg/logger"
	"github.com/B3Pay/ic-reactor-sub004/pkg/principal"
)

var canister = principal.MustFromText("ryjl3-tyaaa-aaaaa-aaaba-cai")

// gateway is a scripted JSON gateway.
type gateway struct {
	mu            sync.Mutex
	queries       []queryBody
	calls         []callBody
	statusPolls   int32
	pendingPolls  int32
	queryFailures int32
	reject        bool
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v2/")
	switch {
	case path == "status":
		writeJSON(w, http.StatusOK, map[string]any{"root_key": []byte{1, 2, 3}})
	case strings.HasSuffix(path, "/query"):
		if atomic.AddInt32(&g.queryFailures, -1) >= 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var body queryBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		g.mu.Lock()
		g.queries = append(g.queries, body)
		g.mu.Unlock()
		if body.MethodName == "missing" {
			writeJSON(w, http.StatusBadRequest, icerrors.ErrorResponse{Code: "METHOD_NOT_FOUND", Message: "no such method"})
			return
		}
		writeJSON(w, http.StatusOK, statusBody{Status: StatusReplied, Reply: &reply{Arg: []byte(`["Hello, World!"]`)}})
	case strings.HasSuffix(path, "/call"):
		var body callBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		g.mu.Lock()
		g.calls = append(g.calls, body)
		g.mu.Unlock()
		writeJSON(w, http.StatusAccepted, submitted{RequestID: "abc123"})
	case strings.HasPrefix(path, "request_status/"):
		n := atomic.AddInt32(&g.statusPolls, 1)
		if n <= atomic.LoadInt32(&g.pendingPolls) {
			writeJSON(w, http.StatusOK, statusBody{Status: StatusProcessing})
			return
		}
		if g.reject {
			writeJSON(w, http.StatusOK, statusBody{Status: StatusRejected, RejectCode: agent.RejectCanisterError, RejectMessage: "trapped"})
			return
		}
		writeJSON(w, http.StatusOK, statusBody{Status: StatusReplied, Reply: &reply{Arg: []byte(`[]`)}})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type AgentSuite struct {
	suite.Suite
	gateway *gateway
	server  *httptest.Server
	agent   *Agent
}

func TestAgentSuite(t *testing.T) {
	suite.Run(t, new(AgentSuite))
}

func (s *AgentSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
	s.gateway = &gateway{}
	s.server = httptest.NewServer(s.gateway)
	a, err := New(agent.Options{
		Host:     s.server.URL,
		RetryMax: 2,
		Polling: agent.PollingOptions{
			Timeout:  time.Second,
			Strategy: func() backoff.Backoff { return backoff.NewNoop() },
		},
	})
	s.Require().NoError(err)
	s.agent = a
}

func (s *AgentSuite) TearDownTest() {
	s.server.Close()
}

func (s *AgentSuite) TestQuery() {
	res, err := s.agent.Query(context.Background(), canister, agent.QueryRequest{Method: "greet", Arg: []byte(`["World"]`)})
	s.Require().NoError(err)
	s.Equal(`["Hello, World!"]`, string(res))
	s.Require().Len(s.gateway.queries, 1)
	s.Equal("greet", s.gateway.queries[0].MethodName)
	s.True(s.gateway.queries[0].Sender.IsAnonymous())
}

func (s *AgentSuite) TestQueryRetriesServerErrors() {
	s.gateway.queryFailures = 2
	_, err := s.agent.Query(context.Background(), canister, agent.QueryRequest{Method: "greet"})
	s.Require().NoError(err)
}

func (s *AgentSuite) TestQueryGatewayError() {
	_, err := s.agent.Query(context.Background(), canister, agent.QueryRequest{Method: "missing"})
	var resp *icerrors.ErrorResponse
	s.Require().ErrorAs(err, &resp)
	s.Equal("METHOD_NOT_FOUND", resp.Code)
	s.Equal("400", resp.Details["status"])
}

func (s *AgentSuite) TestCallPollsUntilReplied() {
	s.gateway.pendingPolls = 3
	res, err := s.agent.Call(context.Background(), canister, agent.CallRequest{Method: "set", Arg: []byte(`[1]`)})
	s.Require().NoError(err)
	s.Equal("[]", string(res))
	s.EqualValues(4, s.gateway.statusPolls)
	s.Require().Len(s.gateway.calls, 1)
	s.Len(s.gateway.calls[0].Nonce, 16, "a nonce is generated")
}

func (s *AgentSuite) TestCallRejected() {
	s.gateway.reject = true
	_, err := s.agent.Call(context.Background(), canister, agent.CallRequest{Method: "set"})
	var reject *agent.RejectError
	s.Require().ErrorAs(err, &reject)
	s.Equal(agent.RejectCanisterError, reject.Code)
	s.Equal("trapped", reject.Message)
}

func (s *AgentSuite) TestCallTimesOut() {
	s.gateway.pendingPolls = 1 << 30
	a, err := New(agent.Options{
		Host: s.server.URL,
		Polling: agent.PollingOptions{
			Timeout:  50 * time.Millisecond,
			Strategy: func() backoff.Backoff { return backoff.NewExponential(10*time.Millisecond, 10*time.Millisecond) },
		},
	})
	s.Require().NoError(err)
	_, err = a.Call(context.Background(), canister, agent.CallRequest{Method: "slow"})
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *AgentSuite) TestFetchRootKey() {
	s.Require().NoError(s.agent.FetchRootKey(context.Background()))
	s.Equal([]byte{1, 2, 3}, s.agent.RootKey())
}

func (s *AgentSuite) TestReplaceIdentity() {
	user := principal.MustFromText("rrkah-fqaaa-aaaaa-aaaaq-cai")
	s.agent.ReplaceIdentity(agent.NewPrincipalIdentity(user))
	s.True(user.Equal(s.agent.Principal()))

	_, err := s.agent.Query(context.Background(), canister, agent.QueryRequest{Method: "greet"})
	s.Require().NoError(err)
	s.True(user.Equal(s.gateway.queries[0].Sender))

	s.agent.ReplaceIdentity(nil)
	s.True(s.agent.Principal().IsAnonymous())
}

func (s *AgentSuite) TestInvalidHost() {
	_, err := New(agent.Options{Host: "not a url"})
	s.True(icerrors.IsConfigError(err))

	a, err := New(agent.Options{})
	s.Require().NoError(err)
	s.Equal("ic0.app", a.Host().Hostname())
}
