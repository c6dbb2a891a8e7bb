// Package httpagent talks to canisters through a JSON HTTP gateway.
package httpagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/B3Pay/ic-reactor-sub004/pkg/agent"
	"github.com/B3Pay/ic-reactor-sub004/pkg/icerrors"
	"github.com/B3Pay/ic-reactor-sub004/pkg/lib/backoff"
	"github.com/B3Pay/ic-reactor-sub004/pkg/principal"
)

const (
	apiPrefix       = "api/v2"
	defaultRetryMax = 3
	requestTimeout  = 30 * time.Second
)

// Agent is an agent.Agent speaking the JSON gateway protocol.
type Agent struct {
	host    *url.URL
	client  *retryablehttp.Client
	submit  *retryablehttp.Client
	polling agent.PollingOptions

	mu       sync.RWMutex
	identity agent.Identity
	rootKey  []byte
}

// New creates an agent for opts.Host, the IC when empty.
func New(opts agent.Options) (*Agent, error) {
	host := opts.Host
	if host == "" {
		host = agent.ICHost
	}
	u, err := url.Parse(host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, icerrors.NewConfigError("host", fmt.Sprintf("%q is not an absolute URL", host))
	}

	identity := opts.Identity
	if identity == nil {
		identity = agent.AnonymousIdentity{}
	}

	retryMax := opts.RetryMax
	if retryMax == 0 {
		retryMax = defaultRetryMax
	}

	polling := opts.Polling
	defaults := agent.DefaultPollingOptions()
	if polling.Interval <= 0 {
		polling.Interval = defaults.Interval
	}
	if polling.MaxInterval <= 0 {
		polling.MaxInterval = defaults.MaxInterval
	}
	if polling.Timeout <= 0 {
		polling.Timeout = defaults.Timeout
	}

	return &Agent{
		host:     u,
		client:   newClient(retryMax),
		submit:   newClient(0),
		polling:  polling,
		identity: identity,
		rootKey:  opts.RootKey,
	}, nil
}

// Factory builds JSON gateway agents.
func Factory(opts agent.Options) (agent.Agent, error) {
	return New(opts)
}

func newClient(retryMax int) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = leveledLogger{}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.HTTPClient = &http.Client{
		Timeout:   requestTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return client
}

func (a *Agent) Host() *url.URL {
	u := *a.host
	return &u
}

func (a *Agent) Principal() principal.Principal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.identity.Principal()
}

func (a *Agent) ReplaceIdentity(identity agent.Identity) {
	if identity == nil {
		identity = agent.AnonymousIdentity{}
	}
	a.mu.Lock()
	a.identity = identity
	a.mu.Unlock()
	log.Debug().Stringer("principal", identity.Principal()).Msg("agent identity replaced")
}

// RootKey returns the root key fetched from the replica, if any.
func (a *Agent) RootKey() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]byte{}, a.rootKey...)
}

func (a *Agent) FetchRootKey(ctx context.Context) error {
	var status replicaStatus
	if err := a.do(ctx, a.client, http.MethodGet, a.endpoint("status"), nil, &status); err != nil {
		return errors.Wrap(err, "fetching root key")
	}
	if len(status.RootKey) == 0 {
		return errors.New("replica status carries no root key")
	}
	a.mu.Lock()
	a.rootKey = status.RootKey
	a.mu.Unlock()
	return nil
}

func (a *Agent) Query(ctx context.Context, canisterID principal.Principal, req agent.QueryRequest) ([]byte, error) {
	body := queryBody{
		MethodName:          req.Method,
		Arg:                 req.Arg,
		Sender:              a.Principal(),
		EffectiveCanisterID: req.EffectiveCanisterID,
	}
	var res statusBody
	if err := a.do(ctx, a.client, http.MethodPost, a.endpoint("canister", canisterID.Text(), "query"), body, &res); err != nil {
		return nil, err
	}
	return replied(&res)
}

// Call submits an update call and polls its status until the gateway
// reports a terminal state or the polling timeout expires.
func (a *Agent) Call(ctx context.Context, canisterID principal.Principal, req agent.CallRequest) ([]byte, error) {
	nonce := req.Nonce
	if len(nonce) == 0 {
		id := uuid.New()
		nonce = id[:]
	}
	body := callBody{
		MethodName:          req.Method,
		Arg:                 req.Arg,
		Sender:              a.Principal(),
		EffectiveCanisterID: req.EffectiveCanisterID,
		Nonce:               nonce,
	}
	var sub submitted
	if err := a.do(ctx, a.submit, http.MethodPost, a.endpoint("canister", canisterID.Text(), "call"), body, &sub); err != nil {
		return nil, err
	}
	if sub.RequestID == "" {
		return nil, errors.Errorf("gateway accepted call to %s without a request id", req.Method)
	}
	return a.poll(ctx, req.Method, sub.RequestID)
}

func (a *Agent) poll(ctx context.Context, method, requestID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.polling.Timeout)
	defer cancel()

	strategy := a.strategy(method)
	status := StatusUnknown
	for attempt := 1; ; attempt++ {
		var res statusBody
		if err := a.do(ctx, a.client, http.MethodGet, a.endpoint("request_status", requestID), nil, &res); err != nil {
			return nil, err
		}
		status = res.Status
		switch status {
		case StatusReplied, StatusRejected:
			return replied(&res)
		case StatusDone:
			return nil, errors.Errorf("call to %s is done but its reply was pruned", method)
		}

		if polling, ok := strategy.(*backoff.Polling); ok {
			polling.Wait(ctx, attempt, status)
		} else {
			strategy.Backoff(ctx, attempt)
		}
		if ctx.Err() != nil {
			return nil, errors.Wrapf(ctx.Err(), "waiting for call to %s (last status %s)", method, status)
		}
	}
}

func (a *Agent) strategy(method string) backoff.Backoff {
	if a.polling.Strategy != nil {
		return a.polling.Strategy()
	}
	return backoff.NewPolling(backoff.PollingConfig{
		Context:      method,
		FastDelay:    a.polling.Interval,
		PlateauDelay: a.polling.MaxInterval,
	})
}

func replied(res *statusBody) ([]byte, error) {
	switch res.Status {
	case StatusReplied:
		if res.Reply == nil {
			return nil, errors.New("replied without a reply body")
		}
		return res.Reply.Arg, nil
	case StatusRejected:
		return nil, &agent.RejectError{Code: res.RejectCode, Message: res.RejectMessage, ErrorCode: res.ErrorCode}
	default:
		return nil, errors.Errorf("unexpected response status %q", res.Status)
	}
}

func (a *Agent) endpoint(parts ...string) string {
	return a.host.JoinPath(append(strings.Split(apiPrefix, "/"), parts...)...).String()
}

func (a *Agent) do(ctx context.Context, client *retryablehttp.Client, method, addr string, reqData, resData any) error {
	var body io.Reader
	if reqData != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(reqData); err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		body = &buf
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, addr, body)
	if err != nil {
		return errors.Wrapf(err, "creating %s request", method)
	}
	if reqData != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, addr)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "reading response body")
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		resp := icerrors.DecodeErrorResponse(raw)
		if resp.Details == nil {
			resp.Details = map[string]string{}
		}
		resp.Details["status"] = fmt.Sprint(res.StatusCode)
		return resp
	}
	if resData == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(raw, resData), "decoding response body")
}

// compile-time interface assertions
var _ agent.Agent = (*Agent)(nil)
