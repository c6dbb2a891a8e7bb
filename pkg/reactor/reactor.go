// Package reactor binds a Candid service to a canister and the shared agent
// of a client.Manager, and keeps per-request call state in a Store.
package reactor

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/B3Pay/ic-reactor-sub004/pkg/agent"
	"github.com/B3Pay/ic-reactor-sub004/pkg/client"
	"github.com/B3Pay/ic-reactor-sub004/pkg/icerrors"
	"github.com/B3Pay/ic-reactor-sub004/pkg/idl"
	"github.com/B3Pay/ic-reactor-sub004/pkg/logger"
	"github.com/B3Pay/ic-reactor-sub004/pkg/principal"
	"github.com/B3Pay/ic-reactor-sub004/pkg/telemetry"
)

const (
	kindQuery  = "query"
	kindUpdate = "update"

	envPublicCanisterIDPrefix = "PUBLIC_CANISTER_ID:"
	envCanisterIDPrefix       = "CANISTER_ID_"
)

// Transformer rewrites arguments before encoding and results after
// decoding.
type Transformer interface {
	TransformArgs(method string, args []any) ([]any, error)
	TransformResult(method string, result any) (any, error)
}

// candidTransformer keeps arguments as they are and unwraps Result variants.
type candidTransformer struct{}

func (candidTransformer) TransformArgs(_ string, args []any) ([]any, error) {
	return args, nil
}

func (candidTransformer) TransformResult(_ string, result any) (any, error) {
	return idl.ExtractOkResult(result)
}

// Params configure a Reactor.
type Params struct {
	Manager *client.Manager
	// Name identifies the canister in logs, metrics and environment lookups.
	Name       string
	CanisterID string
	// Service is the interface of the canister. When nil, Candid is parsed.
	Service *idl.Service
	Candid  string
	// Codec encodes arguments and decodes replies. Defaults to idl.JSONCodec.
	Codec   idl.Codec
	Tracer  trace.Tracer
	Metrics *Metrics
}

// CallConfig overrides request fields of a single call.
type CallConfig struct {
	EffectiveCanisterID *principal.Principal
	Nonce               []byte
}

type CallParams struct {
	Method string
	Args   []any
	Config CallConfig
}

type QueryKeyParams struct {
	Method   string
	Args     []any
	QueryKey []string
}

// Reactor calls the methods of one canister through the manager's agent.
type Reactor struct {
	manager     *client.Manager
	service     *idl.Service
	codec       idl.Codec
	tracer      trace.Tracer
	metrics     *Metrics
	transformer Transformer

	mu         sync.RWMutex
	name       string
	canisterID string
}

// New builds a Reactor and registers its canister with the manager.
func New(params Params) (*Reactor, error) {
	if params.Manager == nil {
		return nil, icerrors.NewConfigError("manager", "a client manager is required")
	}
	service := params.Service
	if service == nil {
		if strings.TrimSpace(params.Candid) == "" {
			return nil, icerrors.NewConfigError("service", "a service interface or Candid source is required")
		}
		prog, err := idl.Parse(params.Candid)
		if err != nil {
			return nil, errors.Wrap(err, "parsing candid")
		}
		if prog.Service == nil {
			return nil, icerrors.NewConfigError("service", "candid source declares no service")
		}
		service = prog.Service
	}

	r := &Reactor{
		manager:     params.Manager,
		service:     service,
		codec:       params.Codec,
		tracer:      params.Tracer,
		metrics:     params.Metrics,
		transformer: candidTransformer{},
		name:        params.Name,
	}
	if r.codec == nil {
		r.codec = idl.NewJSONCodec()
	}

	canisterID := params.CanisterID
	if canisterID == "" {
		canisterID = canisterIDFromEnv(params.Name)
	}
	if canisterID == "" {
		canisterID = principal.ManagementCanister().Text()
		log.Warn().
			Str("canister", params.Name).
			Msgf("no canister id for %q, falling back to %s", params.Name, canisterID)
	}
	if _, err := principal.FromText(canisterID); err != nil {
		return nil, icerrors.NewConfigError("canisterId", err.Error())
	}
	r.canisterID = canisterID
	if r.name == "" {
		r.name = canisterID
	}

	r.manager.RegisterCanisterID(context.Background(), r.canisterID, r.name)
	return r, nil
}

func canisterIDFromEnv(name string) string {
	if name == "" {
		return ""
	}
	if id := os.Getenv(envPublicCanisterIDPrefix + name); id != "" {
		return id
	}
	return os.Getenv(envCanisterIDPrefix + strings.ToUpper(name))
}

func (r *Reactor) Manager() *client.Manager { return r.manager }

func (r *Reactor) Service() *idl.Service { return r.service }

func (r *Reactor) Metrics() *Metrics { return r.metrics }

func (r *Reactor) Name() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.name
}

func (r *Reactor) CanisterID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.canisterID
}

// SetCanisterID points later calls at another canister.
func (r *Reactor) SetCanisterID(canisterID string) error {
	if _, err := principal.FromText(canisterID); err != nil {
		return icerrors.NewConfigError("canisterId", err.Error())
	}
	r.mu.Lock()
	r.canisterID = canisterID
	name := r.name
	r.mu.Unlock()
	r.manager.RegisterCanisterID(context.Background(), canisterID, name)
	return nil
}

func (r *Reactor) SetName(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name = name
}

// Method returns the signature of a method.
func (r *Reactor) Method(name string) (*idl.Func, bool) {
	return r.service.Lookup(name)
}

// MethodNames lists the service methods alphabetically.
func (r *Reactor) MethodNames() []string {
	return r.service.MethodNames()
}

// IsQueryMethod reports whether a method is a query or composite query.
func (r *Reactor) IsQueryMethod(method string) bool {
	f, ok := r.service.Lookup(method)
	return ok && f.IsQuery()
}

// CallMethod encodes args, performs a query or update call depending on the
// method annotation and returns the decoded, transformed reply. Canister and
// validation errors are returned as they are; anything else is wrapped in
// a *icerrors.CallError.
func (r *Reactor) CallMethod(ctx context.Context, params CallParams) (result any, err error) {
	name, canisterID := r.Name(), r.CanisterID()
	kind := kindUpdate
	if r.IsQueryMethod(params.Method) {
		kind = kindQuery
	}

	ctx = logger.ContextWithCanisterLogger(ctx, name)
	ctx, span := telemetry.NewSpan(ctx, r.tracer, "reactor.callMethod",
		attribute.String(telemetry.AttributeCanister, name),
		attribute.String(telemetry.AttributeCanisterID, canisterID),
		attribute.String(telemetry.AttributeMethod, params.Method),
		attribute.String(telemetry.AttributeCallKind, kind),
	)
	start := time.Now()
	defer func() {
		r.metrics.ObserveCall(name, params.Method, kind, err, time.Since(start))
		_ = telemetry.RecordError(span, err)
		span.End()
	}()

	result, err = r.callMethod(ctx, canisterID, kind, params)
	if err == nil || icerrors.IsCanisterError(err) || icerrors.IsValidationError(err) {
		return result, err
	}
	log.Ctx(ctx).Debug().Err(err).Str("method", params.Method).Msg("call failed")
	return nil, icerrors.NewCallError(params.Method, err)
}

func (r *Reactor) callMethod(ctx context.Context, canisterID, kind string, params CallParams) (any, error) {
	f, ok := r.service.Lookup(params.Method)
	if !ok {
		return nil, errors.Errorf("method %q not found", params.Method)
	}
	canister, err := principal.FromText(canisterID)
	if err != nil {
		return nil, err
	}

	args, err := r.transformer.TransformArgs(params.Method, params.Args)
	if err != nil {
		return nil, err
	}
	arg, err := r.codec.Encode(f.Args, args)
	if err != nil {
		return nil, errors.Wrap(err, "encoding arguments")
	}

	a := r.manager.Agent()
	if a == nil {
		return nil, errors.New("agent is not available")
	}
	var reply []byte
	if kind == kindQuery {
		reply, err = a.Query(ctx, canister, agent.QueryRequest{
			Method:              params.Method,
			Arg:                 arg,
			EffectiveCanisterID: params.Config.EffectiveCanisterID,
		})
	} else {
		reply, err = a.Call(ctx, canister, agent.CallRequest{
			Method:              params.Method,
			Arg:                 arg,
			EffectiveCanisterID: params.Config.EffectiveCanisterID,
			Nonce:               params.Config.Nonce,
		})
	}
	if err != nil {
		return nil, err
	}

	values, err := r.codec.Decode(f.Rets, reply)
	if err != nil {
		return nil, errors.Wrap(err, "decoding reply")
	}
	var decoded any
	switch len(values) {
	case 0:
	case 1:
		decoded = values[0]
	default:
		decoded = values
	}
	return r.transformer.TransformResult(params.Method, decoded)
}

// GenerateQueryKey builds a cache key for a call: the canister id, the
// method, the stable serialization of the arguments when there are any and
// the extra segments.
func (r *Reactor) GenerateQueryKey(params QueryKeyParams) []string {
	key := []string{r.CanisterID(), params.Method}
	if len(params.Args) > 0 {
		key = append(key, GenerateKey(params.Args))
	}
	return append(key, params.QueryKey...)
}
