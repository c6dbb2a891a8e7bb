package telemetry

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Attribute keys set on reactor spans.
const (
	AttributeCanister   = "icreactor.canister"
	AttributeCanisterID = "icreactor.canister_id"
	AttributeMethod     = "icreactor.method"
	AttributeCallKind   = "icreactor.call_kind"
)

func newTraceProvider() {
	if !isTracingEnabled() {
		log.Debug().Msgf("OLTP tracing endpoints are not defined. No traces will be exported")
		return
	}

	// The context passed in to the exporter is only used when connecting to the endpoint
	ctx := context.Background()
	client, err := getTraceClient()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize OLTP trace client")
		return
	}

	exp, err := otlptrace.New(ctx, client)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize OLTP trace exporter")
		return
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(newResource()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)
}

func getTraceClient() (otlptrace.Client, error) {
	protocol := otlpProtocolHTTP
	if v := os.Getenv(otlpProtocol); v != "" {
		protocol = v
	}
	if v := os.Getenv(otlpTracesProtocol); v != "" {
		protocol = v
	}
	if protocol != otlpProtocolHTTP {
		return nil, fmt.Errorf("unknown or unsupported OLTP protocol: %s. No traces will be exported", protocol)
	}
	return otlptracehttp.NewClient(), nil
}

func isTracingEnabled() bool {
	_, endpointDefined := os.LookupEnv(otlpEndpoint)
	_, tracingEndpointDefined := os.LookupEnv(otlpTracesEndpoint)
	return endpointDefined || tracingEndpointDefined
}

func cleanupTraceProvider() error {
	type shutdown interface {
		oteltrace.TracerProvider
		Shutdown(ctx context.Context) error
	}
	if tp, ok := otel.GetTracerProvider().(shutdown); ok {
		return tp.Shutdown(context.Background())
	}
	return nil
}

// GetTracer returns the package tracer of the global provider.
func GetTracer() oteltrace.Tracer {
	return otel.GetTracerProvider().Tracer(serviceName)
}

// NewSpan starts a client span on tracer, or on the global tracer when nil.
func NewSpan(ctx context.Context, tracer oteltrace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, oteltrace.Span) {
	if tracer == nil {
		tracer = GetTracer()
	}
	return tracer.Start(ctx, name,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(attrs...),
	)
}

// RecordError marks the span as failed and returns err unchanged. A nil
// error leaves the span untouched.
func RecordError(span oteltrace.Span, err error) error {
	if err == nil {
		return nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// NewRootSpan starts the span of a CLI command. It never has a parent.
func NewRootSpan(ctx context.Context, name string) (context.Context, oteltrace.Span) {
	return GetTracer().Start(ctx, name,
		oteltrace.WithNewRoot(),
		oteltrace.WithSpanKind(oteltrace.SpanKindInternal),
	)
}
