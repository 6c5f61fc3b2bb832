// Package tracing provides OpenTelemetry setup and span helpers for the
// retryexec server. Tracing is opt-in: without an OTLP endpoint configured
// the provider is a no-op.
package tracing

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/retryexec/retryexec"

// Config controls tracer initialization.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	Endpoint       string
}

// Init configures the global tracer provider and returns a shutdown
// function. When disabled it returns a no-op shutdown and leaves the
// default (no-op) provider in place.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := sdkresource.New(ctx,
		sdkresource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// Setup reads the standard environment variables and initializes tracing.
// OTEL_EXPORTER_OTLP_ENDPOINT is honored; RETRYEXEC_OTEL_ENDPOINT overrides
// it, and RETRYEXEC_OTEL_ENABLED=true enables tracing with SDK defaults.
func Setup(serviceName, serviceVersion string) (func(), error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if ep := os.Getenv("RETRYEXEC_OTEL_ENDPOINT"); ep != "" {
		endpoint = ep
	}

	enabled := os.Getenv("RETRYEXEC_OTEL_ENABLED") == "true" || endpoint != ""

	shutdown, err := Init(context.Background(), Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Enabled:        enabled,
		Endpoint:       endpoint,
	})
	if err != nil {
		return nil, err
	}

	return func() { _ = shutdown(context.Background()) }, nil
}

// Tracer returns the named tracer for this service.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts an internal span with the given name and attributes.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError records err on the span and marks it failed.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks the span successful.
func SetOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// Common span attributes.
func ExecutionID(id string) attribute.KeyValue {
	return attribute.String("retryexec.execution_id", id)
}

func OperationKind(kind string) attribute.KeyValue {
	return attribute.String("retryexec.operation_kind", kind)
}

func Queue(name string) attribute.KeyValue {
	return attribute.String("retryexec.queue", name)
}

func Attempt(n int) attribute.KeyValue {
	return attribute.Int("retryexec.attempt", n)
}
