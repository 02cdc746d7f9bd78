// Package telemetry provides tracing and identifiers for assistant sessions.
package telemetry

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const serviceName = "ada"

// Config holds the configuration for telemetry
type Config struct {
	// Endpoint is the OTLP HTTP collector endpoint. Empty disables tracing.
	Endpoint string
}

// Provider manages the tracing pipeline for a session
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
}

// NewProvider creates a telemetry provider. With no endpoint configured it
// returns a provider whose spans are no-ops.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if config.Endpoint == "" {
		log.Printf("Telemetry disabled")
		return &Provider{tracer: noop.NewTracerProvider().Tracer(serviceName)}, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(config.Endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.Printf("Telemetry enabled, exporting to %s", config.Endpoint)
	return &Provider{
		tracerProvider: tp,
		tracer:         tp.Tracer(serviceName),
	}, nil
}

// Shutdown flushes and stops the tracing pipeline
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider == nil {
		return nil
	}
	return p.tracerProvider.Shutdown(ctx)
}

// StartTurn opens a span covering one turn of the assistant loop
func (p *Provider) StartTurn(ctx context.Context, sessionID string, turnIndex int) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "assistant.turn",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("turn.index", turnIndex),
		),
	)
}

// StartStep opens a child span for one step within a turn (classify,
// dispatch, speak)
func (p *Provider) StartStep(ctx context.Context, step string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "assistant."+step)
}

// NewSessionID generates a new session UUID
func NewSessionID() string {
	return uuid.New().String()
}
