// Package telemetry provides OpenTelemetry distributed tracing for
// Kindred. It instruments the recommendation pipeline with spans for each
// stage, supports W3C Trace Context propagation, and exports to OTLP or
// stdout.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/kindred-recs/kindred"

// Config holds tracing configuration.
type Config struct {
	// Enabled turns tracing on/off.
	Enabled bool

	// Exporter selects the trace exporter: "otlp", "stdout", or "none".
	Exporter string

	// Endpoint is the OTLP collector address (e.g., "localhost:4317").
	Endpoint string

	// SampleRate controls the sampling ratio (0.0 to 1.0).
	SampleRate float64

	// ServiceName overrides the default service name.
	ServiceName string

	// Insecure disables TLS for the OTLP exporter.
	Insecure bool
}

// DefaultConfig returns tracing defaults (disabled).
func DefaultConfig() Config {
	return Config{
		Enabled:     false,
		Exporter:    "otlp",
		Endpoint:    "localhost:4317",
		SampleRate:  1.0,
		ServiceName: "kindred",
		Insecure:    true,
	}
}

// Provider wraps the OTEL TracerProvider and exposes Kindred-specific
// helpers. A nil *Provider is valid and produces no-op spans, so callers
// never need to guard instrumentation sites.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

var noopTracer = trace.NewNoopTracerProvider().Tracer(tracerName)

// Init sets up the global TracerProvider based on the config.
// Returns a Provider that must be shut down with Shutdown().
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{tracer: noopTracer}, nil
	}

	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.Exporter {
	case "otlp":
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
	case "none", "":
		return &Provider{tracer: noopTracer}, nil
	default:
		return nil, fmt.Errorf("unsupported exporter: %q (supported: otlp, stdout, none)", cfg.Exporter)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("0.1.0"),
		),
		resource.WithProcessRuntimeDescription(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRate < 1.0 {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	// Set global provider and propagator
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{
		tp:     tp,
		tracer: tp.Tracer(tracerName),
	}, nil
}

// Shutdown flushes pending spans and shuts down the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// Tracer returns the Kindred tracer for creating spans. Never nil.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil || p.tracer == nil {
		return noopTracer
	}
	return p.tracer
}

func (p *Provider) start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if p == nil || p.tracer == nil {
		return noopTracer.Start(ctx, name, opts...)
	}
	return p.tracer.Start(ctx, name, opts...)
}

// --- Span helpers for pipeline stages ---

// StartRequest creates a root span for an incoming HTTP request.
func (p *Provider) StartRequest(ctx context.Context, endpoint string) (context.Context, trace.Span) {
	return p.start(ctx, "kindred.request",
		trace.WithAttributes(attribute.String("kindred.endpoint", endpoint)),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartSnapshotLoad creates a span for a synchronous catalog snapshot
// build on the request path.
func (p *Provider) StartSnapshotLoad(ctx context.Context) (context.Context, trace.Span) {
	return p.start(ctx, "kindred.snapshot.load")
}

// StartProfile creates a span for the profile aggregation stage.
func (p *Provider) StartProfile(ctx context.Context, anonymous bool) (context.Context, trace.Span) {
	return p.start(ctx, "kindred.profile",
		trace.WithAttributes(attribute.Bool("kindred.profile.anonymous", anonymous)),
	)
}

// StartRank creates a span for the similarity ranking stage.
func (p *Provider) StartRank(ctx context.Context, catalogSize, k int) (context.Context, trace.Span) {
	return p.start(ctx, "kindred.rank",
		trace.WithAttributes(
			attribute.Int("kindred.rank.catalog_size", catalogSize),
			attribute.Int("kindred.rank.k", k),
		),
	)
}

// StartFallback creates a span for the popularity fallback stage.
func (p *Provider) StartFallback(ctx context.Context, k int) (context.Context, trace.Span) {
	return p.start(ctx, "kindred.fallback",
		trace.WithAttributes(attribute.Int("kindred.fallback.k", k)),
	)
}

// RecordResult adds response attributes to a span.
func RecordResult(span trace.Span, path string, returned int, latency time.Duration) {
	span.SetAttributes(
		attribute.String("kindred.result.path", path),
		attribute.Int("kindred.result.count", returned),
		attribute.Int64("kindred.result.latency_ms", latency.Milliseconds()),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("error", true))
}
