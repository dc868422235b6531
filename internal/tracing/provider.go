// Package tracing builds the OpenTelemetry tracer provider used by the CLI.
package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/geoknoesis/lindt-go/internal/config"
)

// ServiceName identifies lindt in exported traces.
const ServiceName = "lindt"

// Provider wraps the tracer provider handed to the engine.
type Provider struct {
	provider *sdktrace.TracerProvider
	noop     trace.TracerProvider
}

// NewProvider configures tracing. When tracing is disabled the provider is a
// no-op. Spans for the "stdout" exporter are written to w.
func NewProvider(cfg config.TracingConfig, w io.Writer) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{noop: noop.NewTracerProvider()}, nil
	}

	var exporter sdktrace.SpanExporter
	var err error
	switch cfg.Exporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
	case "otlp":
		endpoint := cfg.OTLPEndpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		exporter, err = otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
	case "none", "":
		exporter = nil
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.Exporter)
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", ServiceName))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))),
	}
	if exporter != nil {
		// Spans are exported as they end.
		opts = append(opts, sdktrace.WithSyncer(exporter))
	}
	return &Provider{provider: sdktrace.NewTracerProvider(opts...)}, nil
}

// TracerProvider returns the provider to install in the engine.
func (p *Provider) TracerProvider() trace.TracerProvider {
	if p.provider == nil {
		return p.noop
	}
	return p.provider
}

// Enabled reports whether spans are recorded.
func (p *Provider) Enabled() bool {
	return p.provider != nil
}

// Shutdown flushes and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}
