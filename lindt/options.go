package lindt

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/geoknoesis/lindt-go/lindt"

// Option configures an Engine.
type Option func(*Options)

// Options configures engine behavior.
type Options struct {
	// CacheCapacity bounds each datatype's value cache.
	CacheCapacity int
	// Logger receives absorbed failures. Nil discards them.
	Logger *slog.Logger
	// Fetcher retrieves definition resources. Nil uses an HTTPFetcher.
	Fetcher Fetcher
	// Evaluator turns resource content into a Factory. Nil fails every
	// load that is not pre-registered with RegisterFactory.
	Evaluator Evaluator
	// Registerer exposes engine metrics. Nil disables metrics.
	Registerer prometheus.Registerer
	// TracerProvider creates spans around loads and resolutions.
	TracerProvider trace.TracerProvider
}

// WithCacheCapacity sets the per-datatype value cache capacity.
func WithCacheCapacity(capacity int) Option {
	return func(opts *Options) {
		opts.CacheCapacity = capacity
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithFetcher sets the definition resource fetcher.
func WithFetcher(fetcher Fetcher) Option {
	return func(opts *Options) {
		opts.Fetcher = fetcher
	}
}

// WithHTTPClient fetches definition resources with client.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *Options) {
		opts.Fetcher = &HTTPFetcher{Client: client}
	}
}

// WithEvaluator sets the definition resource evaluator.
func WithEvaluator(evaluator Evaluator) Option {
	return func(opts *Options) {
		opts.Evaluator = evaluator
	}
}

// WithMetrics registers engine metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(opts *Options) {
		opts.Registerer = reg
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(opts *Options) {
		opts.TracerProvider = tp
	}
}

func defaultOptions() Options {
	return Options{
		CacheCapacity: DefaultCacheCapacity,
	}
}

func normalizeOptions(opts Options) Options {
	if opts.CacheCapacity <= 0 {
		opts.CacheCapacity = DefaultCacheCapacity
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Fetcher == nil {
		opts.Fetcher = &HTTPFetcher{}
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = noop.NewTracerProvider()
	}
	return opts
}
