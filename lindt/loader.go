package lindt

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errNoFactory = errors.New("resource exposes no factory")

// Loader fetches and evaluates definition resources. Each resource URL is
// loaded at most once; the outcome, success or failure, is kept until Reset.
type Loader struct {
	fetcher   Fetcher
	evaluator Evaluator
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer

	// evalMu serializes every evaluation of the engine.
	evalMu sync.Mutex

	mu      sync.Mutex
	entries map[string]*loadEntry
}

// loadEntry is guarded by sem, a one-slot semaphore, so that a caller
// waiting behind another caller's load can give up when its ctx ends.
type loadEntry struct {
	sem     chan struct{}
	done    bool
	factory Factory
	err     error
}

func newLoader(opts Options, metrics *Metrics) *Loader {
	return &Loader{
		fetcher:   opts.Fetcher,
		evaluator: opts.Evaluator,
		logger:    opts.Logger.With("component", "loader"),
		metrics:   metrics,
		tracer:    opts.TracerProvider.Tracer(tracerName),
		entries:   make(map[string]*loadEntry),
	}
}

// Load returns the Factory of the resource at resourceURL, fetching and
// evaluating it on first use. Concurrent calls for the same URL wait for a
// single load; a waiting caller returns early when its ctx ends. A failed
// load is returned as a *ResourceError and is not retried, except when it
// was caused by ctx ending.
func (l *Loader) Load(ctx context.Context, resourceURL string) (Factory, error) {
	entry := l.entry(resourceURL)
	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer entry.unlock()
	if entry.done {
		return entry.factory, entry.err
	}

	factory, err := l.load(ctx, resourceURL)
	if err != nil && isContextErr(err) {
		return nil, err
	}
	entry.factory, entry.err, entry.done = factory, err, true
	return factory, err
}

// Register installs factory as the outcome of loading resourceURL.
func (l *Loader) Register(resourceURL string, factory Factory) {
	entry := l.entry(resourceURL)
	entry.lock()
	entry.factory, entry.err, entry.done = factory, nil, true
	entry.unlock()
}

// Loaded reports whether resourceURL has a memoized outcome.
func (l *Loader) Loaded(resourceURL string) bool {
	l.mu.Lock()
	entry, ok := l.entries[resourceURL]
	l.mu.Unlock()
	if !ok {
		return false
	}
	entry.lock()
	defer entry.unlock()
	return entry.done
}

func (l *Loader) reset() {
	l.mu.Lock()
	l.entries = make(map[string]*loadEntry)
	l.mu.Unlock()
}

func (l *Loader) entry(resourceURL string) *loadEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[resourceURL]
	if !ok {
		entry = &loadEntry{sem: make(chan struct{}, 1)}
		l.entries[resourceURL] = entry
	}
	return entry
}

func (e *loadEntry) lock()   { e.sem <- struct{}{} }
func (e *loadEntry) unlock() { <-e.sem }

func (l *Loader) load(ctx context.Context, resourceURL string) (Factory, error) {
	ctx, span := l.tracer.Start(ctx, "lindt.load",
		trace.WithAttributes(attribute.String("lindt.resource_url", resourceURL)))
	defer span.End()

	factory, err := l.fetchAndEvaluate(ctx, resourceURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if isContextErr(err) {
			return nil, err
		}
		l.metrics.load(outcomeFailed)
		l.logger.Warn("definition resource unavailable; custom datatypes it defines fall back to plain literals",
			"resource_url", resourceURL, "error", err)
		return nil, &ResourceError{URL: resourceURL, Err: err}
	}
	l.metrics.load(outcomeOK)
	l.logger.Debug("definition resource loaded", "resource_url", resourceURL)
	return factory, nil
}

func (l *Loader) fetchAndEvaluate(ctx context.Context, resourceURL string) (Factory, error) {
	if l.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	source, err := l.fetcher.Fetch(ctx, resourceURL)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.evalMu.Lock()
	factory, err := l.evaluate(ctx, resourceURL, source)
	l.evalMu.Unlock()
	if err != nil {
		return nil, err
	}
	if isNil(factory) {
		return nil, errNoFactory
	}
	return factory, nil
}

// evaluate runs the evaluator, converting a panic into an error.
func (l *Loader) evaluate(ctx context.Context, resourceURL string, source []byte) (factory Factory, err error) {
	defer func() {
		if r := recover(); r != nil {
			factory, err = nil, &ScriptError{TypeURI: resourceURL, Op: "evaluate", Err: panicError(r)}
		}
	}()
	return l.evaluator.Evaluate(ctx, resourceURL, source)
}
