package lindt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/geoknoesis/lindt-go/rdf"
)

// Engine is an isolated set of linked datatypes: one resource loader, one
// registry, and the value caches of every datatype it resolved. Engines in
// the same process share nothing.
type Engine struct {
	logger   *slog.Logger
	metrics  *Metrics
	loader   *Loader
	registry *Registry
	bridge   *Bridge

	// mu is held for writing only by Reset, so that clearing is atomic
	// with respect to every other operation.
	mu sync.RWMutex
}

// New creates an Engine.
func New(opts ...Option) (*Engine, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	options = normalizeOptions(options)

	var metrics *Metrics
	if options.Registerer != nil {
		var err error
		metrics, err = NewMetrics(options.Registerer)
		if err != nil {
			return nil, fmt.Errorf("lindt: register metrics: %w", err)
		}
	}

	loader := newLoader(options, metrics)
	registry := newRegistry(loader, options, metrics)
	return &Engine{
		logger:   options.Logger,
		metrics:  metrics,
		loader:   loader,
		registry: registry,
		bridge:   newBridge(registry, options, metrics),
	}, nil
}

// RegisterFactory makes factory the outcome of loading resourceURL, so the
// resource is never fetched. Use it for datatypes implemented in Go.
func (e *Engine) RegisterFactory(resourceURL string, factory Factory) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	e.loader.Register(resourceURL, factory)
}

// Resolve returns the Datatype for typeURI or the reason it is unavailable.
func (e *Engine) Resolve(ctx context.Context, typeURI string) (*Datatype, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.Resolve(ctx, typeURI)
}

// Datatype returns the Datatype for typeURI, or false if it is unavailable.
func (e *Engine) Datatype(ctx context.Context, typeURI string) (*Datatype, bool) {
	dt, err := e.Resolve(ctx, typeURI)
	return dt, err == nil
}

// IsValid reports whether lexical is a legal lexical form of typeURI.
func (e *Engine) IsValid(ctx context.Context, lexical, typeURI string) bool {
	dt, ok := e.Datatype(ctx, typeURI)
	if !ok {
		return false
	}
	return dt.IsValid(lexical)
}

// Parse returns the TypedValue of (lexical, typeURI). A lexical form the
// datatype rejects yields a *DatatypeFormatError; any other error means the
// datatype is unavailable and the host should keep a plain literal.
func (e *Engine) Parse(ctx context.Context, lexical, typeURI string) (*TypedValue, error) {
	dt, err := e.Resolve(ctx, typeURI)
	if err != nil {
		return nil, err
	}
	return dt.Parse(lexical)
}

// Canonicalize returns the canonical value of (lexical, typeURI). The second
// result is false when there is none; the literal should then be left as is.
func (e *Engine) Canonicalize(ctx context.Context, lexical, typeURI string) (*TypedValue, bool) {
	dt, ok := e.Datatype(ctx, typeURI)
	if !ok {
		return nil, false
	}
	v, err := dt.Parse(lexical)
	if err != nil {
		return nil, false
	}
	return dt.Canonicalize(v)
}

// Equal reports whether two literals denote the same value.
func (e *Engine) Equal(ctx context.Context, lex1, uri1, lex2, uri2 string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bridge.Equal(ctx, lex1, uri1, lex2, uri2)
}

// Compare orders two literals. The second result is false when they are not
// comparable.
func (e *Engine) Compare(ctx context.Context, lex1, uri1, lex2, uri2 string) (int, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bridge.Compare(ctx, lex1, uri1, lex2, uri2)
}

// Convertible reports whether (lexical, fromURI) can be expressed in toURI.
func (e *Engine) Convertible(ctx context.Context, lexical, fromURI, toURI string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bridge.Convertible(ctx, lexical, fromURI, toURI)
}

// IsValidLiteral reports whether lit is a legal literal of its linked datatype.
func (e *Engine) IsValidLiteral(ctx context.Context, lit rdf.Literal) bool {
	return e.IsValid(ctx, lit.Lexical, lit.DatatypeURI())
}

// CanonicalLiteral returns the canonical form of lit, or lit unchanged when
// its datatype provides none.
func (e *Engine) CanonicalLiteral(ctx context.Context, lit rdf.Literal) rdf.Literal {
	if lit.Lang != "" {
		return lit
	}
	v, ok := e.Canonicalize(ctx, lit.Lexical, lit.DatatypeURI())
	if !ok {
		return lit
	}
	return v.Literal()
}

// LiteralsEqual reports whether two literals are equal. Literals with the
// same lexical form, datatype, and language are always equal, even when the
// datatype is unavailable.
func (e *Engine) LiteralsEqual(ctx context.Context, a, b rdf.Literal) bool {
	if a.Lexical == b.Lexical && a.DatatypeURI() == b.DatatypeURI() && a.Lang == b.Lang {
		return true
	}
	if a.Lang != "" || b.Lang != "" {
		return false
	}
	return e.Equal(ctx, a.Lexical, a.DatatypeURI(), b.Lexical, b.DatatypeURI())
}

// Loaded reports whether the resource at resourceURL has been loaded or has
// failed to load.
func (e *Engine) Loaded(resourceURL string) bool {
	return e.loader.Loaded(resourceURL)
}

// CacheStats returns the value cache statistics of typeURI, if resolved.
func (e *Engine) CacheStats(typeURI string) (CacheStats, bool) {
	dt, _ := e.registry.Lookup(typeURI)
	if dt == nil {
		return CacheStats{}, false
	}
	return dt.cache.Stats(), true
}

// Reset forgets every loaded resource, resolved datatype, and cached value.
// Datatypes obtained before Reset keep working but are no longer shared.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, dt := range e.registry.Datatypes() {
		dt.cache.Clear()
	}
	e.registry.reset()
	e.loader.reset()
	e.logger.Info("engine reset")
}
