package lindt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/geoknoesis/lindt-go/rdf"
)

// Registry resolves datatype URIs to Datatypes. Both resolved datatypes and
// failures are remembered until Reset; a URI that failed once is never
// attempted again.
type Registry struct {
	loader        *Loader
	logger        *slog.Logger
	typeLogger    *slog.Logger
	metrics       *Metrics
	tracer        trace.Tracer
	cacheCapacity int
	group         singleflight.Group

	mu      sync.RWMutex
	entries map[string]resolution
}

type resolution struct {
	datatype *Datatype
	err      error
}

func newRegistry(loader *Loader, opts Options, metrics *Metrics) *Registry {
	return &Registry{
		loader:        loader,
		logger:        opts.Logger.With("component", "registry"),
		typeLogger:    opts.Logger.With("component", "datatype"),
		metrics:       metrics,
		tracer:        opts.TracerProvider.Tracer(tracerName),
		cacheCapacity: opts.CacheCapacity,
		entries:       make(map[string]resolution),
	}
}

// ResourceURL returns the URL of the resource defining typeURI: typeURI
// without its fragment.
func ResourceURL(typeURI string) string {
	return rdf.StripFragment(typeURI)
}

// errAbandoned marks a coalesced resolution whose leading caller's context
// ended. Waiters with a live context start over instead of failing.
var errAbandoned = errors.New("resolution abandoned by its caller")

// Resolve returns the Datatype for typeURI, loading its definition resource
// if needed. Concurrent resolutions of one URI share a single attempt; each
// caller still returns as soon as its own ctx ends.
func (r *Registry) Resolve(ctx context.Context, typeURI string) (*Datatype, error) {
	if res, ok := r.lookup(typeURI); ok {
		return res.datatype, res.err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ch := r.group.DoChan(typeURI, func() (any, error) {
			return r.resolveOnce(ctx, typeURI)
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if errors.Is(res.Err, errAbandoned) {
				continue
			}
			dt, _ := res.Val.(*Datatype)
			return dt, res.Err
		}
	}
}

// resolveOnce runs one shared resolution attempt and memoizes its outcome.
func (r *Registry) resolveOnce(ctx context.Context, typeURI string) (*Datatype, error) {
	if res, ok := r.lookup(typeURI); ok {
		return res.datatype, res.err
	}
	dt, err := r.resolve(ctx, typeURI)
	if err != nil && isContextErr(err) {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errAbandoned, err)
		}
		return nil, err
	}
	r.mu.Lock()
	r.entries[typeURI] = resolution{datatype: dt, err: err}
	r.mu.Unlock()
	return dt, err
}

// Lookup returns the memoized outcome for typeURI without resolving it.
func (r *Registry) Lookup(typeURI string) (dt *Datatype, resolved bool) {
	res, ok := r.lookup(typeURI)
	return res.datatype, ok
}

// Datatypes returns every successfully resolved datatype.
func (r *Registry) Datatypes() []*Datatype {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Datatype, 0, len(r.entries))
	for _, res := range r.entries {
		if res.datatype != nil {
			out = append(out, res.datatype)
		}
	}
	return out
}

func (r *Registry) lookup(typeURI string) (resolution, bool) {
	r.mu.RLock()
	res, ok := r.entries[typeURI]
	r.mu.RUnlock()
	return res, ok
}

func (r *Registry) reset() {
	r.mu.Lock()
	r.entries = make(map[string]resolution)
	r.mu.Unlock()
}

func (r *Registry) resolve(ctx context.Context, typeURI string) (*Datatype, error) {
	ctx, span := r.tracer.Start(ctx, "lindt.resolve",
		trace.WithAttributes(attribute.String("lindt.type_uri", typeURI)))
	defer span.End()

	dt, err := r.resolveType(ctx, typeURI)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !isContextErr(err) {
			r.metrics.resolution(outcomeNegative)
			r.logger.Warn("datatype unavailable; literals fall back to plain lexical forms",
				"type_uri", typeURI, "code", Code(err), "error", err)
		}
		return nil, err
	}
	r.metrics.resolution(outcomeOK)
	r.logger.Debug("datatype resolved", "type_uri", typeURI)
	return dt, nil
}

func (r *Registry) resolveType(ctx context.Context, typeURI string) (*Datatype, error) {
	if err := rdf.ValidateAbsoluteIRI(typeURI); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTypeURI, err)
	}

	factory, err := r.loader.Load(ctx, ResourceURL(typeURI))
	if err != nil {
		return nil, err
	}

	impl, err := getType(factory, typeURI)
	if err != nil {
		return nil, err
	}
	if isNil(impl) {
		return nil, fmt.Errorf("%w: <%s>", ErrUnknownDatatype, typeURI)
	}

	cache := newValueCache(r.cacheCapacity, r.metrics)
	return newDatatype(typeURI, impl, cache, r.typeLogger), nil
}

// getType asks factory for typeURI, converting panics and unclassified
// errors into protocol violations.
func getType(factory Factory, typeURI string) (impl TypeImpl, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			impl, err = nil, &ScriptError{TypeURI: typeURI, Op: "getType", Err: panicError(rec)}
		}
	}()
	impl, err = factory.GetType(typeURI)
	if err != nil && !classified(err) {
		err = &ProtocolError{TypeURI: typeURI, Op: "getType", Err: err}
	}
	return impl, err
}
