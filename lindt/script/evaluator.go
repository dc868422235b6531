package script

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/geoknoesis/lindt-go/lindt"
)

// DefaultFactoryName is the global function a resource must define.
const DefaultFactoryName = "getDatatype"

// Option configures an Evaluator.
type Option func(*Options)

// Options configures an Evaluator.
type Options struct {
	// FactoryName is the global function returning type objects.
	FactoryName string
	// SharedRuntime evaluates every resource in one JavaScript runtime, so
	// resources can build on globals defined by earlier ones. The default
	// gives each resource its own runtime.
	SharedRuntime bool
	// CallTimeout interrupts a single call into a type object that runs
	// longer than this. Zero means no limit.
	CallTimeout time.Duration
	// Logger receives console output of resources. Nil discards it.
	Logger *slog.Logger
}

// WithFactoryName sets the global factory function name.
func WithFactoryName(name string) Option {
	return func(opts *Options) {
		opts.FactoryName = name
	}
}

// WithSharedRuntime evaluates all resources in a single runtime, so scripts
// can see each other's globals. A goja runtime runs one thing at a time:
// while a resource is being evaluated, calls on every datatype already
// resolved from the shared runtime wait for the evaluation to finish. With
// the default per-resource runtimes those calls proceed.
func WithSharedRuntime() Option {
	return func(opts *Options) {
		opts.SharedRuntime = true
	}
}

// WithCallTimeout bounds every call into a type object.
func WithCallTimeout(d time.Duration) Option {
	return func(opts *Options) {
		opts.CallTimeout = d
	}
}

// WithLogger routes console.log and friends to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// Evaluator evaluates JavaScript definition resources with goja.
type Evaluator struct {
	opts Options

	mu     sync.Mutex
	shared *runtime
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(opts ...Option) *Evaluator {
	options := Options{FactoryName: DefaultFactoryName}
	for _, opt := range opts {
		opt(&options)
	}
	if options.FactoryName == "" {
		options.FactoryName = DefaultFactoryName
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Evaluator{opts: options}
}

// EngineOption returns an engine option that evaluates resources as JavaScript.
func EngineOption(opts ...Option) lindt.Option {
	return lindt.WithEvaluator(NewEvaluator(opts...))
}

// Evaluate runs source and returns a Factory backed by the resource's
// factory function. ctx interrupts a long-running evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, resourceURL string, source []byte) (lindt.Factory, error) {
	rt := e.runtimeFor(resourceURL)

	rt.mu.Lock()
	defer rt.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { rt.vm.Interrupt(ctx.Err()) })
	defer func() {
		stop()
		rt.vm.ClearInterrupt()
	}()

	if _, err := rt.vm.RunScript(resourceURL, string(source)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("evaluate %s: %w", resourceURL, err)
	}

	fn, ok := goja.AssertFunction(rt.vm.Get(e.opts.FactoryName))
	if !ok {
		return nil, fmt.Errorf("evaluate %s: resource does not define function %s(uri)", resourceURL, e.opts.FactoryName)
	}
	if e.opts.SharedRuntime {
		// The next resource must define its own factory function. Function
		// declarations are not deletable, so the binding is cleared instead.
		if err := rt.vm.Set(e.opts.FactoryName, goja.Undefined()); err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", resourceURL, err)
		}
	}
	return &factory{rt: rt, getType: fn, resourceURL: resourceURL}, nil
}

func (e *Evaluator) runtimeFor(resourceURL string) *runtime {
	if !e.opts.SharedRuntime {
		return newRuntime(e.opts, resourceURL)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shared == nil {
		e.shared = newRuntime(e.opts, "shared")
	}
	return e.shared
}
