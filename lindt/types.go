package lindt

import (
	"context"
	"reflect"
)

// ValueImpl is an externally supplied representation of a parsed value.
// The engine never looks inside it; it only hands it back to the TypeImpl
// that produced it, or to a TypeImpl that recognizes its type.
type ValueImpl = any

// Factory produces type implementations for the URIs its resource defines.
// GetType returns (nil, nil) when the URI is not defined.
type Factory interface {
	GetType(typeURI string) (TypeImpl, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(typeURI string) (TypeImpl, error)

// GetType calls f(typeURI).
func (f FactoryFunc) GetType(typeURI string) (TypeImpl, error) { return f(typeURI) }

// TypeImpl is the capability set every externally supplied datatype must provide.
type TypeImpl interface {
	// IsLegal reports whether lexical is in the lexical space of the type.
	IsLegal(lexical string) (bool, error)
	// CreateValue parses a legal lexical form. A nil value is a protocol violation.
	CreateValue(lexical string) (ValueImpl, error)
	// Recognizes reports whether values of typeURI can be imported into this type.
	Recognizes(typeURI string) (bool, error)
	// ImportValue converts a value of a recognized type into this type's
	// representation. (nil, nil) means the value cannot be imported.
	ImportValue(v ValueImpl) (ValueImpl, error)
	// Equal reports whether two values of this type are equal.
	Equal(a, b ValueImpl) (bool, error)
}

// Canonicalizer is implemented by types that can reduce a value to its canonical form.
type Canonicalizer interface {
	// Canonical returns the canonical lexical form and its representation.
	Canonical(v ValueImpl) (lexical string, canon ValueImpl, err error)
}

// Orderer is implemented by types whose values are totally ordered.
type Orderer interface {
	// Compare returns a negative number, zero, or a positive number when a is
	// less than, equal to, or greater than b.
	Compare(a, b ValueImpl) (int, error)
}

// Exporter is implemented by types that can convert their own values into
// the representation of another type.
type Exporter interface {
	// ExportValue converts v into the representation of targetURI.
	// (nil, nil) means the value cannot be exported.
	ExportValue(v ValueImpl, targetURI string) (ValueImpl, error)
}

// Fetcher retrieves the raw content of a definition resource.
type Fetcher interface {
	Fetch(ctx context.Context, resourceURL string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, resourceURL string) ([]byte, error)

// Fetch calls f(ctx, resourceURL).
func (f FetcherFunc) Fetch(ctx context.Context, resourceURL string) ([]byte, error) {
	return f(ctx, resourceURL)
}

// Evaluator turns the content of a definition resource into a Factory.
// The engine never runs two evaluations at the same time.
type Evaluator interface {
	Evaluate(ctx context.Context, resourceURL string, source []byte) (Factory, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, resourceURL string, source []byte) (Factory, error)

// Evaluate calls f(ctx, resourceURL, source).
func (f EvaluatorFunc) Evaluate(ctx context.Context, resourceURL string, source []byte) (Factory, error) {
	return f(ctx, resourceURL, source)
}

// isNil reports whether v is nil or an interface holding a nil pointer, map,
// slice, func, or channel.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
