package lindt

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	errNilValue     = errors.New("returned no value")
	errEmptyLexical = errors.New("returned a value without a lexical form")
	errIllegalCanon = errors.New("returned a canonical form rejected by isLegal")
)

// Datatype is the uniform face of an externally supplied TypeImpl. Every
// call into the implementation is guarded: errors and panics are logged and
// turned into the most conservative answer for the operation.
// A Datatype is immutable and safe for concurrent use.
type Datatype struct {
	uri    string
	impl   TypeImpl
	cache  *ValueCache
	logger *slog.Logger
}

func newDatatype(uri string, impl TypeImpl, cache *ValueCache, logger *slog.Logger) *Datatype {
	return &Datatype{
		uri:    uri,
		impl:   impl,
		cache:  cache,
		logger: logger.With("type_uri", uri),
	}
}

// NewDatatype wraps impl as the datatype uri with its own value cache.
// Hosts normally obtain datatypes through an Engine instead.
func NewDatatype(uri string, impl TypeImpl, opts ...Option) *Datatype {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	options = normalizeOptions(options)
	return newDatatype(uri, impl, NewValueCache(options.CacheCapacity), options.Logger)
}

// URI returns the datatype URI.
func (d *Datatype) URI() string { return d.uri }

// Cache returns the datatype's value cache.
func (d *Datatype) Cache() *ValueCache { return d.cache }

// IsValid reports whether lexical is a legal lexical form.
// Failures of the implementation count as "not legal".
func (d *Datatype) IsValid(lexical string) bool {
	legal, err := call(d, "isLegal", func() (bool, error) { return d.impl.IsLegal(lexical) })
	if err != nil {
		d.absorb("isLegal", err, "lexical", lexical)
		return false
	}
	return legal
}

// Parse returns the TypedValue for lexical, creating it on first use.
// Repeated calls return the same value until it is evicted from the cache.
// An illegal lexical form yields a *DatatypeFormatError.
func (d *Datatype) Parse(lexical string) (*TypedValue, error) {
	v := d.cache.GetOrCreate(lexical, func() *TypedValue { return newTypedValue(lexical, d.uri) })
	if err := v.resolve(d); err != nil {
		return nil, err
	}
	return v, nil
}

// Canonicalize returns the canonical value of v. The second result is false
// when the implementation cannot produce one; callers then keep v unchanged.
func (d *Datatype) Canonicalize(v *TypedValue) (*TypedValue, bool) {
	if !d.owns(v) {
		return nil, false
	}
	canon, ok := d.impl.(Canonicalizer)
	if !ok {
		return nil, false
	}

	type result struct {
		lexical string
		rep     ValueImpl
	}
	res, err := call(d, "canonicalize", func() (result, error) {
		lexical, rep, err := canon.Canonical(v.rep)
		return result{lexical: lexical, rep: rep}, err
	})
	switch {
	case err != nil:
		d.absorb("canonicalize", err, "lexical", v.lexical)
		return nil, false
	case isNil(res.rep):
		d.logger.Debug("no canonical form", "lexical", v.lexical)
		return nil, false
	case res.lexical == "":
		d.absorb("canonicalize", &ProtocolError{TypeURI: d.uri, Op: "canonicalize", Err: errEmptyLexical}, "lexical", v.lexical)
		return nil, false
	case res.lexical == v.lexical:
		return v, true
	case !d.IsValid(res.lexical):
		d.absorb("canonicalize", &ProtocolError{TypeURI: d.uri, Op: "canonicalize", Err: errIllegalCanon},
			"lexical", v.lexical, "canonical", res.lexical)
		return nil, false
	}

	out := d.cache.GetOrCreate(res.lexical, func() *TypedValue {
		return newResolvedValue(res.lexical, d.uri, res.rep)
	})
	if err := out.resolve(d); err != nil {
		d.absorb("canonicalize", &ProtocolError{TypeURI: d.uri, Op: "canonicalize", Err: err}, "lexical", v.lexical)
		return nil, false
	}
	return out, true
}

// Recognizes reports whether values of typeURI can be imported into this
// datatype. Failures count as "not recognized".
func (d *Datatype) Recognizes(typeURI string) bool {
	ok, err := call(d, "recognizes", func() (bool, error) { return d.impl.Recognizes(typeURI) })
	if err != nil {
		d.absorb("recognizes", err, "other_type_uri", typeURI)
		return false
	}
	return ok
}

// Equal reports whether two values of this datatype are equal.
// Values that are illegal or belong to another datatype are never equal.
func (d *Datatype) Equal(a, b *TypedValue) bool {
	if !d.owns(a) || !d.owns(b) {
		return false
	}
	return d.equalReps(a.rep, b.rep)
}

// Compare orders two values of this datatype. The second result is false
// when the values are not comparable.
func (d *Datatype) Compare(a, b *TypedValue) (int, bool) {
	if !d.owns(a) || !d.owns(b) {
		return 0, false
	}
	return d.compareReps(a.rep, b.rep)
}

// Import converts v, a legal value of another datatype, into this
// datatype's representation.
func (d *Datatype) Import(v *TypedValue) (ValueImpl, bool) {
	if v == nil || v.Legality() != Legal {
		return nil, false
	}
	rep, err := call(d, "importValue", func() (ValueImpl, error) { return d.impl.ImportValue(v.rep) })
	if err != nil {
		d.absorb("importValue", err, "from_type_uri", v.typeURI, "lexical", v.lexical)
		return nil, false
	}
	if isNil(rep) {
		return nil, false
	}
	return rep, true
}

// Export converts v, a value of this datatype, into the representation of
// target. The implementation's Exporter capability is used when present;
// otherwise target is asked to import v.
func (d *Datatype) Export(v *TypedValue, target *Datatype) (ValueImpl, bool) {
	if !d.owns(v) || target == nil {
		return nil, false
	}
	if exp, ok := d.impl.(Exporter); ok {
		rep, err := call(d, "exportValue", func() (ValueImpl, error) { return exp.ExportValue(v.rep, target.uri) })
		switch {
		case err != nil:
			d.absorb("exportValue", err, "to_type_uri", target.uri, "lexical", v.lexical)
		case !isNil(rep):
			return rep, true
		}
	}
	return target.Import(v)
}

func (d *Datatype) createValue(lexical string) (ValueImpl, error) {
	rep, err := call(d, "createValue", func() (ValueImpl, error) { return d.impl.CreateValue(lexical) })
	if err != nil {
		d.absorb("createValue", err, "lexical", lexical)
		return nil, err
	}
	if isNil(rep) {
		err := &ProtocolError{TypeURI: d.uri, Op: "createValue", Err: errNilValue}
		d.absorb("createValue", err, "lexical", lexical)
		return nil, err
	}
	return rep, nil
}

func (d *Datatype) equalReps(a, b ValueImpl) bool {
	eq, err := call(d, "equal", func() (bool, error) { return d.impl.Equal(a, b) })
	if err != nil {
		d.absorb("equal", err)
		return false
	}
	return eq
}

func (d *Datatype) compareReps(a, b ValueImpl) (int, bool) {
	ord, ok := d.impl.(Orderer)
	if !ok {
		return 0, false
	}
	c, err := call(d, "compare", func() (int, error) { return ord.Compare(a, b) })
	if err != nil {
		d.absorb("compare", err)
		return 0, false
	}
	switch {
	case c < 0:
		return -1, true
	case c > 0:
		return 1, true
	default:
		return 0, true
	}
}

// owns reports whether v is a legal value of this datatype.
func (d *Datatype) owns(v *TypedValue) bool {
	if v == nil || v.typeURI != d.uri {
		return false
	}
	return v.resolve(d) == nil
}

// absorb logs a failure that is degraded to a conservative answer.
func (d *Datatype) absorb(op string, err error, attrs ...any) {
	if errors.Is(err, ErrUnsupported) {
		return
	}
	args := append([]any{"op", op, "code", Code(err), "error", err}, attrs...)
	d.logger.Warn("custom datatype misbehaved", args...)
}

// call invokes fn, turning a panic or a plain error into a *ScriptError.
// Errors already classified by the implementation are kept as they are.
func call[T any](d *Datatype, op string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result, err = zero, &ScriptError{TypeURI: d.uri, Op: op, Err: panicError(r)}
		}
	}()
	result, err = fn()
	if err != nil && !classified(err) {
		err = &ScriptError{TypeURI: d.uri, Op: op, Err: err}
	}
	return result, err
}

func classified(err error) bool {
	return errors.Is(err, ErrRuntimeScript) ||
		errors.Is(err, ErrProtocolViolation) ||
		errors.Is(err, ErrUnsupported)
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
