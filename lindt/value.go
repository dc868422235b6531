package lindt

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/geoknoesis/lindt-go/rdf"
)

// Legality is the lazily computed validity of a TypedValue.
type Legality uint32

const (
	// LegalityUnknown means the lexical form has not been checked yet.
	LegalityUnknown Legality = iota
	// Legal means the lexical form parsed successfully.
	Legal
	// Illegal means the lexical form was rejected.
	Illegal
)

func (l Legality) String() string {
	switch l {
	case LegalityUnknown:
		return "unknown"
	case Legal:
		return "legal"
	case Illegal:
		return "illegal"
	default:
		return "invalid"
	}
}

var errIllegalLexical = errors.New("rejected by isLegal")

// TypedValue is a lexical form tagged with a linked datatype. Its legality
// and representation are computed at most once and never change afterwards.
type TypedValue struct {
	lexical string
	typeURI string

	once     sync.Once
	legality atomic.Uint32
	rep      ValueImpl
	err      error
}

func newTypedValue(lexical, typeURI string) *TypedValue {
	return &TypedValue{lexical: lexical, typeURI: typeURI}
}

// newResolvedValue builds a value whose representation is already known,
// such as the result of canonicalization.
func newResolvedValue(lexical, typeURI string, rep ValueImpl) *TypedValue {
	v := newTypedValue(lexical, typeURI)
	v.once.Do(func() {
		v.rep = rep
		v.legality.Store(uint32(Legal))
	})
	return v
}

// LexicalForm returns the lexical form.
func (v *TypedValue) LexicalForm() string { return v.lexical }

// TypeURI returns the datatype URI.
func (v *TypedValue) TypeURI() string { return v.typeURI }

// Legality returns the current legality without computing it.
func (v *TypedValue) Legality() Legality { return Legality(v.legality.Load()) }

// Literal returns the host-facing literal for the value.
func (v *TypedValue) Literal() rdf.Literal { return rdf.NewTypedLiteral(v.lexical, v.typeURI) }

// String returns the literal in N-Triples notation.
func (v *TypedValue) String() string { return v.Literal().String() }

// resolve computes legality and representation under d on first use.
func (v *TypedValue) resolve(d *Datatype) error {
	v.once.Do(func() {
		if !d.IsValid(v.lexical) {
			v.err = &DatatypeFormatError{Lexical: v.lexical, TypeURI: v.typeURI, Err: errIllegalLexical}
			v.legality.Store(uint32(Illegal))
			return
		}
		rep, err := d.createValue(v.lexical)
		if err != nil {
			v.err = &DatatypeFormatError{Lexical: v.lexical, TypeURI: v.typeURI, Err: err}
			v.legality.Store(uint32(Illegal))
			return
		}
		v.rep = rep
		v.legality.Store(uint32(Legal))
	})
	return v.err
}
