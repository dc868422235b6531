package rdf

import (
	"fmt"
	"strings"
)

// XSDString is the datatype given to simple literals.
const XSDString = "http://www.w3.org/2001/XMLSchema#string"

// RDFLangString is the datatype of language-tagged literals.
const RDFLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"

// TermKind identifies RDF term types.
type TermKind uint8

const (
	// TermIRI represents an IRI term.
	TermIRI TermKind = iota
	// TermBlankNode represents a blank node term.
	TermBlankNode
	// TermLiteral represents a literal term.
	TermLiteral
)

// Term is a value that can appear in RDF statements.
type Term interface {
	Kind() TermKind
	String() string
}

// IRI represents an RDF IRI.
type IRI struct {
	// Value is the IRI string value.
	Value string
}

// Kind returns TermIRI.
func (i IRI) Kind() TermKind { return TermIRI }

// String returns the IRI value.
func (i IRI) String() string { return i.Value }

// BlankNode represents an RDF blank node.
type BlankNode struct {
	// ID is the blank node identifier.
	ID string
}

// Kind returns TermBlankNode.
func (b BlankNode) Kind() TermKind { return TermBlankNode }

// String returns the blank node identifier prefixed with "_:".
func (b BlankNode) String() string { return "_:" + strings.TrimPrefix(b.ID, "_:") }

// Literal is the host-facing literal: a lexical form tagged with a datatype IRI.
type Literal struct {
	// Lexical is the lexical form of the literal.
	Lexical string
	// Datatype is the datatype IRI, if any.
	Datatype IRI
	// Lang is the language tag, if any.
	Lang string
}

// NewTypedLiteral builds a literal with the given datatype IRI.
func NewTypedLiteral(lexical, datatype string) Literal {
	return Literal{Lexical: lexical, Datatype: IRI{Value: datatype}}
}

// Kind returns TermLiteral.
func (l Literal) Kind() TermKind { return TermLiteral }

// DatatypeURI returns the effective datatype IRI, applying the RDF 1.1
// defaults for simple and language-tagged literals.
func (l Literal) DatatypeURI() string {
	switch {
	case l.Lang != "":
		return RDFLangString
	case l.Datatype.Value == "":
		return XSDString
	default:
		return l.Datatype.Value
	}
}

// IsBuiltin reports whether the literal's datatype lives in the XSD or RDF
// namespaces and is therefore never resolved as a linked datatype.
func (l Literal) IsBuiltin() bool {
	dt := l.DatatypeURI()
	return strings.HasPrefix(dt, "http://www.w3.org/2001/XMLSchema#") ||
		strings.HasPrefix(dt, "http://www.w3.org/1999/02/22-rdf-syntax-ns#")
}

// String returns a string representation of the literal.
func (l Literal) String() string {
	if l.Lang != "" {
		return fmt.Sprintf("%q@%s", l.Lexical, l.Lang)
	}
	if l.Datatype.Value != "" {
		return fmt.Sprintf("%q^^<%s>", l.Lexical, l.Datatype.Value)
	}
	return fmt.Sprintf("%q", l.Lexical)
}

// Occurrence is a literal found in the object position of a statement.
type Occurrence struct {
	// Subject is the statement subject.
	Subject Term
	// Predicate is the statement predicate.
	Predicate IRI
	// Literal is the object literal.
	Literal Literal
	// Graph is the graph name, or nil for the default graph.
	Graph Term
}

// InDefaultGraph reports whether the occurrence is in the default graph.
func (o Occurrence) InDefaultGraph() bool {
	return o.Graph == nil
}

// String renders the occurrence as an N-Quads-like line.
func (o Occurrence) String() string {
	if o.Graph == nil {
		return fmt.Sprintf("%s <%s> %s", nquadsTerm(o.Subject), o.Predicate.Value, o.Literal.String())
	}
	return fmt.Sprintf("%s <%s> %s %s", nquadsTerm(o.Subject), o.Predicate.Value, o.Literal.String(), nquadsTerm(o.Graph))
}

func nquadsTerm(t Term) string {
	switch v := t.(type) {
	case nil:
		return "<nil>"
	case IRI:
		return "<" + v.Value + ">"
	default:
		return v.String()
	}
}
