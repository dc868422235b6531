// Package rdf provides the literal model shared by linked datatype hosts and
// a streaming reader for the literals of RDF documents.
//
// Copyright 2026 Geoknoesis LLC (www.geoknoesis.com)
//
// Author: Stephane Fellah (stephanef@geoknoesis.com)
// Geosemantic-AI expert with 30 years of experience
//
// A Literal is a lexical form tagged with a datatype IRI (or a language
// tag). Hosts hand literals to a linked datatype engine, which decides
// their validity, equality and canonical form.
//
// ParseLiterals streams every literal found in object position:
//
//	err := rdf.ParseLiterals(ctx, r, rdf.FormatNQuads, func(o rdf.Occurrence) error {
//	    // process o.Literal
//	    return nil
//	})
//
// Supported formats:
//   - N-Triples and N-Quads
//   - JSON-LD (expanded to RDF, remote contexts resolved by a json-gold DocumentLoader)
//
// Errors carry an ErrorCode obtainable with Code. Inputs larger than
// OptMaxInputBytes are rejected with ErrInputTooLarge before parsing.
package rdf
