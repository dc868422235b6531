package rdf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	ld "github.com/piprate/json-gold/ld"
)

const defaultGraphName = "@default"

// Handler receives literal occurrences in push mode.
type Handler func(Occurrence) error

// Option configures literal extraction.
type Option func(*Options)

// Options configures literal extraction.
type Options struct {
	// MaxInputBytes limits the size of the input. Zero means unlimited.
	MaxInputBytes int64
	// BaseIRI resolves relative IRIs in JSON-LD input.
	BaseIRI string
	// DocumentLoader resolves remote JSON-LD contexts. Nil uses json-gold's default loader.
	DocumentLoader ld.DocumentLoader
}

// OptMaxInputBytes sets the maximum input size.
func OptMaxInputBytes(maxBytes int64) Option {
	return func(opts *Options) {
		opts.MaxInputBytes = maxBytes
	}
}

// OptBaseIRI sets the base IRI for JSON-LD input.
func OptBaseIRI(base string) Option {
	return func(opts *Options) {
		opts.BaseIRI = base
	}
}

// OptDocumentLoader sets the JSON-LD remote context loader.
func OptDocumentLoader(loader ld.DocumentLoader) Option {
	return func(opts *Options) {
		opts.DocumentLoader = loader
	}
}

// ParseLiterals reads an RDF document and streams every literal in object
// position to handler. Graphs are visited in name order, default graph first.
// If ctx is nil, context.Background() is used.
func ParseLiterals(ctx context.Context, r io.Reader, format Format, handler Handler, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var options Options
	for _, opt := range opts {
		opt(&options)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	input, err := readInput(r, options.MaxInputBytes)
	if err != nil {
		return err
	}

	var dataset *ld.RDFDataset
	switch format {
	case FormatNTriples, FormatNQuads:
		dataset, err = (&ld.NQuadRDFSerializer{}).Parse(string(input))
	case FormatJSONLD:
		dataset, err = jsonLDDataset(input, options)
	default:
		return ErrUnsupportedFormat
	}
	if err != nil {
		return wrapParseError(format, string(input), err)
	}
	if dataset == nil {
		return nil
	}

	names := make([]string, 0, len(dataset.Graphs))
	for name := range dataset.Graphs {
		if name != defaultGraphName {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	names = append([]string{defaultGraphName}, names...)

	for _, name := range names {
		var graph Term
		if name != defaultGraphName {
			graph = termFromGoldName(name)
		}
		for _, quad := range dataset.Graphs[name] {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if quad == nil {
				continue
			}
			lit, ok := goldLiteral(quad.Object)
			if !ok {
				continue
			}
			occ := Occurrence{
				Subject:   termFromGold(quad.Subject),
				Predicate: IRI{Value: quad.Predicate.GetValue()},
				Literal:   lit,
				Graph:     graph,
			}
			if err := handler(occ); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadLiterals collects every literal occurrence of an RDF document.
func ReadLiterals(ctx context.Context, r io.Reader, format Format, opts ...Option) ([]Occurrence, error) {
	var out []Occurrence
	err := ParseLiterals(ctx, r, format, func(o Occurrence) error {
		out = append(out, o)
		return nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func readInput(r io.Reader, limit int64) ([]byte, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, ErrInputTooLarge
	}
	return data, nil
}

func jsonLDDataset(input []byte, options Options) (*ld.RDFDataset, error) {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("jsonld: invalid JSON: %w", err)
	}

	goldOpts := ld.NewJsonLdOptions(options.BaseIRI)
	if options.DocumentLoader != nil {
		goldOpts.DocumentLoader = options.DocumentLoader
	}
	result, err := ld.NewJsonLdProcessor().ToRDF(doc, goldOpts)
	if err != nil {
		return nil, err
	}
	dataset, ok := result.(*ld.RDFDataset)
	if !ok {
		return nil, fmt.Errorf("jsonld: unexpected ToRDF result %T", result)
	}
	return dataset, nil
}

func termFromGold(node ld.Node) Term {
	switch n := node.(type) {
	case ld.IRI:
		return IRI{Value: n.Value}
	case *ld.IRI:
		return IRI{Value: n.Value}
	case ld.BlankNode:
		return BlankNode{ID: strings.TrimPrefix(n.Attribute, "_:")}
	case *ld.BlankNode:
		return BlankNode{ID: strings.TrimPrefix(n.Attribute, "_:")}
	case ld.Literal, *ld.Literal:
		lit, _ := goldLiteral(n)
		return lit
	case nil:
		return nil
	default:
		return termFromGoldName(node.GetValue())
	}
}

func termFromGoldName(name string) Term {
	if id, ok := strings.CutPrefix(name, "_:"); ok && id != "" {
		return BlankNode{ID: id}
	}
	return IRI{Value: name}
}

// goldLiteral converts a json-gold literal node, which the serializers
// produce both by value and by pointer.
func goldLiteral(node ld.Node) (Literal, bool) {
	var lit ld.Literal
	switch n := node.(type) {
	case ld.Literal:
		lit = n
	case *ld.Literal:
		if n == nil {
			return Literal{}, false
		}
		lit = *n
	default:
		return Literal{}, false
	}
	out := Literal{Lexical: lit.Value, Lang: lit.Language}
	if lit.Language == "" {
		out.Datatype = IRI{Value: lit.Datatype}
	}
	return out, true
}
