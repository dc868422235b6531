package lindt

import (
	"context"
	"log/slog"
)

// Bridge compares literals whose datatypes may differ. Two datatypes meet
// in a common representation found in a fixed order: same datatype, then
// the first datatype importing the second value, then the second value's
// datatype receiving the first value by export. Recognition need not be
// symmetric, so both directions are tried and the first one that yields a
// common representation decides.
type Bridge struct {
	registry *Registry
	metrics  *Metrics
	logger   *slog.Logger
}

func newBridge(registry *Registry, opts Options, metrics *Metrics) *Bridge {
	return &Bridge{
		registry: registry,
		metrics:  metrics,
		logger:   opts.Logger.With("component", "bridge"),
	}
}

// common is a pair of representations living in the space of datatype.
type common struct {
	datatype    *Datatype
	left, right ValueImpl
	path        string
}

// Equal reports whether (lex1, uri1) and (lex2, uri2) denote equal values.
// Unrelated, unresolvable, or illegal literals are never equal.
func (b *Bridge) Equal(ctx context.Context, lex1, uri1, lex2, uri2 string) bool {
	c, ok := b.meet(ctx, lex1, uri1, lex2, uri2)
	b.metrics.decision(c.path)
	if !ok {
		return false
	}
	return c.datatype.equalReps(c.left, c.right)
}

// Compare orders (lex1, uri1) against (lex2, uri2). The second result is
// false when the literals are not comparable, including when the datatype
// that decides has no ordering.
func (b *Bridge) Compare(ctx context.Context, lex1, uri1, lex2, uri2 string) (int, bool) {
	c, ok := b.meet(ctx, lex1, uri1, lex2, uri2)
	b.metrics.decision(c.path)
	if !ok {
		return 0, false
	}
	return c.datatype.compareReps(c.left, c.right)
}

// Convertible reports whether (lexical, fromURI) can be expressed as a value
// of toURI, either by toURI importing it or by fromURI exporting it.
// Both directions require toURI to recognize fromURI.
func (b *Bridge) Convertible(ctx context.Context, lexical, fromURI, toURI string) bool {
	to, err := b.registry.Resolve(ctx, toURI)
	if err != nil {
		return false
	}
	if fromURI == toURI {
		return to.IsValid(lexical)
	}
	from, err := b.registry.Resolve(ctx, fromURI)
	if err != nil {
		return false
	}
	v, err := from.Parse(lexical)
	if err != nil {
		return false
	}
	if !to.Recognizes(fromURI) {
		return false
	}
	if _, ok := to.Import(v); ok {
		return true
	}
	_, ok := from.Export(v, to)
	return ok
}

// meet finds a common representation for the two literals.
func (b *Bridge) meet(ctx context.Context, lex1, uri1, lex2, uri2 string) (common, bool) {
	none := common{path: pathNone}

	if uri1 == uri2 {
		dt, err := b.registry.Resolve(ctx, uri1)
		if err != nil {
			return none, false
		}
		v1, err1 := dt.Parse(lex1)
		v2, err2 := dt.Parse(lex2)
		if err1 != nil || err2 != nil {
			return none, false
		}
		return common{datatype: dt, left: v1.rep, right: v2.rep, path: pathSame}, true
	}

	dt1, err := b.registry.Resolve(ctx, uri1)
	if err != nil {
		return none, false
	}
	dt2, err := b.registry.Resolve(ctx, uri2)
	if err != nil {
		return none, false
	}
	v2, err := dt2.Parse(lex2)
	if err != nil {
		return none, false
	}

	if dt1.Recognizes(uri2) {
		if imported, ok := dt1.Import(v2); ok {
			v1, err := dt1.Parse(lex1)
			if err != nil {
				return common{path: pathImport}, false
			}
			return common{datatype: dt1, left: v1.rep, right: imported, path: pathImport}, true
		}
	}

	if dt2.Recognizes(uri1) {
		v1, err := dt1.Parse(lex1)
		if err != nil {
			return none, false
		}
		if exported, ok := dt1.Export(v1, dt2); ok {
			return common{datatype: dt2, left: exported, right: v2.rep, path: pathExport}, true
		}
	}

	b.logger.Debug("no common representation", "type_uri_1", uri1, "type_uri_2", uri2)
	return none, false
}
