package lindt

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	unitsResource = "http://example.org/units"
	lengthURI     = unitsResource + "#length"
	feetURI       = unitsResource + "#feet"
)

var (
	lengthPattern = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)\s*(mm|m|km|ft)$`)
	lengthUnits   = map[string]float64{"mm": 0.001, "m": 1, "km": 1000, "ft": 0.3048}
)

type meters float64

type feet int

// lengthImpl is a length in meters written with a unit suffix. It imports
// whole feet.
type lengthImpl struct{}

func (lengthImpl) IsLegal(lexical string) (bool, error) {
	return lengthPattern.MatchString(lexical), nil
}

func (lengthImpl) CreateValue(lexical string) (ValueImpl, error) {
	m := lengthPattern.FindStringSubmatch(lexical)
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, err
	}
	return meters(n * lengthUnits[m[2]]), nil
}

func (lengthImpl) Recognizes(typeURI string) (bool, error) { return typeURI == feetURI, nil }

func (lengthImpl) ImportValue(v ValueImpl) (ValueImpl, error) {
	if f, ok := v.(feet); ok {
		return meters(float64(f) * 0.3048), nil
	}
	return nil, nil
}

func (lengthImpl) Equal(a, b ValueImpl) (bool, error) {
	return math.Abs(float64(a.(meters))-float64(b.(meters))) < 1e-9, nil
}

func (lengthImpl) Compare(a, b ValueImpl) (int, error) {
	x, y := a.(meters), b.(meters)
	switch {
	case x < y:
		return -1, nil
	case x > y:
		return 1, nil
	}
	return 0, nil
}

func (lengthImpl) Canonical(v ValueImpl) (string, ValueImpl, error) {
	m := v.(meters)
	return strconv.FormatFloat(float64(m), 'f', -1, 64) + "m", m, nil
}

// feetImpl is a whole number of feet with no optional capabilities.
type feetImpl struct{}

func (feetImpl) IsLegal(lexical string) (bool, error) {
	n, err := strconv.Atoi(lexical)
	return err == nil && n >= 0, nil
}

func (feetImpl) CreateValue(lexical string) (ValueImpl, error) {
	n, err := strconv.Atoi(lexical)
	return feet(n), err
}

func (feetImpl) Recognizes(string) (bool, error) { return false, nil }

func (feetImpl) ImportValue(ValueImpl) (ValueImpl, error) { return nil, nil }

func (feetImpl) Equal(a, b ValueImpl) (bool, error) { return a.(feet) == b.(feet), nil }

// unitsFactory serves lengthURI and feetURI and counts GetType calls.
type unitsFactory struct {
	mu    sync.Mutex
	calls map[string]int
}

func newUnitsFactory() *unitsFactory {
	return &unitsFactory{calls: make(map[string]int)}
}

func (f *unitsFactory) GetType(typeURI string) (TypeImpl, error) {
	f.mu.Lock()
	f.calls[typeURI]++
	f.mu.Unlock()
	switch typeURI {
	case lengthURI:
		return lengthImpl{}, nil
	case feetURI:
		return feetImpl{}, nil
	}
	return nil, nil
}

func (f *unitsFactory) count(typeURI string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[typeURI]
}

// noFetch fails every fetch, so only registered factories resolve.
var noFetch = FetcherFunc(func(context.Context, string) ([]byte, error) {
	return nil, errors.New("network disabled")
})

func newUnitsEngine(t *testing.T, opts ...Option) (*Engine, *unitsFactory) {
	t.Helper()
	eng, err := New(append([]Option{WithFetcher(noFetch)}, opts...)...)
	require.NoError(t, err)
	factory := newUnitsFactory()
	eng.RegisterFactory(unitsResource, factory)
	return eng, factory
}

// probe is a configurable TypeImpl that records the capabilities invoked.
type probe struct {
	name       string
	recognizes map[string]bool
	importFn   func(ValueImpl) (ValueImpl, error)
	log        *callLog
}

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	l.calls = append(l.calls, call)
	l.mu.Unlock()
}

func (l *callLog) has(call string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.calls {
		if c == call {
			return true
		}
	}
	return false
}

// probeValue carries the number it was parsed from and its owner.
type probeValue struct {
	owner string
	n     int
}

func (p *probe) IsLegal(lexical string) (bool, error) {
	_, err := strconv.Atoi(lexical)
	return err == nil, nil
}

func (p *probe) CreateValue(lexical string) (ValueImpl, error) {
	n, err := strconv.Atoi(lexical)
	return probeValue{owner: p.name, n: n}, err
}

func (p *probe) Recognizes(typeURI string) (bool, error) {
	p.log.add(p.name + ".recognizes")
	return p.recognizes[typeURI], nil
}

func (p *probe) ImportValue(v ValueImpl) (ValueImpl, error) {
	p.log.add(p.name + ".import")
	if p.importFn != nil {
		return p.importFn(v)
	}
	pv, ok := v.(probeValue)
	if !ok {
		return nil, nil
	}
	return probeValue{owner: p.name, n: pv.n}, nil
}

func (p *probe) Equal(a, b ValueImpl) (bool, error) {
	p.log.add(p.name + ".equal")
	x, y := a.(probeValue), b.(probeValue)
	return x.owner == y.owner && x.n == y.n, nil
}

// exportingProbe adds the Exporter capability to a probe.
type exportingProbe struct {
	*probe
}

func (p exportingProbe) ExportValue(v ValueImpl, targetURI string) (ValueImpl, error) {
	p.log.add(p.name + ".export")
	pv := v.(probeValue)
	return probeValue{owner: targetURI, n: pv.n}, nil
}
