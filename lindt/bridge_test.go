package lindt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	probeResource = "http://example.org/probes"
	probeA        = probeResource + "#a"
	probeB        = probeResource + "#b"
)

// newProbeEngine registers impls under probeResource, keyed by type URI.
func newProbeEngine(t *testing.T, impls map[string]TypeImpl) *Engine {
	t.Helper()
	eng, err := New(WithFetcher(noFetch))
	require.NoError(t, err)
	eng.RegisterFactory(probeResource, FactoryFunc(func(uri string) (TypeImpl, error) {
		return impls[uri], nil
	}))
	return eng
}

func TestBridge_SameType(t *testing.T) {
	eng, _ := newUnitsEngine(t)
	ctx := context.Background()

	assert.True(t, eng.Equal(ctx, "1km", lengthURI, "1000m", lengthURI))
	assert.False(t, eng.Equal(ctx, "1km", lengthURI, "1001m", lengthURI))
	assert.False(t, eng.Equal(ctx, "1 banana", lengthURI, "1 banana", lengthURI))

	c, ok := eng.Compare(ctx, "1km", lengthURI, "1001m", lengthURI)
	require.True(t, ok)
	assert.Equal(t, -1, c)
	c, ok = eng.Compare(ctx, "1000m", lengthURI, "1km", lengthURI)
	require.True(t, ok)
	assert.Equal(t, 0, c)

	_, ok = eng.Compare(ctx, "1", feetURI, "2", feetURI)
	assert.False(t, ok, "feet are not ordered")
}

func TestBridge_ImportThenExport(t *testing.T) {
	eng, _ := newUnitsEngine(t)
	ctx := context.Background()

	// length recognizes feet: import.
	assert.True(t, eng.Equal(ctx, "0.3048m", lengthURI, "1", feetURI))
	// feet does not recognize length: length receives feet by export.
	assert.True(t, eng.Equal(ctx, "1", feetURI, "0.3048m", lengthURI))
	assert.False(t, eng.Equal(ctx, "2", feetURI, "0.3048m", lengthURI))

	c, ok := eng.Compare(ctx, "1", feetURI, "1m", lengthURI)
	require.True(t, ok)
	assert.Equal(t, -1, c)

	assert.False(t, eng.Equal(ctx, "1m", lengthURI, "oops", feetURI))
	assert.False(t, eng.Equal(ctx, "1m", lengthURI, "1m", unitsResource+"#unknown"))
}

func TestBridge_ImportIsTriedBeforeExport(t *testing.T) {
	log := &callLog{}
	a := &probe{name: probeA, recognizes: map[string]bool{probeB: true}, log: log}
	b := exportingProbe{&probe{name: probeB, recognizes: map[string]bool{probeA: true}, log: log}}
	eng := newProbeEngine(t, map[string]TypeImpl{probeA: a, probeB: b})

	assert.True(t, eng.Equal(context.Background(), "7", probeA, "7", probeB))
	assert.True(t, log.has(probeA+".import"))
	assert.False(t, log.has(probeB+".recognizes"), "export path must not be consulted")
	assert.False(t, log.has(probeA+".export"))
	assert.True(t, log.has(probeA+".equal"))
}

func TestBridge_RecognitionIsAsymmetric(t *testing.T) {
	log := &callLog{}
	// a does not recognize b; b recognizes a and a can export.
	a := exportingProbe{&probe{name: probeA, recognizes: map[string]bool{}, log: log}}
	b := &probe{name: probeB, recognizes: map[string]bool{probeA: true}, log: log}
	eng := newProbeEngine(t, map[string]TypeImpl{probeA: a, probeB: b})
	ctx := context.Background()

	assert.True(t, eng.Equal(ctx, "7", probeA, "7", probeB))
	assert.True(t, log.has(probeA+".export"))
	assert.False(t, log.has(probeA+".import"))
	assert.True(t, log.has(probeB+".equal"))

	assert.True(t, eng.Convertible(ctx, "7", probeA, probeB))
	assert.False(t, eng.Convertible(ctx, "7", probeB, probeA))
	assert.True(t, eng.Convertible(ctx, "7", probeA, probeA))
	assert.False(t, eng.Convertible(ctx, "x", probeA, probeA))
}

func TestBridge_FailedImportFallsBackToExport(t *testing.T) {
	log := &callLog{}
	a := &probe{name: probeA, recognizes: map[string]bool{probeB: true}, log: log,
		importFn: func(ValueImpl) (ValueImpl, error) { return nil, nil }}
	b := &probe{name: probeB, recognizes: map[string]bool{probeA: true}, log: log}
	eng := newProbeEngine(t, map[string]TypeImpl{probeA: a, probeB: b})

	assert.True(t, eng.Equal(context.Background(), "3", probeA, "3", probeB))
	assert.True(t, log.has(probeA+".import"))
	assert.True(t, log.has(probeB+".import"), "without an Exporter the target imports")
	assert.True(t, log.has(probeB+".equal"))
}

func TestBridge_Unrelated(t *testing.T) {
	log := &callLog{}
	a := &probe{name: probeA, log: log}
	b := &probe{name: probeB, log: log}
	eng := newProbeEngine(t, map[string]TypeImpl{probeA: a, probeB: b})
	ctx := context.Background()

	assert.False(t, eng.Equal(ctx, "1", probeA, "1", probeB))
	_, ok := eng.Compare(ctx, "1", probeA, "1", probeB)
	assert.False(t, ok)
	assert.False(t, log.has(probeA+".equal"))
	assert.False(t, log.has(probeB+".equal"))
}
