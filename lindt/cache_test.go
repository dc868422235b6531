package lindt

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestValue(lexical string) func() *TypedValue {
	return func() *TypedValue { return newTypedValue(lexical, lengthURI) }
}

func TestValueCache_EvictsInInsertionOrder(t *testing.T) {
	c := NewValueCache(3)
	a := c.GetOrCreate("a", newTestValue("a"))
	c.GetOrCreate("b", newTestValue("b"))
	c.GetOrCreate("c", newTestValue("c"))

	// Reading "a" does not protect it.
	for i := 0; i < 10; i++ {
		got, ok := c.Get("a")
		require.True(t, ok)
		require.Same(t, a, got)
	}

	c.GetOrCreate("d", newTestValue("d"))
	assert.False(t, c.Contains("a"), "oldest insertion must be evicted first")
	assert.Equal(t, []string{"b", "c", "d"}, c.Keys())

	c.GetOrCreate("e", newTestValue("e"))
	assert.Equal(t, []string{"c", "d", "e"}, c.Keys())

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Evictions)
	assert.Equal(t, uint64(5), stats.Misses)
	assert.Equal(t, uint64(10), stats.Hits)
	assert.Equal(t, 3, stats.Size)
	assert.Equal(t, 3, stats.Capacity)
}

func TestValueCache_Identity(t *testing.T) {
	c := NewValueCache(10)
	first := c.GetOrCreate("1m", newTestValue("1m"))
	second := c.GetOrCreate("1m", func() *TypedValue {
		t.Fatal("create must not run for a cached key")
		return nil
	})
	assert.Same(t, first, second)

	// After eviction a fresh value is created.
	small := NewValueCache(1)
	v1 := small.GetOrCreate("x", newTestValue("x"))
	small.GetOrCreate("y", newTestValue("y"))
	v2 := small.GetOrCreate("x", newTestValue("x"))
	assert.NotSame(t, v1, v2)
}

func TestValueCache_DefaultCapacityAndClear(t *testing.T) {
	c := NewValueCache(0)
	assert.Equal(t, DefaultCacheCapacity, c.Capacity())

	c.GetOrCreate("a", newTestValue("a"))
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Keys())
	assert.Equal(t, uint64(1), c.Stats().Misses)

	c.GetOrCreate("b", newTestValue("b"))
	assert.Equal(t, []string{"b"}, c.Keys())
}

func TestValueCache_Concurrent(t *testing.T) {
	c := NewValueCache(64)
	var wg sync.WaitGroup
	results := make([]*TypedValue, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.GetOrCreate("shared", newTestValue("shared"))
			c.GetOrCreate(strconv.Itoa(i), newTestValue(strconv.Itoa(i)))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 33, c.Len())
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}

func TestHitRatio(t *testing.T) {
	assert.Equal(t, 0.0, CacheStats{}.HitRatio())
	assert.InDelta(t, 0.75, CacheStats{Hits: 3, Misses: 1}.HitRatio(), 1e-9)
}

// TestValueCache_FIFOProperty checks the cache against a FIFO model.
func TestValueCache_FIFOProperty(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		capacity := rapid.IntRange(1, 6).Draw(r, "capacity")
		keys := rapid.SliceOf(rapid.StringMatching(`[a-h]`)).Draw(r, "keys")

		c := NewValueCache(capacity)
		var model []string
		for _, k := range keys {
			c.GetOrCreate(k, newTestValue(k))

			present := false
			for _, m := range model {
				if m == k {
					present = true
					break
				}
			}
			if !present {
				model = append(model, k)
				if len(model) > capacity {
					model = model[1:]
				}
			}

			if c.Len() > capacity {
				r.Fatalf("size %d exceeds capacity %d", c.Len(), capacity)
			}
		}

		got := c.Keys()
		if len(got) != len(model) {
			r.Fatalf("keys %v, model %v", got, model)
		}
		for i := range model {
			if got[i] != model[i] {
				r.Fatalf("keys %v, model %v", got, model)
			}
		}
	})
}
