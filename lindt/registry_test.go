package lindt

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceURL(t *testing.T) {
	assert.Equal(t, unitsResource, ResourceURL(lengthURI))
	assert.Equal(t, unitsResource, ResourceURL(unitsResource))
	assert.Equal(t, "http://example.org/a.js?v=2", ResourceURL("http://example.org/a.js?v=2#t"))
}

func TestRegistry_ResolveMemoizes(t *testing.T) {
	eng, factory := newUnitsEngine(t)
	ctx := context.Background()

	dt1, err := eng.Resolve(ctx, lengthURI)
	require.NoError(t, err)
	dt2, err := eng.Resolve(ctx, lengthURI)
	require.NoError(t, err)
	assert.Same(t, dt1, dt2)
	assert.Equal(t, lengthURI, dt1.URI())

	ft, err := eng.Resolve(ctx, feetURI)
	require.NoError(t, err)
	assert.NotSame(t, dt1, ft)
	assert.NotSame(t, dt1.Cache(), ft.Cache())

	assert.Equal(t, 1, factory.count(lengthURI))
	assert.Equal(t, 1, factory.count(feetURI))
}

func TestRegistry_NegativeResultsAreMemoized(t *testing.T) {
	eng, factory := newUnitsEngine(t)
	ctx := context.Background()
	unknown := unitsResource + "#mass"

	for i := 0; i < 3; i++ {
		_, err := eng.Resolve(ctx, unknown)
		require.ErrorIs(t, err, ErrUnknownDatatype)
		assert.Equal(t, ErrCodeUnknownDatatype, Code(err))
	}
	assert.Equal(t, 1, factory.count(unknown))

	_, resolved := eng.registry.Lookup(unknown)
	assert.True(t, resolved)
	assert.False(t, eng.IsValid(ctx, "1kg", unknown))
}

func TestRegistry_CoalescesConcurrentResolutions(t *testing.T) {
	eng, factory := newUnitsEngine(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.Resolve(ctx, lengthURI)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, factory.count(lengthURI))
}

func TestRegistry_InvalidTypeURI(t *testing.T) {
	fetcher := &countingFetcher{}
	eng, err := New(WithFetcher(fetcher), WithEvaluator(unitsEvaluator))
	require.NoError(t, err)

	for _, uri := range []string{"", "length", "units.js#length", "http://example.org/a b#t"} {
		_, err := eng.Resolve(context.Background(), uri)
		assert.ErrorIs(t, err, ErrInvalidTypeURI, "uri %q", uri)
		assert.Equal(t, ErrCodeInvalidTypeURI, Code(err))
	}
	assert.Equal(t, int64(0), fetcher.calls.Load())
}

func TestRegistry_FactoryMisbehavior(t *testing.T) {
	tests := []struct {
		name    string
		factory Factory
		want    error
	}{
		{
			name: "plain error",
			factory: FactoryFunc(func(string) (TypeImpl, error) {
				return nil, errors.New("bad uri")
			}),
			want: ErrProtocolViolation,
		},
		{
			name: "panic",
			factory: FactoryFunc(func(string) (TypeImpl, error) {
				panic("factory crashed")
			}),
			want: ErrRuntimeScript,
		},
		{
			name: "script error is kept",
			factory: FactoryFunc(func(uri string) (TypeImpl, error) {
				return nil, &ScriptError{TypeURI: uri, Op: "getType", Err: errors.New("thrown")}
			}),
			want: ErrRuntimeScript,
		},
		{
			name: "typed nil",
			factory: FactoryFunc(func(string) (TypeImpl, error) {
				var impl *countingLength
				return impl, nil
			}),
			want: ErrUnknownDatatype,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, err := New(WithFetcher(noFetch))
			require.NoError(t, err)
			eng.RegisterFactory(unitsResource, tt.factory)

			_, err = eng.Resolve(context.Background(), lengthURI)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, eng.IsValid(context.Background(), "1m", lengthURI))
		})
	}
}

func TestRegistry_UnavailableResource(t *testing.T) {
	eng, err := New(WithFetcher(noFetch), WithEvaluator(unitsEvaluator))
	require.NoError(t, err)
	ctx := context.Background()
	uri := "http://unreachable.example/types.js#t"

	_, err = eng.Resolve(ctx, uri)
	require.ErrorIs(t, err, ErrResourceUnavailable)

	_, err = eng.Parse(ctx, "x", uri)
	assert.ErrorIs(t, err, ErrResourceUnavailable)
	assert.NotErrorIs(t, err, ErrDatatypeFormat)

	_, ok := eng.Datatype(ctx, uri)
	assert.False(t, ok)
	assert.True(t, eng.Loaded("http://unreachable.example/types.js"))
}

func TestRegistry_CancellationIsNotMemoized(t *testing.T) {
	fetcher := &countingFetcher{fn: func(ctx context.Context, _ string) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []byte("ok"), nil
	}}
	eng, err := New(WithFetcher(fetcher), WithEvaluator(unitsEvaluator))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eng.Resolve(ctx, lengthURI)
	require.ErrorIs(t, err, context.Canceled)
	_, resolved := eng.registry.Lookup(lengthURI)
	assert.False(t, resolved)

	dt, err := eng.Resolve(context.Background(), lengthURI)
	require.NoError(t, err)
	assert.Equal(t, lengthURI, dt.URI())
}

func TestRegistry_WaiterSurvivesLeaderCancellation(t *testing.T) {
	entered := make(chan struct{})
	var first atomic.Bool
	fetcher := &countingFetcher{fn: func(ctx context.Context, _ string) ([]byte, error) {
		if first.CompareAndSwap(false, true) {
			close(entered)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []byte("ok"), nil
	}}
	eng, err := New(WithFetcher(fetcher), WithEvaluator(unitsEvaluator))
	require.NoError(t, err)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := eng.Resolve(leaderCtx, lengthURI)
		leaderErr <- err
	}()
	<-entered

	type outcome struct {
		dt  *Datatype
		err error
	}
	waiter := make(chan outcome, 1)
	go func() {
		dt, err := eng.Resolve(context.Background(), lengthURI)
		waiter <- outcome{dt, err}
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	require.ErrorIs(t, <-leaderErr, context.Canceled)
	got := <-waiter
	require.NoError(t, got.err)
	assert.Equal(t, lengthURI, got.dt.URI())
	assert.Equal(t, int64(2), fetcher.calls.Load())
}

func TestRegistry_WaiterHonorsOwnDeadline(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	fetcher := &countingFetcher{fn: func(context.Context, string) ([]byte, error) {
		close(entered)
		<-release
		return []byte("ok"), nil
	}}
	eng, err := New(WithFetcher(fetcher), WithEvaluator(unitsEvaluator))
	require.NoError(t, err)

	leaderErr := make(chan error, 1)
	go func() {
		_, err := eng.Resolve(context.Background(), lengthURI)
		leaderErr <- err
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = eng.Resolve(ctx, lengthURI)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-leaderErr)
	dt, resolved := eng.registry.Lookup(lengthURI)
	assert.True(t, resolved)
	assert.NotNil(t, dt)
}
