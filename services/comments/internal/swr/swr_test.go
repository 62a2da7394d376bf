package swr

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

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func counting(calls *atomic.Int32, value func(n int32) string) ComputeFunc[string] {
	return func(context.Context) (string, error) {
		n := calls.Add(1)
		return value(n), nil
	}
}

func version(n int32) string { return "v" + string(rune('0'+n)) }

func TestGet_MissThenHit(t *testing.T) {
	clk := newClock()
	c := New[string](Options{TTL: time.Minute, Now: clk.Now})
	var calls atomic.Int32
	ctx := context.Background()

	v, err := c.Get(ctx, "k", counting(&calls, version))
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	clk.Advance(30 * time.Second)
	v, err = c.Get(ctx, "k", counting(&calls, version))
	require.NoError(t, err)
	assert.Equal(t, "v1", v)
	assert.EqualValues(t, 1, calls.Load(), "fresh hit must not recompute")
}

func TestGet_StaleServedThenRefreshed(t *testing.T) {
	clk := newClock()
	c := New[string](Options{TTL: time.Minute, Now: clk.Now})
	ctx := context.Background()
	c.Set("k", "old")
	clk.Advance(2 * time.Minute)

	release := make(chan struct{})
	var calls atomic.Int32
	slow := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "new", nil
	}

	start := time.Now()
	v, err := c.Get(ctx, "k", slow)
	require.NoError(t, err)
	assert.Equal(t, "old", v)
	assert.Less(t, time.Since(start), time.Second, "stale read must not wait for refresh")

	// A second stale read while the refresh runs does not start another.
	v, _ = c.Get(ctx, "k", slow)
	assert.Equal(t, "old", v)

	close(release)
	require.Eventually(t, func() bool {
		got, ok := c.Peek("k")
		return ok && got == "new"
	}, 2*time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())

	v, _ = c.Get(ctx, "k", slow)
	assert.Equal(t, "new", v)
}

func TestGet_RefreshSurvivesCallerCancel(t *testing.T) {
	clk := newClock()
	c := New[string](Options{TTL: time.Second, Now: clk.Now})
	c.Set("k", "old")
	clk.Advance(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	v, err := c.Get(ctx, "k", func(rctx context.Context) (string, error) {
		cancel()
		if rctx.Err() != nil {
			return "", rctx.Err()
		}
		return "new", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "old", v)
	require.Eventually(t, func() bool {
		got, _ := c.Peek("k")
		return got == "new"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestGet_InvalidateDiscardsInFlightRefresh(t *testing.T) {
	clk := newClock()
	c := New[string](Options{TTL: time.Minute, Now: clk.Now})
	c.Set("k", "old")
	clk.Advance(2 * time.Minute)

	release := make(chan struct{})
	_, err := c.Get(context.Background(), "k", func(context.Context) (string, error) {
		<-release
		return "computed-before-invalidate", nil
	})
	require.NoError(t, err)

	c.Invalidate("k")
	close(release)
	require.Eventually(t, func() bool {
		_, busy := c.refreshing.Load("k")
		return !busy
	}, 2*time.Second, 5*time.Millisecond)

	_, ok := c.Peek("k")
	assert.False(t, ok, "refresh started before invalidation must not repopulate")
}

func TestGet_StaleAtExactlyTTL(t *testing.T) {
	clk := newClock()
	c := New[string](Options{TTL: time.Minute, Now: clk.Now})
	c.Set("k", "old")
	clk.Advance(time.Minute)

	var calls atomic.Int32
	v, err := c.Get(context.Background(), "k", counting(&calls, func(int32) string { return "new" }))
	require.NoError(t, err)
	assert.Equal(t, "old", v)
	require.Eventually(t, func() bool {
		got, _ := c.Peek("k")
		return got == "new"
	}, 2*time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, calls.Load(), "entry aged exactly TTL must refresh once")
}

func TestGet_WriteToOtherKeyKeepsInFlightRefresh(t *testing.T) {
	clk := newClock()
	c := New[string](Options{TTL: time.Minute, Now: clk.Now})
	c.Set("a", "old")
	clk.Advance(2 * time.Minute)

	release := make(chan struct{})
	_, err := c.Get(context.Background(), "a", func(context.Context) (string, error) {
		<-release
		return "new", nil
	})
	require.NoError(t, err)

	c.Set("b", "x")
	c.Invalidate("c")
	close(release)
	require.Eventually(t, func() bool {
		got, _ := c.Peek("a")
		return got == "new"
	}, 2*time.Second, 5*time.Millisecond)

	got, ok := c.Peek("b")
	require.True(t, ok)
	assert.Equal(t, "x", got)
}

func TestGet_PurgeDiscardsInFlightRefresh(t *testing.T) {
	clk := newClock()
	c := New[string](Options{TTL: time.Minute, Now: clk.Now})
	c.Set("k", "old")
	clk.Advance(2 * time.Minute)

	release := make(chan struct{})
	_, err := c.Get(context.Background(), "k", func(context.Context) (string, error) {
		<-release
		return "computed-before-purge", nil
	})
	require.NoError(t, err)

	c.Purge()
	close(release)
	require.Eventually(t, func() bool {
		_, busy := c.refreshing.Load("k")
		return !busy
	}, 2*time.Second, 5*time.Millisecond)

	_, ok := c.Peek("k")
	assert.False(t, ok)
}

func TestGet_ConcurrentMissesCoalesce(t *testing.T) {
	c := New[string](Options{})
	var calls atomic.Int32
	gate := make(chan struct{})
	compute := func(context.Context) (string, error) {
		calls.Add(1)
		<-gate
		return "value", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get(context.Background(), "k", compute)
			if err == nil {
				results[i] = v
			}
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, v := range results {
		assert.Equal(t, "value", v)
	}
}

func TestGet_MissErrorNotCached(t *testing.T) {
	c := New[string](Options{})
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := c.Get(ctx, "k", func(context.Context) (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)
	_, ok := c.Peek("k")
	assert.False(t, ok)

	v, err := c.Get(ctx, "k", func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestGet_FailedRefreshKeepsStale(t *testing.T) {
	clk := newClock()
	c := New[string](Options{TTL: time.Second, Now: clk.Now})
	c.Set("k", "old")
	clk.Advance(time.Minute)

	var calls atomic.Int32
	v, err := c.Get(context.Background(), "k", func(context.Context) (string, error) {
		calls.Add(1)
		return "", errors.New("upstream down")
	})
	require.NoError(t, err)
	assert.Equal(t, "old", v)
	require.Eventually(t, func() bool {
		_, busy := c.refreshing.Load("k")
		return calls.Load() == 1 && !busy
	}, 2*time.Second, 5*time.Millisecond)

	got, ok := c.Peek("k")
	assert.True(t, ok)
	assert.Equal(t, "old", got)
}

func TestSet_ResetsAge(t *testing.T) {
	clk := newClock()
	c := New[string](Options{TTL: time.Minute, Now: clk.Now})
	c.Set("k", "a")
	clk.Advance(50 * time.Second)
	c.Set("k", "b")
	clk.Advance(50 * time.Second)

	var calls atomic.Int32
	v, err := c.Get(context.Background(), "k", counting(&calls, version))
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	assert.Zero(t, calls.Load())
}

func TestLRUEviction(t *testing.T) {
	c := New[int](Options{MaxSize: 2})
	ctx := context.Background()
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get(ctx, "a", func(context.Context) (int, error) { return 0, nil })
	c.Set("c", 3)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Peek("b")
	assert.False(t, ok, "least recently used entry evicted")
	_, ok = c.Peek("a")
	assert.True(t, ok)
}

func TestPurge(t *testing.T) {
	c := New[int](Options{})
	c.Set("a", 1)
	c.Set("b", 2)
	c.Purge()
	assert.Zero(t, c.Len())
}
