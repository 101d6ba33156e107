package fetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/activities/internal/logging"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingFetcher returns the current value and counts calls.
type countingFetcher struct {
	calls atomic.Int32
	mu    sync.Mutex
	value []string
	err   error
}

func (f *countingFetcher) set(value []string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value, f.err = value, err
}

func (f *countingFetcher) fetch(context.Context) ([]string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

func newTestCache(ttl time.Duration, clock *fakeClock) *Cache {
	opts := []CacheOption{WithLogger(logging.Discard())}
	if clock != nil {
		opts = append(opts, WithClock(clock.Now))
	}
	return NewCache(ttl, opts...)
}

func TestQueryLoadingUntilFirstFetchCompletes(t *testing.T) {
	release := make(chan struct{})
	q := NewQuery(newTestCache(0, nil), "activities", func(ctx context.Context) ([]string, error) {
		<-release
		return []string{"run"}, nil
	})

	first := q.Result()
	assert.True(t, first.Loading)
	assert.Nil(t, first.Data)
	assert.NoError(t, first.Err)

	close(release)
	got := q.Load(context.Background(), time.Second)
	require.False(t, got.Loading)
	assert.Equal(t, []string{"run"}, got.Data)
}

func TestQueryServesHitsWithoutRefetching(t *testing.T) {
	f := &countingFetcher{}
	f.set([]string{"run"}, nil)
	q := NewQuery(newTestCache(0, nil), "activities", f.fetch)

	_, err := q.Fetch(context.Background())
	require.NoError(t, err)
	for range 3 {
		assert.Equal(t, []string{"run"}, q.Result().Data)
	}
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestInvalidateTriggersRefetch(t *testing.T) {
	f := &countingFetcher{}
	f.set([]string{"run", "swim"}, nil)
	c := newTestCache(0, nil)
	q := NewQuery(c, "activities", f.fetch)

	_, err := q.Fetch(context.Background())
	require.NoError(t, err)

	f.set([]string{"run"}, nil)
	require.NoError(t, c.Invalidate(context.Background(), "activities", "unrelated"))

	got := q.Load(context.Background(), time.Second)
	assert.Equal(t, []string{"run"}, got.Data)
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestStaleDataShownWhileRefreshing(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	c := newTestCache(0, nil)
	q := NewQuery(c, "activities", func(ctx context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			return []string{"old"}, nil
		}
		<-release
		return []string{"new"}, nil
	})

	_, err := q.Fetch(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(context.Background(), "activities"))

	got := q.Result()
	assert.False(t, got.Loading)
	assert.Equal(t, []string{"old"}, got.Data)

	close(release)
	assert.Equal(t, []string{"new"}, q.Load(context.Background(), time.Second).Data)
}

func TestEntriesExpireAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	f := &countingFetcher{}
	f.set([]string{"run"}, nil)
	q := NewQuery(newTestCache(30*time.Second, clock), "activities", f.fetch)

	_, err := q.Fetch(context.Background())
	require.NoError(t, err)

	clock.Advance(10 * time.Second)
	q.Result()
	assert.EqualValues(t, 1, f.calls.Load())

	clock.Advance(25 * time.Second)
	_, err = q.Fetch(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestFetchErrorIsReportedAndRetried(t *testing.T) {
	f := &countingFetcher{}
	f.set(nil, errors.New("api unavailable"))
	q := NewQuery(newTestCache(0, nil), "activities", f.fetch)

	got := q.Load(context.Background(), time.Second)
	require.EqualError(t, got.Err, "api unavailable")
	assert.False(t, got.Loading)

	f.set([]string{"run"}, nil)
	recovered := q.Load(context.Background(), time.Second)
	require.NoError(t, recovered.Err)
	assert.Equal(t, []string{"run"}, recovered.Data)
}

func TestConcurrentReadersShareOneFetch(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	q := NewQuery(newTestCache(0, nil), "activities", func(ctx context.Context) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"run"}, nil
	})

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := q.Fetch(context.Background())
			assert.NoError(t, err)
			results[i] = data
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, r := range results {
		assert.Equal(t, []string{"run"}, r)
	}
}

func TestInvalidateDuringFetchMarksResultStale(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	c := newTestCache(0, nil)
	q := NewQuery(c, "activities", func(ctx context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			<-release
			return []string{"before"}, nil
		}
		return []string{"after"}, nil
	})

	assert.True(t, q.Result().Loading)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, c.Invalidate(context.Background(), "activities"))
	close(release)

	assert.Equal(t, []string{"after"}, q.Load(context.Background(), time.Second).Data)
}

func TestFetchHonoursContext(t *testing.T) {
	q := NewQuery(newTestCache(0, nil), "activities", func(ctx context.Context) ([]string, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := q.Fetch(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
