package fetch

import (
	"context"
	"time"
)

// Result is a tri-state snapshot of a query: loading, failed, or holding data.
type Result[T any] struct {
	Data    T
	Loading bool
	Err     error
}

// Query reads one resource key through the cache.
type Query[T any] struct {
	cache *Cache
	key   string
	fetch func(context.Context) (T, error)
}

// NewQuery binds fetch to key in c.
func NewQuery[T any](c *Cache, key string, fetch func(context.Context) (T, error)) *Query[T] {
	return &Query[T]{cache: c, key: key, fetch: fetch}
}

// Key returns the resource key the query reads.
func (q *Query[T]) Key() string { return q.key }

// Result returns the cached state without blocking. A missing, stale or failed
// entry starts a background refresh; until the first fetch completes the
// result reports Loading.
func (q *Query[T]) Result() Result[T] {
	return q.Load(context.Background(), 0)
}

// Load is Result with a grace period: when a refresh is needed it waits up to
// wait (or until ctx is done) for the refresh to land before falling back to
// the cached snapshot.
func (q *Query[T]) Load(ctx context.Context, wait time.Duration) Result[T] {
	snap, found, needsRefresh, gen := q.cache.snapshot(q.key)
	if !needsRefresh {
		cacheRequests.WithLabelValues(q.key, "hit").Inc()
		return toResult[T](snap)
	}

	if found {
		cacheRequests.WithLabelValues(q.key, "stale").Inc()
	} else {
		cacheRequests.WithLabelValues(q.key, "miss").Inc()
	}

	done := q.cache.refresh(q.key, gen, q.erased)
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case res := <-done:
			return fromFlight[T](res.Val, res.Err)
		case <-timer.C:
		case <-ctx.Done():
		}
	}

	if !found {
		return Result[T]{Loading: true}
	}
	if snap.err != nil {
		return Result[T]{Err: snap.err}
	}
	return toResult[T](snap)
}

// Fetch blocks until the key holds a fresh value or the fetch fails.
func (q *Query[T]) Fetch(ctx context.Context) (T, error) {
	snap, _, needsRefresh, gen := q.cache.snapshot(q.key)
	if !needsRefresh {
		cacheRequests.WithLabelValues(q.key, "hit").Inc()
		res := toResult[T](snap)
		return res.Data, res.Err
	}
	cacheRequests.WithLabelValues(q.key, "miss").Inc()

	select {
	case res := <-q.cache.refresh(q.key, gen, q.erased):
		out := fromFlight[T](res.Val, res.Err)
		return out.Data, out.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (q *Query[T]) erased(ctx context.Context) (any, error) {
	return q.fetch(ctx)
}

func toResult[T any](e entry) Result[T] {
	return fromFlight[T](e.data, e.err)
}

func fromFlight[T any](val any, err error) Result[T] {
	if err != nil {
		return Result[T]{Err: err}
	}
	data, _ := val.(T)
	return Result[T]{Data: data}
}
