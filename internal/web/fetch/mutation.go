package fetch

import (
	"context"
	"errors"
	"sync"
)

// ErrInFlight rejects a mutation while the same scope already has one running.
var ErrInFlight = errors.New("mutation already in progress")

// Mutation runs a write against the API, tracking in-flight calls per scope and
// invalidating resource keys once the write succeeds.
type Mutation[Req, Resp any] struct {
	name        string
	cache       *Cache
	call        func(ctx context.Context, token string, req Req) (Resp, error)
	invalidates []string

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewMutation binds call to the keys it invalidates in c.
func NewMutation[Req, Resp any](name string, c *Cache, call func(context.Context, string, Req) (Resp, error), invalidates ...string) *Mutation[Req, Resp] {
	return &Mutation[Req, Resp]{
		name:        name,
		cache:       c,
		call:        call,
		invalidates: invalidates,
		pending:     make(map[string]struct{}),
	}
}

// Pending reports whether scope has a mutation in flight.
func (m *Mutation[Req, Resp]) Pending(scope string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[scope]
	return ok
}

// Mutate performs the write for scope. It returns ErrInFlight without calling
// the API when scope already has a write running. Invalidation follows a
// successful write and is not awaited by the reader: the next query refreshes.
func (m *Mutation[Req, Resp]) Mutate(ctx context.Context, scope, token string, req Req) (Resp, error) {
	var zero Resp
	if !m.begin(scope) {
		mutations.WithLabelValues(m.name, "rejected").Inc()
		return zero, ErrInFlight
	}
	defer m.end(scope)

	resp, err := m.call(ctx, token, req)
	if err != nil {
		mutations.WithLabelValues(m.name, "error").Inc()
		return zero, err
	}
	mutations.WithLabelValues(m.name, "success").Inc()
	_ = m.cache.Invalidate(ctx, m.invalidates...)
	return resp, nil
}

func (m *Mutation[Req, Resp]) begin(scope string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.pending[scope]; busy {
		return false
	}
	m.pending[scope] = struct{}{}
	return true
}

func (m *Mutation[Req, Resp]) end(scope string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, scope)
}
