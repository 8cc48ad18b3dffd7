package future

import (
	"context"
	"sync"
)

// call is a single memoized computation. Waiters block on the WaitGroup while
// the winning goroutine runs the function inline.
type call[V any] struct {
	wg  sync.WaitGroup
	val V
	err error
}

// Memoizer ensures at most one concurrent computation per key: the first
// caller for a key runs the function on its own goroutine while late callers
// block and share the result. Unlike a plain singleflight group, completed
// results stay in the map and are served to later callers until Forget is
// called (typically from an outer cache's eviction listener), so the map
// doubles as an unbounded memo table.
//
// Failed computations are always removed before the error is returned, so a
// transient failure never poisons the cache for subsequent callers.
type Memoizer[K comparable, V any] struct {
	mu    sync.Mutex
	calls map[K]*call[V]
}

// NewMemoizer creates an empty Memoizer.
func NewMemoizer[K comparable, V any]() *Memoizer[K, V] {
	return &Memoizer[K, V]{calls: make(map[K]*call[V])}
}

// Do returns the memoized result for key, computing it with fn if no prior
// computation exists. Concurrent callers for the same key share a single fn
// invocation. The winning caller runs fn inline; ctx is passed through to it.
func (m *Memoizer[K, V]) Do(ctx context.Context, key K, fn func(context.Context) (V, error)) (V, error) {
	m.mu.Lock()
	if c, ok := m.calls[key]; ok {
		m.mu.Unlock()
		c.wg.Wait()
		return c.val, c.err
	}

	c := &call[V]{}
	c.wg.Add(1)
	m.calls[key] = c
	m.mu.Unlock()

	c.val, c.err = fn(ctx)
	c.wg.Done()

	if c.err != nil {
		// Never keep a failed attempt around.
		m.mu.Lock()
		if cur, ok := m.calls[key]; ok && cur == c {
			delete(m.calls, key)
		}
		m.mu.Unlock()
	}
	return c.val, c.err
}

// Forget drops the memoized entry for key, if any. In-flight waiters are not
// affected; they still receive the result of the computation they joined.
func (m *Memoizer[K, V]) Forget(key K) {
	m.mu.Lock()
	delete(m.calls, key)
	m.mu.Unlock()
}

// Clear drops every memoized entry.
func (m *Memoizer[K, V]) Clear() {
	m.mu.Lock()
	m.calls = make(map[K]*call[V])
	m.mu.Unlock()
}

// Len returns the number of memoized (or in-flight) entries.
func (m *Memoizer[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
