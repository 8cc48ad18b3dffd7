// Package future provides the promise primitives the caching layers are built
// on: an expiration-aware one-shot future and a keyed memoizer that prevents
// duplicate concurrent computations.
package future

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"
)

// NoExpire is the TTL sentinel for entries that never expire.
const NoExpire = time.Duration(math.MaxInt64)

// ErrCanceled is returned by Wait when the future was canceled before a
// result was set.
var ErrCanceled = errors.New("future: canceled")

// Expiring is a one-shot future carrying an absolute expiration instant
// recorded at construction time. The expiration is a property of the cache
// entry, not of the computation: an Expiring can be resolved, awaited and
// still be expired.
//
// All methods are safe for concurrent use.
type Expiring[V any] struct {
	deadline time.Time // zero means never expires

	done chan struct{}
	once sync.Once
	val  V
	err  error
}

// NewExpiring creates an unresolved future that expires ttl from now.
// Passing NoExpire produces a future that never expires.
func NewExpiring[V any](ttl time.Duration) *Expiring[V] {
	e := &Expiring[V]{done: make(chan struct{})}
	if ttl != NoExpire {
		e.deadline = time.Now().Add(ttl)
	}
	return e
}

// Resolved creates an already-completed future holding val, expiring ttl from
// now. It is used to inject known values into a cache of futures.
func Resolved[V any](val V, ttl time.Duration) *Expiring[V] {
	e := NewExpiring[V](ttl)
	e.Complete(val, nil)
	return e
}

// Complete resolves the future with the given value and error. Only the first
// call has any effect.
func (e *Expiring[V]) Complete(val V, err error) {
	e.once.Do(func() {
		e.val = val
		e.err = err
		close(e.done)
	})
}

// Cancel resolves the future with ErrCanceled if it has not completed yet.
func (e *Expiring[V]) Cancel() {
	var zero V
	e.Complete(zero, ErrCanceled)
}

// Wait blocks until the future is resolved or ctx is done, whichever comes
// first. A ctx error reports only that this caller gave up waiting; the
// computation itself keeps running for other waiters.
func (e *Expiring[V]) Wait(ctx context.Context) (V, error) {
	select {
	case <-e.done:
		return e.val, e.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Completed reports whether the future has been resolved (or canceled).
func (e *Expiring[V]) Completed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Expired reports whether the current time is strictly past the expiration
// instant. Futures built with NoExpire never report expired.
func (e *Expiring[V]) Expired() bool {
	if e.deadline.IsZero() {
		return false
	}
	return time.Now().After(e.deadline)
}
