// Package storage provides the persistent tier of the content cache: a
// key-addressed store of marshalled models with modification-time based
// staleness checks. Two backends are provided, a local filesystem store and a
// fail-soft Redis store.
//
// Stores are best-effort by contract: read and write failures are logged and
// reported as a cache miss (or silently discarded for writes) rather than
// surfaced, so callers never have to distinguish "no data" from "broken
// store".
package storage

import (
	"context"
	"time"
)

// ClearMode selects how much of a store a Clear call wipes.
type ClearMode int

const (
	// ClearAll removes every entry.
	ClearAll ClearMode = iota
	// ClearOld removes only entries older than the store's purge window.
	ClearOld
)

// MinTTL is the smallest expiration offset the cache tiers are designed for.
// Filesystem modification times can be rounded to the second on some
// platforms, so TTLs well below this may produce spurious misses.
const MinTTL = time.Minute

// DefaultPurgeAfter is the default purge window for ClearOld: twice the
// minimum supported TTL, so no entry that could still be served fresh is
// purged.
const DefaultPurgeAfter = 2 * MinTTL

// Store is the persistent cache contract used by the content loader.
type Store[M any] interface {
	// Get returns the stored model for key, or a miss if the key is absent
	// or the payload cannot be decoded.
	Get(ctx context.Context, key string) (M, bool)

	// GetFresh is Get with a staleness check: entries whose age exceeds ttl
	// are reported as a miss but kept on disk, since a caller falling back
	// from a failed fetch may still want them. future.NoExpire disables the
	// check.
	GetFresh(ctx context.Context, key string, ttl time.Duration) (M, bool)

	// Put marshals and stores the model, overwriting unconditionally.
	Put(ctx context.Context, key string, model M) error

	// Remove deletes the entry for key. Removing an absent key is not an
	// error.
	Remove(ctx context.Context, key string) error

	// Clear wipes the store according to mode.
	Clear(ctx context.Context, mode ClearMode) error

	// ScheduleClear starts a full wipe in the background and returns
	// immediately.
	ScheduleClear(ctx context.Context)
}
