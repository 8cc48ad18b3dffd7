// Package burrow is a two-level content caching library: a bounded in-memory
// cache of future results in front of an optional persistent store and a
// network fetch, coordinated so that any number of concurrent callers for a
// key share a single fetch.
//
// The public entry point is the [Proxy]: one per content type, owning its
// memory tier, its store and its loader. Callers pick an [ActionType] per
// request to control how far down the tiers a load may go:
//
//	proxy, _ := burrow.New[User]("users",
//		burrow.WithTTL[User](10*time.Minute),
//		burrow.WithStore[User](store),
//	)
//	user, ok, err := proxy.Get(ctx, burrow.ActionNormal, req)
package burrow

import (
	"github.com/burrowkit/burrow/future"
	"github.com/burrowkit/burrow/loader"
	"github.com/burrowkit/burrow/storage"
)

// ActionType selects which cache tiers and network a load may consult.
type ActionType = loader.Action

const (
	// ActionNormal passes through all cache levels and falls back to the
	// network on a miss.
	ActionNormal = loader.Normal
	// ActionCacheOnly serves cached data, ignoring expiration; it never
	// touches the network.
	ActionCacheOnly = loader.CacheOnly
	// ActionPreFetch warms the caches in the background and returns
	// immediately; the result is discarded.
	ActionPreFetch = loader.PreFetch
	// ActionRefresh discards cached data for the key and fetches anew.
	ActionRefresh = loader.Refresh
)

// ClearMode selects how much of a persistent store a clear operation wipes.
type ClearMode = storage.ClearMode

const (
	// ClearAll removes every entry.
	ClearAll = storage.ClearAll
	// ClearOld removes only entries older than the store's purge window.
	ClearOld = storage.ClearOld
)

// NoExpire is the TTL sentinel for content that never expires.
const NoExpire = future.NoExpire
