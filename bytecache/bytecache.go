// Package bytecache caches raw downloaded content, sized by byte cost
// rather than entry count. It is the companion to the model proxies for
// payloads that are expensive to hold many of, such as images, where a
// single large blob should displace several small ones.
package bytecache

import (
	"bytes"
	"context"
	"errors"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/burrowkit/burrow/fetch"
	"github.com/burrowkit/burrow/future"
	"github.com/burrowkit/burrow/request"
	"github.com/burrowkit/burrow/storage"
)

// Cache is a byte-content cache backed by ristretto, with a memoizer
// deduplicating concurrent downloads of the same URL and an optional
// persistent tier consulted before the network.
type Cache struct {
	rc    *ristretto.Cache[string, entry]
	store storage.Store[[]byte]
	cli   *fetch.Client
	dl    *future.Memoizer[string, []byte]
}

// entry carries the original key so eviction can drop the matching memoizer
// slot. Ristretto only exposes the hashed key to OnEvict.
type entry struct {
	key string
	val []byte
}

// Config sizes the cache and wires its collaborators.
type Config struct {
	// MaxBytes bounds the total payload size held in memory.
	MaxBytes int64

	// Store is the optional persistent tier. May be nil.
	Store storage.Store[[]byte]

	// Client performs downloads. Required for Fetch.
	Client *fetch.Client
}

// New creates a byte-content cache.
func New(cfg Config) (*Cache, error) {
	if cfg.MaxBytes <= 0 {
		return nil, errors.New("bytecache: MaxBytes must be positive")
	}
	c := &Cache{
		store: cfg.Store,
		cli:   cfg.Client,
		dl:    future.NewMemoizer[string, []byte](),
	}
	rc, err := ristretto.NewCache(&ristretto.Config[string, entry]{
		NumCounters: 1e5,
		MaxCost:     cfg.MaxBytes,
		BufferItems: 64,
		OnEvict: func(item *ristretto.Item[entry]) {
			c.dl.Forget(item.Value.key)
		},
	})
	if err != nil {
		return nil, err
	}
	c.rc = rc
	return c, nil
}

// Get returns the in-memory payload for key, if present.
func (c *Cache) Get(key string) ([]byte, bool) {
	e, ok := c.rc.Get(key)
	if !ok {
		return nil, false
	}
	return bytes.Clone(e.val), true
}

// Put stores a payload in memory, costed by its length, and writes it
// through to the persistent tier when one is configured.
func (c *Cache) Put(ctx context.Context, key string, val []byte) error {
	val = bytes.Clone(val)
	c.rc.Set(key, entry{key: key, val: val}, int64(len(val)))
	c.rc.Wait()
	if c.store == nil {
		return nil
	}
	return c.store.Put(ctx, key, val)
}

// Fetch resolves the payload at url through memory, then the persistent
// tier, then the network. Concurrent fetches of the same URL share a single
// download. The memory key is the murmur3 hash of the URL, matching the
// model proxies.
func (c *Cache) Fetch(ctx context.Context, url string) ([]byte, error) {
	key := request.HashURL(url)
	if val, ok := c.Get(key); ok {
		return val, nil
	}
	val, err := c.dl.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		if c.store != nil {
			if val, ok := c.store.Get(ctx, key); ok {
				c.admit(key, val)
				return val, nil
			}
		}
		if c.cli == nil {
			return nil, errors.New("bytecache: no fetch client configured")
		}
		val, err := c.cli.GetBytes(ctx, url)
		if err != nil {
			return nil, err
		}
		c.admit(key, val)
		if c.store != nil {
			if err := c.store.Put(ctx, key, val); err != nil {
				return val, nil
			}
		}
		return val, nil
	})
	// The payload now lives in ristretto, keep the memoizer to in-flight
	// deduplication only.
	c.dl.Forget(key)
	return val, err
}

// Prefetch warms the cache for url in the background. Errors are dropped,
// the cancellation of ctx is not inherited.
func (c *Cache) Prefetch(ctx context.Context, url string) {
	go func(ctx context.Context) {
		_, _ = c.Fetch(ctx, url)
	}(context.WithoutCancel(ctx))
}

// Remove drops key from memory and from the persistent tier.
func (c *Cache) Remove(ctx context.Context, key string) error {
	c.rc.Del(key)
	c.dl.Forget(key)
	if c.store == nil {
		return nil
	}
	return c.store.Remove(ctx, key)
}

// ClearMemory drops every in-memory payload. The persistent tier is kept.
func (c *Cache) ClearMemory() {
	c.rc.Clear()
	c.dl.Clear()
}

// Close releases the cache's internal resources.
func (c *Cache) Close() {
	c.rc.Close()
}

func (c *Cache) admit(key string, val []byte) {
	c.rc.Set(key, entry{key: key, val: bytes.Clone(val)}, int64(len(val)))
	c.rc.Wait()
}
