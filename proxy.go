package burrow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/burrowkit/burrow/loader"
	"github.com/burrowkit/burrow/memcache"
	"github.com/burrowkit/burrow/ratelimit"
	"github.com/burrowkit/burrow/request"
	"github.com/burrowkit/burrow/storage"
)

// Proxy unifies the memory cache, the persistent store and the network fetch
// for one content type behind a single get/put API. Construct one per
// content type and share it; all methods are safe for concurrent use.
type Proxy[M any] struct {
	name     string
	ttl      time.Duration
	mem      *memcache.LRU[loader.Entry[M]]
	store    storage.Store[M]
	ld       *loader.Loader[M]
	prefetch *ratelimit.Limiter
	log      *slog.Logger
}

// New creates a Proxy for the named content type with the supplied options
// applied over production defaults (memory-only, DefaultCapacity entries,
// DefaultTTL expiration).
func New[M any](name string, opts ...Option[M]) (*Proxy[M], error) {
	if name == "" {
		return nil, errors.New("burrow: empty proxy name")
	}
	cfg := config[M]{
		capacity: DefaultCapacity,
		ttl:      DefaultTTL,
		logger:   slog.Default(),
		prefetch: ratelimit.NewLimiter(DefaultPrefetchRPS, DefaultPrefetchBurst),
	}
	for _, o := range opts {
		o(&cfg)
	}

	met := cfg.metrics
	mem := memcache.NewLRU(cfg.capacity, func(string, loader.Entry[M]) {
		met.MemEviction()
	})
	ld := loader.New(mem, cfg.store, cfg.ttl,
		loader.WithMonitor(cfg.monitor),
		loader.WithTracing(cfg.tracing),
		loader.WithMetrics(cfg.metrics),
		loader.WithLogger(cfg.logger),
		loader.WithRacePolicy(cfg.policy),
	)
	return &Proxy[M]{
		name:     name,
		ttl:      cfg.ttl,
		mem:      mem,
		store:    cfg.store,
		ld:       ld,
		prefetch: cfg.prefetch,
		log:      cfg.logger,
	}, nil
}

// Name returns the content type name the proxy was created with.
func (p *Proxy[M]) Name() string { return p.name }

// Get resolves a request according to action. It returns the model and true
// on a hit; false with a nil error is a clean miss. ActionPreFetch returns
// immediately and warms the caches in the background.
func (p *Proxy[M]) Get(ctx context.Context, action ActionType, req request.Request[M]) (M, bool, error) {
	return p.GetWithUpdate(ctx, action, req, nil)
}

// GetWithUpdate is Get with a content-update hook: onUpdate is invoked with
// every model freshly fetched from the network, letting the caller refresh
// derived caches (an aggregate list, a view model) in step.
func (p *Proxy[M]) GetWithUpdate(ctx context.Context, action ActionType, req request.Request[M], onUpdate func(M)) (M, bool, error) {
	var zero M
	if req == nil {
		return zero, false, errors.New("burrow: nil request")
	}
	if action == ActionPreFetch {
		p.schedulePrefetch(ctx, req)
		return zero, false, nil
	}
	return p.ld.Load(ctx, action, req, onUpdate)
}

// Put injects an already-known model into both cache tiers under key,
// wrapped as an already-resolved entry so later gets are served without any
// network access.
func (p *Proxy[M]) Put(ctx context.Context, key string, model M) error {
	if key == "" {
		return errors.New("burrow: empty cache key")
	}
	p.mem.Put(key, loader.NewEntry(model, p.ttl))
	if p.store != nil {
		return p.store.Put(ctx, key, model)
	}
	return nil
}

// Invalidate removes the entry for key from both tiers.
func (p *Proxy[M]) Invalidate(ctx context.Context, key string) {
	p.mem.Remove(key)
	if p.store != nil {
		_ = p.store.Remove(ctx, key)
	}
}

// ClearMemory wipes the memory tier.
func (p *Proxy[M]) ClearMemory() {
	p.mem.Clear()
}

// ClearStore synchronously wipes the persistent tier according to mode.
func (p *Proxy[M]) ClearStore(ctx context.Context, mode ClearMode) error {
	if p.store == nil {
		return nil
	}
	return p.store.Clear(ctx, mode)
}

// ScheduleClearStore wipes the persistent tier on a background goroutine.
func (p *Proxy[M]) ScheduleClearStore(ctx context.Context) {
	if p.store != nil {
		p.store.ScheduleClear(ctx)
	}
}

// ClearAll wipes the memory tier and schedules a persistent tier wipe. It is
// non-blocking.
func (p *Proxy[M]) ClearAll(ctx context.Context) {
	p.ClearMemory()
	p.ScheduleClearStore(ctx)
}

// schedulePrefetch starts a background load for content that will be needed
// soon, subject to the prefetch rate limit (excess prefetches are dropped;
// they are an optimization, not a promise).
func (p *Proxy[M]) schedulePrefetch(ctx context.Context, req request.Request[M]) {
	if p.prefetch != nil && !p.prefetch.Allow() {
		p.log.Debug("prefetch dropped by rate limit", "proxy", p.name, "key", req.Hash())
		return
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		if _, _, err := p.ld.Load(bg, loader.PreFetch, req, nil); err != nil {
			p.log.Debug("prefetch failed", "proxy", p.name, "key", req.Hash(), "error", err)
		}
	}()
}
