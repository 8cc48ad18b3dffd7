// Package loader orchestrates the cache tiers: given an action and a
// request, it decides whether a load is served from memory, the persistent
// store or the network, keeps at most one fetch in flight per key, and
// applies the stale-fallback and failure-rollback policies.
package loader

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/burrowkit/burrow/connectivity"
	"github.com/burrowkit/burrow/contextx"
	"github.com/burrowkit/burrow/future"
	"github.com/burrowkit/burrow/memcache"
	"github.com/burrowkit/burrow/metrics"
	"github.com/burrowkit/burrow/request"
	"github.com/burrowkit/burrow/storage"
	"github.com/burrowkit/burrow/tracing"

	"go.opentelemetry.io/otel/trace"
)

// Result is the explicit outcome of a cache entry's computation: a model, a
// clean miss, or (carried separately by the future) a failure.
type Result[M any] struct {
	Model M
	OK    bool
}

// Entry is what the memory tier holds for each key: a future Result with an
// expiration attached.
type Entry[M any] = *future.Expiring[Result[M]]

// NewEntry wraps an already-known model into a resolved cache entry, used to
// inject values directly into the memory tier.
func NewEntry[M any](model M, ttl time.Duration) Entry[M] {
	return future.Resolved(Result[M]{Model: model, OK: true}, ttl)
}

// config holds the internal configuration assembled via functional options.
type config struct {
	monitor connectivity.Monitor
	tracing *tracing.Config
	metrics *metrics.Collector
	logger  *slog.Logger
	policy  RacePolicy
}

// Option configures a Loader.
type Option func(*config)

// WithMonitor installs a connectivity monitor; while it reports no active
// network every action is coerced to CacheOnly.
func WithMonitor(m connectivity.Monitor) Option {
	return func(c *config) { c.monitor = m }
}

// WithTracing enables OpenTelemetry spans around loads.
func WithTracing(cfg *tracing.Config) Option {
	return func(c *config) { c.tracing = cfg }
}

// WithMetrics installs a metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *config) { c.metrics = m }
}

// WithLogger sets the logger. The default is slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithRacePolicy selects the refresh race behavior. The default is
// RaceLoserAwaits.
func WithRacePolicy(p RacePolicy) Option {
	return func(c *config) { c.policy = p }
}

// Loader resolves content requests across the memory tier, an optional
// persistent store and the network. All methods are safe for concurrent use.
type Loader[M any] struct {
	mem     *memcache.LRU[Entry[M]]
	store   storage.Store[M]
	ttl     time.Duration
	monitor connectivity.Monitor
	trace   *tracing.Config
	met     *metrics.Collector
	log     *slog.Logger
	policy  RacePolicy
}

// New creates a Loader over the given memory cache and (optional, may be
// nil) persistent store. ttl is the expiration offset applied to entries in
// both tiers; future.NoExpire disables expiration.
func New[M any](mem *memcache.LRU[Entry[M]], store storage.Store[M], ttl time.Duration, opts ...Option) *Loader[M] {
	cfg := config{logger: slog.Default()}
	for _, o := range opts {
		o(&cfg)
	}
	return &Loader[M]{
		mem:     mem,
		store:   store,
		ttl:     ttl,
		monitor: cfg.monitor,
		trace:   cfg.tracing,
		met:     cfg.metrics,
		log:     cfg.logger,
		policy:  cfg.policy,
	}
}

// Load resolves a request according to action. It returns the model and true
// on a hit; false with a nil error is a clean miss (including cancellations
// and cache-only lookups that found nothing). onUpdate, when non-nil, is
// invoked with every model freshly fetched from the network, so callers can
// invalidate or update derived caches.
func (l *Loader[M]) Load(ctx context.Context, action Action, req request.Request[M], onUpdate func(M)) (M, bool, error) {
	var zero M
	if req == nil {
		return zero, false, errors.New("loader: nil request")
	}
	key := req.Hash()
	if key == "" {
		return zero, false, errors.New("loader: empty cache key")
	}

	// While offline, every action degrades to a cache-only read so old data
	// can still be served without a doomed network attempt.
	if contextx.OfflineFromContext(ctx) || (l.monitor != nil && !l.monitor.IsNetworkActive()) {
		action = CacheOnly
	}

	ctx, span := tracing.StartLoad(ctx, l.trace, action.String(), key)
	defer span.End()

	model, ok, err := l.load(ctx, span, action, key, req, onUpdate)
	tracing.RecordResult(span, ok, err)
	return model, ok, err
}

func (l *Loader[M]) load(ctx context.Context, span trace.Span, action Action, key string, req request.Request[M], onUpdate func(M)) (M, bool, error) {
	var zero M

	old, _ := l.mem.Get(key)
	fut := old
	if fut != nil {
		l.met.MemHit()
	} else {
		l.met.MemMiss()
	}

	// CacheOnly deliberately serves expired memory entries: old data beats
	// no data when the network is out of the picture.
	expired := fut != nil && fut.Expired() && action != CacheOnly

	if fut == nil || action == Refresh || expired {
		switch {
		case fut == nil:
			l.log.Debug("memory cache miss", "key", key)
		case action == Refresh:
			l.log.Debug("refreshing cache entry", "key", key)
		default:
			l.log.Debug("memory cache entry expired", "key", key)
		}

		newFut := future.NewExpiring[Result[M]](l.ttl)
		if fut != nil && (action == Refresh || expired) {
			l.mem.RemoveEntry(key, fut)
		}

		winner, raced := l.mem.PutIfAbsent(key, newFut)
		if raced && action == Refresh && l.policy == RefreshAlwaysWins {
			// Displace the racing entry; its waiters keep their future,
			// but this refresh is guaranteed a network round trip.
			l.mem.Put(key, newFut)
			raced = false
		}
		if raced {
			fut = winner
		} else {
			fut = newFut
			res, err := l.produce(ctx, span, action, key, req, onUpdate)
			newFut.Complete(res, err)
		}
	} else {
		tracing.RecordTier(span, "memory")
	}

	res, err := fut.Wait(ctx)
	if err != nil {
		if !fut.Completed() {
			// Only this caller gave up; the computation keeps running for
			// everyone else, so the entry stays.
			return zero, false, err
		}
		l.revert(key, old, fut, action == Refresh || expired)
		if errors.Is(err, future.ErrCanceled) {
			return zero, false, nil
		}
		return zero, false, err
	}
	if !res.OK {
		// A resolved miss must not linger as a cached non-answer.
		l.revert(key, old, fut, action == Refresh || expired)
		return zero, false, nil
	}
	return res.Model, true, nil
}

// produce runs the inner load for a key this caller won the insert race for:
// persistent store first (subject to the action's policy), then the network,
// with write-through and stale fallback.
func (l *Loader[M]) produce(ctx context.Context, span trace.Span, action Action, key string, req request.Request[M], onUpdate func(M)) (Result[M], error) {
	if l.store != nil {
		switch action {
		case CacheOnly:
			// Expiration is ignored on purpose; no network attempt follows.
			model, ok := l.store.Get(ctx, key)
			if ok {
				l.met.StoreHit()
				tracing.RecordTier(span, "store")
			} else {
				l.met.StoreMiss()
			}
			return Result[M]{Model: model, OK: ok}, nil
		case Refresh:
			_ = l.store.Remove(ctx, key)
		default:
			if model, ok := l.store.GetFresh(ctx, key, l.ttl); ok {
				l.met.StoreHit()
				tracing.RecordTier(span, "store")
				return Result[M]{Model: model, OK: true}, nil
			}
			l.met.StoreMiss()
			l.log.Debug("store miss or expired", "key", key)
		}
	} else if action == CacheOnly {
		return Result[M]{}, nil
	}

	l.met.Fetch()
	model, err := req.Execute(ctx)
	if err == nil {
		tracing.RecordTier(span, "network")
		if l.store != nil {
			_ = l.store.Put(ctx, key, model)
		}
		if onUpdate != nil {
			onUpdate(model)
		}
		return Result[M]{Model: model, OK: true}, nil
	}

	l.met.FetchFailure()
	if action == Normal && l.store != nil {
		// Serve stale over serving nothing.
		if model, ok := l.store.Get(ctx, key); ok {
			l.met.StaleFallback()
			tracing.RecordTier(span, "store_stale")
			l.log.Warn("serving stale content after failed fetch", "key", key, "error", err)
			return Result[M]{Model: model, OK: true}, nil
		}
	}
	return Result[M]{}, err
}

// revert removes a failed entry so it cannot poison later loads, and for
// expiry- or refresh-triggered re-fetches reinstates the previous (stale but
// present) entry so concurrent readers are not left with a permanent miss.
func (l *Loader[M]) revert(key string, old, failed Entry[M], reinstate bool) {
	l.mem.RemoveEntry(key, failed)
	if reinstate && old != nil && old != failed {
		l.mem.PutIfAbsent(key, old)
	}
}
