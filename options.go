package burrow

import (
	"log/slog"
	"time"

	"github.com/burrowkit/burrow/connectivity"
	"github.com/burrowkit/burrow/loader"
	"github.com/burrowkit/burrow/metrics"
	"github.com/burrowkit/burrow/ratelimit"
	"github.com/burrowkit/burrow/storage"
	"github.com/burrowkit/burrow/tracing"
)

// Option configures a Proxy.
type Option[M any] func(*config[M])

// WithCapacity bounds the memory tier to the given number of entries.
func WithCapacity[M any](n int) Option[M] {
	return func(c *config[M]) { c.capacity = n }
}

// WithTTL sets the expiration offset applied to entries in every tier.
// NoExpire disables expiration.
func WithTTL[M any](ttl time.Duration) Option[M] {
	return func(c *config[M]) { c.ttl = ttl }
}

// WithStore attaches a persistent store tier (filesystem or Redis). Without
// one the proxy is memory-only.
func WithStore[M any](s storage.Store[M]) Option[M] {
	return func(c *config[M]) { c.store = s }
}

// WithMonitor installs a connectivity monitor; while it reports no active
// network, every load degrades to a cache-only read.
func WithMonitor[M any](m connectivity.Monitor) Option[M] {
	return func(c *config[M]) { c.monitor = m }
}

// WithMetrics installs Prometheus counters for the proxy's tiers.
func WithMetrics[M any](col *metrics.Collector) Option[M] {
	return func(c *config[M]) { c.metrics = col }
}

// WithTracing enables OpenTelemetry spans around loads.
func WithTracing[M any](cfg *tracing.Config) Option[M] {
	return func(c *config[M]) { c.tracing = cfg }
}

// WithLogger sets the logger. The default is slog.Default.
func WithLogger[M any](l *slog.Logger) Option[M] {
	return func(c *config[M]) { c.logger = l }
}

// WithRacePolicy selects how a refresh racing another load for the same key
// behaves. The default is loader.RaceLoserAwaits.
func WithRacePolicy[M any](p loader.RacePolicy) Option[M] {
	return func(c *config[M]) { c.policy = p }
}

// WithPrefetchRate paces background pre-fetches; those exceeding the rate
// are dropped rather than queued.
func WithPrefetchRate[M any](rps float64, burst int) Option[M] {
	return func(c *config[M]) { c.prefetch = ratelimit.NewLimiter(rps, burst) }
}
