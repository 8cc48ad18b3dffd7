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

// config holds the internal configuration assembled via functional options.
type config[M any] struct {
	capacity int
	ttl      time.Duration
	store    storage.Store[M]
	monitor  connectivity.Monitor
	metrics  *metrics.Collector
	tracing  *tracing.Config
	logger   *slog.Logger
	policy   loader.RacePolicy
	prefetch *ratelimit.Limiter
}
