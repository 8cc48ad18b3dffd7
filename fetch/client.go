// Package fetch is the network executor behind content requests: an HTTP
// client with timeouts, bounded retries, an optional circuit breaker and
// optional request pacing, all configured once at construction rather than
// per request. The cache layers treat it as an opaque "fetch a model or
// fail" capability.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/burrowkit/burrow/breaker"
	"github.com/burrowkit/burrow/marshal"
	"github.com/burrowkit/burrow/ratelimit"
	"github.com/burrowkit/burrow/retry"
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s returned status %d", e.URL, e.Code)
}

// ErrNotFound wraps 404 responses so callers can treat absent remote content
// as a plain miss.
var ErrNotFound = errors.New("fetch: not found")

// config holds the internal configuration assembled via functional options.
type config struct {
	timeout       time.Duration
	maxAttempts   int
	baseDelay     time.Duration
	maxDelay      time.Duration
	jitter        float64
	retryStatuses []int
	breakerCfg    *breaker.Config
	limiter       *ratelimit.Limiter
	userAgent     string
	httpClient    *http.Client
	marshaller    marshal.Marshaller
	logger        *slog.Logger
}

// Option configures a Client.
type Option func(*config)

// WithTimeout sets the per-request timeout (connect plus read).
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithRetry sets the retry budget: attempts includes the first try, and
// base/maxDelay bound the exponential back-off between tries.
func WithRetry(attempts int, base, maxDelay time.Duration) Option {
	return func(c *config) {
		c.maxAttempts = attempts
		c.baseDelay = base
		c.maxDelay = maxDelay
	}
}

// WithRetryStatuses replaces the set of HTTP status codes considered
// retryable. Transport-level failures (no response at all) are always
// retryable.
func WithRetryStatuses(codes ...int) Option {
	return func(c *config) { c.retryStatuses = codes }
}

// WithBreaker installs a circuit breaker in front of the upstream.
func WithBreaker(cfg breaker.Config) Option {
	return func(c *config) { c.breakerCfg = &cfg }
}

// WithRateLimit paces outbound requests to rps per second with the given
// burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *config) { c.limiter = ratelimit.NewLimiter(rps, burst) }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *config) { c.userAgent = ua }
}

// WithHTTPClient replaces the underlying *http.Client (the configured
// timeout is not applied to a replacement client).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// WithMarshaller sets the Marshaller used to decode response bodies into
// models. The default is marshal.JSON.
func WithMarshaller(m marshal.Marshaller) Option {
	return func(c *config) { c.marshaller = m }
}

// WithLogger sets the logger for retry and breaker events. The default is
// slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Client executes HTTP GET requests for content payloads. All methods are
// safe for concurrent use.
type Client struct {
	hc         *http.Client
	retryCfg   retry.Config
	brk        *breaker.Breaker
	lim        *ratelimit.Limiter
	userAgent  string
	marshaller marshal.Marshaller
	log        *slog.Logger
}

// New creates a Client with the supplied options applied over production
// defaults: a 15s timeout and 3 attempts with 100ms..2s back-off, retrying
// transport failures, 409 and 502 responses.
func New(opts ...Option) *Client {
	cfg := config{
		timeout:       15 * time.Second,
		maxAttempts:   3,
		baseDelay:     100 * time.Millisecond,
		maxDelay:      2 * time.Second,
		jitter:        0.2,
		retryStatuses: []int{http.StatusConflict, http.StatusBadGateway},
		marshaller:    marshal.JSON{},
		logger:        slog.Default(),
	}
	for _, o := range opts {
		o(&cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}
	c := &Client{
		hc:         hc,
		userAgent:  cfg.userAgent,
		marshaller: cfg.marshaller,
		lim:        cfg.limiter,
		log:        cfg.logger,
	}
	if cfg.breakerCfg != nil {
		c.brk = breaker.New(*cfg.breakerCfg)
	}
	c.retryCfg = retry.Config{
		MaxAttempts: cfg.maxAttempts,
		BaseDelay:   cfg.baseDelay,
		MaxDelay:    cfg.maxDelay,
		Jitter:      cfg.jitter,
		RetryIf:     c.retryable(cfg.retryStatuses),
	}
	return c
}

// GetBytes fetches url and returns the raw response body. Retries, pacing
// and the breaker are applied as configured.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	return retry.Do(ctx, c.retryCfg, func(ctx context.Context) ([]byte, error) {
		if c.lim != nil {
			if err := c.lim.Wait(ctx); err != nil {
				return nil, err
			}
		}
		if c.brk != nil && !c.brk.Allow() {
			return nil, breaker.ErrOpen
		}
		body, err := c.get(ctx, url)
		if c.brk != nil {
			if err != nil && !errors.Is(err, ErrNotFound) {
				c.brk.OnFailure()
			} else {
				c.brk.OnSuccess()
			}
		}
		return body, err
	})
}

// GetModel fetches url and decodes the response body into out using the
// configured Marshaller.
func (c *Client) GetModel(ctx context.Context, url string, out any) error {
	body, err := c.GetBytes(ctx, url)
	if err != nil {
		return err
	}
	if err := c.marshaller.Unmarshal(body, out); err != nil {
		return fmt.Errorf("fetch: decode %s: %w", url, err)
	}
	return nil
}

// get performs a single GET attempt.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: url}
	}
	return io.ReadAll(resp.Body)
}

// retryable builds the RetryIf predicate: transport failures and the listed
// status codes are retried; context errors, breaker rejections and 404s are
// not.
func (c *Client) retryable(statuses []int) func(error) bool {
	return func(err error) bool {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return false
		case errors.Is(err, breaker.ErrOpen), errors.Is(err, ErrNotFound):
			return false
		}
		var se *StatusError
		if errors.As(err, &se) {
			retry := slices.Contains(statuses, se.Code)
			if retry {
				c.log.Debug("retrying fetch", "url", se.URL, "status", se.Code)
			}
			return retry
		}
		// No HTTP response at all: connection refused, reset, etc.
		return true
	}
}
