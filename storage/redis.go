package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/burrowkit/burrow/future"
	"github.com/burrowkit/burrow/marshal"
)

// envelopeHeader is the number of bytes prepended to every stored payload:
// the entry's write time as big-endian unix milliseconds, used for staleness
// checks since Redis keeps no per-key modification time.
const envelopeHeader = 8

// redisConfig holds the internal configuration assembled via functional
// options.
type redisConfig struct {
	marshaller marshal.Marshaller
	logger     *slog.Logger
	purgeAfter time.Duration
}

// RedisOption configures a Redis store.
type RedisOption func(*redisConfig)

// WithRedisMarshaller sets the Marshaller used at the store boundary. The
// default is marshal.JSON.
func WithRedisMarshaller(m marshal.Marshaller) RedisOption {
	return func(c *redisConfig) { c.marshaller = m }
}

// WithRedisLogger sets the logger for store failures. The default is
// slog.Default.
func WithRedisLogger(l *slog.Logger) RedisOption {
	return func(c *redisConfig) { c.logger = l }
}

// WithRedisPurgeAfter sets the age past which ClearOld removes entries. The
// default is DefaultPurgeAfter.
func WithRedisPurgeAfter(d time.Duration) RedisOption {
	return func(c *redisConfig) { c.purgeAfter = d }
}

// Redis is a Store backed by a shared Redis instance, for deployments where
// several processes should share one persistent cache tier. All operations
// fail soft: if Redis is unavailable, reads return a miss and writes are
// silently discarded, matching the best-effort store contract.
type Redis[M any] struct {
	rdb        *redis.Client
	prefix     string
	marshaller marshal.Marshaller
	log        *slog.Logger
	purgeAfter time.Duration
}

// NewRedis creates a Redis-backed store. Keys are namespaced under prefix so
// several content types can share one database.
func NewRedis[M any](addr, password string, db int, prefix string, opts ...RedisOption) *Redis[M] {
	cfg := redisConfig{
		marshaller: marshal.JSON{},
		logger:     slog.Default(),
		purgeAfter: DefaultPurgeAfter,
	}
	for _, o := range opts {
		o(&cfg)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis[M]{
		rdb:        rdb,
		prefix:     prefix,
		marshaller: cfg.marshaller,
		log:        cfg.logger,
		purgeAfter: cfg.purgeAfter,
	}
}

// Get returns the stored model for key. Returns a miss when the key is
// absent, the payload is corrupt (the entry is deleted as repair) or Redis is
// unreachable.
func (s *Redis[M]) Get(ctx context.Context, key string) (M, bool) {
	model, _, ok := s.read(ctx, key)
	return model, ok
}

// GetFresh is Get with a staleness check against the write time recorded in
// the payload envelope. Stale entries are kept.
func (s *Redis[M]) GetFresh(ctx context.Context, key string, ttl time.Duration) (M, bool) {
	var zero M
	model, storedAt, ok := s.read(ctx, key)
	if !ok {
		return zero, false
	}
	if ttl != future.NoExpire && !storedAt.Add(ttl).After(time.Now()) {
		return zero, false
	}
	return model, true
}

// Put marshals and stores the model, overwriting unconditionally. Errors are
// logged and discarded.
func (s *Redis[M]) Put(ctx context.Context, key string, model M) error {
	data, err := s.marshaller.Marshal(model)
	if err != nil {
		return err
	}
	payload := make([]byte, envelopeHeader+len(data))
	binary.BigEndian.PutUint64(payload, uint64(time.Now().UnixMilli()))
	copy(payload[envelopeHeader:], data)
	if err := s.rdb.Set(ctx, s.prefix+key, payload, 0).Err(); err != nil {
		s.log.Warn("redis cache write failed", "key", key, "error", err)
	}
	return nil
}

// Remove deletes the entry for key.
func (s *Redis[M]) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		s.log.Warn("redis cache remove failed", "key", key, "error", err)
	}
	return nil
}

// Clear wipes every entry under the store's prefix. ClearOld keeps entries
// younger than the configured purge window.
func (s *Redis[M]) Clear(ctx context.Context, mode ClearMode) error {
	cutoff := time.Now().Add(-s.purgeAfter)
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if mode == ClearOld {
			payload, err := s.rdb.Get(ctx, key).Bytes()
			if err != nil || len(payload) < envelopeHeader {
				continue
			}
			storedAt := time.UnixMilli(int64(binary.BigEndian.Uint64(payload)))
			if storedAt.After(cutoff) {
				continue
			}
		}
		if err := s.rdb.Del(ctx, key).Err(); err != nil {
			s.log.Warn("redis cache clear failed", "key", key, "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		s.log.Warn("redis cache scan failed", "prefix", s.prefix, "error", err)
		return err
	}
	return nil
}

// ScheduleClear wipes the store on a background goroutine.
func (s *Redis[M]) ScheduleClear(ctx context.Context) {
	go func() {
		_ = s.Clear(context.WithoutCancel(ctx), ClearAll)
	}()
}

// Ping checks the Redis connection.
func (s *Redis[M]) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (s *Redis[M]) Close() error {
	return s.rdb.Close()
}

// read fetches and decodes the envelope for key.
func (s *Redis[M]) read(ctx context.Context, key string) (M, time.Time, bool) {
	var zero M
	payload, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// Fail soft: treat connection errors as a miss.
			s.log.Debug("redis cache read failed", "key", key, "error", err)
		}
		return zero, time.Time{}, false
	}
	if len(payload) < envelopeHeader {
		_ = s.rdb.Del(ctx, s.prefix+key).Err()
		return zero, time.Time{}, false
	}
	storedAt := time.UnixMilli(int64(binary.BigEndian.Uint64(payload)))
	var model M
	if err := s.marshaller.Unmarshal(payload[envelopeHeader:], &model); err != nil {
		s.log.Warn("corrupt redis cache entry, deleting", "key", key, "error", err)
		_ = s.rdb.Del(ctx, s.prefix+key).Err()
		return zero, time.Time{}, false
	}
	return model, storedAt, true
}
