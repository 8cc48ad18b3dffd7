package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/burrowkit/burrow/future"
	"github.com/burrowkit/burrow/marshal"
)

// fsConfig holds the internal configuration assembled via functional options.
type fsConfig struct {
	marshaller marshal.Marshaller
	logger     *slog.Logger
	purgeAfter time.Duration
}

// FSOption configures an FS store.
type FSOption func(*fsConfig)

// WithFSMarshaller sets the Marshaller used at the store boundary. The
// default is marshal.JSON.
func WithFSMarshaller(m marshal.Marshaller) FSOption {
	return func(c *fsConfig) { c.marshaller = m }
}

// WithFSLogger sets the logger for I/O failures. The default is slog.Default.
func WithFSLogger(l *slog.Logger) FSOption {
	return func(c *fsConfig) { c.logger = l }
}

// WithFSPurgeAfter sets the age past which ClearOld removes entries. The
// default is DefaultPurgeAfter.
func WithFSPurgeAfter(d time.Duration) FSOption {
	return func(c *fsConfig) { c.purgeAfter = d }
}

// FS is a filesystem-backed Store keeping one file per key inside a
// per-content-type subfolder; the filename is the cache key verbatim.
// Staleness is derived from file modification times.
type FS[M any] struct {
	dir        string
	marshaller marshal.Marshaller
	log        *slog.Logger
	purgeAfter time.Duration
}

// NewFS creates a filesystem store rooted at baseDir/folder, creating the
// directory if needed.
func NewFS[M any](baseDir, folder string, opts ...FSOption) (*FS[M], error) {
	if baseDir == "" {
		return nil, errors.New("storage: base directory required")
	}
	cfg := fsConfig{
		marshaller: marshal.JSON{},
		logger:     slog.Default(),
		purgeAfter: DefaultPurgeAfter,
	}
	for _, o := range opts {
		o(&cfg)
	}

	dir, err := filepath.Abs(filepath.Join(baseDir, folder))
	if err != nil {
		return nil, fmt.Errorf("storage: resolve cache path: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create cache path: %w", err)
	}
	return &FS[M]{
		dir:        dir,
		marshaller: cfg.marshaller,
		log:        cfg.logger,
		purgeAfter: cfg.purgeAfter,
	}, nil
}

// Get returns the stored model for key. Undecodable files are deleted as a
// repair side effect and reported as a miss.
func (s *FS[M]) Get(ctx context.Context, key string) (M, bool) {
	var zero M
	path, err := s.path(key)
	if err != nil {
		return zero, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("cache read failed", "key", key, "error", err)
		}
		return zero, false
	}
	var model M
	if err := s.marshaller.Unmarshal(data, &model); err != nil {
		s.log.Warn("corrupt cache entry, deleting", "key", key, "error", err)
		_ = os.Remove(path)
		return zero, false
	}
	return model, true
}

// GetFresh returns the stored model only when its file modification time plus
// ttl is still in the future. Stale entries are kept.
func (s *FS[M]) GetFresh(ctx context.Context, key string, ttl time.Duration) (M, bool) {
	var zero M
	path, err := s.path(key)
	if err != nil {
		return zero, false
	}
	if ttl != future.NoExpire {
		info, err := os.Stat(path)
		if err != nil {
			return zero, false
		}
		if !info.ModTime().Add(ttl).After(time.Now()) {
			return zero, false
		}
	}
	return s.Get(ctx, key)
}

// Put marshals the model and replaces the entry for key atomically via a
// temp file and rename.
func (s *FS[M]) Put(ctx context.Context, key string, model M) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	data, err := s.marshaller.Marshal(model)
	if err != nil {
		return fmt.Errorf("storage: marshal %q: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
		return err
	}
	tmpName := tmp.Name()
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Rename(tmpName, path)
	}
	if werr != nil {
		_ = os.Remove(tmpName)
		s.log.Warn("cache write failed", "key", key, "error", werr)
		return werr
	}
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		s.log.Warn("cache mtime update failed", "key", key, "error", err)
	}
	return nil
}

// Remove deletes the entry for key.
func (s *FS[M]) Remove(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("cache remove failed", "key", key, "error", err)
		return err
	}
	return nil
}

// Clear wipes the store. ClearOld keeps entries younger than the configured
// purge window.
func (s *FS[M]) Clear(ctx context.Context, mode ClearMode) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Warn("cache clear failed", "dir", s.dir, "error", err)
		return err
	}
	cutoff := time.Now().Add(-s.purgeAfter)
	var firstErr error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			continue
		}
		if mode == ClearOld {
			info, err := entry.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		s.log.Warn("cache clear incomplete", "dir", s.dir, "error", firstErr)
	}
	return firstErr
}

// ScheduleClear wipes the store on a background goroutine.
func (s *FS[M]) ScheduleClear(ctx context.Context) {
	go func() {
		_ = s.Clear(context.WithoutCancel(ctx), ClearAll)
	}()
}

// path maps a cache key to its backing file, rejecting keys that would
// escape the store directory.
func (s *FS[M]) path(key string) (string, error) {
	if key == "" {
		return "", errors.New("storage: empty cache key")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("storage: invalid cache key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}
