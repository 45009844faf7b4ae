package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/tropicaldog17/vngold/internal/errors"
	"github.com/tropicaldog17/vngold/internal/fileutil"
)

// entry is the on-disk envelope for one cached value.
type entry struct {
	Timestamp float64         `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// FileCache stores fetched values as <dir>/<key>.json with a write timestamp.
type FileCache struct {
	dir    string
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewFileCache creates a file cache rooted at dir.
func NewFileCache(dir string, ttl time.Duration, logger *zap.Logger) *FileCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileCache{dir: dir, ttl: ttl, logger: logger, now: time.Now}
}

// Key builds the cache key for a provider method.
func Key(provider, method string) string {
	return provider + "_" + method
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// read returns the raw cached data and its age.
func (c *FileCache) read(key string) (json.RawMessage, time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, 0, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil || len(e.Data) == 0 {
		c.logger.Debug("Ignoring unreadable cache entry", zap.String("key", key), zap.Error(err))
		return nil, 0, false
	}
	written := time.Unix(0, int64(e.Timestamp*float64(time.Second)))
	return e.Data, c.now().Sub(written), true
}

func (c *FileCache) write(key string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	now := c.now()
	body, err := json.MarshalIndent(entry{
		Timestamp: float64(now.UnixNano()) / float64(time.Second),
		Data:      payload,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return fileutil.WriteFileAtomic(c.path(key), body)
}

// Invalidate drops a cached value.
func (c *FileCache) Invalidate(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// GetOrFetch returns the cached value for key when it is younger than the
// TTL. Otherwise it calls fetch and stores the result. When fetch fails with
// a source-unavailable error and any cached value exists, the stale value is
// returned instead.
func GetOrFetch[T any](ctx context.Context, c *FileCache, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	raw, age, ok := c.read(key)
	if ok && age < c.ttl {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			c.logger.Debug("Cache hit", zap.String("key", key), zap.Duration("age", age))
			return cached, nil
		}
	}

	value, err := fetch(ctx)
	if err != nil {
		if ok && apperrors.IsSourceUnavailable(err) {
			var stale T
			if jerr := json.Unmarshal(raw, &stale); jerr == nil {
				c.logger.Warn("Serving stale cache entry",
					zap.String("key", key),
					zap.Duration("age", age),
					zap.Error(err))
				return stale, nil
			}
		}
		return zero, err
	}

	if werr := c.write(key, value); werr != nil {
		c.logger.Warn("Failed to write cache entry", zap.String("key", key), zap.Error(werr))
	}
	return value, nil
}
