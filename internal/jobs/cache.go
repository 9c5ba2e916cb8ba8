package jobs

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"dreamforge/internal/config"
	"dreamforge/internal/errors"
	"dreamforge/internal/types"

	"github.com/redis/go-redis/v9"
)

// Cache keeps raw feed results in memory (L1) and optionally in Redis (L2).
// Scores are never cached; they depend on the requesting user.
type Cache struct {
	l1         sync.Map // key -> *cacheEntry
	rdb        *redis.Client
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	hits   atomic.Int64
	misses atomic.Int64

	stopOnce sync.Once
	stop     chan struct{}
	logger   *errors.Logger
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewCache builds a cache from config. A nil cache is returned when caching is disabled.
// An unreachable Redis only disables L2.
func NewCache(cfg config.JobCacheConfig, logger *errors.Logger) *Cache {
	if !cfg.Enabled || cfg.TTL <= 0 {
		return nil
	}

	c := &Cache{
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		now:        time.Now,
		stop:       make(chan struct{}),
		logger:     logger,
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			c.warn("Invalid job cache Redis URL, L2 disabled", err)
		} else {
			rdb := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				c.warn("Job cache Redis unreachable, L2 disabled", err)
				_ = rdb.Close()
			} else {
				c.rdb = rdb
				if logger != nil {
					logger.Info("Job cache L2 connected", "addr", opts.Addr)
				}
			}
		}
	}

	if logger != nil {
		logger.Info("Job cache initialized", "ttl", cfg.TTL, "redis", c.rdb != nil, "max_entries", cfg.MaxEntries)
	}

	go c.cleanupLoop(cfg.TTL)
	return c
}

func (c *Cache) warn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, "error", err.Error())
	}
}

// CacheKey builds a deterministic key from parts
func CacheKey(parts ...string) string {
	joined := strings.ToLower(strings.Join(parts, "|"))
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("df:jobs:%x", hash[:12])
}

// Get tries L1 then L2. An L2 hit repopulates L1.
func (c *Cache) Get(ctx context.Context, key string) ([]types.JobPosting, bool) {
	if c == nil {
		return nil, false
	}

	if val, ok := c.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if c.now().Before(entry.expiresAt) {
			var out []types.JobPosting
			if json.Unmarshal(entry.data, &out) == nil {
				c.hits.Add(1)
				return out, true
			}
		}
		c.l1.Delete(key)
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var out []types.JobPosting
			if json.Unmarshal(data, &out) == nil {
				c.hits.Add(1)
				c.l1.Store(key, &cacheEntry{data: data, expiresAt: c.now().Add(c.ttl)})
				return out, true
			}
		}
	}

	c.misses.Add(1)
	return nil, false
}

// Set stores postings in both tiers
func (c *Cache) Set(ctx context.Context, key string, postings []types.JobPosting) {
	if c == nil {
		return
	}

	data, err := json.Marshal(postings)
	if err != nil {
		return
	}

	c.evictIfNeeded()
	c.l1.Store(key, &cacheEntry{data: data, expiresAt: c.now().Add(c.ttl)})

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil && c.logger != nil {
			c.logger.Debug("Job cache L2 set failed", "error", err.Error())
		}
	}
}

// Stats returns hit and miss counters
func (c *Cache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

// Len counts L1 entries, expired ones included
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	n := 0
	c.l1.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close stops the cleanup loop and the Redis client
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	c.stopOnce.Do(func() { close(c.stop) })
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// evictIfNeeded drops expired entries first, then the ones closest to expiry
func (c *Cache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}

	count := c.Len()
	if count < c.maxEntries {
		return
	}

	now := c.now()
	c.l1.Range(func(key, val any) bool {
		if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
			c.l1.Delete(key)
			count--
		}
		return count >= c.maxEntries
	})

	for count >= c.maxEntries {
		var oldestKey any
		var oldestAt time.Time
		c.l1.Range(func(key, val any) bool {
			entry, ok := val.(*cacheEntry)
			if ok && (oldestKey == nil || entry.expiresAt.Before(oldestAt)) {
				oldestKey = key
				oldestAt = entry.expiresAt
			}
			return true
		})
		if oldestKey == nil {
			break
		}
		c.l1.Delete(oldestKey)
		count--
	}
}

func (c *Cache) removeExpired() {
	now := c.now()
	c.l1.Range(func(key, val any) bool {
		if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
			c.l1.Delete(key)
		}
		return true
	})
}

func (c *Cache) cleanupLoop(ttl time.Duration) {
	interval := min(ttl, 5*time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}
