// Package l2cache is a Redis-backed second-level result cache for the HTTP
// shell. The engine's own cache is in-process; this tier lets several
// searchd replicas behind one Redis share computed result sets. Concurrent
// fills of the same key are collapsed with singleflight.
package l2cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/searchlite/searchlite"
	"github.com/searchlite/searchlite/pkg/logger"
	"github.com/searchlite/searchlite/pkg/redis"
)

const keyPrefix = "searchlite:results:"

// Cache is the Redis result tier.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a Cache over an established Redis client.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger.WithComponent("l2-cache"),
	}
}

// Get returns the cached result set for the query/options pair, if any.
func (c *Cache) Get(ctx context.Context, query string, opts searchlite.SearchOptions) ([]searchlite.SearchResult, bool) {
	key := c.buildKey(query, opts)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !redis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var results []searchlite.SearchResult
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return results, true
}

// Set stores a result set under the query/options pair.
func (c *Cache) Set(ctx context.Context, query string, opts searchlite.SearchOptions, results []searchlite.SearchResult) {
	key := c.buildKey(query, opts)
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result set or invokes compute to fill
// it, collapsing concurrent fills of the same key. The second return
// reports whether the value came from cache.
func (c *Cache) GetOrCompute(
	ctx context.Context,
	query string,
	opts searchlite.SearchOptions,
	compute func() ([]searchlite.SearchResult, error),
) ([]searchlite.SearchResult, bool, error) {
	if results, ok := c.Get(ctx, query, opts); ok {
		return results, true, nil
	}
	key := c.buildKey(query, opts)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if results, ok := c.Get(ctx, query, opts); ok {
			return results, nil
		}
		results, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, opts, results)
		return results, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]searchlite.SearchResult), false, nil
}

// Invalidate deletes every cached result set.
func (c *Cache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating l2 cache: %w", err)
	}
	c.logger.Info("l2 cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) buildKey(query string, opts searchlite.SearchOptions) string {
	raw := fmt.Sprintf("%s|ranker=%s|max=%d|fuzzy=%t|snippets=%t|explain=%t",
		query, opts.RankerName, opts.MaxResults, opts.FuzzyEnabled,
		opts.GenerateSnippets, opts.ExplainScores)
	sum := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, sum[:16])
}
