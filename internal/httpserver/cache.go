package httpserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// responseCache memoizes /simulate responses by a hash of the request
// body: the engine is a pure function of its input, so a cache hit is
// always a safe substitute for re-running the simulation.
type responseCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func newResponseCache(client *redis.Client, ttl time.Duration) *responseCache {
	return &responseCache{redis: client, ttl: ttl}
}

func cacheKeyFor(prefix string, body []byte) string {
	sum := sha256.Sum256(body)
	return prefix + ":" + hex.EncodeToString(sum[:])
}

func (c *responseCache) get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.redis == nil {
		return false
	}
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *responseCache) set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.redis == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	// Best-effort: a cache write failure never fails the request that
	// produced the response.
	c.redis.Set(ctx, key, raw, c.ttl)
}
