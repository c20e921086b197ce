// Package redis caches embeddings in Redis.
//
// Summaries are re-embedded whenever a failed document is retried, and
// popular questions are embedded on every ask; both hit the cache.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/bruteforce"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingService = (*EmbeddingCache)(nil)

const keyPrefix = "docchat:emb:"

// client is the subset of *goredis.Client the cache uses.
type client interface {
	MGet(ctx context.Context, keys ...string) *goredis.SliceCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Ping(ctx context.Context) *goredis.StatusCmd
	Close() error
}

// EmbeddingCache wraps an EmbeddingService with a read-through Redis cache
// keyed by model and text. Cache failures are logged and never fail a call.
type EmbeddingCache struct {
	inner  driven.EmbeddingService
	client client
	ttl    time.Duration
	log    *zap.Logger
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewEmbeddingCache connects to Redis and wraps inner.
func NewEmbeddingCache(ctx context.Context, inner driven.EmbeddingService, opts Options, log *zap.Logger) (*EmbeddingCache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return newEmbeddingCache(inner, rdb, opts.TTL, log), nil
}

func newEmbeddingCache(inner driven.EmbeddingService, c client, ttl time.Duration, log *zap.Logger) *EmbeddingCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &EmbeddingCache{inner: inner, client: c, ttl: ttl, log: log}
}

// Embed returns the cached vector for text or embeds and caches it.
func (c *EmbeddingCache) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch looks all texts up at once and embeds only the misses.
func (c *EmbeddingCache) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.key(t)
	}

	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.Warn("embedding cache read failed", zap.Error(err))
		values = make([]any, len(texts))
	}
	for i, v := range values {
		if vec := c.decode(v); vec != nil {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, texts[i])
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	embedded, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(missTexts) {
		return nil, fmt.Errorf("embedding cache: got %d vectors for %d texts", len(embedded), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = embedded[j]
		if err := c.client.Set(ctx, keys[i], bruteforce.Encode(embedded[j]), c.ttl).Err(); err != nil {
			c.log.Warn("embedding cache write failed", zap.Error(err))
		}
	}

	c.log.Debug("embedding cache",
		zap.Int("hits", len(texts)-len(missTexts)),
		zap.Int("misses", len(missTexts)))
	return out, nil
}

func (c *EmbeddingCache) decode(v any) []float32 {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	vec, err := bruteforce.Decode([]byte(s))
	if err != nil || len(vec) != c.inner.Dimensions() {
		return nil
	}
	return vec
}

// key hashes model and text so long inputs make short keys.
func (c *EmbeddingCache) key(text string) string {
	sum := sha256.Sum256([]byte(c.inner.ModelName() + "\x00" + text))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Dimensions returns the wrapped service's dimensions.
func (c *EmbeddingCache) Dimensions() int {
	return c.inner.Dimensions()
}

// ModelName returns the wrapped service's model.
func (c *EmbeddingCache) ModelName() string {
	return c.inner.ModelName()
}

// Ping checks the wrapped service; Redis is optional.
func (c *EmbeddingCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.log.Warn("embedding cache unreachable", zap.Error(err))
	}
	return c.inner.Ping(ctx)
}

// Close closes the Redis client and the wrapped service.
func (c *EmbeddingCache) Close() error {
	cerr := c.client.Close()
	if err := c.inner.Close(); err != nil {
		return err
	}
	return cerr
}
