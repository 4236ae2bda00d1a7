package redis_repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const embeddingKeyPrefix = "embedding:"

// embedder matches the provider's embedding surface.
type embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingCache caches embedding vectors in Redis, keyed by the SHA-256 of
// the input text. Ingestion re-embeds the same sentences constantly (profile
// updates, repeated keyword signals), so hits are common. Cache failures fall
// through to the inner embedder.
type EmbeddingCache struct {
	client *redis.Client
	inner  embedder
	ttl    time.Duration
	logger *log.Logger
}

// NewEmbeddingCache wraps an embedder with a Redis cache.
func NewEmbeddingCache(client *redis.Client, inner embedder, ttl time.Duration, logger *log.Logger) *EmbeddingCache {
	if logger == nil {
		logger = log.New(log.Writer(), "[EMBCACHE] ", log.LstdFlags)
	}
	return &EmbeddingCache{client: client, inner: inner, ttl: ttl, logger: logger}
}

// CreateEmbedding returns cached vectors where available and embeds only the
// misses, preserving input order.
func (c *EmbeddingCache) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		vec, err := c.get(ctx, text)
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				c.logger.Printf("warn: embedding cache read failed: %v", err)
			}
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, text)
			continue
		}
		vectors[i] = vec
	}

	if len(missTexts) > 0 {
		fresh, err := c.inner.CreateEmbedding(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		if len(fresh) != len(missTexts) {
			return nil, errors.New("embedder returned unexpected vector count")
		}
		for j, vec := range fresh {
			vectors[missIdx[j]] = vec
			if err := c.set(ctx, missTexts[j], vec); err != nil {
				c.logger.Printf("warn: embedding cache write failed: %v", err)
			}
		}
	}
	return vectors, nil
}

func (c *EmbeddingCache) get(ctx context.Context, text string) ([]float32, error) {
	data, err := c.client.Get(ctx, cacheKey(text)).Bytes()
	if err != nil {
		return nil, err
	}
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, redis.Nil
	}
	return vec, nil
}

func (c *EmbeddingCache) set(ctx context.Context, text string, vec []float32) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(text), data, c.ttl).Err()
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return embeddingKeyPrefix + hex.EncodeToString(sum[:])
}
