package redis_repository

import (
	"context"
	"strings"
	"testing"
)

func TestCacheKeyDeterministic(t *testing.T) {
	a := cacheKey("User prefers low risk.")
	b := cacheKey("User prefers low risk.")
	if a != b {
		t.Fatalf("same text produced different keys: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, embeddingKeyPrefix) {
		t.Fatalf("key missing prefix: %s", a)
	}
	if c := cacheKey("User prefers high risk."); c == a {
		t.Fatal("different texts collided")
	}
}

func TestCreateEmbeddingEmptyInput(t *testing.T) {
	c := NewEmbeddingCache(nil, nil, 0, nil)
	vectors, err := c.CreateEmbedding(context.Background(), nil)
	if err != nil {
		t.Fatalf("CreateEmbedding: %v", err)
	}
	if vectors != nil {
		t.Fatalf("expected no vectors, got %v", vectors)
	}
}
