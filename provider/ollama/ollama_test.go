package ollama_provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(generateResponse{Model: got.Model, Response: "Diversify across asset classes.", Done: true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tinyllama", "nomic-embed-text", "You are Sarah.", time.Second)
	out, err := c.Generate(context.Background(), "How do I start investing?")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "Diversify across asset classes." {
		t.Fatalf("unexpected completion: %q", out)
	}
	if got.Model != "tinyllama" || got.System != "You are Sarah." || got.Stream {
		t.Fatalf("unexpected request body: %+v", got)
	}
	if got.Prompt != "How do I start investing?" {
		t.Fatalf("prompt not forwarded: %q", got.Prompt)
	}
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tinyllama", "", "", time.Second)
	if _, err := c.Generate(context.Background(), "hello"); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestGenerateUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "tinyllama", "", "", 200*time.Millisecond)
	if _, err := c.Generate(context.Background(), "hello"); err == nil {
		t.Fatal("expected error when server is unreachable")
	}
}

func TestCreateEmbedding(t *testing.T) {
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		prompts = append(prompts, req.Prompt)
		_ = json.NewEncoder(w).Encode(embeddingResponse{Embedding: []float32{float32(len(prompts)), 0.5}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tinyllama", "nomic-embed-text", "", time.Second)
	vectors, err := c.CreateEmbedding(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("CreateEmbedding: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][0] != 2 {
		t.Fatalf("vectors out of order: %v", vectors)
	}
	if len(prompts) != 2 || prompts[0] != "first" || prompts[1] != "second" {
		t.Fatalf("unexpected prompts: %v", prompts)
	}
}

func TestCreateEmbeddingEmptyInput(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "tinyllama", "nomic-embed-text", "", time.Second)
	vectors, err := c.CreateEmbedding(context.Background(), nil)
	if err != nil {
		t.Fatalf("CreateEmbedding: %v", err)
	}
	if vectors != nil {
		t.Fatalf("expected no vectors, got %v", vectors)
	}
}

func TestCreateEmbeddingEmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embeddingResponse{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tinyllama", "nomic-embed-text", "", time.Second)
	if _, err := c.CreateEmbedding(context.Background(), []string{"text"}); err == nil {
		t.Fatal("expected error for empty embedding")
	}
}
