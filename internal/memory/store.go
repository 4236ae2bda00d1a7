package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/fincoach/internal/store"
)

// DefaultQueryLimit is the result count used when a caller passes limit <= 0.
const DefaultQueryLimit = 5

// Embedder turns texts into vectors for similarity search.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// docStore is the slice of the persistence layer the memory store needs.
type docStore interface {
	Ping(ctx context.Context) error
	InsertContextDocument(ctx context.Context, rec store.ContextDocumentRecord) error
	SearchContextDocuments(ctx context.Context, userID string, vector []float32, topK int) ([]store.ContextSearchResult, error)
}

// Store wraps the similarity-search backend. Callers only ever append;
// documents are never mutated or deleted.
type Store struct {
	db       docStore
	embedder Embedder
	logger   *log.Logger

	defaultLimit int

	initMu      sync.Mutex
	initialized bool
}

// NewStore builds a context store over the given backend and embedder.
func NewStore(db docStore, embedder Embedder, defaultLimit int, logger *log.Logger) *Store {
	if defaultLimit <= 0 {
		defaultLimit = DefaultQueryLimit
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[CONTEXT] ", log.LstdFlags)
	}
	return &Store{db: db, embedder: embedder, defaultLimit: defaultLimit, logger: logger}
}

// Initialize verifies the backing service is reachable. Idempotent and safe
// to call concurrently; the first caller wins and the rest observe the
// already-initialized store.
func (s *Store) Initialize(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.initialized {
		return nil
	}
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.initialized = true
	return nil
}

func (s *Store) ready() bool {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	return s.initialized
}

// AddDocument appends one document. A caller-supplied id is honored;
// otherwise a random UUID is assigned so concurrent writes cannot collide.
// A timestamp is stamped in when the caller did not supply one.
func (s *Store) AddDocument(ctx context.Context, doc Document) error {
	if !s.ready() {
		return fmt.Errorf("%w: not initialized", ErrStoreUnavailable)
	}
	if strings.TrimSpace(doc.Text) == "" {
		return fmt.Errorf("%w: empty document text", ErrWriteFailed)
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]interface{}{}
	}
	if _, ok := doc.Metadata[MetaTimestamp]; !ok {
		doc.Metadata[MetaTimestamp] = time.Now().UTC().Format(time.RFC3339)
	}

	vectors, err := s.embedder.CreateEmbedding(ctx, []string{doc.Text})
	if err != nil {
		return fmt.Errorf("%w: embed: %v", ErrWriteFailed, err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("%w: embedder returned no vectors", ErrWriteFailed)
	}

	rec := recordFromDocument(doc)
	rec.Embedding = vectors[0]
	if err := s.db.InsertContextDocument(ctx, rec); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// Query returns up to limit documents for the question, most similar first
// per the backing service's own metric. limit <= 0 uses the default.
func (s *Store) Query(ctx context.Context, userID, question string, limit int) ([]Document, error) {
	if !s.ready() {
		return nil, fmt.Errorf("%w: not initialized", ErrStoreUnavailable)
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	vectors, err := s.embedder.CreateEmbedding(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("%w: embed: %v", ErrQueryFailed, err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: embedder returned no vectors", ErrQueryFailed)
	}
	results, err := s.db.SearchContextDocuments(ctx, userID, vectors[0], limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	docs := make([]Document, 0, len(results))
	for _, res := range results {
		docs = append(docs, documentFromRecord(res.ContextDocumentRecord))
	}
	return docs, nil
}

// recordFromDocument promotes recognized metadata keys to columns and keeps
// the full metadata map alongside.
func recordFromDocument(doc Document) store.ContextDocumentRecord {
	rec := store.ContextDocumentRecord{
		ID:       doc.ID,
		Content:  doc.Text,
		Metadata: doc.Metadata,
	}
	if v, ok := doc.Metadata[MetaUserID].(string); ok {
		rec.UserID = v
	}
	if v, ok := doc.Metadata[MetaType].(string); ok {
		rec.DocType = v
	}
	if v, ok := doc.Metadata[MetaImportance].(string); ok {
		rec.Importance = v
	}
	if v, ok := doc.Metadata[MetaCategory].(string); ok {
		rec.Category = v
	}
	if v, ok := doc.Metadata[MetaSource].(string); ok {
		rec.Source = v
	}
	if v, ok := doc.Metadata[MetaTimestamp].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			rec.CreatedAt = t
		}
	}
	return rec
}

func documentFromRecord(rec store.ContextDocumentRecord) Document {
	meta := map[string]interface{}{}
	for k, v := range rec.Metadata {
		meta[k] = v
	}
	if rec.DocType != "" {
		meta[MetaType] = rec.DocType
	}
	if rec.Importance != "" {
		meta[MetaImportance] = rec.Importance
	}
	if rec.Category != "" {
		meta[MetaCategory] = rec.Category
	}
	if rec.Source != "" {
		meta[MetaSource] = rec.Source
	}
	if rec.UserID != "" {
		meta[MetaUserID] = rec.UserID
	}
	if _, ok := meta[MetaTimestamp]; !ok && !rec.CreatedAt.IsZero() {
		meta[MetaTimestamp] = rec.CreatedAt.UTC().Format(time.RFC3339)
	}
	return Document{ID: rec.ID, Text: rec.Content, Metadata: meta}
}
