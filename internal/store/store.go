package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

type Store struct {
	DB *sql.DB
}

// DefaultEmbeddingDimensions indicates the expected length of vectors stored
// in the context_documents embedding column.
const DefaultEmbeddingDimensions = 768

// Chat message roles persisted alongside advisory conversations.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ContextDocumentRecord is one stored fact offered to the language model.
// Recognized metadata keys are promoted to columns; everything else lives in
// the metadata JSON blob.
type ContextDocumentRecord struct {
	ID         string
	UserID     string
	Content    string
	DocType    string
	Importance string
	Category   string
	Source     string
	Metadata   map[string]interface{}
	Embedding  []float32
	CreatedAt  time.Time
}

// ContextSearchResult is a stored document plus its similarity distance.
type ContextSearchResult struct {
	ContextDocumentRecord
	Distance float64
}

// ChatMessage is one persisted conversation turn.
type ChatMessage struct {
	ID        string
	UserID    string
	Role      string
	Content   string
	CreatedAt time.Time
}

// NewWithDSN opens a postgres connection and verifies it.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

// Ping verifies the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.DB.Close()
}

// InsertContextDocument appends one context document. Documents are immutable;
// there is no update or delete path.
func (s *Store) InsertContextDocument(ctx context.Context, rec ContextDocumentRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("document id required")
	}
	if strings.TrimSpace(rec.Content) == "" {
		return fmt.Errorf("document content required")
	}
	if len(rec.Embedding) == 0 {
		return fmt.Errorf("embedding vector required")
	}
	vectorLiteral, err := encodeVectorLiteral(rec.Embedding)
	if err != nil {
		return err
	}
	metaBytes, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO context_documents (id, user_id, content, doc_type, importance, category, source, metadata, embedding, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::vector,$10)
`, rec.ID, rec.UserID, rec.Content, rec.DocType, rec.Importance, rec.Category, rec.Source, metaBytes, vectorLiteral, createdAt)
	if err != nil {
		return fmt.Errorf("insert context document: %w", err)
	}
	return nil
}

// SearchContextDocuments returns the closest documents for the supplied
// vector, most similar first, scoped to one user's namespace.
func (s *Store) SearchContextDocuments(ctx context.Context, userID string, vector []float32, topK int) ([]ContextSearchResult, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector must not be empty")
	}
	if topK <= 0 {
		topK = 5
	}
	vecLiteral, err := encodeVectorLiteral(vector)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, user_id, content, doc_type, importance, category, source, metadata, created_at, embedding <=> $1::vector AS distance
FROM context_documents
WHERE ($2 = '' OR user_id = $2)
ORDER BY embedding <=> $1::vector
LIMIT $3
`, vecLiteral, userID, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []ContextSearchResult
	for rows.Next() {
		var (
			res       ContextSearchResult
			metaBytes []byte
		)
		if err := rows.Scan(&res.ID, &res.UserID, &res.Content, &res.DocType, &res.Importance, &res.Category, &res.Source, &metaBytes, &res.CreatedAt, &res.Distance); err != nil {
			return nil, err
		}
		if len(metaBytes) > 0 {
			_ = json.Unmarshal(metaBytes, &res.Metadata)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// SaveChatMessage persists one conversation turn.
func (s *Store) SaveChatMessage(ctx context.Context, msg ChatMessage) error {
	if msg.ID == "" {
		return fmt.Errorf("message id required")
	}
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO chat_messages (id, user_id, role, content, created_at)
VALUES ($1,$2,$3,$4,$5)
`, msg.ID, msg.UserID, msg.Role, msg.Content, createdAt)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// ListChatMessages returns a user's chat history, most recent first.
func (s *Store) ListChatMessages(ctx context.Context, userID string, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, user_id, role, content, created_at
FROM chat_messages
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func encodeVectorLiteral(vec []float32) (string, error) {
	if len(vec) == 0 {
		return "", fmt.Errorf("vector must not be empty")
	}
	var builder strings.Builder
	builder.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	builder.WriteByte(']')
	return builder.String(), nil
}
