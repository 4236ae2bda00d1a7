// Package memory implements the retrieval layer between chat input and the
// language model: an append-only fact store backed by vector similarity
// search, the ingestion rules that derive facts from conversation events, and
// the importance/recency ranking applied to search results.
package memory

import (
	"errors"
	"time"
)

// Recognized metadata keys. None are enforced by a schema; downstream
// consumers pick out the ones they understand.
const (
	MetaType       = "type"
	MetaImportance = "importance"
	MetaTimestamp  = "timestamp"
	MetaCategory   = "category"
	MetaSource     = "source"
	MetaUserID     = "userId"
)

// Document types consumed downstream.
const (
	TypeFinancialProfile    = "financial_profile"
	TypeUserMessage         = "user_message"
	TypeAIResponse          = "ai_response"
	TypeUserPreference      = "user_preference"
	TypeConversationContext = "conversation_context"
	TypeMarketCommentary    = "market_commentary"
)

// Importance levels. Absent importance ranks lowest.
const (
	ImportanceHigh   = "high"
	ImportanceMedium = "medium"
	ImportanceLow    = "low"
)

var (
	// ErrStoreUnavailable signals the backing similarity-search service
	// cannot be reached or the store was never initialized.
	ErrStoreUnavailable = errors.New("context store unavailable")
	// ErrWriteFailed signals a backend error while appending a document.
	ErrWriteFailed = errors.New("context write failed")
	// ErrQueryFailed signals a backend error while searching.
	ErrQueryFailed = errors.New("context query failed")
	// ErrMalformedProfile signals profile JSON that could not be parsed for
	// derived-fact extraction. The raw profile document is still written.
	ErrMalformedProfile = errors.New("malformed financial profile")
)

// Document is one atomic fact offered to the language model.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]interface{}
}

// Timestamp returns the document's metadata timestamp, or the zero time when
// it is absent or unparsable (such documents rank as oldest).
func (d Document) Timestamp() time.Time {
	raw, ok := d.Metadata[MetaTimestamp].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if t, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return time.Time{}
		}
	}
	return t
}

func (d Document) metaString(key string) string {
	v, _ := d.Metadata[key].(string)
	return v
}

// Type returns the document's metadata type, or "" when absent.
func (d Document) Type() string { return d.metaString(MetaType) }

// Importance returns the document's metadata importance, or "" when absent.
func (d Document) Importance() string { return d.metaString(MetaImportance) }
