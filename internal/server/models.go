package server

import "time"

// HTTPError is the unified error envelope returned by all endpoints.
type HTTPError struct {
	Error string `json:"error"`
}

type ChatSendRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

type ChatMessageResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatSendResponse struct {
	UserMessage      ChatMessageResponse `json:"user_message"`
	AssistantMessage ChatMessageResponse `json:"assistant_message"`
}

type ChatHistoryResponse struct {
	Messages []ChatMessageResponse `json:"messages"`
}

type AdviceRequest struct {
	UserID           string `json:"user_id"`
	Query            string `json:"query"`
	FinancialProfile string `json:"financial_profile,omitempty"`
}

type AdviceResponse struct {
	Advice string `json:"advice"`
}

type ContextAddRequest struct {
	UserID   string                 `json:"user_id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type ContextSearchRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
}

type ContextDocumentResponse struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type ContextSearchResponse struct {
	Query   string                    `json:"query"`
	Results []ContextDocumentResponse `json:"results"`
}
