package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/fincoach/internal/memory"
)

// contextStore is the memory surface the context endpoints need.
type contextStore interface {
	AddDocument(ctx context.Context, doc memory.Document) error
	Query(ctx context.Context, userID, question string, limit int) ([]memory.Document, error)
}

// ContextHandler exposes the context store for inspection and backfill.
type ContextHandler struct {
	Memory   contextStore
	Ingestor *memory.Ingestor
}

func (h *ContextHandler) Register(g *echo.Group) {
	g.POST("/documents", h.add)
	g.POST("/search", h.search)
}

func (h *ContextHandler) add(c echo.Context) error {
	var req ContextAddRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and text required")
	}
	meta := req.Metadata
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta[memory.MetaUserID] = req.UserID

	err := h.Memory.AddDocument(c.Request().Context(), memory.Document{Text: req.Text, Metadata: meta})
	if err != nil {
		return contextError(err)
	}
	return c.NoContent(http.StatusCreated)
}

func (h *ContextHandler) search(c echo.Context) error {
	var req ContextSearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and query required")
	}
	docs, err := h.Memory.Query(c.Request().Context(), req.UserID, req.Query, req.Limit)
	if err != nil {
		return contextError(err)
	}
	ranked := memory.Rank(docs)
	out := ContextSearchResponse{Query: req.Query, Results: make([]ContextDocumentResponse, 0, len(ranked))}
	for _, d := range ranked {
		out.Results = append(out.Results, ContextDocumentResponse{ID: d.ID, Text: d.Text, Metadata: d.Metadata})
	}
	return c.JSON(http.StatusOK, out)
}

func contextError(err error) error {
	if errors.Is(err, memory.ErrStoreUnavailable) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "context store unavailable")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
