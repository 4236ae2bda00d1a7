package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/fincoach/internal/advisor"
	"github.com/mohammad-safakhou/fincoach/internal/store"
)

// chatStore is the persistence surface the chat endpoints need.
type chatStore interface {
	SaveChatMessage(ctx context.Context, msg store.ChatMessage) error
	ListChatMessages(ctx context.Context, userID string, limit int) ([]store.ChatMessage, error)
}

// ChatHandler runs the advice pipeline for inbound messages and persists
// both sides of the exchange.
type ChatHandler struct {
	Store   chatStore
	Advisor adviceService
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/messages", h.send)
	g.GET("/messages", h.history)
}

func (h *ChatHandler) send(c echo.Context) error {
	var req ChatSendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and content required")
	}
	ctx := c.Request().Context()

	userMsg := store.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Role:      store.ChatRoleUser,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SaveChatMessage(ctx, userMsg); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	advice, err := h.Advisor.Advise(ctx, req.UserID, req.Content, "")
	if err != nil {
		if errors.Is(err, advisor.ErrModelUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "advisor temporarily unavailable")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	assistantMsg := store.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Role:      store.ChatRoleAssistant,
		Content:   advice,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SaveChatMessage(ctx, assistantMsg); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, ChatSendResponse{
		UserMessage:      toChatResponse(userMsg),
		AssistantMessage: toChatResponse(assistantMsg),
	})
}

func (h *ChatHandler) history(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id required")
	}
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = v
	}
	msgs, err := h.Store.ListChatMessages(c.Request().Context(), userID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := ChatHistoryResponse{Messages: make([]ChatMessageResponse, 0, len(msgs))}
	for _, m := range msgs {
		out.Messages = append(out.Messages, toChatResponse(m))
	}
	return c.JSON(http.StatusOK, out)
}

func toChatResponse(m store.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        m.ID,
		UserID:    m.UserID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
