package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/fincoach/internal/advisor"
)

// adviceService is the pipeline surface the HTTP layer needs.
type adviceService interface {
	Advise(ctx context.Context, userID, query, profileJSON string) (string, error)
}

// AdviceHandler exposes the advice pipeline directly, without persisting the
// exchange as chat history.
type AdviceHandler struct {
	Advisor adviceService
}

func (h *AdviceHandler) Register(g *echo.Group) {
	g.POST("", h.advise)
}

func (h *AdviceHandler) advise(c echo.Context) error {
	var req AdviceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and query required")
	}

	advice, err := h.Advisor.Advise(c.Request().Context(), req.UserID, req.Query, req.FinancialProfile)
	if err != nil {
		if errors.Is(err, advisor.ErrModelUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "advisor temporarily unavailable")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, AdviceResponse{Advice: advice})
}
