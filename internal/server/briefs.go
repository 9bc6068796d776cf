package server

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/briefops/briefer/internal/brief"
	"github.com/briefops/briefer/internal/store"
)

// Runner is the pipeline surface the handler needs; the engine
// implements it.
type Runner interface {
	Run(ctx context.Context, s brief.State) brief.State
}

// BriefRequest is the inbound generation request.
type BriefRequest struct {
	Topic    string `json:"topic"`
	Depth    int    `json:"depth"`
	FollowUp bool   `json:"follow_up"`
	UserID   string `json:"user_id"`
}

// BriefsHandler serves brief generation and history.
type BriefsHandler struct {
	Runner Runner
	Store  store.Store
	Logger *log.Logger
}

const defaultDepth = 3

// generate runs the pipeline for one request and returns the final
// brief, or the pipeline error when no brief was produced.
func (h *BriefsHandler) generate(c echo.Context) error {
	var req BriefRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Topic == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic is required")
	}
	if req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	if req.Depth == 0 {
		req.Depth = defaultDepth
	}

	state := brief.NewState(req.UserID, req.Topic, req.Depth, req.FollowUp)
	result := h.Runner.Run(c.Request().Context(), state)

	if result.Failed() {
		return echo.NewHTTPError(http.StatusInternalServerError, result.Error)
	}
	if result.FinalBrief == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate brief")
	}
	return c.JSON(http.StatusOK, result.FinalBrief)
}

// history returns the persisted briefs for a user, oldest first.
func (h *BriefsHandler) history(c echo.Context) error {
	userID := c.Param("user_id")
	briefs, err := h.Store.LoadHistory(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if briefs == nil {
		briefs = []brief.FinalBrief{}
	}
	return c.JSON(http.StatusOK, map[string]any{"briefs": briefs})
}
