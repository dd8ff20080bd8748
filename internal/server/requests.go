package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/probaah/probaah/internal/orchestrator"
	"github.com/probaah/probaah/internal/tools"
)

// WorkflowService is the orchestrator surface the HTTP layer depends on.
type WorkflowService interface {
	ProcessRequest(ctx context.Context, text string, reqContext map[string]string) orchestrator.WorkflowResult
	GetHistory() []orchestrator.WorkflowResult
	ClearHistory()
	ToolStatus() []tools.Status
}

// RequestsHandler exposes request processing, history and tool status.
type RequestsHandler struct {
	Service WorkflowService
}

func (h *RequestsHandler) Register(g *echo.Group) {
	g.POST("/requests", h.process)
	g.GET("/history", h.history)
	g.DELETE("/history", h.clear)
	g.GET("/tools", h.toolStatus)
}

type processRequest struct {
	Text    string            `json:"text"`
	Context map[string]string `json:"context,omitempty"`
}

type historyResponse struct {
	Count   int                           `json:"count"`
	Results []orchestrator.WorkflowResult `json:"results"`
}

func (h *RequestsHandler) process(c echo.Context) error {
	var req processRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	result := h.Service.ProcessRequest(c.Request().Context(), req.Text, req.Context)
	return c.JSON(http.StatusOK, result)
}

func (h *RequestsHandler) history(c echo.Context) error {
	results := h.Service.GetHistory()
	return c.JSON(http.StatusOK, historyResponse{Count: len(results), Results: results})
}

func (h *RequestsHandler) clear(c echo.Context) error {
	h.Service.ClearHistory()
	return c.NoContent(http.StatusNoContent)
}

func (h *RequestsHandler) toolStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Service.ToolStatus())
}
