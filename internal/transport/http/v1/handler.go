// Package v1 provides the v1 HTTP handlers for the intake service.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/evergreenbh/intake/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		service: svc,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Conversation lifecycle
	e.POST("/v1/conversations", h.CreateConversation)
	e.GET("/v1/conversations/:conversation_id/greeting", h.GetGreeting)
	e.POST("/v1/conversations/:conversation_id/turns", h.PostTurn)
	e.POST("/v1/conversations/:conversation_id/resume", h.Resume)
	e.GET("/v1/conversations/:conversation_id/progress", h.GetProgress)
	e.GET("/v1/conversations/:conversation_id/ws", h.HandleWebSocket)

	// Audit / clinical tooling (read-only)
	e.GET("/v1/conversations/:conversation_id/messages", h.GetMessages)
	e.GET("/v1/conversations/:conversation_id/responses", h.GetResponses)
	e.GET("/v1/conversations/:conversation_id/crisis-events", h.GetCrisisEvents)
	e.GET("/v1/conversations/:conversation_id/summary", h.GetSummary)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrResumeNotAllowed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func jsonError(c echo.Context, err error) error {
	return c.JSON(errorStatus(err), map[string]string{"error": err.Error()})
}
