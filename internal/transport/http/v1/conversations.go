package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/evergreenbh/intake/internal/domain"
)

// CreateConversation starts a new screener administration.
// POST /v1/conversations
func (h *Handler) CreateConversation(c echo.Context) error {
	var req domain.CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	conv, err := h.service.CreateConversation(c.Request().Context(), req)
	if err != nil {
		// Unknown screener types and roles are rejected before any state exists.
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, conv)
}

// GetGreeting returns the opening assistant message.
// GET /v1/conversations/:conversation_id/greeting
func (h *Handler) GetGreeting(c echo.Context) error {
	conversationID := c.Param("conversation_id")

	msg, err := h.service.Greeting(c.Request().Context(), conversationID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

// GetProgress reports screener progress.
// GET /v1/conversations/:conversation_id/progress
func (h *Handler) GetProgress(c echo.Context) error {
	conversationID := c.Param("conversation_id")

	progress, err := h.service.Progress(c.Request().Context(), conversationID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, progress)
}

// Resume reopens a conversation paused for crisis. The body carries the
// explicit safety acknowledgment gesture from the caller.
// POST /v1/conversations/:conversation_id/resume
func (h *Handler) Resume(c echo.Context) error {
	conversationID := c.Param("conversation_id")

	var req domain.ResumeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	progress, err := h.service.Resume(c.Request().Context(), conversationID, req)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, progress)
}

// GetMessages retrieves the full message history for a conversation.
// GET /v1/conversations/:conversation_id/messages
func (h *Handler) GetMessages(c echo.Context) error {
	conversationID := c.Param("conversation_id")
	limit := 0
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}

	messages, err := h.service.GetMessages(c.Request().Context(), conversationID, limit)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}

// GetResponses retrieves the structured screener responses.
// GET /v1/conversations/:conversation_id/responses
func (h *Handler) GetResponses(c echo.Context) error {
	conversationID := c.Param("conversation_id")

	responses, err := h.service.GetResponses(c.Request().Context(), conversationID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"responses": responses,
	})
}

// GetCrisisEvents retrieves the crisis audit trail.
// GET /v1/conversations/:conversation_id/crisis-events
func (h *Handler) GetCrisisEvents(c echo.Context) error {
	conversationID := c.Param("conversation_id")

	events, err := h.service.GetCrisisEvents(c.Request().Context(), conversationID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
	})
}

// GetSummary returns the scored screener result.
// GET /v1/conversations/:conversation_id/summary
func (h *Handler) GetSummary(c echo.Context) error {
	conversationID := c.Param("conversation_id")

	summary, err := h.service.Summary(c.Request().Context(), conversationID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
