package handlers

import (
	"net/http"

	"taskhive/internal/common"
	"taskhive/internal/services"

	"github.com/labstack/echo/v4"
)

// AIHandlers accepts AI chat and workflow requests. Quota consumption
// happens in the middleware guarding these routes; the handlers validate
// input and report the remaining allowance.
type AIHandlers struct {
	usageService services.UsageService
}

func NewAIHandlers(usageService services.UsageService) *AIHandlers {
	return &AIHandlers{usageService: usageService}
}

// Chat handles POST /ai/chat
func (h *AIHandlers) Chat(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Message, "message"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	snapshot, err := h.usageService.GetUsageSnapshot(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load usage")
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "Chat request accepted",
		"usage":   snapshot.Metrics["current_ai_chat"],
	})
}

// RunWorkflow handles POST /ai/workflows/:id/run
func (h *AIHandlers) RunWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	workflowID, err := common.ValidateUUID(c.Param("id"), "workflow id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	snapshot, err := h.usageService.GetUsageSnapshot(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load usage")
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message":     "Workflow run accepted",
		"workflow_id": workflowID,
		"usage":       snapshot.Metrics["current_ai_workflow"],
	})
}
