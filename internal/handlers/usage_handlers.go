package handlers

import (
	"net/http"

	"taskhive/internal/common"
	"taskhive/internal/services"

	"github.com/labstack/echo/v4"
)

// UsageHandlers exposes usage checking, tracking and the usage snapshot
type UsageHandlers struct {
	usageService services.UsageService
}

func NewUsageHandlers(usageService services.UsageService) *UsageHandlers {
	return &UsageHandlers{usageService: usageService}
}

// GetUsage handles GET /usage
func (h *UsageHandlers) GetUsage(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	snapshot, err := h.usageService.GetUsageSnapshot(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load usage")
	}

	return c.JSON(http.StatusOK, snapshot)
}

// CheckLimit handles POST /usage/check
func (h *UsageHandlers) CheckLimit(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	var req struct {
		ActionType string   `json:"action_type"`
		DeltaValue *float64 `json:"delta_value"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.ActionType, "action_type"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	decision := h.usageService.CheckLimit(ctx, userID, req.ActionType, req.DeltaValue)
	return c.JSON(http.StatusOK, decision)
}

// TrackUsage handles POST /usage/track
func (h *UsageHandlers) TrackUsage(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	var req struct {
		ActionType string   `json:"action_type"`
		EntityType string   `json:"entity_type"`
		DeltaValue *float64 `json:"delta_value"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.ActionType, "action_type"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result := h.usageService.TrackUsage(ctx, services.UsageData{
		UserID:     userID,
		ActionType: req.ActionType,
		EntityType: req.EntityType,
		DeltaValue: req.DeltaValue,
	})
	if result == nil {
		// Unmetered action or swallowed persistence failure
		return c.JSON(http.StatusOK, map[string]interface{}{
			"tracked": false,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tracked": true,
		"result":  result,
	})
}
