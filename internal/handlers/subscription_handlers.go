package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"taskhive/internal/common"
	"taskhive/internal/repositories"
	"taskhive/internal/services"

	"github.com/labstack/echo/v4"
)

// SubscriptionHandlers handles HTTP requests for subscription lifecycle
type SubscriptionHandlers struct {
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandlers(subscriptionService services.SubscriptionService) *SubscriptionHandlers {
	return &SubscriptionHandlers{subscriptionService: subscriptionService}
}

// Subscribe handles POST /subscription
func (h *SubscriptionHandlers) Subscribe(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	var req struct {
		PlanID string `json:"plan_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	planID, err := common.ValidateUUID(req.PlanID, "plan_id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	subscription, err := h.subscriptionService.Subscribe(ctx, userID, planID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":      "Subscription created successfully",
		"subscription": subscription,
	})
}

// Cancel handles DELETE /subscription
func (h *SubscriptionHandlers) Cancel(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	if err := h.subscriptionService.Cancel(ctx, userID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Subscription cancelled successfully",
	})
}

// GetMine handles GET /subscription
func (h *SubscriptionHandlers) GetMine(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	subscription, err := h.subscriptionService.GetActive(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.SendNotFoundError(c, "Active subscription")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load subscription")
	}

	return c.JSON(http.StatusOK, subscription)
}

// ListAll handles GET /admin/subscriptions
func (h *SubscriptionHandlers) ListAll(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 50
	offset := 0
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			limit = l
		}
	}
	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		if o, err := strconv.Atoi(offsetParam); err == nil && o >= 0 {
			offset = o
		}
	}

	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	subscriptions, err := h.subscriptionService.List(ctx, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list subscriptions")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"subscriptions": subscriptions,
		"limit":         limit,
		"offset":        offset,
	})
}
