package handlers

import (
	"net/http"
	"strconv"

	"taskhive/internal/common"
	"taskhive/internal/services"

	"github.com/labstack/echo/v4"
)

// NotificationHandlers handles HTTP requests for user notifications
type NotificationHandlers struct {
	notificationService services.NotificationService
}

func NewNotificationHandlers(notificationService services.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{notificationService: notificationService}
}

// List handles GET /notifications
func (h *NotificationHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

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

	notifications, err := h.notificationService.List(ctx, userID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list notifications")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"limit":         limit,
		"offset":        offset,
	})
}

// MarkRead handles POST /notifications/:id/read
func (h *NotificationHandlers) MarkRead(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	id, err := common.ValidateUUID(c.Param("id"), "notification id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.notificationService.MarkRead(ctx, userID, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to mark notification read")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Notification marked read",
	})
}
