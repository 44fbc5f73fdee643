package handlers

import (
	"errors"
	"net/http"
	"time"

	"taskhive/internal/common"
	"taskhive/internal/services"

	"github.com/labstack/echo/v4"
)

// AttachmentHandlers handles project file uploads and downloads
type AttachmentHandlers struct {
	storageService services.StorageService
}

func NewAttachmentHandlers(storageService services.StorageService) *AttachmentHandlers {
	return &AttachmentHandlers{storageService: storageService}
}

// Upload handles POST /projects/:projectId/attachments (multipart)
func (h *AttachmentHandlers) Upload(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	projectID, err := common.ValidateUUID(c.Param("projectId"), "project id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing file field")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read uploaded file")
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	attachment, err := h.storageService.Upload(ctx, userID, projectID, fileHeader.Filename, contentType, file, fileHeader.Size)
	if err != nil {
		var limitErr *services.LimitReachedError
		if errors.As(err, &limitErr) {
			return common.SendLimitError(c, limitErr.Decision.Reason)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store attachment")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":    "Attachment uploaded successfully",
		"attachment": attachment,
	})
}

// Delete handles DELETE /attachments/:id
func (h *AttachmentHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	id, err := common.ValidateUUID(c.Param("id"), "attachment id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.storageService.Delete(ctx, userID, id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Attachment deleted successfully",
	})
}

// Download handles GET /attachments/:id/url
func (h *AttachmentHandlers) Download(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "attachment id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	url, err := h.storageService.PresignedURL(c.Request().Context(), id, 15*time.Minute)
	if err != nil {
		return common.SendNotFoundError(c, "Attachment")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"url": url,
	})
}

// List handles GET /projects/:projectId/attachments
func (h *AttachmentHandlers) List(c echo.Context) error {
	projectID, err := common.ValidateUUID(c.Param("projectId"), "project id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	attachments, err := h.storageService.ListByProject(c.Request().Context(), projectID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list attachments")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"attachments": attachments,
	})
}
