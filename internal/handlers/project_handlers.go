package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"taskhive/internal/common"
	"taskhive/internal/models"
	"taskhive/internal/services"

	"github.com/labstack/echo/v4"
)

// ProjectHandlers handles HTTP requests for projects
type ProjectHandlers struct {
	projectService services.ProjectService
}

func NewProjectHandlers(projectService services.ProjectService) *ProjectHandlers {
	return &ProjectHandlers{projectService: projectService}
}

// CreateProject handles POST /projects
func (h *ProjectHandlers) CreateProject(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	var project models.Project
	if err := c.Bind(&project); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateRequiredString(project.Name, "name"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := common.SanitizeHTMLField(project.Description, "description"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.projectService.Create(ctx, userID, &project)
	if err != nil {
		var limitErr *services.LimitReachedError
		if errors.As(err, &limitErr) {
			return common.SendLimitError(c, limitErr.Decision.Reason)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create project")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Project created successfully",
		"project": created,
	})
}

// GetProject handles GET /projects/:id
func (h *ProjectHandlers) GetProject(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "project id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	project, err := h.projectService.Get(c.Request().Context(), id)
	if err != nil {
		return common.SendNotFoundError(c, "Project")
	}
	return c.JSON(http.StatusOK, project)
}

// UpdateProject handles PUT /projects/:id
func (h *ProjectHandlers) UpdateProject(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	id, err := common.ValidateUUID(c.Param("id"), "project id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	existing, err := h.projectService.Get(ctx, id)
	if err != nil {
		return common.SendNotFoundError(c, "Project")
	}
	if existing.OwnerID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "Project does not belong to user")
	}

	var project models.Project
	if err := c.Bind(&project); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	project.ID = id
	project.OwnerID = userID

	if err := h.projectService.Update(ctx, &project); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update project")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Project updated successfully",
		"project": project,
	})
}

// DeleteProject handles DELETE /projects/:id
func (h *ProjectHandlers) DeleteProject(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	id, err := common.ValidateUUID(c.Param("id"), "project id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.projectService.Delete(ctx, userID, id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Project deleted successfully",
	})
}

// ListProjects handles GET /projects
func (h *ProjectHandlers) ListProjects(c echo.Context) error {
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

	projects, err := h.projectService.ListByOwner(ctx, userID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list projects")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"projects": projects,
		"limit":    limit,
		"offset":   offset,
	})
}
