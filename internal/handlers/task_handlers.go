package handlers

import (
	"net/http"
	"strconv"

	"taskhive/internal/common"
	"taskhive/internal/models"
	"taskhive/internal/services"

	"github.com/labstack/echo/v4"
)

// TaskHandlers handles HTTP requests for tasks
type TaskHandlers struct {
	taskService services.TaskService
}

func NewTaskHandlers(taskService services.TaskService) *TaskHandlers {
	return &TaskHandlers{taskService: taskService}
}

// CreateTask handles POST /projects/:projectId/tasks
func (h *TaskHandlers) CreateTask(c echo.Context) error {
	ctx := c.Request().Context()

	projectID, err := common.ValidateUUID(c.Param("projectId"), "project id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var task models.Task
	if err := c.Bind(&task); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	task.ProjectID = projectID
	if err := common.ValidateRequiredString(task.Title, "title"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.taskService.Create(ctx, &task)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Task created successfully",
		"task":    created,
	})
}

// GetTask handles GET /tasks/:id
func (h *TaskHandlers) GetTask(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "task id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.Get(c.Request().Context(), id)
	if err != nil {
		return common.SendNotFoundError(c, "Task")
	}
	return c.JSON(http.StatusOK, task)
}

// UpdateTask handles PUT /tasks/:id
func (h *TaskHandlers) UpdateTask(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "task id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	existing, err := h.taskService.Get(ctx, id)
	if err != nil {
		return common.SendNotFoundError(c, "Task")
	}

	var task models.Task
	if err := c.Bind(&task); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	task.ID = id
	task.ProjectID = existing.ProjectID

	if err := h.taskService.Update(ctx, &task); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update task")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Task updated successfully",
		"task":    task,
	})
}

// DeleteTask handles DELETE /tasks/:id
func (h *TaskHandlers) DeleteTask(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "task id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.taskService.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete task")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Task deleted successfully",
	})
}

// ListTasks handles GET /projects/:projectId/tasks
func (h *TaskHandlers) ListTasks(c echo.Context) error {
	projectID, err := common.ValidateUUID(c.Param("projectId"), "project id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	limit := 100
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

	tasks, err := h.taskService.ListByProject(c.Request().Context(), projectID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list tasks")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tasks":  tasks,
		"limit":  limit,
		"offset": offset,
	})
}

// AIAssist handles POST /tasks/:id/ai-assist. The route runs behind the
// quota middleware, which has already consumed one ai_task unit.
func (h *TaskHandlers) AIAssist(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "task id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.Get(c.Request().Context(), id)
	if err != nil {
		return common.SendNotFoundError(c, "Task")
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "AI assist request accepted",
		"task_id": task.ID,
	})
}
