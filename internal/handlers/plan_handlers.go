package handlers

import (
	"net/http"

	"taskhive/internal/common"
	"taskhive/internal/models"
	"taskhive/internal/services"

	"github.com/labstack/echo/v4"
)

// PlanHandlers exposes the plan catalog and the admin plan management
type PlanHandlers struct {
	planService services.PlanService
}

func NewPlanHandlers(planService services.PlanService) *PlanHandlers {
	return &PlanHandlers{planService: planService}
}

// ListPlans handles GET /plans
func (h *PlanHandlers) ListPlans(c echo.Context) error {
	plans, err := h.planService.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list plans")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"plans": plans,
	})
}

// GetPlan handles GET /plans/:id
func (h *PlanHandlers) GetPlan(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "plan id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	plan, err := h.planService.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Plan not found")
	}
	return c.JSON(http.StatusOK, plan)
}

// CreatePlan handles POST /admin/plans
func (h *PlanHandlers) CreatePlan(c echo.Context) error {
	var plan models.Plan
	if err := c.Bind(&plan); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateRequiredString(plan.Name, "name"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.planService.Create(c.Request().Context(), &plan); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Plan created successfully",
		"plan":    plan,
	})
}

// UpdatePlan handles PUT /admin/plans/:id
func (h *PlanHandlers) UpdatePlan(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "plan id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var plan models.Plan
	if err := c.Bind(&plan); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	plan.ID = id

	if err := h.planService.Update(c.Request().Context(), &plan); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Plan updated successfully",
		"plan":    plan,
	})
}

// DeletePlan handles DELETE /admin/plans/:id
func (h *PlanHandlers) DeletePlan(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "plan id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.planService.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Plan deleted successfully",
	})
}
