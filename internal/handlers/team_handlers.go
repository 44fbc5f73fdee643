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

// TeamHandlers handles HTTP requests for teams and team membership
type TeamHandlers struct {
	teamService services.TeamService
}

func NewTeamHandlers(teamService services.TeamService) *TeamHandlers {
	return &TeamHandlers{teamService: teamService}
}

// CreateTeam handles POST /teams
func (h *TeamHandlers) CreateTeam(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	var team models.Team
	if err := c.Bind(&team); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateRequiredString(team.Name, "name"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.teamService.Create(ctx, userID, &team)
	if err != nil {
		var limitErr *services.LimitReachedError
		if errors.As(err, &limitErr) {
			return common.SendLimitError(c, limitErr.Decision.Reason)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create team")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Team created successfully",
		"team":    created,
	})
}

// GetTeam handles GET /teams/:id
func (h *TeamHandlers) GetTeam(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "team id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	team, err := h.teamService.Get(c.Request().Context(), id)
	if err != nil {
		return common.SendNotFoundError(c, "Team")
	}
	return c.JSON(http.StatusOK, team)
}

// DeleteTeam handles DELETE /teams/:id
func (h *TeamHandlers) DeleteTeam(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	id, err := common.ValidateUUID(c.Param("id"), "team id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.teamService.Delete(ctx, userID, id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Team deleted successfully",
	})
}

// ListTeams handles GET /teams
func (h *TeamHandlers) ListTeams(c echo.Context) error {
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

	teams, err := h.teamService.ListByOwner(ctx, userID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list teams")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"teams":  teams,
		"limit":  limit,
		"offset": offset,
	})
}

// InviteMember handles POST /teams/:id/members
func (h *TeamHandlers) InviteMember(c echo.Context) error {
	ctx := c.Request().Context()

	inviterID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	teamID, err := common.ValidateUUID(c.Param("id"), "team id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	userID, err := common.ValidateUUID(req.UserID, "user_id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	member, err := h.teamService.InviteMember(ctx, inviterID, teamID, userID, req.Role)
	if err != nil {
		var limitErr *services.LimitReachedError
		if errors.As(err, &limitErr) {
			return common.SendLimitError(c, limitErr.Decision.Reason)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Member added successfully",
		"member":  member,
	})
}

// RemoveMember handles DELETE /teams/:id/members/:userId
func (h *TeamHandlers) RemoveMember(c echo.Context) error {
	ctx := c.Request().Context()

	requesterID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	teamID, err := common.ValidateUUID(c.Param("id"), "team id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userID, err := common.ValidateUUID(c.Param("userId"), "user id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.teamService.RemoveMember(ctx, requesterID, teamID, userID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Member removed successfully",
	})
}

// ListMembers handles GET /teams/:id/members
func (h *TeamHandlers) ListMembers(c echo.Context) error {
	teamID, err := common.ValidateUUID(c.Param("id"), "team id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	members, err := h.teamService.ListMembers(c.Request().Context(), teamID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list members")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"members": members,
	})
}
