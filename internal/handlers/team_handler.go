package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/kashiwade/menshen/internal/entities"
	"github.com/kashiwade/menshen/internal/repositories"
)

// TeamHandler serves team management endpoints, including hierarchy and
// membership edits.
type TeamHandler struct {
	teams    repositories.TeamRepository
	policies repositories.PolicyRepository
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teams repositories.TeamRepository, policies repositories.PolicyRepository) *TeamHandler {
	return &TeamHandler{teams: teams, policies: policies}
}

// RegisterRoutes registers team endpoints on the group
func (h *TeamHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/orgs/:orgId/teams", h.Create)
	g.GET("/orgs/:orgId/teams", h.List)
	g.GET("/orgs/:orgId/teams/:id", h.Get)
	g.PUT("/orgs/:orgId/teams/:id", h.Update)
	g.DELETE("/orgs/:orgId/teams/:id", h.Delete)
	g.PUT("/orgs/:orgId/teams/:id/parent", h.Move)
	g.PUT("/orgs/:orgId/teams/:id/members", h.ReplaceMembers)
	g.PUT("/orgs/:orgId/teams/:id/policies", h.ReplacePolicies)
	g.GET("/orgs/:orgId/teams/:id/policies", h.ListPolicies)
}

type teamBody struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parent      *string `json:"parent"`
}

type teamView struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	OrganizationID string    `json:"organizationId"`
	Parent         *string   `json:"parent"`
	CreatedAt      time.Time `json:"createdAt"`
}

type teamParentBody struct {
	Parent *string `json:"parent"`
}

type teamMembersBody struct {
	Users []string `json:"users"`
}

func teamToView(team *entities.Team) teamView {
	return teamView{
		ID:             team.ID,
		Name:           team.Name,
		Description:    team.Description,
		OrganizationID: team.OrganizationID,
		Parent:         team.ParentID,
		CreatedAt:      team.CreatedAt,
	}
}

// Create handles POST /orgs/:orgId/teams
func (h *TeamHandler) Create(c echo.Context) error {
	var body teamBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	team := &entities.Team{
		ID:             body.ID,
		Name:           body.Name,
		Description:    body.Description,
		OrganizationID: c.Param("orgId"),
		ParentID:       body.Parent,
	}
	if err := h.teams.Create(c.Request().Context(), team); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, teamToView(team))
}

// List handles GET /orgs/:orgId/teams
func (h *TeamHandler) List(c echo.Context) error {
	teams, err := h.teams.ListByOrg(c.Request().Context(), c.Param("orgId"))
	if err != nil {
		return writeError(c, err)
	}

	views := make([]teamView, 0, len(teams))
	for _, team := range teams {
		views = append(views, teamToView(team))
	}
	return c.JSON(http.StatusOK, views)
}

// Get handles GET /orgs/:orgId/teams/:id
func (h *TeamHandler) Get(c echo.Context) error {
	team, err := h.teams.GetByID(c.Request().Context(), c.Param("orgId"), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, teamToView(team))
}

// Update handles PUT /orgs/:orgId/teams/:id. Only name and description are
// editable here; the parent changes through the parent endpoint.
func (h *TeamHandler) Update(c echo.Context) error {
	var body teamBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	team := &entities.Team{
		ID:             c.Param("id"),
		Name:           body.Name,
		Description:    body.Description,
		OrganizationID: c.Param("orgId"),
	}
	if err := h.teams.Update(c.Request().Context(), team); err != nil {
		return writeError(c, err)
	}

	updated, err := h.teams.GetByID(c.Request().Context(), team.OrganizationID, team.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, teamToView(updated))
}

// Delete handles DELETE /orgs/:orgId/teams/:id. Children of the deleted
// team become root teams.
func (h *TeamHandler) Delete(c echo.Context) error {
	if err := h.teams.Delete(c.Request().Context(), c.Param("orgId"), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Move handles PUT /orgs/:orgId/teams/:id/parent. A null parent makes the
// team a root; a parent inside the team's own subtree is rejected.
func (h *TeamHandler) Move(c echo.Context) error {
	var body teamParentBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	ctx := c.Request().Context()
	orgID, teamID := c.Param("orgId"), c.Param("id")
	if err := h.teams.Move(ctx, orgID, teamID, body.Parent); err != nil {
		return writeError(c, err)
	}

	team, err := h.teams.GetByID(ctx, orgID, teamID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, teamToView(team))
}

// ReplaceMembers handles PUT /orgs/:orgId/teams/:id/members
func (h *TeamHandler) ReplaceMembers(c echo.Context) error {
	var body teamMembersBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.teams.ReplaceMembers(c.Request().Context(), c.Param("orgId"), c.Param("id"), body.Users); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ReplacePolicies handles PUT /orgs/:orgId/teams/:id/policies
func (h *TeamHandler) ReplacePolicies(c echo.Context) error {
	var body policyRefsBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.teams.ReplacePolicies(c.Request().Context(), c.Param("orgId"), c.Param("id"), body.Policies); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListPolicies handles GET /orgs/:orgId/teams/:id/policies
func (h *TeamHandler) ListPolicies(c echo.Context) error {
	ctx := c.Request().Context()
	orgID, teamID := c.Param("orgId"), c.Param("id")

	if _, err := h.teams.GetByID(ctx, orgID, teamID); err != nil {
		return writeError(c, err)
	}

	policies, err := h.policies.ListByTeam(ctx, orgID, teamID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, policiesToViews(policies))
}
