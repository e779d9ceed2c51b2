package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/kashiwade/menshen/internal/entities"
	"github.com/kashiwade/menshen/internal/repositories"
)

// UserHandler serves user management endpoints.
type UserHandler struct {
	users    repositories.UserRepository
	teams    repositories.TeamRepository
	policies repositories.PolicyRepository
}

// NewUserHandler creates a new user handler
func NewUserHandler(users repositories.UserRepository, teams repositories.TeamRepository, policies repositories.PolicyRepository) *UserHandler {
	return &UserHandler{users: users, teams: teams, policies: policies}
}

// RegisterRoutes registers user endpoints on the group
func (h *UserHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/orgs/:orgId/users", h.Create)
	g.GET("/orgs/:orgId/users", h.List)
	g.GET("/orgs/:orgId/users/:id", h.Get)
	g.PUT("/orgs/:orgId/users/:id", h.Update)
	g.DELETE("/orgs/:orgId/users/:id", h.Delete)
	g.PUT("/orgs/:orgId/users/:id/policies", h.ReplacePolicies)
	g.GET("/orgs/:orgId/users/:id/policies", h.ListPolicies)
	g.GET("/orgs/:orgId/users/:id/teams", h.ListTeams)
}

type userBody struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type userView struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OrganizationID string    `json:"organizationId"`
	CreatedAt      time.Time `json:"createdAt"`
}

type policyRefsBody struct {
	Policies []string `json:"policies"`
}

func userToView(user *entities.User) userView {
	return userView{
		ID:             user.ID,
		Name:           user.Name,
		OrganizationID: user.OrganizationID,
		CreatedAt:      user.CreatedAt,
	}
}

// Create handles POST /orgs/:orgId/users
func (h *UserHandler) Create(c echo.Context) error {
	var body userBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	user := &entities.User{
		ID:             body.ID,
		Name:           body.Name,
		OrganizationID: c.Param("orgId"),
	}
	if err := h.users.Create(c.Request().Context(), user); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, userToView(user))
}

// List handles GET /orgs/:orgId/users
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.ListByOrg(c.Request().Context(), c.Param("orgId"))
	if err != nil {
		return writeError(c, err)
	}

	views := make([]userView, 0, len(users))
	for _, user := range users {
		views = append(views, userToView(user))
	}
	return c.JSON(http.StatusOK, views)
}

// Get handles GET /orgs/:orgId/users/:id
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.GetByID(c.Request().Context(), c.Param("orgId"), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, userToView(user))
}

// Update handles PUT /orgs/:orgId/users/:id
func (h *UserHandler) Update(c echo.Context) error {
	var body userBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	user := &entities.User{
		ID:             c.Param("id"),
		Name:           body.Name,
		OrganizationID: c.Param("orgId"),
	}
	if err := h.users.Update(c.Request().Context(), user); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, userToView(user))
}

// Delete handles DELETE /orgs/:orgId/users/:id
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.users.Delete(c.Request().Context(), c.Param("orgId"), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ReplacePolicies handles PUT /orgs/:orgId/users/:id/policies.
// The given set replaces the user's direct attachments atomically.
func (h *UserHandler) ReplacePolicies(c echo.Context) error {
	var body policyRefsBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.users.ReplacePolicies(c.Request().Context(), c.Param("orgId"), c.Param("id"), body.Policies); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListPolicies handles GET /orgs/:orgId/users/:id/policies
func (h *UserHandler) ListPolicies(c echo.Context) error {
	ctx := c.Request().Context()
	orgID, userID := c.Param("orgId"), c.Param("id")

	// A listing for an unknown user is 404, not an empty set
	if _, err := h.users.GetByID(ctx, orgID, userID); err != nil {
		return writeError(c, err)
	}

	policies, err := h.policies.ListByUser(ctx, orgID, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, policiesToViews(policies))
}

// ListTeams handles GET /orgs/:orgId/users/:id/teams
func (h *UserHandler) ListTeams(c echo.Context) error {
	ctx := c.Request().Context()
	orgID, userID := c.Param("orgId"), c.Param("id")

	if _, err := h.users.GetByID(ctx, orgID, userID); err != nil {
		return writeError(c, err)
	}

	teams, err := h.teams.ListByUser(ctx, orgID, userID)
	if err != nil {
		return writeError(c, err)
	}

	views := make([]teamView, 0, len(teams))
	for _, team := range teams {
		views = append(views, teamToView(team))
	}
	return c.JSON(http.StatusOK, views)
}
