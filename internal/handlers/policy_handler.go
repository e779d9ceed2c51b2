package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/kashiwade/menshen/internal/entities"
	"github.com/kashiwade/menshen/internal/repositories"
)

// PolicyHandler serves policy management endpoints. Statement documents are
// validated on write; a malformed document never reaches storage.
type PolicyHandler struct {
	policies repositories.PolicyRepository
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(policies repositories.PolicyRepository) *PolicyHandler {
	return &PolicyHandler{policies: policies}
}

// RegisterRoutes registers policy endpoints on the group
func (h *PolicyHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/orgs/:orgId/policies", h.Create)
	g.GET("/orgs/:orgId/policies", h.List)
	g.GET("/orgs/:orgId/policies/:id", h.Get)
	g.PUT("/orgs/:orgId/policies/:id", h.Update)
	g.DELETE("/orgs/:orgId/policies/:id", h.Delete)
}

type policyBody struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Version    string          `json:"version"`
	Statements json.RawMessage `json:"statements"`
}

type policyView struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Version        string          `json:"version"`
	OrganizationID string          `json:"organizationId"`
	Statements     json.RawMessage `json:"statements"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func policyToView(policy *entities.Policy) policyView {
	// Statements were validated on the way in, so this cannot fail
	doc, _ := entities.MarshalStatements(policy.Statements)
	return policyView{
		ID:             policy.ID,
		Name:           policy.Name,
		Version:        policy.Version,
		OrganizationID: policy.OrganizationID,
		Statements:     json.RawMessage(doc),
		CreatedAt:      policy.CreatedAt,
	}
}

func policiesToViews(policies []*entities.Policy) []policyView {
	views := make([]policyView, 0, len(policies))
	for _, policy := range policies {
		views = append(views, policyToView(policy))
	}
	return views
}

func (h *PolicyHandler) bindPolicy(c echo.Context, id string) (*entities.Policy, error) {
	var body policyBody
	if err := c.Bind(&body); err != nil {
		return nil, err
	}

	statements, err := entities.ParseStatements(string(body.Statements))
	if err != nil {
		return nil, err
	}

	if id == "" {
		id = body.ID
	}
	return &entities.Policy{
		ID:             id,
		Name:           body.Name,
		Version:        body.Version,
		OrganizationID: c.Param("orgId"),
		Statements:     statements,
	}, nil
}

// Create handles POST /orgs/:orgId/policies
func (h *PolicyHandler) Create(c echo.Context) error {
	policy, err := h.bindPolicy(c, "")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.policies.Create(c.Request().Context(), policy); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, policyToView(policy))
}

// List handles GET /orgs/:orgId/policies
func (h *PolicyHandler) List(c echo.Context) error {
	policies, err := h.policies.ListByOrg(c.Request().Context(), c.Param("orgId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, policiesToViews(policies))
}

// Get handles GET /orgs/:orgId/policies/:id
func (h *PolicyHandler) Get(c echo.Context) error {
	policy, err := h.policies.GetByID(c.Request().Context(), c.Param("orgId"), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, policyToView(policy))
}

// Update handles PUT /orgs/:orgId/policies/:id. The edit takes effect for
// every user and team the policy is attached to.
func (h *PolicyHandler) Update(c echo.Context) error {
	policy, err := h.bindPolicy(c, c.Param("id"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.policies.Update(c.Request().Context(), policy); err != nil {
		return writeError(c, err)
	}

	updated, err := h.policies.GetByID(c.Request().Context(), policy.OrganizationID, policy.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, policyToView(updated))
}

// Delete handles DELETE /orgs/:orgId/policies/:id
func (h *PolicyHandler) Delete(c echo.Context) error {
	if err := h.policies.Delete(c.Request().Context(), c.Param("orgId"), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
