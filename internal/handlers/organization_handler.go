package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/kashiwade/menshen/internal/entities"
	"github.com/kashiwade/menshen/internal/repositories"
)

// OrganizationHandler serves organization management endpoints.
type OrganizationHandler struct {
	orgs repositories.OrganizationRepository
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(orgs repositories.OrganizationRepository) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs}
}

// RegisterRoutes registers organization endpoints on the group
func (h *OrganizationHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/orgs", h.Create)
	g.GET("/orgs", h.List)
	g.GET("/orgs/:orgId", h.Get)
	g.DELETE("/orgs/:orgId", h.Delete)
}

type organizationBody struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type organizationView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func organizationToView(org *entities.Organization) organizationView {
	return organizationView{
		ID:          org.ID,
		Name:        org.Name,
		Description: org.Description,
		CreatedAt:   org.CreatedAt,
	}
}

// Create handles POST /orgs
func (h *OrganizationHandler) Create(c echo.Context) error {
	var body organizationBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	org := &entities.Organization{
		ID:          body.ID,
		Name:        body.Name,
		Description: body.Description,
	}
	if err := h.orgs.Create(c.Request().Context(), org); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, organizationToView(org))
}

// List handles GET /orgs
func (h *OrganizationHandler) List(c echo.Context) error {
	orgs, err := h.orgs.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	views := make([]organizationView, 0, len(orgs))
	for _, org := range orgs {
		views = append(views, organizationToView(org))
	}
	return c.JSON(http.StatusOK, views)
}

// Get handles GET /orgs/:orgId
func (h *OrganizationHandler) Get(c echo.Context) error {
	org, err := h.orgs.GetByID(c.Request().Context(), c.Param("orgId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, organizationToView(org))
}

// Delete handles DELETE /orgs/:orgId
func (h *OrganizationHandler) Delete(c echo.Context) error {
	if err := h.orgs.Delete(c.Request().Context(), c.Param("orgId")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
