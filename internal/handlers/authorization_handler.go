package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/kashiwade/menshen/internal/infrastructure/metrics"
	"github.com/kashiwade/menshen/internal/services/authorization"
)

// AuthorizationHandler serves the access decision endpoints.
type AuthorizationHandler struct {
	authorizer authorization.AuthorizerInterface
	collector  *metrics.Collector
	exporter   *metrics.PrometheusExporter
}

// NewAuthorizationHandler creates a new authorization handler. The collector
// and exporter are optional; decisions are served the same without them.
func NewAuthorizationHandler(authorizer authorization.AuthorizerInterface, collector *metrics.Collector, exporter *metrics.PrometheusExporter) *AuthorizationHandler {
	return &AuthorizationHandler{authorizer: authorizer, collector: collector, exporter: exporter}
}

// RegisterRoutes registers the decision endpoints on the group
func (h *AuthorizationHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/orgs/:orgId/authorization/access/:userId", h.CheckAccess)
	g.GET("/orgs/:orgId/authorization/actions/:userId", h.ListActions)
}

// accessResult is the wire shape of a decision
type accessResult struct {
	Access bool `json:"access"`
}

// actionsResult is the wire shape of an action enumeration
type actionsResult struct {
	Actions []string `json:"actions"`
}

// CheckAccess handles GET /orgs/:orgId/authorization/access/:userId
func (h *AuthorizationHandler) CheckAccess(c echo.Context) error {
	req := &authorization.AccessRequest{
		OrganizationID: c.Param("orgId"),
		UserID:         c.Param("userId"),
		Resource:       c.QueryParam("resource"),
		Action:         c.QueryParam("action"),
	}
	if req.Resource == "" || req.Action == "" {
		return badRequest(c, "resource and action query parameters are required")
	}

	resp, err := h.authorizer.IsAuthorized(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	h.recordDecision(resp.Access)
	return c.JSON(http.StatusOK, accessResult{Access: resp.Access})
}

// ListActions handles GET /orgs/:orgId/authorization/actions/:userId
func (h *AuthorizationHandler) ListActions(c echo.Context) error {
	req := &authorization.ActionsRequest{
		OrganizationID: c.Param("orgId"),
		UserID:         c.Param("userId"),
		Resource:       c.QueryParam("resource"),
	}
	if req.Resource == "" {
		return badRequest(c, "resource query parameter is required")
	}

	resp, err := h.authorizer.ListAuthorizedActions(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	actions := resp.Actions
	if actions == nil {
		actions = []string{}
	}
	return c.JSON(http.StatusOK, actionsResult{Actions: actions})
}

func (h *AuthorizationHandler) recordDecision(allowed bool) {
	if h.collector != nil {
		h.collector.RecordDecision(allowed)
	}
	if h.exporter != nil {
		h.exporter.RecordDecision(allowed)
	}
}
