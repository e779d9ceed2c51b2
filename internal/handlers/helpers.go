package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/kashiwade/menshen/internal/entities"
	"github.com/kashiwade/menshen/internal/repositories"
	"github.com/kashiwade/menshen/internal/services/authorization"
)

// errorResponse is the JSON body returned for every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP status codes. The mapping is part
// of the API contract: lookups of unknown ids are 404, bad input is 400,
// a broken hierarchy or stored document is 500, an unreachable store is 503.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, entities.ErrValidation):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, authorization.ErrDataIntegrity):
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	case errors.Is(err, repositories.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusRequestTimeout, errorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

// badRequest reports a malformed request body or missing parameter
func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: message})
}
