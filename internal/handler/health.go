// Package handler contains the HTTP handlers. Each handler binds and
// validates the request, delegates to a service, and wraps the result
// in the response envelope; business failures travel as typed errors
// to the central error handler.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kinotage/movie-reviews/internal/response"
)

// Health is a liveness endpoint for load balancers and monitoring.
func Health(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}
