// Package middleware provides reusable HTTP middleware: bearer token
// authentication, role enforcement, rate limiting and response
// caching.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kinotage/movie-reviews/internal/response"
	"github.com/kinotage/movie-reviews/internal/utils"
)

// Context keys under which JWTAuth stores the authenticated identity.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// JWTAuth returns middleware that validates a Bearer access token and
// injects the subject id (uint64) and role (string) into the request
// context. Wrap protected routes with it so handlers can call
// UserID(c) / Role(c).
func JWTAuth(accessSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if auth == "" {
				return response.Unauthorized("Missing Authorization header")
			}
			if !strings.HasPrefix(auth, "Bearer ") {
				return response.Unauthorized("Invalid Authorization header")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			userID, role, err := utils.VerifyAccessToken(accessSecret, raw)
			if err != nil {
				return response.Unauthorized("Invalid or expired token")
			}
			c.Set(CtxUserID, userID)
			c.Set(CtxRole, role)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id stored by JWTAuth, or 0
// when the request is unauthenticated.
func UserID(c echo.Context) uint64 {
	if v, ok := c.Get(CtxUserID).(uint64); ok {
		return v
	}
	return 0
}

// Role returns the authenticated role stored by JWTAuth.
func Role(c echo.Context) string {
	if v, ok := c.Get(CtxRole).(string); ok {
		return v
	}
	return ""
}
