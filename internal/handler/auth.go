package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kinotage/movie-reviews/internal/middleware"
	"github.com/kinotage/movie-reviews/internal/response"
	"github.com/kinotage/movie-reviews/internal/service"
)

// AuthHandler exposes the session endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

type registerRequest struct {
	Email    string  `json:"email" validate:"required,email,max=254"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	Username *string `json:"username" validate:"omitempty,min=3,max=32"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required,min=10"`
}

// Register creates an account and signs it in immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.Validation("Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	result, err := h.Auth.Register(c.Request().Context(), req.Email, req.Password, req.Username)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusCreated, result)
}

// Login verifies credentials and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.Validation("Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	result, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, result)
}

// Refresh rotates a refresh token: the presented token is revoked and
// a new pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return response.Validation("Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	result, err := h.Auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, result)
}

// Logout revokes a single refresh token. Idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return response.Validation("Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.Auth.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, map[string]string{"message": "Logged out"})
}

// LogoutAll revokes every refresh token of the caller ("sign out
// everywhere"). Requires an access token.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	if err := h.Auth.LogoutAll(c.Request().Context(), middleware.UserID(c)); err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, map[string]string{"message": "Logged out of all sessions"})
}
