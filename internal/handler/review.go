package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kinotage/movie-reviews/internal/middleware"
	"github.com/kinotage/movie-reviews/internal/model"
	"github.com/kinotage/movie-reviews/internal/response"
	"github.com/kinotage/movie-reviews/internal/service"
)

// ReviewHandler exposes review listing and the authenticated review
// CRUD endpoints.
type ReviewHandler struct {
	Reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews}
}

type createReviewRequest struct {
	MovieID uint64  `json:"movieId" validate:"required,min=1"`
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

// ListForMovie returns all reviews for a movie, newest first. Public.
func (h *ReviewHandler) ListForMovie(c echo.Context) error {
	movieID, err := pathID(c, "movieId")
	if err != nil {
		return err
	}
	reviews, err := h.Reviews.ListForMovie(c.Request().Context(), movieID)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, reviews)
}

// Create adds the caller's review for a movie; one per user per
// movie.
func (h *ReviewHandler) Create(c echo.Context) error {
	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return response.Validation("Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	review, err := h.Reviews.Create(c.Request().Context(), middleware.UserID(c), req.MovieID, req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusCreated, review)
}

// Update modifies the caller's own review.
func (h *ReviewHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateReviewRequest
	if err := c.Bind(&req); err != nil {
		return response.Validation("Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	review, err := h.Reviews.Update(c.Request().Context(), id, middleware.UserID(c), model.ReviewUpdate{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, review)
}

// Delete removes the caller's own review.
func (h *ReviewHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Reviews.Delete(c.Request().Context(), id, middleware.UserID(c)); err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, map[string]string{"message": "Review deleted"})
}
