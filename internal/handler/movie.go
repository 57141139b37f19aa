package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kinotage/movie-reviews/internal/middleware"
	"github.com/kinotage/movie-reviews/internal/model"
	"github.com/kinotage/movie-reviews/internal/response"
	"github.com/kinotage/movie-reviews/internal/service"
)

// MovieHandler exposes the public catalog and the admin curation
// endpoints.
type MovieHandler struct {
	Movies *service.MovieService
}

func NewMovieHandler(movies *service.MovieService) *MovieHandler {
	return &MovieHandler{Movies: movies}
}

type createMovieRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	ReleaseDate string   `json:"releaseDate" validate:"required,datetime=2006-01-02"`
	Genres      []string `json:"genres" validate:"required,min=1,dive,required,min=1,max=50"`
}

type updateMovieRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	ReleaseDate *string  `json:"releaseDate" validate:"omitempty,datetime=2006-01-02"`
	Genres      []string `json:"genres" validate:"omitempty,min=1,dive,required,min=1,max=50"`
}

type listMoviesQuery struct {
	Page  int    `query:"page" validate:"omitempty,min=1"`
	Limit int    `query:"limit" validate:"omitempty,min=1"`
	Q     string `query:"q" validate:"omitempty,max=200"`
	Genre string `query:"genre" validate:"omitempty,max=50"`
	Year  int    `query:"releaseYear" validate:"omitempty,min=1888,max=2100"`
}

// List is the public, filterable, paginated catalog listing.
func (h *MovieHandler) List(c echo.Context) error {
	var q listMoviesQuery
	if err := c.Bind(&q); err != nil {
		return response.Validation("Invalid query parameters", nil)
	}
	if err := c.Validate(&q); err != nil {
		return err
	}
	result, err := h.Movies.List(c.Request().Context(), model.MovieFilter{
		Query: q.Q,
		Genre: q.Genre,
		Year:  q.Year,
		Page:  q.Page,
		Limit: q.Limit,
	})
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, result)
}

// Get returns a single movie with its genres and derived rating.
func (h *MovieHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	movie, err := h.Movies.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, movie)
}

// Create adds a catalog entry. Admin only (enforced by route
// middleware); the caller becomes the movie's creator.
func (h *MovieHandler) Create(c echo.Context) error {
	var req createMovieRequest
	if err := c.Bind(&req); err != nil {
		return response.Validation("Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	movie, err := h.Movies.Create(c.Request().Context(), model.Movie{
		Title:       req.Title,
		Description: req.Description,
		ReleaseDate: req.ReleaseDate,
		Genres:      req.Genres,
		CreatedBy:   middleware.UserID(c),
	})
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusCreated, movie)
}

// Update applies a partial update. Admin only.
func (h *MovieHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateMovieRequest
	if err := c.Bind(&req); err != nil {
		return response.Validation("Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	movie, err := h.Movies.Update(c.Request().Context(), id, model.MovieUpdate{
		Title:       req.Title,
		Description: req.Description,
		ReleaseDate: req.ReleaseDate,
		Genres:      req.Genres,
	})
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, movie)
}

// Delete removes a movie and, via cascade, its reviews. Admin only.
func (h *MovieHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Movies.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, map[string]string{"message": "Movie deleted"})
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, response.Validation("Invalid "+name+" parameter", nil)
	}
	return id, nil
}
