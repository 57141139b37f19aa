package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/kinotage/movie-reviews/internal/model"
	"github.com/kinotage/movie-reviews/internal/response"
)

// MovieStore is the catalog persistence the movie service needs.
type MovieStore interface {
	Create(ctx context.Context, m *model.Movie) error
	Update(ctx context.Context, id uint64, upd model.MovieUpdate) (model.Movie, error)
	Delete(ctx context.Context, id uint64) error
	GetByID(ctx context.Context, id uint64) (model.Movie, error)
	List(ctx context.Context, f model.MovieFilter) ([]model.Movie, int64, error)
}

// CatalogCache invalidates cached catalog responses. Mutations run it
// before returning so committed writes are immediately visible; a nil
// value disables invalidation.
type CatalogCache interface {
	InvalidateCatalog(ctx context.Context) error
}

// MovieService implements catalog curation and browsing. Role
// enforcement for the curation operations happens in the route
// middleware; the service only assumes CreatedBy identifies an
// authenticated admin.
type MovieService struct {
	movies          MovieStore
	cache           CatalogCache
	defaultPageSize int
	maxPageSize     int
}

func NewMovieService(movies MovieStore, cache CatalogCache, defaultPageSize, maxPageSize int) *MovieService {
	return &MovieService{movies: movies, cache: cache, defaultPageSize: defaultPageSize, maxPageSize: maxPageSize}
}

// invalidateCatalog clears cached catalog responses after a write.
// Failure only degrades freshness to the cache TTL, so it is logged
// rather than failing the mutation that already committed.
func invalidateCatalog(ctx context.Context, cache CatalogCache) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateCatalog(ctx); err != nil {
		log.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}

// MovieList is one catalog page plus the total match count, from
// which clients derive the page count.
type MovieList struct {
	Items []model.Movie `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func (s *MovieService) Create(ctx context.Context, m model.Movie) (model.Movie, error) {
	m.Genres = dedupeGenres(m.Genres)
	if err := s.movies.Create(ctx, &m); err != nil {
		return model.Movie{}, err
	}
	invalidateCatalog(ctx, s.cache)
	return m, nil
}

func (s *MovieService) Update(ctx context.Context, id uint64, upd model.MovieUpdate) (model.Movie, error) {
	if upd.Title == nil && upd.Description == nil && upd.ReleaseDate == nil && upd.Genres == nil {
		return model.Movie{}, response.Validation("No fields provided for update", nil)
	}
	upd.Genres = dedupeGenres(upd.Genres)
	movie, err := s.movies.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Movie{}, response.NotFound("Movie not found")
		}
		return model.Movie{}, err
	}
	invalidateCatalog(ctx, s.cache)
	return movie, nil
}

func (s *MovieService) Delete(ctx context.Context, id uint64) error {
	if err := s.movies.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return response.NotFound("Movie not found")
		}
		return err
	}
	invalidateCatalog(ctx, s.cache)
	return nil
}

// dedupeGenres drops repeated genre names while preserving the order
// of first appearance, so a repeated entry cannot trip the
// (movie_id, genre) primary key. Case-sensitive, like the genre
// filter. A nil slice stays nil (meaning "unchanged" on update).
func dedupeGenres(genres []string) []string {
	if genres == nil {
		return nil
	}
	seen := make(map[string]bool, len(genres))
	out := genres[:0]
	for _, g := range genres {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

func (s *MovieService) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	movie, err := s.movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Movie{}, response.NotFound("Movie not found")
		}
		return model.Movie{}, err
	}
	return movie, nil
}

// List normalizes pagination (1-based page, limit clamped to the
// configured maximum) and runs the filtered listing.
func (s *MovieService) List(ctx context.Context, f model.MovieFilter) (MovieList, error) {
	f.Page, f.Limit = s.normalizePage(f.Page, f.Limit)
	items, total, err := s.movies.List(ctx, f)
	if err != nil {
		return MovieList{}, err
	}
	return MovieList{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *MovieService) normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	return page, limit
}
