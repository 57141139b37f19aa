package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kinotage/movie-reviews/internal/model"
	"github.com/kinotage/movie-reviews/internal/queue"
	"github.com/kinotage/movie-reviews/internal/repository"
	"github.com/kinotage/movie-reviews/internal/response"
)

// ReviewStore is the review persistence the review service needs.
// Create/Update/Delete are transactional with the movie aggregate
// recompute (see repository.ReviewRepo).
type ReviewStore interface {
	Create(ctx context.Context, rev *model.Review) error
	Update(ctx context.Context, id uint64, upd model.ReviewUpdate) (model.Review, error)
	Delete(ctx context.Context, id uint64) error
	GetByID(ctx context.Context, id uint64) (model.Review, error)
	GetByUserAndMovie(ctx context.Context, userID, movieID uint64) (model.Review, error)
	ListForMovie(ctx context.Context, movieID uint64) ([]model.Review, error)
}

// MovieFinder is the slice of the catalog store used to confirm a
// review target exists.
type MovieFinder interface {
	GetByID(ctx context.Context, id uint64) (model.Movie, error)
}

// EventPublisher emits review activity events to the message broker.
// Publishing is best-effort: failures are logged and never fail the
// request that triggered them.
type EventPublisher interface {
	PublishReviewActivity(ctx context.Context, ev queue.ReviewActivityEvent) error
}

// ReviewService enforces the one-review-per-user-per-movie contract
// and ownership of updates and deletes.
type ReviewService struct {
	reviews ReviewStore
	movies  MovieFinder
	events  EventPublisher // may be nil when no broker is configured
	cache   CatalogCache   // may be nil when caching is off
}

func NewReviewService(reviews ReviewStore, movies MovieFinder, events EventPublisher, cache CatalogCache) *ReviewService {
	return &ReviewService{reviews: reviews, movies: movies, events: events, cache: cache}
}

// Create adds a review for a movie. The pre-check gives the friendly
// conflict message; the unique key in storage closes the remaining
// concurrent-duplicate race.
func (s *ReviewService) Create(ctx context.Context, userID, movieID uint64, rating int, comment *string) (model.Review, error) {
	if _, err := s.movies.GetByID(ctx, movieID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Review{}, response.NotFound("Movie not found")
		}
		return model.Review{}, err
	}
	if _, err := s.reviews.GetByUserAndMovie(ctx, userID, movieID); err == nil {
		return model.Review{}, response.Conflict("You already reviewed this movie")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, err
	}

	rev := model.Review{UserID: userID, MovieID: movieID, Rating: rating, Comment: comment}
	if err := s.reviews.Create(ctx, &rev); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return model.Review{}, response.Conflict("You already reviewed this movie")
		}
		return model.Review{}, err
	}
	invalidateCatalog(ctx, s.cache)
	s.publish("created", rev)
	return rev, nil
}

// Update modifies the caller's own review.
func (s *ReviewService) Update(ctx context.Context, reviewID, userID uint64, upd model.ReviewUpdate) (model.Review, error) {
	if upd.Rating == nil && upd.Comment == nil {
		return model.Review{}, response.Validation("No fields provided for update", nil)
	}
	existing, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Review{}, response.NotFound("Review not found")
		}
		return model.Review{}, err
	}
	if existing.UserID != userID {
		return model.Review{}, response.Forbidden("You can only update your own reviews")
	}
	rev, err := s.reviews.Update(ctx, reviewID, upd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Review{}, response.NotFound("Review not found")
		}
		return model.Review{}, err
	}
	invalidateCatalog(ctx, s.cache)
	s.publish("updated", rev)
	return rev, nil
}

// Delete removes the caller's own review.
func (s *ReviewService) Delete(ctx context.Context, reviewID, userID uint64) error {
	existing, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return response.NotFound("Review not found")
		}
		return err
	}
	if existing.UserID != userID {
		return response.Forbidden("You can only delete your own reviews")
	}
	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return response.NotFound("Review not found")
		}
		return err
	}
	invalidateCatalog(ctx, s.cache)
	s.publish("deleted", existing)
	return nil
}

// ListForMovie returns all reviews for a movie, newest first.
func (s *ReviewService) ListForMovie(ctx context.Context, movieID uint64) ([]model.Review, error) {
	return s.reviews.ListForMovie(ctx, movieID)
}

// publish emits a review activity event without blocking the request.
func (s *ReviewService) publish(action string, rev model.Review) {
	if s.events == nil {
		return
	}
	ev := queue.ReviewActivityEvent{
		Action:     action,
		ReviewID:   rev.ID,
		UserID:     rev.UserID,
		MovieID:    rev.MovieID,
		Rating:     rev.Rating,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.events.PublishReviewActivity(ctx, ev); err != nil {
			log.Warn().Err(err).Str("action", action).Uint64("review_id", rev.ID).
				Msg("publish review activity failed")
		}
	}()
}
