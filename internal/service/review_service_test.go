package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/kinotage/movie-reviews/internal/model"
	"github.com/kinotage/movie-reviews/internal/queue"
	"github.com/kinotage/movie-reviews/internal/repository"
)

type fakeCatalog struct {
	byID map[uint64]model.Movie
}

func (f *fakeCatalog) GetByID(_ context.Context, id uint64) (model.Movie, error) {
	m, ok := f.byID[id]
	if !ok {
		return model.Movie{}, sql.ErrNoRows
	}
	return m, nil
}

// fakeReviewStore mirrors the transactional contract of the SQL
// repository: every mutation rewrites the movie's average_rating and
// review_count before returning.
type fakeReviewStore struct {
	nextID uint64
	byID   map[uint64]model.Review
	movies *fakeCatalog
}

func newFakeReviewStore(movies *fakeCatalog) *fakeReviewStore {
	return &fakeReviewStore{byID: map[uint64]model.Review{}, movies: movies}
}

func (f *fakeReviewStore) recalc(movieID uint64) {
	sum, n := 0, 0
	for _, r := range f.byID {
		if r.MovieID == movieID {
			sum += r.Rating
			n++
		}
	}
	m := f.movies.byID[movieID]
	if n == 0 {
		m.AverageRating = 0
	} else {
		m.AverageRating = float64(sum) / float64(n)
	}
	m.ReviewCount = n
	f.movies.byID[movieID] = m
}

func (f *fakeReviewStore) Create(_ context.Context, rev *model.Review) error {
	for _, r := range f.byID {
		if r.UserID == rev.UserID && r.MovieID == rev.MovieID {
			return repository.ErrDuplicateReview
		}
	}
	f.nextID++
	rev.ID = f.nextID
	f.byID[rev.ID] = *rev
	f.recalc(rev.MovieID)
	return nil
}

func (f *fakeReviewStore) Update(_ context.Context, id uint64, upd model.ReviewUpdate) (model.Review, error) {
	r, ok := f.byID[id]
	if !ok {
		return model.Review{}, sql.ErrNoRows
	}
	if upd.Rating != nil {
		r.Rating = *upd.Rating
	}
	if upd.Comment != nil {
		r.Comment = upd.Comment
	}
	f.byID[id] = r
	f.recalc(r.MovieID)
	return r, nil
}

func (f *fakeReviewStore) Delete(_ context.Context, id uint64) error {
	r, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	delete(f.byID, id)
	f.recalc(r.MovieID)
	return nil
}

func (f *fakeReviewStore) GetByID(_ context.Context, id uint64) (model.Review, error) {
	r, ok := f.byID[id]
	if !ok {
		return model.Review{}, sql.ErrNoRows
	}
	return r, nil
}

func (f *fakeReviewStore) GetByUserAndMovie(_ context.Context, userID, movieID uint64) (model.Review, error) {
	for _, r := range f.byID {
		if r.UserID == userID && r.MovieID == movieID {
			return r, nil
		}
	}
	return model.Review{}, sql.ErrNoRows
}

func (f *fakeReviewStore) ListForMovie(_ context.Context, movieID uint64) ([]model.Review, error) {
	out := []model.Review{}
	for _, r := range f.byID {
		if r.MovieID == movieID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakePublisher struct {
	events chan queue.ReviewActivityEvent
}

func (f *fakePublisher) PublishReviewActivity(_ context.Context, ev queue.ReviewActivityEvent) error {
	f.events <- ev
	return nil
}

func newTestReviewService() (*ReviewService, *fakeCatalog, *fakeReviewStore, *fakePublisher) {
	movies := &fakeCatalog{byID: map[uint64]model.Movie{
		1: {ID: 1, Title: "Arrival", ReleaseDate: "2016-11-11"},
		2: {ID: 2, Title: "Dune", ReleaseDate: "2021-09-15"},
	}}
	reviews := newFakeReviewStore(movies)
	pub := &fakePublisher{events: make(chan queue.ReviewActivityEvent, 16)}
	return NewReviewService(reviews, movies, pub, nil), movies, reviews, pub
}

func TestReviewCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects unknown movie", func(t *testing.T) {
		svc, _, _, _ := newTestReviewService()
		_, err := svc.Create(ctx, 10, 999, 4, nil)
		wantAPIError(t, err, http.StatusNotFound, "Movie not found")
	})

	t.Run("one review per user per movie", func(t *testing.T) {
		svc, _, _, _ := newTestReviewService()
		if _, err := svc.Create(ctx, 10, 1, 5, nil); err != nil {
			t.Fatalf("first review: %v", err)
		}
		_, err := svc.Create(ctx, 10, 1, 3, nil)
		wantAPIError(t, err, http.StatusConflict, "You already reviewed this movie")

		// Same user on a different movie is fine.
		if _, err := svc.Create(ctx, 10, 2, 3, nil); err != nil {
			t.Errorf("review of a second movie should succeed: %v", err)
		}
		// Different user on the same movie is fine.
		if _, err := svc.Create(ctx, 11, 1, 4, nil); err != nil {
			t.Errorf("second reviewer should succeed: %v", err)
		}
	})

	t.Run("publishes a created event", func(t *testing.T) {
		svc, _, _, pub := newTestReviewService()
		rev, err := svc.Create(ctx, 10, 1, 5, nil)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		select {
		case ev := <-pub.events:
			if ev.Action != "created" || ev.ReviewID != rev.ID || ev.MovieID != 1 {
				t.Errorf("unexpected event %+v", ev)
			}
		case <-time.After(time.Second):
			t.Error("no review activity event published")
		}
	})
}

func TestReviewAggregates(t *testing.T) {
	ctx := context.Background()
	svc, movies, _, _ := newTestReviewService()

	r1, err := svc.Create(ctx, 10, 1, 5, nil)
	if err != nil {
		t.Fatalf("first review: %v", err)
	}
	r2, err := svc.Create(ctx, 11, 1, 4, nil)
	if err != nil {
		t.Fatalf("second review: %v", err)
	}

	m := movies.byID[1]
	if m.AverageRating != 4.5 || m.ReviewCount != 2 {
		t.Fatalf("after two reviews want avg 4.5 count 2, got avg %v count %d", m.AverageRating, m.ReviewCount)
	}

	three := 3
	if _, err := svc.Update(ctx, r1.ID, 10, model.ReviewUpdate{Rating: &three}); err != nil {
		t.Fatalf("update: %v", err)
	}
	m = movies.byID[1]
	if m.AverageRating != 3.5 || m.ReviewCount != 2 {
		t.Fatalf("after update want avg 3.5 count 2, got avg %v count %d", m.AverageRating, m.ReviewCount)
	}

	if err := svc.Delete(ctx, r1.ID, 10); err != nil {
		t.Fatalf("delete first: %v", err)
	}
	if err := svc.Delete(ctx, r2.ID, 11); err != nil {
		t.Fatalf("delete second: %v", err)
	}
	m = movies.byID[1]
	if m.AverageRating != 0 || m.ReviewCount != 0 {
		t.Fatalf("after deleting all want avg 0 count 0, got avg %v count %d", m.AverageRating, m.ReviewCount)
	}
}

func TestReviewOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestReviewService()
	rev, err := svc.Create(ctx, 10, 1, 5, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	two := 2

	t.Run("update by another user is forbidden", func(t *testing.T) {
		_, err := svc.Update(ctx, rev.ID, 11, model.ReviewUpdate{Rating: &two})
		wantAPIError(t, err, http.StatusForbidden, "You can only update your own reviews")
	})

	t.Run("delete by another user is forbidden", func(t *testing.T) {
		err := svc.Delete(ctx, rev.ID, 11)
		wantAPIError(t, err, http.StatusForbidden, "You can only delete your own reviews")
	})

	t.Run("update with no fields is a validation error", func(t *testing.T) {
		_, err := svc.Update(ctx, rev.ID, 10, model.ReviewUpdate{})
		wantAPIError(t, err, http.StatusBadRequest, "No fields provided for update")
	})

	t.Run("missing review is not found", func(t *testing.T) {
		_, err := svc.Update(ctx, 999, 10, model.ReviewUpdate{Rating: &two})
		wantAPIError(t, err, http.StatusNotFound, "Review not found")
		err = svc.Delete(ctx, 999, 10)
		wantAPIError(t, err, http.StatusNotFound, "Review not found")
	})
}

func TestReviewServiceNilPublisher(t *testing.T) {
	movies := &fakeCatalog{byID: map[uint64]model.Movie{1: {ID: 1, Title: "Heat"}}}
	svc := NewReviewService(newFakeReviewStore(movies), movies, nil, nil)
	if _, err := svc.Create(context.Background(), 10, 1, 4, nil); err != nil {
		t.Fatalf("create without a broker should still work: %v", err)
	}
}

func TestReviewMutationsInvalidateCache(t *testing.T) {
	ctx := context.Background()
	movies := &fakeCatalog{byID: map[uint64]model.Movie{1: {ID: 1, Title: "Heat"}}}
	cache := &fakeCatalogCache{}
	svc := NewReviewService(newFakeReviewStore(movies), movies, nil, cache)

	rev, err := svc.Create(ctx, 10, 1, 4, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if cache.calls != 1 {
		t.Errorf("create should invalidate once, got %d", cache.calls)
	}

	five := 5
	if _, err := svc.Update(ctx, rev.ID, 10, model.ReviewUpdate{Rating: &five}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if cache.calls != 2 {
		t.Errorf("update should invalidate, got %d", cache.calls)
	}

	if err := svc.Delete(ctx, rev.ID, 10); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if cache.calls != 3 {
		t.Errorf("delete should invalidate, got %d", cache.calls)
	}

	// Failed mutations must not invalidate.
	if _, err := svc.Create(ctx, 10, 999, 4, nil); err == nil {
		t.Fatal("expected unknown movie to fail")
	}
	if cache.calls != 3 {
		t.Errorf("failed create must not invalidate, got %d", cache.calls)
	}
}
