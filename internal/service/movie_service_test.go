package service

import (
	"context"
	"database/sql"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/kinotage/movie-reviews/internal/model"
)

// fakeMovieStore applies the same filter semantics as the SQL store:
// case-insensitive title substring, case-sensitive exact genre,
// release year, release-date-descending order.
type fakeMovieStore struct {
	nextID uint64
	byID   map[uint64]model.Movie
}

func newFakeMovieStore(movies ...model.Movie) *fakeMovieStore {
	f := &fakeMovieStore{byID: map[uint64]model.Movie{}}
	for _, m := range movies {
		f.nextID++
		m.ID = f.nextID
		f.byID[m.ID] = m
	}
	return f
}

func (f *fakeMovieStore) Create(_ context.Context, m *model.Movie) error {
	f.nextID++
	m.ID = f.nextID
	f.byID[m.ID] = *m
	return nil
}

func (f *fakeMovieStore) Update(_ context.Context, id uint64, upd model.MovieUpdate) (model.Movie, error) {
	m, ok := f.byID[id]
	if !ok {
		return model.Movie{}, sql.ErrNoRows
	}
	if upd.Title != nil {
		m.Title = *upd.Title
	}
	if upd.Description != nil {
		m.Description = upd.Description
	}
	if upd.ReleaseDate != nil {
		m.ReleaseDate = *upd.ReleaseDate
	}
	if upd.Genres != nil {
		m.Genres = upd.Genres
	}
	f.byID[id] = m
	return m, nil
}

func (f *fakeMovieStore) Delete(_ context.Context, id uint64) error {
	if _, ok := f.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeMovieStore) GetByID(_ context.Context, id uint64) (model.Movie, error) {
	m, ok := f.byID[id]
	if !ok {
		return model.Movie{}, sql.ErrNoRows
	}
	return m, nil
}

func (f *fakeMovieStore) List(_ context.Context, filter model.MovieFilter) ([]model.Movie, int64, error) {
	matched := []model.Movie{}
	for _, m := range f.byID {
		if filter.Query != "" && !strings.Contains(strings.ToLower(m.Title), strings.ToLower(filter.Query)) {
			continue
		}
		if filter.Genre != "" {
			found := false
			for _, g := range m.Genres {
				if g == filter.Genre {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if filter.Year != 0 && !strings.HasPrefix(m.ReleaseDate, strconv.Itoa(filter.Year)) {
			continue
		}
		matched = append(matched, m)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].ReleaseDate != matched[j].ReleaseDate {
			return matched[i].ReleaseDate > matched[j].ReleaseDate
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return []model.Movie{}, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// fakeCatalogCache counts invalidations so tests can assert that
// every catalog mutation clears cached responses before returning.
type fakeCatalogCache struct {
	calls int
}

func (f *fakeCatalogCache) InvalidateCatalog(_ context.Context) error {
	f.calls++
	return nil
}

func seedCatalog() *fakeMovieStore {
	return newFakeMovieStore(
		model.Movie{Title: "Interstellar", ReleaseDate: "2014-11-07", Genres: []string{"Sci-Fi", "Drama"}},
		model.Movie{Title: "Arrival", ReleaseDate: "2016-11-11", Genres: []string{"Sci-Fi"}},
		model.Movie{Title: "Dune", ReleaseDate: "2021-09-15", Genres: []string{"Sci-Fi", "Adventure"}},
	)
}

func TestMovieList(t *testing.T) {
	ctx := context.Background()
	svc := NewMovieService(seedCatalog(), nil, 20, 100)

	t.Run("orders by release date descending", func(t *testing.T) {
		res, err := svc.List(ctx, model.MovieFilter{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 3 || len(res.Items) != 3 {
			t.Fatalf("want all 3 movies, got total %d items %d", res.Total, len(res.Items))
		}
		if res.Items[0].Title != "Dune" || res.Items[2].Title != "Interstellar" {
			t.Errorf("unexpected order: %s .. %s", res.Items[0].Title, res.Items[2].Title)
		}
	})

	t.Run("title search is a case-insensitive substring", func(t *testing.T) {
		res, err := svc.List(ctx, model.MovieFilter{Query: "RiVaL"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 1 || res.Items[0].Title != "Arrival" {
			t.Errorf("want only Arrival, got %+v", res.Items)
		}
	})

	t.Run("genre match is exact and case-sensitive", func(t *testing.T) {
		res, err := svc.List(ctx, model.MovieFilter{Genre: "Sci-Fi"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 3 {
			t.Errorf("want 3 Sci-Fi movies, got %d", res.Total)
		}
		res, err = svc.List(ctx, model.MovieFilter{Genre: "sci-fi"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 0 {
			t.Errorf("lowercase genre must not match, got %d", res.Total)
		}
	})

	t.Run("year filter", func(t *testing.T) {
		res, err := svc.List(ctx, model.MovieFilter{Year: 2016})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 1 || res.Items[0].Title != "Arrival" {
			t.Errorf("want only Arrival for 2016, got %+v", res.Items)
		}
	})

	t.Run("pagination is 1-based with a full total", func(t *testing.T) {
		res, err := svc.List(ctx, model.MovieFilter{Page: 2, Limit: 1})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 3 || len(res.Items) != 1 {
			t.Fatalf("want 1 item of 3, got total %d items %d", res.Total, len(res.Items))
		}
		if res.Items[0].Title != "Arrival" {
			t.Errorf("page 2 of size 1 should hold Arrival, got %s", res.Items[0].Title)
		}
		if res.Page != 2 || res.Limit != 1 {
			t.Errorf("echoed page/limit wrong: %d/%d", res.Page, res.Limit)
		}
	})

	t.Run("page past the end is empty but keeps total", func(t *testing.T) {
		res, err := svc.List(ctx, model.MovieFilter{Page: 9, Limit: 10})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(res.Items) != 0 || res.Total != 3 {
			t.Errorf("want empty page with total 3, got %d items total %d", len(res.Items), res.Total)
		}
	})
}

func TestMovieListNormalization(t *testing.T) {
	ctx := context.Background()
	svc := NewMovieService(seedCatalog(), nil, 2, 3)

	cases := []struct {
		name      string
		page      int
		limit     int
		wantPage  int
		wantLimit int
	}{
		{"defaults", 0, 0, 1, 2},
		{"negative page", -4, 1, 1, 1},
		{"limit above max is clamped", 1, 50, 1, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.List(ctx, model.MovieFilter{Page: tc.page, Limit: tc.limit})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if res.Page != tc.wantPage || res.Limit != tc.wantLimit {
				t.Errorf("want page %d limit %d, got %d/%d", tc.wantPage, tc.wantLimit, res.Page, res.Limit)
			}
		})
	}
}

func TestMovieUpdate(t *testing.T) {
	ctx := context.Background()
	svc := NewMovieService(seedCatalog(), nil, 20, 100)

	t.Run("empty update is rejected", func(t *testing.T) {
		_, err := svc.Update(ctx, 1, model.MovieUpdate{})
		wantAPIError(t, err, http.StatusBadRequest, "No fields provided for update")
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		title := "Interstellar (IMAX)"
		m, err := svc.Update(ctx, 1, model.MovieUpdate{Title: &title})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if m.Title != title {
			t.Errorf("title not applied: %q", m.Title)
		}
		if m.ReleaseDate != "2014-11-07" {
			t.Errorf("release date should be untouched, got %q", m.ReleaseDate)
		}
	})

	t.Run("repeated genres collapse to one entry", func(t *testing.T) {
		genres := []string{"Action", "Action", "Drama", "Action"}
		m, err := svc.Update(ctx, 2, model.MovieUpdate{Genres: genres})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		want := []string{"Action", "Drama"}
		if len(m.Genres) != len(want) || m.Genres[0] != want[0] || m.Genres[1] != want[1] {
			t.Errorf("want %v, got %v", want, m.Genres)
		}
	})

	t.Run("unknown movie is not found", func(t *testing.T) {
		title := "x"
		_, err := svc.Update(ctx, 999, model.MovieUpdate{Title: &title})
		wantAPIError(t, err, http.StatusNotFound, "Movie not found")
		err = svc.Delete(ctx, 999)
		wantAPIError(t, err, http.StatusNotFound, "Movie not found")
		_, err = svc.GetByID(ctx, 999)
		wantAPIError(t, err, http.StatusNotFound, "Movie not found")
	})
}

func TestMovieCreateDeduplicatesGenres(t *testing.T) {
	svc := NewMovieService(newFakeMovieStore(), nil, 20, 100)
	m, err := svc.Create(context.Background(), model.Movie{
		Title:       "Seven",
		ReleaseDate: "1995-09-22",
		Genres:      []string{"Crime", "Thriller", "Crime"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := []string{"Crime", "Thriller"}
	if len(m.Genres) != len(want) || m.Genres[0] != want[0] || m.Genres[1] != want[1] {
		t.Errorf("want %v, got %v", want, m.Genres)
	}
}

func TestMovieMutationsInvalidateCache(t *testing.T) {
	ctx := context.Background()
	cache := &fakeCatalogCache{}
	svc := NewMovieService(seedCatalog(), cache, 20, 100)

	m, err := svc.Create(ctx, model.Movie{Title: "Memento", ReleaseDate: "2000-10-11", Genres: []string{"Thriller"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if cache.calls != 1 {
		t.Errorf("create should invalidate once, got %d", cache.calls)
	}

	title := "Memento (Director's Cut)"
	if _, err := svc.Update(ctx, m.ID, model.MovieUpdate{Title: &title}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if cache.calls != 2 {
		t.Errorf("update should invalidate, got %d", cache.calls)
	}

	if err := svc.Delete(ctx, m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if cache.calls != 3 {
		t.Errorf("delete should invalidate, got %d", cache.calls)
	}

	// Reads never touch the cache component.
	if _, err := svc.List(ctx, model.MovieFilter{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if cache.calls != 3 {
		t.Errorf("list must not invalidate, got %d", cache.calls)
	}
}
