package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/kinotage/movie-reviews/internal/model"
)

// MovieRepo provides CRUD and filtered listing for catalog movies.
// Genres live in the movie_genres table with a position column so the
// list keeps its submitted order. average_rating and review_count are
// derived columns owned by the review aggregation transaction; this
// repository only ever reads them.
type MovieRepo struct{ DB *sql.DB }

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{DB: db} }

const movieColumns = `m.id, m.title, m.description,
		DATE_FORMAT(m.release_date, '%Y-%m-%d'),
		m.average_rating, m.review_count, m.created_by,
		DATE_FORMAT(m.created_at, '%Y-%m-%dT%TZ'),
		DATE_FORMAT(m.updated_at, '%Y-%m-%dT%TZ')`

// Create inserts a movie and its genre rows in one transaction and
// returns the stored record.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO movies (title, description, release_date, created_by) VALUES (?,?,?,?)",
		m.Title, m.Description, m.ReleaseDate, m.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	if err := replaceGenresTx(ctx, tx, m.ID, m.Genres); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	*m = stored
	return nil
}

// Update applies a partial update with a dynamically built SET
// clause, replacing the genre list in the same transaction when one
// was provided. Returns sql.ErrNoRows when the movie does not exist.
func (r *MovieRepo) Update(ctx context.Context, id uint64, upd model.MovieUpdate) (model.Movie, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Movie{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists uint64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM movies WHERE id=? FOR UPDATE", id).Scan(&exists); err != nil {
		return model.Movie{}, err
	}

	sets := []string{}
	args := []any{}
	if upd.Title != nil {
		sets = append(sets, "title=?")
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *upd.Description)
	}
	if upd.ReleaseDate != nil {
		sets = append(sets, "release_date=?")
		args = append(args, *upd.ReleaseDate)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := tx.ExecContext(ctx,
			"UPDATE movies SET "+strings.Join(sets, ", ")+", updated_at=NOW() WHERE id=?", args...); err != nil {
			return model.Movie{}, err
		}
	}
	if upd.Genres != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM movie_genres WHERE movie_id=?", id); err != nil {
			return model.Movie{}, err
		}
		if err := replaceGenresTx(ctx, tx, id, upd.Genres); err != nil {
			return model.Movie{}, err
		}
		if len(sets) == 0 {
			if _, err := tx.ExecContext(ctx, "UPDATE movies SET updated_at=NOW() WHERE id=?", id); err != nil {
				return model.Movie{}, err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Movie{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a movie; reviews and genre rows cascade via foreign
// keys. Returns sql.ErrNoRows when nothing was deleted.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM movies WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetByID fetches a movie with its genres.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	var m model.Movie
	var desc sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+movieColumns+" FROM movies m WHERE m.id=? LIMIT 1", id).
		Scan(&m.ID, &m.Title, &desc, &m.ReleaseDate, &m.AverageRating, &m.ReviewCount,
			&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return model.Movie{}, err
	}
	if desc.Valid {
		m.Description = &desc.String
	}
	genres, err := r.genresFor(ctx, []uint64{m.ID})
	if err != nil {
		return model.Movie{}, err
	}
	m.Genres = genres[m.ID]
	if m.Genres == nil {
		m.Genres = []string{}
	}
	return m, nil
}

// List returns one page of movies matching the filter plus the total
// count under the same predicate. Results are ordered by release date
// descending.
func (r *MovieRepo) List(ctx context.Context, f model.MovieFilter) ([]model.Movie, int64, error) {
	cond, args := buildMovieFilter(f)

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM movies m WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	offset := (f.Page - 1) * f.Limit
	dataArgs := append(append([]any{}, args...), limit, offset)

	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies m WHERE "+cond+
			" ORDER BY m.release_date DESC, m.id DESC LIMIT ? OFFSET ?", dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Movie, 0, limit)
	ids := make([]uint64, 0, limit)
	for rows.Next() {
		var m model.Movie
		var desc sql.NullString
		if err := rows.Scan(&m.ID, &m.Title, &desc, &m.ReleaseDate, &m.AverageRating,
			&m.ReviewCount, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if desc.Valid {
			m.Description = &desc.String
		}
		m.Genres = []string{}
		out = append(out, m)
		ids = append(ids, m.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	genres, err := r.genresFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		if g := genres[out[i].ID]; g != nil {
			out[i].Genres = g
		}
	}
	return out, total, nil
}

// buildMovieFilter renders the listing predicate shared by the data
// and count queries. Title matching is case-insensitive substring,
// genre is exact membership against the stored casing, year matches
// the release date's calendar year.
func buildMovieFilter(f model.MovieFilter) (string, []any) {
	where := []string{}
	args := []any{}
	if f.Query != "" {
		where = append(where, "LOWER(m.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Query)+"%")
	}
	if f.Genre != "" {
		where = append(where, "EXISTS (SELECT 1 FROM movie_genres mg WHERE mg.movie_id = m.id AND mg.genre = ? COLLATE utf8mb4_bin)")
		args = append(args, f.Genre)
	}
	if f.Year != 0 {
		where = append(where, "YEAR(m.release_date) = ?")
		args = append(args, f.Year)
	}
	if len(where) == 0 {
		return "1=1", args
	}
	return strings.Join(where, " AND "), args
}

func (r *MovieRepo) genresFor(ctx context.Context, ids []uint64) (map[uint64][]string, error) {
	if len(ids) == 0 {
		return map[uint64][]string{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT movie_id, genre FROM movie_genres WHERE movie_id IN ("+placeholders+") ORDER BY movie_id, position",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[uint64][]string{}
	for rows.Next() {
		var id uint64
		var genre string
		if err := rows.Scan(&id, &genre); err != nil {
			return nil, err
		}
		out[id] = append(out[id], genre)
	}
	return out, rows.Err()
}

func replaceGenresTx(ctx context.Context, tx *sql.Tx, movieID uint64, genres []string) error {
	if len(genres) == 0 {
		return nil
	}
	query := "INSERT INTO movie_genres (movie_id, genre, position) VALUES "
	args := make([]any, 0, len(genres)*3)
	for i, g := range genres {
		if i > 0 {
			query += ","
		}
		query += "(?,?,?)"
		args = append(args, movieID, g, i)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
