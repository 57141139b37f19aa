package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/kinotage/movie-reviews/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,username,password_hash,role,created_at,updated_at"

// Create inserts a user with role USER and returns the stored record.
// The caller supplies an already-bcrypt-hashed password. Duplicate
// email/username are reported via the sentinel errors; which key was
// hit is derived from the driver's message since both live on the
// same table.
func (r *UserRepo) Create(ctx context.Context, email string, username *string, passwordHash string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, username, password_hash, role) VALUES (?,?,?,?)",
		email, username, passwordHash, model.RoleUser)
	if err != nil {
		if isDuplicateKey(err) {
			if strings.Contains(strings.ToLower(err.Error()), "username") {
				return model.User{}, ErrUsernameExists
			}
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByEmail fetches a user by normalized email. Returns
// sql.ErrNoRows when absent.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) scanOne(ctx context.Context, query string, arg interface{}) (model.User, error) {
	var (
		u        model.User
		username sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if username.Valid {
		u.Username = &username.String
	}
	return u, nil
}
