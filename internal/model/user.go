package model

import "time"

// Role values stored in users.role. Accounts are created as USER;
// promotion to ADMIN happens out of band (seed script or manual SQL).
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table. Emails are normalized to lowercase before insert so
// uniqueness is case-insensitive. Username is optional but unique
// when present. The json tags are omitted because these structs are
// used by the repository layer; handlers define response types with
// the JSON shape the client expects.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	Username     *string   // users.username (nullable, unique)
	PasswordHash string    // users.password_hash
	Role         string    // users.role (USER or ADMIN)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and carries metadata for expiry
// and revocation. The raw token is never stored; only its SHA-256
// hash. A token is usable while RevokedAt is null and ExpiresAt is
// in the future, and is revoked the moment it is redeemed (rotation).
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
