// Package utils provides token signing/verification and password hashing
// helpers used by the session service.
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned when a token fails signature, expiry,
// structure or claim checks. Callers translate it into a 401.
var ErrInvalidToken = errors.New("invalid token")

// SignedToken is a serialized JWT together with its expiry. Access
// tokens are short-lived and sent in the Authorization header;
// refresh tokens live longer, are signed with a distinct secret, and
// only their SHA-256 hash is ever persisted.
type SignedToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken builds and signs an HS256 JWT for a user with the
// access secret. Claims: sub (user id as string), role, jti (unique
// token id), iat and exp. TTL is in minutes.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (SignedToken, error) {
	return signToken(secret, userID, role, time.Duration(ttlMin)*time.Minute)
}

// NewRefreshToken is the same token shape signed with the refresh
// secret and a TTL in days. Using a separate secret means an access
// token can never be replayed as a refresh token or vice versa.
func NewRefreshToken(secret string, userID uint64, role string, ttlDays int) (SignedToken, error) {
	return signToken(secret, userID, role, time.Duration(ttlDays)*24*time.Hour)
}

func signToken(secret string, userID uint64, role string, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(userID, 10),
		"role": role,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// VerifyAccessToken parses and validates an access token and returns
// the subject user id and role. Any failure maps to ErrInvalidToken.
func VerifyAccessToken(secret, raw string) (uint64, string, error) {
	return verifyToken(secret, raw)
}

// VerifyRefreshToken is VerifyAccessToken for the refresh secret.
func VerifyRefreshToken(secret, raw string) (uint64, string, error) {
	return verifyToken(secret, raw)
}

func verifyToken(secret, raw string) (uint64, string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject anything but HMAC so a token cannot downgrade the
		// verification algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return 0, "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || userID == 0 {
		return 0, "", ErrInvalidToken
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return 0, "", ErrInvalidToken
	}
	return userID, role, nil
}

// HashRefreshRaw returns the SHA-256 hash of a serialized refresh
// token as a hex string. Only this hash is stored, so a database read
// never exposes a reusable credential.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
