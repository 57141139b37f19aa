// Package repository persists users, refresh tokens, movies and
// reviews in MySQL. Sentinel errors defined here let the service
// layer distinguish storage conflicts from plain failures without
// inspecting driver error strings itself.
package repository

import (
	"errors"
	"strings"
)

// ErrEmailExists is returned when a user insert hits the unique email
// key. Services translate it into an HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrUsernameExists is returned when a user insert hits the unique
// username key.
var ErrUsernameExists = errors.New("username already exists")

// ErrDuplicateReview is returned when a review insert hits the unique
// (user_id, movie_id) key. The storage constraint is the
// authoritative duplicate guard; the service pre-check only provides
// the friendly error message in the common case.
var ErrDuplicateReview = errors.New("review already exists for this user and movie")

// isDuplicateKey reports whether err is a MySQL duplicate-entry
// violation (error 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
