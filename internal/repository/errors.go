// Package repository implements data access against MySQL. Sentinel values
// defined here let handlers distinguish failure scenarios without parsing
// driver errors: ErrNotFound maps to 404, ErrForbidden to 403, ErrConflict
// to 409 and ErrEmailExists to 400/409 depending on the endpoint.
//
// Scoped lookups deliberately return ErrNotFound rather than ErrForbidden
// when a row exists outside the caller's visibility, so existence of
// out-of-scope rows never leaks.
package repository

import "errors"

var (
	// ErrNotFound is returned when a row does not exist or is outside the
	// caller's role scope.
	ErrNotFound = errors.New("not found")

	// ErrEmailExists is returned when a user insert hits the unique email
	// constraint.
	ErrEmailExists = errors.New("email already exists")

	// ErrForbidden is returned when the caller attempts an operation on a
	// resource they may see but not mutate.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a mutation cannot proceed due to
	// dependent state, such as deleting a user who still leads projects.
	ErrConflict = errors.New("conflict")
)
