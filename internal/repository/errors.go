package repository

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist, or
	// when an owner-scoped mutation matched no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an insert violates a uniqueness
	// constraint, such as a duplicate user email.
	ErrConflict = errors.New("record already exists")
)
