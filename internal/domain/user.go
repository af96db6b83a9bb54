package domain

import "time"

// User represents a registered account. PasswordHash is internal state and
// must be stripped before a User leaves the service layer.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
