package domain

import "time"

// Bookmark is a saved link belonging to exactly one user. OwnerID is set at
// creation and never changes; there is no transfer operation.
type Bookmark struct {
	ID          string
	OwnerID     string
	Title       string
	Link        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
