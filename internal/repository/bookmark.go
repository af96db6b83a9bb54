package repository

import (
	"context"

	"bookmarkd/internal/domain"
)

// BookmarkRepository exposes persistence operations for Bookmark records.
// UpdateIfOwner and DeleteIfOwner filter by both id and owner id so a
// mutation can never touch a row the caller does not own, regardless of
// what the service layer checked beforehand.
type BookmarkRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, bookmark *domain.Bookmark) error
	Get(ctx context.Context, id string) (*domain.Bookmark, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Bookmark, error)
	UpdateIfOwner(ctx context.Context, bookmark *domain.Bookmark) error
	DeleteIfOwner(ctx context.Context, id, ownerID string) error
}
