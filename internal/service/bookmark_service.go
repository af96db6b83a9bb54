package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bookmarkd/internal/domain"
	"bookmarkd/internal/repository"
)

// ErrAccessDenied is returned when an authenticated caller targets a
// bookmark it does not own.
var ErrAccessDenied = errors.New("access to resource is denied")

// BookmarkService coordinates bookmark operations and enforces ownership.
type BookmarkService interface {
	Create(ctx context.Context, ownerID, title, link, description string) (*domain.Bookmark, error)
	List(ctx context.Context, ownerID string) ([]domain.Bookmark, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Bookmark, error)
	Update(ctx context.Context, ownerID, id string, title, link, description *string) (*domain.Bookmark, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type bookmarkService struct {
	bookmarks repository.BookmarkRepository
}

func NewBookmarkService(bookmarks repository.BookmarkRepository) BookmarkService {
	return &bookmarkService{bookmarks: bookmarks}
}

func (s *bookmarkService) Create(ctx context.Context, ownerID, title, link, description string) (*domain.Bookmark, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if link == "" {
		return nil, fmt.Errorf("%w: link is required", ErrInvalidInput)
	}

	bookmark := &domain.Bookmark{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Link:        link,
		Description: description,
	}

	if err := s.bookmarks.Create(ctx, bookmark); err != nil {
		return nil, err
	}
	return bookmark, nil
}

func (s *bookmarkService) List(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	return s.bookmarks.ListByOwner(ctx, ownerID)
}

// Get returns (nil, nil) when the bookmark is absent or owned by someone
// else; callers cannot tell the two apart.
func (s *bookmarkService) Get(ctx context.Context, ownerID, id string) (*domain.Bookmark, error) {
	bookmark, err := s.bookmarks.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if bookmark.OwnerID != ownerID {
		return nil, nil
	}
	return bookmark, nil
}

// Update checks existence and ownership before mutating. The repository
// write is additionally scoped by owner id, so a divergent view between
// the check and the write still cannot touch another user's record.
func (s *bookmarkService) Update(ctx context.Context, ownerID, id string, title, link, description *string) (*domain.Bookmark, error) {
	bookmark, err := s.authorizeOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if title != nil {
		bookmark.Title = *title
	}
	if link != nil {
		bookmark.Link = *link
	}
	if description != nil {
		bookmark.Description = *description
	}

	if err := s.bookmarks.UpdateIfOwner(ctx, bookmark); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	return bookmark, nil
}

func (s *bookmarkService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.authorizeOwner(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.bookmarks.DeleteIfOwner(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccessDenied
		}
		return err
	}
	return nil
}

// authorizeOwner fetches the record unscoped so "not found" and "not
// yours" can be told apart internally; both surface as ErrAccessDenied.
func (s *bookmarkService) authorizeOwner(ctx context.Context, ownerID, id string) (*domain.Bookmark, error) {
	bookmark, err := s.bookmarks.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	if bookmark.OwnerID != ownerID {
		return nil, ErrAccessDenied
	}
	return bookmark, nil
}
