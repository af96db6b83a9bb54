package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"bookmarkd/internal/auth"
	"bookmarkd/internal/storage"
)

// ErrExportUnavailable is returned when no object storage is configured.
var ErrExportUnavailable = errors.New("export storage is not configured")

// ExportService writes JSON snapshots of a user's bookmarks to object
// storage. Snapshots are keyed per user so one account can never list or
// overwrite another's exports.
type ExportService interface {
	Export(ctx context.Context, identity auth.Identity) (string, error)
	ListExports(ctx context.Context, identity auth.Identity) ([]storage.ObjectInfo, error)
}

type exportService struct {
	bookmarks BookmarkService
	store     storage.Service
	bucket    string
	keyPrefix string
	now       func() time.Time
}

func NewExportService(bookmarks BookmarkService, store storage.Service, bucket, keyPrefix string) ExportService {
	return &exportService{
		bookmarks: bookmarks,
		store:     store,
		bucket:    bucket,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

type exportSnapshot struct {
	UserID     string           `json:"user_id"`
	Email      string           `json:"email"`
	ExportedAt string           `json:"exported_at"`
	Bookmarks  []exportBookmark `json:"bookmarks"`
}

type exportBookmark struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func (s *exportService) Export(ctx context.Context, identity auth.Identity) (string, error) {
	if s.store == nil || s.bucket == "" {
		return "", ErrExportUnavailable
	}

	bookmarks, err := s.bookmarks.List(ctx, identity.UserID)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	snapshot := exportSnapshot{
		UserID:     identity.UserID,
		Email:      identity.Email,
		ExportedAt: now.Format(time.RFC3339),
		Bookmarks:  make([]exportBookmark, len(bookmarks)),
	}
	for i, b := range bookmarks {
		snapshot.Bookmarks[i] = exportBookmark{
			ID:          b.ID,
			Title:       b.Title,
			Link:        b.Link,
			Description: b.Description,
			CreatedAt:   b.CreatedAt.Format(time.RFC3339),
		}
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	key := path.Join(s.userPrefix(identity.UserID), fmt.Sprintf("bookmarks-%s.json", now.Format("20060102T150405Z")))
	return s.store.PutSnapshot(ctx, s.bucket, key, body)
}

func (s *exportService) ListExports(ctx context.Context, identity auth.Identity) ([]storage.ObjectInfo, error) {
	if s.store == nil || s.bucket == "" {
		return nil, ErrExportUnavailable
	}
	return s.store.ListObjects(ctx, s.bucket, s.userPrefix(identity.UserID)+"/")
}

func (s *exportService) userPrefix(userID string) string {
	return path.Join(s.keyPrefix, userID)
}
