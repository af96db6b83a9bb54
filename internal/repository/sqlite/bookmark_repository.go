package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookmarkd/internal/domain"
	"bookmarkd/internal/repository"
)

const createBookmarksTable = `
CREATE TABLE IF NOT EXISTS bookmarks (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	link TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bookmarks_owner ON bookmarks(owner_id);
`

type BookmarkRepository struct {
	db *sql.DB
}

func NewBookmarkRepository(db *sql.DB) repository.BookmarkRepository {
	return &BookmarkRepository{db: db}
}

func (r *BookmarkRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createBookmarksTable); err != nil {
		return fmt.Errorf("create bookmarks table: %w", err)
	}
	return nil
}

func (r *BookmarkRepository) Create(ctx context.Context, bookmark *domain.Bookmark) error {
	now := time.Now().UTC()
	bookmark.CreatedAt = now
	bookmark.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO bookmarks (id, owner_id, title, link, description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		bookmark.ID,
		bookmark.OwnerID,
		bookmark.Title,
		bookmark.Link,
		bookmark.Description,
		bookmark.CreatedAt,
		bookmark.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	return nil
}

func (r *BookmarkRepository) Get(ctx context.Context, id string) (*domain.Bookmark, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, owner_id, title, link, description, created_at, updated_at
FROM bookmarks
WHERE id = ?`,
		id,
	)
	return scanBookmark(row)
}

func (r *BookmarkRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, owner_id, title, link, description, created_at, updated_at
FROM bookmarks
WHERE owner_id = ?
ORDER BY created_at ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []domain.Bookmark
	for rows.Next() {
		var b domain.Bookmark
		if err := rows.Scan(
			&b.ID,
			&b.OwnerID,
			&b.Title,
			&b.Link,
			&b.Description,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return bookmarks, nil
}

// UpdateIfOwner writes title/link/description filtered by both id and
// owner id. Zero rows affected means the record is gone or owned by
// someone else; both report ErrNotFound.
func (r *BookmarkRepository) UpdateIfOwner(ctx context.Context, bookmark *domain.Bookmark) error {
	bookmark.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE bookmarks
SET title = ?, link = ?, description = ?, updated_at = ?
WHERE id = ? AND owner_id = ?`,
		bookmark.Title,
		bookmark.Link,
		bookmark.Description,
		bookmark.UpdatedAt,
		bookmark.ID,
		bookmark.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update bookmark: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update bookmark rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update bookmark: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *BookmarkRepository) DeleteIfOwner(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM bookmarks
WHERE id = ? AND owner_id = ?`,
		id,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete bookmark rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete bookmark: %w", repository.ErrNotFound)
	}
	return nil
}

func scanBookmark(row interface {
	Scan(dest ...any) error
}) (*domain.Bookmark, error) {
	var b domain.Bookmark
	if err := row.Scan(
		&b.ID,
		&b.OwnerID,
		&b.Title,
		&b.Link,
		&b.Description,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bookmark: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan bookmark: %w", err)
	}
	return &b, nil
}
