package repository

import (
	"context"

	"cakemap/catalog/internal/domain"
)

// BookmarkRepository persists bookmarks keyed by shop id. List returns them in
// the order they were first saved; re-saving an existing id keeps its position.
type BookmarkRepository interface {
	Upsert(ctx context.Context, bookmark domain.Bookmark) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]domain.Bookmark, error)
	Close() error
}
