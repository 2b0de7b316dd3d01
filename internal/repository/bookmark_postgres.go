package repository

import (
	"context"
	"fmt"

	"cakemap/catalog/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BookmarkSchema creates the bookmarks table. seq records first-save order.
const BookmarkSchema = `
CREATE TABLE IF NOT EXISTS bookmarks (
	id         BIGINT PRIMARY KEY,
	seq        BIGSERIAL,
	data       JSONB NOT NULL,
	saved_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type postgresBookmarkRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookmarkRepository(ctx context.Context, db *pgxpool.Pool) (BookmarkRepository, error) {
	if _, err := db.Exec(ctx, BookmarkSchema); err != nil {
		return nil, fmt.Errorf("failed to create bookmarks table: %w", err)
	}
	return &postgresBookmarkRepository{
		db: db,
	}, nil
}

func (r *postgresBookmarkRepository) Upsert(ctx context.Context, bookmark domain.Bookmark) error {
	query := `
	INSERT INTO bookmarks (id, data, saved_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (id)
	DO UPDATE SET data = $2`
	_, err := r.db.Exec(ctx, query, bookmark.ID, bookmark, bookmark.SavedAt)
	if err != nil {
		return fmt.Errorf("failed to save bookmark: %w", err)
	}

	return nil
}

func (r *postgresBookmarkRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM bookmarks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	return nil
}

func (r *postgresBookmarkRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookmarks WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check bookmark: %w", err)
	}

	return exists, nil
}

func (r *postgresBookmarkRepository) List(ctx context.Context) ([]domain.Bookmark, error) {
	rows, err := r.db.Query(ctx, `SELECT data FROM bookmarks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := make([]domain.Bookmark, 0)
	for rows.Next() {
		var bookmark domain.Bookmark
		if err := rows.Scan(&bookmark); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, bookmark)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}

	return bookmarks, nil
}

func (r *postgresBookmarkRepository) Close() error {
	r.db.Close()
	return nil
}
