package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"cakemap/catalog/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTimeout = 2 * time.Second
	testTick    = 5 * time.Millisecond
)

func newBadgerRepo(t *testing.T) BookmarkRepository {
	t.Helper()
	db, err := OpenBadger("")
	require.NoError(t, err)

	repo, err := NewBadgerBookmarkRepository(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func bookmarkFor(id int64, name string) domain.Bookmark {
	return domain.NewBookmark(domain.Shop{ID: id, Name: name, Region: domain.RegionGangnam, ImageURLs: []string{"https://img/" + name}})
}

// exerciseBookmarkRepository runs the behaviour shared by every backend.
func exerciseBookmarkRepository(t *testing.T, repo BookmarkRepository) {
	ctx := context.Background()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	require.NoError(t, repo.Upsert(ctx, bookmarkFor(30, "c")))
	require.NoError(t, repo.Upsert(ctx, bookmarkFor(10, "a")))
	require.NoError(t, repo.Upsert(ctx, bookmarkFor(20, "b")))

	// Re-saving keeps the original position but updates the payload.
	require.NoError(t, repo.Upsert(ctx, bookmarkFor(30, "c2")))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{30, 10, 20}, []int64{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, "c2", list[0].Name)

	exists, err := repo.Exists(ctx, 10)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Delete(ctx, 10))
	require.NoError(t, repo.Delete(ctx, 10), "delete is idempotent")

	exists, err = repo.Exists(ctx, 10)
	require.NoError(t, err)
	assert.False(t, exists)

	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBadgerBookmarkRepository(t *testing.T) {
	exerciseBookmarkRepository(t, newBadgerRepo(t))
}

func TestBadgerBookmarkRepositorySurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := OpenBadger(dir)
	require.NoError(t, err)
	repo, err := NewBadgerBookmarkRepository(db)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, bookmarkFor(1, "first")))
	require.NoError(t, repo.Close())

	db, err = OpenBadger(dir)
	require.NoError(t, err)
	repo, err = NewBadgerBookmarkRepository(db)
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.Upsert(ctx, bookmarkFor(2, "second")))
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, int64(2), list[1].ID)
}

func TestPostgresBookmarkRepository(t *testing.T) {
	dsn := os.Getenv("CAKEMAP_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CAKEMAP_TEST_DATABASE_URL is not set; skipping Postgres integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `DROP TABLE IF EXISTS bookmarks`)
	require.NoError(t, err)

	repo, err := NewPostgresBookmarkRepository(ctx, pool)
	require.NoError(t, err)
	defer repo.Close()

	exerciseBookmarkRepository(t, repo)
}
