package bookmark

import (
	"context"
	"fmt"
	"sync"

	"cakemap/catalog/internal/domain"
	"cakemap/catalog/internal/metrics"
	"cakemap/catalog/internal/repository"

	log "github.com/sirupsen/logrus"
)

// Change is delivered to subscribers after a successful write.
type Change struct {
	ID         int64
	Bookmarked bool
	// Bookmark is set when Bookmarked is true.
	Bookmark *domain.Bookmark
}

type Store interface {
	IsBookmarked(ctx context.Context, id int64) (bool, error)
	Add(ctx context.Context, bookmark domain.Bookmark) error
	Remove(ctx context.Context, id int64) error
	// Toggle inverts the bookmark state of id and returns the new state.
	// makeIfAbsent is only called on the add path.
	Toggle(ctx context.Context, id int64, makeIfAbsent func() domain.Bookmark) (bool, error)
	ListAll(ctx context.Context) ([]domain.Bookmark, error)
	Subscribe(fn func(Change)) (unsubscribe func())
}

type store struct {
	repo  repository.BookmarkRepository
	locks *keyedMutex

	subMu       sync.RWMutex
	nextSubID   int
	subscribers map[int]func(Change)
}

func NewStore(repo repository.BookmarkRepository) Store {
	return &store{
		repo:        repo,
		locks:       newKeyedMutex(),
		subscribers: make(map[int]func(Change)),
	}
}

func (s *store) IsBookmarked(ctx context.Context, id int64) (bool, error) {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to read bookmark %d: %w", id, err)
	}
	return exists, nil
}

func (s *store) Add(ctx context.Context, bookmark domain.Bookmark) error {
	unlock := s.locks.Lock(bookmark.ID)
	defer unlock()

	if err := s.add(ctx, bookmark); err != nil {
		return err
	}
	s.notify(Change{ID: bookmark.ID, Bookmarked: true, Bookmark: &bookmark})
	return nil
}

func (s *store) Remove(ctx context.Context, id int64) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.remove(ctx, id); err != nil {
		return err
	}
	s.notify(Change{ID: id, Bookmarked: false})
	return nil
}

func (s *store) Toggle(ctx context.Context, id int64, makeIfAbsent func() domain.Bookmark) (bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		metrics.BookmarkToggles.WithLabelValues("failed").Inc()
		return false, fmt.Errorf("failed to read bookmark %d: %w", id, err)
	}

	if exists {
		if err := s.remove(ctx, id); err != nil {
			metrics.BookmarkToggles.WithLabelValues("failed").Inc()
			return true, err
		}
		metrics.BookmarkToggles.WithLabelValues("removed").Inc()
		s.notify(Change{ID: id, Bookmarked: false})
		return false, nil
	}

	bookmark := makeIfAbsent()
	bookmark.ID = id
	if err := s.add(ctx, bookmark); err != nil {
		metrics.BookmarkToggles.WithLabelValues("failed").Inc()
		return false, err
	}
	metrics.BookmarkToggles.WithLabelValues("added").Inc()
	s.notify(Change{ID: id, Bookmarked: true, Bookmark: &bookmark})
	return true, nil
}

func (s *store) ListAll(ctx context.Context) ([]domain.Bookmark, error) {
	bookmarks, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	if bookmarks == nil {
		bookmarks = []domain.Bookmark{}
	}
	return bookmarks, nil
}

func (s *store) add(ctx context.Context, bookmark domain.Bookmark) error {
	if err := s.repo.Upsert(ctx, bookmark); err != nil {
		log.Errorf("❌ Failed to save bookmark %d: %v", bookmark.ID, err)
		return fmt.Errorf("failed to add bookmark %d: %w: %w", bookmark.ID, domain.ErrStoreWrite, err)
	}
	return nil
}

func (s *store) remove(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		log.Errorf("❌ Failed to delete bookmark %d: %v", id, err)
		return fmt.Errorf("failed to remove bookmark %d: %w: %w", id, domain.ErrStoreWrite, err)
	}
	return nil
}

func (s *store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

// notify runs while the id lock is held, so subscribers see changes to one id in
// order. Subscribers must not block; hand slow work off to another goroutine.
func (s *store) notify(change Change) {
	s.subMu.RLock()
	subs := make([]func(Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(change)
	}
}
