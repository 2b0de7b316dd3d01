package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cakemap/catalog/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSource serves pages of size entries until pages are exhausted.
type fakeSource struct {
	pages int
	size  int

	calls     atomic.Int32
	mu        sync.Mutex
	requested []int
	failNext  error
	block     chan struct{}
	started   chan struct{}
}

func (f *fakeSource) FetchFeed(ctx context.Context, page int) ([]domain.FeedEntry, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.requested = append(f.requested, page)
	err := f.failNext
	f.failNext = nil
	block, started := f.block, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if page >= f.pages {
		return []domain.FeedEntry{}, nil
	}

	entries := make([]domain.FeedEntry, 0, f.size)
	for i := 0; i < f.size; i++ {
		entries = append(entries, domain.NewFeedEntry(int64(page*100+i), fmt.Sprintf("shop-%d-%d", page, i), domain.RegionMapo, ""))
	}
	return entries, nil
}

func shopIDs(entries []domain.FeedEntry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ShopID)
	}
	return out
}

func TestLoadNextPageAppends(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{pages: 3, size: 2}
	p := NewPaginator(src, 0)

	loaded, err := p.LoadNextPage(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	loaded, err = p.LoadNextPage(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)

	snap := p.Snapshot()
	assert.Equal(t, 2, snap.Page)
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, []int64{0, 1, 100, 101}, shopIDs(snap.Entries))
	assert.Equal(t, []int{0, 1}, src.requested)
}

func TestConcurrentLoadIsIgnored(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{pages: 5, size: 1, block: make(chan struct{}), started: make(chan struct{}, 1)}
	p := NewPaginator(src, 0)

	done := make(chan error, 1)
	go func() {
		_, err := p.LoadNextPage(ctx)
		done <- err
	}()
	<-src.started
	assert.Equal(t, StateLoading, p.State())

	loaded, err := p.LoadNextPage(ctx)
	require.NoError(t, err)
	assert.False(t, loaded, "second call while loading is ignored")

	close(src.block)
	require.NoError(t, <-done)

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 1, p.Snapshot().Page)
}

func TestErrorDoesNotAdvancePage(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{pages: 5, size: 1}
	p := NewPaginator(src, 0)

	_, err := p.LoadNextPage(ctx)
	require.NoError(t, err)

	src.failNext = domain.NewTransientError("fetch feed", errors.New("timeout"))
	loaded, err := p.LoadNextPage(ctx)
	assert.False(t, loaded)
	assert.ErrorIs(t, err, domain.ErrTransientNetwork)

	snap := p.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, 1, snap.Page)
	assert.Error(t, snap.LastError)

	loaded, err = p.LoadNextPage(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, []int{0, 1, 1}, src.requested, "retry reuses the same page number")
	assert.Equal(t, StateReady, p.State())
}

func TestEmptyPageExhaustsFeed(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{pages: 1, size: 3}
	p := NewPaginator(src, 0)

	for i := 0; i < 2; i++ {
		_, err := p.LoadNextPage(ctx)
		require.NoError(t, err)
	}
	assert.True(t, p.Snapshot().Exhausted)

	loaded, err := p.LoadNextPage(ctx)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, int32(2), src.calls.Load(), "exhausted feed issues no request")
	assert.Equal(t, StateReady, p.State())

	p.Reset()
	loaded, err = p.LoadNextPage(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
}

func TestResetDiscardsInFlightLoad(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{pages: 5, size: 2, block: make(chan struct{}), started: make(chan struct{}, 2)}
	p := NewPaginator(src, 0)

	done := make(chan bool, 1)
	go func() {
		loaded, _ := p.LoadNextPage(ctx)
		done <- loaded
	}()
	<-src.started

	p.Reset()
	assert.Equal(t, StateReady, p.State())

	// A fresh load may start right away.
	fresh := make(chan bool, 1)
	go func() {
		loaded, _ := p.LoadNextPage(ctx)
		fresh <- loaded
	}()
	<-src.started

	close(src.block)
	assert.False(t, <-done, "stale result is discarded")
	assert.True(t, <-fresh)

	snap := p.Snapshot()
	assert.Equal(t, 1, snap.Page)
	assert.Len(t, snap.Entries, 2)
}

func TestLoadIfNearEnd(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{pages: 10, size: 10}
	p := NewPaginator(src, 3)

	loaded, err := p.LoadIfNearEnd(ctx, -1)
	require.NoError(t, err)
	assert.True(t, loaded, "an empty feed always loads")

	loaded, err = p.LoadIfNearEnd(ctx, 2)
	require.NoError(t, err)
	assert.False(t, loaded)

	loaded, err = p.LoadIfNearEnd(ctx, 6)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Len(t, p.Snapshot().Entries, 20)
}

func TestLoadHonoursCancellation(t *testing.T) {
	src := &fakeSource{pages: 5, size: 1, block: make(chan struct{})}
	p := NewPaginator(src, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.LoadNextPage(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, p.Snapshot().Page)
}
