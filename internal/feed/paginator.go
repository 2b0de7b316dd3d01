package feed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"cakemap/catalog/internal/domain"
	"cakemap/catalog/internal/metrics"

	log "github.com/sirupsen/logrus"
)

type State int32

const (
	StateReady State = iota
	StateLoading
	StateError
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Source is the upstream the feed pages come from.
type Source interface {
	FetchFeed(ctx context.Context, page int) ([]domain.FeedEntry, error)
}

// Snapshot is a consistent copy of the paginator state.
type Snapshot struct {
	State     State              `json:"-"`
	Page      int                `json:"page"`
	Exhausted bool               `json:"exhausted"`
	Entries   []domain.FeedEntry `json:"entries"`
	LastError error              `json:"-"`
}

// Paginator accumulates feed pages. Page counts the pages loaded so far and is
// also the index of the next page to request.
type Paginator struct {
	source    Source
	threshold int

	state atomic.Int32

	mu         sync.RWMutex
	generation uint64
	page       int
	entries    []domain.FeedEntry
	exhausted  bool
	lastErr    error
}

func NewPaginator(source Source, threshold int) *Paginator {
	if threshold < 0 {
		threshold = 0
	}
	return &Paginator{
		source:    source,
		threshold: threshold,
		entries:   []domain.FeedEntry{},
	}
}

func (p *Paginator) State() State {
	return State(p.state.Load())
}

func (p *Paginator) tryBeginLoad() bool {
	return p.state.CompareAndSwap(int32(StateReady), int32(StateLoading)) ||
		p.state.CompareAndSwap(int32(StateError), int32(StateLoading))
}

// LoadNextPage fetches the next page and appends it. It returns false without
// error when the call was ignored: a load is already running, the feed is
// exhausted, or a Reset discarded the result.
func (p *Paginator) LoadNextPage(ctx context.Context) (bool, error) {
	// Holding mu pins the generation to this load against a concurrent Reset.
	p.mu.Lock()
	if !p.tryBeginLoad() {
		p.mu.Unlock()
		metrics.FeedPages.WithLabelValues("ignored").Inc()
		return false, nil
	}
	gen, page, exhausted := p.generation, p.page, p.exhausted
	p.mu.Unlock()

	if exhausted {
		p.finish(gen, StateReady)
		return false, nil
	}

	entries, err := p.source.FetchFeed(ctx, page)

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		// Reset already returned the paginator to Ready.
		metrics.FeedPages.WithLabelValues("discarded").Inc()
		log.Debugf("⏭️ Discarding feed page %d from before reset", page)
		return false, nil
	}

	if err != nil {
		p.lastErr = err
		p.state.Store(int32(StateError))
		metrics.FeedPages.WithLabelValues("failed").Inc()
		return false, fmt.Errorf("failed to load feed page %d: %w", page, err)
	}

	p.entries = append(p.entries, entries...)
	p.page++
	p.lastErr = nil
	if len(entries) == 0 {
		p.exhausted = true
		log.Infof("📭 Feed exhausted after %d pages", p.page)
	}
	p.state.Store(int32(StateReady))
	metrics.FeedPages.WithLabelValues("loaded").Inc()
	return true, nil
}

func (p *Paginator) finish(gen uint64, state State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen == p.generation {
		p.state.Store(int32(state))
	}
}

// LoadIfNearEnd loads the next page once the viewer is within the prefetch
// threshold of the last accumulated entry.
func (p *Paginator) LoadIfNearEnd(ctx context.Context, lastVisible int) (bool, error) {
	p.mu.RLock()
	remaining := len(p.entries) - 1 - lastVisible
	p.mu.RUnlock()

	if remaining > p.threshold {
		return false, nil
	}
	return p.LoadNextPage(ctx)
}

// Reset clears the feed. A load still in flight is discarded when it returns.
func (p *Paginator) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.generation++
	p.page = 0
	p.entries = []domain.FeedEntry{}
	p.exhausted = false
	p.lastErr = nil
	p.state.Store(int32(StateReady))
}

func (p *Paginator) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return Snapshot{
		State:     p.State(),
		Page:      p.page,
		Exhausted: p.exhausted,
		Entries:   append([]domain.FeedEntry{}, p.entries...),
		LastError: p.lastErr,
	}
}
