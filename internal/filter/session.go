package filter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cakemap/catalog/internal/domain"
	"cakemap/catalog/internal/state"

	log "github.com/sirupsen/logrus"
)

var ErrSessionClosed = errors.New("filter session is closed")

type SessionState int

const (
	SessionIdle SessionState = iota
	SessionEditing
	SessionApplied
	SessionAbandoned
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionEditing:
		return "editing"
	case SessionApplied:
		return "applied"
	case SessionAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Session is one pass of editing the category selection. It starts from the
// persisted preference and only writes it back on Apply.
type Session struct {
	store state.Store

	mu       sync.Mutex
	state    SessionState
	baseline domain.CategorySet
	current  domain.CategorySet
}

func NewSession(ctx context.Context, store state.Store) (*Session, error) {
	saved, err := state.Get(ctx, store, state.FilterPreference)
	if err != nil {
		return nil, fmt.Errorf("failed to load filter preference: %w", err)
	}

	baseline := domain.NewCategorySet(saved...)
	return &Session{
		store:    store,
		state:    SessionIdle,
		baseline: baseline,
		current:  baseline.Clone(),
	}, nil
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) edit(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionApplied || s.state == SessionAbandoned {
		return ErrSessionClosed
	}
	fn()
	s.state = SessionEditing
	return nil
}

func (s *Session) Add(category domain.Category) error {
	return s.edit(func() { s.current[category] = struct{}{} })
}

func (s *Session) Remove(category domain.Category) error {
	return s.edit(func() { delete(s.current, category) })
}

func (s *Session) Toggle(category domain.Category) error {
	return s.edit(func() {
		if s.current.Contains(category) {
			delete(s.current, category)
			return
		}
		s.current[category] = struct{}{}
	})
}

// Replace swaps the whole selection.
func (s *Session) Replace(categories domain.CategorySet) error {
	return s.edit(func() { s.current = categories.Clone() })
}

func (s *Session) Selected() domain.CategorySet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

func (s *Session) Baseline() domain.CategorySet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseline.Clone()
}

func (s *Session) HasChanged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HasChanged(s.current, s.baseline)
}

// Apply persists the selection as the new baseline and closes the session.
func (s *Session) Apply(ctx context.Context) (domain.CategorySet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionApplied || s.state == SessionAbandoned {
		return nil, ErrSessionClosed
	}

	if err := state.Set(ctx, s.store, state.FilterPreference, s.current.Slice()); err != nil {
		return nil, fmt.Errorf("failed to save filter preference: %w", err)
	}

	s.baseline = s.current.Clone()
	s.state = SessionApplied
	log.Debugf("🎂 Applied category filter %v", s.current.Slice())
	return s.current.Clone(), nil
}

// Abandon closes the session and leaves the saved preference untouched.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionApplied || s.state == SessionAbandoned {
		return ErrSessionClosed
	}
	s.current = s.baseline.Clone()
	s.state = SessionAbandoned
	return nil
}
