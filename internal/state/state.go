package state

import (
	"context"
	"fmt"
	"sync"

	"cakemap/catalog/internal/domain"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Store is the raw key-value collaborator for small settings. Last write wins.
type Store interface {
	Get(ctx context.Context, name string) (value string, found bool, err error)
	Set(ctx context.Context, name, value string) error
}

// Key names a typed setting and the value returned when it has never been written.
type Key[T any] struct {
	Name    string
	Default T
}

var (
	LastCoordinate = Key[domain.Coordinate]{
		Name:    "last_coordinate",
		Default: domain.Coordinate{Latitude: 37.5665, Longitude: 126.9780}, // Seoul City Hall
	}
	LastSection      = Key[int]{Name: "last_section", Default: 0}
	FilterPreference = Key[[]domain.Category]{Name: "filter_preference", Default: []domain.Category{}}
)

func Get[T any](ctx context.Context, store Store, key Key[T]) (T, error) {
	raw, found, err := store.Get(ctx, key.Name)
	if err != nil {
		return key.Default, fmt.Errorf("failed to get setting %s: %w", key.Name, err)
	}
	if !found {
		return key.Default, nil
	}

	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return key.Default, fmt.Errorf("failed to parse setting %s: %w", key.Name, err)
	}
	return value, nil
}

func Set[T any](ctx context.Context, store Store, key Key[T], value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key.Name, err)
	}
	if err := store.Set(ctx, key.Name, string(raw)); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key.Name, err)
	}
	return nil
}

type redisStore struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisStore(redisClient *redis.Client, keyPrefix string) Store {
	return &redisStore{
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
	}
}

func (s *redisStore) Get(ctx context.Context, name string) (string, bool, error) {
	val, err := s.redisClient.Get(ctx, s.keyPrefix+name).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil // Never written
		}
		return "", false, err
	}
	return val, true, nil
}

func (s *redisStore) Set(ctx context.Context, name, value string) error {
	return s.redisClient.Set(ctx, s.keyPrefix+name, value, 0).Err() // No expiration
}

type memoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore keeps settings for the lifetime of the process only.
func NewMemoryStore() Store {
	return &memoryStore{values: make(map[string]string)}
}

func (s *memoryStore) Get(_ context.Context, name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[name]
	return val, ok, nil
}

func (s *memoryStore) Set(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}
