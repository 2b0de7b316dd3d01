package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cakemap/catalog/internal/bookmark"
	"cakemap/catalog/internal/config"
	"cakemap/catalog/internal/domain/event"
	"cakemap/catalog/internal/metrics"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	publishTimeout   = 2 * time.Second
	publishQueueSize = 256
)

type Publisher interface {
	Publish(ctx context.Context, e event.Event) (string, error) // Returns message ID
}

type RedisPublisher struct {
	redisClient  *redis.Client
	streamPrefix string
}

func NewRedisPublisher(redisClient *redis.Client, cfg config.RedisConfig) *RedisPublisher {
	prefix := cfg.StreamPrefix
	if prefix == "" {
		prefix = "cakemap:stream:"
	}
	return &RedisPublisher{
		redisClient:  redisClient,
		streamPrefix: prefix,
	}
}

func (p *RedisPublisher) StreamName(eventType string) string {
	return p.streamPrefix + eventType
}

func (p *RedisPublisher) Publish(ctx context.Context, e event.Event) (string, error) {
	eventType := e.EventType()
	streamName := p.StreamName(eventType)

	eventValue, err := e.EventValue()
	if err != nil {
		return "", fmt.Errorf("failed to serialize event: %w", err)
	}

	// Fields: event_type, event_data
	messageID, err := p.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		Values: map[string]interface{}{
			"event_type": eventType,
			"event_data": string(eventValue),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add event to Redis stream %s: %w", streamName, err)
	}

	log.Debugf("Added event %s to stream %s with message ID: %s", eventType, streamName, messageID)
	return messageID, nil
}

// Attach mirrors every bookmark change onto the event stream. Changes are
// queued and published by one goroutine, so a slow or unavailable Redis never
// holds up a bookmark write; when the queue is full the change is dropped with
// a warning. Publish errors are logged. detach unsubscribes and waits until the
// queued changes have been published.
func Attach(store bookmark.Store, publisher Publisher) (detach func()) {
	changes := make(chan bookmark.Change, publishQueueSize)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for change := range changes {
			publishChange(publisher, change)
		}
	}()

	var mu sync.Mutex
	closed := false
	unsubscribe := store.Subscribe(func(change bookmark.Change) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case changes <- change:
		default:
			metrics.DroppedEvents.Inc()
			log.Warnf("⚠️ Event queue full, dropping bookmark change for shop %d", change.ID)
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			mu.Lock()
			closed = true
			close(changes)
			mu.Unlock()
			<-done
		})
	}
}

func publishChange(publisher Publisher, change bookmark.Change) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	e := &event.BookmarkChanged{
		ShopID:     change.ID,
		Bookmarked: change.Bookmarked,
		Bookmark:   change.Bookmark,
		OccurredAt: time.Now().UTC(),
	}
	if _, err := publisher.Publish(ctx, e); err != nil {
		log.Warnf("⚠️ Failed to publish bookmark change for shop %d: %v", change.ID, err)
	}
}
