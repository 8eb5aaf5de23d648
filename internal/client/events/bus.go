// Package events is a small in-process publish/subscribe bus that decouples
// the sync/cache layer from the presentation layer. Publishers never call UI
// code directly; they emit a topic and payload and whoever subscribed gets
// the callback.
package events

import (
	"sync"

	"github.com/google/uuid"
)

// Topics emitted by the sync/cache layer.
const (
	TopicRateLimitExceeded = "rate-limit-exceeded"
	TopicPermissionChanged = "permission-changed"
)

// Handler receives the payload published on a topic. Handlers run
// synchronously on the publisher's goroutine and must not block.
type Handler func(payload any)

// Bus dispatches published payloads to topic subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]Handler // topic -> subscription id -> handler
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[string]map[string]Handler)}
}

// Subscribe registers h for topic and returns a subscription id for
// Unsubscribe.
func (b *Bus) Subscribe(topic string, h Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[string]Handler)
	}
	b.subscribers[topic][id] = h
	return id
}

// Unsubscribe removes a subscription; unknown ids are a no-op.
func (b *Bus) Unsubscribe(topic, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers[topic], id)
}

// Publish delivers payload to every current subscriber of topic.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers[topic]))
	for _, h := range b.subscribers[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
}
