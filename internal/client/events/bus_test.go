package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishReachesSubscribers(t *testing.T) {
	b := NewBus()

	var got []any
	b.Subscribe(TopicRateLimitExceeded, func(payload any) {
		got = append(got, payload)
	})

	b.Publish(TopicRateLimitExceeded, "p1")
	b.Publish(TopicPermissionChanged, "other-topic")

	assert.Equal(t, []any{"p1"}, got, "only the subscribed topic is delivered")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus()

	calls := 0
	id := b.Subscribe(TopicPermissionChanged, func(any) { calls++ })

	b.Publish(TopicPermissionChanged, nil)
	b.Unsubscribe(TopicPermissionChanged, id)
	b.Publish(TopicPermissionChanged, nil)

	assert.Equal(t, 1, calls)
}

func TestPublishWithoutSubscribersIsSafe(t *testing.T) {
	b := NewBus()
	assert.NotPanics(t, func() { b.Publish("nobody-listens", 42) })
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	b := NewBus()

	a, c := 0, 0
	b.Subscribe(TopicRateLimitExceeded, func(any) { a++ })
	b.Subscribe(TopicRateLimitExceeded, func(any) { c++ })

	b.Publish(TopicRateLimitExceeded, nil)

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, c)
}
