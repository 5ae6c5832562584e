package iox2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPublishSubscribePatternNormalizesZeroCapacities(t *testing.T) {
	pattern := NewPublishSubscribePattern(PublishSubscribeConfig{})
	assert.Equal(t, uint32(1), pattern.PubSub.MaxPublishers)
	assert.Equal(t, uint32(1), pattern.PubSub.MaxSubscribers)
	assert.Equal(t, uint32(1), pattern.PubSub.MaxNodes)
	assert.Equal(t, uint64(1), pattern.PubSub.PayloadAlignment)
}

func TestNewEventPatternNormalizesZeroCapacities(t *testing.T) {
	pattern := NewEventPattern(EventConfig{})
	assert.Equal(t, uint32(1), pattern.Event.MaxNotifiers)
	assert.Equal(t, uint32(1), pattern.Event.MaxListeners)
	assert.Equal(t, uint32(1), pattern.Event.MaxNodes)
}

func TestMessagingPatternEqualRequiresSameKindAndCapacities(t *testing.T) {
	a := NewPublishSubscribePattern(PublishSubscribeConfig{MaxPublishers: 2, MaxSubscribers: 2, MaxNodes: 1, PayloadSize: 8, PayloadAlignment: 1})
	b := NewPublishSubscribePattern(PublishSubscribeConfig{MaxPublishers: 2, MaxSubscribers: 2, MaxNodes: 1, PayloadSize: 8, PayloadAlignment: 1})
	assert.True(t, a.Equal(b))

	c := NewPublishSubscribePattern(PublishSubscribeConfig{MaxPublishers: 3, MaxSubscribers: 2, MaxNodes: 1, PayloadSize: 8, PayloadAlignment: 1})
	assert.False(t, a.Equal(c))

	event := NewEventPattern(EventConfig{MaxNotifiers: 1, MaxListeners: 1, MaxNodes: 1})
	assert.False(t, a.Equal(event))
}
