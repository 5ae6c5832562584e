package dynconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEventParams() EventParams {
	return EventParams{
		MaxNodes:     2,
		MaxNotifiers: 2,
		MaxListeners: 2,
		EventIDMax:   130, // forces more than one bitmap word
	}
}

func newTestEventConfig(t *testing.T, p EventParams) *EventDynamicConfig {
	t.Helper()
	bytes := make([]byte, EventSize(p))
	return NewEventDynamicConfig(bytes, p)
}

func TestEventNotifyRejectsOutOfRangeID(t *testing.T) {
	cfg := newTestEventConfig(t, testEventParams())
	ok := cfg.Notify(0, cfg.Params.EventIDMax+1)
	assert.False(t, ok)
}

func TestEventTakePendingDrainsEverySetBit(t *testing.T) {
	cfg := newTestEventConfig(t, testEventParams())

	require.True(t, cfg.Notify(0, 3))
	require.True(t, cfg.Notify(0, 70)) // second word
	require.True(t, cfg.Notify(0, 130))

	assert.True(t, cfg.HasPending(0))
	pending := cfg.TakePending(0)
	assert.ElementsMatch(t, []uint64{3, 70, 130}, pending)
	assert.False(t, cfg.HasPending(0))
	assert.Empty(t, cfg.TakePending(0))
}

func TestEventTakeOnePendingLeavesOthersIntact(t *testing.T) {
	cfg := newTestEventConfig(t, testEventParams())

	require.True(t, cfg.Notify(0, 1))
	require.True(t, cfg.Notify(0, 2))

	id, ok := cfg.TakeOnePending(0)
	require.True(t, ok)
	assert.Equal(t, uint64(1), id, "TakeOnePending must drain the lowest pending id first")
	assert.True(t, cfg.HasPending(0), "the other pending id must survive a wait_one drain")

	id, ok = cfg.TakeOnePending(0)
	require.True(t, ok)
	assert.Equal(t, uint64(2), id)

	_, ok = cfg.TakeOnePending(0)
	assert.False(t, ok)
}

func TestEventPendingIsIsolatedPerListener(t *testing.T) {
	cfg := newTestEventConfig(t, testEventParams())

	require.True(t, cfg.Notify(0, 5))
	assert.False(t, cfg.HasPending(1))

	pending := cfg.TakePending(1)
	assert.Empty(t, pending)
	assert.True(t, cfg.HasPending(0))
}
