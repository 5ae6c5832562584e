package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimedWaitOneTimesOutWithNothingPending(t *testing.T) {
	factory := newTestEventFactory(t, testEventParams(1, 1, 10))
	listener, ok, err := factory.ListenerBuilder().Create()
	require.NoError(t, err)
	require.True(t, ok)
	defer listener.Drop()

	_, gotOK, err := listener.TimedWaitOne(20 * time.Millisecond)
	require.NoError(t, err)
	assert.False(t, gotOK)
}

func TestTryWaitAllDrainsEveryPendingID(t *testing.T) {
	factory := newTestEventFactory(t, testEventParams(1, 1, 10))
	listener, ok, err := factory.ListenerBuilder().Create()
	require.NoError(t, err)
	require.True(t, ok)
	defer listener.Drop()

	notifier, ok := factory.NotifierBuilder().Create()
	require.True(t, ok)

	require.NoError(t, notifier.NotifyWithCustomEventID(1))
	require.NoError(t, notifier.NotifyWithCustomEventID(3))

	pending, err := listener.TryWaitAll()
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 3}, pending)

	pending, err = listener.TryWaitAll()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestTryWaitOneLeavesOtherIDsForLaterWaits(t *testing.T) {
	factory := newTestEventFactory(t, testEventParams(1, 1, 10))
	listener, ok, err := factory.ListenerBuilder().Create()
	require.NoError(t, err)
	require.True(t, ok)
	defer listener.Drop()

	notifier, ok := factory.NotifierBuilder().Create()
	require.True(t, ok)

	require.NoError(t, notifier.NotifyWithCustomEventID(2))
	require.NoError(t, notifier.NotifyWithCustomEventID(4))

	id, gotOK, err := listener.TryWaitOne()
	require.NoError(t, err)
	require.True(t, gotOK)
	assert.Equal(t, uint64(2), id)

	pending, err := listener.TryWaitAll()
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, pending, "the id not drained by wait_one must still be pending for wait_all")
}

func TestListenerDropUnblocksBlockingWait(t *testing.T) {
	factory := newTestEventFactory(t, testEventParams(1, 1, 10))
	listener, ok, err := factory.ListenerBuilder().Create()
	require.NoError(t, err)
	require.True(t, ok)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = listener.BlockingWaitOne()
	}()

	time.Sleep(20 * time.Millisecond)
	listener.Drop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dropping the listener did not unblock BlockingWaitOne")
	}
}
