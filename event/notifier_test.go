package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iox2/internal/dynconfig"
	"iox2/internal/ids"
	"iox2/internal/shm"
)

func testEventParams(maxNotifiers, maxListeners int, eventIDMax uint64) dynconfig.EventParams {
	return dynconfig.EventParams{
		MaxNodes:     1,
		MaxNotifiers: maxNotifiers,
		MaxListeners: maxListeners,
		EventIDMax:   eventIDMax,
	}
}

func newTestEventFactory(t *testing.T, params dynconfig.EventParams) *PortFactory {
	t.Helper()
	dir := shm.Dir(t.TempDir())
	seg, err := shm.Create(dir, "event.dynamic", dynconfig.EventSize(params))
	require.NoError(t, err)
	t.Cleanup(func() { seg.Close() })

	dyn := dynconfig.NewEventDynamicConfig(seg.Bytes(), params)
	nodeSlot, ok := dyn.Nodes.Claim([16]byte(ids.New()), 0)
	require.True(t, ok)

	return NewPortFactory(dir, "svc", seg, dyn, nodeSlot)
}

func TestNotifyWakesBlockingListener(t *testing.T) {
	factory := newTestEventFactory(t, testEventParams(1, 1, 10))

	listener, ok, err := factory.ListenerBuilder().Create()
	require.NoError(t, err)
	require.True(t, ok)
	defer listener.Drop()

	notifier, ok := factory.NotifierBuilder().Create()
	require.True(t, ok)
	defer notifier.Drop()

	done := make(chan struct{})
	var gotID uint64
	var gotOK bool
	go func() {
		defer close(done)
		gotID, gotOK, _ = listener.BlockingWaitOne()
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, notifier.NotifyWithCustomEventID(7))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("BlockingWaitOne did not wake up after Notify")
	}
	assert.True(t, gotOK)
	assert.Equal(t, uint64(7), gotID)
}

func TestNotifyWithCustomEventIDRejectsOutOfRange(t *testing.T) {
	factory := newTestEventFactory(t, testEventParams(1, 1, 5))
	notifier, ok := factory.NotifierBuilder().Create()
	require.True(t, ok)

	err := notifier.NotifyWithCustomEventID(6)
	assert.ErrorIs(t, err, ErrEventIDOutOfRange)
}

func TestNotifyReachesEveryAttachedListener(t *testing.T) {
	factory := newTestEventFactory(t, testEventParams(1, 2, 10))
	l1, ok, err := factory.ListenerBuilder().Create()
	require.NoError(t, err)
	require.True(t, ok)
	defer l1.Drop()
	l2, ok, err := factory.ListenerBuilder().Create()
	require.NoError(t, err)
	require.True(t, ok)
	defer l2.Drop()

	notifier, ok := factory.NotifierBuilder().Create()
	require.True(t, ok)

	require.NoError(t, notifier.Notify())

	id1, ok1, _ := l1.TryWaitOne()
	id2, ok2, _ := l2.TryWaitOne()
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, uint64(0), id1)
	assert.Equal(t, uint64(0), id2)
}
