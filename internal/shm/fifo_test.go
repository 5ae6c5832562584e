package shm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoorbellRingThenWait(t *testing.T) {
	dir := Dir(t.TempDir())

	bell, err := CreateDoorbell(dir, "door")
	require.NoError(t, err)
	defer bell.Close(dir, "door")

	require.NoError(t, Ring(dir, "door"))

	rang, err := bell.WaitTimeout(time.Second)
	require.NoError(t, err)
	assert.True(t, rang)
}

func TestDoorbellWaitTimesOutWithoutRing(t *testing.T) {
	dir := Dir(t.TempDir())

	bell, err := CreateDoorbell(dir, "door")
	require.NoError(t, err)
	defer bell.Close(dir, "door")

	rang, err := bell.WaitTimeout(20 * time.Millisecond)
	require.NoError(t, err)
	assert.False(t, rang)
}

func TestDoorbellRingWithoutListenerNeverErrors(t *testing.T) {
	dir := Dir(t.TempDir())
	require.NoError(t, Ring(dir, "no-such-listener"))
}

func TestDoorbellCloseUnblocksPendingWait(t *testing.T) {
	dir := Dir(t.TempDir())

	bell, err := CreateDoorbell(dir, "door")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Either outcome is acceptable here: what matters is that Close
		// unblocks the read at all, not which zero-value it returns.
		_, _ = bell.WaitTimeout(0)
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, bell.Close(dir, "door"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not unblock a parked WaitTimeout")
	}
}
