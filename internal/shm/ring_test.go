package shm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingFIFOOrder(t *testing.T) {
	r := NewRing(3, false)

	_, _, ok := r.Push(1)
	require.True(t, ok)
	_, _, ok = r.Push(2)
	require.True(t, ok)

	got, ok := r.Pop()
	require.True(t, ok)
	assert.Equal(t, uint32(1), got)

	got, ok = r.Pop()
	require.True(t, ok)
	assert.Equal(t, uint32(2), got)

	_, ok = r.Pop()
	assert.False(t, ok)
}

func TestRingRejectsWhenFullWithoutOverflow(t *testing.T) {
	r := NewRing(2, false)

	_, _, ok := r.Push(1)
	require.True(t, ok)
	_, _, ok = r.Push(2)
	require.True(t, ok)

	_, dropped, ok := r.Push(3)
	assert.False(t, ok)
	assert.False(t, dropped)
	assert.Equal(t, 2, r.Len())
}

func TestRingDropsOldestWithOverflowEnabled(t *testing.T) {
	r := NewRing(2, true)

	_, _, ok := r.Push(1)
	require.True(t, ok)
	_, _, ok = r.Push(2)
	require.True(t, ok)

	droppedHandle, dropped, ok := r.Push(3)
	require.True(t, ok)
	assert.True(t, dropped)
	assert.Equal(t, uint32(1), droppedHandle)

	remaining := r.Drain()
	assert.Equal(t, []uint32{2, 3}, remaining)
}

func TestRingDrainEmptiesQueue(t *testing.T) {
	r := NewRing(4, false)
	r.Push(1)
	r.Push(2)
	r.Push(3)

	drained := r.Drain()
	assert.Equal(t, []uint32{1, 2, 3}, drained)
	assert.Equal(t, 0, r.Len())
}
