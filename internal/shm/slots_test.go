package shm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotTableClaimAndRelease(t *testing.T) {
	region := make([]byte, Span(2))
	table := NewSlotTable(region, 2)

	idA := [16]byte{1}
	slotA, ok := table.Claim(idA, 0)
	require.True(t, ok)

	idB := [16]byte{2}
	slotB, ok := table.Claim(idB, 0)
	require.True(t, ok)
	assert.NotEqual(t, slotA, slotB)

	_, ok = table.Claim([16]byte{3}, 0)
	assert.False(t, ok, "table of capacity 2 must reject a third claim")

	table.Release(slotA)
	slotC, ok := table.Claim([16]byte{4}, 0)
	require.True(t, ok)
	assert.Equal(t, slotA, slotC, "released slot must be reusable")
}

func TestSlotTableGetReportsOccupancy(t *testing.T) {
	region := make([]byte, Span(1))
	table := NewSlotTable(region, 1)

	_, occupied := table.Get(0)
	assert.False(t, occupied)

	id := [16]byte{9, 9}
	slot, ok := table.Claim(id, 0)
	require.True(t, ok)

	got, occupied := table.Get(slot)
	assert.True(t, occupied)
	assert.Equal(t, id, got)
}

func TestSlotTableFindAndForEach(t *testing.T) {
	region := make([]byte, Span(3))
	table := NewSlotTable(region, 3)

	idA := [16]byte{1}
	idB := [16]byte{2}
	slotA, _ := table.Claim(idA, 0)
	_, _ = table.Claim(idB, 0)

	found, ok := table.Find(idA)
	require.True(t, ok)
	assert.Equal(t, slotA, found)

	_, ok = table.Find([16]byte{99})
	assert.False(t, ok)

	seen := map[[16]byte]bool{}
	table.ForEach(func(slot int, id [16]byte) {
		seen[id] = true
	})
	assert.Len(t, seen, 2)
	assert.True(t, seen[idA])
	assert.True(t, seen[idB])
	assert.Equal(t, 2, table.Count())
}

func TestSlotTableRoundRobinStart(t *testing.T) {
	region := make([]byte, Span(4))
	table := NewSlotTable(region, 4)

	slot, ok := table.Claim([16]byte{1}, 2)
	require.True(t, ok)
	assert.Equal(t, 2, slot, "claim should start scanning at the requested offset")
}
