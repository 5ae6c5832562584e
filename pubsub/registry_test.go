package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionRegistryEnsureIsIdempotent(t *testing.T) {
	reg := newConnectionRegistry()

	ringA := reg.ensure(1, 2, 4, false)
	ringB := reg.ensure(1, 2, 4, false)
	assert.Same(t, ringA, ringB, "ensure must return the same Ring for an existing connection")
}

func TestConnectionRegistryDropRemovesEntry(t *testing.T) {
	reg := newConnectionRegistry()
	reg.ensure(1, 2, 4, false)

	ring, ok := reg.drop(1, 2)
	require.True(t, ok)
	require.NotNil(t, ring)

	_, ok = reg.drop(1, 2)
	assert.False(t, ok, "dropping an already-removed connection must report false")
}

func TestConnectionRegistryFiltersByEndpoint(t *testing.T) {
	reg := newConnectionRegistry()
	reg.ensure(1, 10, 4, false)
	reg.ensure(1, 20, 4, false)
	reg.ensure(2, 10, 4, false)

	byPub := reg.ringsForPublisher(1)
	assert.Len(t, byPub, 2)

	bySub := reg.ringsForSubscriber(10)
	assert.Len(t, bySub, 2)
}
