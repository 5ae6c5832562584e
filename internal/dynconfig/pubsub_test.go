package dynconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPubSubParams() PubSubParams {
	return PubSubParams{
		MaxNodes:                2,
		MaxPublishers:           2,
		MaxSubscribers:          2,
		PayloadSize:             8,
		PayloadAlignment:        1,
		HistorySize:             1,
		SubscriberMaxBufferSize: 2,
	}
}

func TestPubSubSizeFitsTheLayoutItDescribes(t *testing.T) {
	p := testPubSubParams()
	size := PubSubSize(p)

	bytes := make([]byte, size)
	cfg := NewPubSubDynamicConfig(bytes, p)

	assert.Equal(t, p.MaxNodes, cfg.Nodes.Capacity())
	assert.Equal(t, p.MaxPublishers, cfg.Publishers.Capacity())
	assert.Equal(t, p.MaxSubscribers, cfg.Subscribers.Capacity())
	assert.Len(t, cfg.Pools, p.MaxPublishers)
	for _, pool := range cfg.Pools {
		assert.Equal(t, p.PoolCapacity(), pool.Capacity())
	}
}

func TestPubSubPoolCapacityAccountsForHistoryAndSubscribers(t *testing.T) {
	p := testPubSubParams()
	expected := p.HistorySize + p.SubscriberMaxBufferSize*p.MaxSubscribers + 4
	assert.Equal(t, expected, p.PoolCapacity())
}

func TestPubSubPoolsAreIndependentPerPublisher(t *testing.T) {
	p := testPubSubParams()
	bytes := make([]byte, PubSubSize(p))
	cfg := NewPubSubDynamicConfig(bytes, p)

	slotA, ok := cfg.PoolFor(0).Alloc()
	require.True(t, ok)
	slotB, ok := cfg.PoolFor(1).Alloc()
	require.True(t, ok)

	copy(cfg.PoolFor(0).Data(slotA), []byte{1, 2, 3, 4})
	copy(cfg.PoolFor(1).Data(slotB), []byte{9, 9, 9, 9})

	assert.Equal(t, []byte{1, 2, 3, 4}, cfg.PoolFor(0).Data(slotA)[:4])
	assert.Equal(t, []byte{9, 9, 9, 9}, cfg.PoolFor(1).Data(slotB)[:4])
}

func TestPayloadStrideRespectsAlignment(t *testing.T) {
	stride1 := PayloadStride(8, 1)
	stride8 := PayloadStride(8, 8)
	assert.GreaterOrEqual(t, stride8, stride1)
	assert.Equal(t, 0, stride8%8, "aligned stride must be a multiple of the requested alignment")
}
