package dynconfig

import "iox2/internal/shm"

// PubSubParams sizes a PubSub DynamicConfig from a service's
// PublishSubscribeConfig (spec.md §3).
type PubSubParams struct {
	MaxNodes                int
	MaxPublishers            int
	MaxSubscribers           int
	PayloadSize              uint64
	PayloadAlignment         uint64
	HistorySize              int
	SubscriberMaxBufferSize  int
	EnableSafeOverflow       bool
}

// PoolCapacity returns the number of payload slots each publisher's pool
// must reserve: one per history slot, plus one per subscriber buffer slot a
// Send can fill, plus a fixed slack of 4 that in-flight loans draw from
// (spec.md §4.2).
func (p PubSubParams) PoolCapacity() int {
	cap := p.HistorySize + p.SubscriberMaxBufferSize*p.MaxSubscribers + 4
	if cap < 1 {
		cap = 1
	}
	return cap
}

func (p PubSubParams) stride() int {
	return PayloadStride(p.PayloadSize, p.PayloadAlignment)
}

// PubSubSize returns the total byte span a PubSub DynamicConfig occupies,
// for sizing the Segment before Create.
func PubSubSize(p PubSubParams) int {
	c := &cursor{}
	c.take(destructionFlagSpan)
	c.take(shm.Span(p.MaxNodes))
	c.take(shm.Span(p.MaxPublishers))
	c.take(shm.Span(p.MaxSubscribers))
	poolCap := p.PoolCapacity()
	stride := p.stride()
	for i := 0; i < p.MaxPublishers; i++ {
		c.take(shm.PoolMetadataSpan(poolCap))
		c.take(shm.PoolDataSpan(poolCap, stride))
	}
	return c.at
}

// PubSubDynamicConfig is the mutable shared state a publish-subscribe
// service's node agrees on: who is attached, and each publisher's local
// payload pool (spec.md §4.2 "each publisher owns ... a local payload
// pool"). Per-connection sample queues (Ring) are intentionally not part of
// this layout — see the package doc on Ring for why they're process-local.
type PubSubDynamicConfig struct {
	Params      PubSubParams
	Destruction DestructionFlag
	Nodes       *shm.SlotTable
	Publishers  *shm.SlotTable
	Subscribers *shm.SlotTable
	Pools       []*shm.Pool // one per publisher slot
}

// NewPubSubDynamicConfig views bytes (a Segment's Bytes(), sized PubSubSize)
// as a PubSubDynamicConfig.
func NewPubSubDynamicConfig(bytes []byte, p PubSubParams) *PubSubDynamicConfig {
	c := &cursor{}
	destruction := c.take(destructionFlagSpan)
	nodes := c.take(shm.Span(p.MaxNodes))
	pubs := c.take(shm.Span(p.MaxPublishers))
	subs := c.take(shm.Span(p.MaxSubscribers))

	poolCap := p.PoolCapacity()
	stride := p.stride()
	pools := make([]*shm.Pool, p.MaxPublishers)
	for i := 0; i < p.MaxPublishers; i++ {
		meta := c.take(shm.PoolMetadataSpan(poolCap))
		data := c.take(shm.PoolDataSpan(poolCap, stride))
		pools[i] = shm.NewPool(bytes[meta.offset:meta.end()], bytes[data.offset:data.end()], poolCap, stride)
	}

	return &PubSubDynamicConfig{
		Params:      p,
		Destruction: newDestructionFlag(bytes[destruction.offset:destruction.end()]),
		Nodes:       shm.NewSlotTable(bytes[nodes.offset:nodes.end()], p.MaxNodes),
		Publishers:  shm.NewSlotTable(bytes[pubs.offset:pubs.end()], p.MaxPublishers),
		Subscribers: shm.NewSlotTable(bytes[subs.offset:subs.end()], p.MaxSubscribers),
		Pools:       pools,
	}
}

// PoolFor returns the payload pool belonging to the publisher holding slot
// publisherSlot.
func (d *PubSubDynamicConfig) PoolFor(publisherSlot int) *shm.Pool {
	return d.Pools[publisherSlot]
}
