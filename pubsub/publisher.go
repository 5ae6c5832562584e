package pubsub

import (
	"sync"

	"iox2/internal/ids"
	"iox2/internal/shm"
)

// Publisher is an exclusive handle to one claimed publisher slot: the pool
// it loans slots from, and the connections Send fans a loaned slot out to.
type Publisher struct {
	factory *PortFactory
	id      ids.ID
	slot    int

	mu           sync.Mutex
	sequence     uint64
	history      []int // slots, oldest first, each holding one pool reference
	historyLimit int
}

// Id returns the publisher's unique 128-bit identity.
func (p *Publisher) Id() ids.ID { return p.id }

// Loan reserves one payload slot from the publisher's pool and returns a
// writable SampleMut. It fails with SendLoanedPoolExhausted if every slot in
// the pool is currently referenced (spec.md §7).
func (p *Publisher) Loan() (*SampleMut, error) {
	slot, ok := p.rawPool().Alloc()
	if !ok {
		return nil, newSendError(SendLoanedPoolExhausted, "publisher payload pool exhausted")
	}
	buf := p.rawPool().Data(slot)
	off := payloadOffset(p.factory.params.PayloadAlignment)
	return &SampleMut{publisher: p, slot: slot, payload: buf[off:]}, nil
}

func (p *Publisher) releaseLoan(slot int) {
	if p.rawPool().Release(slot) {
		// last reference gone, slot already free for Alloc to reuse
	}
}

// Send publishes sample to every subscriber currently connected to this
// publisher, and retires it into the history ring (spec.md §4.2 history).
// It returns one PublishResult per connected subscriber, with Delivered
// false where that subscriber's buffer was full with overflow disabled; it
// returns a non-nil error only for the failure classes that abort the whole
// call.
func (p *Publisher) Send(sample *SampleMut) ([]PublishResult, error) {
	if sample.sent {
		return nil, newSendError(SendConnectionCorrupted, "sample already sent or discarded")
	}
	sample.sent = true

	p.UpdateConnections()

	p.mu.Lock()
	p.sequence++
	seq := p.sequence
	p.mu.Unlock()

	full := p.rawPool().Data(sample.slot)
	off := payloadOffset(p.factory.params.PayloadAlignment)
	encodeHeader(full[:off], Header{
		PublisherID:    p.id,
		SequenceNumber: seq,
		PayloadSize:    uint64(len(sample.payload)),
	})

	var results []PublishResult
	for subSlot, ring := range p.factory.connections.ringsForPublisher(p.slot) {
		p.rawPool().AddRef(sample.slot)
		dropped, wasDropped, ok := ring.Push(uint32(sample.slot))
		if !ok {
			p.rawPool().Release(sample.slot)
			results = append(results, PublishResult{SubscriberSlot: subSlot, Delivered: false})
			continue
		}
		if wasDropped {
			p.rawPool().Release(int(dropped))
		}
		results = append(results, PublishResult{SubscriberSlot: subSlot, Delivered: true})
	}

	p.retainHistory(sample.slot)
	// The loan's own reference (set by Loan/Alloc) is now redundant: Send has
	// distributed the references that matter. Drop it so the slot's lifetime
	// is governed purely by subscriber buffers and the history ring.
	p.rawPool().Release(sample.slot)

	return results, nil
}

func (p *Publisher) retainHistory(slot int) {
	if p.historyLimit == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rawPool().AddRef(slot)
	p.history = append(p.history, slot)
	if len(p.history) > p.historyLimit {
		evicted := p.history[0]
		p.history = p.history[1:]
		p.rawPool().Release(evicted)
	}
}

// UpdateConnections reconciles this publisher's connection set against the
// service's current subscriber table: new subscribers get a fresh Ring
// seeded with the publisher's retained history, and subscribers that have
// since detached have their Ring torn down and its held references released
// (spec.md's supplemented "update_connections" operation, mirrored from
// iceoryx2's own publisher API).
func (p *Publisher) UpdateConnections() {
	live := make(map[int]bool)
	p.factory.dyn.Subscribers.ForEach(func(slot int, _ [16]byte) {
		live[slot] = true
	})

	for subSlot := range live {
		if _, exists := p.factory.connections.ringsForPublisher(p.slot)[subSlot]; exists {
			continue
		}
		ring := p.factory.connections.ensure(p.slot, subSlot, p.factory.params.SubscriberMaxBufferSize, p.factory.params.EnableSafeOverflow)
		p.mu.Lock()
		for _, slot := range p.history {
			p.rawPool().AddRef(slot)
			if dropped, wasDropped, ok := ring.Push(uint32(slot)); ok {
				if wasDropped {
					p.rawPool().Release(int(dropped))
				}
			} else {
				p.rawPool().Release(slot)
			}
		}
		p.mu.Unlock()
	}

	for subSlot := range p.factory.connections.ringsForPublisher(p.slot) {
		if live[subSlot] {
			continue
		}
		if ring, ok := p.factory.connections.drop(p.slot, subSlot); ok {
			for _, handle := range ring.Drain() {
				p.rawPool().Release(int(handle))
			}
		}
	}
}

// Drop releases the publisher's slot, its history references, and every
// connection it still holds. Call this when the Publisher goes out of
// scope.
func (p *Publisher) Drop() {
	p.mu.Lock()
	for _, slot := range p.history {
		p.rawPool().Release(slot)
	}
	p.history = nil
	p.mu.Unlock()

	for subSlot := range p.factory.connections.ringsForPublisher(p.slot) {
		if ring, ok := p.factory.connections.drop(p.slot, subSlot); ok {
			for _, handle := range ring.Drain() {
				p.rawPool().Release(int(handle))
			}
		}
	}
	p.factory.dyn.Publishers.Release(p.slot)
}

func (p *Publisher) rawPool() *shm.Pool {
	return p.factory.dyn.PoolFor(p.slot)
}
