package pubsub

import (
	"sync"
	"time"

	"iox2/internal/ids"
)

// Subscriber is an exclusive handle to one claimed subscriber slot. It
// multiplexes every publisher currently connected to it, receiving samples
// in FIFO order per publisher (spec.md §4.2, §8 invariant 4) with no
// ordering guarantee across distinct publishers.
type Subscriber struct {
	factory *PortFactory
	id      ids.ID
	slot    int

	mu     sync.Mutex
	cursor int // round-robins which connected publisher Receive checks first
}

// Id returns the subscriber's unique 128-bit identity.
func (s *Subscriber) Id() ids.ID { return s.id }

// Receive returns the oldest available sample from any connected publisher,
// or (nil, nil) if none is currently available (spec.md §7: "empty is not an
// error").
func (s *Subscriber) Receive() (*Sample, error) {
	rings := s.factory.connections.ringsForSubscriber(s.slot)
	if len(rings) == 0 {
		return nil, nil
	}

	pubSlots := make([]int, 0, len(rings))
	for pubSlot := range rings {
		pubSlots = append(pubSlots, pubSlot)
	}

	s.mu.Lock()
	start := s.cursor % len(pubSlots)
	s.mu.Unlock()

	for i := 0; i < len(pubSlots); i++ {
		pubSlot := pubSlots[(start+i)%len(pubSlots)]
		ring := rings[pubSlot]
		handle, ok := ring.Pop()
		if !ok {
			continue
		}
		s.mu.Lock()
		s.cursor = (start + i + 1) % len(pubSlots)
		s.mu.Unlock()

		pool := s.factory.dyn.PoolFor(pubSlot)
		full := pool.Data(int(handle))
		off := payloadOffset(s.factory.params.PayloadAlignment)
		header := decodeHeader(full[:off])
		payload := full[off : off+int(header.PayloadSize)]

		slot := int(handle)
		return &Sample{
			header:  header,
			payload: payload,
			release: func() { pool.Release(slot) },
		}, nil
	}
	return nil, nil
}

// ReceiveChannel returns a channel fed by polling Receive every
// pollInterval, until stop is closed. This mirrors the real iceoryx2
// binding's channel-based receive convenience without requiring a blocking
// wait primitive in the publish-subscribe pattern itself (spec.md §4.2
// receive is non-blocking).
func (s *Subscriber) ReceiveChannel(stop <-chan struct{}, pollInterval time.Duration) <-chan *Sample {
	out := make(chan *Sample)
	go func() {
		defer close(out)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
			sample, err := s.Receive()
			if err != nil || sample == nil {
				continue
			}
			select {
			case out <- sample:
			case <-stop:
				sample.Release()
				return
			}
		}
	}()
	return out
}

// Drop releases the subscriber's slot and every queued sample it still
// holds references to.
func (s *Subscriber) Drop() {
	for pubSlot := range s.factory.connections.ringsForSubscriber(s.slot) {
		if dropped, ok := s.factory.connections.drop(pubSlot, s.slot); ok {
			pool := s.factory.dyn.PoolFor(pubSlot)
			for _, handle := range dropped.Drain() {
				pool.Release(int(handle))
			}
		}
	}
	s.factory.dyn.Subscribers.Release(s.slot)
}
