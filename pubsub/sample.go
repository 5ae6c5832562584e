package pubsub

import (
	"encoding/binary"

	"iox2/internal/dynconfig"
	"iox2/internal/ids"
)

// Header is the fixed-layout record spec.md §6 requires at the front of
// every slot: which publisher wrote it, that publisher's monotonic sequence
// number, and the payload's declared size. It is written once by the
// publisher that owns the slot and never mutated after Send.
type Header struct {
	PublisherID    ids.ID
	SequenceNumber uint64
	PayloadSize    uint64
}

// HeaderSize is the byte size Header occupies at the front of a slot.
const HeaderSize = dynconfig.HeaderSize

func encodeHeader(buf []byte, h Header) {
	copy(buf[0:16], h.PublisherID[:])
	binary.BigEndian.PutUint64(buf[16:24], h.SequenceNumber)
	binary.BigEndian.PutUint64(buf[24:32], h.PayloadSize)
}

func decodeHeader(buf []byte) Header {
	var h Header
	copy(h.PublisherID[:], buf[0:16])
	h.SequenceNumber = binary.BigEndian.Uint64(buf[16:24])
	h.PayloadSize = binary.BigEndian.Uint64(buf[24:32])
	return h
}

func payloadOffset(alignment uint64) int {
	if alignment == 0 {
		alignment = 1
	}
	return (HeaderSize + int(alignment) - 1) &^ (int(alignment) - 1)
}

// SampleMut is an exclusively owned, writable loan (spec.md §3 "Sample
// lifetime"): the publisher that loaned it may write Payload freely until it
// calls Send, after which the slot becomes shared and must not be mutated
// again.
type SampleMut struct {
	publisher *Publisher
	slot      int
	payload   []byte
	sent      bool
}

// Payload exposes the loaned slot's raw, writable payload bytes.
func (s *SampleMut) Payload() []byte { return s.payload }

// Discard releases the loan without sending it, returning the slot to the
// pool's free list. Discarding an already-sent or already-discarded sample
// is a no-op.
func (s *SampleMut) Discard() {
	if s.sent {
		return
	}
	s.sent = true
	s.publisher.releaseLoan(s.slot)
}

// Sample is a received, read-only reference to a payload still owned by the
// sender's pool. Its backing bytes are released back to that pool only once
// every subscriber holding it has called Release (spec.md §3 lifetime
// rules).
type Sample struct {
	header    Header
	payload   []byte
	release   func()
	released  bool
}

// Header returns the sample's Header.
func (s *Sample) Header() Header { return s.header }

// Payload exposes the received slot's payload bytes, read-only by
// convention (Go cannot enforce this at the slice level, but no exported
// API on Sample offers a way to mutate it through anything but the raw
// slice itself).
func (s *Sample) Payload() []byte { return s.payload }

// Release drops this subscriber's reference to the sample's slot. Release
// is idempotent.
func (s *Sample) Release() {
	if s.released {
		return
	}
	s.released = true
	s.release()
}
