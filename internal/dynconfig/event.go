package dynconfig

import "iox2/internal/shm"

// EventParams sizes an Event DynamicConfig from a service's EventConfig
// (spec.md §3).
type EventParams struct {
	MaxNodes      int
	MaxNotifiers  int
	MaxListeners  int
	EventIDMax    uint64
}

func (p EventParams) bitmapWords() int {
	bits := p.EventIDMax + 1
	words := (bits + 63) / 64
	if words < 1 {
		words = 1
	}
	return int(words)
}

// EventSize returns the total byte span an Event DynamicConfig occupies.
func EventSize(p EventParams) int {
	c := &cursor{}
	c.take(destructionFlagSpan)
	c.take(shm.Span(p.MaxNodes))
	c.take(shm.Span(p.MaxNotifiers))
	c.take(shm.Span(p.MaxListeners))
	c.take(p.MaxListeners * p.bitmapWords() * 8) // pending-id bitmaps
	return c.at
}

// EventDynamicConfig is the mutable shared state an event service's nodes
// agree on: who is attached, and one pending-event-id bitmap per listener
// slot. A notify() call ORs its event id's bit into the target listener's
// bitmap (spec.md §4.3: "coalesced per-id per-listener") and then rings that
// listener's Doorbell; the Doorbell itself only carries "something is
// pending", never the id, which is why the bitmap exists in shared memory
// while the Doorbell (see shm.Doorbell) is a named FIFO outside it.
type EventDynamicConfig struct {
	Params      EventParams
	Destruction DestructionFlag
	Nodes       *shm.SlotTable
	Notifiers   *shm.SlotTable
	Listeners   *shm.SlotTable
	bitmaps     []byte
	words       int
}

// NewEventDynamicConfig views bytes (a Segment's Bytes(), sized EventSize)
// as an EventDynamicConfig.
func NewEventDynamicConfig(bytes []byte, p EventParams) *EventDynamicConfig {
	c := &cursor{}
	destruction := c.take(destructionFlagSpan)
	nodes := c.take(shm.Span(p.MaxNodes))
	notifiers := c.take(shm.Span(p.MaxNotifiers))
	listeners := c.take(shm.Span(p.MaxListeners))
	words := p.bitmapWords()
	bitmaps := c.take(p.MaxListeners * words * 8)

	return &EventDynamicConfig{
		Params:      p,
		Destruction: newDestructionFlag(bytes[destruction.offset:destruction.end()]),
		Nodes:       shm.NewSlotTable(bytes[nodes.offset:nodes.end()], p.MaxNodes),
		Notifiers:   shm.NewSlotTable(bytes[notifiers.offset:notifiers.end()], p.MaxNotifiers),
		Listeners:   shm.NewSlotTable(bytes[listeners.offset:listeners.end()], p.MaxListeners),
		bitmaps:     bytes[bitmaps.offset:bitmaps.end()],
		words:       words,
	}
}

// Notify sets eventID's bit in listenerSlot's pending bitmap. It reports
// false if eventID exceeds the service's configured event_id_max (spec.md
// §7 EventIDOutOfRange).
func (d *EventDynamicConfig) Notify(listenerSlot int, eventID uint64) bool {
	if eventID > d.Params.EventIDMax {
		return false
	}
	word, bit := eventID/64, eventID%64
	atomicOrUint64(d.wordPtr(listenerSlot, int(word)), uint64(1)<<bit)
	return true
}

// TakePending atomically clears and returns the set of event ids pending for
// listenerSlot, as a sorted slice. Wait_all callers drain every bit that was
// set at the moment of the call; ids that arrive afterward are left for the
// next wait.
func (d *EventDynamicConfig) TakePending(listenerSlot int) []uint64 {
	var ids []uint64
	for w := 0; w < d.words; w++ {
		word := atomicSwapUint64(d.wordPtr(listenerSlot, w), 0)
		if word == 0 {
			continue
		}
		for bit := 0; bit < 64; bit++ {
			if word&(uint64(1)<<bit) != 0 {
				ids = append(ids, uint64(w*64+bit))
			}
		}
	}
	return ids
}

// TakeOnePending atomically clears and returns the lowest-numbered event id
// currently pending for listenerSlot, leaving every other pending id
// untouched for a later wait_one or wait_all call.
func (d *EventDynamicConfig) TakeOnePending(listenerSlot int) (uint64, bool) {
	for w := 0; w < d.words; w++ {
		ptr := d.wordPtr(listenerSlot, w)
		for {
			word := atomicLoadUint64(ptr)
			if word == 0 {
				break
			}
			bit := trailingZeros64(word)
			if atomicCASUint64(ptr, word, word&^(uint64(1)<<bit)) {
				return uint64(w*64 + bit), true
			}
		}
	}
	return 0, false
}

// HasPending reports whether listenerSlot currently has any event id
// pending, without clearing it.
func (d *EventDynamicConfig) HasPending(listenerSlot int) bool {
	for w := 0; w < d.words; w++ {
		if atomicLoadUint64(d.wordPtr(listenerSlot, w)) != 0 {
			return true
		}
	}
	return false
}

func (d *EventDynamicConfig) wordPtr(listenerSlot, word int) *uint64 {
	off := (listenerSlot*d.words + word) * 8
	return byteSliceAsUint64(d.bitmaps[off : off+8])
}
