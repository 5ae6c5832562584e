package event

import (
	"iox2/internal/ids"
	"iox2/internal/shm"
)

// defaultEventID is the id notify() rings when the caller doesn't supply a
// custom one (spec.md §4.3).
const defaultEventID = 0

// Notifier is an exclusive handle to one claimed notifier slot.
type Notifier struct {
	factory *PortFactory
	id      ids.ID
	slot    int
}

// Id returns the notifier's unique 128-bit identity.
func (n *Notifier) Id() ids.ID { return n.id }

// Notify rings every currently attached listener with the default event id.
func (n *Notifier) Notify() error {
	return n.NotifyWithCustomEventID(defaultEventID)
}

// NotifyWithCustomEventID sets eventID's bit in every currently attached
// listener's pending bitmap and rings its Doorbell. It fails with
// ErrEventIDOutOfRange if eventID exceeds the service's configured
// event_id_max (spec.md §4.3, §7).
func (n *Notifier) NotifyWithCustomEventID(eventID uint64) error {
	if eventID > n.factory.dyn.Params.EventIDMax {
		return ErrEventIDOutOfRange
	}
	n.factory.dyn.Listeners.ForEach(func(slot int, _ [16]byte) {
		n.factory.dyn.Notify(slot, eventID)
		_ = shm.Ring(n.factory.dir, doorbellName(n.factory.serviceName, slot))
	})
	return nil
}

// Drop releases the notifier's slot.
func (n *Notifier) Drop() {
	n.factory.dyn.Notifiers.Release(n.slot)
}
