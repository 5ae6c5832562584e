package event

import (
	"time"

	"iox2/internal/ids"
	"iox2/internal/shm"
)

// Listener is an exclusive handle to one claimed listener slot and the
// Doorbell notifiers ring to wake it.
type Listener struct {
	factory  *PortFactory
	id       ids.ID
	slot     int
	doorbell *shm.Doorbell
}

// Id returns the listener's unique 128-bit identity.
func (l *Listener) Id() ids.ID { return l.id }

// TryWaitOne returns the next pending event id without blocking, or
// (0, false, nil) if none is pending (spec.md §4.3, §7).
func (l *Listener) TryWaitOne() (uint64, bool, error) {
	id, ok := l.factory.dyn.TakeOnePending(l.slot)
	return id, ok, nil
}

// TimedWaitOne blocks for up to timeout for an event id to become pending.
// A (0, false, nil) return means the timeout elapsed with nothing pending.
func (l *Listener) TimedWaitOne(timeout time.Duration) (uint64, bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		if id, ok, err := l.TryWaitOne(); ok || err != nil {
			return id, ok, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, false, nil
		}
		rang, err := l.doorbell.WaitTimeout(remaining)
		if err != nil {
			return 0, false, newWaitError(WaitInternalFailure, err.Error())
		}
		if !rang {
			return 0, false, nil
		}
	}
}

// BlockingWaitOne blocks with no deadline until an event id becomes pending,
// or until Drop unblocks it (spec.md §5: dropping a listener must unblock
// any thread parked in a blocking wait).
func (l *Listener) BlockingWaitOne() (uint64, bool, error) {
	for {
		if id, ok, err := l.TryWaitOne(); ok || err != nil {
			return id, ok, err
		}
		if _, err := l.doorbell.WaitTimeout(0); err != nil {
			return 0, false, newWaitError(WaitInternalFailure, err.Error())
		}
	}
}

// TryWaitAll drains every currently pending event id without blocking.
func (l *Listener) TryWaitAll() ([]uint64, error) {
	return l.factory.dyn.TakePending(l.slot), nil
}

// TimedWaitAll blocks for up to timeout for at least one event id to become
// pending, then drains every id pending at that moment.
func (l *Listener) TimedWaitAll(timeout time.Duration) ([]uint64, error) {
	deadline := time.Now().Add(timeout)
	for {
		if pending, _ := l.TryWaitAll(); len(pending) > 0 {
			return pending, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		rang, err := l.doorbell.WaitTimeout(remaining)
		if err != nil {
			return nil, newWaitError(WaitInternalFailure, err.Error())
		}
		if !rang {
			return nil, nil
		}
	}
}

// BlockingWaitAll blocks with no deadline for at least one event id to
// become pending, then drains every id pending at that moment.
func (l *Listener) BlockingWaitAll() ([]uint64, error) {
	for {
		if pending, _ := l.TryWaitAll(); len(pending) > 0 {
			return pending, nil
		}
		if _, err := l.doorbell.WaitTimeout(0); err != nil {
			return nil, newWaitError(WaitInternalFailure, err.Error())
		}
	}
}

// Drop releases the listener's Doorbell and slot. Closing the Doorbell
// unblocks any goroutine currently parked in one of the wait methods above.
func (l *Listener) Drop() {
	_ = l.doorbell.Close(l.factory.dir, doorbellName(l.factory.serviceName, l.slot))
	l.factory.dyn.Listeners.Release(l.slot)
}
