// Package pubsub implements the publish-subscribe messaging pattern
// (spec.md §4.2): publishers loan slots from their own payload pool, send
// them to every currently connected subscriber's buffer, and subscribers
// receive them without copying the payload bytes.
package pubsub

import (
	"sync"

	"iox2/internal/shm"
)

type connKey struct {
	publisherSlot, subscriberSlot int
}

// connectionRegistry is the process-local table of per-(publisher,
// subscriber) Ring buffers a PortFactory's ports share. It is process-local
// rather than mmap-backed for the same reason shm.Ring is — see that type's
// doc comment.
type connectionRegistry struct {
	mu    sync.Mutex
	rings map[connKey]*shm.Ring
}

func newConnectionRegistry() *connectionRegistry {
	return &connectionRegistry{rings: make(map[connKey]*shm.Ring)}
}

// ensure returns the Ring for (publisherSlot, subscriberSlot), creating it
// with the given capacity and overflow policy if it doesn't exist yet.
func (r *connectionRegistry) ensure(publisherSlot, subscriberSlot, capacity int, overflow bool) *shm.Ring {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := connKey{publisherSlot, subscriberSlot}
	ring, ok := r.rings[key]
	if !ok {
		ring = shm.NewRing(capacity, overflow)
		r.rings[key] = ring
	}
	return ring
}

// drop removes and returns the Ring for (publisherSlot, subscriberSlot), if
// any, so its caller can release the pool references it still holds.
func (r *connectionRegistry) drop(publisherSlot, subscriberSlot int) (*shm.Ring, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := connKey{publisherSlot, subscriberSlot}
	ring, ok := r.rings[key]
	delete(r.rings, key)
	return ring, ok
}

// ringsForPublisher returns every (subscriberSlot, Ring) pair currently
// connected to publisherSlot.
func (r *connectionRegistry) ringsForPublisher(publisherSlot int) map[int]*shm.Ring {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int]*shm.Ring)
	for k, v := range r.rings {
		if k.publisherSlot == publisherSlot {
			out[k.subscriberSlot] = v
		}
	}
	return out
}

// ringsForSubscriber returns every (publisherSlot, Ring) pair currently
// connected to subscriberSlot.
func (r *connectionRegistry) ringsForSubscriber(subscriberSlot int) map[int]*shm.Ring {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int]*shm.Ring)
	for k, v := range r.rings {
		if k.subscriberSlot == subscriberSlot {
			out[k.publisherSlot] = v
		}
	}
	return out
}
