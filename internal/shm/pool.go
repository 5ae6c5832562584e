package shm

import (
	"sync/atomic"
	"unsafe"
)

// MetadataSlotSize is the per-slot bookkeeping stride in a Pool's metadata
// region: a single int32 reference count. Keeping refcounts in their own
// parallel region, rather than inside the sample bytes themselves, keeps the
// Header spec.md §6 requires to be a "fixed C-layout record" free of
// management fields no consumer should ever see.
const MetadataSlotSize = 4

// Pool is a publisher's local payload pool: the fixed-capacity arena spec.md
// §4.2 describes ("sized from history_size + subscriber_max_buffer_size ×
// max_subscribers + small_slack"). A slot is exclusively owned by the loan
// that allocated it until Send distributes additional references to
// subscriber buffers and the history ring; the backing bytes return to the
// free list only when the refcount drops to zero (spec.md §3 Sample
// lifetime rules).
type Pool struct {
	metadata []byte // capacity * MetadataSlotSize
	data     []byte // capacity * stride
	capacity int
	stride   int
	cursor   uint32
}

// NewPool views metadata and data (sub-slices of a Segment) as a Pool of the
// given capacity and per-slot stride.
func NewPool(metadata, data []byte, capacity, stride int) *Pool {
	if len(metadata) < capacity*MetadataSlotSize {
		panic("iox2/shm: pool metadata region too small")
	}
	if len(data) < capacity*stride {
		panic("iox2/shm: pool data region too small")
	}
	return &Pool{
		metadata: metadata[:capacity*MetadataSlotSize],
		data:     data[:capacity*stride],
		capacity: capacity,
		stride:   stride,
	}
}

func (p *Pool) refcountPtr(slot int) *int32 {
	return (*int32)(unsafe.Pointer(&p.metadata[slot*MetadataSlotSize]))
}

// Stride returns the fixed byte size of one slot's payload region.
func (p *Pool) Stride() int { return p.stride }

// Capacity returns the number of slots in the pool.
func (p *Pool) Capacity() int { return p.capacity }

// Alloc claims a free slot and sets its refcount to 1, representing the
// loan's own ownership. It returns (-1, false) if every slot is currently
// referenced — the LoanedPoolExhausted case in spec.md §7.
func (p *Pool) Alloc() (int, bool) {
	start := int(atomic.AddUint32(&p.cursor, 1)) % p.capacity
	for i := 0; i < p.capacity; i++ {
		slot := (start + i) % p.capacity
		if atomic.CompareAndSwapInt32(p.refcountPtr(slot), 0, 1) {
			return slot, true
		}
	}
	return -1, false
}

// AddRef adds one reference to slot, called once per destination (a
// subscriber buffer or the history ring) that Send enqueues the sample
// into.
func (p *Pool) AddRef(slot int) {
	atomic.AddInt32(p.refcountPtr(slot), 1)
}

// Release drops one reference from slot and reports whether that was the
// last one, in which case the slot is now free for Alloc to reuse.
func (p *Pool) Release(slot int) bool {
	return atomic.AddInt32(p.refcountPtr(slot), -1) == 0
}

// RefCount reports slot's current reference count, mostly for tests.
func (p *Pool) RefCount(slot int) int32 {
	return atomic.LoadInt32(p.refcountPtr(slot))
}

// Data returns the raw byte region backing slot, sized Stride(). Callers
// carve the Header and payload sub-slices out of it themselves.
func (p *Pool) Data(slot int) []byte {
	off := slot * p.stride
	return p.data[off : off+p.stride]
}

// PoolDataSpan reports the total byte length a Pool's data region of the given
// capacity and stride occupies.
func PoolDataSpan(capacity, stride int) int { return capacity * stride }

// PoolMetadataSpan reports the total byte length a Pool's metadata region of the
// given capacity occupies.
func PoolMetadataSpan(capacity int) int { return capacity * MetadataSlotSize }
