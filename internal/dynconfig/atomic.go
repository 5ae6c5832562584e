package dynconfig

import (
	"math/bits"
	"sync/atomic"
	"unsafe"
)

func trailingZeros64(x uint64) int {
	return bits.TrailingZeros64(x)
}

func atomicCASUint64(addr *uint64, old, new uint64) bool {
	return atomic.CompareAndSwapUint64(addr, old, new)
}

func byteSliceAsUint64(b []byte) *uint64 {
	return (*uint64)(unsafe.Pointer(&b[0]))
}

func atomicOrUint64(addr *uint64, mask uint64) {
	for {
		old := atomic.LoadUint64(addr)
		if atomic.CompareAndSwapUint64(addr, old, old|mask) {
			return
		}
	}
}

func atomicSwapUint64(addr *uint64, new uint64) uint64 {
	return atomic.SwapUint64(addr, new)
}

func atomicLoadUint64(addr *uint64) uint64 {
	return atomic.LoadUint64(addr)
}
