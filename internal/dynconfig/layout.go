// Package dynconfig lays the mutable, refcounted half of a service's shared
// memory (spec.md §3 "DynamicConfig") over a shm.Segment: the node registry
// every service carries, plus the per-pattern port tables and payload pools.
// The immutable half (StaticConfig) never lives here — see package config
// and static_config.go at the module root.
package dynconfig

import "iox2/internal/shm"

// region describes one named, contiguous slice of a Segment's bytes.
type region struct {
	offset, length int
}

func (r region) end() int { return r.offset + r.length }

// cursor lays out regions back to back and reports the total span.
type cursor struct{ at int }

func (c *cursor) take(length int) region {
	r := region{offset: c.at, length: length}
	c.at += length
	return r
}

// PayloadStride returns the per-slot byte size a pool must reserve for a
// payload of the given size and alignment: enough room to place the sample
// Header followed by an aligned payload, per spec.md §6's fixed-layout
// Header requirement.
func PayloadStride(payloadSize, payloadAlignment uint64) int {
	if payloadAlignment == 0 {
		payloadAlignment = 1
	}
	aligned := (HeaderSize + int(payloadAlignment) - 1) &^ (int(payloadAlignment) - 1)
	return aligned + int(payloadSize)
}

// HeaderSize is the fixed byte size of the sample Header spec.md §6 and
// GLOSSARY describe: publisher id (128 bits), a monotonic per-publisher
// sequence number, and the payload's declared size, laid out so every
// subscriber decodes it identically regardless of which process wrote it.
const HeaderSize = 16 + 8 + 8

// destructionFlagSpan is the fixed byte span a DestructionFlag occupies.
const destructionFlagSpan = 8

// DestructionFlag is a single shared-memory word a service's DynamicConfig
// carries so its last node can mark it for teardown (spec.md §4.1
// "Teardown") before unlinking the static descriptor: a racing Open that
// maps the dynamic segment in between sees the mark and reports
// IsMarkedForDestruction instead of quietly attaching to a service that is
// already being torn down.
type DestructionFlag struct {
	word *uint64
}

func newDestructionFlag(bytes []byte) DestructionFlag {
	return DestructionFlag{word: byteSliceAsUint64(bytes)}
}

// Mark flags the service for destruction. Idempotent.
func (f DestructionFlag) Mark() { atomicSwapUint64(f.word, 1) }

// IsMarked reports whether the service has been marked for destruction.
func (f DestructionFlag) IsMarked() bool { return atomicLoadUint64(f.word) != 0 }
