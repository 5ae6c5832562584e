// Package ids mints the process-wide unique identifiers the runtime stamps
// into sample headers, node registrations, and port slots. uuid.UUID is a
// natural fit for the 128-bit, fixed C-layout identifier spec.md §6
// requires: it is already a [16]byte value with no pointers, so it can be
// copied directly into a shared-memory slot.
package ids

import "github.com/google/uuid"

// ID is the 128-bit wire representation shared by every unique port and node
// identifier in the runtime.
type ID [16]byte

// New mints a fresh, globally unique ID. Generation is backed by
// google/uuid's v4 generator, which is already safe for concurrent use from
// multiple goroutines within this process; uniqueness across processes on
// the same host relies on the same statistical guarantee the uuid package
// makes for any two callers anywhere.
func New() ID {
	return ID(uuid.New())
}

// String renders the ID in canonical UUID form, useful for log lines.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is the zero value (never minted by New).
func (id ID) IsZero() bool {
	return id == ID{}
}
