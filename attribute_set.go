package iox2

import "iox2/internal/config"

// attributeEntry is one key/value pair; AttributeSet preserves declaration
// order and allows repeated keys, matching spec.md §3's "ordered multimap".
type attributeEntry struct {
	key   string
	value string
}

// AttributeSet is opener/creator-negotiated key-value metadata attached to a
// service at creation and never changed afterward (spec.md §3).
type AttributeSet struct {
	entries []attributeEntry
}

// AttributeSetBuilder assembles an AttributeSet one Define call at a time,
// mirroring the chained-builder idiom used throughout the public API.
type AttributeSetBuilder struct {
	set AttributeSet
}

// NewAttributeSetBuilder starts an empty AttributeSetBuilder.
func NewAttributeSetBuilder() *AttributeSetBuilder {
	return &AttributeSetBuilder{}
}

// Define appends a key/value pair. Calling Define with the same key twice is
// valid and both values are kept, in order.
func (b *AttributeSetBuilder) Define(key, value string) *AttributeSetBuilder {
	b.set.entries = append(b.set.entries, attributeEntry{key: key, value: value})
	return b
}

// Build finalizes the AttributeSet.
func (b *AttributeSetBuilder) Build() AttributeSet {
	return b.set
}

// Contains reports whether key=value is present verbatim. An opener's
// "required attribute set" is satisfied when every one of its pairs
// Contains-matches the creator's AttributeSet (spec.md §4.1 step 2).
func (a AttributeSet) Contains(key, value string) bool {
	for _, e := range a.entries {
		if e.key == key && e.value == value {
			return true
		}
	}
	return false
}

// Get returns every value declared for key, in declaration order.
func (a AttributeSet) Get(key string) []string {
	var values []string
	for _, e := range a.entries {
		if e.key == key {
			values = append(values, e.value)
		}
	}
	return values
}

// Len reports the number of key/value pairs, including repeated keys.
func (a AttributeSet) Len() int { return len(a.entries) }

// Satisfies reports whether every pair in required is Contains-matched by a.
// An empty required set is always satisfied (spec.md §8 invariant 7).
func (a AttributeSet) Satisfies(required AttributeSet) bool {
	for _, r := range required.entries {
		if !a.Contains(r.key, r.value) {
			return false
		}
	}
	return true
}

func (a AttributeSet) toWire() []config.WireAttribute {
	wire := make([]config.WireAttribute, 0, len(a.entries))
	for _, e := range a.entries {
		wire = append(wire, config.WireAttribute{Key: e.key, Value: e.value})
	}
	return wire
}

func attributeSetFromWire(wire []config.WireAttribute) AttributeSet {
	set := AttributeSet{entries: make([]attributeEntry, 0, len(wire))}
	for _, w := range wire {
		set.entries = append(set.entries, attributeEntry{key: w.Key, value: w.Value})
	}
	return set
}
