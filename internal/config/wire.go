// Package config holds the on-disk wire representation of a service's
// StaticConfig and the pluggable serializer capability that encodes and
// decodes it. Serialization-format choice is an external collaborator
// (spec.md §1): the runtime only requires that creator and opener agree on
// one, and reports disagreement as corruption rather than a typed mismatch,
// per spec.md §9.
package config

// WireAttribute is one key/value pair of an AttributeSet, order-preserving
// so a multimap with repeated keys round-trips correctly.
type WireAttribute struct {
	Key   string `yaml:"key" json:"key"`
	Value string `yaml:"value" json:"value"`
}

// WirePubSub mirrors the PublishSubscribe variant of MessagingPattern.
type WirePubSub struct {
	PayloadSize             uint64 `yaml:"payload_size" json:"payload_size"`
	PayloadAlignment        uint64 `yaml:"payload_alignment" json:"payload_alignment"`
	MaxPublishers           uint32 `yaml:"max_publishers" json:"max_publishers"`
	MaxSubscribers          uint32 `yaml:"max_subscribers" json:"max_subscribers"`
	MaxNodes                uint32 `yaml:"max_nodes" json:"max_nodes"`
	HistorySize             uint32 `yaml:"history_size" json:"history_size"`
	SubscriberMaxBufferSize uint32 `yaml:"subscriber_max_buffer_size" json:"subscriber_max_buffer_size"`
	EnableSafeOverflow      bool   `yaml:"enable_safe_overflow" json:"enable_safe_overflow"`
}

// WireEvent mirrors the Event variant of MessagingPattern.
type WireEvent struct {
	MaxNotifiers  uint32 `yaml:"max_notifiers" json:"max_notifiers"`
	MaxListeners  uint32 `yaml:"max_listeners" json:"max_listeners"`
	MaxNodes      uint32 `yaml:"max_nodes" json:"max_nodes"`
	EventIDMax    uint64 `yaml:"event_id_max" json:"event_id_max"`
}

// WireStaticConfig is the length-prefixed payload written into the static
// descriptor (spec.md §6: "[length-prefixed serialized StaticConfig
// bytes]"). Exactly one of PubSub/Event is set.
type WireStaticConfig struct {
	ServiceName string          `yaml:"service_name" json:"service_name"`
	PatternKind string          `yaml:"pattern_kind" json:"pattern_kind"`
	PubSub      *WirePubSub     `yaml:"pub_sub,omitempty" json:"pub_sub,omitempty"`
	Event       *WireEvent      `yaml:"event,omitempty" json:"event,omitempty"`
	Attributes  []WireAttribute `yaml:"attributes" json:"attributes"`
	SerializerName string       `yaml:"serializer" json:"serializer"`
}

const (
	PatternKindPublishSubscribe = "publish_subscribe"
	PatternKindEvent            = "event"
)
