package iox2

import "iox2/internal/xlog"

// PatternKind tags which variant of MessagingPattern is active.
type PatternKind int

const (
	// PatternPublishSubscribe selects the pub/sub messaging pattern.
	PatternPublishSubscribe PatternKind = iota
	// PatternEvent selects the event messaging pattern.
	PatternEvent
)

func (k PatternKind) String() string {
	switch k {
	case PatternPublishSubscribe:
		return "publish_subscribe"
	case PatternEvent:
		return "event"
	default:
		return "unknown"
	}
}

// PublishSubscribeConfig is the capacity and policy contract of a pub/sub
// service (spec.md §3).
type PublishSubscribeConfig struct {
	PayloadSize             uint64
	PayloadAlignment        uint64
	MaxPublishers           uint32
	MaxSubscribers          uint32
	MaxNodes                uint32
	HistorySize             uint32
	SubscriberMaxBufferSize uint32
	EnableSafeOverflow      bool
}

// EventConfig is the capacity and policy contract of an event service
// (spec.md §3).
type EventConfig struct {
	MaxNotifiers uint32
	MaxListeners uint32
	MaxNodes     uint32
	EventIDMax   uint64
}

// MessagingPattern is the tagged variant stored in StaticConfig (spec.md
// §3). Exactly one of PubSub/Event is populated, selected by Kind.
type MessagingPattern struct {
	Kind   PatternKind
	PubSub PublishSubscribeConfig
	Event  EventConfig
}

// NewPublishSubscribePattern builds a MessagingPattern for the pub/sub
// variant, normalizing zero capacities to 1 per spec.md §4.1.
func NewPublishSubscribePattern(cfg PublishSubscribeConfig) MessagingPattern {
	cfg.MaxPublishers = normalizeCapacity("max_publishers", cfg.MaxPublishers)
	cfg.MaxSubscribers = normalizeCapacity("max_subscribers", cfg.MaxSubscribers)
	cfg.MaxNodes = normalizeCapacity("max_nodes", cfg.MaxNodes)
	if cfg.PayloadAlignment == 0 {
		cfg.PayloadAlignment = 1
	}
	return MessagingPattern{Kind: PatternPublishSubscribe, PubSub: cfg}
}

// NewEventPattern builds a MessagingPattern for the event variant,
// normalizing zero capacities to 1 per spec.md §4.1.
func NewEventPattern(cfg EventConfig) MessagingPattern {
	cfg.MaxNotifiers = normalizeCapacity("max_notifiers", cfg.MaxNotifiers)
	cfg.MaxListeners = normalizeCapacity("max_listeners", cfg.MaxListeners)
	cfg.MaxNodes = normalizeCapacity("max_nodes", cfg.MaxNodes)
	return MessagingPattern{Kind: PatternEvent, Event: cfg}
}

// normalizeCapacity silently promotes a zero capacity to 1, logging a
// warning: spec.md §4.1 treats zero capacities as invalid configurations,
// not acceptable ones, so the promotion is never silent in the log.
func normalizeCapacity(field string, n uint32) uint32 {
	if n == 0 {
		xlog.Warn("iox2.config", "capacity %q was configured as 0, which is not a valid configuration; normalizing to 1", field)
		return 1
	}
	return n
}

// Equal reports whether two MessagingPatterns are the same kind with
// identical capacities and policy. Open does not use it: an opener may
// request lower capacities than the creator declared, and Open checks only
// the kind, the payload layout and those minimums (see verifyAgainst in
// service_builder.go).
func (p MessagingPattern) Equal(other MessagingPattern) bool {
	if p.Kind != other.Kind {
		return false
	}
	switch p.Kind {
	case PatternPublishSubscribe:
		return p.PubSub == other.PubSub
	case PatternEvent:
		return p.Event == other.Event
	default:
		return false
	}
}
