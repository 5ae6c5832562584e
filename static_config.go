package iox2

import (
	"fmt"

	"iox2/internal/config"
)

// Serializer is the pluggable capability that encodes and decodes a
// StaticConfig into the static descriptor's bytes (spec.md §9). YAML() and
// K8sYAML() are the two implementations this runtime ships; both sides of a
// service must be built with the same one, or Open fails with an OpenError
// of kind OpenServiceInCorruptedState (spec.md §9: a serializer mismatch is
// indistinguishable from corruption).
type Serializer = config.Serializer

// YAML returns the default gopkg.in/yaml.v3-backed Serializer.
func YAML() Serializer { return config.YAML() }

// K8sYAML returns the sigs.k8s.io/yaml-backed Serializer, whose wire bytes
// are also valid JSON, for interop with JSON-oriented openers.
func K8sYAML() Serializer { return config.K8sYAML() }

// StaticConfig is a service's immutable contract: its ServiceName,
// MessagingPattern, and AttributeSet (spec.md §3). It is serialized once
// into the static descriptor at create time and never changes afterward.
type StaticConfig struct {
	Name       ServiceName
	Pattern    MessagingPattern
	Attributes AttributeSet
}

func (c StaticConfig) toWire(serializerName string) config.WireStaticConfig {
	wire := config.WireStaticConfig{
		ServiceName:    c.Name.String(),
		Attributes:     c.Attributes.toWire(),
		SerializerName: serializerName,
	}
	switch c.Pattern.Kind {
	case PatternPublishSubscribe:
		wire.PatternKind = config.PatternKindPublishSubscribe
		wire.PubSub = &config.WirePubSub{
			PayloadSize:             c.Pattern.PubSub.PayloadSize,
			PayloadAlignment:        c.Pattern.PubSub.PayloadAlignment,
			MaxPublishers:           c.Pattern.PubSub.MaxPublishers,
			MaxSubscribers:          c.Pattern.PubSub.MaxSubscribers,
			MaxNodes:                c.Pattern.PubSub.MaxNodes,
			HistorySize:             c.Pattern.PubSub.HistorySize,
			SubscriberMaxBufferSize: c.Pattern.PubSub.SubscriberMaxBufferSize,
			EnableSafeOverflow:      c.Pattern.PubSub.EnableSafeOverflow,
		}
	case PatternEvent:
		wire.PatternKind = config.PatternKindEvent
		wire.Event = &config.WireEvent{
			MaxNotifiers: c.Pattern.Event.MaxNotifiers,
			MaxListeners: c.Pattern.Event.MaxListeners,
			MaxNodes:     c.Pattern.Event.MaxNodes,
			EventIDMax:   c.Pattern.Event.EventIDMax,
		}
	}
	return wire
}

func staticConfigFromWire(wire config.WireStaticConfig) (StaticConfig, error) {
	name, err := NewServiceName(wire.ServiceName)
	if err != nil {
		return StaticConfig{}, err
	}
	cfg := StaticConfig{
		Name:       name,
		Attributes: attributeSetFromWire(wire.Attributes),
	}
	switch wire.PatternKind {
	case config.PatternKindPublishSubscribe:
		if wire.PubSub == nil {
			return StaticConfig{}, fmt.Errorf("iox2: static descriptor declares publish_subscribe pattern with no pub_sub payload")
		}
		cfg.Pattern = MessagingPattern{Kind: PatternPublishSubscribe, PubSub: PublishSubscribeConfig{
			PayloadSize:             wire.PubSub.PayloadSize,
			PayloadAlignment:        wire.PubSub.PayloadAlignment,
			MaxPublishers:           wire.PubSub.MaxPublishers,
			MaxSubscribers:          wire.PubSub.MaxSubscribers,
			MaxNodes:                wire.PubSub.MaxNodes,
			HistorySize:             wire.PubSub.HistorySize,
			SubscriberMaxBufferSize: wire.PubSub.SubscriberMaxBufferSize,
			EnableSafeOverflow:      wire.PubSub.EnableSafeOverflow,
		}}
	case config.PatternKindEvent:
		if wire.Event == nil {
			return StaticConfig{}, fmt.Errorf("iox2: static descriptor declares event pattern with no event payload")
		}
		cfg.Pattern = MessagingPattern{Kind: PatternEvent, Event: EventConfig{
			MaxNotifiers: wire.Event.MaxNotifiers,
			MaxListeners: wire.Event.MaxListeners,
			MaxNodes:     wire.Event.MaxNodes,
			EventIDMax:   wire.Event.EventIDMax,
		}}
	default:
		return StaticConfig{}, fmt.Errorf("iox2: static descriptor declares unknown pattern kind %q", wire.PatternKind)
	}
	return cfg, nil
}
