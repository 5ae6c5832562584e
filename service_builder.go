package iox2

import (
	"context"

	"iox2/event"
	"iox2/internal/config"
	"iox2/internal/dynconfig"
	"iox2/internal/lifecycle"
	"iox2/internal/shm"
	"iox2/pubsub"
)

// ServiceBuilder is the entry point for creating, opening, or locating a
// named service (spec.md §4.1). Call PublishSubscribe or Event to pick the
// messaging pattern before calling Create, Open, or OpenOrCreate.
type ServiceBuilder struct {
	node *Node
	name ServiceName
}

func (b *ServiceBuilder) dynamicSegmentName() string {
	return b.name.String() + ".dynamic"
}

// PublishSubscribe continues building a publish-subscribe service.
func (b *ServiceBuilder) PublishSubscribe() *PublishSubscribeServiceBuilder {
	return &PublishSubscribeServiceBuilder{
		base: b,
		cfg: PublishSubscribeConfig{
			MaxPublishers:           1,
			MaxSubscribers:          1,
			MaxNodes:                1,
			HistorySize:             0,
			SubscriberMaxBufferSize: 1,
			PayloadSize:             8,
			PayloadAlignment:        1,
			EnableSafeOverflow:      true,
		},
	}
}

// Event continues building an event service.
func (b *ServiceBuilder) Event() *EventServiceBuilder {
	return &EventServiceBuilder{
		base: b,
		cfg: EventConfig{
			MaxNotifiers: 1,
			MaxListeners: 1,
			MaxNodes:     1,
			EventIDMax:   255,
		},
	}
}

// PublishSubscribeServiceBuilder configures a publish-subscribe service's
// capacities before creating or opening it.
type PublishSubscribeServiceBuilder struct {
	base       *ServiceBuilder
	cfg        PublishSubscribeConfig
	attributes AttributeSet
}

func (b *PublishSubscribeServiceBuilder) PayloadSize(n uint64) *PublishSubscribeServiceBuilder {
	b.cfg.PayloadSize = n
	return b
}
func (b *PublishSubscribeServiceBuilder) PayloadAlignment(n uint64) *PublishSubscribeServiceBuilder {
	b.cfg.PayloadAlignment = n
	return b
}
func (b *PublishSubscribeServiceBuilder) MaxPublishers(n uint32) *PublishSubscribeServiceBuilder {
	b.cfg.MaxPublishers = n
	return b
}
func (b *PublishSubscribeServiceBuilder) MaxSubscribers(n uint32) *PublishSubscribeServiceBuilder {
	b.cfg.MaxSubscribers = n
	return b
}
func (b *PublishSubscribeServiceBuilder) MaxNodes(n uint32) *PublishSubscribeServiceBuilder {
	b.cfg.MaxNodes = n
	return b
}
func (b *PublishSubscribeServiceBuilder) HistorySize(n uint32) *PublishSubscribeServiceBuilder {
	b.cfg.HistorySize = n
	return b
}
func (b *PublishSubscribeServiceBuilder) SubscriberMaxBufferSize(n uint32) *PublishSubscribeServiceBuilder {
	b.cfg.SubscriberMaxBufferSize = n
	return b
}
func (b *PublishSubscribeServiceBuilder) EnableSafeOverflow(v bool) *PublishSubscribeServiceBuilder {
	b.cfg.EnableSafeOverflow = v
	return b
}
func (b *PublishSubscribeServiceBuilder) WithAttributes(a AttributeSet) *PublishSubscribeServiceBuilder {
	b.attributes = a
	return b
}

func (b *PublishSubscribeServiceBuilder) params() dynconfig.PubSubParams {
	return dynconfig.PubSubParams{
		MaxNodes:                int(b.cfg.MaxNodes),
		MaxPublishers:           int(b.cfg.MaxPublishers),
		MaxSubscribers:          int(b.cfg.MaxSubscribers),
		PayloadSize:             b.cfg.PayloadSize,
		PayloadAlignment:        b.cfg.PayloadAlignment,
		HistorySize:             int(b.cfg.HistorySize),
		SubscriberMaxBufferSize: int(b.cfg.SubscriberMaxBufferSize),
		EnableSafeOverflow:      b.cfg.EnableSafeOverflow,
	}
}

// Create claims the service name and publishes its static and dynamic
// descriptors.
func (b *PublishSubscribeServiceBuilder) Create() (*pubsub.PortFactory, error) {
	node := b.base.node
	pattern := NewPublishSubscribePattern(b.cfg)
	static := StaticConfig{Name: b.base.name, Pattern: pattern, Attributes: b.attributes}

	if err := lifecycle.CreateStaticDescriptor(node.dir, b.base.name.String(), static.toWire(node.serializer.Name()), node.serializer); err != nil {
		switch err {
		case shm.ErrAlreadyExists:
			return nil, newCreateErrorWithCause(b.base.name, CreateAlreadyExists, err)
		case lifecycle.ErrBeingCreated:
			return nil, newCreateErrorWithCause(b.base.name, CreateIsBeingCreatedByAnotherInstance, err)
		default:
			return nil, newCreateError(b.base.name, CreateInternalFailure, err.Error())
		}
	}

	params := b.params()
	size := dynconfig.PubSubSize(params)
	segment, err := shm.Create(node.dir, b.base.dynamicSegmentName(), size)
	if err != nil {
		_ = lifecycle.RemoveStaticDescriptor(node.dir, b.base.name.String())
		if err == shm.ErrAlreadyExists {
			return nil, newCreateErrorWithCause(b.base.name, CreateOldConnectionsStillActive, err)
		}
		return nil, newCreateError(b.base.name, CreateInternalFailure, err.Error())
	}
	dyn := dynconfig.NewPubSubDynamicConfig(segment.Bytes(), params)

	nodeSlot, ok := dyn.Nodes.Claim([16]byte(node.id), 0)
	if !ok {
		return nil, newCreateError(b.base.name, CreateInternalFailure, "node table exhausted immediately after create")
	}

	return pubsub.NewPortFactory(node.dir, b.base.name.String(), segment, dyn, params, nodeSlot), nil
}

// Open locates an existing service and verifies it supports the requested
// capacities (spec.md §4.1, §7).
func (b *PublishSubscribeServiceBuilder) Open() (*pubsub.PortFactory, error) {
	node := b.base.node
	wire, err := lifecycle.OpenStaticDescriptor(node.dir, b.base.name.String(), node.creationTimeout, node.serializer)
	if err != nil {
		return nil, mapPubSubOpenErr(b.base.name, err)
	}
	static, err := staticConfigFromWire(wire)
	if err != nil {
		return nil, newOpenError(b.base.name, OpenServiceInCorruptedState, err.Error())
	}
	if static.Pattern.Kind != PatternPublishSubscribe {
		return nil, newOpenError(b.base.name, OpenIncompatibleMessagingPattern, "")
	}
	if !static.Attributes.Satisfies(b.attributes) {
		return nil, newOpenError(b.base.name, OpenIncompatibleAttributes, "")
	}
	existing := static.Pattern.PubSub
	if err := b.verifyAgainst(existing); err != nil {
		return nil, err
	}

	params := dynconfig.PubSubParams{
		MaxNodes:                int(existing.MaxNodes),
		MaxPublishers:           int(existing.MaxPublishers),
		MaxSubscribers:          int(existing.MaxSubscribers),
		PayloadSize:             existing.PayloadSize,
		PayloadAlignment:        existing.PayloadAlignment,
		HistorySize:             int(existing.HistorySize),
		SubscriberMaxBufferSize: int(existing.SubscriberMaxBufferSize),
		EnableSafeOverflow:      existing.EnableSafeOverflow,
	}
	size := dynconfig.PubSubSize(params)
	segment, err := shm.Open(node.dir, b.base.dynamicSegmentName(), size)
	if err != nil {
		return nil, newOpenError(b.base.name, OpenServiceInCorruptedState, err.Error())
	}
	dyn := dynconfig.NewPubSubDynamicConfig(segment.Bytes(), params)

	if dyn.Destruction.IsMarked() {
		_ = segment.Close()
		return nil, newOpenError(b.base.name, OpenIsMarkedForDestruction, "")
	}

	nodeSlot, ok := dyn.Nodes.Claim([16]byte(node.id), 0)
	if !ok {
		_ = segment.Close()
		return nil, newOpenError(b.base.name, OpenExceedsMaxNumberOfNodes, "")
	}

	return pubsub.NewPortFactory(node.dir, b.base.name.String(), segment, dyn, params, nodeSlot), nil
}

func (b *PublishSubscribeServiceBuilder) verifyAgainst(existing PublishSubscribeConfig) error {
	switch {
	case existing.MaxPublishers < b.cfg.MaxPublishers:
		return newOpenError(b.base.name, OpenDoesNotSupportRequestedAmountOfPublishers, "")
	case existing.MaxSubscribers < b.cfg.MaxSubscribers:
		return newOpenError(b.base.name, OpenDoesNotSupportRequestedAmountOfSubscribers, "")
	case existing.MaxNodes < b.cfg.MaxNodes:
		return newOpenError(b.base.name, OpenDoesNotSupportRequestedAmountOfNodes, "")
	case existing.PayloadSize != b.cfg.PayloadSize, existing.PayloadAlignment != b.cfg.PayloadAlignment:
		return newOpenError(b.base.name, OpenIncompatibleMessagingPattern, "payload layout mismatch")
	default:
		return nil
	}
}

// OpenOrCreate races Create and Open under the retry loop spec.md §4.1
// describes for open_or_create.
func (b *PublishSubscribeServiceBuilder) OpenOrCreate(ctx context.Context) (*pubsub.PortFactory, error) {
	return lifecycle.OpenOrCreate(ctx, b.base.node.dir, b.base.node.retryInterval,
		func() (*pubsub.PortFactory, error) { return b.Create() },
		func() (*pubsub.PortFactory, error) { return b.Open() },
	)
}

// mapPubSubOpenErr translates a lifecycle/shm-level open failure into the
// matching OpenError, preserving the underlying sentinel as Cause so
// OpenOrCreate's retry loop (internal/lifecycle/retry.go) can still tell a
// transient "not published yet" condition from a terminal one after this
// wraps it.
func mapPubSubOpenErr(name ServiceName, err error) error {
	switch {
	case err == shm.ErrNotExist:
		return newOpenErrorWithCause(name, OpenDoesNotExist, err)
	case lifecycle.IsNotReady(err):
		return newOpenErrorWithCause(name, OpenDoesNotExist, err)
	case err == lifecycle.ErrHangsInCreation:
		return newOpenErrorWithCause(name, OpenHangsInCreation, err)
	case err == config.ErrCorrupted:
		return newOpenError(name, OpenServiceInCorruptedState, err.Error())
	default:
		return newOpenError(name, OpenInternalFailure, err.Error())
	}
}

// EventServiceBuilder configures an event service's capacities before
// creating or opening it.
type EventServiceBuilder struct {
	base       *ServiceBuilder
	cfg        EventConfig
	attributes AttributeSet
}

func (b *EventServiceBuilder) MaxNotifiers(n uint32) *EventServiceBuilder {
	b.cfg.MaxNotifiers = n
	return b
}
func (b *EventServiceBuilder) MaxListeners(n uint32) *EventServiceBuilder {
	b.cfg.MaxListeners = n
	return b
}
func (b *EventServiceBuilder) MaxNodes(n uint32) *EventServiceBuilder {
	b.cfg.MaxNodes = n
	return b
}
func (b *EventServiceBuilder) EventIDMax(n uint64) *EventServiceBuilder {
	b.cfg.EventIDMax = n
	return b
}
func (b *EventServiceBuilder) WithAttributes(a AttributeSet) *EventServiceBuilder {
	b.attributes = a
	return b
}

func (b *EventServiceBuilder) params() dynconfig.EventParams {
	return dynconfig.EventParams{
		MaxNodes:     int(b.cfg.MaxNodes),
		MaxNotifiers: int(b.cfg.MaxNotifiers),
		MaxListeners: int(b.cfg.MaxListeners),
		EventIDMax:   b.cfg.EventIDMax,
	}
}

// Create claims the service name and publishes its static and dynamic
// descriptors.
func (b *EventServiceBuilder) Create() (*event.PortFactory, error) {
	node := b.base.node
	pattern := NewEventPattern(b.cfg)
	static := StaticConfig{Name: b.base.name, Pattern: pattern, Attributes: b.attributes}

	if err := lifecycle.CreateStaticDescriptor(node.dir, b.base.name.String(), static.toWire(node.serializer.Name()), node.serializer); err != nil {
		switch err {
		case shm.ErrAlreadyExists:
			return nil, newCreateErrorWithCause(b.base.name, CreateAlreadyExists, err)
		case lifecycle.ErrBeingCreated:
			return nil, newCreateErrorWithCause(b.base.name, CreateIsBeingCreatedByAnotherInstance, err)
		default:
			return nil, newCreateError(b.base.name, CreateInternalFailure, err.Error())
		}
	}

	params := b.params()
	size := dynconfig.EventSize(params)
	segment, err := shm.Create(node.dir, b.base.dynamicSegmentName(), size)
	if err != nil {
		_ = lifecycle.RemoveStaticDescriptor(node.dir, b.base.name.String())
		if err == shm.ErrAlreadyExists {
			return nil, newCreateErrorWithCause(b.base.name, CreateOldConnectionsStillActive, err)
		}
		return nil, newCreateError(b.base.name, CreateInternalFailure, err.Error())
	}
	dyn := dynconfig.NewEventDynamicConfig(segment.Bytes(), params)

	nodeSlot, ok := dyn.Nodes.Claim([16]byte(node.id), 0)
	if !ok {
		return nil, newCreateError(b.base.name, CreateInternalFailure, "node table exhausted immediately after create")
	}

	return event.NewPortFactory(node.dir, b.base.name.String(), segment, dyn, nodeSlot), nil
}

// Open locates an existing event service and verifies it supports the
// requested capacities.
func (b *EventServiceBuilder) Open() (*event.PortFactory, error) {
	node := b.base.node
	wire, err := lifecycle.OpenStaticDescriptor(node.dir, b.base.name.String(), node.creationTimeout, node.serializer)
	if err != nil {
		return nil, mapPubSubOpenErr(b.base.name, err)
	}
	static, err := staticConfigFromWire(wire)
	if err != nil {
		return nil, newOpenError(b.base.name, OpenServiceInCorruptedState, err.Error())
	}
	if static.Pattern.Kind != PatternEvent {
		return nil, newOpenError(b.base.name, OpenIncompatibleMessagingPattern, "")
	}
	if !static.Attributes.Satisfies(b.attributes) {
		return nil, newOpenError(b.base.name, OpenIncompatibleAttributes, "")
	}
	existing := static.Pattern.Event
	if err := b.verifyAgainst(existing); err != nil {
		return nil, err
	}

	params := dynconfig.EventParams{
		MaxNodes:     int(existing.MaxNodes),
		MaxNotifiers: int(existing.MaxNotifiers),
		MaxListeners: int(existing.MaxListeners),
		EventIDMax:   existing.EventIDMax,
	}
	size := dynconfig.EventSize(params)
	segment, err := shm.Open(node.dir, b.base.dynamicSegmentName(), size)
	if err != nil {
		return nil, newOpenError(b.base.name, OpenServiceInCorruptedState, err.Error())
	}
	dyn := dynconfig.NewEventDynamicConfig(segment.Bytes(), params)

	if dyn.Destruction.IsMarked() {
		_ = segment.Close()
		return nil, newOpenError(b.base.name, OpenIsMarkedForDestruction, "")
	}

	nodeSlot, ok := dyn.Nodes.Claim([16]byte(node.id), 0)
	if !ok {
		_ = segment.Close()
		return nil, newOpenError(b.base.name, OpenExceedsMaxNumberOfNodes, "")
	}

	return event.NewPortFactory(node.dir, b.base.name.String(), segment, dyn, nodeSlot), nil
}

func (b *EventServiceBuilder) verifyAgainst(existing EventConfig) error {
	switch {
	case existing.MaxNotifiers < b.cfg.MaxNotifiers:
		return newOpenError(b.base.name, OpenDoesNotSupportRequestedAmountOfNotifiers, "")
	case existing.MaxListeners < b.cfg.MaxListeners:
		return newOpenError(b.base.name, OpenDoesNotSupportRequestedAmountOfListeners, "")
	case existing.MaxNodes < b.cfg.MaxNodes:
		return newOpenError(b.base.name, OpenDoesNotSupportRequestedAmountOfNodes, "")
	case existing.EventIDMax < b.cfg.EventIDMax:
		return newOpenError(b.base.name, OpenDoesNotSupportRequestedMaxEventID, "")
	default:
		return nil
	}
}

// OpenOrCreate races Create and Open under the retry loop spec.md §4.1
// describes for open_or_create.
func (b *EventServiceBuilder) OpenOrCreate(ctx context.Context) (*event.PortFactory, error) {
	return lifecycle.OpenOrCreate(ctx, b.base.node.dir, b.base.node.retryInterval,
		func() (*event.PortFactory, error) { return b.Create() },
		func() (*event.PortFactory, error) { return b.Open() },
	)
}
