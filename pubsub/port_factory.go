package pubsub

import (
	"iox2/internal/dynconfig"
	"iox2/internal/ids"
	"iox2/internal/lifecycle"
	"iox2/internal/shm"
)

// PortFactory is a node's handle to an opened or created publish-subscribe
// service: the entry point spec.md §4.2 describes for building publishers
// and subscribers against it.
type PortFactory struct {
	dir         shm.Dir
	serviceName string
	segment     *shm.Segment
	dyn         *dynconfig.PubSubDynamicConfig
	params      dynconfig.PubSubParams
	nodeSlot    int
	connections *connectionRegistry
}

// NewPortFactory wires an already create'd/open'd dynamic segment into a
// usable PortFactory. Service-level orchestration (static descriptor
// publish/lookup, segment naming) lives one level up, in this module's
// service builder, which calls this constructor once the dynamic segment
// and its DynamicConfig view are ready.
func NewPortFactory(dir shm.Dir, serviceName string, segment *shm.Segment, dyn *dynconfig.PubSubDynamicConfig, params dynconfig.PubSubParams, nodeSlot int) *PortFactory {
	return &PortFactory{
		dir:         dir,
		serviceName: serviceName,
		segment:     segment,
		dyn:         dyn,
		params:      params,
		nodeSlot:    nodeSlot,
		connections: newConnectionRegistry(),
	}
}

// ServiceName returns the name of the service this factory is attached to.
func (f *PortFactory) ServiceName() string { return f.serviceName }

// PublisherBuilder starts building a Publisher port on this service.
func (f *PortFactory) PublisherBuilder() *PublisherBuilder {
	return &PublisherBuilder{factory: f, historySize: f.params.HistorySize}
}

// SubscriberBuilder starts building a Subscriber port on this service.
func (f *PortFactory) SubscriberBuilder() *PortSubscriberBuilder {
	return &PortSubscriberBuilder{factory: f}
}

// Drop releases this node's attachment to the service. Once the last node
// has let go, it marks the service for destruction and unlinks its static
// descriptor and dynamic segment (spec.md §4.1 "Teardown"), so a later
// Create of the same name is free to claim it again instead of racing a
// descriptor nobody will ever remove.
func (f *PortFactory) Drop() {
	f.dyn.Nodes.Release(f.nodeSlot)
	if f.dyn.Nodes.Count() == 0 {
		f.dyn.Destruction.Mark()
		_ = lifecycle.RemoveStaticDescriptor(f.dir, f.serviceName)
		_ = shm.Unlink(f.dir, f.serviceName+".dynamic")
	}
	_ = f.segment.Close()
}

// PublisherBuilder configures and creates a Publisher.
type PublisherBuilder struct {
	factory     *PortFactory
	historySize int
}

// WithHistorySize overrides how many past samples this publisher retains
// for newly connecting subscribers (defaults to the service's configured
// history_size).
func (b *PublisherBuilder) WithHistorySize(n int) *PublisherBuilder {
	b.historySize = n
	return b
}

// Create claims a publisher slot and returns the new Publisher, or ok=false
// if all of the service's max_publishers slots are already claimed.
func (b *PublisherBuilder) Create() (*Publisher, bool) {
	id := ids.New()
	slot, ok := b.factory.dyn.Publishers.Claim([16]byte(id), 0)
	if !ok {
		return nil, false
	}
	p := &Publisher{factory: b.factory, id: id, slot: slot, historyLimit: b.historySize}
	p.UpdateConnections()
	return p, true
}

// PortSubscriberBuilder configures and creates a Subscriber. Named
// distinctly from the package-level SubscriberBuilder some callers define
// themselves when embedding this factory.
type PortSubscriberBuilder struct {
	factory *PortFactory
}

// Create claims a subscriber slot and returns the new Subscriber. It does
// not itself attach to any already-existing publisher: connection
// establishment (and the history replay that comes with it) is owned
// exclusively by Publisher.UpdateConnections, which every Send call
// triggers, so a late-joining subscriber is picked up by the next send
// without this constructor racing it over an empty Ring.
func (b *PortSubscriberBuilder) Create() (*Subscriber, bool) {
	id := ids.New()
	slot, ok := b.factory.dyn.Subscribers.Claim([16]byte(id), 0)
	if !ok {
		return nil, false
	}
	return &Subscriber{factory: b.factory, id: id, slot: slot}, true
}
