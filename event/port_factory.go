package event

import (
	"fmt"

	"iox2/internal/dynconfig"
	"iox2/internal/ids"
	"iox2/internal/lifecycle"
	"iox2/internal/shm"
)

// PortFactory is a node's handle to an opened or created event service: the
// entry point spec.md §4.3 describes for building notifiers and listeners
// against it.
type PortFactory struct {
	dir         shm.Dir
	serviceName string
	segment     *shm.Segment
	dyn         *dynconfig.EventDynamicConfig
	nodeSlot    int
}

// NewPortFactory wires an already create'd/open'd dynamic segment into a
// usable PortFactory.
func NewPortFactory(dir shm.Dir, serviceName string, segment *shm.Segment, dyn *dynconfig.EventDynamicConfig, nodeSlot int) *PortFactory {
	return &PortFactory{dir: dir, serviceName: serviceName, segment: segment, dyn: dyn, nodeSlot: nodeSlot}
}

// ServiceName returns the name of the service this factory is attached to.
func (f *PortFactory) ServiceName() string { return f.serviceName }

// NotifierBuilder starts building a Notifier port on this service.
func (f *PortFactory) NotifierBuilder() *NotifierBuilder {
	return &NotifierBuilder{factory: f}
}

// ListenerBuilder starts building a Listener port on this service.
func (f *PortFactory) ListenerBuilder() *ListenerBuilder {
	return &ListenerBuilder{factory: f}
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

func doorbellName(serviceName string, listenerSlot int) string {
	return fmt.Sprintf("%s.listener-%d.doorbell", serviceName, listenerSlot)
}

// NotifierBuilder configures and creates a Notifier.
type NotifierBuilder struct {
	factory *PortFactory
}

// Create claims a notifier slot and returns the new Notifier.
func (b *NotifierBuilder) Create() (*Notifier, bool) {
	id := ids.New()
	slot, ok := b.factory.dyn.Notifiers.Claim([16]byte(id), 0)
	if !ok {
		return nil, false
	}
	return &Notifier{factory: b.factory, id: id, slot: slot}, true
}

// ListenerBuilder configures and creates a Listener.
type ListenerBuilder struct {
	factory *PortFactory
}

// Create claims a listener slot, opens its Doorbell, and returns the new
// Listener.
func (b *ListenerBuilder) Create() (*Listener, bool, error) {
	id := ids.New()
	slot, ok := b.factory.dyn.Listeners.Claim([16]byte(id), 0)
	if !ok {
		return nil, false, nil
	}
	doorbell, err := shm.CreateDoorbell(b.factory.dir, doorbellName(b.factory.serviceName, slot))
	if err != nil {
		b.factory.dyn.Listeners.Release(slot)
		return nil, false, err
	}
	return &Listener{factory: b.factory, id: id, slot: slot, doorbell: doorbell}, true, nil
}
