package iox2

import (
	"time"

	"iox2/internal/ids"
	"iox2/internal/shm"
)

const (
	defaultCreationTimeout = 5 * time.Second
	defaultRetryInterval   = 10 * time.Millisecond
)

// Node is a process's handle into a shared directory of services (spec.md
// §2 "Node"). Every service a Node creates or opens is scoped to the same
// directory and agrees on the same Serializer; two nodes pointed at
// different directories simply never see each other.
type Node struct {
	id              ids.ID
	dir             shm.Dir
	creationTimeout time.Duration
	retryInterval   time.Duration
	serializer      Serializer
}

// Id returns the node's unique 128-bit identity (spec.md GLOSSARY "NodeId").
func (n *Node) Id() ids.ID { return n.id }

// NodeBuilder constructs a Node through chained With* setters over defaults,
// mirroring the builder-with-defaults pattern the rest of this package's Create/Open
// surfaces use.
type NodeBuilder struct {
	dir             shm.Dir
	creationTimeout time.Duration
	retryInterval   time.Duration
	serializer      Serializer
}

// NewNodeBuilder starts building a Node rooted at sharedDirectory.
func NewNodeBuilder(sharedDirectory string) *NodeBuilder {
	return &NodeBuilder{
		dir:             shm.Dir(sharedDirectory),
		creationTimeout: defaultCreationTimeout,
		retryInterval:   defaultRetryInterval,
		serializer:      YAML(),
	}
}

// WithCreationTimeout overrides how long a static descriptor may stay locked
// by its creator before Open (and so OpenOrCreate) reports HangsInCreation
// instead of treating the service as not yet published.
func (b *NodeBuilder) WithCreationTimeout(d time.Duration) *NodeBuilder {
	b.creationTimeout = d
	return b
}

// WithOpenRetryInterval overrides how often open_or_create polls while
// waiting on a competing creator to finish publishing.
func (b *NodeBuilder) WithOpenRetryInterval(d time.Duration) *NodeBuilder {
	b.retryInterval = d
	return b
}

// WithSerializer overrides the capability used to encode and decode static
// descriptors (spec.md §9). Every node that must interoperate on a service
// needs to agree on this.
func (b *NodeBuilder) WithSerializer(s Serializer) *NodeBuilder {
	b.serializer = s
	return b
}

// Create builds the Node.
func (b *NodeBuilder) Create() (*Node, error) {
	if err := b.dir.EnsureDir(); err != nil {
		return nil, err
	}
	return &Node{
		id:              ids.New(),
		dir:             b.dir,
		creationTimeout: b.creationTimeout,
		retryInterval:   b.retryInterval,
		serializer:      b.serializer,
	}, nil
}

// ServiceBuilder starts building, opening, or locating a service named name
// under this node's shared directory.
func (n *Node) ServiceBuilder(name ServiceName) *ServiceBuilder {
	return &ServiceBuilder{node: n, name: name}
}
