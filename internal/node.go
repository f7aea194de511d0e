package internal

import "iter"

// NodeID addresses a node inside its Graph. Edges between nodes are stored as ids.
type NodeID int

type NodeKind uint8

const (
	// KindInput nodes sample an external source on every pull.
	KindInput NodeKind = iota
	// KindDependent nodes compute from their dependencies and memoize per time.
	KindDependent
)

type NodeFlags uint8

const (
	FlagNone NodeFlags = 0
	// FlagComputed is set while the node holds a value computed at node.time
	FlagComputed NodeFlags = 1 << iota
	// FlagAlwaysReady makes a dependent recompute on every pull
	FlagAlwaysReady
	// FlagPulling is set while the node is being refreshed, seeing it twice means a cycle
	FlagPulling
)

type Node struct {
	name string
	kind NodeKind

	flags NodeFlags

	// time of the last successful computation, only meaningful with FlagComputed
	time  int
	value any

	source  func(time int) (any, error) // inputs
	compute func(time int) (any, error) // dependents

	// registration order matters, dependencies are refreshed in that order
	deps []NodeID
	subs []NodeID
}

func (n *Node) Name() string { return n.name }

func (n *Node) Kind() NodeKind { return n.kind }

// Value returns the cached value and the time it was computed at.
func (n *Node) Value() (any, int, bool) {
	if !n.HasFlag(FlagComputed) {
		return nil, 0, false
	}
	return n.value, n.time, true
}

// FreshAt reports whether the cached value was computed for the given time.
func (n *Node) FreshAt(time int) bool {
	return n.HasFlag(FlagComputed) && n.time == time
}

// Deps returns an iterator over the node's dependencies, in registration order.
func (n *Node) Deps() iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for _, dep := range n.deps {
			if !yield(dep) {
				return
			}
		}
	}
}

// Subs returns an iterator over the nodes depending on this one.
func (n *Node) Subs() iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for _, sub := range n.subs {
			if !yield(sub) {
				return
			}
		}
	}
}

func (n *Node) HasFlag(flag NodeFlags) bool { return n.flags&flag != 0 }

func (n *Node) AddFlag(flag NodeFlags) { n.flags |= flag }

func (n *Node) RemoveFlag(flag NodeFlags) { n.flags &^= flag }

func (n *Node) store(value any, time int) {
	n.value = value
	n.time = time
	n.AddFlag(FlagComputed)
}
