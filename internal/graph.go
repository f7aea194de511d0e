package internal

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

var (
	ErrCycle          = errors.New("dependency cycle")
	ErrDuplicateName  = errors.New("signal already registered")
	ErrNoSuchNode     = errors.New("no such signal")
	ErrNotDependent   = errors.New("signal has no dependencies")
	ErrNotInput       = errors.New("signal is not an input")
	ErrMissingCompute = errors.New("missing compute function")
)

// Graph is an arena of nodes. It owns every node; nodes reference each other by id only.
// A Graph is not safe for concurrent use.
type Graph struct {
	nodes  []*Node
	byName map[string]NodeID
}

func NewGraph() *Graph {
	return &Graph{
		nodes:  make([]*Node, 0, 8),
		byName: make(map[string]NodeID),
	}
}

// NewInput registers a node whose value is sampled from source on every pull.
func (g *Graph) NewInput(name string, source func(time int) (any, error)) (NodeID, error) {
	if source == nil {
		return -1, fmt.Errorf("%w: input %s", ErrMissingCompute, name)
	}

	return g.add(&Node{name: name, kind: KindInput, source: source})
}

// NewDependent registers a node computed from its dependencies.
func (g *Graph) NewDependent(name string, compute func(time int) (any, error), deps ...NodeID) (NodeID, error) {
	if compute == nil {
		return -1, fmt.Errorf("%w: %s", ErrMissingCompute, name)
	}
	for _, dep := range deps {
		if _, err := g.node(dep); err != nil {
			return -1, err
		}
	}

	id, err := g.add(&Node{name: name, kind: KindDependent, compute: compute})
	if err != nil {
		return -1, err
	}

	for _, dep := range deps {
		g.link(id, dep)
	}

	return id, nil
}

func (g *Graph) add(n *Node) (NodeID, error) {
	if _, ok := g.byName[n.name]; ok {
		return -1, fmt.Errorf("%w: %s", ErrDuplicateName, n.name)
	}

	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.byName[n.name] = id

	return id, nil
}

// AddDependency makes sub refresh dep before computing. Edges that would close a cycle are refused.
func (g *Graph) AddDependency(sub, dep NodeID) error {
	s, err := g.node(sub)
	if err != nil {
		return err
	}
	if _, err := g.node(dep); err != nil {
		return err
	}
	if s.kind != KindDependent {
		return fmt.Errorf("%w: %s", ErrNotDependent, s.name)
	}
	if slices.Contains(s.deps, dep) {
		return nil
	}
	if sub == dep || g.reaches(dep, sub) {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, s.name, g.nodes[dep].name)
	}

	g.link(sub, dep)
	return nil
}

func (g *Graph) link(sub, dep NodeID) {
	g.nodes[sub].deps = append(g.nodes[sub].deps, dep)
	g.nodes[dep].subs = append(g.nodes[dep].subs, sub)
}

// reaches reports whether to is a transitive dependency of from.
func (g *Graph) reaches(from, to NodeID) bool {
	seen := make(map[NodeID]bool)
	stack := []NodeID{from}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if id == to {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		for dep := range g.nodes[id].Deps() {
			stack = append(stack, dep)
		}
	}

	return false
}

// SetSource replaces the source function of an input node.
func (g *Graph) SetSource(id NodeID, source func(time int) (any, error)) error {
	n, err := g.node(id)
	if err != nil {
		return err
	}
	if n.kind != KindInput {
		return fmt.Errorf("%w: %s", ErrNotInput, n.name)
	}
	if source == nil {
		return fmt.Errorf("%w: input %s", ErrMissingCompute, n.name)
	}

	n.source = source
	return nil
}

// Pull refreshes the node for the given time and returns its value.
//
// Inputs always resample their source. Dependents return their cached value when
// it was computed for exactly this time, otherwise they pull every dependency in
// registration order and then compute. A failure leaves the node's cache untouched.
func (g *Graph) Pull(id NodeID, time int) (any, error) {
	n, err := g.node(id)
	if err != nil {
		return nil, err
	}

	if n.kind == KindDependent && n.FreshAt(time) && !n.HasFlag(FlagAlwaysReady) {
		return n.value, nil
	}

	if n.HasFlag(FlagPulling) {
		return nil, fmt.Errorf("%w: %s pulled while refreshing", ErrCycle, n.name)
	}
	n.AddFlag(FlagPulling)
	defer n.RemoveFlag(FlagPulling)

	var value any
	switch n.kind {
	case KindInput:
		value, err = n.source(time)
	default:
		for dep := range n.Deps() {
			if _, err := g.Pull(dep, time); err != nil {
				return nil, err
			}
		}
		value, err = n.compute(time)
	}
	if err != nil {
		return nil, err
	}

	n.store(value, time)
	return value, nil
}

// Get returns the node's value for time, pulling it only if it was not computed for that time yet.
func (g *Graph) Get(id NodeID, time int) (any, error) {
	n, err := g.node(id)
	if err != nil {
		return nil, err
	}

	if n.FreshAt(time) && !n.HasFlag(FlagPulling) {
		return n.value, nil
	}

	return g.Pull(id, time)
}

// Invalidate drops the cached value of the node and of everything depending on it.
func (g *Graph) Invalidate(id NodeID) {
	if _, err := g.node(id); err != nil {
		return
	}

	stack := []NodeID{id}
	for len(stack) > 0 {
		n := g.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		if !n.HasFlag(FlagComputed) && len(n.subs) == 0 {
			continue
		}
		n.RemoveFlag(FlagComputed)
		for sub := range n.Subs() {
			stack = append(stack, sub)
		}
	}
}

func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, err := g.node(id)
	return n, err == nil
}

func (g *Graph) Lookup(name string) (NodeID, bool) {
	id, ok := g.byName[name]
	return id, ok
}

func (g *Graph) Len() int { return len(g.nodes) }

// Nodes returns an iterator over every node in registration order.
func (g *Graph) Nodes() iter.Seq2[NodeID, *Node] {
	return func(yield func(NodeID, *Node) bool) {
		for i, n := range g.nodes {
			if !yield(NodeID(i), n) {
				return
			}
		}
	}
}

func (g *Graph) node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, fmt.Errorf("%w: #%d", ErrNoSuchNode, id)
	}
	return g.nodes[id], nil
}
