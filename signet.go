// Package signet evaluates an opaque model lazily over a graph of time-stamped signals.
//
// Input signals sample external sources, dependent signals memoize their value
// per logical time, and an Entity ties named inputs and outputs to a model so the
// model runs at most once per time step no matter how many outputs are read.
package signet

import (
	"github.com/AnatoleLucet/signet/internal"
)

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

// Graph owns a set of signals. It is not safe for concurrent use; Entity adds the locking.
type Graph struct {
	graph *internal.Graph
}

func NewGraph() *Graph {
	return &Graph{internal.NewGraph()}
}

// Len returns the number of signals registered in the graph.
func (g *Graph) Len() int { return g.graph.Len() }

// Names returns the names of every signal, in registration order.
func (g *Graph) Names() []string {
	names := make([]string, 0, g.graph.Len())
	for _, n := range g.graph.Nodes() {
		names = append(names, n.Name())
	}
	return names
}

// Signal is anything that can be used as a dependency.
type Signal interface {
	Name() string

	node() (*internal.Graph, internal.NodeID)
}

type InputSignal[T any] struct {
	graph *internal.Graph
	id    internal.NodeID
	name  string
}

// NewInputSignal creates a signal sampled from source every time it is pulled.
func NewInputSignal[T any](g *Graph, name string, source func(time int) (T, error)) (*InputSignal[T], error) {
	id, err := g.graph.NewInput(name, wrap(source))
	if err != nil {
		return nil, classify(err)
	}

	return &InputSignal[T]{g.graph, id, name}, nil
}

func (s *InputSignal[T]) Name() string { return s.name }

func (s *InputSignal[T]) node() (*internal.Graph, internal.NodeID) { return s.graph, s.id }

// Pull samples the source for the given time.
func (s *InputSignal[T]) Pull(time int) (T, error) {
	v, err := s.graph.Pull(s.id, time)
	return as[T](v), err
}

// Get returns the value sampled for time, sampling only if that has not happened yet.
func (s *InputSignal[T]) Get(time int) (T, error) {
	v, err := s.graph.Get(s.id, time)
	return as[T](v), err
}

// Plug replaces the source.
func (s *InputSignal[T]) Plug(source func(time int) (T, error)) error {
	return classify(s.graph.SetSource(s.id, wrap(source)))
}

// Value returns the last sampled value and its time.
func (s *InputSignal[T]) Value() (T, int, bool) {
	return value[T](s.graph, s.id)
}

type DependentSignal[T any] struct {
	graph *internal.Graph
	id    internal.NodeID
	name  string
}

// NewDependentSignal creates a signal computed from its dependencies. The dependencies
// are refreshed, in order, before compute runs; compute reads whatever state they updated.
func NewDependentSignal[T any](g *Graph, name string, compute func(time int) (T, error), deps ...Signal) (*DependentSignal[T], error) {
	ids, err := nodes(g.graph, deps)
	if err != nil {
		return nil, err
	}

	id, err := g.graph.NewDependent(name, wrap(compute), ids...)
	if err != nil {
		return nil, classify(err)
	}

	return &DependentSignal[T]{g.graph, id, name}, nil
}

// RefresherSignal is always stale: pulling it always recomputes. Depending on one
// does not defeat a dependent's own memoization.
type RefresherSignal = DependentSignal[float64]

func NewRefresherSignal(g *Graph, name string) (*RefresherSignal, error) {
	s, err := NewDependentSignal(g, name, func(int) (float64, error) { return 0, nil })
	if err != nil {
		return nil, err
	}

	s.SetAlwaysReady(true)
	return s, nil
}

func (s *DependentSignal[T]) Name() string { return s.name }

func (s *DependentSignal[T]) node() (*internal.Graph, internal.NodeID) { return s.graph, s.id }

// Pull returns the value for time, recomputing only when the cached value is for another time.
func (s *DependentSignal[T]) Pull(time int) (T, error) {
	v, err := s.graph.Pull(s.id, time)
	return as[T](v), err
}

// Get is Pull, except that always ready signals are not recomputed if already fresh.
func (s *DependentSignal[T]) Get(time int) (T, error) {
	v, err := s.graph.Get(s.id, time)
	return as[T](v), err
}

// AddDependency adds dep after the existing dependencies.
func (s *DependentSignal[T]) AddDependency(dep Signal) error {
	ids, err := nodes(s.graph, []Signal{dep})
	if err != nil {
		return err
	}

	return classify(s.graph.AddDependency(s.id, ids[0]))
}

// SetAlwaysReady marks the signal as always stale.
func (s *DependentSignal[T]) SetAlwaysReady(on bool) {
	n, _ := s.graph.Node(s.id)
	if on {
		n.AddFlag(internal.FlagAlwaysReady)
	} else {
		n.RemoveFlag(internal.FlagAlwaysReady)
	}
}

// Invalidate drops the cached value of the signal and of everything depending on it.
func (s *DependentSignal[T]) Invalidate() {
	s.graph.Invalidate(s.id)
}

// Value returns the cached value and its time.
func (s *DependentSignal[T]) Value() (T, int, bool) {
	return value[T](s.graph, s.id)
}

func value[T any](g *internal.Graph, id internal.NodeID) (T, int, bool) {
	n, _ := g.Node(id)
	v, time, ok := n.Value()
	return as[T](v), time, ok
}

func wrap[T any](fn func(time int) (T, error)) func(int) (any, error) {
	if fn == nil {
		return nil
	}

	return func(time int) (any, error) {
		return fn(time)
	}
}

func nodes(g *internal.Graph, deps []Signal) ([]internal.NodeID, error) {
	ids := make([]internal.NodeID, 0, len(deps))
	for _, dep := range deps {
		owner, id := dep.node()
		if owner != g {
			return nil, ConfigError.New("signal %s belongs to another graph", dep.Name())
		}
		ids = append(ids, id)
	}

	return ids, nil
}
