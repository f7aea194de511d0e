package signet

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/inconshreveable/log15"

	"github.com/AnatoleLucet/signet/internal"
	"github.com/AnatoleLucet/signet/model"
	"github.com/AnatoleLucet/signet/netfile"
)

const ClassName = "NetworkEntity"

// warmupTimes ends at 0 so a host starting its clock at 0 reuses the last warmup evaluation.
var warmupTimes = []int{-2, -1, 0}

// Entity connects named input and output signals to a model.
//
// Reading any output for time T runs the model at most once for T: the outputs
// depend on a run signal which samples every input, in registration order, and
// invokes the model. An Entity may be shared between goroutines; every
// operation holds the entity lock until it completes.
type Entity struct {
	name string

	log    log15.Logger
	lock   internal.Lock
	loader model.Loader

	graph *Graph
	net   *network

	// always stale, keeps the run signal refreshable even with no inputs
	refresher  *RefresherSignal
	runNetwork *DependentSignal[float64]

	inputs     map[string]*Input
	inputOrder []*Input
	outputs    map[string]*Output
}

// New creates an entity. Options are applied in order.
func New(name string, opts ...Option) *Entity {
	e := &Entity{
		name:    name,
		log:     log15.New(),
		loader:  netfile.NewLoader(),
		graph:   NewGraph(),
		net:     &network{stopwatch: internal.NewStopwatch(nil)},
		inputs:  make(map[string]*Input),
		outputs: make(map[string]*Output),
	}

	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.New("entity", name)

	// both names are unique in a fresh graph
	e.refresher, _ = NewRefresherSignal(e.graph, e.signalName("intern(dummy)", "refresher"))
	e.runNetwork, _ = NewDependentSignal(e.graph, e.signalName("output(double)", "last_run_duration_ms"), e.run, e.refresher)

	return e
}

func (e *Entity) Name() string { return e.name }

func (e *Entity) signalName(kind, name string) string {
	return fmt.Sprintf("%s(%s)::%s::%s", ClassName, e.name, kind, name)
}

func (e *Entity) run(time int) (float64, error) {
	ms, err := e.net.run(time)
	if err != nil {
		return 0, err
	}

	e.log.Debug("network evaluated", "time", time, "duration_ms", ms)
	return ms, nil
}

// LoadModel loads the model at path with the entity's loader, replacing the current
// model on success. Cached evaluations are dropped so the next request runs the new model.
func (e *Entity) LoadModel(path string) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	m, err := e.loader.Load(path)
	if err == nil && m == nil {
		err = errors.New("loader returned no model")
	}
	if err != nil {
		e.log.Error("unable to load model", "path", path, "err", err)
		return LoadError.Wrap(fmt.Errorf("unable to load model at %s: %w", path, err))
	}

	e.swap(m, path)
	return nil
}

// UseModel replaces the current model with m.
func (e *Entity) UseModel(m model.Model) {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.swap(m, "<memory>")
}

func (e *Entity) swap(m model.Model, path string) {
	replaced := e.net.model != nil

	e.net.model = m
	e.net.modelPath = path
	e.runNetwork.Invalidate()

	e.log.Info("model loaded", "path", path, "replaced", replaced)
}

// AddInput registers an input signal. The model receives inputs in the order they were added.
// The input must be plugged, or given a value, before the network runs.
func (e *Entity) AddInput(name string) (*Input, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if err := validName(name); err != nil {
		return nil, err
	}
	if _, ok := e.inputs[name]; ok {
		return nil, ConfigError.New("input signal %q already registered", name)
	}

	in := &Input{entity: e, name: name, slot: len(e.net.inputs)}
	signal, err := NewInputSignal(e.graph, e.signalName("input(vector)", name), in.sample)
	if err != nil {
		return nil, err
	}
	if err := e.runNetwork.AddDependency(signal); err != nil {
		return nil, err
	}
	in.signal = signal

	e.inputs[name] = in
	e.inputOrder = append(e.inputOrder, in)
	e.net.inputs = append(e.net.inputs, inputSlot{signal: signal})
	e.runNetwork.Invalidate()

	e.log.Debug("input added", "signal", signal.Name())
	return in, nil
}

// AddOutput registers an output signal. With several outputs the model must return
// a tuple whose elements follow the outputs' registration order.
func (e *Entity) AddOutput(name string) (*Output, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if err := validName(name); err != nil {
		return nil, err
	}
	if _, ok := e.outputs[name]; ok {
		return nil, ConfigError.New("output signal %q already registered", name)
	}

	d := &demux{net: e.net, run: e.runNetwork, name: name}
	signal, err := NewDependentSignal(e.graph, e.signalName("output(vector)", name), d.extract, e.runNetwork)
	if err != nil {
		return nil, err
	}

	// the output count decides how every output reads the result
	for _, other := range e.outputs {
		other.signal.Invalidate()
	}

	out := &Output{entity: e, name: name, signal: signal}
	e.outputs[name] = out
	e.net.outputNames = append(e.net.outputNames, name)

	e.log.Debug("output added", "signal", signal.Name())
	return out, nil
}

// Warmup evaluates the network a few times to pay any first call cost up front.
// The last evaluation is for time 0 and stays cached.
func (e *Entity) Warmup() error {
	e.lock.Lock()
	defer e.lock.Unlock()

	for _, time := range warmupTimes {
		if _, err := e.runNetwork.Pull(time); err != nil {
			e.log.Error("warmup failed", "time", time, "err", err)
			return classify(err)
		}
	}

	return nil
}

// RunNetwork evaluates the network for time unless it already was, and returns
// how long that evaluation took in milliseconds.
func (e *Entity) RunNetwork(time int) (float64, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	ms, err := e.runNetwork.Pull(time)
	if err != nil {
		e.log.Error("network evaluation failed", "time", time, "err", err)
		return 0, classify(err)
	}

	return ms, nil
}

// GetOutput returns the value of the named output for time, evaluating the network if needed.
//
// When exactly one output is registered the model's single result is returned for
// any name. The returned vector belongs to the caller.
func (e *Entity) GetOutput(name string, time int) (model.Vector, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	var v model.Vector
	var err error
	if out, ok := e.outputs[name]; ok {
		v, err = out.signal.Pull(time)
	} else {
		d := &demux{net: e.net, run: e.runNetwork, name: name}
		v, err = d.extract(time)
	}
	if err != nil {
		e.log.Error("output failed", "output", name, "time", time, "err", err)
		return nil, classify(err)
	}

	return slices.Clone(v), nil
}

func (e *Entity) Input(name string) (*Input, bool) {
	e.lock.Lock()
	defer e.lock.Unlock()

	in, ok := e.inputs[name]
	return in, ok
}

func (e *Entity) Output(name string) (*Output, bool) {
	e.lock.Lock()
	defer e.lock.Unlock()

	out, ok := e.outputs[name]
	return out, ok
}

// Signal looks a signal up by its fully qualified name, or an input or output
// by its short name. Inputs win over outputs sharing a short name.
func (e *Entity) Signal(name string) (*SignalView, bool) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if in, ok := e.inputs[name]; ok {
		return view[model.Vector](e, in.signal), true
	}
	if out, ok := e.outputs[name]; ok {
		return view[model.Vector](e, out.signal), true
	}

	for _, s := range e.signals() {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

func (e *Entity) signals() []*SignalView {
	all := []*SignalView{view[float64](e, e.refresher), view[float64](e, e.runNetwork)}
	for _, in := range e.inputOrder {
		all = append(all, view[model.Vector](e, in.signal))
	}
	for _, name := range e.net.outputNames {
		all = append(all, view[model.Vector](e, e.outputs[name].signal))
	}
	return all
}

// Inputs returns the input names in registration order.
func (e *Entity) Inputs() []string {
	e.lock.Lock()
	defer e.lock.Unlock()

	names := make([]string, len(e.inputOrder))
	for i, in := range e.inputOrder {
		names[i] = in.name
	}
	return names
}

// Outputs returns the output names in registration order.
func (e *Entity) Outputs() []string {
	e.lock.Lock()
	defer e.lock.Unlock()

	return slices.Clone(e.net.outputNames)
}

// Signals returns the fully qualified name of every signal owned by the entity.
func (e *Entity) Signals() []string {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.graph.Names()
}

// LastRunDuration returns the duration of the last successful evaluation and the
// time it was for. It stays readable after a hot swap or a new input drops the cache.
func (e *Entity) LastRunDuration() (float64, int, bool) {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.net.elapsed, e.net.evalTime, e.net.evaluated
}

// ModelPath returns the path of the current model, empty if none is loaded.
func (e *Entity) ModelPath() string {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.net.modelPath
}

func validName(name string) error {
	if name == "" {
		return ConfigError.New("signal name is empty")
	}
	if strings.Contains(name, "::") {
		return ConfigError.New("signal name %q contains '::'", name)
	}
	return nil
}

// Source produces an input's value for a time.
type Source func(time int) (model.Vector, error)

// Constant returns a source always producing a copy of v.
func Constant(v model.Vector) Source {
	v = slices.Clone(v)
	return func(int) (model.Vector, error) { return v, nil }
}

type Input struct {
	entity *Entity
	name   string
	slot   int
	signal *InputSignal[model.Vector]

	source Source
}

// Name returns the fully qualified signal name.
func (in *Input) Name() string { return in.signal.Name() }

// Plug binds the input to a source. A nil source unplugs it.
func (in *Input) Plug(source Source) {
	in.entity.lock.Lock()
	defer in.entity.lock.Unlock()

	in.source = source
}

// SetValue binds the input to a constant.
func (in *Input) SetValue(v model.Vector) {
	in.Plug(Constant(v))
}

// Value returns the value handed to the model by the last successful evaluation
// and its time. Samples taken for an evaluation that failed are not reported.
func (in *Input) Value() (model.Vector, int, bool) {
	in.entity.lock.Lock()
	defer in.entity.lock.Unlock()

	slot := in.entity.net.inputs[in.slot]
	if !slot.sampled {
		return nil, 0, false
	}
	return slices.Clone(slot.last), slot.time, true
}

func (in *Input) sample(time int) (model.Vector, error) {
	if in.source == nil {
		return nil, InputError.New("input signal %s is not plugged", in.Name())
	}

	v, err := in.source(time)
	if err != nil {
		if Error.Contains(err) {
			return nil, err
		}
		return nil, InputError.Wrap(fmt.Errorf("input signal %s at time %d: %w", in.Name(), time, err))
	}

	return v, nil
}

// SignalView is a read-only handle on one of an entity's signals.
type SignalView struct {
	entity *Entity
	name   string
	value  func() (any, int, bool)
}

type valuer[T any] interface {
	Signal
	Value() (T, int, bool)
}

func view[T any, S valuer[T]](e *Entity, s S) *SignalView {
	return &SignalView{entity: e, name: s.Name(), value: func() (any, int, bool) {
		v, time, ok := s.Value()
		return v, time, ok
	}}
}

// Name returns the fully qualified signal name.
func (s *SignalView) Name() string { return s.name }

// Value returns a copy of the signal's last computed value and its time.
// Vectors come back as model.Vector, durations as float64.
func (s *SignalView) Value() (any, int, bool) {
	s.entity.lock.Lock()
	defer s.entity.lock.Unlock()

	v, time, ok := s.value()
	if !ok {
		return nil, 0, false
	}
	if vec, isVec := v.(model.Vector); isVec {
		v = slices.Clone(vec)
	}
	return v, time, true
}

type Output struct {
	entity *Entity
	name   string
	signal *DependentSignal[model.Vector]
}

// Name returns the fully qualified signal name.
func (o *Output) Name() string { return o.signal.Name() }

// Recompute returns the output's value for time, see Entity.GetOutput.
func (o *Output) Recompute(time int) (model.Vector, error) {
	return o.entity.GetOutput(o.name, time)
}

// Value returns the last computed value and its time.
func (o *Output) Value() (model.Vector, int, bool) {
	o.entity.lock.Lock()
	defer o.entity.lock.Unlock()

	v, time, ok := o.signal.Value()
	return slices.Clone(v), time, ok
}
