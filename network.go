package signet

import (
	"fmt"

	"github.com/AnatoleLucet/signet/model"
)

// Stopwatch measures how long a model evaluation takes.
type Stopwatch interface {
	Start()
	// Stop returns the milliseconds elapsed since Start.
	Stop() float64
}

type inputSlot struct {
	// last value handed to the model, keeps the tensor view's buffer alive
	last    model.Vector
	time    int
	sampled bool

	signal *InputSignal[model.Vector]
}

// network is the state shared by the run signal and every output.
type network struct {
	model     model.Model
	modelPath string

	inputs []inputSlot
	// scratch passed to Forward, index aligned with inputs
	tensors []model.Tensor

	result    model.Result
	evalTime  int
	elapsed   float64
	evaluated bool

	outputNames []string

	stopwatch Stopwatch
}

// run samples every input for time, in registration order, then invokes the model once.
// Nothing is committed on failure: slots, result, evaluation time and elapsed all
// keep describing the last successful evaluation.
func (n *network) run(time int) (float64, error) {
	if n.model == nil {
		return 0, ModelInvocationError.New("no model loaded")
	}

	n.stopwatch.Start()

	if cap(n.tensors) < len(n.inputs) {
		n.tensors = make([]model.Tensor, len(n.inputs))
	}
	n.tensors = n.tensors[:len(n.inputs)]

	values := make([]model.Vector, len(n.inputs))
	for i, slot := range n.inputs {
		v, err := slot.signal.Get(time)
		if err != nil {
			return 0, err
		}
		values[i] = v
		n.tensors[i] = model.FromVector(v)
	}

	result, err := n.model.Forward(n.tensors)
	elapsed := n.stopwatch.Stop()
	if err != nil {
		return 0, ModelInvocationError.Wrap(fmt.Errorf("model %s failed at time %d: %w", n.modelPath, time, err))
	}

	for i := range n.inputs {
		slot := &n.inputs[i]
		slot.last, slot.time, slot.sampled = values[i], time, true
	}
	n.result = result
	n.evalTime = time
	n.elapsed = elapsed
	n.evaluated = true

	return elapsed, nil
}
