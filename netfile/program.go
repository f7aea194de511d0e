package netfile

import (
	"errors"
	"fmt"

	"github.com/AnatoleLucet/signet/model"
)

var (
	ErrInvalidProgram = errors.New("invalid program")
	ErrInputCount     = errors.New("wrong number of inputs")
)

// Program is a compiled File. It is stateless and safe for concurrent use.
type Program struct {
	file File
	kind model.Kind
	ops  []compiledOp
}

type compiledOp struct {
	Op
	eval func(op *compiledOp, args [][]float64) ([]float64, error)
	fn   ActivationFunc
}

// Compile validates f and resolves its ops.
func Compile(f File) (*Program, error) {
	kind, err := model.ParseKind(f.Result)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProgram, err)
	}
	if len(f.Outputs) == 0 {
		return nil, fmt.Errorf("%w: no outputs", ErrInvalidProgram)
	}
	if kind == model.KindSingle && len(f.Outputs) != 1 {
		return nil, fmt.Errorf("%w: single result with %d outputs", ErrInvalidProgram, len(f.Outputs))
	}

	p := &Program{file: f, kind: kind, ops: make([]compiledOp, len(f.Ops))}

	for i, op := range f.Ops {
		slots := len(f.Inputs) + i
		for _, arg := range op.Args {
			if arg < 0 || arg >= slots {
				return nil, fmt.Errorf("%w: op %d (%s) reads slot %d, only %d available", ErrInvalidProgram, i, op.Op, arg, slots)
			}
		}

		c, err := compileOp(op)
		if err != nil {
			return nil, fmt.Errorf("%w: op %d: %v", ErrInvalidProgram, i, err)
		}
		p.ops[i] = c
	}

	total := len(f.Inputs) + len(f.Ops)
	for _, out := range f.Outputs {
		if out < 0 || out >= total {
			return nil, fmt.Errorf("%w: output slot %d out of %d", ErrInvalidProgram, out, total)
		}
	}

	return p, nil
}

func compileOp(op Op) (compiledOp, error) {
	c := compiledOp{Op: op}

	arity := 1
	switch op.Op {
	case "add", "sub", "mul":
		arity = 2
		c.eval = evalElementwise
	case "scale":
		c.eval = evalScale
	case "dense":
		if err := checkDense(op); err != nil {
			return c, err
		}
		c.eval = evalDense
	case "activate":
		fn, err := GetActivation(op.Fn)
		if err != nil {
			return c, err
		}
		c.fn = fn
		c.eval = evalActivate
	case "concat":
		arity = -1
		c.eval = evalConcat
	case "slice":
		if op.From < 0 || op.To < op.From {
			return c, fmt.Errorf("bad slice [%d:%d]", op.From, op.To)
		}
		c.eval = evalSlice
	default:
		return c, fmt.Errorf("unknown op %q", op.Op)
	}

	if arity > 0 && len(op.Args) != arity {
		return c, fmt.Errorf("%s takes %d args, got %d", op.Op, arity, len(op.Args))
	}
	if arity < 0 && len(op.Args) == 0 {
		return c, fmt.Errorf("%s takes at least one arg", op.Op)
	}

	return c, nil
}

func checkDense(op Op) error {
	if len(op.Weights) == 0 {
		return errors.New("dense without weights")
	}
	cols := len(op.Weights[0])
	for r, row := range op.Weights {
		if len(row) != cols {
			return fmt.Errorf("dense row %d has %d columns, expected %d", r, len(row), cols)
		}
	}
	if len(op.Bias) != 0 && len(op.Bias) != len(op.Weights) {
		return fmt.Errorf("dense bias has %d entries for %d rows", len(op.Bias), len(op.Weights))
	}
	return nil
}

func (p *Program) Name() string { return p.file.Name }

func (p *Program) File() File { return p.file }

// Forward runs the program. Every input must be one dimensional and match its declared length.
func (p *Program) Forward(inputs []model.Tensor) (model.Result, error) {
	if len(inputs) != len(p.file.Inputs) {
		return model.Result{}, fmt.Errorf("%w: expected %d, got %d", ErrInputCount, len(p.file.Inputs), len(inputs))
	}

	slots := make([][]float64, 0, len(inputs)+len(p.ops))
	for i, in := range inputs {
		if in.Dim() != 1 {
			return model.Result{}, fmt.Errorf("%w: input %d has shape %v", model.ErrShape, i, in.Shape())
		}
		if want := p.file.Inputs[i]; want != 0 && in.Len() != want {
			return model.Result{}, fmt.Errorf("%w: input %d has %d elements, expected %d", model.ErrShape, i, in.Len(), want)
		}
		slots = append(slots, in.Data())
	}

	for i := range p.ops {
		op := &p.ops[i]

		args := make([][]float64, len(op.Args))
		for j, arg := range op.Args {
			args[j] = slots[arg]
		}

		out, err := op.eval(op, args)
		if err != nil {
			return model.Result{}, fmt.Errorf("op %d (%s): %w", i, op.Op.Op, err)
		}
		slots = append(slots, out)
	}

	tensors := make([]model.Tensor, len(p.file.Outputs))
	for i, slot := range p.file.Outputs {
		tensors[i] = model.FromVector(slots[slot])
	}

	switch p.kind {
	case model.KindSingle:
		return model.Single(tensors[0]), nil
	case model.KindSequence:
		return model.Sequence(tensors...), nil
	default:
		return model.Tuple(tensors...), nil
	}
}

func evalElementwise(op *compiledOp, args [][]float64) ([]float64, error) {
	a, b := args[0], args[1]

	size := max(len(a), len(b))
	if (len(a) != size && len(a) != 1) || (len(b) != size && len(b) != 1) {
		return nil, fmt.Errorf("%w: cannot broadcast %d and %d", model.ErrShape, len(a), len(b))
	}

	at := func(v []float64, i int) float64 {
		if len(v) == 1 {
			return v[0]
		}
		return v[i]
	}

	out := make([]float64, size)
	for i := range out {
		x, y := at(a, i), at(b, i)
		switch op.Op.Op {
		case "add":
			out[i] = x + y
		case "sub":
			out[i] = x - y
		case "mul":
			out[i] = x * y
		}
	}
	return out, nil
}

func evalScale(op *compiledOp, args [][]float64) ([]float64, error) {
	out := make([]float64, len(args[0]))
	for i, x := range args[0] {
		out[i] = x * op.Factor
	}
	return out, nil
}

func evalDense(op *compiledOp, args [][]float64) ([]float64, error) {
	x := args[0]
	if cols := len(op.Weights[0]); len(x) != cols {
		return nil, fmt.Errorf("%w: dense expects %d elements, got %d", model.ErrShape, cols, len(x))
	}

	out := make([]float64, len(op.Weights))
	for r, row := range op.Weights {
		total := 0.0
		if len(op.Bias) > 0 {
			total = op.Bias[r]
		}
		for c, w := range row {
			total += w * x[c]
		}
		out[r] = total
	}
	return out, nil
}

func evalActivate(op *compiledOp, args [][]float64) ([]float64, error) {
	out := make([]float64, len(args[0]))
	for i, x := range args[0] {
		out[i] = op.fn(x)
	}
	return out, nil
}

func evalConcat(_ *compiledOp, args [][]float64) ([]float64, error) {
	var out []float64
	for _, arg := range args {
		out = append(out, arg...)
	}
	if out == nil {
		out = []float64{}
	}
	return out, nil
}

func evalSlice(op *compiledOp, args [][]float64) ([]float64, error) {
	x := args[0]
	if op.To > len(x) {
		return nil, fmt.Errorf("%w: slice [%d:%d] of %d elements", model.ErrShape, op.From, op.To, len(x))
	}
	return append([]float64(nil), x[op.From:op.To]...), nil
}
