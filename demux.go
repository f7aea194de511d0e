package signet

import (
	"slices"

	"github.com/AnatoleLucet/signet/model"
)

// demux exposes one named element of the network's result.
type demux struct {
	net  *network
	run  *DependentSignal[float64]
	name string

	// destination buffer, reused between evaluations
	buf model.Vector
}

// extract evaluates the network for time if needed and copies out the element for d.name.
//
// With exactly one registered output the result must be a single tensor and the
// name is not looked up. Otherwise the name selects the tuple element at its
// registration index.
func (d *demux) extract(time int) (model.Vector, error) {
	names := d.net.outputNames

	index := -1
	if len(names) != 1 {
		index = slices.Index(names, d.name)
		if index < 0 {
			return nil, UnknownOutputSignal.New("output signal %q not found", d.name)
		}
	}

	if _, err := d.run.Pull(time); err != nil {
		return nil, err
	}

	tensor, err := d.selectTensor(d.net.result, index)
	if err != nil {
		return nil, err
	}

	buf, err := tensor.CopyTo(d.buf)
	if err != nil {
		return nil, MalformedModelResult.Wrap(err)
	}
	d.buf = buf

	return buf, nil
}

func (d *demux) selectTensor(result model.Result, index int) (model.Tensor, error) {
	if index < 0 {
		tensor, ok := result.Tensor()
		if !ok {
			return model.Tensor{}, MalformedModelResult.New(
				"expecting a single tensor for output %q but model returned a %s", d.name, result.Kind())
		}
		return tensor, nil
	}

	if !result.IsTuple() {
		return model.Tensor{}, MalformedModelResult.New(
			"expecting %d outputs but model returned a %s instead of a tuple", len(d.net.outputNames), result.Kind())
	}

	elems := result.Elements()
	if len(elems) < len(d.net.outputNames) {
		return model.Tensor{}, MalformedModelResult.New(
			"expecting %d outputs but model returned a tuple of %d", len(d.net.outputNames), len(elems))
	}

	return elems[index], nil
}
