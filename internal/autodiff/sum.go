package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/tensor"
)

// addN sums gradient contributions of identical signature. Tuples are summed
// item by item. Backward uses it to combine the partials of a node with
// several consumers.
type addN struct{}

func (addN) Name() string { return "AddN" }

func (addN) Infer(inputs []Meta) (Meta, error) {
	if len(inputs) == 0 {
		return Meta{}, errors.Wrap(ErrType, "no operands")
	}
	for i, m := range inputs[1:] {
		if !sameMeta(m, inputs[0]) {
			return Meta{}, errors.Wrapf(ErrShape, "operand %d: %v vs %v", i+1, m, inputs[0])
		}
	}
	return inputs[0], nil
}

func (addN) Compute(inputs []Value) (Value, error) {
	if inputs[0].IsTuple() {
		items := make([]*tensor.NDArray, len(inputs[0].Items))
		for i := range items {
			arrays := make([]*tensor.NDArray, len(inputs))
			for j, in := range inputs {
				arrays[j] = in.Items[i]
			}
			sum, err := sumArrays(arrays)
			if err != nil {
				return Value{}, err
			}
			items[i] = sum
		}
		return Value{Items: items}, nil
	}
	arrays := make([]*tensor.NDArray, len(inputs))
	for i, in := range inputs {
		arrays[i] = in.Array
	}
	sum, err := sumArrays(arrays)
	if err != nil {
		return Value{}, err
	}
	return Value{Array: sum}, nil
}

func (addN) Gradient(outGrad, node Tensor) ([]Tensor, error) {
	grads := make([]Tensor, len(node.node().inputs))
	for i := range grads {
		grads[i] = outGrad
	}
	return grads, nil
}

func sumArrays(arrays []*tensor.NDArray) (*tensor.NDArray, error) {
	acc := arrays[0]
	for _, a := range arrays[1:] {
		var err error
		if acc, err = acc.Add(a); err != nil {
			return nil, err
		}
	}
	if len(arrays) == 1 {
		acc = acc.Clone()
	}
	return acc, nil
}
