package ops

import (
	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// ArgmaxOp returns the index of the largest element along Axis, as float32.
// It has no gradient rule; a backward pass through it fails with
// autodiff.ErrNotImplemented.
type ArgmaxOp struct {
	Axis int
}

// Argmax returns the indices of the maxima of a along axis.
func Argmax(a autodiff.Tensor, axis int) (autodiff.Tensor, error) {
	return apply(ArgmaxOp{Axis: axis}, a)
}

// Name implements autodiff.Op.
func (ArgmaxOp) Name() string { return "Argmax" }

// Infer implements autodiff.Op.
func (op ArgmaxOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	if err := expectTensors(inputs, 1); err != nil {
		return autodiff.Meta{}, err
	}
	axis, err := tensor.NormalizeAxis(op.Axis, len(inputs[0].Shape))
	if err != nil {
		return autodiff.Meta{}, err
	}
	return autodiff.TensorMeta(tensor.ReduceShape(inputs[0].Shape, []int{axis}, false)), nil
}

// Compute implements autodiff.Op.
func (op ArgmaxOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.Argmax(op.Axis))
}
