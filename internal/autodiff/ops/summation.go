package ops

import (
	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// SummationOp sums over Axes, or over every axis when Axes is nil. Reduced
// axes are removed from the shape.
//
// Backward pass: outGrad reshaped with a 1 at every reduced axis, then
// broadcast to the input shape.
type SummationOp struct {
	Axes []int
}

// Summation sums a over axes; with no axes it sums everything to a scalar.
func Summation(a autodiff.Tensor, axes ...int) (autodiff.Tensor, error) {
	return apply(SummationOp{Axes: axes}, a)
}

// Name implements autodiff.Op.
func (SummationOp) Name() string { return "Summation" }

// Infer implements autodiff.Op.
func (op SummationOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	if err := expectTensors(inputs, 1); err != nil {
		return autodiff.Meta{}, err
	}
	axes, err := normAxes(op.Axes, len(inputs[0].Shape))
	if err != nil {
		return autodiff.Meta{}, err
	}
	return autodiff.TensorMeta(tensor.ReduceShape(inputs[0].Shape, axes, false)), nil
}

// Compute implements autodiff.Op.
func (op SummationOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.Sum(op.Axes, false))
}

// Gradient implements autodiff.Differentiable.
func (op SummationOp) Gradient(outGrad, node autodiff.Tensor) ([]autodiff.Tensor, error) {
	shape := node.Input(0).Shape()
	axes, err := normAxes(op.Axes, len(shape))
	if err != nil {
		return nil, err
	}
	g, err := expand(outGrad, shape, axes)
	if err != nil {
		return nil, err
	}
	return []autodiff.Tensor{g}, nil
}

// Mean averages a over axes (every axis when none are given).
func Mean(a autodiff.Tensor, axes ...int) (autodiff.Tensor, error) {
	if err := a.Err(); err != nil {
		return autodiff.Tensor{}, err
	}
	shape := a.Shape()
	norm, err := normAxes(axes, len(shape))
	if err != nil {
		return autodiff.Tensor{}, err
	}
	count := 1
	for _, ax := range norm {
		count *= shape[ax]
	}
	s, err := Summation(a, axes...)
	if err != nil {
		return autodiff.Tensor{}, err
	}
	return DivScalar(s, float32(count))
}
