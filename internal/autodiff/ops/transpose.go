package ops

import (
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// TransposeOp swaps two axes. With no axes it swaps the last two.
//
// Backward pass: the same swap applied to outGrad.
type TransposeOp struct {
	Axes []int // empty or exactly two axes
}

// Transpose swaps axes (default: the last two) of a.
func Transpose(a autodiff.Tensor, axes ...int) (autodiff.Tensor, error) {
	return apply(TransposeOp{Axes: axes}, a)
}

// Name implements autodiff.Op.
func (TransposeOp) Name() string { return "Transpose" }

func (op TransposeOp) pair() (int, int, error) {
	switch len(op.Axes) {
	case 0:
		return -1, -2, nil
	case 2:
		return op.Axes[0], op.Axes[1], nil
	default:
		return 0, 0, errors.Wrapf(tensor.ErrAxis, "transpose takes two axes, got %v", op.Axes)
	}
}

// Infer implements autodiff.Op.
func (op TransposeOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	if err := expectTensors(inputs, 1); err != nil {
		return autodiff.Meta{}, err
	}
	i, j, err := op.pair()
	if err != nil {
		return autodiff.Meta{}, err
	}
	shape, err := tensor.SwapAxesShape(inputs[0].Shape, i, j)
	if err != nil {
		return autodiff.Meta{}, err
	}
	return autodiff.TensorMeta(shape), nil
}

// Compute implements autodiff.Op.
func (op TransposeOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	i, j, err := op.pair()
	if err != nil {
		return autodiff.Value{}, err
	}
	return single(inputs[0].Array.SwapAxes(i, j))
}

// Gradient implements autodiff.Differentiable.
func (op TransposeOp) Gradient(outGrad, _ autodiff.Tensor) ([]autodiff.Tensor, error) {
	g, err := apply(op, outGrad)
	if err != nil {
		return nil, err
	}
	return []autodiff.Tensor{g}, nil
}
