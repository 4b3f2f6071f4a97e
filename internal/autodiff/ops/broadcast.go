package ops

import (
	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// BroadcastToOp expands a to Shape following NumPy rules: leading axes may
// be added and size-1 axes repeated.
//
// Backward pass: outGrad summed over every broadcast axis (the added
// leading axes and the axes where the input has size 1), then reshaped to
// the input shape.
type BroadcastToOp struct {
	Shape tensor.Shape
}

// BroadcastTo expands a to shape.
func BroadcastTo(a autodiff.Tensor, shape tensor.Shape) (autodiff.Tensor, error) {
	return apply(BroadcastToOp{Shape: shape.Clone()}, a)
}

// Name implements autodiff.Op.
func (BroadcastToOp) Name() string { return "BroadcastTo" }

// Infer implements autodiff.Op.
func (op BroadcastToOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	if err := expectTensors(inputs, 1); err != nil {
		return autodiff.Meta{}, err
	}
	if err := tensor.CheckBroadcastTo(inputs[0].Shape, op.Shape); err != nil {
		return autodiff.Meta{}, err
	}
	return autodiff.TensorMeta(op.Shape), nil
}

// Compute implements autodiff.Op.
func (op BroadcastToOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.BroadcastTo(op.Shape))
}

// Gradient implements autodiff.Differentiable.
func (BroadcastToOp) Gradient(outGrad, node autodiff.Tensor) ([]autodiff.Tensor, error) {
	g, err := reduceTo(outGrad, node.Input(0).Shape())
	if err != nil {
		return nil, err
	}
	return []autodiff.Tensor{g}, nil
}

// BroadcastAs expands a to the shape of like.
func BroadcastAs(a, like autodiff.Tensor) (autodiff.Tensor, error) {
	if err := like.Err(); err != nil {
		return autodiff.Tensor{}, err
	}
	return BroadcastTo(a, like.Shape())
}
