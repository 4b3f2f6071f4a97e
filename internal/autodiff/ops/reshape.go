package ops

import (
	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// ReshapeOp changes the shape without touching the data. One dimension of
// Shape may be -1 and is inferred.
//
// Backward pass: outGrad reshaped to the input shape.
type ReshapeOp struct {
	Shape tensor.Shape
}

// Reshape returns a with the given shape.
func Reshape(a autodiff.Tensor, shape tensor.Shape) (autodiff.Tensor, error) {
	return apply(ReshapeOp{Shape: shape.Clone()}, a)
}

// Name implements autodiff.Op.
func (ReshapeOp) Name() string { return "Reshape" }

// Infer implements autodiff.Op.
func (op ReshapeOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	if err := expectTensors(inputs, 1); err != nil {
		return autodiff.Meta{}, err
	}
	shape, err := tensor.ResolveReshape(inputs[0].Shape, op.Shape)
	if err != nil {
		return autodiff.Meta{}, err
	}
	return autodiff.TensorMeta(shape), nil
}

// Compute implements autodiff.Op.
func (op ReshapeOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.Reshape(op.Shape))
}

// Gradient implements autodiff.Differentiable.
func (ReshapeOp) Gradient(outGrad, node autodiff.Tensor) ([]autodiff.Tensor, error) {
	g, err := Reshape(outGrad, node.Input(0).Shape())
	if err != nil {
		return nil, err
	}
	return []autodiff.Tensor{g}, nil
}

// Flatten reshapes a to [batch, -1], keeping the first axis.
func Flatten(a autodiff.Tensor) (autodiff.Tensor, error) {
	if err := a.Err(); err != nil {
		return autodiff.Tensor{}, err
	}
	shape := a.Shape()
	if len(shape) == 0 {
		return Reshape(a, tensor.Shape{1, 1})
	}
	return Reshape(a, tensor.Shape{shape[0], -1})
}
