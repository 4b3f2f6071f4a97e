// Package ops defines the operators of the autodiff engine.
//
// Each operator is a small value type holding only its construction
// parameters. It implements autodiff.Op (shape inference and forward compute
// on arrays) and, when it has a gradient rule, autodiff.Differentiable.
// Gradient rules are written with other operators, never on raw arrays, so
// gradients are graph nodes and can be differentiated again.
//
// Supported operators:
//   - AddOp, AddScalarOp: a+b, a+c (grad: out, out)
//   - MulOp, MulScalarOp: a*b, a*c (grad: out*b, out*a)
//   - DivOp, DivScalarOp: a/b, a/c (grad: out/b, -out*a/b²)
//   - PowerScalarOp, PowOp: a^c, a^b (grad: c*out*a^(c-1); out*b*a^(b-1), out*a^b*log(a))
//   - NegateOp, LogOp, ExpOp, ReLUOp: unary functions
//   - TransposeOp, ReshapeOp, BroadcastToOp: shape manipulation
//   - SummationOp, LogSumExpOp, LogSoftmaxOp, ArgmaxOp: reductions
//   - MatMulOp: batched matrix multiplication
//   - MakeTupleOp, TupleGetItemOp, SplitOp, StackOp: tuple plumbing
//
// Elementwise binary operators require operands of identical shape;
// broadcasting is explicit through BroadcastTo.
package ops

import (
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// apply builds op on the graph of the first input.
func apply(op autodiff.Op, inputs ...autodiff.Tensor) (autodiff.Tensor, error) {
	if len(inputs) == 0 {
		return autodiff.Tensor{}, errors.Wrapf(autodiff.ErrType, "%s: no operands", op.Name())
	}
	g := inputs[0].Graph()
	if g == nil {
		return autodiff.Tensor{}, errors.Wrapf(autodiff.ErrType, "%s: zero-value tensor", op.Name())
	}
	return g.Apply(op, inputs...)
}

// expectTensors checks the operand count and that no operand is a tuple.
func expectTensors(inputs []autodiff.Meta, n int) error {
	if len(inputs) != n {
		return errors.Wrapf(autodiff.ErrType, "expected %d operands, got %d", n, len(inputs))
	}
	for i, m := range inputs {
		if m.IsTuple() {
			return errors.Wrapf(autodiff.ErrType, "operand %d is a tuple, expected a tensor", i)
		}
	}
	return nil
}

// unaryMeta is the inference rule of shape-preserving unary operators.
func unaryMeta(inputs []autodiff.Meta) (autodiff.Meta, error) {
	if err := expectTensors(inputs, 1); err != nil {
		return autodiff.Meta{}, err
	}
	return autodiff.TensorMeta(inputs[0].Shape), nil
}

// binaryMeta is the inference rule of elementwise binary operators.
func binaryMeta(inputs []autodiff.Meta) (autodiff.Meta, error) {
	if err := expectTensors(inputs, 2); err != nil {
		return autodiff.Meta{}, err
	}
	a, b := inputs[0].Shape, inputs[1].Shape
	if !a.Equal(b) {
		return autodiff.Meta{}, errors.Wrapf(autodiff.ErrShape, "operand shapes differ: %v vs %v", a, b)
	}
	return autodiff.TensorMeta(a), nil
}

// single wraps an array result.
func single(a *tensor.NDArray, err error) (autodiff.Value, error) {
	if err != nil {
		return autodiff.Value{}, err
	}
	return autodiff.Value{Array: a}, nil
}
