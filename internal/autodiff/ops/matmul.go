package ops

import (
	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// MatMulOp is matrix multiplication over the last two axes. Leading batch
// axes broadcast, so [2,3,4] @ [4,5] gives [2,3,5].
//
// Backward pass:
//   - grad_a = outGrad @ bᵀ
//   - grad_b = aᵀ @ outGrad
//
// When an operand was broadcast over batch axes, its gradient is summed over
// them to restore the operand's shape.
type MatMulOp struct{}

// MatMul returns a @ b.
func MatMul(a, b autodiff.Tensor) (autodiff.Tensor, error) {
	return apply(MatMulOp{}, a, b)
}

// Name implements autodiff.Op.
func (MatMulOp) Name() string { return "MatMul" }

// Infer implements autodiff.Op.
func (MatMulOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	if err := expectTensors(inputs, 2); err != nil {
		return autodiff.Meta{}, err
	}
	shape, err := tensor.MatMulShape(inputs[0].Shape, inputs[1].Shape)
	if err != nil {
		return autodiff.Meta{}, err
	}
	return autodiff.TensorMeta(shape), nil
}

// Compute implements autodiff.Op.
func (MatMulOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.MatMul(inputs[1].Array))
}

// Gradient implements autodiff.Differentiable.
func (MatMulOp) Gradient(outGrad, node autodiff.Tensor) (grads []autodiff.Tensor, err error) {
	defer autodiff.Guard(&err)
	a, b := node.Input(0), node.Input(1)
	gradA := autodiff.Must(MatMul(outGrad, autodiff.Must(Transpose(b))))
	gradB := autodiff.Must(MatMul(autodiff.Must(Transpose(a)), outGrad))
	return []autodiff.Tensor{
		autodiff.Must(reduceTo(gradA, a.Shape())),
		autodiff.Must(reduceTo(gradB, b.Shape())),
	}, nil
}
