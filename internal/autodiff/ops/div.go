package ops

import (
	"github.com/born-ml/lazygrad/internal/autodiff"
)

// DivOp is elementwise division: out = a / b.
//
// Backward pass:
//   - d(a/b)/da = 1/b, so grad_a = outGrad / b
//   - d(a/b)/db = -a/b², so grad_b = -(outGrad * a) / b²
type DivOp struct{}

// Div returns a / b. Shapes must match.
func Div(a, b autodiff.Tensor) (autodiff.Tensor, error) {
	return apply(DivOp{}, a, b)
}

// Name implements autodiff.Op.
func (DivOp) Name() string { return "EWiseDiv" }

// Infer implements autodiff.Op.
func (DivOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	return binaryMeta(inputs)
}

// Compute implements autodiff.Op.
func (DivOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.Div(inputs[1].Array))
}

// Gradient implements autodiff.Differentiable.
func (DivOp) Gradient(outGrad, node autodiff.Tensor) (grads []autodiff.Tensor, err error) {
	defer autodiff.Guard(&err)
	a, b := node.Input(0), node.Input(1)
	gradA := autodiff.Must(Div(outGrad, b))
	num := autodiff.Must(Mul(outGrad, a))
	gradB := autodiff.Must(Negate(autodiff.Must(Div(num, autodiff.Must(PowerScalar(b, 2))))))
	return []autodiff.Tensor{gradA, gradB}, nil
}

// DivScalarOp divides by a constant: out = a / Scalar.
type DivScalarOp struct {
	Scalar float32
}

// DivScalar returns a / c.
func DivScalar(a autodiff.Tensor, c float32) (autodiff.Tensor, error) {
	return apply(DivScalarOp{Scalar: c}, a)
}

// Name implements autodiff.Op.
func (DivScalarOp) Name() string { return "DivScalar" }

// Infer implements autodiff.Op.
func (DivScalarOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	return unaryMeta(inputs)
}

// Compute implements autodiff.Op.
func (op DivScalarOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.DivScalar(op.Scalar), nil)
}

// Gradient implements autodiff.Differentiable.
func (op DivScalarOp) Gradient(outGrad, _ autodiff.Tensor) ([]autodiff.Tensor, error) {
	g, err := DivScalar(outGrad, op.Scalar)
	if err != nil {
		return nil, err
	}
	return []autodiff.Tensor{g}, nil
}
