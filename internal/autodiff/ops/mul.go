package ops

import (
	"github.com/born-ml/lazygrad/internal/autodiff"
)

// MulOp is elementwise multiplication: out = a * b.
//
// Backward pass:
//   - d(a*b)/da = b, so grad_a = outGrad * b
//   - d(a*b)/db = a, so grad_b = outGrad * a
type MulOp struct{}

// Mul returns a * b. Shapes must match.
func Mul(a, b autodiff.Tensor) (autodiff.Tensor, error) {
	return apply(MulOp{}, a, b)
}

// Name implements autodiff.Op.
func (MulOp) Name() string { return "EWiseMul" }

// Infer implements autodiff.Op.
func (MulOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	return binaryMeta(inputs)
}

// Compute implements autodiff.Op.
func (MulOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.Mul(inputs[1].Array))
}

// Gradient implements autodiff.Differentiable.
func (MulOp) Gradient(outGrad, node autodiff.Tensor) (grads []autodiff.Tensor, err error) {
	defer autodiff.Guard(&err)
	a, b := node.Input(0), node.Input(1)
	return []autodiff.Tensor{
		autodiff.Must(Mul(outGrad, b)),
		autodiff.Must(Mul(outGrad, a)),
	}, nil
}

// MulScalarOp multiplies by a constant: out = a * Scalar.
type MulScalarOp struct {
	Scalar float32
}

// MulScalar returns a * c.
func MulScalar(a autodiff.Tensor, c float32) (autodiff.Tensor, error) {
	return apply(MulScalarOp{Scalar: c}, a)
}

// Name implements autodiff.Op.
func (MulScalarOp) Name() string { return "MulScalar" }

// Infer implements autodiff.Op.
func (MulScalarOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	return unaryMeta(inputs)
}

// Compute implements autodiff.Op.
func (op MulScalarOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.MulScalar(op.Scalar), nil)
}

// Gradient implements autodiff.Differentiable.
func (op MulScalarOp) Gradient(outGrad, _ autodiff.Tensor) ([]autodiff.Tensor, error) {
	g, err := MulScalar(outGrad, op.Scalar)
	if err != nil {
		return nil, err
	}
	return []autodiff.Tensor{g}, nil
}

// Negate returns -a.
func Negate(a autodiff.Tensor) (autodiff.Tensor, error) {
	return apply(NegateOp{}, a)
}

// NegateOp is elementwise negation. d(-a)/da = -1.
type NegateOp struct{}

// Name implements autodiff.Op.
func (NegateOp) Name() string { return "Negate" }

// Infer implements autodiff.Op.
func (NegateOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	return unaryMeta(inputs)
}

// Compute implements autodiff.Op.
func (NegateOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.Neg(), nil)
}

// Gradient implements autodiff.Differentiable.
func (NegateOp) Gradient(outGrad, _ autodiff.Tensor) ([]autodiff.Tensor, error) {
	g, err := Negate(outGrad)
	if err != nil {
		return nil, err
	}
	return []autodiff.Tensor{g}, nil
}
