package ops

import (
	"github.com/born-ml/lazygrad/internal/autodiff"
)

// PowerScalarOp raises to a constant power: out = a^Scalar.
//
// Backward pass: grad_a = Scalar * outGrad * a^(Scalar-1).
type PowerScalarOp struct {
	Scalar float32
}

// PowerScalar returns a^c.
func PowerScalar(a autodiff.Tensor, c float32) (autodiff.Tensor, error) {
	return apply(PowerScalarOp{Scalar: c}, a)
}

// Name implements autodiff.Op.
func (PowerScalarOp) Name() string { return "PowerScalar" }

// Infer implements autodiff.Op.
func (PowerScalarOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	return unaryMeta(inputs)
}

// Compute implements autodiff.Op.
func (op PowerScalarOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.PowScalar(op.Scalar), nil)
}

// Gradient implements autodiff.Differentiable.
func (op PowerScalarOp) Gradient(outGrad, node autodiff.Tensor) (grads []autodiff.Tensor, err error) {
	defer autodiff.Guard(&err)
	a := node.Input(0)
	d := autodiff.Must(PowerScalar(a, op.Scalar-1))
	g := autodiff.Must(MulScalar(autodiff.Must(Mul(outGrad, d)), op.Scalar))
	return []autodiff.Tensor{g}, nil
}

// PowOp is elementwise power with a tensor exponent: out = a^b.
//
// Backward pass:
//   - grad_a = outGrad * b * a^(b-1)
//   - grad_b = outGrad * a^b * log(a)
//
// Both are built from graph operators; log(a) is a Log node, not a value
// read from a realized array.
type PowOp struct{}

// Pow returns a^b. Shapes must match.
func Pow(a, b autodiff.Tensor) (autodiff.Tensor, error) {
	return apply(PowOp{}, a, b)
}

// Name implements autodiff.Op.
func (PowOp) Name() string { return "EWisePow" }

// Infer implements autodiff.Op.
func (PowOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	return binaryMeta(inputs)
}

// Compute implements autodiff.Op.
func (PowOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.Pow(inputs[1].Array))
}

// Gradient implements autodiff.Differentiable.
func (PowOp) Gradient(outGrad, node autodiff.Tensor) (grads []autodiff.Tensor, err error) {
	defer autodiff.Guard(&err)
	a, b := node.Input(0), node.Input(1)
	bm1 := autodiff.Must(AddScalar(b, -1))
	gradA := autodiff.Must(Mul(outGrad, autodiff.Must(Mul(b, autodiff.Must(Pow(a, bm1))))))
	gradB := autodiff.Must(Mul(outGrad, autodiff.Must(Mul(node, autodiff.Must(Log(a))))))
	return []autodiff.Tensor{gradA, gradB}, nil
}
