package ops

import (
	"github.com/born-ml/lazygrad/internal/autodiff"
)

// AddOp is elementwise addition: out = a + b.
//
// Backward pass:
//   - d(a+b)/da = 1, so grad_a = outGrad
//   - d(a+b)/db = 1, so grad_b = outGrad
type AddOp struct{}

// Add returns a + b. Shapes must match.
func Add(a, b autodiff.Tensor) (autodiff.Tensor, error) {
	return apply(AddOp{}, a, b)
}

// Name implements autodiff.Op.
func (AddOp) Name() string { return "EWiseAdd" }

// Infer implements autodiff.Op.
func (AddOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	return binaryMeta(inputs)
}

// Compute implements autodiff.Op.
func (AddOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.Add(inputs[1].Array))
}

// Gradient implements autodiff.Differentiable.
func (AddOp) Gradient(outGrad, _ autodiff.Tensor) ([]autodiff.Tensor, error) {
	return []autodiff.Tensor{outGrad, outGrad}, nil
}

// AddScalarOp adds a constant: out = a + Scalar.
type AddScalarOp struct {
	Scalar float32
}

// AddScalar returns a + c.
func AddScalar(a autodiff.Tensor, c float32) (autodiff.Tensor, error) {
	return apply(AddScalarOp{Scalar: c}, a)
}

// Name implements autodiff.Op.
func (AddScalarOp) Name() string { return "AddScalar" }

// Infer implements autodiff.Op.
func (AddScalarOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	return unaryMeta(inputs)
}

// Compute implements autodiff.Op.
func (op AddScalarOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.AddScalar(op.Scalar), nil)
}

// Gradient implements autodiff.Differentiable.
func (AddScalarOp) Gradient(outGrad, _ autodiff.Tensor) ([]autodiff.Tensor, error) {
	return []autodiff.Tensor{outGrad}, nil
}

// Sub returns a - b, built as a + (-b).
func Sub(a, b autodiff.Tensor) (autodiff.Tensor, error) {
	nb, err := Negate(b)
	if err != nil {
		return autodiff.Tensor{}, err
	}
	return Add(a, nb)
}
