package ops

import (
	"github.com/born-ml/lazygrad/internal/autodiff"
)

// ReLUOp is the rectified linear unit: out = max(a, 0).
//
// Backward pass: grad_a = outGrad * (out > 0). The mask is read from the
// realized forward output and enters the graph as a constant.
type ReLUOp struct{}

// ReLU returns max(a, 0).
func ReLU(a autodiff.Tensor) (autodiff.Tensor, error) {
	return apply(ReLUOp{}, a)
}

// Name implements autodiff.Op.
func (ReLUOp) Name() string { return "ReLU" }

// Infer implements autodiff.Op.
func (ReLUOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	return unaryMeta(inputs)
}

// Compute implements autodiff.Op.
func (ReLUOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.MaximumScalar(0), nil)
}

// Gradient implements autodiff.Differentiable.
func (ReLUOp) Gradient(outGrad, node autodiff.Tensor) ([]autodiff.Tensor, error) {
	out, err := node.Data()
	if err != nil {
		return nil, err
	}
	mask := node.Graph().Constant(out.GreaterScalar(0))
	g, err := Mul(outGrad, mask)
	if err != nil {
		return nil, err
	}
	return []autodiff.Tensor{g}, nil
}
