package ops

import (
	"github.com/born-ml/lazygrad/internal/autodiff"
)

// LogOp is the natural logarithm. d(log a)/da = 1/a.
type LogOp struct{}

// Log returns log(a).
func Log(a autodiff.Tensor) (autodiff.Tensor, error) {
	return apply(LogOp{}, a)
}

// Name implements autodiff.Op.
func (LogOp) Name() string { return "Log" }

// Infer implements autodiff.Op.
func (LogOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	return unaryMeta(inputs)
}

// Compute implements autodiff.Op.
func (LogOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.Log(), nil)
}

// Gradient implements autodiff.Differentiable.
func (LogOp) Gradient(outGrad, node autodiff.Tensor) ([]autodiff.Tensor, error) {
	g, err := Div(outGrad, node.Input(0))
	if err != nil {
		return nil, err
	}
	return []autodiff.Tensor{g}, nil
}

// ExpOp is the exponential. d(exp a)/da = exp a, which is the node itself.
type ExpOp struct{}

// Exp returns exp(a).
func Exp(a autodiff.Tensor) (autodiff.Tensor, error) {
	return apply(ExpOp{}, a)
}

// Name implements autodiff.Op.
func (ExpOp) Name() string { return "Exp" }

// Infer implements autodiff.Op.
func (ExpOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	return unaryMeta(inputs)
}

// Compute implements autodiff.Op.
func (ExpOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(inputs[0].Array.Exp(), nil)
}

// Gradient implements autodiff.Differentiable.
func (ExpOp) Gradient(outGrad, node autodiff.Tensor) ([]autodiff.Tensor, error) {
	g, err := Mul(outGrad, node)
	if err != nil {
		return nil, err
	}
	return []autodiff.Tensor{g}, nil
}
