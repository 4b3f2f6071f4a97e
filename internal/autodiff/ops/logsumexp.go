package ops

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// LogSumExpOp computes log(Σ exp(z)) over Axes (every axis when nil).
//
// Forward: log(Σ exp(z - max z)) + max z, so large inputs do not overflow.
// An infinite maximum is not subtracted.
//
// Backward pass: grad_z = outGrad * exp(z - lse), both broadcast back over
// the reduced axes. exp(z - lse) is the softmax of z along the axes.
type LogSumExpOp struct {
	Axes []int
}

// LogSumExp reduces a with a numerically stable log-sum-exp.
func LogSumExp(a autodiff.Tensor, axes ...int) (autodiff.Tensor, error) {
	return apply(LogSumExpOp{Axes: axes}, a)
}

// Name implements autodiff.Op.
func (LogSumExpOp) Name() string { return "LogSumExp" }

// Infer implements autodiff.Op.
func (op LogSumExpOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	if err := expectTensors(inputs, 1); err != nil {
		return autodiff.Meta{}, err
	}
	axes, err := normAxes(op.Axes, len(inputs[0].Shape))
	if err != nil {
		return autodiff.Meta{}, err
	}
	return autodiff.TensorMeta(tensor.ReduceShape(inputs[0].Shape, axes, false)), nil
}

// Compute implements autodiff.Op.
func (op LogSumExpOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	z := inputs[0].Array
	axes, err := normAxes(op.Axes, z.Rank())
	if err != nil {
		return autodiff.Value{}, err
	}
	lse, err := logSumExpKeep(z, axes)
	if err != nil {
		return autodiff.Value{}, err
	}
	return single(lse.Reshape(tensor.ReduceShape(z.Shape(), axes, false)))
}

// logSumExpKeep returns log-sum-exp of z over axes with the reduced axes
// kept as size 1.
func logSumExpKeep(z *tensor.NDArray, axes []int) (*tensor.NDArray, error) {
	zmax, err := z.Max(axes, true)
	if err != nil {
		return nil, err
	}
	zmax = zmax.Map(func(x float32) float32 {
		if math32.IsInf(x, 0) {
			return 0
		}
		return x
	})
	shifted, err := z.Sub(zmax)
	if err != nil {
		return nil, err
	}
	s, err := shifted.Exp().Sum(axes, true)
	if err != nil {
		return nil, err
	}
	return s.Log().Add(zmax)
}

// Gradient implements autodiff.Differentiable.
func (op LogSumExpOp) Gradient(outGrad, node autodiff.Tensor) (grads []autodiff.Tensor, err error) {
	defer autodiff.Guard(&err)
	z := node.Input(0)
	shape := z.Shape()
	axes, err := normAxes(op.Axes, len(shape))
	if err != nil {
		return nil, err
	}
	lse := autodiff.Must(expand(node, shape, axes))
	softmax := autodiff.Must(Exp(autodiff.Must(Sub(z, lse))))
	g := autodiff.Must(expand(outGrad, shape, axes))
	return []autodiff.Tensor{autodiff.Must(Mul(g, softmax))}, nil
}

// LogSoftmaxOp computes z - logsumexp(z) along the last axis.
//
// Backward pass: grad_z = outGrad - exp(out) * Σ outGrad, the sum taken
// along the last axis and broadcast back.
type LogSoftmaxOp struct{}

// LogSoftmax returns the log-probabilities of a along its last axis.
func LogSoftmax(a autodiff.Tensor) (autodiff.Tensor, error) {
	return apply(LogSoftmaxOp{}, a)
}

// Name implements autodiff.Op.
func (LogSoftmaxOp) Name() string { return "LogSoftmax" }

// Infer implements autodiff.Op.
func (LogSoftmaxOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	m, err := unaryMeta(inputs)
	if err != nil {
		return autodiff.Meta{}, err
	}
	if len(m.Shape) == 0 {
		return autodiff.Meta{}, errors.Wrap(tensor.ErrAxis, "log-softmax of a scalar")
	}
	return m, nil
}

// Compute implements autodiff.Op.
func (LogSoftmaxOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	z := inputs[0].Array
	lse, err := logSumExpKeep(z, []int{z.Rank() - 1})
	if err != nil {
		return autodiff.Value{}, err
	}
	return single(z.Sub(lse))
}

// Gradient implements autodiff.Differentiable.
func (LogSoftmaxOp) Gradient(outGrad, node autodiff.Tensor) (grads []autodiff.Tensor, err error) {
	defer autodiff.Guard(&err)
	shape := node.Shape()
	last := len(shape) - 1
	total := autodiff.Must(expand(autodiff.Must(Summation(outGrad, last)), shape, []int{last}))
	weighted := autodiff.Must(Mul(autodiff.Must(Exp(node)), total))
	return []autodiff.Tensor{autodiff.Must(Sub(outGrad, weighted))}, nil
}
