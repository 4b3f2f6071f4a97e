// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum and weight decay
//   - Adam: Adaptive Moment Estimation with weight decay
//   - ClipGradNorm: global gradient norm clipping
//
// Optimizers read the gradients left on parameters by Tensor.Backward and
// write new parameter values with SetData. Parameters without a gradient
// are skipped.
//
// Example usage:
//
//	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})
//
//	for _, batch := range batches {
//	    mark := g.Mark()
//	    loss, _ := lossFn.Forward(model.Forward(x), labels)
//	    _ = loss.Backward()
//	    _ = opt.Step()
//	    opt.ResetGrad()
//	    g.Release(mark)
//	}
package optim

import (
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/nn"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters
//   - ResetGrad: Clear gradients before next iteration
//   - LR / SetLR: Learning rate access (for monitoring/scheduling)
type Optimizer interface {
	// Step applies one update to every parameter that has a gradient.
	Step() error

	// ResetGrad clears all parameter gradients.
	ResetGrad()

	// LR returns the current learning rate.
	LR() float32

	// SetLR updates the learning rate.
	SetLR(lr float32)
}

// base holds the state shared by all optimizers.
type base struct {
	params []*nn.Parameter
	lr     float32
}

// ResetGrad clears gradients for all parameters.
func (b *base) ResetGrad() {
	for _, p := range b.params {
		p.ZeroGrad()
	}
}

// LR returns the current learning rate.
func (b *base) LR() float32 {
	return b.lr
}

// SetLR updates the learning rate.
func (b *base) SetLR(lr float32) {
	b.lr = lr
}

// Params returns the optimized parameters.
func (b *base) Params() []*nn.Parameter {
	return b.params
}

// each calls f with the current value and gradient of every parameter that
// has a gradient and stores the buffer f returns as the new value. f must
// not modify p or g.
func (b *base) each(f func(i int, p, g []float32) []float32) error {
	for i, param := range b.params {
		grad, ok := param.Grad()
		if !ok {
			continue
		}
		value := param.Data()
		if !grad.Shape().Equal(value.Shape()) {
			return errors.Wrapf(tensor.ErrShape, "parameter %q: gradient %v for value %v",
				param.Name(), grad.Shape(), value.Shape())
		}
		next, err := tensor.New(value.Shape(), f(i, value.Data(), grad.Data()))
		if err != nil {
			return errors.Wrapf(err, "parameter %q", param.Name())
		}
		if err := param.SetData(next); err != nil {
			return errors.Wrapf(err, "parameter %q", param.Name())
		}
	}
	return nil
}

// state returns the per-parameter buffer at index i, allocating a zeroed
// buffer of size n on first use.
func state(bufs [][]float32, i, n int) []float32 {
	if bufs[i] == nil {
		bufs[i] = make([]float32, n)
	}
	return bufs[i]
}
