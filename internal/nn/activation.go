package nn

import (
	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/autodiff/ops"
)

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
//
// Example:
//
//	relu := nn.NewReLU()
//	output := relu.Forward(input) // All negative values become 0
type ReLU struct {
	stateless
}

// NewReLU creates a new ReLU activation module.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies ReLU activation: f(x) = max(0, x).
func (r *ReLU) Forward(x autodiff.Tensor) autodiff.Tensor {
	return autodiff.Must(ops.ReLU(x))
}

// Identity returns its input unchanged.
type Identity struct {
	stateless
}

// NewIdentity creates an Identity module.
func NewIdentity() *Identity {
	return &Identity{}
}

// Forward returns x.
func (i *Identity) Forward(x autodiff.Tensor) autodiff.Tensor {
	return x
}

// Flatten reshapes [batch, d1, d2, ...] to [batch, d1*d2*...].
type Flatten struct {
	stateless
}

// NewFlatten creates a Flatten module.
func NewFlatten() *Flatten {
	return &Flatten{}
}

// Forward flattens every axis after the first.
func (f *Flatten) Forward(x autodiff.Tensor) autodiff.Tensor {
	return autodiff.Must(ops.Flatten(x))
}
