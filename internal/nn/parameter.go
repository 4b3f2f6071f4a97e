package nn

import (
	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// A Parameter is a named leaf of the graph that requires gradients. Create
// parameters before marking the graph for a training step so they survive
// Graph.Release.
//
// Example:
//
//	weight := nn.NewParameter(g, "weight", nn.KaimingUniform(784, 128, rng))
//	w := weight.Tensor()        // use in ops
//	grad, ok := weight.Grad()   // after Backward
type Parameter struct {
	name   string
	tensor autodiff.Tensor
}

// NewParameter creates a trainable parameter holding data.
func NewParameter(g *autodiff.Graph, name string, data *tensor.NDArray) *Parameter {
	return &Parameter{
		name:   name,
		tensor: g.Variable(data),
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the graph leaf.
func (p *Parameter) Tensor() autodiff.Tensor {
	return p.tensor
}

// Shape returns the parameter shape.
func (p *Parameter) Shape() tensor.Shape {
	return p.tensor.Shape()
}

// Data returns the current value.
func (p *Parameter) Data() *tensor.NDArray {
	a, err := p.tensor.Data()
	if err != nil {
		panic(err)
	}
	return a
}

// SetData replaces the value. The shape must not change.
func (p *Parameter) SetData(a *tensor.NDArray) error {
	return p.tensor.SetData(a)
}

// Grad returns the realized gradient of the last backward pass.
//
// Returns false if no gradient has been computed (or it was reset).
func (p *Parameter) Grad() (*tensor.NDArray, bool) {
	g, ok := p.tensor.Grad()
	if !ok {
		return nil, false
	}
	a, err := g.Data()
	if err != nil {
		return nil, false
	}
	return a, true
}

// SetGrad replaces the gradient, e.g. after clipping.
func (p *Parameter) SetGrad(a *tensor.NDArray) error {
	return p.tensor.SetGrad(a)
}

// ZeroGrad clears the gradient.
func (p *Parameter) ZeroGrad() {
	p.tensor.ResetGrad()
}
