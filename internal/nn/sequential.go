package nn

import (
	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/autodiff/ops"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input, creating a
// sequential pipeline of transformations.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(g, 784, 128, rng),
//	    nn.NewReLU(),
//	    nn.NewLinear(g, 128, 10, rng),
//	)
//
//	output := model.Forward(input)
type Sequential struct {
	modules []Module
}

// NewSequential creates a new Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{
		modules: modules,
	}
}

// Forward applies all modules in sequence.
func (s *Sequential) Forward(x autodiff.Tensor) autodiff.Tensor {
	out := x
	for _, m := range s.modules {
		out = m.Forward(out)
	}
	return out
}

// Parameters returns the parameters of every module, in order.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Buffers returns the buffers of every module, in order.
func (s *Sequential) Buffers() []*Buffer {
	var bufs []*Buffer
	for _, m := range s.modules {
		bufs = append(bufs, Buffers(m)...)
	}
	return bufs
}

// Train switches every module to training mode.
func (s *Sequential) Train() {
	for _, m := range s.modules {
		m.Train()
	}
}

// Eval switches every module to inference mode.
func (s *Sequential) Eval() {
	for _, m := range s.modules {
		m.Eval()
	}
}

// Modules returns the contained modules.
func (s *Sequential) Modules() []Module {
	return s.modules
}

// Len returns the number of modules.
func (s *Sequential) Len() int {
	return len(s.modules)
}

// Residual computes fn(x) + x.
type Residual struct {
	fn Module
}

// NewResidual wraps fn with a skip connection. fn must preserve the shape.
func NewResidual(fn Module) *Residual {
	return &Residual{fn: fn}
}

// Forward returns fn(x) + x.
func (r *Residual) Forward(x autodiff.Tensor) autodiff.Tensor {
	return autodiff.Must(ops.Add(r.fn.Forward(x), x))
}

// Parameters returns the parameters of the wrapped module.
func (r *Residual) Parameters() []*Parameter {
	return r.fn.Parameters()
}

// Buffers returns the buffers of the wrapped module.
func (r *Residual) Buffers() []*Buffer {
	return Buffers(r.fn)
}

// Train switches the wrapped module to training mode.
func (r *Residual) Train() { r.fn.Train() }

// Eval switches the wrapped module to inference mode.
func (r *Residual) Eval() { r.fn.Eval() }
