// Package nn implements neural network modules on top of the autodiff engine.
//
// This package provides building blocks for constructing neural networks:
//   - Module interface: Base interface for all NN components
//   - Parameter: Trainable leaf tensors with gradient tracking
//   - Linear: Fully connected layer
//   - Activations and shape helpers: ReLU, Identity, Flatten
//   - Containers: Sequential, Residual
//   - Normalization: BatchNorm1d, LayerNorm1d
//   - Regularization: Dropout
//   - Loss functions: SoftmaxLoss
//
// Layers build graph nodes through the ops package. Forward panics on
// misuse (wrong input shape) like the array backend does; Call turns such
// a panic into an error.
package nn

import (
	"github.com/born-ml/lazygrad/internal/autodiff"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//   - Train / Eval: Switch between training and inference behavior
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(g, 784, 128, rng),
//	    nn.NewReLU(),
//	    nn.NewLinear(g, 128, 10, rng),
//	)
type Module interface {
	// Forward computes the output of the module given an input tensor.
	// The output lives in the input's graph.
	Forward(x autodiff.Tensor) autodiff.Tensor

	// Parameters returns all trainable parameters of this module,
	// including those of nested modules. Modules without parameters return
	// nil.
	Parameters() []*Parameter

	// Train enables training behavior (dropout, batch statistics).
	Train()

	// Eval enables inference behavior.
	Eval()
}

// Call runs m.Forward(x) and returns any failure raised inside the module
// as an error.
func Call(m Module, x autodiff.Tensor) (y autodiff.Tensor, err error) {
	defer autodiff.Guard(&err)
	if err := x.Err(); err != nil {
		return autodiff.Tensor{}, err
	}
	return m.Forward(x), nil
}

// mode is embedded by modules whose behavior depends on training mode.
// Modules start in training mode.
type mode struct {
	eval bool
}

// Train enables training behavior.
func (m *mode) Train() { m.eval = false }

// Eval enables inference behavior.
func (m *mode) Eval() { m.eval = true }

// Training reports whether the module is in training mode.
func (m *mode) Training() bool { return !m.eval }

// stateless provides no-op mode switching and no parameters.
type stateless struct{}

// Parameters returns nil.
func (stateless) Parameters() []*Parameter { return nil }

// Train is a no-op.
func (stateless) Train() {}

// Eval is a no-op.
func (stateless) Eval() {}
