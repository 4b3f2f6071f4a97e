// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"golang.org/x/exp/rand"

	"github.com/born-ml/lazygrad/autodiff"
	"github.com/born-ml/lazygrad/internal/nn"
	"github.com/born-ml/lazygrad/tensor"
)

// Module is the base interface for all neural network components.
type Module = nn.Module

// Parameter is a trainable leaf tensor.
//
// Example:
//
//	w := nn.NewParameter(g, "weight", tensor.Zeros(tensor.Shape{3, 2}))
//	_ = loss.Backward()
//	grad, ok := w.Grad()
type Parameter = nn.Parameter

// NewParameter creates a parameter in g.
func NewParameter(g *autodiff.Graph, name string, data *tensor.NDArray) *Parameter {
	return nn.NewParameter(g, name, data)
}

// Buffer is non-trainable module state saved with checkpoints, such as
// the running statistics of BatchNorm1d.
type Buffer = nn.Buffer

// Buffers returns the buffers of m, or nil if it holds none.
func Buffers(m Module) []*Buffer {
	return nn.Buffers(m)
}

// Call runs m.Forward(x) and returns a failure raised inside the module as
// an error.
func Call(m Module, x autodiff.Tensor) (autodiff.Tensor, error) {
	return nn.Call(m, x)
}

// Linear is a fully connected layer: y = x @ W + b.
type Linear = nn.Linear

// NewLinear creates a Linear layer with Kaiming-uniform weights and a bias.
//
// Example:
//
//	layer := nn.NewLinear(g, 784, 128, rng)
//	y := layer.Forward(x) // [batch, 784] → [batch, 128]
func NewLinear(g *autodiff.Graph, inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return nn.NewLinear(g, inFeatures, outFeatures, rng)
}

// NewLinearNoBias creates a Linear layer without bias.
func NewLinearNoBias(g *autodiff.Graph, inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return nn.NewLinearNoBias(g, inFeatures, outFeatures, rng)
}

// Activations and shape helpers.
type (
	ReLU     = nn.ReLU
	Identity = nn.Identity
	Flatten  = nn.Flatten
)

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU { return nn.NewReLU() }

// NewIdentity creates a module that returns its input.
func NewIdentity() *Identity { return nn.NewIdentity() }

// NewFlatten creates a module that flattens all but the first axis.
func NewFlatten() *Flatten { return nn.NewFlatten() }

// Containers.
type (
	Sequential = nn.Sequential
	Residual   = nn.Residual
)

// NewSequential chains modules in order.
func NewSequential(modules ...Module) *Sequential {
	return nn.NewSequential(modules...)
}

// NewResidual creates fn(x) + x.
func NewResidual(fn Module) *Residual {
	return nn.NewResidual(fn)
}

// Normalization.
type (
	NormConfig  = nn.NormConfig
	BatchNorm1d = nn.BatchNorm1d
	LayerNorm1d = nn.LayerNorm1d
)

// DefaultNormConfig returns Eps 1e-5 and Momentum 0.1.
func DefaultNormConfig() NormConfig { return nn.DefaultNormConfig() }

// NewBatchNorm1d normalizes each feature over the batch.
func NewBatchNorm1d(g *autodiff.Graph, dim int, cfg NormConfig) *BatchNorm1d {
	return nn.NewBatchNorm1d(g, dim, cfg)
}

// NewLayerNorm1d normalizes each sample over its features.
func NewLayerNorm1d(g *autodiff.Graph, dim int, cfg NormConfig) *LayerNorm1d {
	return nn.NewLayerNorm1d(g, dim, cfg)
}

// Dropout zeroes elements with probability p during training.
type Dropout = nn.Dropout

// NewDropout creates a Dropout layer. It panics unless 0 <= p < 1.
func NewDropout(p float32, rng *rand.Rand) *Dropout {
	return nn.NewDropout(p, rng)
}

// Losses.
type (
	SoftmaxLoss = nn.SoftmaxLoss
	MSELoss     = nn.MSELoss
)

// NewSoftmaxLoss creates a softmax cross-entropy loss.
//
// Example:
//
//	loss, err := nn.NewSoftmaxLoss().Forward(logits, []int{3, 1, 4})
func NewSoftmaxLoss() *SoftmaxLoss { return nn.NewSoftmaxLoss() }

// NewMSELoss creates a mean squared error loss.
func NewMSELoss() *MSELoss { return nn.NewMSELoss() }

// XavierUniform samples a [fanIn, fanOut] weight from U(-a, a) with
// a = gain·sqrt(6/(fanIn+fanOut)).
func XavierUniform(fanIn, fanOut int, gain float32, rng *rand.Rand) *tensor.NDArray {
	return nn.XavierUniform(fanIn, fanOut, gain, rng)
}

// XavierNormal samples N(0, gain·sqrt(2/(fanIn+fanOut))).
func XavierNormal(fanIn, fanOut int, gain float32, rng *rand.Rand) *tensor.NDArray {
	return nn.XavierNormal(fanIn, fanOut, gain, rng)
}

// KaimingUniform samples U(-sqrt(6/fanIn), sqrt(6/fanIn)).
func KaimingUniform(fanIn, fanOut int, rng *rand.Rand) *tensor.NDArray {
	return nn.KaimingUniform(fanIn, fanOut, rng)
}

// KaimingNormal samples N(0, sqrt(2/fanIn)).
func KaimingNormal(fanIn, fanOut int, rng *rand.Rand) *tensor.NDArray {
	return nn.KaimingNormal(fanIn, fanOut, rng)
}
