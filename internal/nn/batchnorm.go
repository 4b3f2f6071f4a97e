package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/autodiff/ops"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// NormConfig configures BatchNorm1d and LayerNorm1d.
type NormConfig struct {
	Eps      float32 // added to the variance; default 1e-5
	Momentum float32 // running statistics update rate (BatchNorm1d only); default 0.1
}

// DefaultNormConfig returns the default normalization settings.
func DefaultNormConfig() NormConfig {
	return NormConfig{Eps: 1e-5, Momentum: 0.1}
}

func (c NormConfig) withDefaults() NormConfig {
	d := DefaultNormConfig()
	if c.Eps == 0 {
		c.Eps = d.Eps
	}
	if c.Momentum == 0 {
		c.Momentum = d.Momentum
	}
	return c
}

// BatchNorm1d normalizes [batch, dim] inputs over the batch axis.
//
// Formula: y = weight * (x - mean) / sqrt(var + eps) + bias
//
// In training mode mean and (biased) variance come from the batch and
// update the running statistics:
//
//	running = (1 - momentum) * running + momentum * batch_stat
//
// In eval mode the running statistics are used as constants.
type BatchNorm1d struct {
	mode
	dim         int
	cfg         NormConfig
	weight      *Parameter // [dim], ones
	bias        *Parameter // [dim], zeros
	runningMean *Buffer // [dim], zeros
	runningVar  *Buffer // [dim], ones
}

// NewBatchNorm1d creates a BatchNorm1d layer over dim features.
func NewBatchNorm1d(g *autodiff.Graph, dim int, cfg NormConfig) *BatchNorm1d {
	return &BatchNorm1d{
		dim:         dim,
		cfg:         cfg.withDefaults(),
		weight:      NewParameter(g, "weight", tensor.Ones(tensor.Shape{dim})),
		bias:        NewParameter(g, "bias", tensor.Zeros(tensor.Shape{dim})),
		runningMean: NewBuffer("running_mean", tensor.Zeros(tensor.Shape{dim})),
		runningVar:  NewBuffer("running_var", tensor.Ones(tensor.Shape{dim})),
	}
}

// Forward normalizes x of shape [batch, dim].
func (bn *BatchNorm1d) Forward(x autodiff.Tensor) autodiff.Tensor {
	shape := x.Shape()
	if len(shape) != 2 || shape[1] != bn.dim {
		autodiff.Raise(errors.Wrapf(autodiff.ErrShape, "BatchNorm1d.Forward: expected [batch, %d], got %v", bn.dim, shape))
	}
	g := x.Graph()

	var centered, std autodiff.Tensor
	if bn.Training() {
		mean := autodiff.Must(ops.Mean(x, 0))
		centered = autodiff.Must(ops.Sub(x, rowBroadcast(mean, shape)))
		variance := autodiff.Must(ops.Mean(autodiff.Must(ops.PowerScalar(centered, 2)), 0))
		bn.updateRunning(mean, variance)
		std = rowBroadcast(autodiff.Must(ops.PowerScalar(autodiff.Must(ops.AddScalar(variance, bn.cfg.Eps)), 0.5)), shape)
	} else {
		mean := g.Constant(bn.runningMean.Data())
		centered = autodiff.Must(ops.Sub(x, rowBroadcast(mean, shape)))
		std = rowBroadcast(g.Constant(bn.runningVar.Data().AddScalar(bn.cfg.Eps).Sqrt()), shape)
	}

	norm := autodiff.Must(ops.Div(centered, std))
	scaled := autodiff.Must(ops.Mul(rowBroadcast(bn.weight.Tensor(), shape), norm))
	return autodiff.Must(ops.Add(scaled, rowBroadcast(bn.bias.Tensor(), shape)))
}

func (bn *BatchNorm1d) updateRunning(mean, variance autodiff.Tensor) {
	m := bn.cfg.Momentum
	meanData, err := mean.Data()
	if err != nil {
		autodiff.Raise(err)
	}
	varData, err := variance.Data()
	if err != nil {
		autodiff.Raise(err)
	}

	rm, err := bn.runningMean.Data().MulScalar(1 - m).Add(meanData.MulScalar(m))
	if err != nil {
		autodiff.Raise(err)
	}
	rv, err := bn.runningVar.Data().MulScalar(1 - m).Add(varData.MulScalar(m))
	if err != nil {
		autodiff.Raise(err)
	}
	bn.runningMean.data, bn.runningVar.data = rm, rv
}

// Parameters returns [weight, bias].
func (bn *BatchNorm1d) Parameters() []*Parameter {
	return []*Parameter{bn.weight, bn.bias}
}

// Buffers returns [running_mean, running_var].
func (bn *BatchNorm1d) Buffers() []*Buffer {
	return []*Buffer{bn.runningMean, bn.runningVar}
}

// RunningMean returns the running mean.
func (bn *BatchNorm1d) RunningMean() *tensor.NDArray {
	return bn.runningMean.Data()
}

// RunningVar returns the running variance.
func (bn *BatchNorm1d) RunningVar() *tensor.NDArray {
	return bn.runningVar.Data()
}

// rowBroadcast expands a [dim] tensor to [batch, dim].
func rowBroadcast(v autodiff.Tensor, shape tensor.Shape) autodiff.Tensor {
	row := autodiff.Must(ops.Reshape(v, tensor.Shape{1, shape[1]}))
	return autodiff.Must(ops.BroadcastTo(row, shape))
}
