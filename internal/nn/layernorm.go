package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/autodiff/ops"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// LayerNorm1d applies Layer Normalization to [batch, dim] inputs along the
// feature axis.
//
// Formula: Y = weight * (X - mean(X)) / sqrt(var(X) + eps) + bias
//
// Where mean and (biased) variance are computed per row, weight is
// initialized to ones and bias to zeros.
type LayerNorm1d struct {
	stateless
	dim    int
	eps    float32
	weight *Parameter // [dim]
	bias   *Parameter // [dim]
}

// NewLayerNorm1d creates a LayerNorm1d layer over dim features. Only
// cfg.Eps is used.
func NewLayerNorm1d(g *autodiff.Graph, dim int, cfg NormConfig) *LayerNorm1d {
	return &LayerNorm1d{
		dim:    dim,
		eps:    cfg.withDefaults().Eps,
		weight: NewParameter(g, "weight", tensor.Ones(tensor.Shape{dim})),
		bias:   NewParameter(g, "bias", tensor.Zeros(tensor.Shape{dim})),
	}
}

// Forward normalizes each row of x.
func (ln *LayerNorm1d) Forward(x autodiff.Tensor) autodiff.Tensor {
	shape := x.Shape()
	if len(shape) != 2 || shape[1] != ln.dim {
		autodiff.Raise(errors.Wrapf(autodiff.ErrShape, "LayerNorm1d.Forward: expected [batch, %d], got %v", ln.dim, shape))
	}

	mean := colBroadcast(autodiff.Must(ops.Mean(x, 1)), shape)
	centered := autodiff.Must(ops.Sub(x, mean))
	variance := autodiff.Must(ops.Mean(autodiff.Must(ops.PowerScalar(centered, 2)), 1))
	std := autodiff.Must(ops.PowerScalar(autodiff.Must(ops.AddScalar(variance, ln.eps)), 0.5))
	norm := autodiff.Must(ops.Div(centered, colBroadcast(std, shape)))

	scaled := autodiff.Must(ops.Mul(rowBroadcast(ln.weight.Tensor(), shape), norm))
	return autodiff.Must(ops.Add(scaled, rowBroadcast(ln.bias.Tensor(), shape)))
}

// Parameters returns [weight, bias].
func (ln *LayerNorm1d) Parameters() []*Parameter {
	return []*Parameter{ln.weight, ln.bias}
}

// colBroadcast expands a [batch] tensor to [batch, dim].
func colBroadcast(v autodiff.Tensor, shape tensor.Shape) autodiff.Tensor {
	col := autodiff.Must(ops.Reshape(v, tensor.Shape{shape[0], 1}))
	return autodiff.Must(ops.BroadcastTo(col, shape))
}
