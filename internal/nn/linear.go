package nn

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/autodiff/ops"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [in_features, out_features]
//   - b is the bias row with shape [1, out_features], broadcast over the batch
//   - y is the output tensor with shape [batch_size, out_features]
//
// Weights use Kaiming uniform initialization with fan-in in_features. The
// bias uses the same scheme with fan-in out_features.
//
// Example:
//
//	g := autodiff.NewGraph(autodiff.Config{})
//	layer := nn.NewLinear(g, 784, 128, rng)
//	output := layer.Forward(input) // [32, 784] -> [32, 128]
type Linear struct {
	stateless
	inFeatures  int
	outFeatures int
	weight      *Parameter // [in_features, out_features]
	bias        *Parameter // [1, out_features], nil without bias
}

// NewLinear creates a Linear layer with bias.
func NewLinear(g *autodiff.Graph, inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return newLinear(g, inFeatures, outFeatures, true, rng)
}

// NewLinearNoBias creates a Linear layer without bias.
func NewLinearNoBias(g *autodiff.Graph, inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return newLinear(g, inFeatures, outFeatures, false, rng)
}

func newLinear(g *autodiff.Graph, inFeatures, outFeatures int, bias bool, rng *rand.Rand) *Linear {
	l := &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter(g, "weight", KaimingUniform(inFeatures, outFeatures, rng)),
	}
	if bias {
		b := KaimingUniform(outFeatures, 1, rng)
		b, err := b.Reshape(tensor.Shape{1, outFeatures})
		if err != nil {
			panic(err)
		}
		l.bias = NewParameter(g, "bias", b)
	}
	return l
}

// Forward computes x @ W + b.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Linear) Forward(x autodiff.Tensor) autodiff.Tensor {
	shape := x.Shape()
	if len(shape) != 2 {
		autodiff.Raise(errors.Wrapf(autodiff.ErrShape, "Linear.Forward: expected 2D input [batch, features], got shape %v", shape))
	}
	if shape[1] != l.inFeatures {
		autodiff.Raise(errors.Wrapf(autodiff.ErrShape, "Linear.Forward: expected input with %d features, got %d", l.inFeatures, shape[1]))
	}

	out := autodiff.Must(ops.MatMul(x, l.weight.Tensor()))
	if l.bias != nil {
		b := autodiff.Must(ops.BroadcastTo(l.bias.Tensor(), tensor.Shape{shape[0], l.outFeatures}))
		out = autodiff.Must(ops.Add(out, b))
	}
	return out
}

// Parameters returns [weight, bias], or [weight] without bias.
func (l *Linear) Parameters() []*Parameter {
	if l.bias != nil {
		return []*Parameter{l.weight, l.bias}
	}
	return []*Parameter{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter, nil if the layer has none.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}
