package nn

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/autodiff/ops"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// Dropout zeroes each element with probability p during training and
// scales the survivors by 1/(1-p), so eval mode is the identity.
type Dropout struct {
	mode
	p   float32
	rng *rand.Rand
}

// NewDropout creates a Dropout layer. The mask is drawn from rng.
func NewDropout(p float32, rng *rand.Rand) *Dropout {
	if p < 0 || p >= 1 {
		panic(errors.Errorf("dropout probability %v outside [0, 1)", p))
	}
	return &Dropout{p: p, rng: rng}
}

// Forward applies the dropout mask in training mode.
func (d *Dropout) Forward(x autodiff.Tensor) autodiff.Tensor {
	if !d.Training() || d.p == 0 {
		return x
	}
	keep := 1 - d.p
	mask := tensor.Bernoulli(x.Shape(), keep, d.rng).DivScalar(keep)
	return autodiff.Must(ops.Mul(x, x.Graph().Constant(mask)))
}

// Parameters returns nil.
func (d *Dropout) Parameters() []*Parameter {
	return nil
}
