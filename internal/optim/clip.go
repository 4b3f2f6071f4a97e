package optim

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/nn"
)

// ClipGradNorm rescales the gradients of params so that their global L2
// norm is at most maxNorm.
//
// The norm is taken over all gradients as if they were one vector. When it
// exceeds maxNorm, every gradient is multiplied by maxNorm / (norm + 1e-6).
// Parameters without a gradient are ignored.
//
// Returns the norm before clipping.
func ClipGradNorm(params []*nn.Parameter, maxNorm float32) (float32, error) {
	if maxNorm <= 0 {
		return 0, errors.Errorf("ClipGradNorm: maxNorm must be positive, got %v", maxNorm)
	}

	var sq float32
	for _, p := range params {
		grad, ok := p.Grad()
		if !ok {
			continue
		}
		for _, g := range grad.Data() {
			sq += g * g
		}
	}
	norm := math32.Sqrt(sq)
	if norm <= maxNorm {
		return norm, nil
	}

	scale := maxNorm / (norm + 1e-6)
	for _, p := range params {
		grad, ok := p.Grad()
		if !ok {
			continue
		}
		if err := p.SetGrad(grad.MulScalar(scale)); err != nil {
			return norm, errors.Wrapf(err, "ClipGradNorm: parameter %q", p.Name())
		}
	}
	return norm, nil
}
