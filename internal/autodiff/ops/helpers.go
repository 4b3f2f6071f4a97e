package ops

import (
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// reduceTo sums grad down to shape, undoing a broadcast from shape to
// grad's shape.
//
// Summed axes are the leading axes grad has in excess plus every axis where
// shape has size 1 and grad does not. The result is reshaped to shape so
// the kept size-1 axes reappear.
//
// Example:
//
//	Forward: a[3,1] broadcast to [2,3,4]
//	Backward: grad[2,3,4] -> sum over {0, 2} -> [3] -> reshape [3,1]
func reduceTo(grad autodiff.Tensor, shape tensor.Shape) (autodiff.Tensor, error) {
	gs := grad.Shape()
	if gs.Equal(shape) {
		return grad, nil
	}
	diff := len(gs) - len(shape)
	if diff < 0 {
		return autodiff.Tensor{}, errors.Wrapf(autodiff.ErrShape, "cannot reduce %v to higher-rank %v", gs, shape)
	}

	axes := broadcastAxes(gs, shape)
	out := grad
	if len(axes) > 0 {
		var err error
		if out, err = Summation(out, axes...); err != nil {
			return autodiff.Tensor{}, err
		}
	}
	return Reshape(out, shape)
}

// broadcastAxes lists the axes of out that a broadcast from in expanded.
func broadcastAxes(out, in tensor.Shape) []int {
	diff := len(out) - len(in)
	var axes []int
	for i := range out {
		if i < diff || (in[i-diff] == 1 && out[i] != 1) {
			axes = append(axes, i)
		}
	}
	return axes
}

// keepDimsShape is shape with every axis in axes (normalized) set to 1.
func keepDimsShape(shape tensor.Shape, axes []int) tensor.Shape {
	return tensor.ReduceShape(shape, axes, true)
}

// normAxes normalizes reduction axes against rank; nil selects every axis.
func normAxes(axes []int, rank int) ([]int, error) {
	return tensor.NormalizeAxes(axes, rank)
}

// expand broadcasts a reduced gradient back over the reduced axes of shape.
func expand(t autodiff.Tensor, shape tensor.Shape, axes []int) (autodiff.Tensor, error) {
	r, err := Reshape(t, keepDimsShape(shape, axes))
	if err != nil {
		return autodiff.Tensor{}, err
	}
	return BroadcastTo(r, shape)
}
