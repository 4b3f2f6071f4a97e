package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/autodiff/ops"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// SoftmaxLoss computes the mean softmax cross-entropy of logits against
// integer class labels.
//
// Loss = mean over the batch of (logsumexp(z) - z[y])
//
// The log-sum-exp is the numerically stable LogSumExp operator, so large
// logits do not overflow.
//
// Example:
//
//	loss, err := nn.NewSoftmaxLoss().Forward(logits, labels)
type SoftmaxLoss struct{}

// NewSoftmaxLoss creates a new softmax cross-entropy loss.
func NewSoftmaxLoss() *SoftmaxLoss {
	return &SoftmaxLoss{}
}

// Forward computes the loss.
//
// Parameters:
//   - logits: unnormalized scores with shape [batch_size, classes]
//   - labels: class index per sample in [0, classes), len(labels) == batch_size
//
// Returns a scalar loss (shape []). A label out of range is a shape error.
func (s *SoftmaxLoss) Forward(logits autodiff.Tensor, labels []int) (loss autodiff.Tensor, err error) {
	defer autodiff.Guard(&err)
	if err := logits.Err(); err != nil {
		return autodiff.Tensor{}, err
	}
	shape := logits.Shape()
	if len(shape) != 2 || shape[0] != len(labels) {
		return autodiff.Tensor{}, errors.Wrapf(autodiff.ErrShape,
			"SoftmaxLoss: logits %v do not match %d labels", shape, len(labels))
	}
	batch, classes := shape[0], shape[1]
	for i, y := range labels {
		if y < 0 || y >= classes {
			return autodiff.Tensor{}, errors.Wrapf(autodiff.ErrShape,
				"SoftmaxLoss: label %d at index %d outside [0, %d)", y, i, classes)
		}
	}

	onehot := logits.Graph().Constant(tensor.OneHot(labels, classes))
	lse := autodiff.Must(ops.LogSumExp(logits, 1))
	picked := autodiff.Must(ops.Summation(autodiff.Must(ops.Mul(logits, onehot)), 1))
	total := autodiff.Must(ops.Summation(autodiff.Must(ops.Sub(lse, picked))))
	return ops.DivScalar(total, float32(batch))
}

// MSELoss computes Mean Squared Error loss.
//
// Loss = mean((predictions - targets)²)
type MSELoss struct{}

// NewMSELoss creates a new MSE loss function.
func NewMSELoss() *MSELoss {
	return &MSELoss{}
}

// Forward computes the MSE loss. Shapes must match; the result is a scalar.
func (m *MSELoss) Forward(predictions, targets autodiff.Tensor) (loss autodiff.Tensor, err error) {
	defer autodiff.Guard(&err)
	diff := autodiff.Must(ops.Sub(predictions, targets))
	return ops.Mean(autodiff.Must(ops.PowerScalar(diff, 2)))
}

// Labels converts class indices stored as float32 (as produced by the data
// loader) to ints.
func Labels(y *tensor.NDArray) []int {
	out := make([]int, y.Len())
	for i, v := range y.Data() {
		out[i] = int(v)
	}
	return out
}
