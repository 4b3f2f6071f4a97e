package train

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/tensor"
)

// SoftmaxRegressionEpoch runs one epoch of minibatch SGD for linear softmax
// regression directly on arrays, without the graph. It is the baseline the
// graph-based models are compared against.
//
// Parameters:
//   - x: inputs with shape [m, n]
//   - y: class labels, len(y) == m
//   - theta: weights with shape [n, k]
//   - lr: step size
//   - batch: minibatch size
//
// For each minibatch Xb with one-hot labels Iy:
//
//	Z = softmax(Xb @ theta)
//	theta -= lr / batch * Xbᵀ @ (Z - Iy)
//
// The step is divided by the nominal batch size, also for a shorter final
// batch. Returns the updated weights; theta is not modified.
func SoftmaxRegressionEpoch(x *tensor.NDArray, y []int, theta *tensor.NDArray, lr float32, batch int) (*tensor.NDArray, error) {
	xs, ts := x.Shape(), theta.Shape()
	if len(xs) != 2 || len(ts) != 2 || xs[1] != ts[0] || xs[0] != len(y) {
		return nil, errors.Wrapf(tensor.ErrShape, "SoftmaxRegressionEpoch: x %v, theta %v, %d labels", xs, ts, len(y))
	}
	if batch <= 0 {
		return nil, errors.Errorf("SoftmaxRegressionEpoch: batch size must be positive, got %d", batch)
	}
	m, n, k := xs[0], xs[1], ts[1]
	for _, label := range y {
		if label < 0 || label >= k {
			return nil, errors.Wrapf(tensor.ErrShape, "SoftmaxRegressionEpoch: label %d outside [0, %d)", label, k)
		}
	}

	theta = theta.Clone()
	for start := 0; start < m; start += batch {
		end := min(start+batch, m)
		xb, err := tensor.New(tensor.Shape{end - start, n}, x.Data()[start*n:end*n])
		if err != nil {
			return nil, err
		}
		z, err := xb.MatMul(theta)
		if err != nil {
			return nil, err
		}
		softmaxMinusOneHot(z.Data(), y[start:end], k)

		xt, err := xb.SwapAxes(0, 1)
		if err != nil {
			return nil, err
		}
		grad, err := xt.MatMul(z)
		if err != nil {
			return nil, err
		}
		if theta, err = theta.Sub(grad.MulScalar(lr / float32(batch))); err != nil {
			return nil, err
		}
	}
	return theta, nil
}

// softmaxMinusOneHot replaces each row of z ([rows, k], row-major) with
// softmax(row) - onehot(label).
func softmaxMinusOneHot(z []float32, labels []int, k int) {
	for i, label := range labels {
		row := z[i*k : (i+1)*k]
		peak := row[0]
		for _, v := range row[1:] {
			peak = max(peak, v)
		}
		var sum float32
		for j, v := range row {
			row[j] = math32.Exp(v - peak)
			sum += row[j]
		}
		for j := range row {
			row[j] /= sum
		}
		if label >= 0 && label < k {
			row[label]--
		}
	}
}

// LossErr returns the mean softmax loss and the error rate of logits h
// ([m, k]) against labels y.
func LossErr(h *tensor.NDArray, y []int) (loss, errRate float32, err error) {
	shape := h.Shape()
	if len(shape) != 2 || shape[0] != len(y) || shape[0] == 0 {
		return 0, 0, errors.Wrapf(tensor.ErrShape, "LossErr: logits %v for %d labels", shape, len(y))
	}
	k := shape[1]
	var total float32
	wrong := 0
	for i, label := range y {
		if label < 0 || label >= k {
			return 0, 0, errors.Wrapf(tensor.ErrShape, "LossErr: label %d outside [0, %d)", label, k)
		}
		row := h.Data()[i*k : (i+1)*k]
		peak, best := row[0], 0
		for j, v := range row {
			if v > peak {
				peak, best = v, j
			}
		}
		var sum float32
		for _, v := range row {
			sum += math32.Exp(v - peak)
		}
		total += peak + math32.Log(sum) - row[label]
		if best != label {
			wrong++
		}
	}
	m := float32(len(y))
	return total / m, float32(wrong) / m, nil
}
