package optim

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/nn"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Adam combines ideas from RMSprop and momentum:
//   - Maintains exponential moving averages of gradients (first moment)
//   - Maintains exponential moving averages of squared gradients (second moment)
//   - Applies bias correction to compensate for initialization at zero
//
// Update rule:
//
//	g' = gradient + weight_decay * param
//	m_t = beta1 * m_{t-1} + (1-beta1) * g'             // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * g'²            // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// The timestep t is shared by all parameters and advances once per Step.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
//
// Example:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float32{0.9, 0.999},
//	    Eps:   1e-8,
//	})
type Adam struct {
	base
	beta1       float32
	beta2       float32
	eps         float32
	weightDecay float32
	t           int         // Timestep for bias correction
	m           [][]float32 // First moment estimates
	v           [][]float32 // Second moment estimates
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR          float32    // Learning rate (default: 0.001)
	Betas       [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps         float32    // Term for numerical stability (default: 1e-8)
	WeightDecay float32    // L2 penalty added to the gradient (default: 0.0)
}

// NewAdam creates a new Adam optimizer.
//
// Parameters:
//   - params: Model parameters to optimize
//   - config: Adam configuration (LR, Betas, Eps, WeightDecay)
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		base:        base{params: params, lr: config.LR},
		beta1:       config.Betas[0],
		beta2:       config.Betas[1],
		eps:         config.Eps,
		weightDecay: config.WeightDecay,
		m:           make([][]float32, len(params)),
		v:           make([][]float32, len(params)),
	}
}

// Step performs a single optimization step using Adam algorithm.
//
// Parameters with no gradient are skipped.
func (a *Adam) Step() error {
	a.t++
	bc1 := float32(1 - math.Pow(float64(a.beta1), float64(a.t)))
	bc2 := float32(1 - math.Pow(float64(a.beta2), float64(a.t)))

	return a.each(func(i int, p, g []float32) []float32 {
		m := state(a.m, i, len(p))
		v := state(a.v, i, len(p))
		next := make([]float32, len(p))
		for j := range p {
			grad := g[j] + a.weightDecay*p[j]
			m[j] = a.beta1*m[j] + (1-a.beta1)*grad
			v[j] = a.beta2*v[j] + (1-a.beta2)*grad*grad
			mHat := m[j] / bc1
			vHat := v[j] / bc2
			next[j] = p[j] - a.lr*mHat/(math32.Sqrt(vHat)+a.eps)
		}
		return next
	})
}

// Timestep returns the number of steps taken.
func (a *Adam) Timestep() int {
	return a.t
}

// StateDict returns the optimizer state for serialization.
//
// State keys: "m.{param_index}", "v.{param_index}" and "step" (a scalar).
func (a *Adam) StateDict() map[string]*tensor.NDArray {
	out := map[string]*tensor.NDArray{
		"step": tensor.Scalar(float32(a.t)),
	}
	for i := range a.params {
		if a.m[i] == nil {
			continue
		}
		shape := a.params[i].Shape()
		out[fmt.Sprintf("m.%d", i)] = mustNew(shape, append([]float32(nil), a.m[i]...))
		out[fmt.Sprintf("v.%d", i)] = mustNew(shape, append([]float32(nil), a.v[i]...))
	}
	return out
}

// LoadStateDict restores moments and timestep saved by StateDict.
func (a *Adam) LoadStateDict(state map[string]*tensor.NDArray) error {
	m := make([][]float32, len(a.params))
	v := make([][]float32, len(a.params))
	for i, p := range a.params {
		mi, okM := state[fmt.Sprintf("m.%d", i)]
		vi, okV := state[fmt.Sprintf("v.%d", i)]
		if okM != okV {
			return errors.Errorf("parameter %d: incomplete moment state", i)
		}
		if !okM {
			continue
		}
		if !mi.Shape().Equal(p.Shape()) || !vi.Shape().Equal(p.Shape()) {
			return errors.Wrapf(tensor.ErrShape, "moment shape mismatch for parameter %d: expected %v, got %v and %v",
				i, p.Shape(), mi.Shape(), vi.Shape())
		}
		m[i], v[i] = mi.Clone().Data(), vi.Clone().Data()
	}
	t := 0
	if step, ok := state["step"]; ok {
		t = int(step.Item())
	}
	a.m, a.v, a.t = m, v, t
	return nil
}
