package optim

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/nn"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// SGD implements Stochastic Gradient Descent with momentum and weight decay.
//
// Update rule:
//
//	g' = gradient + weight_decay * param
//	u  = momentum * u + (1 - momentum) * g'
//	param = param - lr * u
//
// The momentum buffer u starts at zero. With Momentum 0 this is plain
// gradient descent on the decayed gradient.
//
// Example:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
//
//	for _, batch := range batches {
//	    loss := trainStep(model, batch)
//	    _ = loss.Backward()
//	    _ = optimizer.Step()
//	    optimizer.ResetGrad()
//	}
type SGD struct {
	base
	momentum    float32
	weightDecay float32
	velocities  [][]float32
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR          float32 // Learning rate (default: 0.01)
	Momentum    float32 // Momentum factor (default: 0.0, range: [0, 1))
	WeightDecay float32 // L2 penalty added to the gradient (default: 0.0)
}

// NewSGD creates a new SGD optimizer.
//
// Parameters:
//   - params: Model parameters to optimize
//   - config: SGD configuration (LR, Momentum, WeightDecay)
//
// Returns a new SGD optimizer.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD{
		base:        base{params: params, lr: config.LR},
		momentum:    config.Momentum,
		weightDecay: config.WeightDecay,
		velocities:  make([][]float32, len(params)),
	}
}

// Step performs a single optimization step.
//
// Parameters with no gradient (not reached by the last backward pass) are
// skipped and keep their momentum buffer unchanged.
func (s *SGD) Step() error {
	return s.each(func(i int, p, g []float32) []float32 {
		u := state(s.velocities, i, len(p))
		next := make([]float32, len(p))
		for j := range p {
			grad := g[j] + s.weightDecay*p[j]
			u[j] = s.momentum*u[j] + (1-s.momentum)*grad
			next[j] = p[j] - s.lr*u[j]
		}
		return next
	})
}

// StateDict returns the optimizer state for serialization.
//
// State keys: "velocity.{param_index}" -> momentum buffer with the
// parameter's shape. Parameters that were never updated have no entry.
func (s *SGD) StateDict() map[string]*tensor.NDArray {
	out := make(map[string]*tensor.NDArray)
	for i, u := range s.velocities {
		if u == nil {
			continue
		}
		buf := make([]float32, len(u))
		copy(buf, u)
		out[fmt.Sprintf("velocity.%d", i)] = mustNew(s.params[i].Shape(), buf)
	}
	return out
}

// LoadStateDict restores momentum buffers saved by StateDict.
//
// Returns an error if a buffer's shape does not match its parameter.
func (s *SGD) LoadStateDict(state map[string]*tensor.NDArray) error {
	velocities := make([][]float32, len(s.params))
	for i, p := range s.params {
		a, ok := state[fmt.Sprintf("velocity.%d", i)]
		if !ok {
			continue
		}
		if !a.Shape().Equal(p.Shape()) {
			return errors.Wrapf(tensor.ErrShape, "velocity shape mismatch for parameter %d: expected %v, got %v",
				i, p.Shape(), a.Shape())
		}
		velocities[i] = a.Clone().Data()
	}
	s.velocities = velocities
	return nil
}

func mustNew(shape tensor.Shape, data []float32) *tensor.NDArray {
	a, err := tensor.New(shape, data)
	if err != nil {
		panic(err)
	}
	return a
}
