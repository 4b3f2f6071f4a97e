package optim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/autodiff/ops"
	"github.com/born-ml/lazygrad/internal/nn"
	"github.com/born-ml/lazygrad/internal/optim"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// param creates a parameter holding values with a fixed gradient.
func param(t *testing.T, g *autodiff.Graph, name string, values, grad []float32) *nn.Parameter {
	t.Helper()
	shape := tensor.Shape{len(values)}
	p := nn.NewParameter(g, name, tensor.MustFromSlice(values, shape))
	if grad != nil {
		require.NoError(t, p.SetGrad(tensor.MustFromSlice(grad, shape)))
	}
	return p
}

func TestSGD_SimpleUpdate(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	x := param(t, g, "x", []float32{2}, []float32{1})

	opt := optim.NewSGD([]*nn.Parameter{x}, optim.SGDConfig{LR: 0.1})
	require.NoError(t, opt.Step())

	// x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0
	assert.InDelta(t, 1.9, x.Data().Item(), 1e-6)
}

func TestSGD_WithMomentum(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	x := param(t, g, "x", []float32{1}, []float32{1})
	opt := optim.NewSGD([]*nn.Parameter{x}, optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	// u = 0.1 * 1, x = 1 - 0.1 * 0.1
	require.NoError(t, opt.Step())
	assert.InDelta(t, 0.99, x.Data().Item(), 1e-6)

	// u = 0.9 * 0.1 + 0.1 * 1 = 0.19, x = 0.99 - 0.019
	require.NoError(t, opt.Step())
	assert.InDelta(t, 0.971, x.Data().Item(), 1e-6)
}

func TestSGD_WeightDecay(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	x := param(t, g, "x", []float32{2, -4}, []float32{0, 0})
	opt := optim.NewSGD([]*nn.Parameter{x}, optim.SGDConfig{LR: 0.1, WeightDecay: 0.5})

	require.NoError(t, opt.Step())
	assert.InDeltaSlice(t, []float32{1.9, -3.8}, x.Data().Data(), 1e-6)
}

func TestSGD_SkipsParametersWithoutGrad(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	x := param(t, g, "x", []float32{1}, []float32{1})
	y := param(t, g, "y", []float32{5}, nil)

	opt := optim.NewSGD([]*nn.Parameter{x, y}, optim.SGDConfig{})
	assert.InDelta(t, 0.01, opt.LR(), 1e-9)
	require.NoError(t, opt.Step())
	assert.InDelta(t, 0.99, x.Data().Item(), 1e-6)
	assert.Equal(t, float32(5), y.Data().Item())

	opt.ResetGrad()
	_, ok := x.Grad()
	assert.False(t, ok)
}

func TestSGD_StateDict(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	x := param(t, g, "x", []float32{1, 2}, []float32{1, -1})
	opt := optim.NewSGD([]*nn.Parameter{x}, optim.SGDConfig{LR: 0.1, Momentum: 0.5})
	require.NoError(t, opt.Step())

	state := opt.StateDict()
	require.Contains(t, state, "velocity.0")
	assert.InDeltaSlice(t, []float32{0.5, -0.5}, state["velocity.0"].Data(), 1e-6)

	y := param(t, g, "y", []float32{1, 2}, []float32{1, -1})
	restored := optim.NewSGD([]*nn.Parameter{y}, optim.SGDConfig{LR: 0.1, Momentum: 0.5})
	require.NoError(t, restored.LoadStateDict(state))

	require.NoError(t, opt.Step())
	require.NoError(t, restored.Step())
	// Both continue from the same momentum buffer: u = 0.75 * grad.
	assert.InDeltaSlice(t, []float32{0.875, 2.125}, x.Data().Data(), 1e-6)
	assert.InDeltaSlice(t, []float32{0.925, 2.075}, y.Data().Data(), 1e-6)

	bad := map[string]*tensor.NDArray{"velocity.0": tensor.Zeros(tensor.Shape{3})}
	assert.ErrorIs(t, restored.LoadStateDict(bad), tensor.ErrShape)
}

func TestAdam_BiasCorrectedSteps(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	x := param(t, g, "x", []float32{1, 1}, []float32{2, -0.5})
	opt := optim.NewAdam([]*nn.Parameter{x}, optim.AdamConfig{LR: 0.1})

	// With a constant gradient m_hat = g and v_hat = g², so every step moves
	// each element by lr * sign(g).
	require.NoError(t, opt.Step())
	assert.InDeltaSlice(t, []float32{0.9, 1.1}, x.Data().Data(), 1e-5)
	require.NoError(t, opt.Step())
	assert.InDeltaSlice(t, []float32{0.8, 1.2}, x.Data().Data(), 1e-5)
	assert.Equal(t, 2, opt.Timestep())
}

func TestAdam_WeightDecayAndBetas(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	x := param(t, g, "x", []float32{1}, []float32{0})
	opt := optim.NewAdam([]*nn.Parameter{x}, optim.AdamConfig{
		LR:          0.1,
		Betas:       [2]float32{0.5, 0.75},
		WeightDecay: 0.5,
	})

	// g' = 0.5 * 1; m = 0.25, v = 0.0625; m_hat = 0.5, v_hat = 0.25.
	require.NoError(t, opt.Step())
	assert.InDelta(t, 0.9, x.Data().Item(), 1e-6)

	// g' = 0.45; m = 0.35, v = 0.0975; m_hat = 0.35/0.75, v_hat = 0.0975/0.4375.
	require.NoError(t, opt.Step())
	assert.InDelta(t, 0.801146, x.Data().Item(), 1e-5)

	state := opt.StateDict()
	assert.InDelta(t, 0.35, state["m.0"].Item(), 1e-6)
	assert.InDelta(t, 0.0975, state["v.0"].Item(), 1e-6)
}

func TestAdam_DefaultsAndLR(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	x := param(t, g, "x", []float32{0}, []float32{1})
	opt := optim.NewAdam([]*nn.Parameter{x}, optim.AdamConfig{})
	assert.InDelta(t, 0.001, opt.LR(), 1e-9)

	opt.SetLR(0.5)
	require.NoError(t, opt.Step())
	assert.InDelta(t, -0.5, x.Data().Item(), 1e-5)
}

func TestAdam_StateDict(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	x := param(t, g, "x", []float32{1}, []float32{3})
	opt := optim.NewAdam([]*nn.Parameter{x}, optim.AdamConfig{LR: 0.1})
	require.NoError(t, opt.Step())

	state := opt.StateDict()
	assert.Equal(t, float32(1), state["step"].Item())
	assert.InDelta(t, 0.3, state["m.0"].Item(), 1e-6)

	y := param(t, g, "y", []float32{1}, nil)
	restored := optim.NewAdam([]*nn.Parameter{y}, optim.AdamConfig{LR: 0.1})
	require.NoError(t, restored.LoadStateDict(state))
	assert.Equal(t, 1, restored.Timestep())

	delete(state, "v.0")
	assert.Error(t, restored.LoadStateDict(state))
}

func TestClipGradNorm(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	a := param(t, g, "a", []float32{0}, []float32{3})
	b := param(t, g, "b", []float32{0}, []float32{4})
	c := param(t, g, "c", []float32{0}, nil)
	params := []*nn.Parameter{a, b, c}

	norm, err := optim.ClipGradNorm(params, 10)
	require.NoError(t, err)
	assert.InDelta(t, 5, norm, 1e-6)
	ga, _ := a.Grad()
	assert.Equal(t, float32(3), ga.Item())

	norm, err = optim.ClipGradNorm(params, 1)
	require.NoError(t, err)
	assert.InDelta(t, 5, norm, 1e-6)
	ga, _ = a.Grad()
	gb, _ := b.Grad()
	assert.InDelta(t, 0.6, ga.Item(), 1e-5)
	assert.InDelta(t, 0.8, gb.Item(), 1e-5)

	_, err = optim.ClipGradNorm(params, 0)
	assert.Error(t, err)
}

func TestSGD_MinimizesQuadratic(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	x := nn.NewParameter(g, "x", tensor.MustFromSlice([]float32{0, 10}, tensor.Shape{2}))
	target := tensor.MustFromSlice([]float32{3, -1}, tensor.Shape{2})
	opt := optim.NewSGD([]*nn.Parameter{x}, optim.SGDConfig{LR: 0.1, Momentum: 0.5})

	mark := g.Mark()
	for range 200 {
		diff, err := ops.Sub(x.Tensor(), g.Constant(target))
		require.NoError(t, err)
		sq, err := ops.PowerScalar(diff, 2)
		require.NoError(t, err)
		loss, err := ops.Summation(sq)
		require.NoError(t, err)
		require.NoError(t, loss.Backward())
		require.NoError(t, opt.Step())
		opt.ResetGrad()
		g.Release(mark)
	}

	assert.Equal(t, mark, g.Mark())
	assert.True(t, x.Data().AllClose(target, 1e-3, 1e-3), "x = %v", x.Data())
}
