package ops_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/autodiff/ops"
	"github.com/born-ml/lazygrad/internal/tensor"
)

const (
	gradEps  = 1e-2
	gradRtol = 1e-2
	gradAtol = 1e-2
)

type graphFunc func(in []autodiff.Tensor) (autodiff.Tensor, error)

// weightedSum evaluates f on constant copies of inputs and returns
// Σ f(inputs) * seed, accumulated in float64.
func weightedSum(t *testing.T, f graphFunc, inputs []*tensor.NDArray, seed *tensor.NDArray) float64 {
	t.Helper()
	g := autodiff.NewGraph(autodiff.Config{})
	leaves := make([]autodiff.Tensor, len(inputs))
	for i, a := range inputs {
		leaves[i] = g.Constant(a)
	}
	out, err := f(leaves)
	require.NoError(t, err)
	data, err := out.Data()
	require.NoError(t, err)
	var sum float64
	for i, v := range data.Data() {
		sum += float64(v) * float64(seed.Data()[i])
	}
	return sum
}

// checkGradients compares the analytic gradient of every input of f with a
// central finite difference, using a random seed gradient.
func checkGradients(t *testing.T, f graphFunc, inputs ...*tensor.NDArray) {
	t.Helper()
	rng := rand.New(rand.NewSource(42))

	g := autodiff.NewGraph(autodiff.Config{})
	vars := make([]autodiff.Tensor, len(inputs))
	for i, a := range inputs {
		vars[i] = g.Variable(a)
	}
	out, err := f(vars)
	require.NoError(t, err)
	seed := tensor.Rand(out.Shape(), -1, 1, rng)
	require.NoError(t, out.BackwardWith(seed))

	for i, v := range vars {
		grad, ok := v.Grad()
		require.True(t, ok, "input %d has no gradient", i)
		analytic, err := grad.Data()
		require.NoError(t, err)
		require.Equal(t, inputs[i].Shape(), analytic.Shape(), "input %d gradient shape", i)

		for j := range inputs[i].Data() {
			plus := perturb(inputs, i, j, gradEps)
			minus := perturb(inputs, i, j, -gradEps)
			numeric := (weightedSum(t, f, plus, seed) - weightedSum(t, f, minus, seed)) / (2 * gradEps)
			got := float64(analytic.Data()[j])
			tol := gradAtol + gradRtol*math.Abs(numeric)
			require.LessOrEqual(t, math.Abs(got-numeric), tol,
				"input %d element %d: analytic %v, numeric %v", i, j, got, numeric)
		}
	}
}

// perturb returns a copy of inputs with element j of input i shifted by d.
func perturb(inputs []*tensor.NDArray, i, j int, d float32) []*tensor.NDArray {
	out := make([]*tensor.NDArray, len(inputs))
	copy(out, inputs)
	c := inputs[i].Clone()
	c.Data()[j] += d
	out[i] = c
	return out
}

func randn(seed uint64, shape ...int) *tensor.NDArray {
	return tensor.Randn(tensor.Shape(shape), 0, 1, rand.New(rand.NewSource(seed)))
}

func positive(seed uint64, shape ...int) *tensor.NDArray {
	return tensor.Rand(tensor.Shape(shape), 0.5, 2, rand.New(rand.NewSource(seed)))
}

func unary(op func(autodiff.Tensor) (autodiff.Tensor, error)) graphFunc {
	return func(in []autodiff.Tensor) (autodiff.Tensor, error) { return op(in[0]) }
}

func binary(op func(a, b autodiff.Tensor) (autodiff.Tensor, error)) graphFunc {
	return func(in []autodiff.Tensor) (autodiff.Tensor, error) { return op(in[0], in[1]) }
}

func TestGradientCheck_Elementwise(t *testing.T) {
	tests := []struct {
		name   string
		f      graphFunc
		inputs []*tensor.NDArray
	}{
		{"Add", binary(ops.Add), []*tensor.NDArray{randn(1, 2, 3), randn(2, 2, 3)}},
		{"Sub", binary(ops.Sub), []*tensor.NDArray{randn(1, 4), randn(2, 4)}},
		{"Mul", binary(ops.Mul), []*tensor.NDArray{randn(1, 2, 3), randn(2, 2, 3)}},
		{"Div", binary(ops.Div), []*tensor.NDArray{randn(1, 3, 2), positive(2, 3, 2)}},
		{"Pow", binary(ops.Pow), []*tensor.NDArray{positive(1, 5), randn(2, 5)}},
		{"AddScalar", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) { return ops.AddScalar(a, 2.5) }), []*tensor.NDArray{randn(3, 4)}},
		{"MulScalar", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) { return ops.MulScalar(a, -1.5) }), []*tensor.NDArray{randn(3, 4)}},
		{"DivScalar", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) { return ops.DivScalar(a, 4) }), []*tensor.NDArray{randn(3, 4)}},
		{"PowerScalar", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) { return ops.PowerScalar(a, 3) }), []*tensor.NDArray{randn(3, 2, 2)}},
		{"PowerScalarFractional", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) { return ops.PowerScalar(a, 0.5) }), []*tensor.NDArray{positive(3, 4)}},
		{"Negate", unary(ops.Negate), []*tensor.NDArray{randn(4, 3)}},
		{"Log", unary(ops.Log), []*tensor.NDArray{positive(4, 3, 2)}},
		{"Exp", unary(ops.Exp), []*tensor.NDArray{randn(4, 3, 2)}},
		{"ReLU", unary(ops.ReLU), []*tensor.NDArray{tensor.MustFromSlice([]float32{-1.5, 0.7, 2, -0.3, 0.4, -2}, tensor.Shape{2, 3})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkGradients(t, tt.f, tt.inputs...)
		})
	}
}

func TestGradientCheck_Shape(t *testing.T) {
	tests := []struct {
		name   string
		f      graphFunc
		inputs []*tensor.NDArray
	}{
		{"TransposeDefault", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) { return ops.Transpose(a) }), []*tensor.NDArray{randn(5, 2, 3, 4)}},
		{"TransposeAxes", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) { return ops.Transpose(a, 0, 2) }), []*tensor.NDArray{randn(5, 2, 3, 4)}},
		{"Reshape", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) { return ops.Reshape(a, tensor.Shape{6, -1}) }), []*tensor.NDArray{randn(6, 2, 3, 4)}},
		{"BroadcastToLeading", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) {
			return ops.BroadcastTo(a, tensor.Shape{2, 3, 4})
		}), []*tensor.NDArray{randn(7, 4)}},
		{"BroadcastToSizeOne", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) {
			return ops.BroadcastTo(a, tensor.Shape{2, 3, 4})
		}), []*tensor.NDArray{randn(7, 3, 1)}},
		{"SummationAxis", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) { return ops.Summation(a, 1) }), []*tensor.NDArray{randn(8, 2, 3, 4)}},
		{"SummationAxes", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) { return ops.Summation(a, 0, -1) }), []*tensor.NDArray{randn(8, 2, 3, 4)}},
		{"SummationAll", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) { return ops.Summation(a) }), []*tensor.NDArray{randn(8, 2, 3)}},
		{"Mean", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) { return ops.Mean(a, 0) }), []*tensor.NDArray{randn(9, 4, 3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkGradients(t, tt.f, tt.inputs...)
		})
	}
}

func TestGradientCheck_MatMul(t *testing.T) {
	tests := []struct {
		name string
		a, b *tensor.NDArray
	}{
		{"2D", randn(10, 3, 4), randn(11, 4, 5)},
		{"BatchedLeft", randn(10, 2, 3, 4), randn(11, 4, 5)},
		{"BatchedRight", randn(10, 3, 4), randn(11, 2, 4, 5)},
		{"BatchBroadcast", randn(10, 2, 1, 3, 4), randn(11, 3, 4, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkGradients(t, binary(ops.MatMul), tt.a, tt.b)
		})
	}
}

func TestGradientCheck_Reductions(t *testing.T) {
	tests := []struct {
		name   string
		f      graphFunc
		inputs []*tensor.NDArray
	}{
		{"LogSumExpAxis", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) { return ops.LogSumExp(a, 1) }), []*tensor.NDArray{randn(12, 3, 4)}},
		{"LogSumExpAll", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) { return ops.LogSumExp(a) }), []*tensor.NDArray{randn(12, 3, 4)}},
		{"LogSumExpAxes", unary(func(a autodiff.Tensor) (autodiff.Tensor, error) { return ops.LogSumExp(a, 0, 2) }), []*tensor.NDArray{randn(12, 2, 3, 2)}},
		{"LogSoftmax", unary(ops.LogSoftmax), []*tensor.NDArray{randn(13, 3, 5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkGradients(t, tt.f, tt.inputs...)
		})
	}
}

func TestGradientCheck_Tuples(t *testing.T) {
	tests := []struct {
		name   string
		f      graphFunc
		inputs []*tensor.NDArray
	}{
		{"MakeTupleGetItem", func(in []autodiff.Tensor) (autodiff.Tensor, error) {
			tup, err := ops.MakeTuple(in[0], in[1])
			if err != nil {
				return autodiff.Tensor{}, err
			}
			a, err := ops.TupleGetItem(tup, 0)
			if err != nil {
				return autodiff.Tensor{}, err
			}
			b, err := ops.TupleGetItem(tup, 1)
			if err != nil {
				return autodiff.Tensor{}, err
			}
			return ops.Mul(a, b)
		}, []*tensor.NDArray{randn(14, 2, 3), randn(15, 2, 3)}},
		{"SplitStack", func(in []autodiff.Tensor) (autodiff.Tensor, error) {
			parts, err := ops.Split(in[0], 1)
			if err != nil {
				return autodiff.Tensor{}, err
			}
			return ops.Stack(parts, 0)
		}, []*tensor.NDArray{randn(16, 2, 3)}},
		{"SplitItem", func(in []autodiff.Tensor) (autodiff.Tensor, error) {
			parts, err := ops.Split(in[0], 0)
			if err != nil {
				return autodiff.Tensor{}, err
			}
			first, err := ops.TupleGetItem(parts, 0)
			if err != nil {
				return autodiff.Tensor{}, err
			}
			return ops.Exp(first)
		}, []*tensor.NDArray{randn(17, 3, 2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkGradients(t, tt.f, tt.inputs...)
		})
	}
}
