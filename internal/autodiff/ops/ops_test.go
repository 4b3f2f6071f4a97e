package ops_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/autodiff/ops"
	"github.com/born-ml/lazygrad/internal/tensor"
)

func newGraph() *autodiff.Graph {
	return autodiff.NewGraph(autodiff.Config{})
}

func data(t *testing.T, x autodiff.Tensor) *tensor.NDArray {
	t.Helper()
	a, err := x.Data()
	require.NoError(t, err)
	return a
}

func grad(t *testing.T, x autodiff.Tensor) *tensor.NDArray {
	t.Helper()
	g, ok := x.Grad()
	require.True(t, ok, "missing gradient")
	return data(t, g)
}

func TestLogSumExp_Stable(t *testing.T) {
	g := newGraph()
	x := g.Variable(tensor.MustFromSlice([]float32{1000, 1000}, tensor.Shape{2}))

	y, err := ops.LogSumExp(x)
	require.NoError(t, err)
	got := data(t, y)
	assert.Equal(t, tensor.Shape{}, got.Shape())
	assert.False(t, math.IsNaN(float64(got.Item())))
	assert.False(t, math.IsInf(float64(got.Item()), 0))
	assert.InDelta(t, 1000+math.Log(2), float64(got.Item()), 1e-3)

	require.NoError(t, y.Backward())
	assert.True(t, grad(t, x).AllClose(tensor.Full(tensor.Shape{2}, 0.5), 1e-4, 1e-4))
}

func TestLogSumExp_InfiniteMax(t *testing.T) {
	g := newGraph()
	inf := float32(math.Inf(-1))
	x := g.Constant(tensor.MustFromSlice([]float32{inf, inf, 0, 0}, tensor.Shape{2, 2}))

	y, err := ops.LogSumExp(x, 1)
	require.NoError(t, err)
	got := data(t, y)
	assert.True(t, math.IsInf(float64(got.Data()[0]), -1))
	assert.InDelta(t, math.Log(2), float64(got.Data()[1]), 1e-6)
}

func TestLogSoftmax_RowsNormalize(t *testing.T) {
	g := newGraph()
	x := g.Constant(tensor.MustFromSlice([]float32{1, 2, 3, -5, 0, 500}, tensor.Shape{2, 3}))
	y, err := ops.LogSoftmax(x)
	require.NoError(t, err)

	probs := data(t, y).Exp()
	sums, err := probs.Sum([]int{1}, false)
	require.NoError(t, err)
	assert.True(t, sums.AllClose(tensor.Ones(tensor.Shape{2}), 1e-5, 1e-5))
}

func TestMatMul_BatchedGradientShape(t *testing.T) {
	g := newGraph()
	a := g.Variable(randn(20, 2, 3, 4))
	b := g.Variable(randn(21, 4, 5))

	c, err := ops.MatMul(a, b)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3, 5}, c.Shape())

	loss, err := ops.Summation(c)
	require.NoError(t, err)
	require.NoError(t, loss.Backward())

	assert.Equal(t, tensor.Shape{2, 3, 4}, grad(t, a).Shape())
	gb := grad(t, b)
	require.Equal(t, tensor.Shape{4, 5}, gb.Shape())

	// d(Σ A@B)/dB[k][n] = Σ over batch and rows of A[..., k]
	colSums, err := data(t, a).Sum([]int{0, 1}, false)
	require.NoError(t, err)
	want, err := colSums.Reshape(tensor.Shape{4, 1})
	require.NoError(t, err)
	want, err = want.BroadcastTo(tensor.Shape{4, 5})
	require.NoError(t, err)
	assert.True(t, gb.AllClose(want, 1e-5, 1e-5))
}

func TestReshape_RoundTrip(t *testing.T) {
	g := newGraph()
	orig := randn(22, 2, 3, 4)
	x := g.Constant(orig)

	y := autodiff.Must(ops.Reshape(x, tensor.Shape{4, -1}))
	assert.Equal(t, tensor.Shape{4, 6}, y.Shape())
	z := autodiff.Must(ops.Reshape(y, tensor.Shape{2, 3, 4}))

	assert.True(t, data(t, z).AllClose(orig, 0, 0))
}

func TestBroadcastSum_Identity(t *testing.T) {
	g := newGraph()
	x := g.Variable(tensor.MustFromSlice([]float32{1, 2, 3}, tensor.Shape{3, 1}))

	same := autodiff.Must(ops.BroadcastTo(x, tensor.Shape{3, 1}))
	seed := tensor.MustFromSlice([]float32{0.25, -7, 3.5}, tensor.Shape{3, 1})
	require.NoError(t, same.BackwardWith(seed))
	assert.Equal(t, seed.Data(), grad(t, x).Data())
	assert.Equal(t, tensor.Shape{3, 1}, grad(t, x).Shape())

	wide := autodiff.Must(ops.BroadcastTo(x, tensor.Shape{2, 3, 4}))
	require.NoError(t, wide.Backward())
	gx := grad(t, x)
	assert.Equal(t, tensor.Shape{3, 1}, gx.Shape())
	assert.Equal(t, []float32{8, 8, 8}, gx.Data())
}

func TestSummation_GradientShape(t *testing.T) {
	g := newGraph()
	x := g.Variable(randn(23, 2, 3, 4))
	s := autodiff.Must(ops.Summation(x, 1))
	assert.Equal(t, tensor.Shape{2, 4}, s.Shape())

	require.NoError(t, s.Backward())
	assert.True(t, grad(t, x).AllClose(tensor.Ones(tensor.Shape{2, 3, 4}), 0, 0))
}

func TestArgmax(t *testing.T) {
	g := newGraph()
	x := g.Variable(tensor.MustFromSlice([]float32{0.1, 0.9, 0.3, 0.8, 0.2, 0.1}, tensor.Shape{2, 3}))

	idx, err := ops.Argmax(x, -1)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, data(t, idx).Data())

	loss := autodiff.Must(ops.Summation(idx))
	err = loss.Backward()
	assert.ErrorIs(t, err, autodiff.ErrNotImplemented)
}

func TestTupleGetItem_GradientIsSparse(t *testing.T) {
	g := newGraph()
	x := g.Variable(tensor.MustFromSlice([]float32{1, 2}, tensor.Shape{2}))
	y := g.Variable(tensor.MustFromSlice([]float32{3, 4, 5}, tensor.Shape{3}))

	tup := autodiff.Must(ops.MakeTuple(x, y))
	assert.True(t, tup.IsTuple())
	assert.Equal(t, 2, tup.Len())

	first := autodiff.Must(ops.TupleGetItem(tup, 0))
	loss := autodiff.Must(ops.Summation(autodiff.Must(ops.Mul(first, first))))
	require.NoError(t, loss.Backward())

	assert.Equal(t, []float32{2, 4}, grad(t, x).Data())
	assert.Equal(t, []float32{0, 0, 0}, grad(t, y).Data())

	gt, ok := tup.Grad()
	require.True(t, ok)
	items, err := gt.Items()
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestTuple_Errors(t *testing.T) {
	g := newGraph()
	x := g.Variable(tensor.Zeros(tensor.Shape{2, 3}))
	tup := autodiff.Must(ops.MakeTuple(x))

	_, err := ops.TupleGetItem(tup, 1)
	assert.ErrorIs(t, err, tensor.ErrAxis)
	_, err = ops.TupleGetItem(x, 0)
	assert.ErrorIs(t, err, autodiff.ErrType)
	_, err = ops.Stack(x, 0)
	assert.ErrorIs(t, err, autodiff.ErrType)

	mixed := autodiff.Must(ops.MakeTuple(x, g.Variable(tensor.Zeros(tensor.Shape{3}))))
	_, err = ops.Stack(mixed, 0)
	assert.ErrorIs(t, err, autodiff.ErrShape)
}

func TestSplitStack_Values(t *testing.T) {
	g := newGraph()
	x := g.Constant(tensor.MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}))

	parts := autodiff.Must(ops.Split(x, 1))
	assert.Equal(t, 3, parts.Len())
	col := autodiff.Must(ops.TupleGetItem(parts, 2))
	assert.Equal(t, []float32{3, 6}, data(t, col).Data())

	back := autodiff.Must(ops.Stack(parts, 1))
	assert.True(t, data(t, back).AllClose(data(t, x), 0, 0))
}

func TestElementwise_ShapeMismatch(t *testing.T) {
	g := newGraph()
	a := g.Variable(tensor.Zeros(tensor.Shape{2, 3}))
	b := g.Variable(tensor.Zeros(tensor.Shape{3}))

	for name, f := range map[string]func(a, b autodiff.Tensor) (autodiff.Tensor, error){
		"Add": ops.Add, "Mul": ops.Mul, "Div": ops.Div, "Pow": ops.Pow, "Sub": ops.Sub,
	} {
		_, err := f(a, b)
		assert.ErrorIs(t, err, autodiff.ErrShape, name)
	}

	_, err := ops.BroadcastTo(a, tensor.Shape{3, 3})
	assert.ErrorIs(t, err, autodiff.ErrShape)
	_, err = ops.Summation(a, 2)
	assert.ErrorIs(t, err, tensor.ErrAxis)
	_, err = ops.Transpose(b)
	assert.ErrorIs(t, err, tensor.ErrAxis)
}

func TestReLU_UsesForwardMask(t *testing.T) {
	g := newGraph()
	x := g.Variable(tensor.MustFromSlice([]float32{-1, 0, 2}, tensor.Shape{3}))
	y := autodiff.Must(ops.ReLU(x))
	assert.Equal(t, []float32{0, 0, 2}, data(t, y).Data())

	require.NoError(t, y.Backward())
	assert.Equal(t, []float32{0, 0, 1}, grad(t, x).Data())
}

func TestFlatten(t *testing.T) {
	g := newGraph()
	x := g.Constant(tensor.Zeros(tensor.Shape{4, 2, 3}))
	y, err := ops.Flatten(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 6}, y.Shape())
}

func TestMean(t *testing.T) {
	g := newGraph()
	x := g.Variable(tensor.MustFromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}))
	m := autodiff.Must(ops.Mean(x))
	assert.Equal(t, float32(2.5), data(t, m).Item())

	require.NoError(t, m.Backward())
	assert.Equal(t, []float32{0.25, 0.25, 0.25, 0.25}, grad(t, x).Data())
}
