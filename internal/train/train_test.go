package train_test

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/data"
	"github.com/born-ml/lazygrad/internal/nn"
	"github.com/born-ml/lazygrad/internal/optim"
	"github.com/born-ml/lazygrad/internal/serialization"
	"github.com/born-ml/lazygrad/internal/tensor"
	"github.com/born-ml/lazygrad/internal/train"
)

// clusters returns n samples of dim features in `classes` well separated
// Gaussian clusters.
func clusters(n, dim, classes int, seed uint64) (*tensor.NDArray, []int) {
	rng := rand.New(rand.NewSource(seed))
	x := make([]float32, n*dim)
	y := make([]int, n)
	for i := range n {
		c := rng.Intn(classes)
		y[i] = c
		for j := range dim {
			x[i*dim+j] = 0.3 * float32(rng.NormFloat64())
		}
		x[i*dim+c] += 2
	}
	return tensor.MustFromSlice(x, tensor.Shape{n, dim}), y
}

func dataset(t *testing.T, n int, seed uint64) *data.ArrayDataset {
	t.Helper()
	x, y := clusters(n, 10, 3, seed)
	ds, err := data.NewArrayDataset(x, y)
	require.NoError(t, err)
	return ds
}

func TestMLPResNet_Structure(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	rng := rand.New(rand.NewSource(0))
	model := train.MLPResNet(g, 10, 8, 2, 3, nil, 0.1, rng)

	// Linear + 2 × (Linear, Norm, Linear, Norm) + Linear, two tensors each.
	assert.Len(t, model.Parameters(), 20)
	assert.Equal(t, 5, model.Len())

	x := g.Constant(tensor.Ones(tensor.Shape{4, 10}))
	y := model.Forward(x)
	assert.Equal(t, tensor.Shape{4, 3}, y.Shape())
}

func TestResidualBlock_PreservesShape(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	rng := rand.New(rand.NewSource(0))
	block := train.ResidualBlock(g, 6, 3, train.LayerNorm, 0, rng)
	block.Eval()

	x := g.Constant(tensor.Randn(tensor.Shape{5, 6}, 0, 1, rng))
	y := block.Forward(x)
	out, err := y.Data()
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{5, 6}, out.Shape())
	for _, v := range out.Data() {
		assert.GreaterOrEqual(t, v, float32(0), "final ReLU")
	}
}

func TestEpoch_ReducesLoss(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{})
	rng := rand.New(rand.NewSource(1))
	model := train.MLPResNet(g, 10, 16, 1, 3, nil, 0.1, rng)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.01})

	trainLoader := data.NewDataLoader(dataset(t, 300, 2), 32, true, rng)
	evalLoader := data.NewDataLoader(dataset(t, 100, 3), 50, false, nil)

	before, err := train.Epoch(g, evalLoader, model, nil)
	require.NoError(t, err)
	size := g.Len()

	for range 5 {
		_, err := train.Epoch(g, trainLoader, model, opt)
		require.NoError(t, err)
	}
	assert.Equal(t, size, g.Len(), "every batch is released")

	after, err := train.Epoch(g, evalLoader, model, nil)
	require.NoError(t, err)
	assert.Less(t, after.Loss, before.Loss)
	assert.Less(t, after.ErrorRate, float32(0.3))
}

func TestEpoch_EvalLeavesParameters(t *testing.T) {
	g := autodiff.NewGraph(autodiff.Config{Eager: true})
	rng := rand.New(rand.NewSource(4))
	model := train.MLPResNet(g, 10, 8, 1, 3, nil, 0.1, rng)
	w := model.Parameters()[0].Data()

	stats, err := train.Epoch(g, data.NewDataLoader(dataset(t, 20, 5), 8, false, nil), model, nil)
	require.NoError(t, err)
	assert.Same(t, w, model.Parameters()[0].Data())
	assert.GreaterOrEqual(t, stats.ErrorRate, float32(0))
	assert.LessOrEqual(t, stats.ErrorRate, float32(1))
	assert.Greater(t, stats.Loss, float32(0))
}

func TestRun_SavesCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.lzgd")
	cfg := train.Config{
		BatchSize: 25,
		Epochs:    2,
		Hidden:    8,
		Blocks:    1,
		LR:        0.01,
		Seed:      7,
		Save:      path,
	}
	res, err := train.Run(context.Background(), cfg, dataset(t, 100, 8), dataset(t, 50, 9), 10)
	require.NoError(t, err)
	assert.Greater(t, res.Train.Loss, float32(0))

	g := autodiff.NewGraph(autodiff.Config{})
	model := train.MLPResNet(g, 10, 8, 1, 10, nil, 0.1, rand.New(rand.NewSource(0)))
	bufs := nn.Buffers(model)
	require.NotEmpty(t, bufs)
	state, err := serialization.LoadFile(path, model.Parameters(), bufs)
	require.NoError(t, err)
	assert.Contains(t, state, "step")
	assert.NotEqual(t, tensor.Zeros(bufs[0].Data().Shape()).Data(), bufs[0].Data().Data(), "running mean restored")
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := train.Run(ctx, train.Config{Epochs: 1, Hidden: 4, Blocks: 1}, dataset(t, 10, 1), dataset(t, 10, 2), 10)
	assert.ErrorIs(t, err, context.Canceled)
}

// mnistDir writes n random 8x8 images with labels 0-9 under the MNIST file
// names.
func mnistDir(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(1))
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i % 10
	}
	images := tensor.Rand(tensor.Shape{n, 64}, 0, 1, rng)

	write := func(name string, fn func(w io.Writer) error) {
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		zw := gzip.NewWriter(f)
		require.NoError(t, fn(zw))
		require.NoError(t, zw.Close())
		require.NoError(t, f.Close())
	}
	for _, name := range []string{train.TrainImages, train.TestImages} {
		write(name, func(w io.Writer) error { return data.WriteIDXImages(w, images, 8, 8) })
	}
	for _, name := range []string{train.TrainLabels, train.TestLabels} {
		write(name, func(w io.Writer) error { return data.WriteIDXLabels(w, labels) })
	}
	return dir
}

func TestTrainMNIST_Deterministic(t *testing.T) {
	cfg := train.Config{
		DataDir:   mnistDir(t, 40),
		BatchSize: 10,
		Epochs:    1,
		Hidden:    8,
		Blocks:    1,
		Augment:   true,
		Seed:      3,
	}
	first, err := train.TrainMNIST(context.Background(), cfg)
	require.NoError(t, err)
	second, err := train.TrainMNIST(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTrainMNIST_MissingData(t *testing.T) {
	_, err := train.TrainMNIST(context.Background(), train.Config{DataDir: t.TempDir(), Epochs: 1})
	assert.Error(t, err)
}

func TestNewOptimizer(t *testing.T) {
	cfg := train.DefaultConfig()
	opt, err := train.NewOptimizer(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &optim.Adam{}, opt)

	cfg.Optimizer = "sgd"
	opt, err = train.NewOptimizer(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &optim.SGD{}, opt)

	cfg.Optimizer = "rmsprop"
	_, err = train.NewOptimizer(cfg, nil)
	assert.Error(t, err)
}

func TestSoftmaxRegressionEpoch_SingleStep(t *testing.T) {
	x := tensor.MustFromSlice([]float32{1, 0}, tensor.Shape{1, 2})
	theta := tensor.Zeros(tensor.Shape{2, 2})

	got, err := train.SoftmaxRegressionEpoch(x, []int{0}, theta, 1, 1)
	require.NoError(t, err)
	// softmax([0, 0]) - onehot(0) = [-0.5, 0.5]; theta -= xᵀ @ that.
	assert.InDeltaSlice(t, []float32{0.5, -0.5, 0, 0}, got.Data(), 1e-6)
	assert.Equal(t, []float32{0, 0, 0, 0}, theta.Data())
}

func TestSoftmaxRegressionEpoch_Learns(t *testing.T) {
	x, y := clusters(500, 10, 3, 11)
	theta := tensor.Zeros(tensor.Shape{10, 3})

	logits, err := x.MatMul(theta)
	require.NoError(t, err)
	loss0, _, err := train.LossErr(logits, y)
	require.NoError(t, err)

	for range 5 {
		theta, err = train.SoftmaxRegressionEpoch(x, y, theta, 0.2, 50)
		require.NoError(t, err)
	}
	logits, err = x.MatMul(theta)
	require.NoError(t, err)
	loss, errRate, err := train.LossErr(logits, y)
	require.NoError(t, err)
	assert.Less(t, loss, loss0)
	assert.Less(t, errRate, float32(0.1))

	_, err = train.SoftmaxRegressionEpoch(x, y[:3], theta, 0.1, 10)
	assert.ErrorIs(t, err, tensor.ErrShape)
}

func TestLossErr_LabelOutOfRange(t *testing.T) {
	logits := tensor.MustFromSlice([]float32{1, 2, 3, 0, 0, 0}, tensor.Shape{2, 3})
	_, errRate, err := train.LossErr(logits, []int{2, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, errRate, 1e-6)

	_, _, err = train.LossErr(logits, []int{2, 3})
	assert.ErrorIs(t, err, tensor.ErrShape)
	_, _, err = train.LossErr(logits, []int{-1, 0})
	assert.ErrorIs(t, err, tensor.ErrShape)

	x := tensor.MustFromSlice([]float32{1, 0, 0, 1}, tensor.Shape{2, 2})
	_, err = train.SoftmaxRegressionEpoch(x, []int{0, 5}, tensor.Zeros(tensor.Shape{2, 3}), 1, 2)
	assert.ErrorIs(t, err, tensor.ErrShape)
}
