package serialization_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/nn"
	"github.com/born-ml/lazygrad/internal/serialization"
	"github.com/born-ml/lazygrad/internal/tensor"
)

func model(seed uint64) (*nn.Sequential, *autodiff.Graph) {
	g := autodiff.NewGraph(autodiff.Config{})
	rng := rand.New(rand.NewSource(seed))
	return nn.NewSequential(
		nn.NewLinear(g, 4, 3, rng),
		nn.NewReLU(),
		nn.NewLinear(g, 3, 2, rng),
	), g
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	src, _ := model(1)
	dst, _ := model(2)
	require.NotEqual(t, src.Parameters()[0].Data().Data(), dst.Parameters()[0].Data().Data())

	var buf bytes.Buffer
	require.NoError(t, serialization.Save(&buf, src.Parameters()))
	require.NoError(t, serialization.Load(&buf, dst.Parameters()))

	for i, p := range dst.Parameters() {
		assert.Equal(t, src.Parameters()[i].Data().Data(), p.Data().Data(), p.Name())
	}
}

func TestSaveCheckpoint_State(t *testing.T) {
	src, _ := model(1)
	state := map[string]*tensor.NDArray{
		"step": tensor.Scalar(7),
		"m.0":  tensor.Ones(tensor.Shape{4, 3}),
	}

	path := filepath.Join(t.TempDir(), "model.lzgd")
	require.NoError(t, serialization.SaveFile(path, src.Parameters(), nil, state))

	dst, _ := model(2)
	got, err := serialization.LoadFile(path, dst.Parameters(), nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, float32(7), got["step"].Item())
	assert.Equal(t, tensor.Shape{4, 3}, got["m.0"].Shape())
}

func normModel(seed uint64) (*nn.Sequential, *autodiff.Graph) {
	g := autodiff.NewGraph(autodiff.Config{})
	rng := rand.New(rand.NewSource(seed))
	return nn.NewSequential(
		nn.NewLinear(g, 4, 3, rng),
		nn.NewBatchNorm1d(g, 3, nn.NormConfig{}),
	), g
}

func TestSaveCheckpoint_Buffers(t *testing.T) {
	src, g := normModel(1)
	x := g.Constant(tensor.Randn(tensor.Shape{16, 4}, 2, 3, rand.New(rand.NewSource(5))))
	_, err := nn.Call(src, x)
	require.NoError(t, err)
	bufs := nn.Buffers(src)
	require.Len(t, bufs, 2)
	assert.NotEqual(t, []float32{0, 0, 0}, bufs[0].Data().Data())

	var buf bytes.Buffer
	require.NoError(t, serialization.SaveCheckpoint(&buf, src.Parameters(), bufs, nil))
	saved := buf.Bytes()

	dst, dg := normModel(2)
	_, err = serialization.LoadCheckpoint(bytes.NewReader(saved), dst.Parameters(), nn.Buffers(dst))
	require.NoError(t, err)
	for i, b := range nn.Buffers(dst) {
		assert.Equal(t, bufs[i].Data().Data(), b.Data().Data(), b.Name())
	}

	src.Eval()
	dst.Eval()
	in := tensor.Randn(tensor.Shape{3, 4}, 0, 1, rand.New(rand.NewSource(6)))
	want, err := nn.Call(src, g.Constant(in))
	require.NoError(t, err)
	got, err := nn.Call(dst, dg.Constant(in))
	require.NoError(t, err)
	wa, err := want.Data()
	require.NoError(t, err)
	ga, err := got.Data()
	require.NoError(t, err)
	assert.Equal(t, wa.Data(), ga.Data())

	// Load ignores stored buffers; a model with other buffers is rejected.
	other, _ := normModel(3)
	require.NoError(t, serialization.Load(bytes.NewReader(saved), other.Parameters()))
	_, err = serialization.LoadCheckpoint(bytes.NewReader(saved), other.Parameters(), nn.Buffers(other)[:1])
	assert.ErrorIs(t, err, serialization.ErrMismatch)
}

func TestDecode_Records(t *testing.T) {
	records := []serialization.Record{
		{Name: "a", Array: tensor.MustFromSlice([]float32{1, -2.5, 3}, tensor.Shape{3, 1})},
		{Name: "scalar", Array: tensor.Scalar(4)},
	}
	var buf bytes.Buffer
	require.NoError(t, serialization.Encode(&buf, records))
	assert.True(t, strings.HasPrefix(buf.String(), serialization.MagicBytes))

	got, err := serialization.Decode(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i, r := range records {
		assert.Equal(t, r.Name, got[i].Name)
		assert.True(t, r.Array.Shape().Equal(got[i].Array.Shape()), "%v vs %v", r.Array.Shape(), got[i].Array.Shape())
		assert.Equal(t, r.Array.Len(), got[i].Array.Len())
	}
	assert.Equal(t, []float32{1, -2.5, 3}, got[0].Array.Data())
}

func TestDecode_Corruption(t *testing.T) {
	src, _ := model(1)
	var buf bytes.Buffer
	require.NoError(t, serialization.Save(&buf, src.Parameters()))
	raw := buf.Bytes()

	flipped := bytes.Clone(raw)
	flipped[len(flipped)/2] ^= 0xff
	_, err := serialization.Decode(bytes.NewReader(flipped))
	assert.ErrorIs(t, err, serialization.ErrChecksumMismatch)

	_, err = serialization.Decode(bytes.NewReader(append([]byte("BORN"), raw[4:]...)))
	assert.ErrorIs(t, err, serialization.ErrInvalidMagic)

	_, err = serialization.Decode(bytes.NewReader(raw[:10]))
	assert.ErrorIs(t, err, serialization.ErrInvalidMagic)
}

func TestLoad_Mismatch(t *testing.T) {
	src, _ := model(1)
	var buf bytes.Buffer
	require.NoError(t, serialization.Save(&buf, src.Parameters()))
	saved := buf.Bytes()

	g := autodiff.NewGraph(autodiff.Config{})
	rng := rand.New(rand.NewSource(3))
	wider := nn.NewSequential(nn.NewLinear(g, 4, 5, rng), nn.NewReLU(), nn.NewLinear(g, 5, 2, rng))
	before := wider.Parameters()[0].Data()
	err := serialization.Load(bytes.NewReader(saved), wider.Parameters())
	assert.ErrorIs(t, err, tensor.ErrShape)
	assert.Same(t, before, wider.Parameters()[0].Data(), "parameters must not change on failure")

	err = serialization.Load(bytes.NewReader(saved), src.Parameters()[:2])
	assert.ErrorIs(t, err, serialization.ErrMismatch)
}

func TestValidateTensorName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"simple", "0.weight", nil},
		{"optimizer", "optim.velocity.3", nil},
		{"empty", "", serialization.ErrInvalidTensorName},
		{"traversal", "../etc/passwd", serialization.ErrInvalidTensorName},
		{"separator", "layer\\weight", serialization.ErrInvalidTensorName},
		{"null byte", "w\x00", serialization.ErrInvalidTensorName},
		{"too long", strings.Repeat("a", serialization.MaxTensorNameLen+1), serialization.ErrTensorNameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := serialization.ValidateTensorName(tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEncode_DuplicateNames(t *testing.T) {
	records := []serialization.Record{
		{Name: "w", Array: tensor.Scalar(1)},
		{Name: "w", Array: tensor.Scalar(2)},
	}
	err := serialization.Encode(&bytes.Buffer{}, records)
	assert.ErrorIs(t, err, serialization.ErrInvalidTensorName)
}
