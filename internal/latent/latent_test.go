package latent

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolate(t *testing.T) {
	a, b := NewPair(7, DefaultDim)
	require.Len(t, a, DefaultDim)
	require.Len(t, b, DefaultDim)

	t.Run("zero is a", func(t *testing.T) {
		v, err := Interpolate(a, b, 0)
		require.NoError(t, err)
		assert.Equal(t, a, v)
	})

	t.Run("one is b", func(t *testing.T) {
		v, err := Interpolate(a, b, 1)
		require.NoError(t, err)
		assert.Equal(t, b, v)
	})

	t.Run("half is mean", func(t *testing.T) {
		v, err := Interpolate(a, b, 0.5)
		require.NoError(t, err)
		for i := range v {
			assert.InDelta(t, (a[i]+b[i])/2, v[i], 1e-12)
		}
	})

	t.Run("inputs untouched", func(t *testing.T) {
		a2 := append(Vector(nil), a...)
		_, err := Interpolate(a, b, 0.3)
		require.NoError(t, err)
		assert.Equal(t, a2, a)
	})
}

func TestInterpolate_Errors(t *testing.T) {
	_, err := Interpolate(Vector{1, 2}, Vector{1}, 0.5)
	assert.ErrorIs(t, err, ErrDimension)

	_, err = Interpolate(nil, nil, 0.5)
	assert.ErrorIs(t, err, ErrDimension)

	for _, tv := range []float64{1.5, -0.1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		v, err := Interpolate(Vector{1}, Vector{2}, tv)
		assert.ErrorIs(t, err, ErrRange, "t=%v", tv)
		assert.Nil(t, v, "t=%v", tv)
	}
}

func TestNewPair_Deterministic(t *testing.T) {
	a1, b1 := NewPair(42, 16)
	a2, b2 := NewPair(42, 16)
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
	assert.NotEqual(t, a1, b1)

	a3, _ := NewPair(43, 16)
	assert.NotEqual(t, a1, a3)
}

type fakeGenerator struct {
	dim  int
	last Vector
}

func (f *fakeGenerator) Dim() int     { return f.dim }
func (f *fakeGenerator) Close() error { return nil }
func (f *fakeGenerator) Generate(v Vector) (image.Image, error) {
	f.last = v
	return image.NewGray(image.Rect(0, 0, 2, 2)), nil
}

func TestWalk(t *testing.T) {
	gen := &fakeGenerator{dim: 8}
	w := NewWalk(gen, 1)

	img, err := w.Image(1)
	require.NoError(t, err)
	assert.NotNil(t, img)
	assert.Equal(t, w.B, gen.last)

	_, err = w.Image(2)
	assert.ErrorIs(t, err, ErrRange)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml with relative model", func(t *testing.T) {
		path := filepath.Join(dir, "gan.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"model: generator.onnx\noutput_width: 64\noutput_height: 64\nseed: 9\n"), 0o644))

		m, err := LoadManifest(path)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "generator.onnx"), m.Model)
		assert.Equal(t, DefaultDim, m.LatentDim)
		assert.Equal(t, uint64(9), m.Seed)
		assert.Equal(t, "tanh", m.Range)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "gan.json")
		require.NoError(t, os.WriteFile(path, []byte(
			`{"model": "/models/g.pb", "latent_dim": 100, "output_width": 32, "output_height": 16, "range": "unit"}`), 0o644))

		m, err := LoadManifest(path)
		require.NoError(t, err)
		assert.Equal(t, "/models/g.pb", m.Model)
		assert.Equal(t, 100, m.LatentDim)
	})

	t.Run("invalid", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("latent_dim: -1\nrange: sigmoid\n"), 0o644))

		_, err := LoadManifest(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDimension)
		assert.ErrorContains(t, err, "model is required")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadManifest(filepath.Join(dir, "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestTensorImage(t *testing.T) {
	t.Run("rgb tanh", func(t *testing.T) {
		// 2x1 image: red pixel then blue pixel.
		data := []float32{
			1, -1, // R
			-1, -1, // G
			-1, 1, // B
		}
		img, err := TensorImage(data, 2, 1, "tanh")
		require.NoError(t, err)
		assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.At(0, 0))
		assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.At(1, 0))
	})

	t.Run("gray unit clamps", func(t *testing.T) {
		img, err := TensorImage([]float32{0.5, 2}, 1, 2, "unit")
		require.NoError(t, err)
		assert.Equal(t, color.RGBA{128, 128, 128, 255}, img.At(0, 0))
		assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.At(0, 1))
	})

	t.Run("wrong size", func(t *testing.T) {
		_, err := TensorImage(make([]float32, 5), 2, 1, "tanh")
		assert.ErrorIs(t, err, ErrDimension)
	})
}

func TestLoad_MissingModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"model: missing.onnx\noutput_width: 8\noutput_height: 8\n"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
