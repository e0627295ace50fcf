// Package latent drives a generative image model by walking a straight
// line between two fixed latent vectors.
package latent

import (
	"errors"
	"fmt"
	"image"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// DefaultDim is the latent size of the bundled model.
const DefaultDim = 128

var (
	// ErrDimension is returned when vectors or the model disagree on size.
	ErrDimension = errors.New("latent dimension mismatch")
	// ErrRange is returned for a slider value outside [0, 1].
	ErrRange = errors.New("slider value out of range")
)

// Vector is a point in latent space.
type Vector []float64

// NewPair draws two vectors of standard normal components. The same
// seed always yields the same pair.
func NewPair(seed uint64, dim int) (Vector, Vector) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	draw := func() Vector {
		v := make(Vector, dim)
		for i := range v {
			v[i] = rng.NormFloat64()
		}
		return v
	}
	a := draw()
	return a, draw()
}

// Interpolate returns (1-t)·a + t·b. The result equals a at t=0 and b
// at t=1 exactly.
func Interpolate(a, b Vector, t float64) (Vector, error) {
	if len(a) != len(b) || len(a) == 0 {
		return nil, fmt.Errorf("%w: %d vs %d", ErrDimension, len(a), len(b))
	}
	// Negated so NaN is rejected too.
	if !(t >= 0 && t <= 1) {
		return nil, fmt.Errorf("%w: %v", ErrRange, t)
	}

	va := mat.NewVecDense(len(a), append([]float64(nil), a...))
	vb := mat.NewVecDense(len(b), append([]float64(nil), b...))

	var scaled, out mat.VecDense
	scaled.ScaleVec(1-t, va)
	out.AddScaledVec(&scaled, t, vb)
	return Vector(out.RawVector().Data), nil
}

// Walk pairs two endpoints drawn from Seed with a generator.
type Walk struct {
	A, B Vector
	Seed uint64
	Gen  Generator
}

// NewWalk draws endpoints for gen from seed.
func NewWalk(gen Generator, seed uint64) *Walk {
	a, b := NewPair(seed, gen.Dim())
	return &Walk{A: a, B: b, Seed: seed, Gen: gen}
}

// At returns the latent vector for slider value t.
func (w *Walk) At(t float64) (Vector, error) {
	return Interpolate(w.A, w.B, t)
}

// Image generates the picture at slider value t.
func (w *Walk) Image(t float64) (image.Image, error) {
	v, err := w.At(t)
	if err != nil {
		return nil, err
	}
	return w.Gen.Generate(v)
}
