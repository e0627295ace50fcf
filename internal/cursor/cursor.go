// Package cursor smooths the per-frame pointer into an animated cursor.
package cursor

import (
	"fmt"

	"github.com/ayusman/teamfinger/internal/mapping"
)

// DefaultAlpha is the smoothing factor used by every built-in sketch.
const DefaultAlpha = 0.5

// Smoother is a single-pole exponential low-pass filter applied
// independently to each axis.
type Smoother struct {
	alpha float64
}

// NewSmoother returns a Smoother with the given factor. Alpha must be in
// (0, 1]; 1 disables smoothing.
func NewSmoother(alpha float64) (*Smoother, error) {
	if !(alpha > 0 && alpha <= 1) {
		return nil, fmt.Errorf("smoothing alpha %g outside (0, 1]", alpha)
	}
	return &Smoother{alpha: alpha}, nil
}

// Alpha returns the smoothing factor.
func (s *Smoother) Alpha() float64 {
	return s.alpha
}

// Update moves prev toward target by alpha of the remaining distance.
func (s *Smoother) Update(prev, target mapping.Point) mapping.Point {
	return mapping.Point{
		X: prev.X + (target.X-prev.X)*s.alpha,
		Y: prev.Y + (target.Y-prev.Y)*s.alpha,
	}
}

// State is the running cursor position. It is always defined: a new State
// starts at its origin and is never reset.
type State struct {
	smoother *Smoother
	pos      mapping.Point
	steps    uint64
}

// NewState returns a State positioned at origin.
func NewState(s *Smoother, origin mapping.Point) *State {
	return &State{smoother: s, pos: origin}
}

// Step feeds target through the smoother and returns the new position.
func (c *State) Step(target mapping.Point) mapping.Point {
	c.pos = c.smoother.Update(c.pos, target)
	c.steps++
	return c.pos
}

// Position returns the current cursor position.
func (c *State) Position() mapping.Point {
	return c.pos
}

// Steps returns how many targets have been applied.
func (c *State) Steps() uint64 {
	return c.steps
}
