package effect

import (
	"github.com/ayusman/teamfinger/internal/hittest"
)

// Engine applies a visual effect for one hit-test result. ok is false when
// nothing was hit; engines must then leave every element untouched.
// Apply reports whether any element changed.
type Engine interface {
	Name() string
	Apply(hit hittest.Hit, ok bool) bool
}

// None is the engine for sketches that only draw the cursor.
type None struct{}

// Name implements Engine.
func (None) Name() string { return "none" }

// Apply implements Engine.
func (None) Apply(hittest.Hit, bool) bool { return false }
