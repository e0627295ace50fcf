package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/teamfinger/internal/detector"
	"github.com/ayusman/teamfinger/internal/dom"
	"github.com/ayusman/teamfinger/internal/mapping"
	"github.com/ayusman/teamfinger/internal/sketch"
)

var fixed = dom.FixedMeasurer{GlyphWidth: 10, Line: 20}

func newSession(t *testing.T, name string) *Session {
	t.Helper()
	p, err := sketch.Lookup(name)
	require.NoError(t, err)
	scene, err := sketch.Build(p, 1000, 720, fixed)
	require.NoError(t, err)
	m, err := mapping.NewMapper(1280, 720, 1000, 720, p.Mirror)
	require.NoError(t, err)
	s, err := NewSession(scene, m)
	require.NoError(t, err)
	return s
}

// handAtScreen places the index tip so that, after the right-aligned
// crop and mirror, it lands on screen point (x, y).
func handAtScreen(x, y float64) detector.HandLandmarks {
	const offset = 1280 - 1000
	return detector.PointingHand(offset+(1000-x), y)
}

func TestSession_NoHandIsNoop(t *testing.T) {
	s := newSession(t, "gradient")

	changed, err := s.Advance(nil, true)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.False(t, s.HasPointer())
	assert.Equal(t, mapping.Point{}, s.Cursor())

	_, hit := s.Hit()
	assert.False(t, hit)

	ticks, detections, misses := s.Counts()
	assert.Equal(t, uint64(1), ticks)
	assert.Zero(t, detections)
	assert.Equal(t, uint64(1), misses)
}

func TestSession_GradientFollowsFinger(t *testing.T) {
	s := newSession(t, "gradient")
	block := s.Scene().Doc.ElementByID("text")
	require.NotNil(t, block)
	spans := dom.Spans(block)

	// Span 5 of the first block sits at x 90..100, y 40..60.
	hand := handAtScreen(95, 50)
	for i := 0; i < 14; i++ {
		_, err := s.Advance([]detector.HandLandmarks{hand}, true)
		require.NoError(t, err)
	}

	assert.InDelta(t, 95, s.Cursor().X, 0.05)
	assert.InDelta(t, 50, s.Cursor().Y, 0.05)

	hit, ok := s.Hit()
	require.True(t, ok)
	idx, ok := hit.Index()
	require.True(t, ok)
	assert.Equal(t, 5, idx)
	assert.Equal(t, block, hit.Block())

	assert.Equal(t, 900.0, spans[5].Font.Weight)
	assert.Greater(t, spans[4].Font.Weight, spans[3].Font.Weight)
	assert.Equal(t, 400.0, spans[20].Font.Weight)
}

func TestSession_EffectsDisabled(t *testing.T) {
	s := newSession(t, "gradient")
	spans := dom.Spans(s.Scene().Doc.ElementByID("text"))

	hand := handAtScreen(95, 50)
	for i := 0; i < 14; i++ {
		changed, err := s.Advance([]detector.HandLandmarks{hand}, false)
		require.NoError(t, err)
		assert.False(t, changed)
	}
	_, ok := s.Hit()
	assert.True(t, ok, "hit testing continues while effects are off")
	assert.Equal(t, dom.Neutral, spans[5].Font)
}

func TestSession_Highlight(t *testing.T) {
	s := newSession(t, "highlight")
	item := s.Scene().Doc.ElementByID("item-0")
	require.NotNil(t, item)
	cx, cy := item.Box.Center()

	for i := 0; i < 20; i++ {
		_, err := s.Advance([]detector.HandLandmarks{handAtScreen(cx, cy)}, true)
		require.NoError(t, err)
	}
	assert.True(t, item.HasClass("highlighted"))
}

func TestSession_SetSceneKeepsCursor(t *testing.T) {
	s := newSession(t, "gradient")
	for i := 0; i < 3; i++ {
		_, err := s.Advance([]detector.HandLandmarks{handAtScreen(400, 300)}, true)
		require.NoError(t, err)
	}
	before := s.Cursor()

	p, err := sketch.Lookup("pointer")
	require.NoError(t, err)
	scene, err := sketch.Build(p, 1000, 720, fixed)
	require.NoError(t, err)
	require.NoError(t, s.SetScene(scene))

	assert.Equal(t, before, s.Cursor())
	_, hit := s.Hit()
	assert.False(t, hit)

	// Pointer preset does not smooth.
	_, err = s.Advance([]detector.HandLandmarks{handAtScreen(10, 10)}, true)
	require.NoError(t, err)
	assert.InDelta(t, 10, s.Cursor().X, 1e-9)
}

func TestSession_FrameState(t *testing.T) {
	s := newSession(t, "gradient")
	hand := handAtScreen(95, 50)
	for i := 0; i < 14; i++ {
		_, err := s.Advance([]detector.HandLandmarks{hand}, true)
		require.NoError(t, err)
	}

	fs := s.frameState(StateRunning, true, true)
	assert.Equal(t, uint64(14), fs.Tick)
	assert.Equal(t, "gradient", fs.Preset)
	assert.True(t, fs.Hand)
	require.NotNil(t, fs.Pointer)
	require.NotNil(t, fs.Hit)
	assert.Equal(t, "text", fs.Hit.Block)
	require.NotNil(t, fs.Hit.Index)
	assert.Equal(t, 5, *fs.Hit.Index)
}

func TestCropRect(t *testing.T) {
	mirrored, err := mapping.NewMapper(1280, 720, 1000, 720, true)
	require.NoError(t, err)
	x0, y0, x1, y1 := CropRect(mirrored, 1280)
	assert.Equal(t, []int{0, 0, 1000, 720}, []int{x0, y0, x1, y1})

	plain, err := mapping.NewMapper(1280, 720, 1000, 720, false)
	require.NoError(t, err)
	x0, _, x1, _ = CropRect(plain, 1280)
	assert.Equal(t, 280, x0)
	assert.Equal(t, 1280, x1)
}

func TestHub(t *testing.T) {
	h := newHub()
	ch, cancel := h.subscribe()
	assert.Equal(t, 1, h.count())

	h.publish(FrameState{Tick: 1})
	assert.Equal(t, uint64(1), (<-ch).Tick)

	// A full buffer drops instead of blocking.
	for i := 0; i < 20; i++ {
		h.publish(FrameState{Tick: uint64(i)})
	}

	cancel()
	cancel()
	assert.Zero(t, h.count())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", StateRunning.String())
	text, err := StateStopped.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "stopped", string(text))
}
