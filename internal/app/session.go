package app

import (
	"fmt"

	"github.com/ayusman/teamfinger/internal/cursor"
	"github.com/ayusman/teamfinger/internal/detector"
	"github.com/ayusman/teamfinger/internal/hittest"
	"github.com/ayusman/teamfinger/internal/mapping"
	"github.com/ayusman/teamfinger/internal/sketch"
)

// Session is the per-loop state carried between ticks: the scene being
// animated, the cursor, and the most recent pointer and hit.
type Session struct {
	scene  *sketch.Scene
	mapper *mapping.Mapper
	tester *hittest.Tester
	cursor *cursor.State

	pointer    mapping.Point
	hasPointer bool
	hit        hittest.Hit
	hasHit     bool

	ticks      uint64
	detections uint64
	misses     uint64
}

// NewSession starts the cursor at the viewport origin.
func NewSession(scene *sketch.Scene, mapper *mapping.Mapper) (*Session, error) {
	sm, err := cursor.NewSmoother(scene.Preset.SmoothingAlpha)
	if err != nil {
		return nil, err
	}
	return &Session{
		scene:  scene,
		mapper: mapper,
		tester: hittest.New(scene.Doc),
		cursor: cursor.NewState(sm, mapping.Point{}),
	}, nil
}

// SetScene swaps the animated scene. The cursor keeps its position.
func (s *Session) SetScene(scene *sketch.Scene) error {
	sm, err := cursor.NewSmoother(scene.Preset.SmoothingAlpha)
	if err != nil {
		return err
	}
	s.scene = scene
	s.tester = hittest.New(scene.Doc)
	s.cursor = cursor.NewState(sm, s.cursor.Position())
	s.hit, s.hasHit = hittest.Hit{}, false
	return nil
}

// SetMapper replaces the video to viewport mapping.
func (s *Session) SetMapper(m *mapping.Mapper) { s.mapper = m }

// Advance runs one tick over the detector output: take the first hand's
// pointer, map it to the screen, smooth it, hit-test the cursor and let
// the effect engine restyle the document. No hand leaves everything as
// it was. It reports whether the document changed.
func (s *Session) Advance(hands []detector.HandLandmarks, effects bool) (bool, error) {
	s.ticks++

	p, ok := detector.Pointer(hands)
	s.hasPointer = ok
	if !ok {
		s.misses++
		return false, nil
	}
	s.detections++
	s.pointer = p

	_, screen, err := s.mapper.Project(p)
	if err != nil {
		return false, fmt.Errorf("project pointer: %w", err)
	}
	pos := s.cursor.Step(screen)

	s.hit, s.hasHit = s.tester.HitTest(pos)
	if !effects {
		return false, nil
	}
	return s.scene.Engine.Apply(s.hit, s.hasHit), nil
}

func (s *Session) Scene() *sketch.Scene     { return s.scene }
func (s *Session) Mapper() *mapping.Mapper  { return s.mapper }
func (s *Session) Cursor() mapping.Point    { return s.cursor.Position() }
func (s *Session) HasPointer() bool         { return s.hasPointer }
func (s *Session) Pointer() mapping.Point   { return s.pointer }
func (s *Session) Hit() (hittest.Hit, bool) { return s.hit, s.hasHit }

// Counts returns ticks, ticks with a hand, and ticks without one.
func (s *Session) Counts() (ticks, detections, misses uint64) {
	return s.ticks, s.detections, s.misses
}
