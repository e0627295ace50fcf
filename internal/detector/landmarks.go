// Package detector finds hands in video frames and exposes their
// landmarks in video pixel space.
package detector

import "github.com/ayusman/teamfinger/internal/mapping"

// Landmark indices in MediaPipe hand order.
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Annotation names.
const (
	Thumb        = "thumb"
	IndexFinger  = "indexFinger"
	MiddleFinger = "middleFinger"
	RingFinger   = "ringFinger"
	Pinky        = "pinky"
	PalmBase     = "palmBase"
)

// annotations groups landmark indices by finger, base to tip.
var annotations = map[string][]int{
	Thumb:        {ThumbCMC, ThumbMCP, ThumbIP, ThumbTip},
	IndexFinger:  {IndexMCP, IndexPIP, IndexDIP, IndexTip},
	MiddleFinger: {MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
	RingFinger:   {RingMCP, RingPIP, RingDIP, RingTip},
	Pinky:        {PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
	PalmBase:     {Wrist},
}

// Point3D is a landmark position. X and Y are pixels once a detector
// returns; Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one detected hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"`
	Score      float64               `json:"score"`
}

// Annotation returns the named landmark group, base to tip.
func (h *HandLandmarks) Annotation(name string) ([]Point3D, bool) {
	idx, ok := annotations[name]
	if !ok {
		return nil, false
	}
	pts := make([]Point3D, len(idx))
	for i, j := range idx {
		pts[i] = h.Points[j]
	}
	return pts, true
}

// Annotations returns every named group.
func (h *HandLandmarks) Annotations() map[string][]Point3D {
	out := make(map[string][]Point3D, len(annotations))
	for name := range annotations {
		out[name], _ = h.Annotation(name)
	}
	return out
}

// Scale converts normalized [0,1] coordinates to pixels in place.
func (h *HandLandmarks) Scale(width, height float64) {
	for i := range h.Points {
		h.Points[i].X *= width
		h.Points[i].Y *= height
	}
}

// Pointer returns the index fingertip of the first hand.
func Pointer(hands []HandLandmarks) (mapping.Point, bool) {
	if len(hands) == 0 {
		return mapping.Point{}, false
	}
	tip, _ := hands[0].Annotation(IndexFinger)
	p := tip[3]
	return mapping.Point{X: p.X, Y: p.Y}, true
}
