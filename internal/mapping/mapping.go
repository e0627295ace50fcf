// Package mapping converts pointer coordinates between model space (video
// resolution) and viewport space (window resolution).
package mapping

import (
	"errors"
	"fmt"
)

// ErrDomain is returned when a source range is degenerate and a coordinate
// cannot be normalized into it.
var ErrDomain = errors.New("degenerate source range")

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Range is a closed interval on one axis. Min may be greater than Max,
// which flips the axis.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Span returns Max - Min.
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// Rect pairs a horizontal and a vertical range.
type Rect struct {
	X Range `json:"x"`
	Y Range `json:"y"`
}

// NewRect returns the rectangle [0,width] x [0,height].
func NewRect(width, height float64) Rect {
	return Rect{
		X: Range{Min: 0, Max: width},
		Y: Range{Min: 0, Max: height},
	}
}

// Width returns the horizontal span.
func (r Rect) Width() float64 { return r.X.Span() }

// Height returns the vertical span.
func (r Rect) Height() float64 { return r.Y.Span() }

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return within(p.X, r.X) && within(p.Y, r.Y)
}

func within(v float64, r Range) bool {
	lo, hi := r.Min, r.Max
	if lo > hi {
		lo, hi = hi, lo
	}
	return v >= lo && v <= hi
}

// remap normalizes v into src then rescales it into dst.
func remap(v float64, src, dst Range) (float64, bool) {
	span := src.Span()
	if span == 0 {
		return 0, false
	}
	t := (v - src.Min) / span
	return dst.Min + t*dst.Span(), true
}

// Map applies a per-axis affine remap of p from src to dst.
// A zero-width or zero-height source fails with ErrDomain.
func Map(p Point, src, dst Rect) (Point, error) {
	x, ok := remap(p.X, src.X, dst.X)
	if !ok {
		return Point{}, fmt.Errorf("map x axis [%g,%g]: %w", src.X.Min, src.X.Max, ErrDomain)
	}
	y, ok := remap(p.Y, src.Y, dst.Y)
	if !ok {
		return Point{}, fmt.Errorf("map y axis [%g,%g]: %w", src.Y.Min, src.Y.Max, ErrDomain)
	}
	return Point{X: x, Y: y}, nil
}

// Mirror reflects p horizontally inside a viewport of the given width.
func Mirror(p Point, viewportWidth float64) Point {
	return Point{X: viewportWidth - p.X, Y: p.Y}
}

// CropSource returns the region of a video frame that is shown in a
// viewport when the frame is right-aligned and cropped to the viewport size.
// When the video is smaller than the viewport on an axis the whole axis is
// used and the frame is stretched instead.
func CropSource(videoW, videoH, viewW, viewH float64) Rect {
	src := NewRect(videoW, videoH)
	if videoW > viewW {
		src.X = Range{Min: videoW - viewW, Max: videoW}
	}
	if videoH > viewH {
		src.Y = Range{Min: 0, Max: viewH}
	}
	return src
}

// Mapper projects model-space pointers into the viewport.
type Mapper struct {
	Source   Rect
	Viewport Rect
	Mirror   bool
}

// NewMapper builds a Mapper for a negotiated video size shown in a viewport.
func NewMapper(videoW, videoH, viewW, viewH float64, mirror bool) (*Mapper, error) {
	src := CropSource(videoW, videoH, viewW, viewH)
	if src.Width() == 0 || src.Height() == 0 {
		return nil, fmt.Errorf("video %gx%g: %w", videoW, videoH, ErrDomain)
	}
	return &Mapper{
		Source:   src,
		Viewport: NewRect(viewW, viewH),
		Mirror:   mirror,
	}, nil
}

// Project maps p into the viewport. canvas is the point in the unflipped
// video's coordinate system; screen is where it appears on the display,
// which is also where hit-testing happens. They differ only when the
// mapper mirrors.
func (m *Mapper) Project(p Point) (canvas, screen Point, err error) {
	canvas, err = Map(p, m.Source, m.Viewport)
	if err != nil {
		return Point{}, Point{}, err
	}
	if !m.Mirror {
		return canvas, canvas, nil
	}
	return canvas, Mirror(canvas, m.Viewport.Width()), nil
}
