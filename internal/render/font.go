// Package render composites the video frame, the animated document and
// the cursor onto a gg canvas.
package render

import (
	"fmt"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFontSize is the em size used for document text.
const DefaultFontSize = 28

// Font measures text for layout and supplies glyph outlines for
// drawing. It satisfies dom.Measurer.
type Font struct {
	source *text.FontSource
	face   text.Face
	size   float64

	mu        sync.Mutex
	extractor *text.OutlineExtractor
	outlines  map[rune]*text.GlyphOutline
}

// NewFont loads the bundled Go Regular face at size pixels.
func NewFont(size float64) (*Font, error) {
	if size <= 0 {
		size = DefaultFontSize
	}
	src, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	return &Font{
		source:    src,
		face:      src.Face(size),
		size:      size,
		extractor: text.NewOutlineExtractor(),
		outlines:  make(map[rune]*text.GlyphOutline),
	}, nil
}

func (f *Font) Size() float64 { return f.size }

func (f *Font) Advance(s string) float64 {
	return f.face.Advance(s)
}

func (f *Font) LineHeight() float64 {
	return f.face.Metrics().LineHeight()
}

// Ascent is the baseline offset from the top of a line box.
func (f *Font) Ascent() float64 {
	return f.face.Metrics().Ascent
}

// outline returns the cached outline for r. Glyphs without an outline
// yield an empty one.
func (f *Font) outline(r rune) (*text.GlyphOutline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if o, ok := f.outlines[r]; ok {
		return o, nil
	}
	parsed := f.source.Parsed()
	gid := text.GlyphID(parsed.GlyphIndex(r))
	o, err := f.extractor.ExtractOutline(parsed, gid, f.size)
	if err != nil {
		return nil, fmt.Errorf("outline %q: %w", r, err)
	}
	f.outlines[r] = o
	return o, nil
}

func (f *Font) Close() error {
	return f.source.Close()
}
