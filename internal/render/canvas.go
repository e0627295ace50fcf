package render

import (
	"errors"
	"image"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/teamfinger/internal/dom"
	"github.com/ayusman/teamfinger/internal/mapping"
	"github.com/ayusman/teamfinger/internal/sketch"
)

// Italic slant at "ital" 100, as a horizontal shear factor.
const maxSlant = 0.21

// Style holds resolved drawing colours.
type Style struct {
	Background   gg.RGBA
	Text         gg.RGBA
	Cursor       gg.RGBA
	Accent       gg.RGBA
	CursorRadius float64
	// HighlightClass marks elements drawn with the accent fill.
	HighlightClass string
}

// StyleFor resolves a cursor visual into drawing colours.
func StyleFor(v sketch.CursorVisual, highlightClass string) (Style, error) {
	cursor, err := colorful.Hex(v.Color)
	if err != nil {
		return Style{}, err
	}
	accent, err := colorful.Hex(v.Accent)
	if err != nil {
		return Style{}, err
	}
	return Style{
		Background:     gg.RGB(0.06, 0.06, 0.08),
		Text:           gg.RGB(1, 1, 1),
		Cursor:         toRGBA(cursor),
		Accent:         toRGBA(accent),
		CursorRadius:   v.Radius,
		HighlightClass: highlightClass,
	}, nil
}

func toRGBA(c colorful.Color) gg.RGBA {
	r, g, b := c.Clamped().RGB255()
	return gg.RGB(float64(r)/255, float64(g)/255, float64(b)/255)
}

// Frame is everything drawn for one tick.
type Frame struct {
	// Video is the camera image, already mirrored if the sketch mirrors.
	Video image.Image
	// Crop selects the visible part of Video. Empty means all of it.
	Crop image.Rectangle
	Doc  *dom.Document
	// Cursor is in viewport coordinates.
	Cursor        mapping.Point
	CursorVisible bool
}

// Canvas owns a gg context sized to the viewport.
type Canvas struct {
	ctx   *gg.Context
	font  *Font
	style Style
}

func NewCanvas(width, height int, font *Font, style Style) *Canvas {
	return &Canvas{
		ctx:   gg.NewContext(width, height),
		font:  font,
		style: style,
	}
}

// SetStyle swaps colours, for preset changes.
func (c *Canvas) SetStyle(s Style) { c.style = s }

// Draw renders f and returns the canvas image. The image is reused by
// the next Draw.
func (c *Canvas) Draw(f Frame) (image.Image, error) {
	c.ctx.ClearWithColor(c.style.Background)

	if f.Video != nil {
		c.drawVideo(f.Video, f.Crop)
	}

	var errs []error
	if f.Doc != nil {
		f.Doc.Walk(func(e *dom.Element) bool {
			if err := c.drawElement(e); err != nil {
				errs = append(errs, err)
			}
			return true
		})
	}

	if f.CursorVisible && !math.IsNaN(f.Cursor.X) && !math.IsNaN(f.Cursor.Y) {
		c.ctx.SetColor(c.style.Cursor.Color())
		c.ctx.DrawCircle(f.Cursor.X, f.Cursor.Y, c.style.CursorRadius)
		if err := c.ctx.Fill(); err != nil {
			errs = append(errs, err)
		}
	}
	return c.ctx.Image(), errors.Join(errs...)
}

func (c *Canvas) drawVideo(img image.Image, crop image.Rectangle) {
	buf := gg.ImageBufFromImage(img)
	opts := gg.DrawImageOptions{
		DstWidth:  float64(c.ctx.Width()),
		DstHeight: float64(c.ctx.Height()),
	}
	if !crop.Empty() {
		opts.SrcRect = &crop
	}
	c.ctx.DrawImageEx(buf, opts)
}

func (c *Canvas) drawElement(e *dom.Element) error {
	if e.Box.W <= 0 || e.Box.H <= 0 {
		return nil
	}
	if c.style.HighlightClass != "" && e.HasClass(c.style.HighlightClass) {
		c.ctx.SetColor(c.style.Accent.Color())
		c.ctx.DrawRoundedRectangle(e.Box.X, e.Box.Y, e.Box.W, e.Box.H, 6)
		if err := c.ctx.Fill(); err != nil {
			return err
		}
	}
	if e.Text == "" || len(e.Children()) > 0 {
		return nil
	}

	x := e.Box.X
	if len([]rune(e.Text)) > 1 {
		x += (e.Box.W - c.font.Advance(e.Text)) / 2
	}
	top := e.Box.Y + (e.Box.H-c.font.LineHeight())/2
	return c.drawText(e.Text, x, top+c.font.Ascent(), e.Font)
}

// drawText fills glyph outlines under the variation's transform.
// Width scales horizontally around the origin, italic shears, and
// weight above 400 adds an outline stroke.
func (c *Canvas) drawText(s string, x, baseline float64, v dom.FontVariation) error {
	ctx := c.ctx
	ctx.Push()
	defer ctx.Pop()

	ctx.Translate(x, baseline)
	ctx.Scale(widthScale(v.Width), 1)
	ctx.Shear(-v.Italic/100*maxSlant, 0)
	ctx.SetColor(c.style.Text.Color())

	pen := 0.0
	for _, r := range s {
		o, err := c.font.outline(r)
		if err != nil {
			return err
		}
		traceOutline(ctx, o, pen)
		pen += float64(o.Advance)
	}

	stroke := strokeWidth(v.Weight)
	if stroke <= 0 {
		return ctx.Fill()
	}
	if err := ctx.FillPreserve(); err != nil {
		return err
	}
	ctx.SetLineWidth(stroke)
	return ctx.Stroke()
}

func traceOutline(ctx *gg.Context, o *text.GlyphOutline, dx float64) {
	if o.IsEmpty() {
		return
	}
	for i, seg := range o.Segments {
		p := seg.Points
		switch seg.Op {
		case text.OutlineOpMoveTo:
			if i > 0 {
				ctx.ClosePath()
			}
			ctx.MoveTo(dx+float64(p[0].X), float64(p[0].Y))
		case text.OutlineOpLineTo:
			ctx.LineTo(dx+float64(p[0].X), float64(p[0].Y))
		case text.OutlineOpQuadTo:
			ctx.QuadraticTo(dx+float64(p[0].X), float64(p[0].Y), dx+float64(p[1].X), float64(p[1].Y))
		case text.OutlineOpCubicTo:
			ctx.CubicTo(dx+float64(p[0].X), float64(p[0].Y), dx+float64(p[1].X), float64(p[1].Y), dx+float64(p[2].X), float64(p[2].Y))
		}
	}
	ctx.ClosePath()
}

// widthScale maps "wdth" to a horizontal scale with 100 as identity.
func widthScale(w float64) float64 {
	if w <= 0 {
		return 1
	}
	return w / 100
}

// strokeWidth maps "wght" to extra outline width in pixels.
func strokeWidth(weight float64) float64 {
	return math.Max(0, (weight-400)/500*1.6)
}

// Close releases the canvas context.
func (c *Canvas) Close() error {
	return c.ctx.Close()
}
