// Package raster provides the pixel surface the board draws into.
//
// A Surface behaves like an HTML canvas 2D context reduced to what a
// sketchpad needs: paint or erase compositing, round-capped segment
// strokes, rectangle outlines, text and scaled images. The buffer holds
// premultiplied RGBA; Image converts it to straight alpha.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	xdraw "golang.org/x/image/draw"
)

var ErrInvalidSize = errors.New("raster: invalid surface size")

// Composite selects how new pixels combine with existing ones.
type Composite int

const (
	// Paint draws source-over with the current color.
	Paint Composite = iota
	// Erase clears destination alpha wherever the shape covers it.
	Erase
)

func (c Composite) String() string {
	if c == Erase {
		return "erase"
	}
	return "paint"
}

type LineCap int

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

func (c LineCap) gg() gg.LineCap {
	switch c {
	case CapRound:
		return gg.LineCapRound
	case CapSquare:
		return gg.LineCapSquare
	}
	return gg.LineCapButt
}

// SetLogger routes the rasterizer's diagnostics to l.
func SetLogger(l *slog.Logger) {
	gg.SetLogger(l)
}

// Surface is a fixed-size raster buffer with canvas-like drawing state.
type Surface struct {
	width, height int

	pm *gg.Pixmap
	dc *gg.Context

	composite Composite
	lineWidth float64
	lineCap   LineCap
	color     color.Color
	face      text.Face

	open         bool
	lastX, lastY float64
}

// New allocates a transparent surface of the given size in pixels.
func New(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	face, err := DefaultFace(DefaultFontSize)
	if err != nil {
		return nil, err
	}

	pm := gg.NewPixmap(width, height)
	s := &Surface{
		width:  width,
		height: height,
		pm:     pm,
		dc:     gg.NewContext(width, height, gg.WithPixmap(pm)),
		face:   face,
	}
	s.dc.SetFont(face)
	s.SetLineWidth(1)
	s.SetLineCap(CapButt)
	s.SetColor(color.Black)
	return s, nil
}

func (s *Surface) Size() (width, height int) { return s.width, s.height }

func (s *Surface) SetComposite(c Composite) { s.composite = c }

func (s *Surface) Composite() Composite { return s.composite }

func (s *Surface) SetLineWidth(w float64) {
	s.lineWidth = w
	s.dc.SetLineWidth(w)
}

func (s *Surface) LineWidth() float64 { return s.lineWidth }

func (s *Surface) SetLineCap(c LineCap) {
	s.lineCap = c
	s.dc.SetLineCap(c.gg())
}

// SetColor sets the stroke and fill color.
func (s *Surface) SetColor(c color.Color) {
	s.color = c
	s.dc.SetColor(c)
}

func (s *Surface) Color() color.Color { return s.color }

// BeginPath starts a new path at (x, y). Nothing is drawn until LineTo.
func (s *Surface) BeginPath(x, y float64) {
	s.open = true
	s.lastX, s.lastY = x, y
}

// LineTo strokes the segment from the previous path point to (x, y) with
// the current composite, width, cap and color. Without an open path it
// behaves like BeginPath.
func (s *Surface) LineTo(x, y float64) {
	if !s.open {
		s.BeginPath(x, y)
		return
	}
	x0, y0 := s.lastX, s.lastY
	s.lastX, s.lastY = x, y

	pad := s.lineWidth/2 + 2
	bounds := boundsOf(math.Min(x0, x)-pad, math.Min(y0, y)-pad, math.Max(x0, x)+pad, math.Max(y0, y)+pad)
	s.render(bounds, func(dc *gg.Context, ox, oy float64) {
		dc.MoveTo(x0-ox, y0-oy)
		dc.LineTo(x-ox, y-oy)
		_ = dc.Stroke()
	})
}

// ClosePath ends the current path.
func (s *Surface) ClosePath() {
	s.open = false
}

// StrokeRect outlines the rectangle with the current line width.
func (s *Surface) StrokeRect(x, y, w, h float64) {
	pad := s.lineWidth/2 + 2
	bounds := boundsOf(x-pad, y-pad, x+w+pad, y+h+pad)
	s.render(bounds, func(dc *gg.Context, ox, oy float64) {
		dc.DrawRectangle(x-ox, y-oy, w, h)
		_ = dc.Stroke()
	})
}

// MeasureText returns the advance width of str in the current face.
func (s *Surface) MeasureText(str string) float64 {
	w, _ := s.dc.MeasureString(str)
	return w
}

// FillText draws str with its baseline starting at (x, y).
func (s *Surface) FillText(str string, x, y float64) {
	w, h := s.dc.MeasureString(str)
	bounds := boundsOf(x-2, y-h-2, x+w+2, y+h+2)
	s.render(bounds, func(dc *gg.Context, ox, oy float64) {
		dc.DrawString(str, x-ox, y-oy)
	})
}

// DrawImage scales img into the rectangle (x, y, w, h). Images always
// composite source-over regardless of the current composite.
func (s *Surface) DrawImage(img image.Image, x, y, w, h float64) {
	if img == nil || w <= 0 || h <= 0 {
		return
	}
	dr := image.Rect(int(math.Round(x)), int(math.Round(y)), int(math.Round(x+w)), int(math.Round(y+h)))
	xdraw.BiLinear.Scale(s.view(), dr, img, img.Bounds(), xdraw.Over, nil)
}

// Image returns a straight-alpha copy of the buffer.
func (s *Surface) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.width, s.height))
	xdraw.Draw(img, img.Rect, s.view(), image.Point{}, xdraw.Src)
	return img
}

// view aliases the premultiplied pixmap memory as an image.
func (s *Surface) view() *image.RGBA {
	return &image.RGBA{
		Pix:    s.pm.Data(),
		Stride: s.width * 4,
		Rect:   image.Rect(0, 0, s.width, s.height),
	}
}

// EncodePNG writes the whole buffer as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	return png.Encode(w, s.Image())
}

// render runs draw against the live context when painting. When erasing,
// draw renders an opaque mask of the shape clipped to bounds, and the
// mask's coverage is removed from the buffer.
func (s *Surface) render(bounds image.Rectangle, draw func(dc *gg.Context, ox, oy float64)) {
	if s.composite != Erase {
		draw(s.dc, 0, 0)
		return
	}

	bounds = bounds.Intersect(image.Rect(0, 0, s.width, s.height))
	if bounds.Empty() {
		return
	}
	mask := gg.NewPixmap(bounds.Dx(), bounds.Dy())
	mdc := gg.NewContext(bounds.Dx(), bounds.Dy(), gg.WithPixmap(mask))
	mdc.SetLineWidth(s.lineWidth)
	mdc.SetLineCap(s.lineCap.gg())
	mdc.SetFont(s.face)
	mdc.SetColor(color.White)
	draw(mdc, float64(bounds.Min.X), float64(bounds.Min.Y))
	s.clearCoverage(mask, bounds.Min)
}

// clearCoverage scales every premultiplied channel by the uncovered share.
func (s *Surface) clearCoverage(mask *gg.Pixmap, at image.Point) {
	dst := s.pm.Data()
	src := mask.Data()
	mw := mask.Width()
	for y := 0; y < mask.Height(); y++ {
		for x := 0; x < mw; x++ {
			m := uint32(src[(y*mw+x)*4+3])
			if m == 0 {
				continue
			}
			i := ((at.Y+y)*s.width + at.X + x) * 4
			keep := 255 - m
			for c := i; c < i+4; c++ {
				dst[c] = uint8((uint32(dst[c])*keep + 127) / 255)
			}
		}
	}
}

func boundsOf(x0, y0, x1, y1 float64) image.Rectangle {
	return image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1)), int(math.Ceil(y1)))
}
