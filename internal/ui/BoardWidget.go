package ui

import (
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"LocalSketch/internal/board"
	"LocalSketch/internal/raster"
)

// BoardWidget shows the drawing surface's raster buffer and turns mouse
// input into pointer operations. The buffer is allocated at the widget's
// first non-empty size and stretched if the widget is resized later.
type BoardWidget struct {
	widget.BaseWidget

	surface *board.DrawingSurface
	minSize fyne.Size
	log     *slog.Logger

	bufW, bufH int
	pressed    bool
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)

func NewBoardWidget(s *board.DrawingSurface, minSize fyne.Size, logger *slog.Logger) *BoardWidget {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b := &BoardWidget{surface: s, minSize: minSize, log: logger}
	b.ExtendBaseWidget(b)
	return b
}

func (b *BoardWidget) Resize(size fyne.Size) {
	b.BaseWidget.Resize(size)
	b.attach(size)
}

// attach sizes the raster buffer once.
func (b *BoardWidget) attach(size fyne.Size) {
	if b.bufW != 0 || size.Width < 1 || size.Height < 1 {
		return
	}
	w, h := int(size.Width), int(size.Height)
	rc, err := raster.New(w, h)
	if err != nil {
		b.log.Error("allocate raster buffer", "error", err)
		return
	}
	if err := b.surface.Attach(rc); err != nil {
		b.log.Error("attach raster buffer", "error", err)
		return
	}
	b.bufW, b.bufH = w, h
	b.Refresh()
}

// toBuffer maps a widget position to buffer pixels.
func (b *BoardWidget) toBuffer(p fyne.Position) (float64, float64) {
	size := b.Size()
	if b.bufW == 0 || size.Width <= 0 || size.Height <= 0 {
		return float64(p.X), float64(p.Y)
	}
	return float64(p.X) * float64(b.bufW) / float64(size.Width),
		float64(p.Y) * float64(b.bufH) / float64(size.Height)
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.pressed = true
	b.surface.PointerDown(b.toBuffer(e.Position))
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.pressed = false
	b.surface.PointerUp()
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.surface.PointerMove(b.toBuffer(e.Position))
}

func (b *BoardWidget) DragEnd() {
	b.pressed = false
	b.surface.PointerUp()
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent) {}

func (b *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	if b.pressed {
		b.surface.PointerMove(b.toBuffer(e.Position))
	}
}

func (b *BoardWidget) MouseOut() {
	b.pressed = false
	b.surface.PointerLeave()
}

func (b *BoardWidget) MinSize() fyne.Size {
	b.ExtendBaseWidget(b)
	return b.minSize
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardWidgetRenderer{board: b}
	r.background = canvas.NewRectangle(color.White)
	r.image = canvas.NewImageFromImage(nil)
	r.image.FillMode = canvas.ImageFillStretch
	r.image.ScaleMode = canvas.ImageScalePixels
	r.refreshImage()
	return r
}

type boardWidgetRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
	image      *canvas.Image
}

func (r *boardWidgetRenderer) refreshImage() {
	if snap := r.board.surface.Snapshot(); snap != nil {
		r.image.Image = snap
	}
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.background, r.image}
}

func (r *boardWidgetRenderer) Refresh() {
	r.refreshImage()
	r.image.Refresh()
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.image.Resize(size)
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return r.board.minSize
}

func (r *boardWidgetRenderer) Destroy() {}
