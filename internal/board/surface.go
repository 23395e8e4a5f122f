// Package board implements the drawing surface: tool and color state,
// stroke sessions, text placement and image loads over a raster context.
package board

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"sync"

	"LocalSketch/internal/imageio"
	"LocalSketch/internal/raster"
	"LocalSketch/internal/state"
)

var (
	ErrAlreadyAttached = errors.New("board: raster context already attached")
	ErrNotAttached     = errors.New("board: no raster context attached")
)

const (
	PencilWidth = 5
	EraserWidth = 20

	textHeight   = raster.DefaultFontSize
	textPadX     = 2
	textPadY     = 4
	textBoxWidth = 1
)

// Overlay placement for remote images.
const (
	OverlayX      = 10
	OverlayY      = 10
	OverlayWidth  = 75
	OverlayHeight = 50
)

// Context is the raster drawing context the surface draws into.
// *raster.Surface implements it.
type Context interface {
	Size() (width, height int)
	SetComposite(raster.Composite)
	SetLineWidth(float64)
	SetLineCap(raster.LineCap)
	SetColor(color.Color)
	BeginPath(x, y float64)
	LineTo(x, y float64)
	ClosePath()
	StrokeRect(x, y, w, h float64)
	MeasureText(s string) float64
	FillText(s string, x, y float64)
	DrawImage(img image.Image, x, y, w, h float64)
	Image() *image.NRGBA
}

// Fetcher retrieves remote image bytes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Decoder turns raw file bytes into an image.
type Decoder func(data []byte) (image.Image, error)

type Option func(*DrawingSurface)

func WithLogger(l *slog.Logger) Option {
	return func(s *DrawingSurface) {
		if l != nil {
			s.log = l
		}
	}
}

// WithScheduler sets how completed image loads are handed back to the
// owner of the surface, e.g. fyne.Do to land on the UI goroutine.
// The default runs the completion on the loading goroutine.
func WithScheduler(run func(func())) Option {
	return func(s *DrawingSurface) {
		if run != nil {
			s.schedule = run
		}
	}
}

func WithFetcher(f Fetcher) Option {
	return func(s *DrawingSurface) { s.fetcher = f }
}

func WithDecoder(d Decoder) Option {
	return func(s *DrawingSurface) {
		if d != nil {
			s.decode = d
		}
	}
}

type strokeSession struct {
	id string
}

// DrawingSurface owns the tool state of a single raster canvas. All
// methods are safe for concurrent use; callbacks run without the lock held.
type DrawingSurface struct {
	mu sync.Mutex

	rc     Context
	tool   state.Tool
	color  state.Color
	stroke *strokeSession

	pendingText   *state.Point
	overlaySource string

	tokens  state.Tokens
	cancels map[state.LoadKind]context.CancelFunc
	loads   sync.WaitGroup
	base    context.Context
	stop    context.CancelFunc

	schedule      func(func())
	fetcher       Fetcher
	decode        Decoder
	onTextRequest func(state.Point)
	onChange      func()

	log *slog.Logger
}

func NewDrawingSurface(opts ...Option) *DrawingSurface {
	base, stop := context.WithCancel(context.Background())
	s := &DrawingSurface{
		tool:     state.ToolPencil,
		color:    state.Black,
		cancels:  make(map[state.LoadKind]context.CancelFunc),
		base:     base,
		stop:     stop,
		schedule: func(f func()) { f() },
		decode:   imageio.Decode,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnTextRequest registers the callback that opens the text prompt when the
// text tool is used.
func (s *DrawingSurface) OnTextRequest(fn func(at state.Point)) {
	s.mu.Lock()
	s.onTextRequest = fn
	s.mu.Unlock()
}

// OnChange registers a callback invoked after the raster buffer or the
// tool state changed.
func (s *DrawingSurface) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Attach hands the sized raster context to the surface and applies the
// default stroke configuration. It may be called once.
func (s *DrawingSurface) Attach(rc Context) error {
	if rc == nil {
		return ErrNotAttached
	}
	s.mu.Lock()
	if s.rc != nil {
		s.mu.Unlock()
		return ErrAlreadyAttached
	}
	s.rc = rc
	rc.SetLineCap(raster.CapRound)
	s.applyTool()
	w, h := rc.Size()
	s.mu.Unlock()

	s.log.Info("raster context attached", "width", w, "height", h)
	s.changed()
	return nil
}

func (s *DrawingSurface) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rc != nil
}

func (s *DrawingSurface) Tool() state.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

func (s *DrawingSurface) Color() state.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.color
}

func (s *DrawingSurface) StrokeActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stroke != nil
}

// PendingText returns the anchor waiting for text, if any.
func (s *DrawingSurface) PendingText() (state.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingText == nil {
		return state.Point{}, false
	}
	return *s.pendingText, true
}

// OverlaySource returns the URL of the last requested overlay.
func (s *DrawingSurface) OverlaySource() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlaySource
}

func (s *DrawingSurface) SelectTool(t state.Tool) {
	s.mu.Lock()
	s.tool = t
	s.applyTool()
	s.mu.Unlock()

	s.log.Debug("tool selected", "tool", t)
	s.changed()
}

// SelectColor sets the active color. While the eraser is active the raster
// context keeps erasing and picks the color up on the next tool change.
func (s *DrawingSurface) SelectColor(c state.Color) error {
	if !state.InPalette(c) {
		return fmt.Errorf("%w: %q", state.ErrUnknownColor, c.Name)
	}
	s.mu.Lock()
	s.color = c
	if s.rc != nil && s.tool != state.ToolEraser {
		s.rc.SetColor(c.Value)
	}
	s.mu.Unlock()

	s.log.Debug("color selected", "color", c)
	s.changed()
	return nil
}

// PointerDown starts a stroke, or with the text tool records the text
// anchor and asks for the text.
func (s *DrawingSurface) PointerDown(x, y float64) {
	s.mu.Lock()
	if s.tool == state.ToolTextBox {
		at := state.Point{X: x, Y: y}
		s.pendingText = &at
		open := s.onTextRequest
		s.mu.Unlock()

		if open != nil {
			open(at)
		}
		return
	}
	if s.rc == nil {
		s.mu.Unlock()
		return
	}
	s.stroke = &strokeSession{id: state.NewSessionID()}
	s.rc.BeginPath(x, y)
	id := s.stroke.id
	s.mu.Unlock()

	s.log.Debug("stroke started", "stroke", id, "x", x, "y", y)
}

// PointerMove extends the active stroke to (x, y). The tool configuration is
// re-applied first so a tool change mid-stroke takes effect on the next
// segment.
func (s *DrawingSurface) PointerMove(x, y float64) {
	s.mu.Lock()
	if s.stroke == nil || s.rc == nil {
		s.mu.Unlock()
		return
	}
	s.applyTool()
	s.rc.LineTo(x, y)
	s.mu.Unlock()

	s.changed()
}

func (s *DrawingSurface) PointerUp() {
	s.endStroke()
}

func (s *DrawingSurface) PointerLeave() {
	s.endStroke()
}

func (s *DrawingSurface) endStroke() {
	s.mu.Lock()
	if s.stroke == nil {
		s.mu.Unlock()
		return
	}
	id := s.stroke.id
	s.stroke = nil
	if s.rc != nil {
		s.rc.ClosePath()
	}
	s.mu.Unlock()

	s.log.Debug("stroke ended", "stroke", id)
}

// SubmitText draws text at the pending anchor inside an outlined box, then
// clears the anchor. Without an anchor it does nothing.
func (s *DrawingSurface) SubmitText(text string) {
	s.mu.Lock()
	if s.rc == nil || s.pendingText == nil {
		s.mu.Unlock()
		return
	}
	at := *s.pendingText
	s.pendingText = nil

	rc := s.rc
	rc.SetComposite(raster.Paint)
	rc.SetColor(s.color.Value)
	rc.SetLineWidth(textBoxWidth)
	w := rc.MeasureText(text)
	rc.StrokeRect(at.X-textPadX, at.Y-textHeight, w+2*textPadX, textHeight+textPadY)
	rc.FillText(text, at.X, at.Y)
	s.applyTool()
	s.mu.Unlock()

	s.log.Debug("text placed", "x", at.X, "y", at.Y, "length", len(text))
	s.changed()
}

// UploadImage decodes data in the background and draws it stretched over
// the whole buffer. A later upload supersedes an earlier one still in
// flight. Failures are logged and leave the buffer untouched.
func (s *DrawingSurface) UploadImage(data []byte) {
	s.startLoad(state.LoadUpload, func(context.Context) (image.Image, error) {
		return s.decode(data)
	}, func(rc Context, img image.Image) {
		w, h := rc.Size()
		rc.DrawImage(img, 0, 0, float64(w), float64(h))
	})
}

// ApplyRemoteOverlay switches back to the pencil, then fetches the image at
// url and draws it in the overlay slot. A later overlay supersedes an
// earlier one still in flight.
func (s *DrawingSurface) ApplyRemoteOverlay(url string) {
	s.mu.Lock()
	s.tool = state.ToolPencil
	s.applyTool()
	s.overlaySource = url
	fetcher := s.fetcher
	s.mu.Unlock()
	s.changed()

	if url == "" {
		return
	}
	if fetcher == nil {
		s.log.Warn("overlay requested without a fetcher", "url", url)
		return
	}
	s.startLoad(state.LoadOverlay, func(ctx context.Context) (image.Image, error) {
		data, err := fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		return s.decode(data)
	}, func(rc Context, img image.Image) {
		rc.DrawImage(img, OverlayX, OverlayY, OverlayWidth, OverlayHeight)
	})
}

// ExportImage encodes the whole buffer as PNG. Only the copy of the buffer
// is taken under the lock.
func (s *DrawingSurface) ExportImage() ([]byte, error) {
	snap := s.Snapshot()
	if snap == nil {
		return nil, ErrNotAttached
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, snap); err != nil {
		return nil, fmt.Errorf("board: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Snapshot returns a copy of the buffer, or nil before Attach.
func (s *DrawingSurface) Snapshot() *image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rc == nil {
		return nil
	}
	return s.rc.Image()
}

// Wait blocks until every image load started so far has finished.
func (s *DrawingSurface) Wait() {
	s.loads.Wait()
}

// Close cancels in-flight loads and waits for them to return.
func (s *DrawingSurface) Close() {
	s.stop()
	s.loads.Wait()
}

// applyTool configures the raster context for the active tool. Callers hold
// s.mu.
func (s *DrawingSurface) applyTool() {
	if s.rc == nil {
		return
	}
	if s.tool == state.ToolEraser {
		s.rc.SetComposite(raster.Erase)
		s.rc.SetLineWidth(EraserWidth)
		return
	}
	s.rc.SetComposite(raster.Paint)
	s.rc.SetLineWidth(PencilWidth)
	s.rc.SetColor(s.color.Value)
}

func (s *DrawingSurface) startLoad(kind state.LoadKind, load func(context.Context) (image.Image, error), draw func(Context, image.Image)) {
	s.mu.Lock()
	if s.rc == nil {
		s.mu.Unlock()
		s.log.Warn("image load ignored, no raster context", "kind", kind)
		return
	}
	if cancel := s.cancels[kind]; cancel != nil {
		cancel()
	}
	ctx, cancel := context.WithCancel(s.base)
	token := s.tokens.Next(kind)
	s.cancels[kind] = cancel
	s.loads.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.loads.Done()
		img, err := load(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.log.Debug("image load canceled", "kind", kind, "token", token)
				return
			}
			s.log.Warn("image load failed", "kind", kind, "error", err)
			return
		}
		s.schedule(func() { s.finishLoad(kind, token, img, draw) })
	}()
}

func (s *DrawingSurface) finishLoad(kind state.LoadKind, token uint64, img image.Image, draw func(Context, image.Image)) {
	s.mu.Lock()
	if !s.tokens.Current(kind, token) {
		s.mu.Unlock()
		s.log.Debug("discarding stale image", "kind", kind, "token", token)
		return
	}
	if cancel := s.cancels[kind]; cancel != nil {
		cancel()
		delete(s.cancels, kind)
	}
	draw(s.rc, img)
	s.mu.Unlock()

	s.log.Debug("image drawn", "kind", kind, "token", token)
	s.changed()
}

func (s *DrawingSurface) changed() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}
