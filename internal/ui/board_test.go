package ui

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LocalSketch/internal/board"
	"LocalSketch/internal/flags"
	"LocalSketch/internal/state"
)

type directory map[string]string

func (d directory) Resolve(code string) (string, bool) {
	url, ok := d[code]
	return url, ok
}

type pngFetcher struct {
	mu   sync.Mutex
	urls []string
	data []byte
}

func (f *pngFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()
	return f.data, nil
}

func solidPNG(t *testing.T, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func assertColor(t *testing.T, want, got color.NRGBA) {
	t.Helper()
	assert.InDelta(t, want.R, got.R, 2)
	assert.InDelta(t, want.G, got.G, 2)
	assert.InDelta(t, want.B, got.B, 2)
	assert.InDelta(t, want.A, got.A, 2)
}

func newBoard(t *testing.T, opts Options, surfaceOpts ...board.Option) (*Board, *board.DrawingSurface) {
	t.Helper()
	a := test.NewTempApp(t)
	surfaceOpts = append([]board.Option{board.WithScheduler(fyne.Do)}, surfaceOpts...)
	s := board.NewDrawingSurface(surfaceOpts...)
	t.Cleanup(s.Close)

	if opts.CanvasSize.IsZero() {
		opts.CanvasSize = fyne.NewSize(300, 200)
	}
	w, b := NewWindow(a, s, opts)
	t.Cleanup(w.Close)
	return b, s
}

func mouse(x, y float32) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
	}
}

func drag(x, y float32) *fyne.DragEvent {
	return &fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}}
}

func TestHooksRegistered(t *testing.T) {
	b, _ := newBoard(t, Options{})
	for _, name := range []string{
		HookPencil, HookEraser, HookTextBox, HookSelectColor, HookUpload, HookDownload,
		HookSelectFlag, HookCanvas, HookModal, HookModalInput, HookModalButtonSubmit,
		HookModalButtonClose, HookExportPDF,
	} {
		assert.NotNil(t, b.Hook(name), name)
	}
	assert.Nil(t, b.Hook("missing"))
}

func TestCanvasAttachesOnLayout(t *testing.T) {
	b, s := newBoard(t, Options{})
	require.True(t, s.Attached())

	c := b.Hook(HookCanvas).(*BoardWidget)
	snap := s.Snapshot()
	assert.Positive(t, c.bufW)
	assert.Equal(t, image.Rect(0, 0, c.bufW, c.bufH), snap.Bounds())

	c.Resize(c.Size().AddWidthHeight(40, 40))
	assert.Equal(t, snap.Bounds(), s.Snapshot().Bounds(), "buffer is sized once")
}

func TestToolButtons(t *testing.T) {
	b, s := newBoard(t, Options{})

	test.Tap(b.Hook(HookEraser).(*widget.Button))
	assert.Equal(t, state.ToolEraser, s.Tool())
	assert.Equal(t, widget.HighImportance, b.Hook(HookEraser).(*widget.Button).Importance)
	assert.Equal(t, widget.MediumImportance, b.Hook(HookPencil).(*widget.Button).Importance)

	test.Tap(b.Hook(HookTextBox).(*widget.Button))
	assert.Equal(t, state.ToolTextBox, s.Tool())

	test.Tap(b.Hook(HookPencil).(*widget.Button))
	assert.Equal(t, state.ToolPencil, s.Tool())
	assert.Equal(t, widget.HighImportance, b.Hook(HookPencil).(*widget.Button).Importance)
}

func TestColorSelect(t *testing.T) {
	b, s := newBoard(t, Options{})
	sel := b.Hook(HookSelectColor).(*widget.Select)
	assert.Equal(t, "black", sel.Selected)
	assert.Equal(t, state.PaletteNames(), sel.Options)

	sel.SetSelected("red")
	assert.Equal(t, state.Red, s.Color())
}

func TestDrawWithMouse(t *testing.T) {
	b, s := newBoard(t, Options{})
	c := b.Hook(HookCanvas).(*BoardWidget)

	c.MouseDown(mouse(20, 40))
	c.Dragged(drag(50, 40))
	c.Dragged(drag(80, 40))
	c.DragEnd()
	assert.False(t, s.StrokeActive())

	x, y := c.toBuffer(fyne.NewPos(50, 40))
	px := s.Snapshot().NRGBAAt(int(x), int(y))
	assert.Greater(t, px.A, uint8(200))
	assert.Less(t, px.R, uint8(60))

	c.Dragged(drag(80, 120))
	x, y = c.toBuffer(fyne.NewPos(80, 100))
	assert.Zero(t, s.Snapshot().NRGBAAt(int(x), int(y)).A, "no stroke after release")
}

func TestMouseOutEndsStroke(t *testing.T) {
	b, s := newBoard(t, Options{})
	c := b.Hook(HookCanvas).(*BoardWidget)

	c.MouseDown(mouse(20, 40))
	require.True(t, s.StrokeActive())
	c.MouseOut()
	assert.False(t, s.StrokeActive())
}

func TestSecondaryButtonIgnored(t *testing.T) {
	b, s := newBoard(t, Options{})
	c := b.Hook(HookCanvas).(*BoardWidget)

	e := mouse(20, 40)
	e.Button = desktop.MouseButtonSecondary
	c.MouseDown(e)
	assert.False(t, s.StrokeActive())
}

func TestTextToolOpensPrompt(t *testing.T) {
	b, s := newBoard(t, Options{})
	c := b.Hook(HookCanvas).(*BoardWidget)
	test.Tap(b.Hook(HookTextBox).(*widget.Button))
	before := s.Snapshot()

	c.MouseDown(mouse(60, 80))
	require.True(t, b.Prompt().Visible())
	_, pending := s.PendingText()
	require.True(t, pending)

	b.Hook(HookModalInput).(*widget.Entry).SetText("Hello")
	test.Tap(b.Hook(HookModalButtonSubmit).(*widget.Button))

	assert.False(t, b.Prompt().Visible())
	assert.Empty(t, b.Hook(HookModalInput).(*widget.Entry).Text)
	_, pending = s.PendingText()
	assert.False(t, pending)
	assert.NotEqual(t, before.Pix, s.Snapshot().Pix)
}

func TestPromptClose(t *testing.T) {
	a := test.NewTempApp(t)
	w := a.NewWindow("prompt")
	w.Resize(fyne.NewSize(400, 300))
	t.Cleanup(w.Close)
	p := NewTextPrompt(w.Canvas())

	var calls []string
	p.Open(func(s string) { calls = append(calls, "submit:"+s) }, func() { calls = append(calls, "close") })
	require.True(t, p.Visible())
	p.Entry.SetText("draft")
	test.Tap(p.Close)
	assert.Equal(t, []string{"close"}, calls)
	assert.False(t, p.Visible())

	calls = nil
	p.Open(func(s string) { calls = append(calls, "submit:"+s) }, func() { calls = append(calls, "close") })
	test.Tap(p.Submit)
	assert.Equal(t, []string{"submit:draft", "close"}, calls)
	assert.Empty(t, p.Entry.Text)

	test.Tap(p.Submit)
	assert.Len(t, calls, 2, "submit while hidden is ignored")
}

func TestPromptSubmitEmpty(t *testing.T) {
	a := test.NewTempApp(t)
	w := a.NewWindow("prompt")
	w.Resize(fyne.NewSize(400, 300))
	t.Cleanup(w.Close)
	p := NewTextPrompt(w.Canvas())

	got := "unset"
	p.Open(func(s string) { got = s }, nil)
	test.Tap(p.Submit)
	assert.Equal(t, "", got)
}

func TestSelectFlag(t *testing.T) {
	fetcher := &pngFetcher{data: solidPNG(t, color.NRGBA{R: 255, A: 255})}
	b, s := newBoard(t, Options{Flags: directory{"AT": "https://flags.example/at.png"}}, board.WithFetcher(fetcher))
	b.SetCountries([]flags.Country{
		{Label: "Austria", Code: "AT", ImageURL: "https://flags.example/at.png"},
		{Label: "Brazil", Code: "BR", ImageURL: "https://flags.example/br.png"},
	})
	sel := b.Hook(HookSelectFlag).(*widget.Select)
	assert.Equal(t, []string{"Austria", "Brazil"}, sel.Options)

	test.Tap(b.Hook(HookEraser).(*widget.Button))
	sel.SetSelected("Austria")
	s.Wait()

	assert.Equal(t, state.ToolPencil, s.Tool())
	assert.Equal(t, widget.HighImportance, b.Hook(HookPencil).(*widget.Button).Importance)
	assert.Equal(t, "https://flags.example/at.png", s.OverlaySource())
	assert.Equal(t, []string{"https://flags.example/at.png"}, fetcher.urls)
	assertColor(t, color.NRGBA{R: 255, A: 255}, s.Snapshot().NRGBAAt(40, 30))

	// Brazil is listed but the directory cannot resolve it.
	sel.SetSelected("Brazil")
	s.Wait()
	assert.Equal(t, "", s.OverlaySource())
	assert.Len(t, fetcher.urls, 1)
}

func TestSetCountriesEmpty(t *testing.T) {
	b, _ := newBoard(t, Options{})
	b.SetCountries(nil)
	sel := b.Hook(HookSelectFlag).(*widget.Select)
	assert.Empty(t, sel.Options)
	assert.Equal(t, "No countries available", sel.PlaceHolder)
}

func TestUpload(t *testing.T) {
	b, s := newBoard(t, Options{})
	require.NoError(t, b.Upload(bytes.NewReader(solidPNG(t, color.NRGBA{B: 255, A: 255}))))
	s.Wait()
	assertColor(t, color.NRGBA{B: 255, A: 255}, s.Snapshot().NRGBAAt(100, 100))
}

func TestDownloadAndPDF(t *testing.T) {
	b, _ := newBoard(t, Options{})

	var buf bytes.Buffer
	require.NoError(t, b.Download(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, b.canvas.bufW, img.Bounds().Dx())

	buf.Reset()
	require.NoError(t, b.ExportPDF(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestQuickExport(t *testing.T) {
	dir := t.TempDir()
	b, _ := newBoard(t, Options{ExportDir: dir})

	path, err := b.QuickExport()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "canvas-drawing.png"), path)
	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.Contains(t, b.Status(), "Saved")
}

func TestOnChangeOption(t *testing.T) {
	changes := 0
	b, _ := newBoard(t, Options{OnChange: func() { changes++ }})
	before := changes
	test.Tap(b.Hook(HookEraser).(*widget.Button))
	assert.Equal(t, before+1, changes)
}

func TestFailReportsInStatusLine(t *testing.T) {
	b, _ := newBoard(t, Options{})
	b.fail("open image", errors.New("unsupported file"))

	assert.Equal(t, "open image failed: unsupported file", b.Status())
	assert.Nil(t, b.window.Canvas().Overlays().Top(), "no dialog is shown")
}
