package ui

import (
	"fmt"
	"io"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"LocalSketch/internal/board"
	"LocalSketch/internal/export"
	"LocalSketch/internal/flags"
	"LocalSketch/internal/state"
)

// Stable names of the interactive elements, for tests and automation.
const (
	HookPencil            = "pencil"
	HookEraser            = "eraser"
	HookTextBox           = "textbox"
	HookSelectColor       = "select-color"
	HookUpload            = "upload"
	HookDownload          = "download"
	HookExportPDF         = "export-pdf"
	HookSelectFlag        = "select-flag"
	HookCanvas            = "canvas"
	HookModal             = "modal"
	HookModalInput        = "modal-input"
	HookModalButtonSubmit = "modal-button-submit"
	HookModalButtonClose  = "modal-button-close"
)

const pdfFileName = "canvas-drawing.pdf"

// FlagDirectory resolves country codes to flag image URLs.
type FlagDirectory interface {
	Resolve(code string) (string, bool)
}

type Options struct {
	CanvasSize fyne.Size
	Flags      FlagDirectory
	ExportDir  string
	Logger     *slog.Logger
	// OnChange runs on the UI goroutine after every surface change.
	OnChange func()
}

// Board is the main window content: toolbar, canvas and status line around
// one drawing surface.
type Board struct {
	window  fyne.Window
	surface *board.DrawingSurface
	opts    Options
	log     *slog.Logger

	canvas      *BoardWidget
	prompt      *TextPrompt
	status      *widget.Label
	toolButtons map[state.Tool]*widget.Button
	shownTool   state.Tool
	colorSelect *widget.Select
	flagSelect  *widget.Select
	flagCodes   map[string]string
	hooks       map[string]fyne.CanvasObject
	content     fyne.CanvasObject
}

func NewBoard(win fyne.Window, s *board.DrawingSurface, opts Options) *Board {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.CanvasSize.IsZero() {
		opts.CanvasSize = fyne.NewSize(1024, 680)
	}
	b := &Board{
		window:    win,
		surface:   s,
		opts:      opts,
		log:       opts.Logger,
		status:    widget.NewLabel("Ready"),
		flagCodes: make(map[string]string),
		hooks:     make(map[string]fyne.CanvasObject),
	}

	b.canvas = NewBoardWidget(s, opts.CanvasSize, b.log)
	b.prompt = NewTextPrompt(win.Canvas())
	b.hooks[HookCanvas] = b.canvas
	b.hooks[HookModal] = b.prompt.Modal
	b.hooks[HookModalInput] = b.prompt.Entry
	b.hooks[HookModalButtonSubmit] = b.prompt.Submit
	b.hooks[HookModalButtonClose] = b.prompt.Close

	s.OnTextRequest(func(state.Point) {
		b.prompt.Open(s.SubmitText, nil)
	})
	s.OnChange(b.surfaceChanged)

	toolbar := b.newToolbar()
	b.content = container.NewBorder(toolbar, b.status, nil, nil, b.canvas)

	win.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
		b.QuickExport()
	})
	return b
}

func (b *Board) Content() fyne.CanvasObject { return b.content }

// Hook returns the element registered under name, or nil.
func (b *Board) Hook(name string) fyne.CanvasObject { return b.hooks[name] }

func (b *Board) Prompt() *TextPrompt { return b.prompt }

// SetCountries fills the country selector. Call it on the UI goroutine.
func (b *Board) SetCountries(countries []flags.Country) {
	labels := make([]string, 0, len(countries))
	b.flagCodes = make(map[string]string, len(countries))
	for _, c := range countries {
		labels = append(labels, c.Label)
		b.flagCodes[c.Label] = c.Code
	}
	b.flagSelect.PlaceHolder = "Select a country"
	if len(labels) == 0 {
		b.flagSelect.PlaceHolder = "No countries available"
	}
	b.flagSelect.SetOptions(labels)
}

// SetStatus updates the status line. Call it on the UI goroutine.
func (b *Board) SetStatus(text string) {
	b.status.SetText(text)
}

func (b *Board) Status() string { return b.status.Text }

func (b *Board) surfaceChanged() {
	if t := b.surface.Tool(); t != b.shownTool {
		b.highlightTool(t)
		b.shownTool = t
	}
	b.canvas.Refresh()
	if b.opts.OnChange != nil {
		b.opts.OnChange()
	}
}

func (b *Board) selectTool(t state.Tool) {
	b.surface.SelectTool(t)
}

func (b *Board) selectColor(name string) {
	c, err := state.ParseColor(name)
	if err != nil {
		b.log.Warn("color selection ignored", "error", err)
		return
	}
	if err := b.surface.SelectColor(c); err != nil {
		b.log.Warn("color selection ignored", "error", err)
	}
}

// selectFlag overlays the chosen country's flag. An empty or unknown
// selection still resets the tool to the pencil.
func (b *Board) selectFlag(label string) {
	var url string
	if code, ok := b.flagCodes[label]; ok && b.opts.Flags != nil {
		url, _ = b.opts.Flags.Resolve(code)
	}
	b.surface.ApplyRemoteOverlay(url)
	if url != "" {
		b.SetStatus("Loading flag of " + label)
	}
}

// Upload reads an image and hands it to the surface.
func (b *Board) Upload(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	b.surface.UploadImage(data)
	return nil
}

// Download writes the drawing as PNG.
func (b *Board) Download(w io.Writer) error {
	data, err := b.surface.ExportImage()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// ExportPDF writes the drawing as a one page PDF.
func (b *Board) ExportPDF(w io.Writer) error {
	data, err := b.surface.ExportImage()
	if err != nil {
		return err
	}
	return export.WritePDF(w, data)
}

// QuickExport saves the drawing as PNG in the configured export directory.
func (b *Board) QuickExport() (string, error) {
	data, err := b.surface.ExportImage()
	if err != nil {
		b.log.Warn("quick export failed", "error", err)
		b.SetStatus("Nothing to export yet")
		return "", err
	}
	path, err := export.WritePNG(b.opts.ExportDir, data)
	if err != nil {
		b.log.Warn("quick export failed", "error", err)
		b.SetStatus("Export failed: " + err.Error())
		return "", err
	}
	b.log.Info("drawing exported", "path", path)
	b.SetStatus("Saved " + path)
	return path, nil
}

func (b *Board) showUpload() {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			b.fail("open image", err)
			return
		}
		if r == nil {
			return
		}
		defer r.Close()
		if err := b.Upload(r); err != nil {
			b.fail("open image", err)
			return
		}
		b.SetStatus("Loading " + r.URI().Name())
	}, b.window)
	d.SetFilter(storage.NewMimeTypeFileFilter([]string{"image/*"}))
	d.Show()
}

func (b *Board) showDownload() {
	b.showSave(export.PNGFileName, b.Download)
}

func (b *Board) showPDFExport() {
	b.showSave(pdfFileName, b.ExportPDF)
}

func (b *Board) showSave(name string, write func(io.Writer) error) {
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			b.fail("save "+name, err)
			return
		}
		if w == nil {
			return
		}
		werr := write(w)
		if cerr := w.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			b.fail("save "+name, werr)
			return
		}
		b.log.Info("drawing saved", "uri", w.URI().String())
		b.SetStatus("Saved " + w.URI().Name())
	}, b.window)
	d.SetFileName(name)
	d.Show()
}

// fail reports err in the status line only; errors never block the user.
func (b *Board) fail(action string, err error) {
	b.log.Warn(action+" failed", "error", err)
	b.SetStatus(action + " failed: " + err.Error())
}
