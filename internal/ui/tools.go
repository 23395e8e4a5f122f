package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"LocalSketch/internal/state"
)

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    state.Color
	OnTapped func(state.Color)
}

func newColorSwatch(c state.Color, tapped func(state.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color.Value)
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// --- The Main Toolbar ---
func (b *Board) newToolbar() fyne.CanvasObject {
	b.toolButtons = map[state.Tool]*widget.Button{
		state.ToolPencil:  widget.NewButtonWithIcon("Pencil", theme.DocumentCreateIcon(), func() { b.selectTool(state.ToolPencil) }),
		state.ToolEraser:  widget.NewButtonWithIcon("Eraser", theme.DeleteIcon(), func() { b.selectTool(state.ToolEraser) }),
		state.ToolTextBox: widget.NewButton("Text box", func() { b.selectTool(state.ToolTextBox) }),
	}
	b.shownTool = b.surface.Tool()
	b.highlightTool(b.shownTool)

	// --- Color Palette ---
	b.colorSelect = widget.NewSelect(state.PaletteNames(), b.selectColor)
	b.colorSelect.SetSelected(b.surface.Color().Name)
	swatches := container.NewHBox()
	for _, c := range state.Palette {
		swatches.Add(newColorSwatch(c, func(c state.Color) { b.colorSelect.SetSelected(c.Name) }))
	}

	// --- Files ---
	upload := widget.NewButtonWithIcon("Upload", theme.UploadIcon(), b.showUpload)
	download := widget.NewButtonWithIcon("Download", theme.DownloadIcon(), b.showDownload)
	pdf := widget.NewButtonWithIcon("PDF", theme.DocumentSaveIcon(), b.showPDFExport)

	// --- Country flags ---
	b.flagSelect = widget.NewSelect(nil, b.selectFlag)
	b.flagSelect.PlaceHolder = "Loading countries..."
	flagBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(220, b.flagSelect.MinSize().Height)), b.flagSelect)

	b.hooks[HookPencil] = b.toolButtons[state.ToolPencil]
	b.hooks[HookEraser] = b.toolButtons[state.ToolEraser]
	b.hooks[HookTextBox] = b.toolButtons[state.ToolTextBox]
	b.hooks[HookSelectColor] = b.colorSelect
	b.hooks[HookUpload] = upload
	b.hooks[HookDownload] = download
	b.hooks[HookExportPDF] = pdf
	b.hooks[HookSelectFlag] = b.flagSelect

	// --- Assemble everything ---
	return container.NewHBox(
		b.toolButtons[state.ToolPencil],
		b.toolButtons[state.ToolEraser],
		b.toolButtons[state.ToolTextBox],
		widget.NewSeparator(),
		b.colorSelect,
		swatches,
		widget.NewSeparator(),
		upload,
		download,
		pdf,
		widget.NewSeparator(),
		flagBox,
		layout.NewSpacer(),
	)
}

func (b *Board) highlightTool(active state.Tool) {
	for t, btn := range b.toolButtons {
		if t == active {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
}
