package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"LocalSketch/internal/board"
)

const AppID = "io.localsketch.app"

// NewWindow builds the sketchpad window around s.
func NewWindow(a fyne.App, s *board.DrawingSurface, opts Options) (fyne.Window, *Board) {
	w := a.NewWindow("LocalSketch")
	b := NewBoard(w, s, opts)
	w.SetContent(b.Content())
	w.Resize(b.Content().MinSize())
	return w, b
}

// RunApp opens the sketchpad and blocks until the window is closed. ready
// runs once the window exists, before the event loop starts.
func RunApp(s *board.DrawingSurface, opts Options, ready func(*Board)) {
	myApp := app.NewWithID(AppID)
	myWindow, b := NewWindow(myApp, s, opts)
	if ready != nil {
		ready(b)
	}
	myWindow.ShowAndRun()
}
