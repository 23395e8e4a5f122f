package state

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
)

var (
	ErrUnknownTool  = errors.New("unknown tool")
	ErrUnknownColor = errors.New("unknown color")
)

type Point struct{ X, Y float64 }

// Tool is the drawing tool driving pointer input on the board.
type Tool int

const (
	ToolPencil Tool = iota
	ToolEraser
	ToolTextBox
)

var toolNames = map[Tool]string{
	ToolPencil:  "pencil",
	ToolEraser:  "eraser",
	ToolTextBox: "textbox",
}

func (t Tool) String() string {
	if name, ok := toolNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// Tools lists every tool in toolbar order.
func Tools() []Tool {
	return []Tool{ToolPencil, ToolEraser, ToolTextBox}
}

func ParseTool(name string) (Tool, error) {
	for t, n := range toolNames {
		if strings.EqualFold(n, name) {
			return t, nil
		}
	}
	return ToolPencil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
}

// Color is a named palette entry. Values follow the CSS named colors.
type Color struct {
	Name  string
	Value color.NRGBA
}

func (c Color) String() string { return c.Name }

var (
	Black  = Color{Name: "black", Value: color.NRGBA{A: 255}}
	Red    = Color{Name: "red", Value: color.NRGBA{R: 255, A: 255}}
	Blue   = Color{Name: "blue", Value: color.NRGBA{B: 255, A: 255}}
	Green  = Color{Name: "green", Value: color.NRGBA{G: 128, A: 255}}
	Yellow = Color{Name: "yellow", Value: color.NRGBA{R: 255, G: 255, A: 255}}
)

// Palette is the fixed set of selectable colors, in selector order.
var Palette = []Color{Black, Red, Blue, Green, Yellow}

// PaletteNames returns the palette names in selector order.
func PaletteNames() []string {
	names := make([]string, 0, len(Palette))
	for _, c := range Palette {
		names = append(names, c.Name)
	}
	return names
}

func ParseColor(name string) (Color, error) {
	for _, c := range Palette {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return Black, fmt.Errorf("%w: %q", ErrUnknownColor, name)
}

// InPalette reports whether c is exactly one of the palette entries.
func InPalette(c Color) bool {
	for _, p := range Palette {
		if p == c {
			return true
		}
	}
	return false
}

// LoadKind separates asynchronous image loads so that a newer request only
// supersedes older requests of the same kind.
type LoadKind int

const (
	LoadUpload LoadKind = iota
	LoadOverlay

	loadKinds
)

func (k LoadKind) String() string {
	switch k {
	case LoadUpload:
		return "upload"
	case LoadOverlay:
		return "overlay"
	}
	return fmt.Sprintf("LoadKind(%d)", int(k))
}
