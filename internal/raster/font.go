package raster

import (
	"fmt"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFontSize is the text height in pixels used for text boxes.
const DefaultFontSize = 20

var (
	sansOnce sync.Once
	sans     *text.FontSource
	sansErr  error
)

// DefaultFace returns the default sans-serif face (Go Regular) at size
// pixels. The font source is parsed once per process.
func DefaultFace(size float64) (text.Face, error) {
	sansOnce.Do(func() {
		sans, sansErr = text.NewFontSource(goregular.TTF)
	})
	if sansErr != nil {
		return nil, fmt.Errorf("raster: load default font: %w", sansErr)
	}
	return sans.Face(size), nil
}
