// Package imageio decodes user supplied and remote image files.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrEmpty    = errors.New("imageio: empty input")
	ErrNotImage = errors.New("imageio: not an image")
)

// Decode accepts anything sniffed as an image/* type and decodes it with
// the registered PNG, JPEG, GIF, WebP, BMP and TIFF decoders.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return nil, fmt.Errorf("imageio: sniff: %w", err)
	}
	if !filetype.IsImage(data) {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, describe(kind.MIME.Value))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imageio: decode %s: %w", kind.MIME.Value, err)
	}
	return img, nil
}

func describe(mime string) string {
	if mime == "" {
		return "unknown content"
	}
	return mime
}
