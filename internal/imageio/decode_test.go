package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	img, err := Decode(encodePNG(t, src))
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), img.Bounds())
	r, g, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, []uint32{10, 20, 30}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestDecodeJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8)), nil))

	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestDecodeRejectsEmpty(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestDecodeRejectsNonImage(t *testing.T) {
	_, err := Decode([]byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n"))
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = Decode([]byte("just some text"))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestDecodeTruncatedImage(t *testing.T) {
	data := encodePNG(t, image.NewNRGBA(image.Rect(0, 0, 16, 16)))
	_, err := Decode(data[:len(data)/2])
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotImage)
}
