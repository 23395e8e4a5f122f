// Package export writes the drawing out as PNG or PDF files.
package export

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const pdfMargin = 10

// WritePDF lays the PNG drawing out on a single A4 landscape page, scaled
// to fit inside the margins with its aspect ratio kept.
func WritePDF(w io.Writer, pngData []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(pngData))
	if err != nil {
		return fmt.Errorf("export: read drawing: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("export: empty drawing %dx%d", cfg.Width, cfg.Height)
	}

	p := gofpdf.New("L", "mm", "A4", "")
	p.SetTitle("Drawing", true)
	p.SetCreator("LocalSketch", true)
	p.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	p.RegisterImageOptionsReader("drawing", opts, bytes.NewReader(pngData))

	pw, ph := p.GetPageSize()
	x, y, iw, ih := fit(float64(cfg.Width), float64(cfg.Height), pw-2*pdfMargin, ph-2*pdfMargin)
	p.ImageOptions("drawing", pdfMargin+x, pdfMargin+y, iw, ih, false, opts, 0, "")

	if err := p.Output(w); err != nil {
		return fmt.Errorf("export: write pdf: %w", err)
	}
	return nil
}

// fit scales (w, h) into the box (bw, bh) and centers it.
func fit(w, h, bw, bh float64) (x, y, fw, fh float64) {
	scale := bw / w
	if s := bh / h; s < scale {
		scale = s
	}
	fw, fh = w*scale, h*scale
	return (bw - fw) / 2, (bh - fh) / 2, fw, fh
}
