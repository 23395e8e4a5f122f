package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// PNGFileName is the name a downloaded drawing is saved under.
const PNGFileName = "canvas-drawing.png"

// WritePNG saves encoded PNG data as PNGFileName in dir and returns the
// file's path. An empty dir means the working directory.
func WritePNG(dir string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, PNGFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	return path, nil
}
