// Package report renders reconstructed fluence maps to PNG, HTML and CSV
// files.
//
// Rendering goes through fsutil.FileSystem so tests can assert on the
// produced bytes without touching disk.
package report

import (
	"fmt"
	"path/filepath"

	"github.com/beamline-data/fluence.report/internal/fluence"
	"github.com/beamline-data/fluence.report/internal/fsutil"
)

// Writer renders fluence maps into report files.
type Writer struct {
	fs fsutil.FileSystem
}

// NewWriter creates a Writer that writes through the given filesystem.
func NewWriter(filesystem fsutil.FileSystem) *Writer {
	return &Writer{fs: filesystem}
}

// WritePNG renders the map as a heatmap image at path.
func (w *Writer) WritePNG(path string, m *fluence.Map) error {
	data, err := renderHeatmapPNG(m)
	if err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}
	return w.write(path, data)
}

// WriteHTML renders the interactive session report at path.
func (w *Writer) WriteHTML(path, title string, m *fluence.Map) error {
	data, err := renderSessionHTML(title, m)
	if err != nil {
		return fmt.Errorf("render session report: %w", err)
	}
	return w.write(path, data)
}

// WriteCSV dumps the map grids as CSV at path.
func (w *Writer) WriteCSV(path string, m *fluence.Map) error {
	data, err := renderCSV(m)
	if err != nil {
		return fmt.Errorf("render csv: %w", err)
	}
	return w.write(path, data)
}

func (w *Writer) write(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := w.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir %s: %w", dir, err)
		}
	}
	if err := w.fs.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
