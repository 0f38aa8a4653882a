package report

import (
	"bytes"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/beamline-data/fluence.report/internal/fluence"
)

// fluenceGrid adapts a fluence map to plotter.GridXYZ. Columns run along x,
// rows along y, both indexed at bin centers.
type fluenceGrid struct {
	m *fluence.Map
}

func (g fluenceGrid) Dims() (c, r int) {
	binsY, binsX := g.m.Dims()
	return binsX, binsY
}

func (g fluenceGrid) Z(c, r int) float64 { return g.m.At(r, c) }

func (g fluenceGrid) X(c int) float64 { return g.m.CentersX[c] }

func (g fluenceGrid) Y(r int) float64 { return g.m.CentersY[r] }

// renderHeatmapPNG draws the fluence map as a heatmap and returns the
// encoded PNG.
func renderHeatmapPNG(m *fluence.Map) ([]byte, error) {
	p := plot.New()
	p.Title.Text = "Fluence (ions / cm²)"
	p.X.Label.Text = "x (mm)"
	p.Y.Label.Text = "y (mm)"

	heatmap := plotter.NewHeatMap(fluenceGrid{m: m}, palette.Heat(12, 1))
	if heatmap.Min == heatmap.Max {
		heatmap.Max = heatmap.Min + 1
	}
	p.Add(heatmap)

	writerTo, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := writerTo.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
