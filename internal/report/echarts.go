package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/beamline-data/fluence.report/internal/fluence"
)

// viridisColors is the color ramp for the fluence visual map, low to high.
var viridisColors = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// renderSessionHTML builds a standalone HTML report: the fluence map rendered
// as a colored scatter over the bin centers, plus a mean-fluence-per-row bar
// chart for a quick uniformity check.
func renderSessionHTML(title string, m *fluence.Map) ([]byte, error) {
	binsY, binsX := m.Dims()

	maxVal := 0.0
	points := make([]opts.ScatterData, 0, binsY*binsX)
	for j := 0; j < binsY; j++ {
		for i := 0; i < binsX; i++ {
			v := m.At(j, i)
			if v > maxVal {
				maxVal = v
			}
			points = append(points, opts.ScatterData{Value: []interface{}{m.CentersX[i], m.CentersY[j], v}})
		}
	}
	if maxVal == 0 {
		maxVal = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%dx%d bins, peak %.4g ions/cm²", binsX, binsY, maxVal)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: m.EdgesX[0], Max: m.EdgesX[binsX], Name: "x (mm)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: m.EdgesY[0], Max: m.EdgesY[binsY], Name: "y (mm)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxVal),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisColors},
		}),
	)
	scatter.AddSeries("fluence", points, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	rowLabels := make([]string, 0, binsY)
	rowMeans := make([]opts.BarData, 0, binsY)
	for j := 0; j < binsY; j++ {
		sum := 0.0
		for i := 0; i < binsX; i++ {
			sum += m.At(j, i)
		}
		rowLabels = append(rowLabels, strconv.FormatFloat(m.CentersY[j], 'g', 4, 64))
		rowMeans = append(rowMeans, opts.BarData{Value: sum / float64(binsX)})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Mean fluence by row", Subtitle: "bin-row centers, y (mm)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(rowLabels).AddSeries("mean fluence", rowMeans)

	page := components.NewPage()
	page.AddCharts(scatter, bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
