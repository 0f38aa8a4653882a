package fluence

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/beamline-data/fluence.report/internal/units"
)

// integrator consumes one row's metadata plus a window of beam samples and
// deposits the resulting charge onto the map.
type integrator interface {
	integrate(m *Map, row RowRecord, window []BeamSample) error
}

// rowDirection resolves which scan edge a row left from. Rows must start
// within 0.5 mm of either edge of the scan area; anything else means the
// recorded metadata and the session geometry disagree.
func rowDirection(area ScanArea, row RowRecord) (reversed bool, err error) {
	switch {
	case math.Abs(row.StartX-area.StartX) < 0.5:
		return false, nil
	case math.Abs(row.StartX-area.StopX) < 0.5:
		return true, nil
	}
	return false, fmt.Errorf("%w: scan %d row %d starts at x=%.3f mm, not within 0.5 mm of either scan edge (%.3f or %.3f)",
		ErrConsistency, row.Scan, row.Row, row.StartX, area.StartX, area.StopX)
}

// rowIntegrator deposits the charge delivered while the stage crosses one
// row. The transit buffer is reused across rows.
type rowIntegrator struct {
	area    ScanArea
	kernel  Kernel
	transit []float64
}

func newRowIntegrator(area ScanArea, kernel Kernel, binsX int) *rowIntegrator {
	return &rowIntegrator{
		area:    area,
		kernel:  kernel,
		transit: make([]float64, binsX),
	}
}

// integrate splits the row crossing into per-bin dwells, interpolates the
// beam current at each dwell's midpoint, converts to ions and deposits each
// bin's share at its x center. The recorded row duration exceeds the sum of
// the dwells by the stage settling overhead, which is assumed to split
// evenly between the two ends of the row.
func (ri *rowIntegrator) integrate(m *Map, row RowRecord, window []BeamSample) error {
	if len(window) == 0 {
		return fmt.Errorf("scan %d row %d: no beam samples between %.3f and %.3f",
			row.Scan, row.Row, row.StartTimestamp, row.StopTimestamp)
	}
	if err := transitTimes(ri.transit, m.EdgesX, row.Speed, row.Accel); err != nil {
		return fmt.Errorf("scan %d row %d: %w", row.Scan, row.Row, err)
	}
	dwell := ri.transit

	elapsed := row.StopTimestamp - row.StartTimestamp
	overhead := (elapsed - floats.Sum(dwell)) / 2

	// Midpoint timestamp of each bin crossing.
	ts := make([]float64, len(dwell))
	floats.CumSum(ts, dwell)
	for i := range ts {
		ts[i] = row.StartTimestamp + overhead + ts[i] - dwell[i]/2
	}

	series, err := newSampleSeries(window)
	if err != nil {
		return fmt.Errorf("scan %d row %d: %w", row.Scan, row.Row, err)
	}

	ions := make([]float64, len(dwell))
	ionErrs := make([]float64, len(dwell))
	for i := range dwell {
		ions[i] = units.IonsFromCurrent(series.CurrentAt(ts[i]), dwell[i])
		ionErrs[i] = units.IonsFromCurrent(series.ErrorAt(ts[i]), dwell[i])
	}

	// Fold the beam fluctuation across the row into each bin's uncertainty.
	spread := stat.PopStdDev(ions, nil)
	for i := range ionErrs {
		ionErrs[i] = math.Hypot(ionErrs[i], spread)
	}

	reversed, err := rowDirection(ri.area, row)
	if err != nil {
		return err
	}
	muY := row.StartY - ri.area.StartY

	n := len(m.CentersX)
	for i := 0; i < n; i++ {
		muX := m.CentersX[i]
		if reversed {
			muX = m.CentersX[n-1-i]
		}
		if err := ri.kernel.Deposit(m, ions[i], ionErrs[i], muX, muY); err != nil {
			return err
		}
	}
	return nil
}
