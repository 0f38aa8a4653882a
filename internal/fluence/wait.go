package fluence

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/beamline-data/fluence.report/internal/units"
)

// waitIntegrator deposits the charge delivered while the stage sits at a
// scan edge between rows: during the turnaround the beam keeps burning into
// the edge the upcoming row starts from.
type waitIntegrator struct {
	area   ScanArea
	kernel Kernel
}

// integrate sums the charge over the wait window sample by sample and
// deposits it at the scan edge the row departs from, at the row's height.
// Each inter-sample interval is integrated with its left sample's current;
// the interval after the final sample is not integrated, matching the
// facility's recorded-data convention. The beam current spread over the
// window (in amperes, as recorded) folds into each deposit's uncertainty.
func (wi *waitIntegrator) integrate(m *Map, row RowRecord, window []BeamSample) error {
	reversed, err := rowDirection(wi.area, row)
	if err != nil {
		return err
	}
	muX := m.EdgesX[0]
	if reversed {
		muX = m.EdgesX[len(m.EdgesX)-1]
	}
	muY := row.StartY - wi.area.StartY

	if len(window) < 2 {
		return nil
	}

	currents := make([]float64, len(window))
	for i, s := range window {
		currents[i] = s.Current
	}
	spread := stat.PopStdDev(currents, nil)

	for i := 0; i < len(window)-1; i++ {
		dt := window[i+1].Timestamp - window[i].Timestamp
		ions := units.IonsFromCurrent(window[i].Current, dt)
		ionErr := math.Hypot(units.IonsFromCurrent(window[i].CurrentError, dt), spread)
		if err := wi.kernel.Deposit(m, ions, ionErr, muX, muY); err != nil {
			return err
		}
	}
	return nil
}
