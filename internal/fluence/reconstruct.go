package fluence

import (
	"fmt"

	"github.com/beamline-data/fluence.report/internal/monitoring"
	"github.com/beamline-data/fluence.report/internal/units"
)

// Option configures a Reconstructor.
type Option func(*Reconstructor)

// WithBins overrides the default 100x100 grid.
func WithBins(binsX, binsY int) Option {
	return func(r *Reconstructor) { r.binsX, r.binsY = binsX, binsY }
}

// WithTruncation sets the kernel truncation radius in beam sigmas
// (default 6, minimum 3).
func WithTruncation(sigmas float64) Option {
	return func(r *Reconstructor) { r.truncation = sigmas }
}

// WithProgress installs a callback fired after each processed row with the
// running count and the session's expected row total. The callback is purely
// a notification; its cost lands on the reconstruction goroutine.
func WithProgress(fn func(done, total int)) Option {
	return func(r *Reconstructor) { r.progress = fn }
}

// Reconstructor orchestrates one session's fluence reconstruction: it walks
// the scan rows in order, carves the beam sample stream into turnaround and
// row-crossing windows, hands each window to the matching integrator and
// finalizes the map.
type Reconstructor struct {
	geom       SessionGeometry
	binsX      int
	binsY      int
	truncation float64
	progress   func(done, total int)
}

// NewReconstructor validates the session geometry and applies options.
func NewReconstructor(geom SessionGeometry, opts ...Option) (*Reconstructor, error) {
	r := &Reconstructor{
		geom:       geom,
		binsX:      100,
		binsY:      100,
		truncation: 6,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.binsX < 1 || r.binsY < 1 {
		return nil, fmt.Errorf("%w: bin counts %dx%d must be at least 1x1", ErrInvalidParameter, r.binsX, r.binsY)
	}
	if r.truncation < 3 {
		return nil, fmt.Errorf("%w: kernel truncation radius %.3g sigma is below the minimum of 3",
			ErrInvalidParameter, r.truncation)
	}
	if geom.BeamFWHMX <= 0 || geom.BeamFWHMY <= 0 {
		return nil, fmt.Errorf("%w: beam FWHM %.3gx%.3g mm must be positive",
			ErrInvalidParameter, geom.BeamFWHMX, geom.BeamFWHMY)
	}
	if geom.RowsPerScan < 1 {
		return nil, fmt.Errorf("%w: rows per scan %d must be at least 1", ErrInvalidParameter, geom.RowsPerScan)
	}
	return r, nil
}

// Reconstruct builds the fluence map for one session. The beam samples must
// be in time order; the rows are processed in the order given, which for a
// recorded session is chronological.
//
// Window selection runs behind an amortized cursor: each row binary-searches
// only the samples past the previous row's window, so one pass over the
// session costs O(len(samples) + len(rows)*log len(samples)) regardless of
// how long the beam log is. Samples before the first row's window are
// discarded as pre-scan noise; afterwards the slice between two row windows
// is the turnaround and goes to the wait integrator.
func (r *Reconstructor) Reconstruct(samples []BeamSample, rows []RowRecord) (*Map, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no scan rows", ErrMissingInput)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no beam samples", ErrMissingInput)
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Timestamp < samples[i-1].Timestamp {
			return nil, fmt.Errorf("%w: beam samples out of time order at index %d", ErrConsistency, i)
		}
	}

	m, err := NewMap(r.geom.Area, r.binsX, r.binsY)
	if err != nil {
		return nil, err
	}

	kernel := Kernel{
		SigmaX:           units.SigmaFromFWHM(r.geom.BeamFWHMX),
		SigmaY:           units.SigmaFromFWHM(r.geom.BeamFWHMY),
		TruncationSigmas: r.truncation,
	}
	var rowPass integrator = newRowIntegrator(r.geom.Area, kernel, r.binsX)
	var waitPass integrator = &waitIntegrator{area: r.geom.Area, kernel: kernel}

	total := r.totalRows(rows)
	monitoring.Logf("fluence: reconstructing %d recorded rows (%d expected) from %d beam samples onto a %dx%d grid",
		len(rows), total, len(samples), r.binsX, r.binsY)

	cursor := 0
	for done, row := range rows {
		view := samples[cursor:]
		lo := searchSamplesLeft(view, row.StartTimestamp)
		hi := searchSamplesRight(view, row.StopTimestamp)

		if cursor > 0 {
			if wait := view[:lo]; len(wait) > 0 {
				if err := waitPass.integrate(m, row, wait); err != nil {
					return nil, err
				}
			}
		}
		if err := rowPass.integrate(m, row, view[lo:hi]); err != nil {
			return nil, err
		}
		cursor += hi

		if r.progress != nil {
			r.progress(done+1, total)
		}
	}

	m.Finalize()
	_, _, peak := m.Peak()
	monitoring.Logf("fluence: finalized map, peak %.4g ions/cm^2", peak)
	return m, nil
}

// totalRows reports the expected row count of the complete session: scans
// are numbered from zero, so the highest seen scan index plus one times the
// configured rows per scan. Partial sessions thus report progress against
// the same denominator the facility displayed while scanning.
func (r *Reconstructor) totalRows(rows []RowRecord) int {
	maxScan := 0
	for _, row := range rows {
		if row.Scan > maxScan {
			maxScan = row.Scan
		}
	}
	return (maxScan + 1) * r.geom.RowsPerScan
}
