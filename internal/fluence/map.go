package fluence

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/beamline-data/fluence.report/internal/units"
)

// Map holds the fluence accumulation grids for one reconstruction. Before
// Finalize the value grid is in ions/mm^2 and the error grid holds the
// accumulated variance; Finalize converts both to ions/cm^2, the error grid
// as a per-bin standard deviation.
//
// The axes are relative to the scan area: EdgesX spans [0, width] and EdgesY
// [0, height], each with a uniform bin pitch. Grids are indexed [j][i] with
// j the y bin and i the x bin.
type Map struct {
	EdgesX   []float64
	EdgesY   []float64
	CentersX []float64
	CentersY []float64

	values    *mat.Dense
	errs      *mat.Dense
	finalized bool
}

// NewMap builds an empty map over the scan area with the given bin counts.
func NewMap(area ScanArea, binsX, binsY int) (*Map, error) {
	if binsX < 1 || binsY < 1 {
		return nil, fmt.Errorf("%w: bin counts %dx%d must be at least 1x1", ErrInvalidParameter, binsX, binsY)
	}
	width, height := area.Width(), area.Height()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: scan area %.3gx%.3g mm is degenerate", ErrInvalidParameter, width, height)
	}

	m := &Map{
		EdgesX:   floats.Span(make([]float64, binsX+1), 0, width),
		EdgesY:   floats.Span(make([]float64, binsY+1), 0, height),
		CentersX: make([]float64, binsX),
		CentersY: make([]float64, binsY),
		values:   mat.NewDense(binsY, binsX, nil),
		errs:     mat.NewDense(binsY, binsX, nil),
	}
	for i := range m.CentersX {
		m.CentersX[i] = (m.EdgesX[i] + m.EdgesX[i+1]) / 2
	}
	for j := range m.CentersY {
		m.CentersY[j] = (m.EdgesY[j] + m.EdgesY[j+1]) / 2
	}
	return m, nil
}

// Dims returns the grid shape as (binsY, binsX).
func (m *Map) Dims() (binsY, binsX int) {
	return len(m.CentersY), len(m.CentersX)
}

// At returns the value grid entry for y bin j and x bin i.
func (m *Map) At(j, i int) float64 { return m.values.At(j, i) }

// ErrAt returns the error grid entry for y bin j and x bin i.
func (m *Map) ErrAt(j, i int) float64 { return m.errs.At(j, i) }

// Values exposes the value grid.
func (m *Map) Values() *mat.Dense { return m.values }

// Errors exposes the error grid.
func (m *Map) Errors() *mat.Dense { return m.errs }

// Finalized reports whether Finalize has run.
func (m *Map) Finalized() bool { return m.finalized }

// Sum returns the sum over the value grid. Before Finalize, multiplying by
// the bin area gives the total deposited ion count.
func (m *Map) Sum() float64 { return mat.Sum(m.values) }

// Mean returns the mean of the value grid.
func (m *Map) Mean() float64 {
	r, c := m.values.Dims()
	return mat.Sum(m.values) / float64(r*c)
}

// Peak returns the largest value grid entry and its bin indices.
func (m *Map) Peak() (j, i int, v float64) {
	v = math.Inf(-1)
	rows, cols := m.values.Dims()
	for jj := 0; jj < rows; jj++ {
		for ii := 0; ii < cols; ii++ {
			if e := m.values.At(jj, ii); e > v {
				j, i, v = jj, ii, e
			}
		}
	}
	return j, i, v
}

// Finalize converts the accumulation grids into the calibrated output form:
// the error grid becomes the square root of the accumulated variance, then
// both grids are rescaled from mm^-2 to cm^-2. Calling it again is a no-op,
// so the scaling can never be applied twice.
func (m *Map) Finalize() {
	if m.finalized {
		return
	}
	m.errs.Apply(func(_, _ int, v float64) float64 { return math.Sqrt(v) }, m.errs)
	m.values.Scale(units.PerMM2ToPerCM2, m.values)
	m.errs.Scale(units.PerMM2ToPerCM2, m.errs)
	m.finalized = true
}

// MapSnapshot is the serializable form of a Map, used by the run store to
// persist reconstruction results.
type MapSnapshot struct {
	EdgesX    []float64
	EdgesY    []float64
	CentersX  []float64
	CentersY  []float64
	Values    []float64 // row-major, len binsY*binsX
	Errors    []float64
	Finalized bool
}

// Snapshot copies the map into its serializable form.
func (m *Map) Snapshot() *MapSnapshot {
	binsY, binsX := m.Dims()
	s := &MapSnapshot{
		EdgesX:    append([]float64(nil), m.EdgesX...),
		EdgesY:    append([]float64(nil), m.EdgesY...),
		CentersX:  append([]float64(nil), m.CentersX...),
		CentersY:  append([]float64(nil), m.CentersY...),
		Values:    make([]float64, binsY*binsX),
		Errors:    make([]float64, binsY*binsX),
		Finalized: m.finalized,
	}
	copy(s.Values, m.values.RawMatrix().Data)
	copy(s.Errors, m.errs.RawMatrix().Data)
	return s
}

// FromSnapshot rebuilds a Map from its serialized form.
func FromSnapshot(s *MapSnapshot) (*Map, error) {
	binsX, binsY := len(s.CentersX), len(s.CentersY)
	if binsX < 1 || binsY < 1 {
		return nil, fmt.Errorf("map snapshot has empty axes")
	}
	if len(s.EdgesX) != binsX+1 || len(s.EdgesY) != binsY+1 {
		return nil, fmt.Errorf("map snapshot axes are inconsistent: %d/%d edges for %d/%d bins",
			len(s.EdgesX), len(s.EdgesY), binsX, binsY)
	}
	if len(s.Values) != binsX*binsY || len(s.Errors) != binsX*binsY {
		return nil, fmt.Errorf("map snapshot grids are inconsistent: %d/%d cells for %dx%d bins",
			len(s.Values), len(s.Errors), binsX, binsY)
	}
	m := &Map{
		EdgesX:    append([]float64(nil), s.EdgesX...),
		EdgesY:    append([]float64(nil), s.EdgesY...),
		CentersX:  append([]float64(nil), s.CentersX...),
		CentersY:  append([]float64(nil), s.CentersY...),
		values:    mat.NewDense(binsY, binsX, append([]float64(nil), s.Values...)),
		errs:      mat.NewDense(binsY, binsX, append([]float64(nil), s.Errors...)),
		finalized: s.Finalized,
	}
	return m, nil
}
