package fluence

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// sampleSeries answers beam current and current error readings at arbitrary
// timestamps by piecewise linear interpolation over a sample window, holding
// the boundary values flat outside it. A single-sample window interpolates
// to that sample everywhere.
type sampleSeries struct {
	flat        bool
	flatCurrent float64
	flatError   float64

	current interp.PiecewiseLinear
	currErr interp.PiecewiseLinear
}

// newSampleSeries fits a series over the window. The window timestamps must
// be strictly increasing; duplicate DAQ timestamps indicate a corrupt
// recording and surface as a fit error.
func newSampleSeries(window []BeamSample) (*sampleSeries, error) {
	switch len(window) {
	case 0:
		return nil, fmt.Errorf("empty beam sample window")
	case 1:
		return &sampleSeries{
			flat:        true,
			flatCurrent: window[0].Current,
			flatError:   window[0].CurrentError,
		}, nil
	}

	ts := make([]float64, len(window))
	cur := make([]float64, len(window))
	cerr := make([]float64, len(window))
	for i, s := range window {
		ts[i] = s.Timestamp
		cur[i] = s.Current
		cerr[i] = s.CurrentError
	}

	var ss sampleSeries
	if err := ss.current.Fit(ts, cur); err != nil {
		return nil, fmt.Errorf("fit beam current series: %w", err)
	}
	if err := ss.currErr.Fit(ts, cerr); err != nil {
		return nil, fmt.Errorf("fit beam current error series: %w", err)
	}
	return &ss, nil
}

// CurrentAt returns the interpolated beam current at time t.
func (s *sampleSeries) CurrentAt(t float64) float64 {
	if s.flat {
		return s.flatCurrent
	}
	return s.current.Predict(t)
}

// ErrorAt returns the interpolated beam current error at time t.
func (s *sampleSeries) ErrorAt(t float64) float64 {
	if s.flat {
		return s.flatError
	}
	return s.currErr.Predict(t)
}
