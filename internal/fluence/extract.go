package fluence

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// RegionRequest selects the rectangle to crop out of a map. Exactly one
// source must be supplied; Geometry wins when both are set.
type RegionRequest struct {
	// Geometry derives the rectangle from the session's DUT metadata,
	// translated into the map frame.
	Geometry *SessionGeometry

	// Rect is either an explicit (minX, minY, maxX, maxY) in the map frame
	// or a (width, height) pair centered on the map.
	Rect []float64
}

// RegionStats summarizes the cropped fluence values.
type RegionStats struct {
	Mean float64
	Min  float64
	Max  float64
	Std  float64
}

// Region is a rectangular crop of a fluence map. Values and Errors keep the
// map's (rows, cols) = (y, x) orientation; the center slices are copies.
type Region struct {
	Rect     Rect
	Values   *mat.Dense
	Errors   *mat.Dense
	CentersX []float64
	CentersY []float64
	Stats    RegionStats
}

// Extract crops the requested rectangle out of a fluence map and returns the
// sub-grids with their bin centers and summary statistics.
//
// The rectangle is mapped onto bins by binary search over the re-derived bin
// edges: the crop starts at the first bin whose lower edge reaches the
// rectangle minimum and ends after the last bin whose lower edge does not
// pass the maximum. Rectangles reaching past the map clamp to the grid; a
// rectangle selecting no bins at all is an error.
func Extract(m *Map, req RegionRequest) (*Region, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: no fluence map", ErrMissingInput)
	}
	if req.Geometry == nil && len(req.Rect) == 0 {
		return nil, fmt.Errorf("%w: region request needs session geometry or a rectangle", ErrMissingInput)
	}
	if len(m.CentersX) < 2 || len(m.CentersY) < 2 {
		return nil, fmt.Errorf("%w: map needs at least 2x2 bins to recover its edges", ErrInvalidParameter)
	}

	// The map frame starts at zero, so the extent per axis is the last
	// center plus half a bin.
	extentX := m.CentersX[len(m.CentersX)-1] + (m.CentersX[1]-m.CentersX[0])/2
	extentY := m.CentersY[len(m.CentersY)-1] + (m.CentersY[1]-m.CentersY[0])/2

	rect, err := resolveRect(req, extentX, extentY)
	if err != nil {
		return nil, err
	}

	edgesX := floats.Span(make([]float64, len(m.CentersX)+1), 0, extentX)
	edgesY := floats.Span(make([]float64, len(m.CentersY)+1), 0, extentY)

	x0, x1 := cropRange(edgesX, rect.MinX, rect.MaxX)
	y0, y1 := cropRange(edgesY, rect.MinY, rect.MaxY)
	if x0 >= x1 || y0 >= y1 {
		return nil, fmt.Errorf("%w: rectangle (%g, %g)-(%g, %g) selects no map bins",
			ErrInvalidParameter, rect.MinX, rect.MinY, rect.MaxX, rect.MaxY)
	}

	values := mat.DenseCopyOf(m.values.Slice(y0, y1, x0, x1))
	errs := mat.DenseCopyOf(m.errs.Slice(y0, y1, x0, x1))

	region := &Region{
		Rect:     rect,
		Values:   values,
		Errors:   errs,
		CentersX: append([]float64(nil), m.CentersX[x0:x1]...),
		CentersY: append([]float64(nil), m.CentersY[y0:y1]...),
		Stats:    summarize(values),
	}
	return region, nil
}

// resolveRect turns whichever rectangle source the request carries into a
// concrete map-frame rectangle.
func resolveRect(req RegionRequest, extentX, extentY float64) (Rect, error) {
	if g := req.Geometry; g != nil {
		if g.DUTRect == nil {
			return Rect{}, fmt.Errorf("%w: session geometry carries no DUT rectangle", ErrMissingInput)
		}
		return Rect{
			MinX: g.DUTRect.MinX - g.Area.StartX,
			MinY: g.DUTRect.MinY - g.Area.StartY,
			MaxX: g.DUTRect.MaxX - g.Area.StartX,
			MaxY: g.DUTRect.MaxY - g.Area.StartY,
		}, nil
	}

	switch len(req.Rect) {
	case 4:
		return Rect{MinX: req.Rect[0], MinY: req.Rect[1], MaxX: req.Rect[2], MaxY: req.Rect[3]}, nil
	case 2:
		w, h := req.Rect[0], req.Rect[1]
		return Rect{
			MinX: (extentX - w) / 2,
			MinY: (extentY - h) / 2,
			MaxX: (extentX + w) / 2,
			MaxY: (extentY + h) / 2,
		}, nil
	default:
		return Rect{}, fmt.Errorf("%w: rectangle needs 4 values (min x, min y, max x, max y) or 2 (width, height), got %d",
			ErrInvalidParameter, len(req.Rect))
	}
}

// cropRange maps one axis of the rectangle onto a half-open bin index range:
// bins whose lower edge is >= min and <= max. Indices clamp to the grid.
func cropRange(edges []float64, min, max float64) (lo, hi int) {
	lo = searchLeft(edges, min)
	hi = searchRight(edges, max)
	n := len(edges) - 1
	if lo > n {
		lo = n
	}
	if hi > n {
		hi = n
	}
	return lo, hi
}

func summarize(values *mat.Dense) RegionStats {
	data := values.RawMatrix().Data
	s := RegionStats{
		Mean: stat.Mean(data, nil),
		Std:  stat.PopStdDev(data, nil),
		Min:  data[0],
		Max:  data[0],
	}
	for _, v := range data[1:] {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	return s
}
