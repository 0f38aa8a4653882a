package fluence

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"
)

// patternMap fills a 6x6 map with value j*10+i and variance j+i so crops
// can be located exactly.
func patternMap(t *testing.T) *Map {
	t.Helper()
	m := makeTestMap(t, 6, 6)
	for j := 0; j < 6; j++ {
		for i := 0; i < 6; i++ {
			m.values.Set(j, i, float64(j*10+i))
			m.errs.Set(j, i, float64(j+i))
		}
	}
	return m
}

func TestExtract_ExplicitRect(t *testing.T) {
	m := patternMap(t)

	region, err := Extract(m, RegionRequest{Rect: []float64{1, 1, 5, 5}})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	// Bins from the one starting at x=1 through the one starting at x=5.
	r, c := region.Values.Dims()
	if r != 5 || c != 5 {
		t.Fatalf("crop dims = (%d, %d), want (5, 5)", r, c)
	}
	if diff := cmp.Diff([]float64{1.5, 2.5, 3.5, 4.5, 5.5}, region.CentersX); diff != "" {
		t.Errorf("CentersX mismatch (-want +got):\n%s", diff)
	}
	if got := region.Values.At(0, 0); got != 11 {
		t.Errorf("crop[0][0] = %g, want 11", got)
	}
	if got := region.Errors.At(3, 3); got != 8 {
		t.Errorf("crop errors[3][3] = %g, want 8", got)
	}

	// Stats over the 25 values 11..55.
	if region.Stats.Min != 11 || region.Stats.Max != 55 {
		t.Errorf("Stats min/max = %g/%g, want 11/55", region.Stats.Min, region.Stats.Max)
	}
	if math.Abs(region.Stats.Mean-33) > 1e-12 {
		t.Errorf("Stats.Mean = %g, want 33", region.Stats.Mean)
	}
	if want := math.Sqrt(202); math.Abs(region.Stats.Std-want) > 1e-9 {
		t.Errorf("Stats.Std = %g, want %g", region.Stats.Std, want)
	}
}

// For rectangles whose maximum does not reach past a bin's center, every
// returned center sits inside the rectangle.
func TestExtract_CentersWithinRect(t *testing.T) {
	m := patternMap(t)

	for _, rect := range [][]float64{{1, 1, 4.9, 4.9}, {0.8, 0.2, 4.9, 4.6}, {2.1, 2.1, 3.9, 3.9}} {
		region, err := Extract(m, RegionRequest{Rect: rect})
		if err != nil {
			t.Fatalf("Extract %v: %v", rect, err)
		}
		for _, cx := range region.CentersX {
			if cx < rect[0] || cx > rect[2] {
				t.Errorf("rect %v: center x %g outside [%g, %g]", rect, cx, rect[0], rect[2])
			}
		}
		for _, cy := range region.CentersY {
			if cy < rect[1] || cy > rect[3] {
				t.Errorf("rect %v: center y %g outside [%g, %g]", rect, cy, rect[1], rect[3])
			}
		}
	}
}

func TestExtract_FullMap(t *testing.T) {
	m := patternMap(t)

	region, err := Extract(m, RegionRequest{Rect: []float64{0, 0, 6, 6}})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !mat.Equal(region.Values, m.Values()) {
		t.Error("full-map crop differs from the map")
	}
	if diff := cmp.Diff(m.CentersY, region.CentersY); diff != "" {
		t.Errorf("CentersY mismatch (-want +got):\n%s", diff)
	}
}

// A (width, height) request centers the rectangle on the map.
func TestExtract_CenteredRect(t *testing.T) {
	m := patternMap(t)

	region, err := Extract(m, RegionRequest{Rect: []float64{2, 2}})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	want := Rect{MinX: 2, MinY: 2, MaxX: 4, MaxY: 4}
	if region.Rect != want {
		t.Errorf("resolved rect = %+v, want %+v", region.Rect, want)
	}
	if diff := cmp.Diff([]float64{2.5, 3.5, 4.5}, region.CentersX); diff != "" {
		t.Errorf("CentersX mismatch (-want +got):\n%s", diff)
	}
	if got := region.Values.At(0, 0); got != 22 {
		t.Errorf("crop[0][0] = %g, want 22", got)
	}
}

// DUT coordinates from the session metadata are translated into the map
// frame before cropping.
func TestExtract_FromGeometry(t *testing.T) {
	area := ScanArea{StartX: 10, StartY: 20, StopX: 16, StopY: 26}
	m, err := NewMap(area, 6, 6)
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	for j := 0; j < 6; j++ {
		for i := 0; i < 6; i++ {
			m.values.Set(j, i, float64(j*10+i))
		}
	}

	geom := &SessionGeometry{
		Area:    area,
		DUTRect: &Rect{MinX: 11, MinY: 21, MaxX: 15, MaxY: 25},
	}
	region, err := Extract(m, RegionRequest{Geometry: geom})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	want := Rect{MinX: 1, MinY: 1, MaxX: 5, MaxY: 5}
	if region.Rect != want {
		t.Errorf("resolved rect = %+v, want %+v", region.Rect, want)
	}
	r, c := region.Values.Dims()
	if r != 5 || c != 5 {
		t.Errorf("crop dims = (%d, %d), want (5, 5)", r, c)
	}
	if got := region.Values.At(0, 0); got != 11 {
		t.Errorf("crop[0][0] = %g, want 11", got)
	}
}

// Rectangles reaching past the map clamp to the grid.
func TestExtract_ClampsToGrid(t *testing.T) {
	m := patternMap(t)

	region, err := Extract(m, RegionRequest{Rect: []float64{4, 4, 10, 10}})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if diff := cmp.Diff([]float64{4.5, 5.5}, region.CentersX); diff != "" {
		t.Errorf("CentersX mismatch (-want +got):\n%s", diff)
	}
	if got := region.Values.At(0, 0); got != 44 {
		t.Errorf("crop[0][0] = %g, want 44", got)
	}
}

// The crop is detached from the map's live grids.
func TestExtract_CopiesGrids(t *testing.T) {
	m := patternMap(t)

	region, err := Extract(m, RegionRequest{Rect: []float64{1, 1, 5, 5}})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	m.values.Set(1, 1, -1)
	if got := region.Values.At(0, 0); got != 11 {
		t.Errorf("crop[0][0] = %g after map mutation, want 11", got)
	}
}

func TestExtract_Failures(t *testing.T) {
	m := patternMap(t)

	tests := []struct {
		name string
		req  RegionRequest
		want error
	}{
		{"no source", RegionRequest{}, ErrMissingInput},
		{"bad arity", RegionRequest{Rect: []float64{1, 2, 3}}, ErrInvalidParameter},
		{"geometry without dut", RegionRequest{Geometry: &SessionGeometry{Area: testArea()}}, ErrMissingInput},
		{"empty selection", RegionRequest{Rect: []float64{1.2, 1.2, 1.8, 1.8}}, ErrInvalidParameter},
		{"fully outside", RegionRequest{Rect: []float64{10, 10, 12, 12}}, ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Extract(m, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Extract error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Extract(nil, RegionRequest{Rect: []float64{1, 1, 5, 5}}); !errors.Is(err, ErrMissingInput) {
		t.Errorf("nil map error = %v, want ErrMissingInput", err)
	}
}
