package fluence

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testArea() ScanArea {
	return ScanArea{StartX: 0, StartY: 0, StopX: 6, StopY: 6}
}

func makeTestMap(t *testing.T, binsX, binsY int) *Map {
	t.Helper()
	m, err := NewMap(testArea(), binsX, binsY)
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	return m
}

func TestNewMap_Axes(t *testing.T) {
	area := ScanArea{StartX: 10, StartY: 20, StopX: 16, StopY: 26}
	m, err := NewMap(area, 6, 4)
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}

	binsY, binsX := m.Dims()
	if binsY != 4 || binsX != 6 {
		t.Errorf("Dims = (%d, %d), want (4, 6)", binsY, binsX)
	}

	// Axes are relative to the scan start corner.
	wantEdgesX := []float64{0, 1, 2, 3, 4, 5, 6}
	if diff := cmp.Diff(wantEdgesX, m.EdgesX); diff != "" {
		t.Errorf("EdgesX mismatch (-want +got):\n%s", diff)
	}
	wantCentersY := []float64{0.75, 2.25, 3.75, 5.25}
	if diff := cmp.Diff(wantCentersY, m.CentersY); diff != "" {
		t.Errorf("CentersY mismatch (-want +got):\n%s", diff)
	}

	// Fresh maps are zero filled and not finalized.
	if m.Sum() != 0 {
		t.Errorf("Sum = %g, want 0", m.Sum())
	}
	if m.Finalized() {
		t.Error("new map reports finalized")
	}
}

func TestNewMap_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		area  ScanArea
		binsX int
		binsY int
	}{
		{"zero bins x", testArea(), 0, 10},
		{"negative bins y", testArea(), 10, -1},
		{"degenerate width", ScanArea{StartX: 2, StopX: 2, StartY: 0, StopY: 6}, 10, 10},
		{"degenerate height", ScanArea{StartX: 0, StopX: 6, StartY: 3, StopY: 3}, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMap(tt.area, tt.binsX, tt.binsY); !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("NewMap error = %v, want ErrInvalidParameter", err)
			}
		})
	}
}

// Finalize takes the square root of the accumulated variance and rescales
// both grids to cm^-2; a second call must not scale again.
func TestMapFinalize_ScalesOnce(t *testing.T) {
	m := makeTestMap(t, 6, 6)
	m.values.Set(1, 2, 4)
	m.errs.Set(1, 2, 9)

	m.Finalize()
	if got := m.At(1, 2); got != 400 {
		t.Errorf("value after finalize = %g, want 400", got)
	}
	if got := m.ErrAt(1, 2); got != 300 {
		t.Errorf("error after finalize = %g, want 300", got)
	}
	if !m.Finalized() {
		t.Error("Finalized = false after Finalize")
	}

	m.Finalize()
	if got := m.At(1, 2); got != 400 {
		t.Errorf("value after second finalize = %g, want 400", got)
	}
	if got := m.ErrAt(1, 2); got != 300 {
		t.Errorf("error after second finalize = %g, want 300", got)
	}
}

func TestMapStats(t *testing.T) {
	m := makeTestMap(t, 2, 2)
	m.values.Set(0, 0, 1)
	m.values.Set(0, 1, 2)
	m.values.Set(1, 0, 3)
	m.values.Set(1, 1, 10)

	if got := m.Sum(); got != 16 {
		t.Errorf("Sum = %g, want 16", got)
	}
	if got := m.Mean(); got != 4 {
		t.Errorf("Mean = %g, want 4", got)
	}
	j, i, v := m.Peak()
	if j != 1 || i != 1 || v != 10 {
		t.Errorf("Peak = (%d, %d, %g), want (1, 1, 10)", j, i, v)
	}
}

func TestMapSnapshot_Roundtrip(t *testing.T) {
	m := makeTestMap(t, 6, 6)
	k := Kernel{SigmaX: 1, SigmaY: 1, TruncationSigmas: 6}
	if err := k.Deposit(m, 1e6, 50, 2.5, 3.5); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	m.Finalize()

	snap := m.Snapshot()
	rebuilt, err := FromSnapshot(snap)
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}

	if diff := cmp.Diff(snap, rebuilt.Snapshot()); diff != "" {
		t.Errorf("snapshot roundtrip mismatch (-want +got):\n%s", diff)
	}
	if !rebuilt.Finalized() {
		t.Error("rebuilt map lost finalized state")
	}
	if got, want := rebuilt.At(3, 2), m.At(3, 2); got != want {
		t.Errorf("rebuilt value = %g, want %g", got, want)
	}
}

func TestFromSnapshot_Inconsistent(t *testing.T) {
	good := makeTestMap(t, 4, 3).Snapshot()

	tests := []struct {
		name   string
		mangle func(*MapSnapshot)
	}{
		{"empty axes", func(s *MapSnapshot) { s.CentersX = nil }},
		{"edge count", func(s *MapSnapshot) { s.EdgesX = s.EdgesX[:3] }},
		{"short values", func(s *MapSnapshot) { s.Values = s.Values[:5] }},
		{"short errors", func(s *MapSnapshot) { s.Errors = s.Errors[:5] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := *good
			s.EdgesX = append([]float64(nil), good.EdgesX...)
			s.CentersX = append([]float64(nil), good.CentersX...)
			s.Values = append([]float64(nil), good.Values...)
			s.Errors = append([]float64(nil), good.Errors...)
			tt.mangle(&s)
			if _, err := FromSnapshot(&s); err == nil {
				t.Error("FromSnapshot accepted an inconsistent snapshot")
			}
		})
	}
}

// Snapshots must be detached copies, not aliases of the live grids.
func TestMapSnapshot_Detached(t *testing.T) {
	m := makeTestMap(t, 3, 3)
	m.values.Set(0, 0, 7)
	snap := m.Snapshot()

	m.values.Set(0, 0, 99)
	if snap.Values[0] != 7 {
		t.Errorf("snapshot value = %g, want 7 after mutating the map", snap.Values[0])
	}
}

func TestMapPeak_AllNegative(t *testing.T) {
	m := makeTestMap(t, 2, 2)
	m.values.Set(0, 0, -5)
	m.values.Set(0, 1, -2)
	m.values.Set(1, 0, -9)
	m.values.Set(1, 1, math.Inf(-1))

	j, i, v := m.Peak()
	if j != 0 || i != 1 || v != -2 {
		t.Errorf("Peak = (%d, %d, %g), want (0, 1, -2)", j, i, v)
	}
}
