package fluence

import "math"

// BeamSample is one reading of the calibrated beam current monitor.
type BeamSample struct {
	Timestamp    float64 `json:"timestamp"`     // seconds, UNIX epoch
	Current      float64 `json:"current"`       // A
	CurrentError float64 `json:"current_error"` // A
}

// RowRecord is the metadata captured for one row crossing of the raster
// scan. Positions are in the absolute stage frame (mm), speeds in mm/s,
// accelerations in mm/s^2 and timestamps in seconds.
type RowRecord struct {
	Scan           int     `json:"scan"`
	Row            int     `json:"row"`
	StartX         float64 `json:"row_start_x"`
	StartY         float64 `json:"row_start_y"`
	StartTimestamp float64 `json:"row_start_timestamp"`
	StopTimestamp  float64 `json:"row_stop_timestamp"`
	Speed          float64 `json:"row_scan_speed"`
	Accel          float64 `json:"row_scan_accel"`
}

// Rect is an axis-aligned rectangle. Whether its coordinates are absolute or
// map-relative depends on context: SessionGeometry.DUTRect is absolute,
// Region.Rect is map-relative.
type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns the rectangle's x extent.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the rectangle's y extent.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// ScanArea is the rectangle the stage rasters over, in the absolute stage
// frame. Start is the corner the first row leaves from; Stop is the opposite
// corner. The map's relative frame puts Start at (0, 0).
type ScanArea struct {
	StartX float64 `json:"start_x"`
	StartY float64 `json:"start_y"`
	StopX  float64 `json:"stop_x"`
	StopY  float64 `json:"stop_y"`
}

// Width returns the scan area's x extent in mm.
func (a ScanArea) Width() float64 { return math.Abs(a.StopX - a.StartX) }

// Height returns the scan area's y extent in mm.
func (a ScanArea) Height() float64 { return math.Abs(a.StartY - a.StopY) }

// SessionGeometry bundles the per-session constants the reconstruction
// needs: the scan area, the measured beam spot widths and the row count per
// complete scan. DUTRect optionally locates the device under test in the
// absolute stage frame for region extraction.
type SessionGeometry struct {
	Area        ScanArea `json:"scan_area"`
	BeamFWHMX   float64  `json:"beam_fwhm_x"` // mm
	BeamFWHMY   float64  `json:"beam_fwhm_y"` // mm
	RowsPerScan int      `json:"rows_per_scan"`
	DUTRect     *Rect    `json:"dut_rect,omitempty"`
}
