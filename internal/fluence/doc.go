// Package fluence reconstructs calibrated 2D fluence maps from raster-scan
// irradiation sessions.
//
// A session records two streams: time-ordered beam current samples and
// per-row scan metadata. The Reconstructor walks the rows in order, splits
// the sample stream into row-crossing and turnaround windows, integrates the
// collected charge per grid column, and deposits it through a 2D Gaussian
// beam kernel onto the accumulation grids. Finalize converts the grids to
// ions/cm^2 with a per-bin standard deviation. Extract then crops
// rectangular regions of interest, typically the device under test.
//
// The map lives in a frame relative to the scan area: the scan start corner
// is (0, 0) and the axes span the scan extents in mm. Grids are row-major
// with shape (binsY, binsX); index [j][i] addresses row j (y) and column i
// (x).
package fluence
