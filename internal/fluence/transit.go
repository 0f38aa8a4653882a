package fluence

import (
	"fmt"
	"math"
)

// transitTimes fills dst with the time the beam spends over each x bin while
// the stage crosses one row under a trapezoidal velocity profile: it
// accelerates from rest at accel until reaching speed, cruises, and
// decelerates symmetrically into the far edge. dst must have len(edges)-1
// entries.
//
// Bins fully inside the cruise section dwell binWidth/speed. The bins under
// the acceleration ramp get the kinematic crossing time for their width,
// with the running entry velocity carried bin to bin; each ramp time is
// mirrored onto the matching bin at the far edge. When the ramp spans more
// than half the row the mirrored writes overlap and the mirror side wins,
// matching the recorded-data convention.
func transitTimes(dst, edges []float64, speed, accel float64) error {
	if speed <= 0 || accel <= 0 {
		return fmt.Errorf("%w: scan speed %.3g mm/s and acceleration %.3g mm/s^2 must be positive",
			ErrInvalidParameter, speed, accel)
	}
	n := len(edges) - 1

	// Distance needed to reach full speed (and to brake from it).
	rampDist := speed * speed / (2 * accel)
	idx := searchLeft(edges, rampDist)
	if idx > n {
		return fmt.Errorf("%w: acceleration distance %.3g mm exceeds the %.3g mm row",
			ErrInvalidParameter, rampDist, edges[n])
	}

	for i := idx; i < n-idx; i++ {
		dst[i] = (edges[i+1] - edges[i]) / speed
	}

	v0 := 0.0
	for i := 0; i < idx; i++ {
		s := edges[i+1] - edges[i]
		t := (math.Sqrt(2*accel*s+v0*v0) - v0) / accel
		dst[i] = t
		dst[n-1-i] = t
		v0 += accel * t
	}
	return nil
}
