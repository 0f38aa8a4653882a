package fluence

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

// Six 1 mm bins crossed at 2 mm/s with 1 mm/s^2 acceleration: the ramps
// cover exactly 2 mm each, the middle two bins are pure cruise, and the
// total matches the analytic crossing time of 5 s.
func TestTransitTimes_TrapezoidProfile(t *testing.T) {
	edges := []float64{0, 1, 2, 3, 4, 5, 6}
	dst := make([]float64, 6)

	if err := transitTimes(dst, edges, 2, 1); err != nil {
		t.Fatalf("transitTimes: %v", err)
	}

	// First ramp bin from rest: t = sqrt(2s/a) = sqrt(2).
	if want := math.Sqrt(2); math.Abs(dst[0]-want) > 1e-12 {
		t.Errorf("dst[0] = %g, want %g", dst[0], want)
	}
	// Second ramp bin: total ramp time is v/a = 2 s, so 2 - sqrt(2).
	if want := 2 - math.Sqrt(2); math.Abs(dst[1]-want) > 1e-12 {
		t.Errorf("dst[1] = %g, want %g", dst[1], want)
	}
	// Cruise bins at width/speed.
	if dst[2] != 0.5 || dst[3] != 0.5 {
		t.Errorf("cruise dwells = %g, %g, want 0.5, 0.5", dst[2], dst[3])
	}
	// The deceleration ramp mirrors the acceleration ramp.
	for i := 0; i < 3; i++ {
		if dst[i] != dst[5-i] {
			t.Errorf("dst[%d] = %g != dst[%d] = %g, want mirrored ramps", i, dst[i], 5-i, dst[5-i])
		}
	}
	// Crossing time: 2 s accelerating + 1 s cruising + 2 s braking.
	if got := floats.Sum(dst); math.Abs(got-5) > 1e-12 {
		t.Errorf("total transit = %g, want 5", got)
	}
}

// When the ramps cover more than half the row the mirrored writes overlap
// and the deceleration side wins in the shared bins.
func TestTransitTimes_OverlappingRamps(t *testing.T) {
	edges := []float64{0, 1, 2, 3, 4}
	dst := make([]float64, 4)

	speed := math.Sqrt(10) // ramp distance v^2/2a = 2.5 mm
	if err := transitTimes(dst, edges, speed, 2); err != nil {
		t.Fatalf("transitTimes: %v", err)
	}

	// First bin from rest: sqrt(2*2*1)/2 = 1. The shared inner bins keep the
	// third ramp time, entered at v0 = 2*sqrt(2).
	t0 := 1.0
	t2 := math.Sqrt(3) - math.Sqrt(2)
	if math.Abs(dst[0]-t0) > 1e-12 || math.Abs(dst[3]-t0) > 1e-12 {
		t.Errorf("outer bins = %g, %g, want %g", dst[0], dst[3], t0)
	}
	if math.Abs(dst[1]-t2) > 1e-12 || math.Abs(dst[2]-t2) > 1e-12 {
		t.Errorf("inner bins = %g, %g, want %g from the overlapping mirror", dst[1], dst[2], t2)
	}
}

func TestTransitTimes_RampBeyondRow(t *testing.T) {
	edges := []float64{0, 1, 2, 3, 4, 5, 6}
	dst := make([]float64, 6)

	err := transitTimes(dst, edges, 1000, 1)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("transitTimes error = %v, want ErrInvalidParameter", err)
	}
}

func TestTransitTimes_InvalidKinematics(t *testing.T) {
	edges := []float64{0, 1, 2}
	dst := make([]float64, 2)

	if err := transitTimes(dst, edges, 0, 1); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("zero speed error = %v, want ErrInvalidParameter", err)
	}
	if err := transitTimes(dst, edges, 1, -2); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("negative accel error = %v, want ErrInvalidParameter", err)
	}
}
