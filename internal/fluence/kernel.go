package fluence

import (
	"fmt"
	"math"
)

// Kernel deposits charge onto a Map as a truncated 2D Gaussian matching the
// beam profile. TruncationSigmas bounds how far from the beam center the
// deposit reaches; radii below 3 sigma would clip away a visible share of
// each deposit and are rejected.
type Kernel struct {
	SigmaX           float64 // mm
	SigmaY           float64 // mm
	TruncationSigmas float64
}

// Deposit adds one integrated beam dwell to the map: the value grid receives
// a Gaussian of volume amplitude (ions), the error grid one of volume
// amplitudeError squared (the variance contribution). The beam center
// (muX, muY) is in the map's relative frame; centers outside the grid simply
// deposit their on-grid share.
//
// Only the bins within TruncationSigmas of the center on both axes are
// touched. The affected index windows are found by binary search over the
// center arrays, so a deposit costs O(log n + k^2) for a k-bin kernel
// instead of a full grid scan.
func (k Kernel) Deposit(m *Map, amplitude, amplitudeError, muX, muY float64) error {
	if k.TruncationSigmas < 3 {
		return fmt.Errorf("%w: kernel truncation radius %.3g sigma is below the minimum of 3",
			ErrInvalidParameter, k.TruncationSigmas)
	}

	reachX := k.TruncationSigmas * k.SigmaX
	reachY := k.TruncationSigmas * k.SigmaY

	// A bin participates iff |center - mu| <= truncation*sigma on both axes.
	x0 := searchLeft(m.CentersX, muX-reachX)
	x1 := searchRight(m.CentersX, muX+reachX)
	y0 := searchLeft(m.CentersY, muY-reachY)
	y1 := searchRight(m.CentersY, muY+reachY)

	norm := 1 / (2 * math.Pi * k.SigmaX * k.SigmaY)
	variance := amplitudeError * amplitudeError
	for j := y0; j < y1; j++ {
		dy := (m.CentersY[j] - muY) / k.SigmaY
		for i := x0; i < x1; i++ {
			dx := (m.CentersX[i] - muX) / k.SigmaX
			shape := norm * math.Exp(-0.5*(dx*dx+dy*dy))
			m.values.Set(j, i, m.values.At(j, i)+amplitude*shape)
			m.errs.Set(j, i, m.errs.At(j, i)+variance*shape)
		}
	}
	return nil
}
