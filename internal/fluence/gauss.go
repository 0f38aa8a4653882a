package fluence

import "math"

// Gauss2DNorm returns the normalization factor that makes a 2D Gaussian of
// the given widths integrate to amplitude.
func Gauss2DNorm(amplitude, sigmaX, sigmaY float64) float64 {
	return amplitude / (2 * math.Pi * sigmaX * sigmaY)
}

// Gauss2DVolume returns the volume under a 2D Gaussian surface with the
// given peak amplitude, the inverse of Gauss2DNorm.
func Gauss2DVolume(amplitude, sigmaX, sigmaY float64) float64 {
	return 2 * math.Pi * amplitude * sigmaX * sigmaY
}

// Gauss2DPDF evaluates a 2D Gaussian at (x, y). With normalized true the
// amplitude is used as the peak value directly; otherwise it is treated as
// the volume under the surface and scaled through Gauss2DNorm.
func Gauss2DPDF(x, y, muX, muY, sigmaX, sigmaY, amplitude float64, normalized bool) float64 {
	norm := amplitude
	if !normalized {
		norm = Gauss2DNorm(amplitude, sigmaX, sigmaY)
	}
	dx := (x - muX) / sigmaX
	dy := (y - muY) / sigmaY
	return norm * math.Exp(-0.5*(dx*dx+dy*dy))
}
