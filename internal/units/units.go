// Package units provides shared physical constants and fluence unit
// conversion for the analysis packages.
package units

// Fluence unit constants
const (
	PerMM2 = "mm2"
	PerCM2 = "cm2"
)

// ValidUnits contains all valid fluence unit values
var ValidUnits = []string{PerMM2, PerCM2}

// Physical constants used by the reconstruction.
const (
	// ElementaryCharge is the charge of a singly charged ion in coulombs,
	// exact since the 2019 SI redefinition.
	ElementaryCharge = 1.602176634e-19

	// FWHMPerSigma relates a Gaussian full width at half maximum to its
	// standard deviation. The beamline calibration records use this rounded
	// factor rather than the exact 2*sqrt(2*ln 2), so the engine does too.
	FWHMPerSigma = 2.3548

	// PerMM2ToPerCM2 rescales an areal density from mm^-2 to cm^-2.
	PerMM2ToPerCM2 = 100.0
)

// IsValid checks if the given unit is in the list of valid fluence units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mm2, cm2"
}

// SigmaFromFWHM converts a beam profile full width at half maximum to the
// Gaussian sigma used by the deposition kernel.
func SigmaFromFWHM(fwhm float64) float64 {
	return fwhm / FWHMPerSigma
}

// FWHMFromSigma is the inverse of SigmaFromFWHM.
func FWHMFromSigma(sigma float64) float64 {
	return sigma * FWHMPerSigma
}

// IonsFromCurrent converts a beam current held for a duration into an ion
// count. Currents are in amperes, durations in seconds.
func IonsFromCurrent(currentA, seconds float64) float64 {
	return currentA * seconds / ElementaryCharge
}

// ConvertFluence converts a fluence from ions/mm^2 to the target units.
// The accumulation grids work in ions/mm^2 internally.
func ConvertFluence(perMM2 float64, targetUnits string) float64 {
	switch targetUnits {
	case PerCM2:
		return perMM2 * PerMM2ToPerCM2
	case PerMM2:
		return perMM2
	default:
		return perMM2
	}
}
