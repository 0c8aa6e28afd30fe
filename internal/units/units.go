// Package units provides shared constants and validation for diffusion
// coefficient units
package units

// Unit constants
const (
	UM2S = "um2s" // µm²/s
	NM2S = "nm2s" // nm²/s
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{UM2S, NM2S}

// IsValid checks if the given unit is in the list of valid units
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
	return "um2s, nm2s"
}

// ConvertDiffusion converts a diffusion coefficient from µm²/s to the
// target units. The pipeline computes everything in µm²/s.
func ConvertDiffusion(dUM2S float64, targetUnits string) float64 {
	switch targetUnits {
	case UM2S:
		return dUM2S
	case NM2S:
		return dUM2S * 1e6
	default:
		return dUM2S
	}
}
