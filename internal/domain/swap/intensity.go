package swap

import "github.com/alchemorsel/mealswap/internal/domain/nutrition"

// IntensityFactor maps an intensity label to the multiplier applied to a
// goal's target amount. Unrecognized labels, including empty ones, are 1.0.
func IntensityFactor(label string) float64 {
	switch nutrition.ParseIntensity(label) {
	case nutrition.IntensityModerate:
		return 1.25
	case nutrition.IntensityHigh:
		return 1.5
	default:
		return 1.0
	}
}
