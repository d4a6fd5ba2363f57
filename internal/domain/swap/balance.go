package swap

import (
	"math"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
)

// Tolerance is the largest fraction of a non-target nutrient's meal total
// that a single swap may shift.
const Tolerance = 0.10

// IsBalanced reports whether swapping original for candidate keeps every
// non-target nutrient in totals within Tolerance of its current total.
//
// The shift is measured on per-100 values. A nutrient whose current total is
// zero tolerates no change at all: any nonzero shift against a zero base is
// rejected, an unchanged value passes.
func IsBalanced(original, candidate nutrition.FoodItem, totals map[string]float64, goal nutrition.GoalContext) bool {
	for name, total := range totals {
		if goal.IsTarget(name) {
			continue
		}
		delta := math.Abs(candidate.Amount(name) - original.Amount(name))
		if total == 0 {
			if delta != 0 {
				return false
			}
			continue
		}
		if delta/math.Abs(total) > Tolerance {
			return false
		}
	}
	return true
}
