// Package swap implements single-ingredient substitution search: it
// aggregates a meal's nutrients, filters same-group candidates that move a
// goal's target nutrient the right way, rejects candidates that disturb the
// rest of the meal too much, and scores what is left.
package swap

import (
	"strings"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
)

// ComputeTotals sums the nutrient contributions of entries, scaled per 100
// units of quantity. Keys are lower-cased. Entries whose food is missing from
// the catalog contribute nothing.
func ComputeTotals(entries []nutrition.IngredientEntry, catalog *nutrition.Catalog) map[string]float64 {
	totals := make(map[string]float64)
	for _, entry := range entries {
		food, ok := catalog.Lookup(entry.FoodID)
		if !ok {
			continue
		}
		scale := entry.Quantity / 100.0
		for name, amount := range food.Nutrients {
			totals[strings.ToLower(name)] += amount * scale
		}
		totals[nutrition.CaloriesKey] += food.CaloriesPer100 * scale
	}
	return totals
}
