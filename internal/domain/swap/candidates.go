package swap

import (
	"iter"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
)

// Candidates yields catalog foods that could replace original under goal:
// same food group (exact match), a different id, and strictly better on the
// target nutrient. The sequence is lazy and may be ranged over repeatedly.
// A direction other than increase or decrease yields nothing.
func Candidates(original nutrition.FoodItem, goal nutrition.GoalContext, catalog *nutrition.Catalog) iter.Seq[nutrition.FoodItem] {
	return func(yield func(nutrition.FoodItem) bool) {
		origValue := original.Amount(goal.Nutrient)
		for food := range catalog.All() {
			if food.ID == original.ID || food.FoodGroup != original.FoodGroup {
				continue
			}
			if !movesToward(goal.Direction, origValue, food.Amount(goal.Nutrient)) {
				continue
			}
			if !yield(food) {
				return
			}
		}
	}
}

func movesToward(direction nutrition.Direction, from, to float64) bool {
	switch direction {
	case nutrition.DirectionIncrease:
		return to > from
	case nutrition.DirectionDecrease:
		return to < from
	default:
		return false
	}
}
