package swap

import "github.com/alchemorsel/mealswap/internal/domain/nutrition"

const (
	// TargetReachedBonus is added when a single swap covers the goal's full target amount
	TargetReachedBonus = 10.0
	// GroupAffinityBonus is added when the candidate stays in the original's food group
	GroupAffinityBonus = 2.0
)

// Score rates candidate as a replacement for original under goal; higher is
// better. The base is the change in the target nutrient oriented by the goal
// direction. The target bonus is all-or-nothing.
func Score(original, candidate nutrition.FoodItem, goal nutrition.GoalContext, totals map[string]float64) float64 {
	origValue := original.Amount(goal.Nutrient)
	replValue := candidate.Amount(goal.Nutrient)
	current := totals[goal.Nutrient]
	projected := current - origValue + replValue

	var score float64
	switch goal.Direction {
	case nutrition.DirectionIncrease:
		score = replValue - origValue
		if projected >= current+goal.TargetAmount {
			score += TargetReachedBonus
		}
	case nutrition.DirectionDecrease:
		score = origValue - replValue
		if projected <= current-goal.TargetAmount {
			score += TargetReachedBonus
		}
	}

	if original.FoodGroup == candidate.FoodGroup {
		score += GroupAffinityBonus
	}
	return score
}
