package swap

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
)

// Explain renders a one-sentence reason for replacing original with
// candidate. Values are per 100g with one decimal place.
func Explain(original, candidate nutrition.FoodItem, goal nutrition.GoalContext) string {
	before := original.Amount(goal.Nutrient)
	after := candidate.Amount(goal.Nutrient)

	if !movesToward(goal.Direction, before, after) {
		return fmt.Sprintf("Replace %s with %s for a better nutritional balance.", original.Name, candidate.Name)
	}

	return fmt.Sprintf("Replace %s with %s to %s %s (%.1f → %.1f per 100g).",
		original.Name, candidate.Name, goal.Direction, titleCase(goal.Nutrient), before, after)
}

func titleCase(s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
