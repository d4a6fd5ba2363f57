// Package nutrition contains the value objects shared by the swap engine
// and the meal aggregate: foods, ingredient entries, goals and suggestions.
package nutrition

import (
	"strings"
)

// Direction is the way a goal wants a nutrient to move
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

// Intensity is the qualitative strength of a goal
type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

// CaloriesKey is the synthetic nutrient key fed by FoodItem.CaloriesPer100
const CaloriesKey = "calories"

// FoodItem is a catalog entry. Nutrient amounts are per 100 units (grams).
// A FoodItem is treated as immutable once loaded; nothing in this module
// writes to Nutrients after construction.
type FoodItem struct {
	ID             int                `json:"id" yaml:"id"`
	Name           string             `json:"name" yaml:"name"`
	FoodGroup      string             `json:"food_group" yaml:"food_group"`
	CaloriesPer100 float64            `json:"calories_per_100" yaml:"calories_per_100"`
	Nutrients      map[string]float64 `json:"nutrients" yaml:"nutrients"`
}

// Nutrient returns the per-100 amount of the named nutrient, matching keys
// case-insensitively. Absent nutrients read as zero.
func (f FoodItem) Nutrient(name string) float64 {
	if v, ok := f.Nutrients[name]; ok {
		return v
	}
	for key, v := range f.Nutrients {
		if strings.EqualFold(key, name) {
			return v
		}
	}
	return 0
}

// Amount is the per-100 value the swap search compares. It is Nutrient(name),
// except that calories fall back to CaloriesPer100 when the nutrient map has
// no calories key.
func (f FoodItem) Amount(name string) float64 {
	if strings.EqualFold(strings.TrimSpace(name), CaloriesKey) && !f.HasNutrient(CaloriesKey) {
		return f.CaloriesPer100
	}
	return f.Nutrient(name)
}

// HasNutrient reports whether the nutrient map carries the named key
func (f FoodItem) HasNutrient(name string) bool {
	for key := range f.Nutrients {
		if strings.EqualFold(key, name) {
			return true
		}
	}
	return false
}

// IngredientEntry references a food by id with a quantity in the same
// unit base as the per-100 nutrient amounts.
type IngredientEntry struct {
	FoodID   int     `json:"food_id" yaml:"food_id"`
	Quantity float64 `json:"quantity" yaml:"quantity"`
}

// Goal is a user's requested change to one nutrient
type Goal struct {
	Nutrient     string  `json:"nutrient" yaml:"nutrient"`
	Direction    string  `json:"direction" yaml:"direction"`
	TargetAmount float64 `json:"target_amount" yaml:"target_amount"`
	Intensity    string  `json:"intensity" yaml:"intensity"`
}

// GoalContext is the normalized form of a Goal used while scoring
type GoalContext struct {
	Nutrient     string
	Direction    Direction
	TargetAmount float64
	Intensity    Intensity
}

// NewGoalContext lower-cases and trims the goal's nutrient and direction.
// Unrecognized intensities collapse to low.
func NewGoalContext(goal Goal) GoalContext {
	return GoalContext{
		Nutrient:     normalize(goal.Nutrient),
		Direction:    Direction(normalize(goal.Direction)),
		TargetAmount: goal.TargetAmount,
		Intensity:    ParseIntensity(goal.Intensity),
	}
}

// IsTarget reports whether name refers to the goal's target nutrient
func (g GoalContext) IsTarget(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), g.Nutrient)
}

// ParseIntensity maps a label onto an Intensity, defaulting to low
func ParseIntensity(label string) Intensity {
	switch Intensity(normalize(label)) {
	case IntensityModerate:
		return IntensityModerate
	case IntensityHigh:
		return IntensityHigh
	default:
		return IntensityLow
	}
}

// SwapSuggestion proposes replacing one ingredient entry with another food
// at the same quantity.
type SwapSuggestion struct {
	Original    IngredientEntry `json:"original"`
	Replacement IngredientEntry `json:"replacement"`
	Reason      string          `json:"reason"`
	Goal        GoalContext     `json:"-"`
	Score       float64         `json:"score"`
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
