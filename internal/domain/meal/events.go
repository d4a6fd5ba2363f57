package meal

import (
	"time"

	"github.com/google/uuid"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
)

// MealCreatedEvent is raised when a meal is logged
type MealCreatedEvent struct {
	MealID          uuid.UUID
	Name            string
	IngredientCount int
	CreatedAt       time.Time
}

func (e MealCreatedEvent) EventName() string {
	return "meal.created"
}

func (e MealCreatedEvent) OccurredAt() time.Time {
	return e.CreatedAt
}

// SwapAppliedEvent is raised when a suggested substitution is applied
type SwapAppliedEvent struct {
	MealID      uuid.UUID
	Original    nutrition.IngredientEntry
	Replacement nutrition.IngredientEntry
	Replaced    int
	Version     int64
	AppliedAt   time.Time
}

func (e SwapAppliedEvent) EventName() string {
	return "meal.swap.applied"
}

func (e SwapAppliedEvent) OccurredAt() time.Time {
	return e.AppliedAt
}
