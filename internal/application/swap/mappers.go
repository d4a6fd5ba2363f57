package swap

import (
	"github.com/alchemorsel/mealswap/internal/domain/meal"
	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
	"github.com/alchemorsel/mealswap/internal/ports/inbound"
)

func toGoals(inputs []inbound.GoalInput) []nutrition.Goal {
	goals := make([]nutrition.Goal, 0, len(inputs))
	for _, in := range inputs {
		goals = append(goals, nutrition.Goal{
			Nutrient:     in.Nutrient,
			Direction:    in.Direction,
			TargetAmount: in.TargetAmount,
			Intensity:    in.Intensity,
		})
	}
	return goals
}

func mealToDTO(m *meal.Meal, names map[int]string) *inbound.MealDTO {
	ingredients := m.Ingredients()
	dto := &inbound.MealDTO{
		ID:          m.ID(),
		Name:        m.Name(),
		Version:     m.Version(),
		Ingredients: make([]inbound.IngredientDTO, 0, len(ingredients)),
		CreatedAt:   m.CreatedAt(),
		UpdatedAt:   m.UpdatedAt(),
	}
	for _, entry := range ingredients {
		dto.Ingredients = append(dto.Ingredients, inbound.IngredientDTO{
			FoodID:   entry.FoodID,
			FoodName: names[entry.FoodID],
			Quantity: entry.Quantity,
		})
	}
	return dto
}

func suggestionsToDTO(suggestions []nutrition.SwapSuggestion, catalog *nutrition.Catalog) []inbound.SwapSuggestionDTO {
	dtos := make([]inbound.SwapSuggestionDTO, 0, len(suggestions))
	for _, s := range suggestions {
		dtos = append(dtos, inbound.SwapSuggestionDTO{
			Nutrient:    s.Goal.Nutrient,
			Direction:   string(s.Goal.Direction),
			Original:    ingredientDTO(s.Original, catalog),
			Replacement: ingredientDTO(s.Replacement, catalog),
			Reason:      s.Reason,
			Score:       s.Score,
		})
	}
	return dtos
}

func ingredientDTO(entry nutrition.IngredientEntry, catalog *nutrition.Catalog) inbound.IngredientDTO {
	dto := inbound.IngredientDTO{FoodID: entry.FoodID, Quantity: entry.Quantity}
	if food, ok := catalog.Lookup(entry.FoodID); ok {
		dto.FoodName = food.Name
	}
	return dto
}
