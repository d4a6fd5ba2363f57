package gorm

import (
	"maps"

	"github.com/alchemorsel/mealswap/internal/domain/meal"
	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
)

// FoodToModel converts a domain food to a GORM model
func FoodToModel(f nutrition.FoodItem) *FoodModel {
	return &FoodModel{
		ID:             f.ID,
		Name:           f.Name,
		FoodGroup:      f.FoodGroup,
		CaloriesPer100: f.CaloriesPer100,
		Nutrients:      NutrientMap(maps.Clone(f.Nutrients)),
	}
}

// ModelToFood converts a GORM model to a domain food
func ModelToFood(m *FoodModel) nutrition.FoodItem {
	nutrients := map[string]float64(maps.Clone(m.Nutrients))
	if nutrients == nil {
		nutrients = map[string]float64{}
	}
	return nutrition.FoodItem{
		ID:             m.ID,
		Name:           m.Name,
		FoodGroup:      m.FoodGroup,
		CaloriesPer100: m.CaloriesPer100,
		Nutrients:      nutrients,
	}
}

// MealToModel converts a domain meal to a GORM model
func MealToModel(m *meal.Meal) *MealModel {
	model := &MealModel{
		ID:        m.ID(),
		Name:      m.Name(),
		Version:   m.Version(),
		CreatedAt: m.CreatedAt(),
		UpdatedAt: m.UpdatedAt(),
	}
	model.Ingredients = ingredientModels(m)
	return model
}

func ingredientModels(m *meal.Meal) []MealIngredientModel {
	entries := m.Ingredients()
	models := make([]MealIngredientModel, 0, len(entries))
	for i, entry := range entries {
		models = append(models, MealIngredientModel{
			MealID:   m.ID(),
			Position: i,
			FoodID:   entry.FoodID,
			Quantity: entry.Quantity,
		})
	}
	return models
}

// ModelToMeal converts a GORM model to a domain meal. Ingredients must be
// loaded in position order.
func ModelToMeal(m *MealModel) *meal.Meal {
	entries := make([]nutrition.IngredientEntry, 0, len(m.Ingredients))
	for _, ing := range m.Ingredients {
		entries = append(entries, nutrition.IngredientEntry{
			FoodID:   ing.FoodID,
			Quantity: ing.Quantity,
		})
	}
	return meal.Reconstitute(m.ID, m.Name, entries, m.Version, m.CreatedAt, m.UpdatedAt)
}
