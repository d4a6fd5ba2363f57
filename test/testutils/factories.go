// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/alchemorsel/mealswap/internal/domain/meal"
	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
)

// FoodGroups are the groups generated foods are drawn from
var FoodGroups = []string{"Meat", "Dairy", "Grains", "Vegetables", "Fruit", "Legumes"}

// TrackedNutrients are the nutrient keys generated foods carry
var TrackedNutrients = []string{"Protein", "Fat", "Carbohydrates", "Fiber", "Sodium"}

// FoodFactory creates foods with seeded, reproducible values
type FoodFactory struct {
	faker  *gofakeit.Faker
	nextID int
}

// NewFoodFactory creates a new food factory with seeded faker
func NewFoodFactory(seed int64) *FoodFactory {
	return &FoodFactory{
		faker:  gofakeit.New(seed),
		nextID: 1,
	}
}

// FoodBuilder provides a fluent interface for building test foods
type FoodBuilder struct {
	food nutrition.FoodItem
}

// NewFoodBuilder starts a food with the given id and group and no nutrients
func NewFoodBuilder(id int, name, group string) *FoodBuilder {
	return &FoodBuilder{food: nutrition.FoodItem{
		ID:        id,
		Name:      name,
		FoodGroup: group,
		Nutrients: map[string]float64{},
	}}
}

// WithCalories sets CaloriesPer100 and mirrors it into the "Calories" nutrient
func (b *FoodBuilder) WithCalories(kcal float64) *FoodBuilder {
	b.food.CaloriesPer100 = kcal
	b.food.Nutrients["Calories"] = kcal
	return b
}

// WithCaloriesPer100 sets only CaloriesPer100
func (b *FoodBuilder) WithCaloriesPer100(kcal float64) *FoodBuilder {
	b.food.CaloriesPer100 = kcal
	return b
}

// WithNutrient sets a nutrient amount per 100 units
func (b *FoodBuilder) WithNutrient(name string, amount float64) *FoodBuilder {
	b.food.Nutrients[name] = amount
	return b
}

// Build returns the food
func (b *FoodBuilder) Build() nutrition.FoodItem {
	nutrients := make(map[string]float64, len(b.food.Nutrients))
	for k, v := range b.food.Nutrients {
		nutrients[k] = v
	}
	food := b.food
	food.Nutrients = nutrients
	return food
}

// CreateFood creates a random valid food in a random group
func (f *FoodFactory) CreateFood() nutrition.FoodItem {
	return f.CreateFoodInGroup(FoodGroups[f.faker.Number(0, len(FoodGroups)-1)])
}

// CreateFoodInGroup creates a random valid food in group
func (f *FoodFactory) CreateFoodInGroup(group string) nutrition.FoodItem {
	id := f.nextID
	f.nextID++

	nutrients := make(map[string]float64, len(TrackedNutrients))
	for _, name := range TrackedNutrients {
		nutrients[name] = f.faker.Float64Range(0.1, 40)
	}

	return nutrition.FoodItem{
		ID:             id,
		Name:           fmt.Sprintf("%s %d", f.faker.Noun(), id),
		FoodGroup:      group,
		CaloriesPer100: f.faker.Float64Range(20, 600),
		Nutrients:      nutrients,
	}
}

// CreateCatalog creates a catalog of n random foods
func (f *FoodFactory) CreateCatalog(n int) *nutrition.Catalog {
	items := make([]nutrition.FoodItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, f.CreateFood())
	}
	return nutrition.NewCatalog(items...)
}

// CreateIngredients picks n entries from catalog with random quantities
func (f *FoodFactory) CreateIngredients(catalog *nutrition.Catalog, n int) []nutrition.IngredientEntry {
	items := catalog.Items()
	entries := make([]nutrition.IngredientEntry, 0, n)
	for i := 0; i < n && len(items) > 0; i++ {
		food := items[f.faker.Number(0, len(items)-1)]
		entries = append(entries, nutrition.IngredientEntry{
			FoodID:   food.ID,
			Quantity: float64(f.faker.Number(10, 300)),
		})
	}
	return entries
}

// CreateGoal creates a random goal over a built-in nutrient
func (f *FoodFactory) CreateGoal() nutrition.Goal {
	nutrients := []string{"Calories", "Protein", "Carbohydrates", "Fat", "Fiber"}
	directions := []string{"increase", "decrease"}
	intensities := []string{"low", "moderate", "high", ""}

	return nutrition.Goal{
		Nutrient:     nutrients[f.faker.Number(0, len(nutrients)-1)],
		Direction:    directions[f.faker.Number(0, 1)],
		TargetAmount: f.faker.Float64Range(1, 100),
		Intensity:    intensities[f.faker.Number(0, len(intensities)-1)],
	}
}

// MealFactory creates meals over a catalog
type MealFactory struct {
	faker *gofakeit.Faker
}

// NewMealFactory creates a new meal factory with seeded faker
func NewMealFactory(seed int64) *MealFactory {
	return &MealFactory{faker: gofakeit.New(seed)}
}

// CreateMeal creates a meal with the given ingredients and a random name
func (f *MealFactory) CreateMeal(ingredients []nutrition.IngredientEntry) *meal.Meal {
	m, err := meal.NewMeal(f.faker.Dinner(), ingredients)
	if err != nil {
		panic(fmt.Sprintf("testutils: invalid meal fixture: %v", err))
	}
	m.Events()
	return m
}

// ScenarioCatalog returns the beef/chicken catalog used across tests
func ScenarioCatalog() *nutrition.Catalog {
	return nutrition.NewCatalog(
		NewFoodBuilder(1, "Beef", "Meat").WithCalories(250).Build(),
		NewFoodBuilder(2, "Chicken", "Meat").WithCalories(150).Build(),
	)
}
