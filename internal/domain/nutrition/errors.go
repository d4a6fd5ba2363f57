package nutrition

import "errors"

// Domain errors for foods and goals

var (
	ErrFoodNotFound      = errors.New("food not found")
	ErrFoodNameRequired  = errors.New("food name is required")
	ErrFoodGroupRequired = errors.New("food group is required")
	ErrNegativeNutrient  = errors.New("nutrient amounts cannot be negative")
	ErrNegativeQuantity  = errors.New("ingredient quantity cannot be negative")
	ErrInvalidFoodID     = errors.New("food id must be positive")
)

// Validate checks a food before it enters a catalog store
func (f FoodItem) Validate() error {
	if f.ID <= 0 {
		return ErrInvalidFoodID
	}
	if f.Name == "" {
		return ErrFoodNameRequired
	}
	if f.FoodGroup == "" {
		return ErrFoodGroupRequired
	}
	if f.CaloriesPer100 < 0 {
		return ErrNegativeNutrient
	}
	for _, v := range f.Nutrients {
		if v < 0 {
			return ErrNegativeNutrient
		}
	}
	return nil
}

// Validate checks an ingredient entry
func (e IngredientEntry) Validate() error {
	if e.FoodID <= 0 {
		return ErrInvalidFoodID
	}
	if e.Quantity < 0 {
		return ErrNegativeQuantity
	}
	return nil
}
