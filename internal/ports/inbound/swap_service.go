// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
)

// SwapService defines the meal and swap use cases.
// HTTP handlers and the CLI drive the application through it.
type SwapService interface {
	// Commands - operations that modify state
	CreateMeal(ctx context.Context, cmd CreateMealCommand) (*MealDTO, error)
	ApplySwap(ctx context.Context, cmd ApplySwapCommand) (*MealDTO, error)

	// Queries - operations that read state
	GetMeal(ctx context.Context, mealID uuid.UUID) (*MealDTO, error)
	SuggestSwaps(ctx context.Context, cmd SuggestSwapsCommand) (*SwapSuggestionsDTO, error)
	AnalyzeMeal(ctx context.Context, mealID uuid.UUID) (*MealAnalysisDTO, error)
}

// CatalogService defines the food catalog use cases
type CatalogService interface {
	ListFoods(ctx context.Context, query FoodQuery) ([]FoodDTO, error)
	GetFood(ctx context.Context, id int) (*FoodDTO, error)
	ImportFoods(ctx context.Context, cmd ImportFoodsCommand) (*ImportResultDTO, error)
}

// Command objects for operations

// CreateMealCommand contains data for logging a meal
type CreateMealCommand struct {
	Name        string                      `json:"name" validate:"required,max=200"`
	Ingredients []nutrition.IngredientEntry `json:"ingredients" validate:"required,min=1,dive"`
}

// GoalInput is one requested nutrient change
type GoalInput struct {
	Nutrient     string  `json:"nutrient" validate:"required"`
	Direction    string  `json:"direction" validate:"required"`
	TargetAmount float64 `json:"target_amount" validate:"gte=0"`
	Intensity    string  `json:"intensity,omitempty"`
}

// SuggestSwapsCommand asks for substitutions in a stored meal
type SuggestSwapsCommand struct {
	MealID uuid.UUID   `json:"-"`
	Goals  []GoalInput `json:"goals" validate:"required,min=1,dive"`
}

// ApplySwapCommand replaces matching ingredient entries in a stored meal
type ApplySwapCommand struct {
	MealID      uuid.UUID                 `json:"-"`
	Original    nutrition.IngredientEntry `json:"original"`
	Replacement nutrition.IngredientEntry `json:"replacement"`
}

// FoodQuery filters the catalog
type FoodQuery struct {
	Group string
}

// ImportFoodsCommand upserts foods into the catalog
type ImportFoodsCommand struct {
	Foods []nutrition.FoodItem `json:"foods" validate:"required,min=1"`
}

// DTOs for responses

// FoodDTO is a catalog food
type FoodDTO struct {
	ID             int                `json:"id"`
	Name           string             `json:"name"`
	FoodGroup      string             `json:"food_group"`
	CaloriesPer100 float64            `json:"calories_per_100"`
	Nutrients      map[string]float64 `json:"nutrients"`
}

// IngredientDTO is an ingredient entry resolved against the catalog
type IngredientDTO struct {
	FoodID   int     `json:"food_id"`
	FoodName string  `json:"food_name,omitempty"`
	Quantity float64 `json:"quantity"`
}

// MealDTO is a stored meal
type MealDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Version     int64           `json:"version"`
	Ingredients []IngredientDTO `json:"ingredients"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SwapSuggestionDTO is one suggested substitution
type SwapSuggestionDTO struct {
	Nutrient    string        `json:"nutrient"`
	Direction   string        `json:"direction"`
	Original    IngredientDTO `json:"original"`
	Replacement IngredientDTO `json:"replacement"`
	Reason      string        `json:"reason"`
	Score       float64       `json:"score"`
}

// SwapSuggestionsDTO is the result of SuggestSwaps
type SwapSuggestionsDTO struct {
	MealID      uuid.UUID           `json:"meal_id"`
	MealVersion int64               `json:"meal_version"`
	Suggestions []SwapSuggestionDTO `json:"suggestions"`
	Cached      bool                `json:"cached"`
}

// MealAnalysisDTO carries the nutrient totals of a meal
type MealAnalysisDTO struct {
	MealID            uuid.UUID          `json:"meal_id"`
	Totals            map[string]float64 `json:"totals"`
	UnresolvedFoodIDs []int              `json:"unresolved_food_ids,omitempty"`
}

// ImportResultDTO reports an import
type ImportResultDTO struct {
	Imported int `json:"imported"`
}
