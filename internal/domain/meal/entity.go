// Package meal holds the Meal aggregate: a named list of ingredient entries
// that swaps are computed against and applied to.
package meal

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
	"github.com/alchemorsel/mealswap/internal/domain/shared"
)

const maxNameLength = 200

// Meal is the aggregate root for a logged meal
type Meal struct {
	shared.AggregateRoot

	id          uuid.UUID
	name        string
	ingredients []nutrition.IngredientEntry
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewMeal creates a meal from ingredient entries. Entries are copied.
func NewMeal(name string, ingredients []nutrition.IngredientEntry) (*Meal, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if len(ingredients) == 0 {
		return nil, ErrNoIngredients
	}
	for _, entry := range ingredients {
		if err := entry.Validate(); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	m := &Meal{
		id:          uuid.New(),
		name:        name,
		ingredients: slices.Clone(ingredients),
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}

	m.AddEvent(MealCreatedEvent{
		MealID:          m.id,
		Name:            m.name,
		IngredientCount: len(m.ingredients),
		CreatedAt:       now,
	})

	return m, nil
}

// Reconstitute rebuilds a meal from storage without raising events
func Reconstitute(id uuid.UUID, name string, ingredients []nutrition.IngredientEntry, version int64, createdAt, updatedAt time.Time) *Meal {
	return &Meal{
		id:          id,
		name:        name,
		ingredients: slices.Clone(ingredients),
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ApplySwap replaces every ingredient entry equal to original (same food id
// and quantity) with replacement and returns how many entries changed.
func (m *Meal) ApplySwap(original, replacement nutrition.IngredientEntry) (int, error) {
	if original.FoodID == replacement.FoodID {
		return 0, ErrSameFood
	}
	if original.Quantity != replacement.Quantity {
		return 0, ErrQuantityMismatch
	}
	if err := replacement.Validate(); err != nil {
		return 0, err
	}

	replaced := 0
	for i, entry := range m.ingredients {
		if entry == original {
			m.ingredients[i] = replacement
			replaced++
		}
	}
	if replaced == 0 {
		return 0, ErrSwapNotApplicable
	}

	m.version++
	m.updatedAt = time.Now().UTC()

	m.AddEvent(SwapAppliedEvent{
		MealID:      m.id,
		Original:    original,
		Replacement: replacement,
		Replaced:    replaced,
		Version:     m.version,
		AppliedAt:   m.updatedAt,
	})

	return replaced, nil
}

// Contains reports whether any entry equals entry
func (m *Meal) Contains(entry nutrition.IngredientEntry) bool {
	return slices.Contains(m.ingredients, entry)
}

// Getters

func (m *Meal) ID() uuid.UUID { return m.id }
func (m *Meal) Name() string { return m.name }
func (m *Meal) Version() int64 { return m.version }
func (m *Meal) CreatedAt() time.Time { return m.createdAt }
func (m *Meal) UpdatedAt() time.Time { return m.updatedAt }
func (m *Meal) Ingredients() []nutrition.IngredientEntry { return slices.Clone(m.ingredients) }

func validateName(name string) error {
	if name == "" {
		return ErrMealNameRequired
	}
	if len(name) > maxNameLength {
		return ErrMealNameTooLong
	}
	return nil
}
