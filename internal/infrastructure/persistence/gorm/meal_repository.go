package gorm

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alchemorsel/mealswap/internal/domain/meal"
	"github.com/alchemorsel/mealswap/internal/ports/outbound"
)

// MealRepository implements the meal store using GORM
type MealRepository struct {
	db *gorm.DB
}

// NewMealRepository creates a new meal repository
func NewMealRepository(db *gorm.DB) outbound.MealRepository {
	return &MealRepository{db: db}
}

// Create stores a new meal with its ingredients
func (r *MealRepository) Create(ctx context.Context, m *meal.Meal) error {
	model := MealToModel(m)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update stores a changed meal. The row must still hold the previous
// version, otherwise another writer got there first.
func (r *MealRepository) Update(ctx context.Context, m *meal.Meal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&MealModel{}).
			Where("id = ? AND version = ?", m.ID(), m.Version()-1).
			Updates(map[string]interface{}{
				"name":       m.Name(),
				"version":    m.Version(),
				"updated_at": m.UpdatedAt(),
			})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&MealModel{}).Where("id = ?", m.ID()).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return meal.ErrMealNotFound
			}
			return meal.ErrVersionConflict
		}

		if err := tx.Where("meal_id = ?", m.ID()).Delete(&MealIngredientModel{}).Error; err != nil {
			return err
		}

		ingredients := ingredientModels(m)
		if len(ingredients) == 0 {
			return nil
		}
		return tx.Create(&ingredients).Error
	})
}

// FindByID finds a meal by id with its ingredients in entry order
func (r *MealRepository) FindByID(ctx context.Context, id uuid.UUID) (*meal.Meal, error) {
	var model MealModel

	result := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, meal.ErrMealNotFound
		}
		return nil, result.Error
	}

	return ModelToMeal(&model), nil
}
