package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
	"github.com/alchemorsel/mealswap/internal/ports/outbound"
)

// FoodRepository implements the food catalog using GORM
type FoodRepository struct {
	db *gorm.DB
}

// NewFoodRepository creates a new food repository
func NewFoodRepository(db *gorm.DB) outbound.FoodRepository {
	return &FoodRepository{db: db}
}

// FindByID finds a food by id
func (r *FoodRepository) FindByID(ctx context.Context, id int) (*nutrition.FoodItem, error) {
	var model FoodModel

	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nutrition.ErrFoodNotFound
		}
		return nil, result.Error
	}

	food := ModelToFood(&model)
	return &food, nil
}

// FindAll returns every food ordered by id
func (r *FoodRepository) FindAll(ctx context.Context) ([]nutrition.FoodItem, error) {
	var models []FoodModel

	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	return toFoods(models), nil
}

// FindByGroup returns the foods of one group ordered by id
func (r *FoodRepository) FindByGroup(ctx context.Context, group string) ([]nutrition.FoodItem, error) {
	var models []FoodModel

	err := r.db.WithContext(ctx).
		Where("food_group = ?", group).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return toFoods(models), nil
}

// Upsert inserts foods, replacing any existing row with the same id
func (r *FoodRepository) Upsert(ctx context.Context, foods []nutrition.FoodItem) error {
	if len(foods) == 0 {
		return nil
	}

	models := make([]*FoodModel, 0, len(foods))
	for _, f := range foods {
		models = append(models, FoodToModel(f))
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "food_group", "calories_per_100", "nutrients", "updated_at"}),
		}).
		CreateInBatches(models, 100).Error
}

// Count returns the number of foods
func (r *FoodRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&FoodModel{}).Count(&count).Error
	return count, err
}

func toFoods(models []FoodModel) []nutrition.FoodItem {
	foods := make([]nutrition.FoodItem, 0, len(models))
	for i := range models {
		foods = append(foods, ModelToFood(&models[i]))
	}
	return foods
}
