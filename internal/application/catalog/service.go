// Package catalog provides the application layer for the food catalog
package catalog

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
	"github.com/alchemorsel/mealswap/internal/ports/inbound"
	"github.com/alchemorsel/mealswap/internal/ports/outbound"
	"github.com/alchemorsel/mealswap/pkg/errors"
)

// CatalogService implements inbound.CatalogService
type CatalogService struct {
	foods         outbound.FoodRepository
	cache         outbound.CacheRepository
	swapKeyPrefix string
	logger        *zap.Logger
}

// NewCatalogService creates a new catalog service. Imports drop every cached
// suggestion under swapKeyPrefix; cache may be nil.
func NewCatalogService(
	foods outbound.FoodRepository,
	cache outbound.CacheRepository,
	swapKeyPrefix string,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		foods:         foods,
		cache:         cache,
		swapKeyPrefix: swapKeyPrefix,
		logger:        logger.Named("catalog-service"),
	}
}

var _ inbound.CatalogService = (*CatalogService)(nil)

// ListFoods returns catalog foods ordered by id, optionally limited to a group
func (s *CatalogService) ListFoods(ctx context.Context, query inbound.FoodQuery) ([]inbound.FoodDTO, error) {
	var (
		foods []nutrition.FoodItem
		err   error
	)
	if group := strings.TrimSpace(query.Group); group != "" {
		foods, err = s.foods.FindByGroup(ctx, group)
	} else {
		foods, err = s.foods.FindAll(ctx)
	}
	if err != nil {
		return nil, errors.NewDatabaseError("list foods", err)
	}

	dtos := make([]inbound.FoodDTO, 0, len(foods))
	for _, food := range foods {
		dtos = append(dtos, FoodToDTO(food))
	}
	return dtos, nil
}

// GetFood returns one catalog food
func (s *CatalogService) GetFood(ctx context.Context, id int) (*inbound.FoodDTO, error) {
	food, err := s.foods.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, nutrition.ErrFoodNotFound) {
			return nil, errors.NewFoodNotFoundError(id)
		}
		return nil, errors.NewDatabaseError("find food", err)
	}

	dto := FoodToDTO(*food)
	return &dto, nil
}

// ImportFoods validates and upserts foods. Nothing is written if any food
// is invalid.
func (s *CatalogService) ImportFoods(ctx context.Context, cmd inbound.ImportFoodsCommand) (*inbound.ImportResultDTO, error) {
	if len(cmd.Foods) == 0 {
		return nil, errors.NewValidationError("at least one food is required")
	}

	var invalid []errors.ValidationError
	seen := make(map[int]bool, len(cmd.Foods))
	for i, food := range cmd.Foods {
		field := fmt.Sprintf("foods[%d]", i)
		if err := food.Validate(); err != nil {
			invalid = append(invalid, errors.ValidationError{Field: field, Message: field + ": " + err.Error(), Value: food.ID})
			continue
		}
		if seen[food.ID] {
			invalid = append(invalid, errors.ValidationError{Field: field, Message: field + ": duplicate food id", Value: food.ID})
		}
		seen[food.ID] = true
	}
	if len(invalid) > 0 {
		return nil, errors.NewValidationErrors(invalid)
	}

	if err := s.foods.Upsert(ctx, cmd.Foods); err != nil {
		return nil, errors.NewDatabaseError("import foods", err)
	}

	if s.cache != nil && s.swapKeyPrefix != "" {
		if err := s.cache.DeletePrefix(ctx, s.swapKeyPrefix); err != nil {
			s.logger.Warn("Failed to invalidate cached suggestions after import", zap.Error(err))
		}
	}

	s.logger.Info("Imported foods", zap.Int("count", len(cmd.Foods)))

	return &inbound.ImportResultDTO{Imported: len(cmd.Foods)}, nil
}

// FoodToDTO maps a catalog food to its DTO
func FoodToDTO(food nutrition.FoodItem) inbound.FoodDTO {
	nutrients := make(map[string]float64, len(food.Nutrients))
	for k, v := range food.Nutrients {
		nutrients[k] = v
	}
	return inbound.FoodDTO{
		ID:             food.ID,
		Name:           food.Name,
		FoodGroup:      food.FoodGroup,
		CaloriesPer100: food.CaloriesPer100,
		Nutrients:      nutrients,
	}
}
