// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application needs from the outside world
package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/alchemorsel/mealswap/internal/domain/meal"
	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
	"github.com/alchemorsel/mealswap/internal/domain/shared"
)

// FoodRepository is the food catalog provider. Foods come back ordered by id
// so that catalogs built from them iterate deterministically.
type FoodRepository interface {
	// FindByID returns nutrition.ErrFoodNotFound when no food has the id
	FindByID(ctx context.Context, id int) (*nutrition.FoodItem, error)
	FindAll(ctx context.Context) ([]nutrition.FoodItem, error)
	FindByGroup(ctx context.Context, group string) ([]nutrition.FoodItem, error)
	// Upsert inserts or replaces foods by id
	Upsert(ctx context.Context, foods []nutrition.FoodItem) error
	Count(ctx context.Context) (int64, error)
}

// MealRepository stores meals and their ingredient entries
type MealRepository interface {
	Create(ctx context.Context, m *meal.Meal) error
	// Update persists m if the stored version is one behind, else
	// meal.ErrVersionConflict
	Update(ctx context.Context, m *meal.Meal) error
	// FindByID returns meal.ErrMealNotFound when no meal has the id
	FindByID(ctx context.Context, id uuid.UUID) (*meal.Meal, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	// Get returns ErrCacheMiss when key is absent or expired
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix
	DeletePrefix(ctx context.Context, prefix string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// EventPublisher publishes domain events raised by aggregates
type EventPublisher interface {
	Publish(ctx context.Context, events ...shared.DomainEvent) error
}
