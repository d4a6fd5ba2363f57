// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/alchemorsel/mealswap/internal/domain/meal"
	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
	"github.com/alchemorsel/mealswap/internal/domain/shared"
	"github.com/alchemorsel/mealswap/internal/ports/inbound"
	"github.com/alchemorsel/mealswap/internal/ports/outbound"
)

// MockFoodRepository provides a mock implementation of FoodRepository
type MockFoodRepository struct {
	mock.Mock
}

var _ outbound.FoodRepository = (*MockFoodRepository)(nil)

// FindByID finds a food by ID
func (m *MockFoodRepository) FindByID(ctx context.Context, id int) (*nutrition.FoodItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*nutrition.FoodItem), args.Error(1)
}

// FindAll returns every food
func (m *MockFoodRepository) FindAll(ctx context.Context) ([]nutrition.FoodItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]nutrition.FoodItem), args.Error(1)
}

// FindByGroup returns the foods in a group
func (m *MockFoodRepository) FindByGroup(ctx context.Context, group string) ([]nutrition.FoodItem, error) {
	args := m.Called(ctx, group)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]nutrition.FoodItem), args.Error(1)
}

// Upsert stores foods
func (m *MockFoodRepository) Upsert(ctx context.Context, foods []nutrition.FoodItem) error {
	args := m.Called(ctx, foods)
	return args.Error(0)
}

// Count counts foods
func (m *MockFoodRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// ExpectCatalog wires FindByID and FindAll to answer from catalog
func (m *MockFoodRepository) ExpectCatalog(catalog *nutrition.Catalog) {
	m.On("FindAll", mock.Anything).Return(catalog.Items(), nil).Maybe()
	for _, food := range catalog.Items() {
		m.On("FindByID", mock.Anything, food.ID).Return(&food, nil).Maybe()
	}
	m.On("FindByID", mock.Anything, mock.AnythingOfType("int")).Return(nil, nutrition.ErrFoodNotFound).Maybe()
}

// MockMealRepository provides a mock implementation of MealRepository
type MockMealRepository struct {
	mock.Mock
}

var _ outbound.MealRepository = (*MockMealRepository)(nil)

// Create stores a meal
func (m *MockMealRepository) Create(ctx context.Context, ml *meal.Meal) error {
	args := m.Called(ctx, ml)
	return args.Error(0)
}

// Update persists a modified meal
func (m *MockMealRepository) Update(ctx context.Context, ml *meal.Meal) error {
	args := m.Called(ctx, ml)
	return args.Error(0)
}

// FindByID finds a meal by ID
func (m *MockMealRepository) FindByID(ctx context.Context, id uuid.UUID) (*meal.Meal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*meal.Meal), args.Error(1)
}

// MockCacheRepository provides a mock implementation of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

var _ outbound.CacheRepository = (*MockCacheRepository)(nil)

// Get retrieves a value from cache
func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Set stores a value in cache
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Delete removes a value from cache
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// DeletePrefix removes values by key prefix
func (m *MockCacheRepository) DeletePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}

// Exists checks if a key exists in cache
func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher provides a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

var _ outbound.EventPublisher = (*MockEventPublisher)(nil)

// Publish publishes events
func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockMetrics records swap metrics calls
type MockMetrics struct {
	mock.Mock
}

// RecordSuggestions records an engine run
func (m *MockMetrics) RecordSuggestions(count int, duration time.Duration) {
	m.Called(count, duration)
}

// RecordSwapApplied records an applied swap
func (m *MockMetrics) RecordSwapApplied() {
	m.Called()
}

// RecordCacheOperation records a cache access
func (m *MockMetrics) RecordCacheOperation(operation, result string) {
	m.Called(operation, result)
}

// MockSwapService provides a mock implementation of inbound.SwapService
type MockSwapService struct {
	mock.Mock
}

var _ inbound.SwapService = (*MockSwapService)(nil)

func (m *MockSwapService) CreateMeal(ctx context.Context, cmd inbound.CreateMealCommand) (*inbound.MealDTO, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.MealDTO), args.Error(1)
}

func (m *MockSwapService) ApplySwap(ctx context.Context, cmd inbound.ApplySwapCommand) (*inbound.MealDTO, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.MealDTO), args.Error(1)
}

func (m *MockSwapService) GetMeal(ctx context.Context, mealID uuid.UUID) (*inbound.MealDTO, error) {
	args := m.Called(ctx, mealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.MealDTO), args.Error(1)
}

func (m *MockSwapService) SuggestSwaps(ctx context.Context, cmd inbound.SuggestSwapsCommand) (*inbound.SwapSuggestionsDTO, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.SwapSuggestionsDTO), args.Error(1)
}

func (m *MockSwapService) AnalyzeMeal(ctx context.Context, mealID uuid.UUID) (*inbound.MealAnalysisDTO, error) {
	args := m.Called(ctx, mealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.MealAnalysisDTO), args.Error(1)
}

// MockCatalogService provides a mock implementation of inbound.CatalogService
type MockCatalogService struct {
	mock.Mock
}

var _ inbound.CatalogService = (*MockCatalogService)(nil)

func (m *MockCatalogService) ListFoods(ctx context.Context, query inbound.FoodQuery) ([]inbound.FoodDTO, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inbound.FoodDTO), args.Error(1)
}

func (m *MockCatalogService) GetFood(ctx context.Context, id int) (*inbound.FoodDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.FoodDTO), args.Error(1)
}

func (m *MockCatalogService) ImportFoods(ctx context.Context, cmd inbound.ImportFoodsCommand) (*inbound.ImportResultDTO, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.ImportResultDTO), args.Error(1)
}
