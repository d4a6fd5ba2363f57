package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
	"github.com/alchemorsel/mealswap/test/testutils"
)

func TestFoods_StarterCatalogIsValid(t *testing.T) {
	foods, err := Foods()

	require.NoError(t, err)
	require.NotEmpty(t, foods)

	catalog := nutrition.NewCatalog(foods...)
	assert.Equal(t, len(foods), catalog.Len(), "Food ids should be unique")

	beef, ok := catalog.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "Meat", beef.FoodGroup)
	assert.InDelta(t, 254.0, beef.Nutrient("calories"), 1e-9)
}

func TestParseCatalog_RejectsInvalidFood(t *testing.T) {
	data := []byte(`
foods:
  - id: 1
    name: Mystery
    food_group: ""
    calories_per_100: 10
`)

	_, err := ParseCatalog(data)

	require.Error(t, err)
	assert.ErrorIs(t, err, nutrition.ErrFoodGroupRequired)
}

func TestParseCatalog_RejectsMalformedYAML(t *testing.T) {
	_, err := ParseCatalog([]byte("foods: [unclosed"))

	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyCatalog_ShouldWriteStarterFoods", func(t *testing.T) {
		foods := new(testutils.MockFoodRepository)
		foods.On("Count", ctx).Return(int64(0), nil)
		foods.On("Upsert", ctx, mock.AnythingOfType("[]nutrition.FoodItem")).Return(nil)

		written, err := Load(ctx, foods)

		require.NoError(t, err)
		starter, _ := Foods()
		assert.Equal(t, len(starter), written)
		foods.AssertExpectations(t)
	})

	t.Run("ExistingCatalog_ShouldBeLeftAlone", func(t *testing.T) {
		foods := new(testutils.MockFoodRepository)
		foods.On("Count", ctx).Return(int64(3), nil)

		written, err := Load(ctx, foods)

		require.NoError(t, err)
		assert.Zero(t, written)
		foods.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("CountFailure_ShouldReturnError", func(t *testing.T) {
		foods := new(testutils.MockFoodRepository)
		foods.On("Count", ctx).Return(int64(0), errors.New("connection refused"))

		_, err := Load(ctx, foods)

		assert.ErrorContains(t, err, "failed to count foods")
	})
}
