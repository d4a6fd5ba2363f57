package swap

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/mealswap/internal/domain/meal"
	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
	"github.com/alchemorsel/mealswap/internal/ports/inbound"
	"github.com/alchemorsel/mealswap/internal/ports/outbound"
	"github.com/alchemorsel/mealswap/pkg/errors"
	"github.com/alchemorsel/mealswap/test/testutils"
)

// SwapServiceTestSuite exercises the swap service against mocked ports
type SwapServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	meals   *testutils.MockMealRepository
	foods   *testutils.MockFoodRepository
	cache   *testutils.MockCacheRepository
	events  *testutils.MockEventPublisher
	metrics *testutils.MockMetrics
	catalog *nutrition.Catalog
	service *SwapService
}

func (s *SwapServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.meals = &testutils.MockMealRepository{}
	s.foods = &testutils.MockFoodRepository{}
	s.cache = &testutils.MockCacheRepository{}
	s.events = &testutils.MockEventPublisher{}
	s.metrics = &testutils.MockMetrics{}

	s.catalog = nutrition.NewCatalog(
		testutils.NewFoodBuilder(1, "Beef", "Meat").WithCalories(250).WithNutrient("Protein", 26).Build(),
		testutils.NewFoodBuilder(2, "Chicken", "Meat").WithCalories(150).WithNutrient("Protein", 27).Build(),
		testutils.NewFoodBuilder(3, "Rice", "Grains").WithCalories(130).WithNutrient("Protein", 2.7).Build(),
	)
	s.foods.ExpectCatalog(s.catalog)

	s.metrics.On("RecordSuggestions", mock.Anything, mock.Anything).Maybe()
	s.metrics.On("RecordSwapApplied").Maybe()
	s.metrics.On("RecordCacheOperation", mock.Anything, mock.Anything).Maybe()

	s.service = NewSwapService(s.meals, s.foods, s.cache, s.events, nil, s.metrics, nil,
		Options{SuggestionTTL: time.Minute, KeyPrefix: "test"}, zaptest.NewLogger(s.T()))
}

func (s *SwapServiceTestSuite) storedMeal(entries ...nutrition.IngredientEntry) *meal.Meal {
	m := meal.Reconstitute(uuid.New(), "Dinner", entries, 1, time.Now().UTC(), time.Now().UTC())
	s.meals.On("FindByID", mock.Anything, m.ID()).Return(m, nil)
	return m
}

func (s *SwapServiceTestSuite) calorieGoal() []inbound.GoalInput {
	return []inbound.GoalInput{{Nutrient: "calories", Direction: "decrease"}}
}

func (s *SwapServiceTestSuite) TestSuggestSwaps() {
	s.Run("Miss_ShouldRunEngineAndCacheResult", func() {
		s.SetupTest()

		// Arrange
		m := s.storedMeal(nutrition.IngredientEntry{FoodID: 1, Quantity: 200})
		key := NewKeyBuilder("test").Suggestions(m.ID(), m.Version(), toGoals(s.calorieGoal()))
		s.cache.On("Get", mock.Anything, key).Return(nil, outbound.ErrCacheMiss)
		s.cache.On("Set", mock.Anything, key, mock.Anything, time.Minute).Return(nil)

		// Act
		result, err := s.service.SuggestSwaps(s.ctx, inbound.SuggestSwapsCommand{MealID: m.ID(), Goals: s.calorieGoal()})

		// Assert
		s.Require().NoError(err)
		s.False(result.Cached)
		s.Equal(m.ID(), result.MealID)
		s.Require().Len(result.Suggestions, 1)
		suggestion := result.Suggestions[0]
		s.Equal("calories", suggestion.Nutrient)
		s.Equal("decrease", suggestion.Direction)
		s.Equal(inbound.IngredientDTO{FoodID: 1, FoodName: "Beef", Quantity: 200}, suggestion.Original)
		s.Equal(inbound.IngredientDTO{FoodID: 2, FoodName: "Chicken", Quantity: 200}, suggestion.Replacement)
		s.Contains(suggestion.Reason, "Replace Beef with Chicken")
		s.cache.AssertExpectations(s.T())
		s.metrics.AssertCalled(s.T(), "RecordSuggestions", 1, mock.Anything)
	})

	s.Run("Hit_ShouldServeCachedResultWithoutLoadingCatalog", func() {
		s.SetupTest()

		// Arrange
		m := s.storedMeal(nutrition.IngredientEntry{FoodID: 1, Quantity: 200})
		cached := inbound.SwapSuggestionsDTO{
			MealID:      m.ID(),
			MealVersion: 1,
			Suggestions: []inbound.SwapSuggestionDTO{{Nutrient: "calories", Reason: "cached"}},
		}
		data, err := json.Marshal(cached)
		s.Require().NoError(err)
		s.cache.On("Get", mock.Anything, mock.Anything).Return(data, nil)

		// Act
		result, err := s.service.SuggestSwaps(s.ctx, inbound.SuggestSwapsCommand{MealID: m.ID(), Goals: s.calorieGoal()})

		// Assert
		s.Require().NoError(err)
		s.True(result.Cached)
		s.Equal("cached", result.Suggestions[0].Reason)
		s.foods.AssertNotCalled(s.T(), "FindAll", mock.Anything)
		s.metrics.AssertCalled(s.T(), "RecordCacheOperation", "get", "hit")
	})

	s.Run("CacheFailure_ShouldStillAnswer", func() {
		s.SetupTest()

		// Arrange
		m := s.storedMeal(nutrition.IngredientEntry{FoodID: 1, Quantity: 200})
		s.cache.On("Get", mock.Anything, mock.Anything).Return(nil, stderrors.New("connection refused"))
		s.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(stderrors.New("connection refused"))

		// Act
		result, err := s.service.SuggestSwaps(s.ctx, inbound.SuggestSwapsCommand{MealID: m.ID(), Goals: s.calorieGoal()})

		// Assert
		s.Require().NoError(err)
		s.Len(result.Suggestions, 1)
		s.metrics.AssertCalled(s.T(), "RecordCacheOperation", "get", "error")
	})

	s.Run("UnknownMeal_ShouldReturnMealNotFound", func() {
		s.SetupTest()

		// Arrange
		id := uuid.New()
		s.meals.On("FindByID", mock.Anything, id).Return(nil, meal.ErrMealNotFound)

		// Act
		_, err := s.service.SuggestSwaps(s.ctx, inbound.SuggestSwapsCommand{MealID: id, Goals: s.calorieGoal()})

		// Assert
		s.True(errors.Is(err, errors.CodeMealNotFound))
	})

	s.Run("NoGoals_ShouldReturnValidationError", func() {
		s.SetupTest()

		// Act
		_, err := s.service.SuggestSwaps(s.ctx, inbound.SuggestSwapsCommand{MealID: uuid.New()})

		// Assert
		s.True(errors.Is(err, errors.CodeValidationFailed))
		s.meals.AssertNotCalled(s.T(), "FindByID", mock.Anything, mock.Anything)
	})

	s.Run("UnknownNutrient_ShouldReturnEmptySuggestions", func() {
		s.SetupTest()

		// Arrange
		m := s.storedMeal(nutrition.IngredientEntry{FoodID: 1, Quantity: 200})
		s.cache.On("Get", mock.Anything, mock.Anything).Return(nil, outbound.ErrCacheMiss)
		s.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		// Act
		result, err := s.service.SuggestSwaps(s.ctx, inbound.SuggestSwapsCommand{
			MealID: m.ID(),
			Goals:  []inbound.GoalInput{{Nutrient: "sodium", Direction: "decrease"}},
		})

		// Assert
		s.Require().NoError(err)
		s.NotNil(result.Suggestions)
		s.Empty(result.Suggestions)
	})
}

func (s *SwapServiceTestSuite) TestApplySwap() {
	s.Run("SameGroup_ShouldReplaceAndInvalidate", func() {
		s.SetupTest()

		// Arrange
		m := s.storedMeal(
			nutrition.IngredientEntry{FoodID: 1, Quantity: 200},
			nutrition.IngredientEntry{FoodID: 3, Quantity: 100},
		)
		s.meals.On("Update", mock.Anything, m).Return(nil)
		s.cache.On("DeletePrefix", mock.Anything, NewKeyBuilder("test").MealPrefix(m.ID())).Return(nil)
		s.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		// Act
		result, err := s.service.ApplySwap(s.ctx, inbound.ApplySwapCommand{
			MealID:      m.ID(),
			Original:    nutrition.IngredientEntry{FoodID: 1, Quantity: 200},
			Replacement: nutrition.IngredientEntry{FoodID: 2, Quantity: 200},
		})

		// Assert
		s.Require().NoError(err)
		s.Equal(int64(2), result.Version)
		s.Equal([]inbound.IngredientDTO{
			{FoodID: 2, FoodName: "Chicken", Quantity: 200},
			{FoodID: 3, FoodName: "Rice", Quantity: 100},
		}, result.Ingredients)
		s.meals.AssertExpectations(s.T())
		s.cache.AssertExpectations(s.T())
		s.events.AssertNumberOfCalls(s.T(), "Publish", 1)
		s.metrics.AssertCalled(s.T(), "RecordSwapApplied")
	})

	s.Run("CrossGroup_ShouldReturnSwapNotApplicable", func() {
		s.SetupTest()

		// Arrange
		m := s.storedMeal(nutrition.IngredientEntry{FoodID: 1, Quantity: 200})

		// Act
		_, err := s.service.ApplySwap(s.ctx, inbound.ApplySwapCommand{
			MealID:      m.ID(),
			Original:    nutrition.IngredientEntry{FoodID: 1, Quantity: 200},
			Replacement: nutrition.IngredientEntry{FoodID: 3, Quantity: 200},
		})

		// Assert
		s.True(errors.Is(err, errors.CodeSwapNotApplicable))
		s.meals.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything)
	})

	s.Run("EntryNotInMeal_ShouldReturnSwapNotApplicable", func() {
		s.SetupTest()

		// Arrange
		m := s.storedMeal(nutrition.IngredientEntry{FoodID: 1, Quantity: 200})

		// Act
		_, err := s.service.ApplySwap(s.ctx, inbound.ApplySwapCommand{
			MealID:      m.ID(),
			Original:    nutrition.IngredientEntry{FoodID: 1, Quantity: 150},
			Replacement: nutrition.IngredientEntry{FoodID: 2, Quantity: 150},
		})

		// Assert
		s.True(errors.Is(err, errors.CodeSwapNotApplicable))
	})

	s.Run("QuantityMismatch_ShouldReturnSwapNotApplicable", func() {
		s.SetupTest()

		// Arrange
		m := s.storedMeal(nutrition.IngredientEntry{FoodID: 1, Quantity: 200})

		// Act
		_, err := s.service.ApplySwap(s.ctx, inbound.ApplySwapCommand{
			MealID:      m.ID(),
			Original:    nutrition.IngredientEntry{FoodID: 1, Quantity: 200},
			Replacement: nutrition.IngredientEntry{FoodID: 2, Quantity: 100},
		})

		// Assert
		s.True(errors.Is(err, errors.CodeSwapNotApplicable))
	})

	s.Run("UnknownReplacement_ShouldReturnFoodNotFound", func() {
		s.SetupTest()

		// Arrange
		m := s.storedMeal(nutrition.IngredientEntry{FoodID: 1, Quantity: 200})

		// Act
		_, err := s.service.ApplySwap(s.ctx, inbound.ApplySwapCommand{
			MealID:      m.ID(),
			Original:    nutrition.IngredientEntry{FoodID: 1, Quantity: 200},
			Replacement: nutrition.IngredientEntry{FoodID: 99, Quantity: 200},
		})

		// Assert
		s.True(errors.Is(err, errors.CodeFoodNotFound))
	})

	s.Run("ConcurrentUpdate_ShouldReturnConflict", func() {
		s.SetupTest()

		// Arrange
		m := s.storedMeal(nutrition.IngredientEntry{FoodID: 1, Quantity: 200})
		s.meals.On("Update", mock.Anything, m).Return(meal.ErrVersionConflict)

		// Act
		_, err := s.service.ApplySwap(s.ctx, inbound.ApplySwapCommand{
			MealID:      m.ID(),
			Original:    nutrition.IngredientEntry{FoodID: 1, Quantity: 200},
			Replacement: nutrition.IngredientEntry{FoodID: 2, Quantity: 200},
		})

		// Assert
		s.True(errors.Is(err, errors.CodeConflict))
		s.events.AssertNotCalled(s.T(), "Publish", mock.Anything, mock.Anything)
	})
}

func (s *SwapServiceTestSuite) TestCreateMeal() {
	s.Run("ValidMeal_ShouldPersistAndPublish", func() {
		s.SetupTest()

		// Arrange
		s.meals.On("Create", mock.Anything, mock.AnythingOfType("*meal.Meal")).Return(nil)
		s.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		// Act
		result, err := s.service.CreateMeal(s.ctx, inbound.CreateMealCommand{
			Name:        "Steak night",
			Ingredients: []nutrition.IngredientEntry{{FoodID: 1, Quantity: 200}},
		})

		// Assert
		s.Require().NoError(err)
		s.Equal("Steak night", result.Name)
		s.Equal(int64(1), result.Version)
		s.Equal("Beef", result.Ingredients[0].FoodName)
		s.events.AssertNumberOfCalls(s.T(), "Publish", 1)
	})

	s.Run("UnknownFood_ShouldReturnFoodNotFound", func() {
		s.SetupTest()

		// Act
		_, err := s.service.CreateMeal(s.ctx, inbound.CreateMealCommand{
			Name:        "Mystery",
			Ingredients: []nutrition.IngredientEntry{{FoodID: 42, Quantity: 100}},
		})

		// Assert
		s.True(errors.Is(err, errors.CodeFoodNotFound))
		s.meals.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
	})

	s.Run("EmptyName_ShouldReturnValidationError", func() {
		s.SetupTest()

		// Act
		_, err := s.service.CreateMeal(s.ctx, inbound.CreateMealCommand{
			Ingredients: []nutrition.IngredientEntry{{FoodID: 1, Quantity: 100}},
		})

		// Assert
		s.True(errors.Is(err, errors.CodeValidationFailed))
	})
}

func (s *SwapServiceTestSuite) TestAnalyzeMeal() {
	s.Run("UnresolvedFood_ShouldBeReportedAndSkipped", func() {
		s.SetupTest()

		// Arrange
		m := s.storedMeal(
			nutrition.IngredientEntry{FoodID: 3, Quantity: 200},
			nutrition.IngredientEntry{FoodID: 77, Quantity: 50},
		)

		// Act
		result, err := s.service.AnalyzeMeal(s.ctx, m.ID())

		// Assert
		s.Require().NoError(err)
		s.Equal([]int{77}, result.UnresolvedFoodIDs)
		s.InDelta(5.4, result.Totals["protein"], 1e-9)
	})
}

func TestSwapServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SwapServiceTestSuite))
}

func TestKeyBuilder_Suggestions(t *testing.T) {
	keys := NewKeyBuilder("")
	id := uuid.New()

	t.Run("EquivalentGoals_ShouldShareKey", func(t *testing.T) {
		a := keys.Suggestions(id, 3, []nutrition.Goal{{Nutrient: "Calories", Direction: "Decrease"}})
		b := keys.Suggestions(id, 3, []nutrition.Goal{{Nutrient: " calories ", Direction: "decrease", Intensity: "bogus"}})
		assert.Equal(t, a, b)
	})

	t.Run("GoalsPastTheLimit_ShouldNotAffectKey", func(t *testing.T) {
		two := []nutrition.Goal{{Nutrient: "fat", Direction: "decrease"}, {Nutrient: "fiber", Direction: "increase"}}
		three := append(append([]nutrition.Goal{}, two...), nutrition.Goal{Nutrient: "protein", Direction: "increase"})
		assert.Equal(t, keys.Suggestions(id, 1, two), keys.Suggestions(id, 1, three))
	})

	t.Run("NewVersion_ShouldChangeKey", func(t *testing.T) {
		goals := []nutrition.Goal{{Nutrient: "fat", Direction: "decrease"}}
		assert.NotEqual(t, keys.Suggestions(id, 1, goals), keys.Suggestions(id, 2, goals))
	})

	t.Run("Key_ShouldSitUnderMealPrefix", func(t *testing.T) {
		key := keys.Suggestions(id, 1, nil)
		require.True(t, len(key) > len(keys.MealPrefix(id)))
		assert.Equal(t, keys.MealPrefix(id), key[:len(keys.MealPrefix(id))])
		assert.Equal(t, "mealswap:swaps:", keys.SwapsPrefix())
	})
}
