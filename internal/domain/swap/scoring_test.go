package swap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
	"github.com/alchemorsel/mealswap/test/testutils"
)

func TestComputeTotals(t *testing.T) {
	catalog := nutrition.NewCatalog(
		testutils.NewFoodBuilder(1, "Oats", "Grains").WithCaloriesPer100(380).WithNutrient("Protein", 13).WithNutrient("Fiber", 10).Build(),
		testutils.NewFoodBuilder(2, "Milk", "Dairy").WithCaloriesPer100(60).WithNutrient("protein", 3.4).Build(),
	)

	totals := ComputeTotals([]nutrition.IngredientEntry{
		{FoodID: 1, Quantity: 50},
		{FoodID: 2, Quantity: 200},
		{FoodID: 99, Quantity: 100},
	}, catalog)

	assert.InDelta(t, 6.5+6.8, totals["protein"], 1e-9)
	assert.InDelta(t, 5.0, totals["fiber"], 1e-9)
	assert.InDelta(t, 190.0+120.0, totals["calories"], 1e-9)
	assert.NotContains(t, totals, "Protein")
}

func TestComputeTotals_EmptyMeal(t *testing.T) {
	assert.Empty(t, ComputeTotals(nil, testutils.ScenarioCatalog()))
}

func TestCandidates(t *testing.T) {
	catalog := nutrition.NewCatalog(
		testutils.NewFoodBuilder(1, "Beef", "Meat").WithNutrient("Fat", 15).Build(),
		testutils.NewFoodBuilder(2, "Chicken", "Meat").WithNutrient("Fat", 3).Build(),
		testutils.NewFoodBuilder(3, "Tofu", "Legumes").WithNutrient("Fat", 4).Build(),
		testutils.NewFoodBuilder(4, "Pork belly", "Meat").WithNutrient("Fat", 53).Build(),
		testutils.NewFoodBuilder(5, "Lamb", "Meat").WithNutrient("Fat", 15).Build(),
		testutils.NewFoodBuilder(6, "Venison", "meat").WithNutrient("Fat", 2).Build(),
	)
	beef, _ := catalog.Lookup(1)

	collect := func(direction string) []int {
		var ids []int
		goal := nutrition.NewGoalContext(nutrition.Goal{Nutrient: "fat", Direction: direction})
		for food := range Candidates(beef, goal, catalog) {
			ids = append(ids, food.ID)
		}
		return ids
	}

	assert.Equal(t, []int{2}, collect("decrease"))
	assert.Equal(t, []int{4}, collect("increase"))
	assert.Empty(t, collect("maintain"))
}

func TestCandidates_ShouldStopWhenConsumerStops(t *testing.T) {
	catalog := nutrition.NewCatalog(
		testutils.NewFoodBuilder(1, "Beef", "Meat").WithCalories(250).Build(),
		testutils.NewFoodBuilder(2, "Chicken", "Meat").WithCalories(150).Build(),
		testutils.NewFoodBuilder(3, "Turkey", "Meat").WithCalories(140).Build(),
	)
	beef, _ := catalog.Lookup(1)
	goal := nutrition.NewGoalContext(nutrition.Goal{Nutrient: "calories", Direction: "decrease"})

	seen := 0
	for range Candidates(beef, goal, catalog) {
		seen++
		break
	}

	assert.Equal(t, 1, seen)
}

func TestIsBalanced(t *testing.T) {
	goal := nutrition.NewGoalContext(nutrition.Goal{Nutrient: "calories", Direction: "decrease"})
	original := testutils.NewFoodBuilder(1, "Ham", "Meat").WithCalories(300).WithNutrient("Sodium", 1000).WithNutrient("Fiber", 0).Build()

	tests := []struct {
		name      string
		candidate nutrition.FoodItem
		totals    map[string]float64
		want      bool
	}{
		{
			name:      "SmallShift_ShouldPass",
			candidate: testutils.NewFoodBuilder(2, "A", "Meat").WithCalories(100).WithNutrient("Sodium", 1090).Build(),
			totals:    map[string]float64{"calories": 600, "sodium": 1000},
			want:      true,
		},
		{
			name:      "ExactlyAtTolerance_ShouldPass",
			candidate: testutils.NewFoodBuilder(2, "A", "Meat").WithNutrient("Sodium", 900).Build(),
			totals:    map[string]float64{"sodium": 1000},
			want:      true,
		},
		{
			name:      "LargeShift_ShouldFail",
			candidate: testutils.NewFoodBuilder(2, "A", "Meat").WithNutrient("Sodium", 850).Build(),
			totals:    map[string]float64{"sodium": 1000},
			want:      false,
		},
		{
			name:      "TargetNutrient_ShouldBeIgnored",
			candidate: testutils.NewFoodBuilder(2, "A", "Meat").WithCalories(10).WithNutrient("Sodium", 1000).Build(),
			totals:    map[string]float64{"calories": 600, "sodium": 1000},
			want:      true,
		},
		{
			name:      "ZeroTotalUnchanged_ShouldPass",
			candidate: testutils.NewFoodBuilder(2, "A", "Meat").WithNutrient("Sodium", 1000).WithNutrient("Fiber", 0).Build(),
			totals:    map[string]float64{"sodium": 1000, "fiber": 0},
			want:      true,
		},
		{
			name:      "ZeroTotalChanged_ShouldFail",
			candidate: testutils.NewFoodBuilder(2, "A", "Meat").WithNutrient("Sodium", 1000).WithNutrient("Fiber", 0.5).Build(),
			totals:    map[string]float64{"sodium": 1000, "fiber": 0},
			want:      false,
		},
		{
			name:      "NutrientOutsideTotals_ShouldNotBeChecked",
			candidate: testutils.NewFoodBuilder(2, "A", "Meat").WithNutrient("Sodium", 1000).WithNutrient("Iron", 30).Build(),
			totals:    map[string]float64{"sodium": 1000},
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBalanced(original, tt.candidate, tt.totals, goal))
		})
	}
}

func TestScore(t *testing.T) {
	beef := testutils.NewFoodBuilder(1, "Beef", "Meat").WithCalories(250).Build()
	chicken := testutils.NewFoodBuilder(2, "Chicken", "Meat").WithCalories(150).Build()
	tofu := testutils.NewFoodBuilder(3, "Tofu", "Legumes").WithCalories(150).Build()
	totals := map[string]float64{"calories": 500}

	t.Run("TargetReached_ShouldAddBonus", func(t *testing.T) {
		goal := nutrition.NewGoalContext(nutrition.Goal{Nutrient: "Calories", Direction: "decrease", TargetAmount: 100})
		assert.InDelta(t, 100+TargetReachedBonus+GroupAffinityBonus, Score(beef, chicken, goal, totals), 1e-9)
	})

	t.Run("TargetMissed_ShouldGetNoTargetBonus", func(t *testing.T) {
		goal := nutrition.NewGoalContext(nutrition.Goal{Nutrient: "Calories", Direction: "decrease", TargetAmount: 100.5})
		assert.InDelta(t, 100+GroupAffinityBonus, Score(beef, chicken, goal, totals), 1e-9)
	})

	t.Run("OtherGroup_ShouldGetNoAffinityBonus", func(t *testing.T) {
		goal := nutrition.NewGoalContext(nutrition.Goal{Nutrient: "Calories", Direction: "decrease", TargetAmount: 500})
		assert.InDelta(t, 100.0, Score(beef, tofu, goal, totals), 1e-9)
	})

	t.Run("Increase_ShouldOrientDelta", func(t *testing.T) {
		goal := nutrition.NewGoalContext(nutrition.Goal{Nutrient: "Calories", Direction: "increase", TargetAmount: 100})
		assert.InDelta(t, 100+TargetReachedBonus+GroupAffinityBonus, Score(chicken, beef, goal, totals), 1e-9)
	})
}

func TestExplain(t *testing.T) {
	beef := testutils.NewFoodBuilder(1, "Beef", "Meat").WithCalories(250).WithNutrient("Protein", 26).Build()
	chicken := testutils.NewFoodBuilder(2, "Chicken", "Meat").WithCalories(150).WithNutrient("Protein", 27.3).Build()

	t.Run("Improvement_ShouldNameNutrientAndValues", func(t *testing.T) {
		goal := nutrition.NewGoalContext(nutrition.Goal{Nutrient: "protein", Direction: "increase"})
		assert.Equal(t, "Replace Beef with Chicken to increase Protein (26.0 → 27.3 per 100g).", Explain(beef, chicken, goal))
	})

	t.Run("NoImprovement_ShouldUseGenericReason", func(t *testing.T) {
		goal := nutrition.NewGoalContext(nutrition.Goal{Nutrient: "protein", Direction: "decrease"})
		assert.Equal(t, "Replace Beef with Chicken for a better nutritional balance.", Explain(beef, chicken, goal))
	})
}

func TestIntensityFactor(t *testing.T) {
	assert.Equal(t, 1.0, IntensityFactor("low"))
	assert.Equal(t, 1.25, IntensityFactor("Moderate"))
	assert.Equal(t, 1.5, IntensityFactor(" HIGH "))
	assert.Equal(t, 1.0, IntensityFactor(""))
	assert.Equal(t, 1.0, IntensityFactor("extreme"))
}
