// Package performance provides benchmarks and latency budgets for swap search
//go:build performance
// +build performance

package performance

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appswap "github.com/alchemorsel/mealswap/internal/application/swap"
	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
	domainswap "github.com/alchemorsel/mealswap/internal/domain/swap"
	gormRepo "github.com/alchemorsel/mealswap/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/mealswap/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/mealswap/internal/ports/inbound"
	"github.com/alchemorsel/mealswap/test/testutils"
)

// Catalog sizes
const (
	SmallDataset  = 100
	MediumDataset = 1000
	LargeDataset  = 10000

	// Latency budgets
	MaxEngineTime       = 100 * time.Millisecond
	MaxCachedSuggest    = 5 * time.Millisecond
	MaxMemoryIncreaseMB = 50
)

// PerformanceMetrics holds performance measurement data
type PerformanceMetrics struct {
	StartTime    time.Time
	Duration     time.Duration
	MemoryBefore runtime.MemStats
	MemoryAfter  runtime.MemStats
}

// NewPerformanceMetrics starts a measurement after a forced GC
func NewPerformanceMetrics() *PerformanceMetrics {
	pm := &PerformanceMetrics{}
	runtime.GC()
	runtime.ReadMemStats(&pm.MemoryBefore)
	pm.StartTime = time.Now()
	return pm
}

// Stop ends the measurement
func (pm *PerformanceMetrics) Stop() {
	pm.Duration = time.Since(pm.StartTime)
	runtime.ReadMemStats(&pm.MemoryAfter)
}

// HeapGrowthMB returns live heap growth in MB
func (pm *PerformanceMetrics) HeapGrowthMB() float64 {
	if pm.MemoryAfter.HeapAlloc < pm.MemoryBefore.HeapAlloc {
		return 0
	}
	return float64(pm.MemoryAfter.HeapAlloc-pm.MemoryBefore.HeapAlloc) / 1024 / 1024
}

func fixture(size, ingredients int) (*nutrition.Catalog, []nutrition.IngredientEntry, []nutrition.Goal) {
	factory := testutils.NewFoodFactory(42)
	catalog := factory.CreateCatalog(size)
	entries := factory.CreateIngredients(catalog, ingredients)
	goals := []nutrition.Goal{
		{Nutrient: "Protein", Direction: "increase", TargetAmount: 10},
		{Nutrient: "Fat", Direction: "decrease", TargetAmount: 5},
	}
	return catalog, entries, goals
}

func BenchmarkGenerateSwaps(b *testing.B) {
	engine := domainswap.NewEngine(nil, zap.NewNop())

	for _, size := range []int{SmallDataset, MediumDataset, LargeDataset} {
		for _, ingredients := range []int{3, 10} {
			catalog, entries, goals := fixture(size, ingredients)

			b.Run(fmt.Sprintf("Catalog%d_Ingredients%d", size, ingredients), func(b *testing.B) {
				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					engine.GenerateSwaps(goals, entries, catalog)
				}
			})
		}
	}
}

func BenchmarkGenerateSwaps_Parallel(b *testing.B) {
	engine := domainswap.NewEngine(nil, zap.NewNop())
	catalog, entries, goals := fixture(MediumDataset, 5)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			engine.GenerateSwaps(goals, entries, catalog)
		}
	})
}

// serviceFixture stores a catalog and one meal in SQLite behind the swap service
func serviceFixture(t *testing.T, size int) (*appswap.SwapService, uuid.UUID, []inbound.GoalInput) {
	t.Helper()
	testDB := testutils.SetupTestDatabase(t, gormRepo.AllModels()...)
	ctx := context.Background()

	catalog, entries, goals := fixture(size, 5)
	foods := gormRepo.NewFoodRepository(testDB.DB)
	require.NoError(t, foods.Upsert(ctx, catalog.Items()))

	cache := memory.NewCacheRepository(time.Minute)
	t.Cleanup(func() { _ = cache.Close() })

	service := appswap.NewSwapService(gormRepo.NewMealRepository(testDB.DB), foods, cache, nil, nil, nil, nil, appswap.Options{}, zap.NewNop())
	meal, err := service.CreateMeal(ctx, inbound.CreateMealCommand{Name: "Benchmark meal", Ingredients: entries})
	require.NoError(t, err)

	inputs := make([]inbound.GoalInput, 0, len(goals))
	for _, g := range goals {
		inputs = append(inputs, inbound.GoalInput{Nutrient: g.Nutrient, Direction: g.Direction, TargetAmount: g.TargetAmount})
	}
	return service, meal.ID, inputs
}

func TestSuggestSwaps_LatencyBudgets(t *testing.T) {
	service, mealID, goals := serviceFixture(t, MediumDataset)
	ctx := context.Background()
	cmd := inbound.SuggestSwapsCommand{MealID: mealID, Goals: goals}

	cold := NewPerformanceMetrics()
	first, err := service.SuggestSwaps(ctx, cmd)
	cold.Stop()
	require.NoError(t, err)
	assert.False(t, first.Cached)
	t.Logf("cold suggestion over %d foods: %v", MediumDataset, cold.Duration)

	warm := NewPerformanceMetrics()
	second, err := service.SuggestSwaps(ctx, cmd)
	warm.Stop()
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Less(t, warm.Duration, MaxCachedSuggest, "Cached suggestions should skip the catalog scan")
}

func TestGenerateSwaps_LargeCatalogWithinBudget(t *testing.T) {
	engine := domainswap.NewEngine(nil, zap.NewNop())
	catalog, entries, goals := fixture(LargeDataset, 10)

	// Warm up once so the budget measures steady state
	engine.GenerateSwaps(goals, entries, catalog)

	pm := NewPerformanceMetrics()
	for i := 0; i < 10; i++ {
		engine.GenerateSwaps(goals, entries, catalog)
	}
	pm.Stop()

	perCall := pm.Duration / 10
	t.Logf("engine over %d foods: %v per call, heap growth %.2f MB", LargeDataset, perCall, pm.HeapGrowthMB())
	assert.Less(t, perCall, MaxEngineTime)
	assert.Less(t, pm.HeapGrowthMB(), float64(MaxMemoryIncreaseMB))
}

func TestGenerateSwaps_ConcurrentStress(t *testing.T) {
	engine := domainswap.NewEngine(nil, zap.NewNop())
	catalog, entries, goals := fixture(MediumDataset, 8)
	want := engine.GenerateSwaps(goals, entries, catalog)

	const workers = 32
	var wg sync.WaitGroup
	results := make(chan []nutrition.SwapSuggestion, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- engine.GenerateSwaps(goals, entries, catalog)
		}()
	}
	wg.Wait()
	close(results)

	for got := range results {
		assert.Equal(t, want, got, "Concurrent calls should be deterministic")
	}
}
