package swap

import (
	"iter"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
)

// Strategy encodes what "better" means for one nutrient family
type Strategy interface {
	// Nutrient returns the canonical nutrient name the strategy serves
	Nutrient() string
	// IsBetter reports whether candidate is a significant improvement on original
	IsBetter(original, candidate nutrition.FoodItem) bool
	// PreferredReplacement picks the most improving candidate, if any
	PreferredReplacement(original nutrition.FoodItem, candidates iter.Seq[nutrition.FoodItem]) (nutrition.FoodItem, bool)
}

// ThresholdStrategy prefers candidates that move a nutrient in one direction
// by at least MinChange, expressed as a fraction of the original value.
type ThresholdStrategy struct {
	name      string
	direction nutrition.Direction
	minChange float64
	value     func(nutrition.FoodItem) float64
}

// NewThresholdStrategy builds a strategy reading the named nutrient
func NewThresholdStrategy(name string, direction nutrition.Direction, minChange float64) *ThresholdStrategy {
	return &ThresholdStrategy{
		name:      strings.ToLower(name),
		direction: direction,
		minChange: minChange,
		value: func(f nutrition.FoodItem) float64 {
			return f.Amount(name)
		},
	}
}

// NewCalorieStrategy prefers foods with at least 10% fewer calories. It reads
// a "Calories" nutrient when the food carries one, else CaloriesPer100.
func NewCalorieStrategy() *ThresholdStrategy {
	return NewThresholdStrategy(nutrition.CaloriesKey, nutrition.DirectionDecrease, 0.10)
}

// NewProteinStrategy prefers foods with at least 20% more protein
func NewProteinStrategy() *ThresholdStrategy {
	return NewThresholdStrategy("protein", nutrition.DirectionIncrease, 0.20)
}

// NewCarbohydrateStrategy prefers foods with at least 20% fewer carbohydrates
func NewCarbohydrateStrategy() *ThresholdStrategy {
	return NewThresholdStrategy("carbohydrates", nutrition.DirectionDecrease, 0.20)
}

// NewFatStrategy prefers foods with at least 20% less fat
func NewFatStrategy() *ThresholdStrategy {
	return NewThresholdStrategy("fat", nutrition.DirectionDecrease, 0.20)
}

// NewFiberStrategy prefers foods with at least 20% more fiber
func NewFiberStrategy() *ThresholdStrategy {
	return NewThresholdStrategy("fiber", nutrition.DirectionIncrease, 0.20)
}

// Nutrient returns the nutrient name
func (s *ThresholdStrategy) Nutrient() string {
	return s.name
}

// Direction returns the direction the strategy favours
func (s *ThresholdStrategy) Direction() nutrition.Direction {
	return s.direction
}

// IsBetter reports whether candidate moves the nutrient strictly in the
// strategy's direction and by at least the threshold.
func (s *ThresholdStrategy) IsBetter(original, candidate nutrition.FoodItem) bool {
	orig := s.value(original)
	cand := s.value(candidate)
	switch s.direction {
	case nutrition.DirectionIncrease:
		return cand > orig && cand >= orig*(1+s.minChange)
	case nutrition.DirectionDecrease:
		return cand < orig && cand <= orig*(1-s.minChange)
	default:
		return false
	}
}

// PreferredReplacement returns the candidate with the largest improvement
// among those passing IsBetter. The first of equally good candidates wins.
func (s *ThresholdStrategy) PreferredReplacement(original nutrition.FoodItem, candidates iter.Seq[nutrition.FoodItem]) (nutrition.FoodItem, bool) {
	var (
		best      nutrition.FoodItem
		bestDelta = math.Inf(-1)
		found     bool
	)
	orig := s.value(original)
	for candidate := range candidates {
		if candidate.ID == original.ID || !s.IsBetter(original, candidate) {
			continue
		}
		delta := math.Abs(s.value(candidate) - orig)
		if delta > bestDelta {
			best, bestDelta, found = candidate, delta, true
		}
	}
	return best, found
}

// Registry maps normalized nutrient names to strategies. Lookups are safe
// for concurrent use with registration.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// NewDefaultRegistry returns a registry holding the built-in strategies
// for calories, protein, carbohydrates, fat and fiber.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("calories", NewCalorieStrategy())
	r.Register("protein", NewProteinStrategy())

	carbs := NewCarbohydrateStrategy()
	r.Register("carbohydrates", carbs)
	r.Register("carbohydrate", carbs)
	r.Register("carbs", carbs)

	r.Register("fat", NewFatStrategy())

	fiber := NewFiberStrategy()
	r.Register("fiber", fiber)
	r.Register("fibre", fiber)
	return r
}

// Register adds or replaces the strategy for a nutrient name
func (r *Registry) Register(nutrient string, strategy Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[normalizeName(nutrient)] = strategy
}

// StrategyFor returns the strategy registered for nutrient
func (r *Registry) StrategyFor(nutrient string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[normalizeName(nutrient)]
	return s, ok
}

// Nutrients lists the registered nutrient names in sorted order
func (r *Registry) Nutrients() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
