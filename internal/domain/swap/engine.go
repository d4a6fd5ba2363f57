package swap

import (
	"go.uber.org/zap"

	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
)

// MaxGoals is the number of goals considered per call; extra goals are dropped
const MaxGoals = 2

// Engine finds at most one single-ingredient substitution per goal.
// It keeps no per-call state and may be shared between goroutines.
type Engine struct {
	registry *Registry
	logger   *zap.Logger
}

// NewEngine creates an engine. A nil registry means the default strategies;
// a nil logger means no logging.
func NewEngine(registry *Registry, logger *zap.Logger) *Engine {
	if registry == nil {
		registry = NewDefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		registry: registry,
		logger:   logger.Named("swap-engine"),
	}
}

// Registry returns the strategy registry the engine consults
func (e *Engine) Registry() *Registry {
	return e.registry
}

type bestSwap struct {
	entry     nutrition.IngredientEntry
	original  nutrition.FoodItem
	candidate nutrition.FoodItem
	score     float64
	found     bool
}

// GenerateSwaps returns up to one suggestion for each of the first MaxGoals
// goals. Every goal is scored against the unmodified meal totals. Unknown
// nutrients, unresolved foods and goals with no balanced candidate simply
// contribute nothing.
func (e *Engine) GenerateSwaps(goals []nutrition.Goal, ingredients []nutrition.IngredientEntry, catalog *nutrition.Catalog) []nutrition.SwapSuggestion {
	if len(goals) > MaxGoals {
		e.logger.Debug("Dropping extra goals",
			zap.Int("received", len(goals)),
			zap.Int("max", MaxGoals),
		)
		goals = goals[:MaxGoals]
	}

	totals := ComputeTotals(ingredients, catalog)
	suggestions := make([]nutrition.SwapSuggestion, 0, len(goals))

	for _, goal := range goals {
		if len(suggestions) >= MaxGoals {
			break
		}

		factor := IntensityFactor(goal.Intensity)
		e.logger.Debug("Evaluating goal",
			zap.String("nutrient", goal.Nutrient),
			zap.String("direction", goal.Direction),
			zap.Float64("target_amount", goal.TargetAmount),
			zap.Float64("intensity_factor", factor),
		)

		strategy, ok := e.registry.StrategyFor(goal.Nutrient)
		if !ok {
			e.logger.Debug("No strategy for nutrient, skipping goal", zap.String("nutrient", goal.Nutrient))
			continue
		}

		// Aliases such as "carbs" resolve to the strategy's nutrient key
		goalCtx := nutrition.NewGoalContext(goal)
		if canonical := strategy.Nutrient(); canonical != "" {
			goalCtx.Nutrient = canonical
		}
		best := e.bestForGoal(goalCtx, ingredients, catalog, totals)
		if !best.found {
			continue
		}

		suggestions = append(suggestions, nutrition.SwapSuggestion{
			Original: best.entry,
			Replacement: nutrition.IngredientEntry{
				FoodID:   best.candidate.ID,
				Quantity: best.entry.Quantity,
			},
			Reason: Explain(best.original, best.candidate, goalCtx),
			Goal:   goalCtx,
			Score:  best.score,
		})
	}

	return suggestions
}

func (e *Engine) bestForGoal(goal nutrition.GoalContext, ingredients []nutrition.IngredientEntry, catalog *nutrition.Catalog, totals map[string]float64) bestSwap {
	var best bestSwap
	for _, entry := range ingredients {
		original, ok := catalog.Lookup(entry.FoodID)
		if !ok {
			e.logger.Debug("Ingredient food not in catalog", zap.Int("food_id", entry.FoodID))
			continue
		}
		for candidate := range Candidates(original, goal, catalog) {
			if !IsBalanced(original, candidate, totals, goal) {
				continue
			}
			score := Score(original, candidate, goal, totals)
			if !best.found || score > best.score {
				best = bestSwap{
					entry:     entry,
					original:  original,
					candidate: candidate,
					score:     score,
					found:     true,
				}
			}
		}
	}
	return best
}
