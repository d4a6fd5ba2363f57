// Package swap provides the application layer for meals and swap suggestions.
// It loads meals and the food catalog through the outbound ports, runs the
// swap engine and applies chosen swaps.
package swap

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/alchemorsel/mealswap/internal/domain/meal"
	"github.com/alchemorsel/mealswap/internal/domain/nutrition"
	"github.com/alchemorsel/mealswap/internal/domain/shared"
	domainswap "github.com/alchemorsel/mealswap/internal/domain/swap"
	"github.com/alchemorsel/mealswap/internal/ports/inbound"
	"github.com/alchemorsel/mealswap/internal/ports/outbound"
	"github.com/alchemorsel/mealswap/pkg/errors"
)

// Metrics receives swap measurements
type Metrics interface {
	RecordSuggestions(count int, duration time.Duration)
	RecordSwapApplied()
	RecordCacheOperation(operation, result string)
}

type nopMetrics struct{}

func (nopMetrics) RecordSuggestions(int, time.Duration) {}
func (nopMetrics) RecordSwapApplied()                   {}
func (nopMetrics) RecordCacheOperation(string, string)  {}

// Options tune the service
type Options struct {
	SuggestionTTL time.Duration
	KeyPrefix     string
}

// SwapService implements inbound.SwapService
type SwapService struct {
	meals   outbound.MealRepository
	foods   outbound.FoodRepository
	cache   outbound.CacheRepository
	events  outbound.EventPublisher
	engine  *domainswap.Engine
	metrics Metrics
	tracer  trace.Tracer
	keys    KeyBuilder
	ttl     time.Duration
	logger  *zap.Logger
}

// NewSwapService creates a new swap service. cache, events, metrics and
// tracer may be nil.
func NewSwapService(
	meals outbound.MealRepository,
	foods outbound.FoodRepository,
	cache outbound.CacheRepository,
	events outbound.EventPublisher,
	engine *domainswap.Engine,
	metrics Metrics,
	tracer trace.Tracer,
	opts Options,
	logger *zap.Logger,
) *SwapService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("swap-service")
	}
	if engine == nil {
		engine = domainswap.NewEngine(nil, logger)
	}
	if opts.SuggestionTTL <= 0 {
		opts.SuggestionTTL = 10 * time.Minute
	}

	return &SwapService{
		meals:   meals,
		foods:   foods,
		cache:   cache,
		events:  events,
		engine:  engine,
		metrics: metrics,
		tracer:  tracer,
		keys:    NewKeyBuilder(opts.KeyPrefix),
		ttl:     opts.SuggestionTTL,
		logger:  logger.Named("swap-service"),
	}
}

var _ inbound.SwapService = (*SwapService)(nil)

// CreateMeal validates and stores a new meal. Every ingredient must
// reference a catalog food.
func (s *SwapService) CreateMeal(ctx context.Context, cmd inbound.CreateMealCommand) (*inbound.MealDTO, error) {
	s.logger.Info("Creating meal",
		zap.String("name", cmd.Name),
		zap.Int("ingredients", len(cmd.Ingredients)),
	)

	m, err := meal.NewMeal(cmd.Name, cmd.Ingredients)
	if err != nil {
		return nil, errors.NewValidationError(err.Error()).WithCause(err)
	}

	names, err := s.foodNames(ctx, m.Ingredients(), true)
	if err != nil {
		return nil, err
	}

	if err := s.meals.Create(ctx, m); err != nil {
		return nil, errors.NewDatabaseError("create meal", err)
	}

	s.publish(ctx, m.Events())

	s.logger.Info("Meal created", zap.String("meal_id", m.ID().String()))

	return mealToDTO(m, names), nil
}

// GetMeal returns a stored meal
func (s *SwapService) GetMeal(ctx context.Context, mealID uuid.UUID) (*inbound.MealDTO, error) {
	m, err := s.loadMeal(ctx, mealID)
	if err != nil {
		return nil, err
	}

	names, err := s.foodNames(ctx, m.Ingredients(), false)
	if err != nil {
		return nil, err
	}

	return mealToDTO(m, names), nil
}

// SuggestSwaps runs the swap engine for a stored meal. Results are cached
// per meal version and goal list.
func (s *SwapService) SuggestSwaps(ctx context.Context, cmd inbound.SuggestSwapsCommand) (*inbound.SwapSuggestionsDTO, error) {
	ctx, span := s.tracer.Start(ctx, "SwapService.SuggestSwaps",
		trace.WithAttributes(
			attribute.String("meal.id", cmd.MealID.String()),
			attribute.Int("goals.count", len(cmd.Goals)),
		),
	)
	defer span.End()

	if len(cmd.Goals) == 0 {
		return nil, errors.NewValidationError("at least one goal is required")
	}

	m, err := s.loadMeal(ctx, cmd.MealID)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	goals := toGoals(cmd.Goals)
	key := s.keys.Suggestions(m.ID(), m.Version(), goals)

	if cached, ok := s.cachedSuggestions(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	start := time.Now()
	suggestions := s.engine.GenerateSwaps(goals, m.Ingredients(), catalog)
	elapsed := time.Since(start)
	s.metrics.RecordSuggestions(len(suggestions), elapsed)

	span.SetAttributes(
		attribute.Bool("cache.hit", false),
		attribute.Int("suggestions.count", len(suggestions)),
	)

	s.logger.Info("Generated swap suggestions",
		zap.String("meal_id", m.ID().String()),
		zap.Int64("meal_version", m.Version()),
		zap.Int("goals", len(goals)),
		zap.Int("suggestions", len(suggestions)),
		zap.Duration("duration", elapsed),
	)

	result := &inbound.SwapSuggestionsDTO{
		MealID:      m.ID(),
		MealVersion: m.Version(),
		Suggestions: suggestionsToDTO(suggestions, catalog),
	}

	s.storeSuggestions(ctx, key, result)

	return result, nil
}

// ApplySwap replaces every ingredient entry equal to the original with the
// replacement, which must be a catalog food of the same group.
func (s *SwapService) ApplySwap(ctx context.Context, cmd inbound.ApplySwapCommand) (*inbound.MealDTO, error) {
	ctx, span := s.tracer.Start(ctx, "SwapService.ApplySwap",
		trace.WithAttributes(
			attribute.String("meal.id", cmd.MealID.String()),
			attribute.Int("original.food_id", cmd.Original.FoodID),
			attribute.Int("replacement.food_id", cmd.Replacement.FoodID),
		),
	)
	defer span.End()

	dto, err := s.applySwap(ctx, cmd)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return dto, nil
}

func (s *SwapService) applySwap(ctx context.Context, cmd inbound.ApplySwapCommand) (*inbound.MealDTO, error) {
	if err := cmd.Original.Validate(); err != nil {
		return nil, errors.NewValidationError("original: " + err.Error())
	}
	if err := cmd.Replacement.Validate(); err != nil {
		return nil, errors.NewValidationError("replacement: " + err.Error())
	}

	m, err := s.loadMeal(ctx, cmd.MealID)
	if err != nil {
		return nil, err
	}

	if !m.Contains(cmd.Original) {
		return nil, errors.NewSwapNotApplicableError(meal.ErrSwapNotApplicable.Error()).
			WithMetadata("food_id", cmd.Original.FoodID)
	}

	original, err := s.loadFood(ctx, cmd.Original.FoodID)
	if err != nil {
		return nil, err
	}
	replacement, err := s.loadFood(ctx, cmd.Replacement.FoodID)
	if err != nil {
		return nil, err
	}
	if original.FoodGroup != replacement.FoodGroup {
		return nil, errors.NewSwapNotApplicableError("replacement must be in the same food group").
			WithMetadata("original_group", original.FoodGroup).
			WithMetadata("replacement_group", replacement.FoodGroup)
	}

	replaced, err := m.ApplySwap(cmd.Original, cmd.Replacement)
	if err != nil {
		return nil, errors.NewSwapNotApplicableError(err.Error()).WithCause(err)
	}

	if err := s.meals.Update(ctx, m); err != nil {
		if stderrors.Is(err, meal.ErrVersionConflict) {
			return nil, errors.NewConflictError("meal was modified concurrently, reload and retry").WithCause(err)
		}
		if stderrors.Is(err, meal.ErrMealNotFound) {
			return nil, errors.NewMealNotFoundError(cmd.MealID.String())
		}
		return nil, errors.NewDatabaseError("update meal", err)
	}

	s.invalidateMeal(ctx, m.ID())
	s.publish(ctx, m.Events())
	s.metrics.RecordSwapApplied()

	s.logger.Info("Swap applied",
		zap.String("meal_id", m.ID().String()),
		zap.Int("original_food_id", cmd.Original.FoodID),
		zap.Int("replacement_food_id", cmd.Replacement.FoodID),
		zap.Int("replaced", replaced),
		zap.Int64("version", m.Version()),
	)

	names, err := s.foodNames(ctx, m.Ingredients(), false)
	if err != nil {
		return nil, err
	}
	return mealToDTO(m, names), nil
}

// AnalyzeMeal returns the nutrient totals of a stored meal
func (s *SwapService) AnalyzeMeal(ctx context.Context, mealID uuid.UUID) (*inbound.MealAnalysisDTO, error) {
	m, err := s.loadMeal(ctx, mealID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	ingredients := m.Ingredients()
	analysis := &inbound.MealAnalysisDTO{
		MealID: m.ID(),
		Totals: domainswap.ComputeTotals(ingredients, catalog),
	}
	for _, entry := range ingredients {
		if _, ok := catalog.Lookup(entry.FoodID); !ok {
			analysis.UnresolvedFoodIDs = append(analysis.UnresolvedFoodIDs, entry.FoodID)
		}
	}

	return analysis, nil
}

// Helper methods

func (s *SwapService) loadMeal(ctx context.Context, id uuid.UUID) (*meal.Meal, error) {
	m, err := s.meals.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, meal.ErrMealNotFound) {
			return nil, errors.NewMealNotFoundError(id.String())
		}
		return nil, errors.NewDatabaseError("find meal", err)
	}
	return m, nil
}

func (s *SwapService) loadFood(ctx context.Context, id int) (*nutrition.FoodItem, error) {
	food, err := s.foods.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, nutrition.ErrFoodNotFound) {
			return nil, errors.NewFoodNotFoundError(id)
		}
		return nil, errors.NewDatabaseError("find food", err)
	}
	return food, nil
}

func (s *SwapService) loadCatalog(ctx context.Context) (*nutrition.Catalog, error) {
	foods, err := s.foods.FindAll(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("load food catalog", err)
	}
	return nutrition.NewCatalog(foods...), nil
}

// foodNames resolves display names for entries. With strict set a missing
// food is an error, otherwise it is left unnamed.
func (s *SwapService) foodNames(ctx context.Context, entries []nutrition.IngredientEntry, strict bool) (map[int]string, error) {
	names := make(map[int]string, len(entries))
	for _, entry := range entries {
		if _, seen := names[entry.FoodID]; seen {
			continue
		}
		food, err := s.loadFood(ctx, entry.FoodID)
		if err != nil {
			if !strict && errors.Is(err, errors.CodeFoodNotFound) {
				names[entry.FoodID] = ""
				continue
			}
			return nil, err
		}
		names[entry.FoodID] = food.Name
	}
	return names, nil
}

func (s *SwapService) cachedSuggestions(ctx context.Context, key string) (*inbound.SwapSuggestionsDTO, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, outbound.ErrCacheMiss) {
			s.metrics.RecordCacheOperation("get", "miss")
		} else {
			s.metrics.RecordCacheOperation("get", "error")
			s.logger.Warn("Suggestion cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var dto inbound.SwapSuggestionsDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		s.metrics.RecordCacheOperation("get", "error")
		s.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	s.metrics.RecordCacheOperation("get", "hit")
	dto.Cached = true
	return &dto, true
}

func (s *SwapService) storeSuggestions(ctx context.Context, key string, dto *inbound.SwapSuggestionsDTO) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(dto)
	if err != nil {
		s.logger.Warn("Failed to encode suggestions for cache", zap.Error(err))
		return
	}

	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.metrics.RecordCacheOperation("set", "error")
		s.logger.Warn("Suggestion cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	s.metrics.RecordCacheOperation("set", "ok")
}

func (s *SwapService) invalidateMeal(ctx context.Context, mealID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, s.keys.MealPrefix(mealID)); err != nil {
		s.logger.Warn("Failed to invalidate meal suggestions",
			zap.String("meal_id", mealID.String()),
			zap.Error(err),
		)
	}
}

func (s *SwapService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
