// Package events provides the in-process domain event dispatcher
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/alchemorsel/mealswap/internal/domain/meal"
	"github.com/alchemorsel/mealswap/internal/domain/shared"
	"github.com/alchemorsel/mealswap/internal/ports/outbound"
)

// Dispatcher routes domain events to handlers registered by event name.
// A failing handler is logged and does not stop the others.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	log      *zap.Logger
}

var (
	_ shared.EventDispatcher  = (*Dispatcher)(nil)
	_ outbound.EventPublisher = (*Dispatcher)(nil)
)

// NewDispatcher creates a new event dispatcher
func NewDispatcher(log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]shared.EventHandler),
		log:      log.Named("events"),
	}
}

// Register registers an event handler
func (d *Dispatcher) Register(eventName string, handler shared.EventHandler) {
	d.mu.Lock()
	d.handlers[eventName] = append(d.handlers[eventName], handler)
	d.mu.Unlock()
	d.log.Debug("Registered event handler", zap.String("event", eventName))
}

// Dispatch dispatches an event to registered handlers
func (d *Dispatcher) Dispatch(event shared.DomainEvent) error {
	d.mu.RLock()
	handlers := d.handlers[event.EventName()]
	d.mu.RUnlock()

	if len(handlers) == 0 {
		d.log.Debug("No handlers registered for event", zap.String("event", event.EventName()))
		return nil
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			d.log.Error("Failed to handle event",
				zap.String("event", event.EventName()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Publish dispatches events in order. It stops early only when ctx is done.
func (d *Dispatcher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.Dispatch(event); err != nil {
			return err
		}
	}
	return nil
}

// RegisterMealHandlers subscribes the audit log handlers for meal events
func RegisterMealHandlers(d *Dispatcher, log *zap.Logger) {
	audit := log.Named("meal-events")

	d.Register(meal.MealCreatedEvent{}.EventName(), func(event shared.DomainEvent) error {
		e, ok := event.(meal.MealCreatedEvent)
		if !ok {
			return nil
		}
		audit.Info("Meal created",
			zap.String("meal_id", e.MealID.String()),
			zap.String("name", e.Name),
			zap.Int("ingredients", e.IngredientCount),
		)
		return nil
	})

	d.Register(meal.SwapAppliedEvent{}.EventName(), func(event shared.DomainEvent) error {
		e, ok := event.(meal.SwapAppliedEvent)
		if !ok {
			return nil
		}
		audit.Info("Swap applied",
			zap.String("meal_id", e.MealID.String()),
			zap.Int("original_food_id", e.Original.FoodID),
			zap.Int("replacement_food_id", e.Replacement.FoodID),
			zap.Int("replaced", e.Replaced),
			zap.Int64("version", e.Version),
		)
		return nil
	})
}
