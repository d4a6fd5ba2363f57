package shared

import "time"

// DomainEvent represents something that happened to an aggregate
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// EventHandler handles domain events
type EventHandler func(event DomainEvent) error

// EventDispatcher routes domain events to the handlers registered by name
type EventDispatcher interface {
	Dispatch(event DomainEvent) error
	Register(eventName string, handler EventHandler)
}

// AggregateRoot collects events raised by an aggregate until the
// application layer drains them.
type AggregateRoot struct {
	events []DomainEvent
}

// AddEvent records a pending event
func (a *AggregateRoot) AddEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

// Events returns and clears pending domain events
func (a *AggregateRoot) Events() []DomainEvent {
	events := a.events
	a.events = nil
	return events
}

// PendingEvents reports how many events have not been drained
func (a *AggregateRoot) PendingEvents() int {
	return len(a.events)
}
