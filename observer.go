package mca

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer is notified of MCA base decisions as CloudEvents.
type Observer interface {
	// OnEvent is called for every event the observer subscribed to.
	// Observers should return quickly; notifications run concurrently.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier used for registration tracking.
	ObserverID() string
}

// Subject is implemented by Base.
type Subject interface {
	// RegisterObserver adds an observer. An empty eventTypes list subscribes
	// to every event.
	RegisterObserver(observer Observer, eventTypes ...string) error

	// UnregisterObserver removes an observer. Unknown observers are ignored.
	UnregisterObserver(observer Observer) error

	// NotifyObservers delivers event to every interested observer.
	NotifyObservers(ctx context.Context, event cloudevents.Event) error

	// GetObservers describes the registered observers.
	GetObservers() []ObserverInfo
}

// ObserverInfo describes a registered observer.
type ObserverInfo struct {
	ID           string    `json:"id"`
	EventTypes   []string  `json:"eventTypes"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Event types emitted by the MCA base.
const (
	// Component events
	EventTypeComponentDiscovered = "com.mca.component.discovered"
	EventTypeComponentOpened     = "com.mca.component.opened"
	EventTypeComponentFiltered   = "com.mca.component.filtered"
	EventTypeComponentClosed     = "com.mca.component.closed"
	EventTypeComponentLoadFailed = "com.mca.component.load_failed"

	// Framework events
	EventTypeFrameworkOpened = "com.mca.framework.opened"
	EventTypeFrameworkClosed = "com.mca.framework.closed"

	// Selection events
	EventTypeModulesSelected = "com.mca.modules.selected"
	EventTypeModuleAssigned  = "com.mca.module.assigned"
)

// FunctionalObserver adapts a function to the Observer interface.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates an observer backed by handler.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{
		id:      id,
		handler: handler,
	}
}

// OnEvent calls the handler.
func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID returns the observer ID.
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}
