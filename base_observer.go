package mca

import (
	"context"
	"maps"
	"slices"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// observerRegistration holds information about a registered observer.
type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool
	registeredAt time.Time
}

var _ Subject = (*Base)(nil)

// RegisterObserver adds an observer. Registering the same ID again replaces
// the previous subscription.
func (b *Base) RegisterObserver(observer Observer, eventTypes ...string) error {
	if observer == nil {
		return ErrObserverNil
	}
	b.observerMutex.Lock()
	defer b.observerMutex.Unlock()

	eventTypeMap := make(map[string]bool, len(eventTypes))
	for _, eventType := range eventTypes {
		eventTypeMap[eventType] = true
	}
	b.observers[observer.ObserverID()] = &observerRegistration{
		observer:     observer,
		eventTypes:   eventTypeMap,
		registeredAt: time.Now(),
	}
	b.logger.Debug("Observer registered", "observerID", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver removes an observer.
func (b *Base) UnregisterObserver(observer Observer) error {
	if observer == nil {
		return ErrObserverNil
	}
	b.observerMutex.Lock()
	defer b.observerMutex.Unlock()

	if _, exists := b.observers[observer.ObserverID()]; exists {
		delete(b.observers, observer.ObserverID())
		b.logger.Debug("Observer unregistered", "observerID", observer.ObserverID())
	}
	return nil
}

// NotifyObservers delivers event to each interested observer on its own
// goroutine. Observer errors and panics are logged, never returned.
func (b *Base) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if event.Time().IsZero() {
		event.SetTime(time.Now())
	}
	if err := ValidateCloudEvent(event); err != nil {
		b.logger.Error("Invalid CloudEvent", "eventType", event.Type(), "error", err)
		return err
	}

	b.observerMutex.RLock()
	defer b.observerMutex.RUnlock()

	for _, registration := range b.observers {
		if len(registration.eventTypes) > 0 && !registration.eventTypes[event.Type()] {
			continue
		}
		go func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("Observer panicked",
						"observerID", registration.observer.ObserverID(), "event", event.Type(), "panic", r)
				}
			}()
			if err := registration.observer.OnEvent(ctx, event); err != nil {
				b.logger.Error("Observer error",
					"observerID", registration.observer.ObserverID(), "event", event.Type(), "error", err)
			}
		}()
	}
	return nil
}

// GetObservers describes the registered observers.
func (b *Base) GetObservers() []ObserverInfo {
	b.observerMutex.RLock()
	defer b.observerMutex.RUnlock()

	info := make([]ObserverInfo, 0, len(b.observers))
	for _, registration := range b.observers {
		info = append(info, ObserverInfo{
			ID:           registration.observer.ObserverID(),
			EventTypes:   sortedKeys(registration.eventTypes),
			RegisteredAt: registration.registeredAt,
		})
	}
	return info
}

func sortedKeys(m map[string]bool) []string {
	keys := slices.Sorted(maps.Keys(m))
	if keys == nil {
		keys = []string{}
	}
	return keys
}

// emitEvent publishes an event for fw. Nothing is built when no observer is
// registered.
func (b *Base) emitEvent(eventType string, fw *Framework, data map[string]any) {
	b.observerMutex.RLock()
	empty := len(b.observers) == 0
	b.observerMutex.RUnlock()
	if empty {
		return
	}

	if data == nil {
		data = make(map[string]any)
	}
	data["framework"] = fw.name
	event := NewCloudEvent(eventType, "mca/"+fw.project+"/"+fw.name, data, map[string]any{
		"framework": fw.name,
	})
	if err := b.NotifyObservers(context.Background(), event); err != nil {
		b.logger.Debug("Failed to notify observers", "event", eventType, "error", err)
	}
}
