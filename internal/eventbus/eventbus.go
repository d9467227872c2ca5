package eventbus

import (
	"log"
	"runtime/debug"
	"sync"

	"modelsnap/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventGalleryReloaded  = domain.EventGalleryReloaded
	EventSelectionChanged = domain.EventSelectionChanged
	EventPictureOpened    = domain.EventPictureOpened
	EventPicturesDeleted  = domain.EventPicturesDeleted
	EventMarkerAdded      = domain.EventMarkerAdded
	EventDecoratorToggled = domain.EventDecoratorToggled
	EventConfirmRequested = domain.EventConfirmRequested
	EventShareReady       = domain.EventShareReady
	EventImportStarted    = domain.EventImportStarted
	EventImportCompleted  = domain.EventImportCompleted
	EventModelSwitched    = domain.EventModelSwitched
	EventError            = domain.EventError
)

// Re-export domain event types
type GalleryReloadedEvent = domain.GalleryReloadedEvent
type SelectionChangedEvent = domain.SelectionChangedEvent
type PictureOpenedEvent = domain.PictureOpenedEvent
type PicturesDeletedEvent = domain.PicturesDeletedEvent
type MarkerAddedEvent = domain.MarkerAddedEvent
type DecoratorToggledEvent = domain.DecoratorToggledEvent
type ConfirmRequestedEvent = domain.ConfirmRequestedEvent
type ShareReadyEvent = domain.ShareReadyEvent
type ImportStartedEvent = domain.ImportStartedEvent
type ImportCompletedEvent = domain.ImportCompletedEvent
type ModelSwitchedEvent = domain.ModelSwitchedEvent
type ErrorEvent = domain.ErrorEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu        sync.RWMutex
	nextID    uint64
	handlers  map[EventType][]subscription
	eventChan chan DomainEvent
	wg        sync.WaitGroup
	quit      chan struct{}
	closed    bool
}

// New creates a new event bus
func New() EventBus {
	b := &bus{
		handlers:  make(map[EventType][]subscription),
		eventChan: make(chan DomainEvent, 1000),
		quit:      make(chan struct{}),
	}

	// Start the event dispatcher
	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish publishes an event to all subscribers
func (b *bus) Publish(event DomainEvent) {
	// Selection changes fire on every keystroke in select mode, skip logging those
	switch event.Type() {
	case EventSelectionChanged:
	default:
		log.Printf("EventBus: Publishing event %s", event.Type())
	}

	select {
	case b.eventChan <- event:
	default:
		// Channel full, log and drop
		log.Printf("Event bus channel full, dropping event: %v", event.Type())
	}
}

// Subscribe subscribes to events of a specific type
// Returns an unsubscribe function
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	// Return unsubscribe function
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close stops the dispatcher and discards queued events
func (b *bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	close(b.quit)
	b.wg.Wait()
}

// dispatch handles event distribution to subscribers
func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			// Get handlers for this event type
			b.mu.RLock()
			subs := b.handlers[event.Type()]
			// Make a copy to avoid holding lock during handler execution
			subsCopy := make([]subscription, len(subs))
			copy(subsCopy, subs)
			b.mu.RUnlock()

			// Call each handler
			for _, s := range subsCopy {
				// Call handler in a goroutine to avoid blocking
				go func(h EventHandler, eventType EventType) {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("Event handler panic for %s: %v\nStack: %s", eventType, r, debug.Stack())
						}
					}()
					h(event)
				}(s.handler, event.Type())
			}

		case <-b.quit:
			// Drain remaining events
			for {
				select {
				case <-b.eventChan:
					// Discard event
				default:
					return
				}
			}
		}
	}
}
