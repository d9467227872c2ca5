// Package marker bridges marker placement into the event bus and owns the
// decorator visibility flag.
package marker

import (
	"go.uber.org/atomic"

	"modelsnap/internal/domain"
	"modelsnap/internal/eventbus"
)

// Notifier announces placed markers and tracks whether their decoration is
// drawn. The flag is read from render paths, so it is atomic rather than
// mutex guarded.
type Notifier struct {
	bus     eventbus.EventBus
	enabled *atomic.Bool
}

// NewNotifier creates a notifier publishing on bus with the given initial
// decorator visibility.
func NewNotifier(bus eventbus.EventBus, enabled bool) *Notifier {
	return &Notifier{
		bus:     bus,
		enabled: atomic.NewBool(enabled),
	}
}

// NotifyAdded announces that a marker snapshot was stored for a model.
// Gallery views listening on the bus reload in response.
func (n *Notifier) NotifyAdded(model, url string) {
	n.bus.Publish(domain.MarkerAddedEvent{Model: model, URL: url})
}

// Enabled reports whether marker decoration is currently visible.
func (n *Notifier) Enabled() bool {
	return n.enabled.Load()
}

// SetEnabled sets decorator visibility, publishing only on an actual change.
func (n *Notifier) SetEnabled(v bool) {
	if n.enabled.Swap(v) == v {
		return
	}
	n.bus.Publish(domain.DecoratorToggledEvent{Enabled: v})
}

// Toggle flips decorator visibility and returns the new state.
func (n *Notifier) Toggle() bool {
	enabled := !n.enabled.Toggle()
	n.bus.Publish(domain.DecoratorToggledEvent{Enabled: enabled})
	return enabled
}
