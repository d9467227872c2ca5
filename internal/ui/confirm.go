package ui

import (
	"context"

	"modelsnap/internal/domain"
	"modelsnap/internal/eventbus"
)

// ModalConfirmer asks yes/no questions through the event bus. Confirm blocks
// until the UI answers, so it must only be called from command goroutines,
// never from the Update loop itself.
type ModalConfirmer struct {
	bus eventbus.EventBus
}

// NewModalConfirmer creates a confirmer backed by the given bus
func NewModalConfirmer(bus eventbus.EventBus) *ModalConfirmer {
	return &ModalConfirmer{bus: bus}
}

// Confirm publishes the question and waits for the answer or cancellation
func (c *ModalConfirmer) Confirm(ctx context.Context, req domain.ConfirmRequest) bool {
	reply := make(chan bool, 1)
	c.bus.Publish(domain.ConfirmRequestedEvent{Req: req, Reply: reply})

	select {
	case answer := <-reply:
		return answer
	case <-ctx.Done():
		return false
	}
}
