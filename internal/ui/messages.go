package ui

import (
	"time"

	"modelsnap/internal/domain"
	"modelsnap/internal/eventbus"
	"modelsnap/internal/gallery"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// tickMsg is sent on a timer for animations
type tickMsg time.Time

// galleryDataMsg carries a controller snapshot with its URLs resolved to
// picture records
type galleryDataMsg struct {
	snap     gallery.State
	pictures []domain.Picture
	label    string
}

// reloadDoneMsg contains the result of a gallery reload
type reloadDoneMsg struct {
	err error
}

// deleteDoneMsg contains the result of a delete operation
type deleteDoneMsg struct {
	err error
}

// shareDoneMsg contains the result of minting a share link
type shareDoneMsg struct {
	link domain.ShareLink
	err  error
}

// pickDoneMsg contains the result of picking an image
type pickDoneMsg struct {
	fromLibrary bool
	added       bool
	err         error
}

// switchDoneMsg contains the result of switching models
type switchDoneMsg struct {
	model string
	err   error
}

// labelDoneMsg contains the result of relabeling the active model
type labelDoneMsg struct {
	label string
	err   error
}

// modelsMsg carries the known model ids for cycling
type modelsMsg struct {
	models []string
	err    error
}

// saveConfigDoneMsg contains the result of persisting the config
type saveConfigDoneMsg struct {
	err error
}

// clearStatusMsg clears the status bar
type clearStatusMsg struct{}

// quitMsg signals that the application should quit
type quitMsg struct {
	saveConfig bool
}

// pauseRenderingMsg signals to pause Bubble Tea rendering
type pauseRenderingMsg struct{}

// resumeRenderingMsg signals to resume Bubble Tea rendering
type resumeRenderingMsg struct{}
