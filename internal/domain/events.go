package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventGalleryReloaded  EventType = "GalleryReloaded"
	EventSelectionChanged EventType = "SelectionChanged"
	EventPictureOpened    EventType = "PictureOpened"
	EventPicturesDeleted  EventType = "PicturesDeleted"
	EventMarkerAdded      EventType = "MarkerAdded"
	EventDecoratorToggled EventType = "DecoratorToggled"
	EventConfirmRequested EventType = "ConfirmRequested"
	EventShareReady       EventType = "ShareReady"
	EventImportStarted    EventType = "ImportStarted"
	EventImportCompleted  EventType = "ImportCompleted"
	EventModelSwitched    EventType = "ModelSwitched"
	EventError            EventType = "Error"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// GalleryReloadedEvent is emitted after the picture set for a model was
// replaced from the store, including when the new set is empty
type GalleryReloadedEvent struct {
	Model string
	Count int
}

func (e GalleryReloadedEvent) Type() EventType { return EventGalleryReloaded }

// SelectionChangedEvent is emitted whenever selection mode or the selected
// set changes
type SelectionChangedEvent struct {
	Model     string
	Selecting bool
	Count     int
}

func (e SelectionChangedEvent) Type() EventType { return EventSelectionChanged }

// PictureOpenedEvent is emitted when a picture is activated in browse mode
type PictureOpenedEvent struct {
	Model string
	URL   string
}

func (e PictureOpenedEvent) Type() EventType { return EventPictureOpened }

// PicturesDeletedEvent is emitted after pictures were removed from the store
type PicturesDeletedEvent struct {
	Model string
	URLs  []string
	All   bool // true when the whole gallery was dropped in one operation
}

func (e PicturesDeletedEvent) Type() EventType { return EventPicturesDeleted }

// MarkerAddedEvent is emitted when a new picture marker appears for a model.
// The gallery reloads itself in response.
type MarkerAddedEvent struct {
	Model string
	URL   string
}

func (e MarkerAddedEvent) Type() EventType { return EventMarkerAdded }

// DecoratorToggledEvent is emitted when marker decorator visibility flips
type DecoratorToggledEvent struct {
	Enabled bool
}

func (e DecoratorToggledEvent) Type() EventType { return EventDecoratorToggled }

// ConfirmRequestedEvent carries a confirmation dialog request to the UI.
// The receiver must send exactly one answer on Reply.
type ConfirmRequestedEvent struct {
	Req   ConfirmRequest
	Reply chan<- bool
}

func (e ConfirmRequestedEvent) Type() EventType { return EventConfirmRequested }

// ShareReadyEvent is emitted when a share link was minted for a picture set
type ShareReadyEvent struct {
	Model string
	Link  ShareLink
}

func (e ShareReadyEvent) Type() EventType { return EventShareReady }

// ImportStartedEvent is emitted when the camera inbox importer starts
type ImportStartedEvent struct {
	Dir string
}

func (e ImportStartedEvent) Type() EventType { return EventImportStarted }

// ImportCompletedEvent is emitted after an inbox sweep that imported pictures
type ImportCompletedEvent struct {
	Model    string
	Imported int
}

func (e ImportCompletedEvent) Type() EventType { return EventImportCompleted }

// ModelSwitchedEvent is emitted when the gallery switches to another model
type ModelSwitchedEvent struct {
	Model string
}

func (e ModelSwitchedEvent) Type() EventType { return EventModelSwitched }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }
