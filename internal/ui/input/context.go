package input

import (
	"modelsnap/internal/ui/state"
)

// ModelContext implements the Context interface for the input handler
type ModelContext struct {
	State *state.AppState
}

// CurrentIndex returns the cursor position
func (c *ModelContext) CurrentIndex() int {
	return c.State.SelectedIndex
}

// TotalItems returns the number of pictures in the list
func (c *ModelContext) TotalItems() int {
	return len(c.State.Pictures)
}

// CurrentURL returns the URL of the picture under the cursor
func (c *ModelContext) CurrentURL() string {
	return c.State.CursorURL()
}

// Selecting returns true while selection mode is active
func (c *ModelContext) Selecting() bool {
	return c.State.Selecting
}

// HasSelection returns true if any pictures are selected
func (c *ModelContext) HasSelection() bool {
	return len(c.State.Selected) > 0
}

// SelectedCount returns the number of selected pictures
func (c *ModelContext) SelectedCount() int {
	return len(c.State.Selected)
}

// SearchQuery returns the current search query
func (c *ModelContext) SearchQuery() string {
	return c.State.SearchQuery
}

// ModelLabel returns the label of the active model
func (c *ModelContext) ModelLabel() string {
	return c.State.ModelLabel
}
