package state

import (
	"modelsnap/internal/domain"
	"modelsnap/internal/gallery"
	"modelsnap/internal/ui/logic"
)

// AppState contains all the application state
type AppState struct {
	// Gallery data
	Model      string           // active model id
	ModelLabel string           // display label for the active model
	Models     []string         // known model ids for cycling
	Pictures   []domain.Picture // pictures in display order

	// Selection state
	SelectedIndex int             // cursor position in the picture list
	Selected      map[string]bool // selected picture URLs
	Selecting     bool            // whether selection mode is active

	// UI state
	ViewportOffset int  // offset for scrolling
	ViewportHeight int  // available height for the picture list
	Loading        bool // whether a reload is in flight
	DecoratorOn    bool // whether marker decoration is enabled
	Importing      bool // whether the camera importer is watching
	StatusMessage  string
	ShowInfo       bool   // whether the picture info popup is open
	InfoContent    string // content of the picture info popup

	// Search state
	SearchQuery   string // current search query
	SearchMatches []int  // indices of matching pictures
	SearchIndex   int    // current match index
}

// NewAppState creates a new application state
func NewAppState() *AppState {
	return &AppState{
		Selected:       make(map[string]bool),
		ViewportHeight: 20, // Default
	}
}

// ApplyGallery replaces the gallery data with a controller snapshot. The
// pictures must be the snapshot's URL list resolved to records, same order.
func (s *AppState) ApplyGallery(snap gallery.State, pics []domain.Picture) {
	s.Model = snap.Model
	s.Pictures = pics
	s.Selected = snap.Selected
	if s.Selected == nil {
		s.Selected = make(map[string]bool)
	}
	s.Selecting = snap.Selecting

	if s.SelectedIndex >= len(s.Pictures) {
		s.SelectedIndex = len(s.Pictures) - 1
	}
	if s.SelectedIndex < 0 {
		s.SelectedIndex = 0
	}

	s.RefreshSearch()
}

// ApplySelection applies just the selection part of a snapshot. Returns false
// when the picture list diverged and a full refresh is needed instead.
func (s *AppState) ApplySelection(snap gallery.State) bool {
	if len(snap.Pictures) != len(s.Pictures) {
		return false
	}
	for i, url := range snap.Pictures {
		if s.Pictures[i].URL != url {
			return false
		}
	}
	s.Selected = snap.Selected
	if s.Selected == nil {
		s.Selected = make(map[string]bool)
	}
	s.Selecting = snap.Selecting
	return true
}

// CursorURL returns the URL of the picture under the cursor
func (s *AppState) CursorURL() string {
	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Pictures) {
		return ""
	}
	return s.Pictures[s.SelectedIndex].URL
}

// CursorPicture returns the picture under the cursor
func (s *AppState) CursorPicture() (domain.Picture, bool) {
	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Pictures) {
		return domain.Picture{}, false
	}
	return s.Pictures[s.SelectedIndex], true
}

// SelectedCount returns the number of selected pictures
func (s *AppState) SelectedCount() int {
	return len(s.Selected)
}

// SetSearch sets the search query and matching indices
func (s *AppState) SetSearch(query string, matches []int) {
	s.SearchQuery = query
	s.SearchMatches = matches
	s.SearchIndex = 0
}

// ClearSearch drops the search query and its matches
func (s *AppState) ClearSearch() {
	s.SearchQuery = ""
	s.SearchMatches = nil
	s.SearchIndex = 0
}

// RefreshSearch recomputes matches after the picture list changed
func (s *AppState) RefreshSearch() {
	if s.SearchQuery == "" {
		return
	}
	s.SearchMatches = logic.PerformSearch(s.Pictures, s.SearchQuery)
	if s.SearchIndex >= len(s.SearchMatches) {
		s.SearchIndex = 0
	}
}

// SetStatus sets the status bar message
func (s *AppState) SetStatus(message string) {
	s.StatusMessage = message
}

// ModelIndex returns the position of the active model in Models, or -1
func (s *AppState) ModelIndex() int {
	for i, m := range s.Models {
		if m == s.Model {
			return i
		}
	}
	return -1
}
