// Package gallery implements the picture gallery controller: a model scoped,
// lexicographically ordered picture list with a browsing/selecting state
// machine on top of it.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"modelsnap/internal/domain"
	"modelsnap/internal/eventbus"
	"modelsnap/internal/imagestore"
	"modelsnap/internal/marker"
)

// ErrClosed is returned by operations invoked after Close.
var ErrClosed = errors.New("gallery controller is closed")

// Confirmer asks the user a yes/no question and blocks until answered.
type Confirmer interface {
	Confirm(ctx context.Context, req domain.ConfirmRequest) bool
}

// ConfirmFunc adapts a plain function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, req domain.ConfirmRequest) bool

func (f ConfirmFunc) Confirm(ctx context.Context, req domain.ConfirmRequest) bool {
	return f(ctx, req)
}

const (
	confirmDeleteOneTitle    = "Delete picture"
	confirmDeleteOneMessage  = "Are you sure you want to delete this picture?"
	confirmDeleteAllTitle    = "Delete all pictures"
	confirmDeleteAllMessage  = "Are you sure you want to delete all pictures?"
	confirmDeleteSomeTitle   = "Delete pictures"
	confirmDeleteSomeMessage = "Are you sure you want to delete the selected pictures?"
)

// State is a render snapshot of the controller.
type State struct {
	Model     string
	Pictures  []string
	Selected  map[string]bool
	Selecting bool
}

// Controller owns the picture list of one model at a time. All state behind
// the mutex; store calls happen outside of it so a slow store never blocks
// selection handling.
type Controller struct {
	store   imagestore.Store
	bus     eventbus.EventBus
	markers *marker.Notifier
	confirm Confirmer

	mu        sync.Mutex
	model     string
	pictures  []string
	selected  map[string]struct{}
	selecting bool
	gen       uint64
	closed    bool

	runCtx      context.Context
	unsubscribe []func()
}

// New creates a controller for the given model. Call Start to subscribe it
// to bus events and perform the initial load.
func New(store imagestore.Store, bus eventbus.EventBus, markers *marker.Notifier, confirm Confirmer, model string) *Controller {
	return &Controller{
		store:    store,
		bus:      bus,
		markers:  markers,
		confirm:  confirm,
		model:    model,
		pictures: []string{},
		selected: make(map[string]struct{}),
		runCtx:   context.Background(),
	}
}

// Start subscribes the controller to marker and import events and reloads.
// The given context bounds event driven reloads for the controller lifetime.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	c.runCtx = ctx
	c.mu.Unlock()

	unsubMarker := c.bus.Subscribe(eventbus.EventMarkerAdded, func(e eventbus.DomainEvent) {
		if added, ok := e.(domain.MarkerAddedEvent); ok && added.Model == c.Model() {
			_ = c.Reload(c.runContext())
		}
	})
	unsubImport := c.bus.Subscribe(eventbus.EventImportCompleted, func(e eventbus.DomainEvent) {
		if done, ok := e.(domain.ImportCompletedEvent); ok && done.Model == c.Model() && done.Imported > 0 {
			_ = c.Reload(c.runContext())
		}
	})
	c.mu.Lock()
	c.unsubscribe = append(c.unsubscribe, unsubMarker, unsubImport)
	c.mu.Unlock()

	return c.Reload(ctx)
}

// Close detaches the controller from the bus. In-flight reloads will not
// commit afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	unsubs := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

func (c *Controller) runContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runCtx
}

// Model returns the ID of the model currently shown.
func (c *Controller) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// Snapshot returns a copy of the current state for rendering.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := State{
		Model:     c.model,
		Pictures:  append([]string(nil), c.pictures...),
		Selected:  make(map[string]bool, len(c.selected)),
		Selecting: c.selecting,
	}
	for url := range c.selected {
		s.Selected[url] = true
	}
	return s
}

// Selected returns the selected URLs in display order.
func (c *Controller) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedLocked()
}

func (c *Controller) selectedLocked() []string {
	urls := make([]string, 0, len(c.selected))
	for _, url := range c.pictures {
		if _, ok := c.selected[url]; ok {
			urls = append(urls, url)
		}
	}
	return urls
}

// Reload fetches the model's picture list and commits it, unless a newer
// reload or a model switch overtook this one. The selection is pruned to the
// surviving pictures; an empty gallery always leaves selection mode.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.gen++
	gen := c.gen
	model := c.model
	c.mu.Unlock()

	urls, err := c.store.ListImages(ctx, model)
	if err != nil {
		c.bus.Publish(domain.ErrorEvent{Message: "Failed to load pictures for " + model, Err: err})
		return fmt.Errorf("listing pictures: %w", err)
	}
	// A canceled fetch must never commit, even if the store returned data.
	if err := ctx.Err(); err != nil {
		return err
	}
	urls = normalize(urls)

	c.mu.Lock()
	if c.closed || gen != c.gen || model != c.model {
		c.mu.Unlock()
		return nil
	}
	c.pictures = urls
	changed := c.pruneSelectionLocked()
	if len(urls) == 0 && c.selecting {
		c.selecting = false
		changed = true
	}
	selecting := c.selecting
	count := len(c.selected)
	c.mu.Unlock()

	c.bus.Publish(domain.GalleryReloadedEvent{Model: model, Count: len(urls)})
	if changed {
		c.bus.Publish(domain.SelectionChangedEvent{Model: model, Selecting: selecting, Count: count})
	}
	return nil
}

// pruneSelectionLocked drops selected URLs that no longer exist. Reports
// whether anything was removed. Caller holds mu.
func (c *Controller) pruneSelectionLocked() bool {
	changed := false
	for url := range c.selected {
		i := sort.SearchStrings(c.pictures, url)
		if i >= len(c.pictures) || c.pictures[i] != url {
			delete(c.selected, url)
			changed = true
		}
	}
	return changed
}

// ToggleSelected flips the selection state of one picture. URLs not in the
// gallery are ignored so the selection can never reference a missing picture.
func (c *Controller) ToggleSelected(url string) {
	c.mu.Lock()
	i := sort.SearchStrings(c.pictures, url)
	if i >= len(c.pictures) || c.pictures[i] != url {
		c.mu.Unlock()
		return
	}
	if _, ok := c.selected[url]; ok {
		delete(c.selected, url)
	} else {
		c.selected[url] = struct{}{}
	}
	model := c.model
	selecting := c.selecting
	count := len(c.selected)
	c.mu.Unlock()

	c.bus.Publish(domain.SelectionChangedEvent{Model: model, Selecting: selecting, Count: count})
}

// HandleClick dispatches a picture activation: toggle in selection mode,
// announce an open otherwise.
func (c *Controller) HandleClick(url string) {
	c.mu.Lock()
	selecting := c.selecting
	model := c.model
	c.mu.Unlock()

	if selecting {
		c.ToggleSelected(url)
		return
	}
	c.bus.Publish(domain.PictureOpenedEvent{Model: model, URL: url})
}

// DeleteOne deletes a single picture after user confirmation.
func (c *Controller) DeleteOne(ctx context.Context, url string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	model := c.model
	i := sort.SearchStrings(c.pictures, url)
	known := i < len(c.pictures) && c.pictures[i] == url
	c.mu.Unlock()
	if !known {
		return nil
	}

	ok := c.confirm.Confirm(ctx, domain.ConfirmRequest{
		Title:       confirmDeleteOneTitle,
		Message:     confirmDeleteOneMessage,
		Destructive: true,
	})
	if !ok {
		return nil
	}

	if err := c.store.DeleteImages(ctx, []string{url}); err != nil {
		c.bus.Publish(domain.ErrorEvent{Message: "Failed to delete picture", Err: err})
		return fmt.Errorf("deleting picture: %w", err)
	}
	c.bus.Publish(domain.PicturesDeletedEvent{Model: model, URLs: []string{url}})
	return c.Reload(ctx)
}

// DeleteSelected deletes the selected pictures after confirmation. When the
// whole gallery is selected this is a single delete-all against the store
// with its own confirmation copy.
func (c *Controller) DeleteSelected(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	model := c.model
	urls := c.selectedLocked()
	all := len(urls) > 0 && len(urls) == len(c.pictures)
	c.mu.Unlock()
	if len(urls) == 0 {
		return nil
	}

	req := domain.ConfirmRequest{
		Title:       confirmDeleteSomeTitle,
		Message:     confirmDeleteSomeMessage,
		Destructive: true,
	}
	if all {
		req.Title = confirmDeleteAllTitle
		req.Message = confirmDeleteAllMessage
	}
	if !c.confirm.Confirm(ctx, req) {
		return nil
	}

	var err error
	if all {
		err = c.store.DeleteAllImages(ctx, model)
	} else {
		err = c.store.DeleteImages(ctx, urls)
	}
	if err != nil {
		c.bus.Publish(domain.ErrorEvent{Message: "Failed to delete pictures", Err: err})
		return fmt.Errorf("deleting pictures: %w", err)
	}
	c.bus.Publish(domain.PicturesDeletedEvent{Model: model, URLs: urls, All: all})
	return c.Reload(ctx)
}

// Share mints a share link for the given pictures.
func (c *Controller) Share(ctx context.Context, urls []string, anchor *domain.Rect) (domain.ShareLink, error) {
	if len(urls) == 0 {
		return domain.ShareLink{}, nil
	}
	link, err := c.store.ShareImages(ctx, urls, anchor)
	if err != nil {
		c.bus.Publish(domain.ErrorEvent{Message: "Failed to share pictures", Err: err})
		return domain.ShareLink{}, fmt.Errorf("sharing pictures: %w", err)
	}
	c.bus.Publish(domain.ShareReadyEvent{Model: c.Model(), Link: link})
	return link, nil
}

// ShareSelection shares the selected pictures, or the whole gallery when
// nothing is selected.
func (c *Controller) ShareSelection(ctx context.Context, anchor *domain.Rect) (domain.ShareLink, error) {
	c.mu.Lock()
	urls := c.selectedLocked()
	if len(urls) == 0 {
		urls = append([]string(nil), c.pictures...)
	}
	c.mu.Unlock()
	return c.Share(ctx, urls, anchor)
}

// PickImage imports the newest image from the photo library or camera
// directory and reloads on success. Returns whether a picture was added.
func (c *Controller) PickImage(ctx context.Context, fromLibrary bool) (bool, error) {
	added, err := c.store.PickImage(ctx, c.Model(), fromLibrary)
	if err != nil {
		c.bus.Publish(domain.ErrorEvent{Message: "Failed to pick image", Err: err})
		return false, fmt.Errorf("picking image: %w", err)
	}
	if !added {
		return false, nil
	}
	return true, c.Reload(ctx)
}

// ToggleSelectAll selects every picture, or clears the selection when every
// picture is already selected.
func (c *Controller) ToggleSelectAll() {
	c.mu.Lock()
	if len(c.pictures) > 0 && len(c.selected) == len(c.pictures) {
		c.selected = make(map[string]struct{})
	} else {
		for _, url := range c.pictures {
			c.selected[url] = struct{}{}
		}
	}
	model := c.model
	selecting := c.selecting
	count := len(c.selected)
	c.mu.Unlock()

	c.bus.Publish(domain.SelectionChangedEvent{Model: model, Selecting: selecting, Count: count})
}

// ToggleSelectMode switches between browsing and selecting. Leaving selection
// mode clears the selection; an empty gallery cannot enter it.
func (c *Controller) ToggleSelectMode() {
	c.mu.Lock()
	if c.selecting {
		c.selecting = false
		c.selected = make(map[string]struct{})
	} else if len(c.pictures) > 0 {
		c.selecting = true
	}
	model := c.model
	selecting := c.selecting
	count := len(c.selected)
	c.mu.Unlock()

	c.bus.Publish(domain.SelectionChangedEvent{Model: model, Selecting: selecting, Count: count})
}

// ToggleDecorator flips marker decoration visibility and returns the new
// state.
func (c *Controller) ToggleDecorator() bool {
	return c.markers.Toggle()
}

// DecoratorEnabled reports whether marker decoration is visible.
func (c *Controller) DecoratorEnabled() bool {
	return c.markers.Enabled()
}

// SwitchModel points the controller at another model and reloads. The
// selection does not carry over.
func (c *Controller) SwitchModel(ctx context.Context, model string) error {
	if !domain.ValidModelID(model) {
		return imagestore.ErrInvalidModelID
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if model == c.model {
		c.mu.Unlock()
		return nil
	}
	c.model = model
	c.gen++
	c.selected = make(map[string]struct{})
	c.selecting = false
	c.mu.Unlock()

	c.bus.Publish(domain.ModelSwitchedEvent{Model: model})
	return c.Reload(ctx)
}

// normalize sorts the list and drops duplicates in place.
func normalize(urls []string) []string {
	sort.Strings(urls)
	out := urls[:0]
	for i, url := range urls {
		if i == 0 || url != urls[i-1] {
			out = append(out, url)
		}
	}
	return out
}
