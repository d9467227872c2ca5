package gallery

import (
	"bytes"
	"context"
	"image"
	"image/color/palette"
	"image/gif"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"modelsnap/internal/domain"
	"modelsnap/internal/eventbus"
	"modelsnap/internal/imagestore"
	"modelsnap/internal/marker"
)

func encodeGIF(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewPaletted(image.Rect(0, 0, 2, 2), palette.Plan9)
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

func seed(t *testing.T, s imagestore.Store, model string, names ...string) []string {
	t.Helper()
	urls := make([]string, 0, len(names))
	for _, name := range names {
		pic, err := s.AddImage(context.Background(), model, name, bytes.NewReader(encodeGIF(t)), domain.OriginUpload)
		require.NoError(t, err)
		urls = append(urls, pic.URL)
	}
	return urls
}

func yes(context.Context, domain.ConfirmRequest) bool { return true }

func newTestController(t *testing.T, store imagestore.Store, confirm Confirmer) (*Controller, eventbus.EventBus) {
	t.Helper()
	if confirm == nil {
		confirm = ConfirmFunc(yes)
	}
	bus := eventbus.New()
	t.Cleanup(bus.Close)
	c := New(store, bus, marker.NewNotifier(bus, true), confirm, "bridge")
	t.Cleanup(c.Close)
	return c, bus
}

func collect(t *testing.T, bus eventbus.EventBus, eventType eventbus.EventType) <-chan eventbus.DomainEvent {
	t.Helper()
	ch := make(chan eventbus.DomainEvent, 64)
	bus.Subscribe(eventType, func(e eventbus.DomainEvent) {
		ch <- e
	})
	return ch
}

func next(t *testing.T, ch <-chan eventbus.DomainEvent) eventbus.DomainEvent {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

// scriptedConfirm answers prepared values in order and records every request.
type scriptedConfirm struct {
	mu      sync.Mutex
	answers []bool
	asked   []domain.ConfirmRequest
}

func (s *scriptedConfirm) Confirm(_ context.Context, req domain.ConfirmRequest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, req)
	if len(s.answers) == 0 {
		return false
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer
}

func (s *scriptedConfirm) requests() []domain.ConfirmRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ConfirmRequest(nil), s.asked...)
}

// listOnlyStore serves a canned picture list. Any other store call panics.
type listOnlyStore struct {
	imagestore.Store
	urls []string
}

func (l *listOnlyStore) ListImages(context.Context, string) ([]string, error) {
	return append([]string(nil), l.urls...), nil
}

// gateStore parks every ListImages call until the test releases it with a
// reply, so reload interleavings can be forced deterministically.
type gateStore struct {
	*imagestore.MemStore
	gate chan chan []string
}

func (g *gateStore) ListImages(context.Context, string) ([]string, error) {
	reply := make(chan []string)
	g.gate <- reply
	return <-reply, nil
}

// trackingStore records which delete entry point was used.
type trackingStore struct {
	*imagestore.MemStore
	mu             sync.Mutex
	deleteCalls    [][]string
	deleteAllCalls []string
	listErr        error
}

func (s *trackingStore) ListImages(ctx context.Context, model string) ([]string, error) {
	s.mu.Lock()
	err := s.listErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.MemStore.ListImages(ctx, model)
}

func (s *trackingStore) DeleteImages(ctx context.Context, urls []string) error {
	s.mu.Lock()
	s.deleteCalls = append(s.deleteCalls, append([]string(nil), urls...))
	s.mu.Unlock()
	return s.MemStore.DeleteImages(ctx, urls)
}

func (s *trackingStore) DeleteAllImages(ctx context.Context, model string) error {
	s.mu.Lock()
	s.deleteAllCalls = append(s.deleteAllCalls, model)
	s.mu.Unlock()
	return s.MemStore.DeleteAllImages(ctx, model)
}

func (s *trackingStore) failLists(err error) {
	s.mu.Lock()
	s.listErr = err
	s.mu.Unlock()
}

func TestReloadSortsAndDedupes(t *testing.T) {
	t.Parallel()
	store := &listOnlyStore{urls: []string{
		"snap://bridge/b.jpg",
		"snap://bridge/a.jpg",
		"snap://bridge/a.jpg",
	}}
	c, _ := newTestController(t, store, nil)

	require.NoError(t, c.Reload(context.Background()))
	require.Equal(t, []string{"snap://bridge/a.jpg", "snap://bridge/b.jpg"}, c.Snapshot().Pictures)
}

func TestReloadPublishesEvenWhenEmpty(t *testing.T) {
	t.Parallel()
	c, bus := newTestController(t, imagestore.NewMemStore(imagestore.Options{}), nil)
	events := collect(t, bus, eventbus.EventGalleryReloaded)

	require.NoError(t, c.Reload(context.Background()))
	e := next(t, events).(domain.GalleryReloadedEvent)
	require.Equal(t, "bridge", e.Model)
	require.Zero(t, e.Count)
}

func TestReloadEmptyGalleryExitsSelectionMode(t *testing.T) {
	t.Parallel()
	store := imagestore.NewMemStore(imagestore.Options{})
	urls := seed(t, store, "bridge", "a.gif")
	c, _ := newTestController(t, store, nil)
	ctx := context.Background()

	require.NoError(t, c.Reload(ctx))
	c.ToggleSelectMode()
	c.ToggleSelected(urls[0])
	require.True(t, c.Snapshot().Selecting)

	require.NoError(t, store.DeleteAllImages(ctx, "bridge"))
	require.NoError(t, c.Reload(ctx))

	state := c.Snapshot()
	require.Empty(t, state.Pictures)
	require.Empty(t, state.Selected)
	require.False(t, state.Selecting)
}

func TestReloadKeepsListOnStoreError(t *testing.T) {
	t.Parallel()
	store := &trackingStore{MemStore: imagestore.NewMemStore(imagestore.Options{})}
	urls := seed(t, store, "bridge", "a.gif", "b.gif")
	c, bus := newTestController(t, store, nil)
	ctx := context.Background()

	require.NoError(t, c.Reload(ctx))
	require.Equal(t, urls, c.Snapshot().Pictures)

	errs := collect(t, bus, eventbus.EventError)
	store.failLists(os.ErrPermission)

	err := c.Reload(ctx)
	require.Error(t, err)
	require.Equal(t, urls, c.Snapshot().Pictures)

	e := next(t, errs).(domain.ErrorEvent)
	require.ErrorIs(t, e.Err, os.ErrPermission)
}

func TestStaleReloadNeverCommits(t *testing.T) {
	t.Parallel()
	store := &gateStore{
		MemStore: imagestore.NewMemStore(imagestore.Options{}),
		gate:     make(chan chan []string),
	}
	c, _ := newTestController(t, store, nil)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- c.Reload(ctx) }()
	firstReply := <-store.gate

	second := make(chan error, 1)
	go func() { second <- c.Reload(ctx) }()
	secondReply := <-store.gate

	secondReply <- []string{"snap://bridge/new.gif"}
	require.NoError(t, <-second)
	require.Equal(t, []string{"snap://bridge/new.gif"}, c.Snapshot().Pictures)

	// The older fetch answers last and must be discarded
	firstReply <- []string{"snap://bridge/old.gif"}
	require.NoError(t, <-first)
	require.Equal(t, []string{"snap://bridge/new.gif"}, c.Snapshot().Pictures)
}

func TestCanceledReloadNeverCommits(t *testing.T) {
	t.Parallel()
	store := &gateStore{
		MemStore: imagestore.NewMemStore(imagestore.Options{}),
		gate:     make(chan chan []string),
	}
	c, _ := newTestController(t, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Reload(ctx) }()
	reply := <-store.gate

	cancel()
	reply <- []string{"snap://bridge/late.gif"}

	require.ErrorIs(t, <-done, context.Canceled)
	require.Empty(t, c.Snapshot().Pictures)
}

func TestToggleSelected(t *testing.T) {
	t.Parallel()
	store := imagestore.NewMemStore(imagestore.Options{})
	urls := seed(t, store, "bridge", "a.gif", "b.gif")
	c, bus := newTestController(t, store, nil)
	require.NoError(t, c.Reload(context.Background()))
	events := collect(t, bus, eventbus.EventSelectionChanged)

	c.ToggleSelected(urls[0])
	require.True(t, c.Snapshot().Selected[urls[0]])
	e := next(t, events).(domain.SelectionChangedEvent)
	require.Equal(t, 1, e.Count)

	c.ToggleSelected(urls[0])
	require.False(t, c.Snapshot().Selected[urls[0]])
	e = next(t, events).(domain.SelectionChangedEvent)
	require.Zero(t, e.Count)
}

func TestToggleSelectedIgnoresUnknownURL(t *testing.T) {
	t.Parallel()
	store := imagestore.NewMemStore(imagestore.Options{})
	seed(t, store, "bridge", "a.gif")
	c, _ := newTestController(t, store, nil)
	require.NoError(t, c.Reload(context.Background()))

	c.ToggleSelected("snap://bridge/ghost.gif")
	require.Empty(t, c.Snapshot().Selected)
}

func TestHandleClickTogglesInSelectionMode(t *testing.T) {
	t.Parallel()
	store := imagestore.NewMemStore(imagestore.Options{})
	urls := seed(t, store, "bridge", "a.gif")
	c, bus := newTestController(t, store, nil)
	require.NoError(t, c.Reload(context.Background()))
	opened := collect(t, bus, eventbus.EventPictureOpened)

	c.ToggleSelectMode()
	c.HandleClick(urls[0])
	require.True(t, c.Snapshot().Selected[urls[0]])

	select {
	case e := <-opened:
		t.Fatalf("unexpected open event: %#v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandleClickOpensWhenBrowsing(t *testing.T) {
	t.Parallel()
	store := imagestore.NewMemStore(imagestore.Options{})
	urls := seed(t, store, "bridge", "a.gif")
	c, bus := newTestController(t, store, nil)
	require.NoError(t, c.Reload(context.Background()))
	opened := collect(t, bus, eventbus.EventPictureOpened)

	c.HandleClick(urls[0])

	e := next(t, opened).(domain.PictureOpenedEvent)
	require.Equal(t, urls[0], e.URL)
	require.Empty(t, c.Snapshot().Selected)
}

func TestDeleteOneDeclinedLeavesEverything(t *testing.T) {
	t.Parallel()
	store := &trackingStore{MemStore: imagestore.NewMemStore(imagestore.Options{})}
	urls := seed(t, store, "bridge", "a.gif")
	confirm := &scriptedConfirm{answers: []bool{false}}
	c, _ := newTestController(t, store, confirm)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx))

	require.NoError(t, c.DeleteOne(ctx, urls[0]))
	require.Equal(t, urls, c.Snapshot().Pictures)
	require.Empty(t, store.deleteCalls)

	asked := confirm.requests()
	require.Len(t, asked, 1)
	require.Equal(t, confirmDeleteOneTitle, asked[0].Title)
	require.True(t, asked[0].Destructive)
}

func TestDeleteOneRemovesPicture(t *testing.T) {
	t.Parallel()
	store := imagestore.NewMemStore(imagestore.Options{})
	urls := seed(t, store, "bridge", "a.gif", "b.gif")
	c, bus := newTestController(t, store, nil)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx))
	deleted := collect(t, bus, eventbus.EventPicturesDeleted)

	require.NoError(t, c.DeleteOne(ctx, urls[0]))
	require.Equal(t, urls[1:], c.Snapshot().Pictures)

	e := next(t, deleted).(domain.PicturesDeletedEvent)
	require.Equal(t, []string{urls[0]}, e.URLs)
	require.False(t, e.All)
}

func TestDeleteSelectedSubsetLeavesRemainder(t *testing.T) {
	t.Parallel()
	store := &trackingStore{MemStore: imagestore.NewMemStore(imagestore.Options{})}
	urls := seed(t, store, "bridge", "a.gif", "b.gif", "c.gif")
	confirm := &scriptedConfirm{answers: []bool{true}}
	c, _ := newTestController(t, store, confirm)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx))

	c.ToggleSelectMode()
	c.ToggleSelected(urls[0])
	c.ToggleSelected(urls[1])
	require.NoError(t, c.DeleteSelected(ctx))

	state := c.Snapshot()
	require.Equal(t, []string{urls[2]}, state.Pictures)
	require.Empty(t, state.Selected)
	require.True(t, state.Selecting)

	require.Equal(t, [][]string{{urls[0], urls[1]}}, store.deleteCalls)
	require.Empty(t, store.deleteAllCalls)
	require.Equal(t, confirmDeleteSomeTitle, confirm.requests()[0].Title)
}

func TestDeleteSelectedAllUsesDeleteAll(t *testing.T) {
	t.Parallel()
	store := &trackingStore{MemStore: imagestore.NewMemStore(imagestore.Options{})}
	urls := seed(t, store, "bridge", "a.gif", "b.gif")
	confirm := &scriptedConfirm{answers: []bool{true}}
	c, _ := newTestController(t, store, confirm)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx))

	c.ToggleSelectMode()
	c.ToggleSelected(urls[0])
	c.ToggleSelected(urls[1])
	require.NoError(t, c.DeleteSelected(ctx))

	require.Equal(t, []string{"bridge"}, store.deleteAllCalls)
	require.Empty(t, store.deleteCalls)
	require.Equal(t, confirmDeleteAllTitle, confirm.requests()[0].Title)

	// Deleting the last pictures drops the gallery back to browsing
	state := c.Snapshot()
	require.Empty(t, state.Pictures)
	require.False(t, state.Selecting)
}

func TestDeleteSelectedWithEmptySelectionDoesNothing(t *testing.T) {
	t.Parallel()
	store := &trackingStore{MemStore: imagestore.NewMemStore(imagestore.Options{})}
	seed(t, store, "bridge", "a.gif")
	confirm := &scriptedConfirm{answers: []bool{true}}
	c, _ := newTestController(t, store, confirm)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx))

	require.NoError(t, c.DeleteSelected(ctx))
	require.Empty(t, confirm.requests())
	require.Empty(t, store.deleteCalls)
	require.Empty(t, store.deleteAllCalls)
}

func TestToggleSelectAllTwiceRestoresEmpty(t *testing.T) {
	t.Parallel()
	store := imagestore.NewMemStore(imagestore.Options{})
	urls := seed(t, store, "bridge", "a.gif", "b.gif", "c.gif")
	c, _ := newTestController(t, store, nil)
	require.NoError(t, c.Reload(context.Background()))
	c.ToggleSelectMode()

	c.ToggleSelectAll()
	require.Len(t, c.Snapshot().Selected, len(urls))

	c.ToggleSelectAll()
	require.Empty(t, c.Snapshot().Selected)
}

func TestToggleSelectAllFromPartialSelectsAll(t *testing.T) {
	t.Parallel()
	store := imagestore.NewMemStore(imagestore.Options{})
	urls := seed(t, store, "bridge", "a.gif", "b.gif")
	c, _ := newTestController(t, store, nil)
	require.NoError(t, c.Reload(context.Background()))
	c.ToggleSelectMode()

	c.ToggleSelected(urls[0])
	c.ToggleSelectAll()
	require.Len(t, c.Snapshot().Selected, len(urls))
}

func TestToggleSelectModeNeedsPictures(t *testing.T) {
	t.Parallel()
	c, _ := newTestController(t, imagestore.NewMemStore(imagestore.Options{}), nil)
	require.NoError(t, c.Reload(context.Background()))

	c.ToggleSelectMode()
	require.False(t, c.Snapshot().Selecting)
}

func TestToggleSelectModeExitClearsSelection(t *testing.T) {
	t.Parallel()
	store := imagestore.NewMemStore(imagestore.Options{})
	urls := seed(t, store, "bridge", "a.gif")
	c, _ := newTestController(t, store, nil)
	require.NoError(t, c.Reload(context.Background()))

	c.ToggleSelectMode()
	c.ToggleSelected(urls[0])
	c.ToggleSelectMode()

	state := c.Snapshot()
	require.False(t, state.Selecting)
	require.Empty(t, state.Selected)
}

func TestPickImageReloadsOnSuccess(t *testing.T) {
	t.Parallel()
	photos := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(photos, "pick.gif"), encodeGIF(t), 0o644))
	store := imagestore.NewMemStore(imagestore.Options{PhotosDir: photos})
	c, _ := newTestController(t, store, nil)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx))

	added, err := c.PickImage(ctx, true)
	require.NoError(t, err)
	require.True(t, added)
	require.Equal(t, []string{"snap://bridge/pick.gif"}, c.Snapshot().Pictures)
}

func TestPickImageNoSource(t *testing.T) {
	t.Parallel()
	store := imagestore.NewMemStore(imagestore.Options{PhotosDir: t.TempDir()})
	c, _ := newTestController(t, store, nil)
	ctx := context.Background()

	added, err := c.PickImage(ctx, true)
	require.NoError(t, err)
	require.False(t, added)
}

func TestShareSelectionSharesSelected(t *testing.T) {
	t.Parallel()
	store := imagestore.NewMemStore(imagestore.Options{ShareBaseURL: "http://127.0.0.1:761"})
	urls := seed(t, store, "bridge", "a.gif", "b.gif")
	c, bus := newTestController(t, store, nil)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx))
	ready := collect(t, bus, eventbus.EventShareReady)

	c.ToggleSelectMode()
	c.ToggleSelected(urls[0])
	link, err := c.ShareSelection(ctx, &domain.Rect{X: 1, Y: 2, Width: 3, Height: 4})
	require.NoError(t, err)
	require.Equal(t, 1, link.Count)

	e := next(t, ready).(domain.ShareReadyEvent)
	require.Equal(t, link.Token, e.Link.Token)

	rec, err := store.ResolveShare(ctx, link.Token)
	require.NoError(t, err)
	require.Equal(t, []string{urls[0]}, rec.URLs)
}

func TestShareSelectionDefaultsToAll(t *testing.T) {
	t.Parallel()
	store := imagestore.NewMemStore(imagestore.Options{ShareBaseURL: "http://127.0.0.1:761"})
	seed(t, store, "bridge", "a.gif", "b.gif")
	c, _ := newTestController(t, store, nil)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx))

	link, err := c.ShareSelection(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 2, link.Count)
}

func TestSwitchModelResetsSelection(t *testing.T) {
	t.Parallel()
	store := imagestore.NewMemStore(imagestore.Options{})
	bridge := seed(t, store, "bridge", "a.gif")
	plant := seed(t, store, "plant", "z.gif")
	c, bus := newTestController(t, store, nil)
	ctx := context.Background()
	require.NoError(t, c.Reload(ctx))
	switched := collect(t, bus, eventbus.EventModelSwitched)

	c.ToggleSelectMode()
	c.ToggleSelected(bridge[0])

	require.NoError(t, c.SwitchModel(ctx, "plant"))
	state := c.Snapshot()
	require.Equal(t, "plant", state.Model)
	require.Equal(t, plant, state.Pictures)
	require.Empty(t, state.Selected)
	require.False(t, state.Selecting)

	e := next(t, switched).(domain.ModelSwitchedEvent)
	require.Equal(t, "plant", e.Model)
}

func TestSwitchModelRejectsInvalidID(t *testing.T) {
	t.Parallel()
	c, _ := newTestController(t, imagestore.NewMemStore(imagestore.Options{}), nil)
	err := c.SwitchModel(context.Background(), "_shares")
	require.ErrorIs(t, err, imagestore.ErrInvalidModelID)
}

func TestMarkerAddedTriggersReload(t *testing.T) {
	t.Parallel()
	store := imagestore.NewMemStore(imagestore.Options{})
	c, bus := newTestController(t, store, nil)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	require.Empty(t, c.Snapshot().Pictures)

	urls := seed(t, store, "bridge", "marker-1.gif")
	bus.Publish(domain.MarkerAddedEvent{Model: "bridge", URL: urls[0]})

	require.Eventually(t, func() bool {
		pics := c.Snapshot().Pictures
		return len(pics) == 1 && pics[0] == urls[0]
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMarkerAddedForOtherModelIgnored(t *testing.T) {
	t.Parallel()
	store := imagestore.NewMemStore(imagestore.Options{})
	c, bus := newTestController(t, store, nil)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	seed(t, store, "bridge", "a.gif")
	bus.Publish(domain.MarkerAddedEvent{Model: "plant", URL: "snap://plant/x.gif"})

	time.Sleep(100 * time.Millisecond)
	require.Empty(t, c.Snapshot().Pictures)
}

func TestToggleDecorator(t *testing.T) {
	t.Parallel()
	c, _ := newTestController(t, imagestore.NewMemStore(imagestore.Options{}), nil)
	require.True(t, c.DecoratorEnabled())
	require.False(t, c.ToggleDecorator())
	require.False(t, c.DecoratorEnabled())
	require.True(t, c.ToggleDecorator())
}

func TestCloseStopsCommits(t *testing.T) {
	t.Parallel()
	store := &gateStore{
		MemStore: imagestore.NewMemStore(imagestore.Options{}),
		gate:     make(chan chan []string),
	}
	bus := eventbus.New()
	t.Cleanup(bus.Close)
	c := New(store, bus, marker.NewNotifier(bus, true), ConfirmFunc(yes), "bridge")

	done := make(chan error, 1)
	go func() { done <- c.Reload(context.Background()) }()
	reply := <-store.gate

	c.Close()
	reply <- []string{"snap://bridge/late.gif"}

	require.NoError(t, <-done)
	require.Empty(t, c.Snapshot().Pictures)
	require.ErrorIs(t, c.Reload(context.Background()), ErrClosed)
}
