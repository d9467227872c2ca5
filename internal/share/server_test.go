package share

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color/palette"
	"image/gif"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
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

func newTestServer(t *testing.T) (*httptest.Server, *imagestore.MemStore, eventbus.EventBus) {
	t.Helper()
	bus := eventbus.New()
	t.Cleanup(bus.Close)
	store := imagestore.NewMemStore(imagestore.Options{ShareBaseURL: "http://127.0.0.1:761"})
	srv := httptest.NewServer(NewServer(store, marker.NewNotifier(bus, true)).Router())
	t.Cleanup(srv.Close)
	return srv, store, bus
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCaptureStoresPicture(t *testing.T) {
	t.Parallel()
	srv, store, bus := newTestServer(t)
	added := make(chan eventbus.DomainEvent, 1)
	bus.Subscribe(eventbus.EventMarkerAdded, func(e eventbus.DomainEvent) { added <- e })

	data := encodeGIF(t)
	body, contentType := multipartBody(t, "picture", "site.gif", data)
	resp, err := http.Post(srv.URL+"/capture/bridge", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var pic domain.Picture
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pic))
	require.Equal(t, "snap://bridge/site.gif", pic.URL)
	require.Equal(t, domain.OriginUpload, pic.Origin)

	urls, err := store.ListImages(context.Background(), "bridge")
	require.NoError(t, err)
	require.Equal(t, []string{"snap://bridge/site.gif"}, urls)

	select {
	case e := <-added:
		require.Equal(t, pic.URL, e.(domain.MarkerAddedEvent).URL)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for marker event")
	}
}

func TestCaptureRejectsNonImage(t *testing.T) {
	t.Parallel()
	srv, _, _ := newTestServer(t)

	body, contentType := multipartBody(t, "picture", "notes.txt", []byte("plain text"))
	resp, err := http.Post(srv.URL+"/capture/bridge", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestCaptureRejectsInvalidModel(t *testing.T) {
	t.Parallel()
	srv, _, _ := newTestServer(t)

	body, contentType := multipartBody(t, "picture", "a.gif", encodeGIF(t))
	resp, err := http.Post(srv.URL+"/capture/_shares", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCaptureRequiresPictureField(t *testing.T) {
	t.Parallel()
	srv, _, _ := newTestServer(t)

	body, contentType := multipartBody(t, "wrongfield", "a.gif", encodeGIF(t))
	resp, err := http.Post(srv.URL+"/capture/bridge", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestShareServing(t *testing.T) {
	t.Parallel()
	srv, store, _ := newTestServer(t)
	ctx := context.Background()

	data := encodeGIF(t)
	shared, err := store.AddImage(ctx, "bridge", "shared.gif", bytes.NewReader(data), domain.OriginUpload)
	require.NoError(t, err)
	_, err = store.AddImage(ctx, "bridge", "private.gif", bytes.NewReader(encodeGIF(t)), domain.OriginUpload)
	require.NoError(t, err)

	link, err := store.ShareImages(ctx, []string{shared.URL}, nil)
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/s/" + link.Token + "/")
	require.NoError(t, err)
	page, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(page), "shared.gif")
	require.NotContains(t, string(page), "private.gif")

	resp, err = http.Get(srv.URL + "/s/" + link.Token + "/shared.gif")
	require.NoError(t, err)
	got, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, data, got)

	// Pictures outside of the share are not reachable through its token
	resp, err = http.Get(srv.URL + "/s/" + link.Token + "/private.gif")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/s/bogus-token/")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	t.Parallel()
	bus := eventbus.New()
	t.Cleanup(bus.Close)
	store := imagestore.NewMemStore(imagestore.Options{})
	s := NewServer(store, marker.NewNotifier(bus, true))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
