package views

import (
	"testing"

	"github.com/stretchr/testify/require"

	"modelsnap/internal/domain"
)

func render(pic domain.Picture, selecting, selected, decoratorOn bool) string {
	r := NewPictureRenderer(NewStyles())
	return r.RenderPicture(pic, false, selecting, selected, "", decoratorOn)
}

func TestRenderPictureMarkerPin(t *testing.T) {
	t.Parallel()
	marker := domain.Picture{URL: "snap://bridge/m.gif", Name: "m.gif", Origin: domain.OriginMarker}
	upload := domain.Picture{URL: "snap://bridge/u.gif", Name: "u.gif", Origin: domain.OriginUpload}

	require.Contains(t, render(marker, false, false, true), "◈")
	require.NotContains(t, render(marker, false, false, false), "◈")
	require.NotContains(t, render(upload, false, false, true), "◈")
}

func TestRenderPictureCheckbox(t *testing.T) {
	t.Parallel()
	pic := domain.Picture{URL: "snap://bridge/a.gif", Name: "a.gif", Origin: domain.OriginLibrary}

	require.Contains(t, render(pic, true, true, false), "[x]")
	require.Contains(t, render(pic, true, false, false), "[ ]")

	browsing := render(pic, false, false, false)
	require.NotContains(t, browsing, "[x]")
	require.NotContains(t, browsing, "[ ]")
}

func TestRenderPictureMeta(t *testing.T) {
	t.Parallel()
	pic := domain.Picture{
		URL:    "snap://bridge/a.gif",
		Name:   "a.gif",
		Origin: domain.OriginCamera,
		Width:  640,
		Height: 480,
		Size:   2048,
	}

	line := render(pic, false, false, false)
	require.Contains(t, line, "640x480")
	require.Contains(t, line, "2.0KB")
}

func TestFormatSize(t *testing.T) {
	t.Parallel()
	require.Equal(t, "512B", formatSize(512))
	require.Equal(t, "1.5KB", formatSize(1536))
	require.Equal(t, "3.0MB", formatSize(3<<20))
}

func TestRenderNoPicturesHint(t *testing.T) {
	t.Parallel()
	r := NewRenderer()
	out := r.Render(ViewState{Width: 80, Height: 24, Model: "bridge", ViewportHeight: 10})
	require.Contains(t, out, "No pictures yet")
}

func TestRenderSelectionIndicator(t *testing.T) {
	t.Parallel()
	r := NewRenderer()
	vs := ViewState{
		Width:          80,
		Height:         24,
		Model:          "bridge",
		ViewportHeight: 10,
		Selecting:      true,
		Selected:       map[string]bool{"snap://bridge/a.gif": true},
		Pictures: []domain.Picture{
			{URL: "snap://bridge/a.gif", Name: "a.gif", Origin: domain.OriginLibrary},
			{URL: "snap://bridge/b.gif", Name: "b.gif", Origin: domain.OriginLibrary},
		},
	}
	out := r.Render(vs)
	require.Contains(t, out, "SELECT 1/2")
}

func TestRenderConfirmOverlay(t *testing.T) {
	t.Parallel()
	r := NewRenderer()
	vs := ViewState{
		Width:          80,
		Height:         24,
		Model:          "bridge",
		ViewportHeight: 10,
		ConfirmText:    "Delete picture\n\nAre you sure you want to delete this picture?",
	}
	out := r.Render(vs)
	require.Contains(t, out, "Delete picture")
	require.Contains(t, out, "y: yes")

	// The bottom help hint is hidden while the dialog is up
	require.NotContains(t, out, "Press ? for help")
}
