package imagestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Register decoders for dimension probing.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"

	"modelsnap/internal/domain"
)

var (
	ErrModelNotFound   = errors.New("model not found")
	ErrPictureNotFound = errors.New("picture not found")
	ErrInvalidModelID  = errors.New("invalid model ID")
	ErrNotImage        = errors.New("data is not an image")
	ErrShareDisabled   = errors.New("sharing is not configured")
	ErrShareNotFound   = errors.New("share link not found or expired")
)

// Store is the persistence contract the gallery controller works against.
type Store interface {
	// ListImages returns the picture URLs stored for a model. A model with
	// no pictures yields an empty list, not an error.
	ListImages(ctx context.Context, model string) ([]string, error)

	// AddImage stores image bytes under the model and returns the picture
	// record. An empty name or a name collision gets a generated name.
	AddImage(ctx context.Context, model, name string, r io.Reader, origin domain.PictureOrigin) (domain.Picture, error)

	// GetImage returns the picture record for a canonical URL.
	GetImage(ctx context.Context, url string) (domain.Picture, error)

	// Open returns a reader over the image bytes for a canonical URL.
	Open(ctx context.Context, url string) (io.ReadCloser, error)

	// DeleteImages removes the given pictures.
	DeleteImages(ctx context.Context, urls []string) error

	// DeleteAllImages drops every picture of a model in one operation.
	// Deleting a model that holds nothing is a no-op.
	DeleteAllImages(ctx context.Context, model string) error

	// ShareImages mints a share link for the given pictures. The anchor is
	// a placement hint recorded for clients that render popovers.
	ShareImages(ctx context.Context, urls []string, anchor *domain.Rect) (domain.ShareLink, error)

	// ResolveShare looks up an unexpired share record by token.
	ResolveShare(ctx context.Context, token string) (ShareRecord, error)

	// PickImage imports the most recent image from the photo library or the
	// camera capture directory. Returns false when there was nothing to pick.
	PickImage(ctx context.Context, model string, fromLibrary bool) (bool, error)

	// Models lists the model IDs that currently hold pictures.
	Models(ctx context.Context) ([]string, error)

	Close() error
}

// ShareRecord is the stored form of a minted share link
type ShareRecord struct {
	Token   string      `json:"token"`
	Model   string      `json:"model"`
	URLs    []string    `json:"urls"`
	Anchor  domain.Rect `json:"anchor"`
	Created time.Time   `json:"created"`
	Expires time.Time   `json:"expires"`
}

// Options configures a store beyond its storage location.
type Options struct {
	// ShareBaseURL is the externally reachable prefix for share links,
	// e.g. "http://127.0.0.1:761". Empty disables ShareImages.
	ShareBaseURL string
	// ShareTTL bounds share link lifetime. Zero means 24h.
	ShareTTL time.Duration
	// PhotosDir is the picking source for PickImage(fromLibrary=true).
	PhotosDir string
	// CameraDir is the picking source for PickImage(fromLibrary=false).
	CameraDir string
}

func (o Options) shareTTL() time.Duration {
	if o.ShareTTL <= 0 {
		return 24 * time.Hour
	}
	return o.ShareTTL
}

// IsImageFile reports whether the file name carries a supported image extension
func IsImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}

// buildPicture assembles a picture record from raw bytes, probing dimensions
// when a decoder is available.
func buildPicture(model, name string, data []byte, origin domain.PictureOrigin) (domain.Picture, error) {
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return domain.Picture{}, ErrNotImage
	}

	sum := sha256.Sum256(data)
	p := domain.Picture{
		URL:    domain.BuildURL(model, name),
		Model:  model,
		Name:   name,
		Hash:   hex.EncodeToString(sum[:]),
		Size:   int64(len(data)),
		Origin: origin,
		Added:  time.Now().UTC(),
	}

	// Dimensions stay zero for formats without a registered decoder
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		p.Width = cfg.Width
		p.Height = cfg.Height
	}
	return p, nil
}

// ensureName returns a usable picture name, generating one when the caller
// supplied none.
func ensureName(name string, data []byte) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name != "" && name != "." && name != string(filepath.Separator) {
		return name
	}
	ext := ".jpg"
	switch http.DetectContentType(data) {
	case "image/png":
		ext = ".png"
	case "image/gif":
		ext = ".gif"
	}
	return "snap-" + uuid.NewString()[:8] + ext
}

// dedupeName prefixes a short random ID when the name is already taken.
func dedupeName(name string) string {
	return uuid.NewString()[:8] + "-" + name
}

// newestImageIn returns the path of the most recently modified image file in
// dir. Empty string when the directory holds none or does not exist.
func newestImageIn(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(dir, e.Name())
			newestMod = info.ModTime()
		}
	}
	return newest, nil
}

// pickFrom imports the newest image file of dir into the store.
func pickFrom(ctx context.Context, s Store, dir, model string, origin domain.PictureOrigin) (bool, error) {
	path, err := newestImageIn(dir)
	if err != nil {
		return false, err
	}
	if path == "" {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	if _, err := s.AddImage(ctx, model, filepath.Base(path), f, origin); err != nil {
		return false, err
	}
	return true, nil
}
