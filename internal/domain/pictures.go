package domain

import (
	"fmt"
	"strings"
	"time"
)

// URLScheme is the scheme used for canonical picture URLs.
const URLScheme = "snap://"

// PictureOrigin describes how a picture entered the library.
type PictureOrigin string

const (
	OriginCamera  PictureOrigin = "camera"
	OriginLibrary PictureOrigin = "library"
	OriginMarker  PictureOrigin = "marker"
	OriginUpload  PictureOrigin = "upload"
)

// Picture represents a snapshot image stored in the library
type Picture struct {
	URL    string        `json:"url"`
	Model  string        `json:"model"`
	Name   string        `json:"name"`
	Hash   string        `json:"hash"` // sha256 of the image bytes
	Size   int64         `json:"size"`
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Origin PictureOrigin `json:"origin"`
	Added  time.Time     `json:"added"`
}

// Rect is an anchor rectangle hint for share popovers
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ShareLink is the result of sharing a set of pictures
type ShareLink struct {
	URL     string    `json:"url"`
	Token   string    `json:"token"`
	Count   int       `json:"count"`
	Expires time.Time `json:"expires"`
}

// BuildURL returns the canonical URL for a picture name within a model
func BuildURL(model, name string) string {
	return URLScheme + model + "/" + name
}

// ParseURL splits a canonical picture URL into model ID and picture name
func ParseURL(url string) (model, name string, err error) {
	rest, ok := strings.CutPrefix(url, URLScheme)
	if !ok {
		return "", "", fmt.Errorf("not a picture URL: %q", url)
	}
	model, name, ok = strings.Cut(rest, "/")
	if !ok || model == "" || name == "" {
		return "", "", fmt.Errorf("malformed picture URL: %q", url)
	}
	return model, name, nil
}

// ValidModelID reports whether the given string can be used as a model ID.
// Leading underscores are reserved for internal buckets and slashes would
// break the URL scheme.
func ValidModelID(id string) bool {
	if id == "" || strings.HasPrefix(id, "_") {
		return false
	}
	return !strings.ContainsAny(id, "/\\")
}

// ConfirmRequest describes a confirmation dialog shown before an operation
type ConfirmRequest struct {
	Title       string
	Message     string
	Destructive bool
}
