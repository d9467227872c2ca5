package imagestore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const manifestFile = "library.toml"

const manifestVersion = 1

// Manifest describes the library on disk. It rides along with the bolt index
// so that a library directory is self describing even without opening the db.
type Manifest struct {
	Version int                  `toml:"version"`
	Created time.Time            `toml:"created"`
	Models  map[string]ModelInfo `toml:"models,omitempty"`
}

// ModelInfo holds per model metadata that lives outside the picture index.
type ModelInfo struct {
	Label   string    `toml:"label,omitempty"`
	Updated time.Time `toml:"updated"`
}

func manifestPath(dir string) string {
	return filepath.Join(dir, manifestFile)
}

// LoadManifest reads the library manifest from dir.
func LoadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(manifestPath(dir))
	if err != nil {
		return m, err
	}
	if err := toml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing %s: %w", manifestFile, err)
	}
	if m.Models == nil {
		m.Models = make(map[string]ModelInfo)
	}
	return m, nil
}

func saveManifest(dir string, m Manifest) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", manifestFile, err)
	}
	return os.WriteFile(manifestPath(dir), data, 0o644)
}

// ensureManifest writes a fresh manifest unless one already exists.
func ensureManifest(dir string) error {
	if _, err := os.Stat(manifestPath(dir)); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	m := Manifest{
		Version: manifestVersion,
		Created: time.Now().UTC(),
		Models:  make(map[string]ModelInfo),
	}
	return saveManifest(dir, m)
}

// touchManifest bumps the updated timestamp for a model, creating its entry
// on first use.
func touchManifest(dir, model string) error {
	m, err := LoadManifest(dir)
	if err != nil {
		return err
	}
	info := m.Models[model]
	info.Updated = time.Now().UTC()
	m.Models[model] = info
	return saveManifest(dir, m)
}

// SetModelLabel stores a human readable label for a model.
func SetModelLabel(dir, model, label string) error {
	m, err := LoadManifest(dir)
	if err != nil {
		return err
	}
	info := m.Models[model]
	info.Label = label
	info.Updated = time.Now().UTC()
	m.Models[model] = info
	return saveManifest(dir, m)
}
