package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Library LibraryConfig
	Camera  CameraConfig
	Share   ShareConfig
	Gallery GalleryConfig
}

// LibraryConfig holds image library settings.
type LibraryConfig struct {
	Path string
}

// CameraConfig holds camera inbox importer settings.
type CameraConfig struct {
	Dir            string
	PhotosDir      string        `mapstructure:"photos_dir"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	RemoveImported bool          `mapstructure:"remove_imported"`
}

// ShareConfig holds share server settings.
type ShareConfig struct {
	Enabled bool
	Listen  string
	TTL     time.Duration
}

// GalleryConfig holds gallery presentation settings.
type GalleryConfig struct {
	Model     string
	Decorator bool
}

// Load reads configuration from file and env. Env var overrides use prefix MODELSNAP_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	dataDir := filepath.Join(os.Getenv("HOME"), ".local", "share", "modelsnap")
	v.SetDefault("library.path", filepath.Join(dataDir, "library"))
	v.SetDefault("camera.dir", filepath.Join(dataDir, "camera"))
	v.SetDefault("camera.photos_dir", filepath.Join(os.Getenv("HOME"), "Pictures"))
	v.SetDefault("camera.poll_interval", "2s")
	v.SetDefault("camera.remove_imported", false)
	v.SetDefault("share.enabled", true)
	v.SetDefault("share.listen", "127.0.0.1:761")
	v.SetDefault("share.ttl", "24h")
	v.SetDefault("gallery.model", "")
	v.SetDefault("gallery.decorator", true)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("MODELSNAP_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "modelsnap"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("MODELSNAP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if
// needed. Used by the TUI to persist preferences such as the active model and
// decorator visibility.
func Save(cfg Config) error {
	path := os.Getenv("MODELSNAP_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "modelsnap", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("library.path", cfg.Library.Path)
	v.Set("camera.dir", cfg.Camera.Dir)
	v.Set("camera.photos_dir", cfg.Camera.PhotosDir)
	v.Set("camera.poll_interval", cfg.Camera.PollInterval.String())
	v.Set("camera.remove_imported", cfg.Camera.RemoveImported)
	v.Set("share.enabled", cfg.Share.Enabled)
	v.Set("share.listen", cfg.Share.Listen)
	v.Set("share.ttl", cfg.Share.TTL.String())
	v.Set("gallery.model", cfg.Gallery.Model)
	v.Set("gallery.decorator", cfg.Gallery.Decorator)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
