// Package importer feeds externally captured pictures from the camera inbox
// directory into the image library.
package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"modelsnap/internal/config"
	"modelsnap/internal/domain"
	"modelsnap/internal/eventbus"
	"modelsnap/internal/imagestore"
	"modelsnap/internal/marker"
)

// Service watches the camera inbox for new image files
type Service interface {
	Start(ctx context.Context) error
	Sweep(ctx context.Context) (int, error)
	Stop()
}

// service is the concrete implementation
type service struct {
	bus     eventbus.EventBus
	store   imagestore.Store
	markers *marker.Notifier
	model   func() string

	dir      string
	interval time.Duration
	remove   bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	seen    map[string]time.Time
	wg      sync.WaitGroup
}

type inboxFile struct {
	path string
	mod  time.Time
}

// NewService creates an importer for the configured camera inbox. The model
// callback names the model new pictures are filed under.
func NewService(bus eventbus.EventBus, store imagestore.Store, markers *marker.Notifier, model func() string, cfg config.CameraConfig) Service {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &service{
		bus:      bus,
		store:    store,
		markers:  markers,
		model:    model,
		dir:      cfg.Dir,
		interval: interval,
		remove:   cfg.RemoveImported,
		seen:     make(map[string]time.Time),
	}
}

// Start begins polling the inbox. Files already present are treated as
// handled; only files appearing afterwards get imported.
func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("importer already running")
	}
	s.running = true
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.prime(runCtx)
	s.bus.Publish(domain.ImportStartedEvent{Dir: s.dir})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.running = false
			s.cancel = nil
			s.mu.Unlock()
		}()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if _, err := s.Sweep(runCtx); err != nil && runCtx.Err() == nil {
					log.Printf("Camera inbox sweep failed: %v", err)
				}
			}
		}
	}()

	return nil
}

// Stop cancels polling and waits for the sweep loop to exit.
func (s *service) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// prime marks everything currently in the inbox as seen.
func (s *service) prime(ctx context.Context) {
	files, err := s.collect(ctx)
	if err != nil {
		log.Printf("Failed to prime camera inbox: %v", err)
		return
	}
	s.mu.Lock()
	for _, f := range files {
		s.seen[f.path] = f.mod
	}
	s.mu.Unlock()
}

// Sweep imports every unseen image file from the inbox into the active
// model. Returns how many pictures were imported.
func (s *service) Sweep(ctx context.Context) (int, error) {
	model := s.model()
	if model == "" {
		// No model open, leave the files for a later sweep
		return 0, nil
	}

	files, err := s.collect(ctx)
	if err != nil {
		s.bus.Publish(domain.ErrorEvent{
			Message: fmt.Sprintf("Failed to scan %s", s.dir),
			Err:     err,
		})
		return 0, err
	}

	imported := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return imported, err
		}
		pic, err := s.importFile(ctx, model, f.path)
		s.markSeen(f)
		if err != nil {
			log.Printf("Failed to import %s: %v", f.path, err)
			continue
		}
		imported++
		s.markers.NotifyAdded(model, pic.URL)
		if s.remove {
			if err := os.Remove(f.path); err != nil {
				log.Printf("Failed to remove imported file %s: %v", f.path, err)
			}
		}
	}

	if imported > 0 {
		s.bus.Publish(domain.ImportCompletedEvent{Model: model, Imported: imported})
	}
	return imported, nil
}

func (s *service) importFile(ctx context.Context, model, path string) (domain.Picture, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Picture{}, err
	}
	defer f.Close()
	return s.store.AddImage(ctx, model, filepath.Base(path), f, domain.OriginCamera)
}

// markSeen remembers a file by path and modtime. A rewritten file shows up
// again with a newer modtime and gets another import attempt.
func (s *service) markSeen(f inboxFile) {
	s.mu.Lock()
	s.seen[f.path] = f.mod
	s.mu.Unlock()
}

// collect walks the inbox and returns the image files not seen yet. A
// missing inbox directory reads as an empty one.
func (s *service) collect(ctx context.Context) ([]inboxFile, error) {
	var files []inboxFile
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == s.dir {
				return filepath.SkipAll
			}
			log.Printf("Error walking path %s: %v", path, err)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() {
			if path != s.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !imagestore.IsImageFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		s.mu.Lock()
		prev, ok := s.seen[path]
		s.mu.Unlock()
		if ok && prev.Equal(info.ModTime()) {
			return nil
		}
		files = append(files, inboxFile{path: path, mod: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
