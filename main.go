package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"modelsnap/internal/config"
	"modelsnap/internal/domain"
	"modelsnap/internal/eventbus"
	"modelsnap/internal/gallery"
	"modelsnap/internal/imagestore"
	"modelsnap/internal/importer"
	"modelsnap/internal/marker"
	"modelsnap/internal/share"
	"modelsnap/internal/ui"
)

func main() {
	// Parse command line arguments
	var libraryDir string
	var model string
	flag.StringVar(&libraryDir, "library", "", "Image library directory (overrides config)")
	flag.StringVar(&libraryDir, "l", "", "Image library directory (shorthand)")
	flag.StringVar(&model, "model", "", "Model to open (overrides config)")
	flag.StringVar(&model, "m", "", "Model to open (shorthand)")
	flag.Parse()

	// A bare positional argument names the model to open
	if model == "" && flag.NArg() > 0 {
		model = flag.Arg(0)
	}

	// Set up logging
	logFile, err := os.OpenFile(ui.LogFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Could not open log file: %v", err)
	} else {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if libraryDir != "" {
		cfg.Library.Path = libraryDir
	}
	if model != "" {
		cfg.Gallery.Model = model
	}
	if cfg.Gallery.Model == "" {
		cfg.Gallery.Model = "default"
	}
	if !domain.ValidModelID(cfg.Gallery.Model) {
		fmt.Printf("Invalid model id: %s\n", cfg.Gallery.Model)
		os.Exit(1)
	}

	// Create event bus
	bus := eventbus.New()

	// Open the image store
	opts := imagestore.Options{
		ShareTTL:  cfg.Share.TTL,
		PhotosDir: cfg.Camera.PhotosDir,
		CameraDir: cfg.Camera.Dir,
	}
	if cfg.Share.Enabled {
		opts.ShareBaseURL = "http://" + cfg.Share.Listen
	}

	var store imagestore.Store
	if cfg.Library.Path == ":memory:" {
		store = imagestore.NewMemStore(opts)
	} else {
		store, err = imagestore.NewStore(cfg.Library.Path, opts)
		if err != nil {
			fmt.Printf("Error opening library at %s: %v\n", cfg.Library.Path, err)
			os.Exit(1)
		}
	}

	// Marker notifier carries decorator visibility
	markers := marker.NewNotifier(bus, cfg.Gallery.Decorator)

	// Gallery controller asks for confirmation through the UI dialog
	confirmer := ui.NewModalConfirmer(bus)
	ctrl := gallery.New(store, bus, markers, confirmer, cfg.Gallery.Model)
	if err := ctrl.Start(ctx); err != nil {
		log.Printf("Initial load failed: %v", err)
	}

	// Camera inbox importer
	imp := importer.NewService(bus, store, markers, ctrl.Model, cfg.Camera)
	if err := imp.Start(ctx); err != nil {
		log.Printf("Camera importer not started: %v", err)
	}

	// Share server
	if cfg.Share.Enabled {
		srv := share.NewServer(store, markers)
		go func() {
			if err := srv.Run(ctx, cfg.Share.Listen); err != nil {
				log.Printf("Share server stopped: %v", err)
			}
		}()
	}

	// Create UI model
	log.Printf("Creating UI model...")
	uiModel := ui.NewModel(ctx, bus, &cfg, ctrl, store)

	// Create Bubble Tea program
	p := tea.NewProgram(uiModel, tea.WithAltScreen())
	uiModel.SetProgram(p)

	// Forward domain events to the UI through a buffered channel so a burst
	// can never block a publisher
	eventChan := make(chan eventbus.DomainEvent, 100)
	forward := func(e eventbus.DomainEvent) {
		select {
		case eventChan <- e:
		default:
			log.Println("Event channel full, dropping event")
		}
	}
	for _, t := range []eventbus.EventType{
		eventbus.EventGalleryReloaded,
		eventbus.EventSelectionChanged,
		eventbus.EventPictureOpened,
		eventbus.EventPicturesDeleted,
		eventbus.EventMarkerAdded,
		eventbus.EventDecoratorToggled,
		eventbus.EventConfirmRequested,
		eventbus.EventShareReady,
		eventbus.EventImportStarted,
		eventbus.EventImportCompleted,
		eventbus.EventModelSwitched,
		eventbus.EventError,
	} {
		bus.Subscribe(t, forward)
	}

	// The channel stays open for stragglers; the goroutine dies with the
	// process
	go func() {
		for event := range eventChan {
			p.Send(ui.EventMsg{Event: event})
		}
	}()

	// Run the UI
	log.Printf("Starting UI...")
	if _, err := p.Run(); err != nil {
		log.Printf("Error running program: %v", err)
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
	log.Printf("UI exited normally")

	// Cleanup
	cancel()
	ctrl.Close()
	imp.Stop()
	if err := store.Close(); err != nil {
		log.Printf("Error closing store: %v", err)
	}
	bus.Close()
}
