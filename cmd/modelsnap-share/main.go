package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"modelsnap/internal/config"
	"modelsnap/internal/eventbus"
	"modelsnap/internal/imagestore"
	"modelsnap/internal/marker"
	"modelsnap/internal/share"
)

// Headless share server. Serves share links and the capture endpoint for an
// existing library without starting the TUI.
func main() {
	var libraryDir string
	var listen string
	flag.StringVar(&libraryDir, "library", "", "Image library directory (overrides config)")
	flag.StringVar(&listen, "listen", "", "Listen address (overrides config)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if libraryDir != "" {
		cfg.Library.Path = libraryDir
	}
	if listen != "" {
		cfg.Share.Listen = listen
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

	// Open the image store
	opts := imagestore.Options{
		ShareBaseURL: "http://" + cfg.Share.Listen,
		ShareTTL:     cfg.Share.TTL,
		PhotosDir:    cfg.Camera.PhotosDir,
		CameraDir:    cfg.Camera.Dir,
	}
	store, err := imagestore.NewStore(cfg.Library.Path, opts)
	if err != nil {
		fmt.Printf("Error opening library at %s: %v\n", cfg.Library.Path, err)
		os.Exit(1)
	}
	defer store.Close()

	// Captures posted to this server notify any gallery watching the bus of
	// the same library; standalone there is simply nobody listening
	bus := eventbus.New()
	defer bus.Close()
	markers := marker.NewNotifier(bus, cfg.Gallery.Decorator)

	log.Printf("Serving library %s on %s", cfg.Library.Path, cfg.Share.Listen)
	srv := share.NewServer(store, markers)
	if err := srv.Run(ctx, cfg.Share.Listen); err != nil {
		fmt.Printf("Share server failed: %v\n", err)
		os.Exit(1)
	}
}
