// Package share serves minted share links over HTTP and accepts picture
// captures from companion devices.
package share

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"

	"modelsnap/internal/domain"
	"modelsnap/internal/imagestore"
	"modelsnap/internal/marker"
)

const (
	defaultMaxMemory = 32 << 20 // 32 MB
	maxUploadSize    = 50 << 20 // 50 MB
	captureFormFile  = "picture"
)

var shareTmpl = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html>
<head><title>Pictures of {{.Model}}</title></head>
<body>
<h1>{{.Model}}</h1>
{{range .Names}}<p><img src="{{.}}" alt="{{.}}" style="max-width:100%"></p>
{{end}}</body>
</html>
`))

// Server exposes share links and the capture endpoint.
type Server struct {
	store   imagestore.Store
	markers *marker.Notifier
}

// NewServer creates a share server on top of the given store.
func NewServer(store imagestore.Store, markers *marker.Notifier) *Server {
	return &Server{store: store, markers: markers}
}

// Router builds the HTTP routes. Exposed separately so tests can drive the
// server through httptest.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	}).Methods("GET")
	r.HandleFunc("/s/{token}/", s.handleShareIndex).Methods("GET")
	r.HandleFunc("/s/{token}/{name}", s.handleShareImage).Methods("GET")
	r.HandleFunc("/capture/{model}", s.handleCapture).Methods("POST")
	return r
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, listen string) error {
	srv := &http.Server{
		Addr:    listen,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Share server listening on %s", listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleShareIndex(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	rec, err := s.store.ResolveShare(r.Context(), token)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	names := make([]string, 0, len(rec.URLs))
	for _, url := range rec.URLs {
		_, name, err := domain.ParseURL(url)
		if err != nil {
			continue
		}
		names = append(names, name)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Model string
		Names []string
	}{Model: rec.Model, Names: names}
	if err := shareTmpl.Execute(w, data); err != nil {
		log.Printf("Failed to render share page: %v", err)
	}
}

func (s *Server) handleShareImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rec, err := s.store.ResolveShare(r.Context(), vars["token"])
	if err != nil {
		http.NotFound(w, r)
		return
	}

	// Only pictures covered by the share are reachable through its token
	url := domain.BuildURL(rec.Model, vars["name"])
	shared := false
	for _, u := range rec.URLs {
		if u == url {
			shared = true
			break
		}
	}
	if !shared {
		http.NotFound(w, r)
		return
	}

	rc, err := s.store.Open(r.Context(), url)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(filepath.Ext(vars["name"])); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if _, err := io.Copy(w, rc); err != nil {
		log.Printf("Failed to serve shared image %s: %v", url, err)
	}
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	model := mux.Vars(r)["model"]

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	file, handler, err := r.FormFile(captureFormFile)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	pic, err := s.store.AddImage(r.Context(), model, handler.Filename, file, domain.OriginUpload)
	if err != nil {
		switch {
		case errors.Is(err, imagestore.ErrInvalidModelID):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, imagestore.ErrNotImage):
			http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	s.markers.NotifyAdded(model, pic.URL)
	log.Printf("Captured %s (%d bytes) for model %s", pic.Name, pic.Size, model)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(pic); err != nil {
		log.Printf("Failed to encode capture response: %v", err)
	}
}
