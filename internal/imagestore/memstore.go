package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"modelsnap/internal/domain"
)

// MemStore is an in-memory Store. It backs the ":memory:" library and the
// test suites, with the same semantics as the bolt store but nothing on disk.
type MemStore struct {
	mu     sync.RWMutex
	models map[string]map[string]memPicture
	shares map[string]ShareRecord
	opts   Options
}

type memPicture struct {
	pic  domain.Picture
	data []byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(opts Options) *MemStore {
	return &MemStore{
		models: make(map[string]map[string]memPicture),
		shares: make(map[string]ShareRecord),
		opts:   opts,
	}
}

func (s *MemStore) Close() error { return nil }

func (s *MemStore) ListImages(ctx context.Context, model string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	urls := make([]string, 0, len(s.models[model]))
	for name := range s.models[model] {
		urls = append(urls, domain.BuildURL(model, name))
	}
	sort.Strings(urls)
	return urls, nil
}

func (s *MemStore) AddImage(ctx context.Context, model, name string, r io.Reader, origin domain.PictureOrigin) (domain.Picture, error) {
	if err := ctx.Err(); err != nil {
		return domain.Picture{}, err
	}
	if !domain.ValidModelID(model) {
		return domain.Picture{}, ErrInvalidModelID
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Picture{}, fmt.Errorf("reading image: %w", err)
	}
	name = ensureName(name, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	pics := s.models[model]
	if pics == nil {
		pics = make(map[string]memPicture)
		s.models[model] = pics
	}
	if _, taken := pics[name]; taken {
		name = dedupeName(name)
	}
	pic, err := buildPicture(model, name, data, origin)
	if err != nil {
		return domain.Picture{}, err
	}
	pics[name] = memPicture{pic: pic, data: data}
	return pic, nil
}

func (s *MemStore) GetImage(ctx context.Context, url string) (domain.Picture, error) {
	if err := ctx.Err(); err != nil {
		return domain.Picture{}, err
	}
	model, name, err := domain.ParseURL(url)
	if err != nil {
		return domain.Picture{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	pics, ok := s.models[model]
	if !ok {
		return domain.Picture{}, ErrModelNotFound
	}
	p, ok := pics[name]
	if !ok {
		return domain.Picture{}, ErrPictureNotFound
	}
	return p.pic, nil
}

func (s *MemStore) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model, name, err := domain.ParseURL(url)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.models[model][name]
	if !ok {
		return nil, ErrPictureNotFound
	}
	return io.NopCloser(bytes.NewReader(p.data)), nil
}

func (s *MemStore) DeleteImages(ctx context.Context, urls []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, url := range urls {
		model, name, err := domain.ParseURL(url)
		if err != nil {
			return err
		}
		pics, ok := s.models[model]
		if !ok {
			return ErrModelNotFound
		}
		delete(pics, name)
	}
	return nil
}

func (s *MemStore) DeleteAllImages(ctx context.Context, model string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.models, model)
	return nil
}

func (s *MemStore) ShareImages(ctx context.Context, urls []string, anchor *domain.Rect) (domain.ShareLink, error) {
	if err := ctx.Err(); err != nil {
		return domain.ShareLink{}, err
	}
	if s.opts.ShareBaseURL == "" {
		return domain.ShareLink{}, ErrShareDisabled
	}
	if len(urls) == 0 {
		return domain.ShareLink{}, fmt.Errorf("nothing to share")
	}

	rec := ShareRecord{
		Token:   uuid.NewString(),
		URLs:    append([]string(nil), urls...),
		Created: time.Now().UTC(),
	}
	rec.Expires = rec.Created.Add(s.opts.shareTTL())
	if anchor != nil {
		rec.Anchor = *anchor
	}
	for _, url := range urls {
		model, _, err := domain.ParseURL(url)
		if err != nil {
			return domain.ShareLink{}, err
		}
		if rec.Model == "" {
			rec.Model = model
		} else if rec.Model != model {
			return domain.ShareLink{}, fmt.Errorf("cannot share across models %q and %q", rec.Model, model)
		}
		if _, err := s.GetImage(ctx, url); err != nil {
			return domain.ShareLink{}, err
		}
	}

	s.mu.Lock()
	s.shares[rec.Token] = rec
	s.mu.Unlock()

	return domain.ShareLink{
		URL:     s.opts.ShareBaseURL + "/s/" + rec.Token + "/",
		Token:   rec.Token,
		Count:   len(urls),
		Expires: rec.Expires,
	}, nil
}

func (s *MemStore) ResolveShare(ctx context.Context, token string) (ShareRecord, error) {
	if err := ctx.Err(); err != nil {
		return ShareRecord{}, err
	}
	s.mu.RLock()
	rec, ok := s.shares[token]
	s.mu.RUnlock()
	if !ok || time.Now().After(rec.Expires) {
		return ShareRecord{}, ErrShareNotFound
	}
	return rec, nil
}

func (s *MemStore) PickImage(ctx context.Context, model string, fromLibrary bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if fromLibrary {
		return pickFrom(ctx, s, s.opts.PhotosDir, model, domain.OriginLibrary)
	}
	return pickFrom(ctx, s, s.opts.CameraDir, model, domain.OriginCamera)
}

func (s *MemStore) Models(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	models := make([]string, 0, len(s.models))
	for id := range s.models {
		models = append(models, id)
	}
	sort.Strings(models)
	return models, nil
}
