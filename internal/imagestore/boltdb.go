package imagestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"

	"modelsnap/internal/domain"
)

// Reserved bucket names start with an underscore so they can never collide
// with a model ID (see domain.ValidModelID).
const sharesBucket = "_shares"

const (
	indexFile = "index.db"
	blobsDir  = "blobs"
)

// boltStore keeps picture records in a bolt index with one bucket per model
// and the image bytes as plain files under blobs/<model>/<name>.
type boltStore struct {
	db   *bolt.DB
	dir  string
	opts Options
}

// openBolt creates and opens a bolt database at the given path. If the file
// does not exist then it will be created automatically.
func openBolt(file string) (*bolt.DB, error) {
	db, err := bolt.Open(file, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt file: %w", err)
	}
	return db, nil
}

// NewStore opens (or initializes) an image library rooted at dir and returns
// a Store backed by it.
func NewStore(dir string, opts Options) (Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, blobsDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating library dir: %w", err)
	}
	db, err := openBolt(filepath.Join(dir, indexFile))
	if err != nil {
		return nil, err
	}
	s := &boltStore{db: db, dir: dir, opts: opts}
	if err := ensureManifest(dir); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *boltStore) Close() error {
	return s.db.Close()
}

func (s *boltStore) blobPath(model, name string) string {
	return filepath.Join(s.dir, blobsDir, model, name)
}

func (s *boltStore) ListImages(ctx context.Context, model string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	urls := make([]string, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(model))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			urls = append(urls, domain.BuildURL(model, string(k)))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return urls, nil
}

func (s *boltStore) AddImage(ctx context.Context, model, name string, r io.Reader, origin domain.PictureOrigin) (domain.Picture, error) {
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

	var pic domain.Picture
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(model))
		if err != nil {
			return err
		}
		if b.Get([]byte(name)) != nil {
			name = dedupeName(name)
		}
		pic, err = buildPicture(model, name, data, origin)
		if err != nil {
			return err
		}
		return put(b, []byte(name), pic)
	})
	if err != nil {
		return domain.Picture{}, err
	}

	if err := os.MkdirAll(filepath.Dir(s.blobPath(model, name)), 0o755); err != nil {
		return domain.Picture{}, fmt.Errorf("creating blob dir: %w", err)
	}
	if err := os.WriteFile(s.blobPath(model, name), data, 0o644); err != nil {
		return domain.Picture{}, fmt.Errorf("writing blob: %w", err)
	}

	if err := touchManifest(s.dir, model); err != nil {
		log.Printf("Failed to update library manifest: %v", err)
	}
	return pic, nil
}

func (s *boltStore) GetImage(ctx context.Context, url string) (domain.Picture, error) {
	if err := ctx.Err(); err != nil {
		return domain.Picture{}, err
	}
	model, name, err := domain.ParseURL(url)
	if err != nil {
		return domain.Picture{}, err
	}
	var pic domain.Picture
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(model))
		if b == nil {
			return ErrModelNotFound
		}
		return get(b, []byte(name), &pic)
	})
	if err != nil {
		return domain.Picture{}, err
	}
	return pic, nil
}

func (s *boltStore) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model, name, err := domain.ParseURL(url)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(s.blobPath(model, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrPictureNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *boltStore) DeleteImages(ctx context.Context, urls []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, url := range urls {
			model, name, err := domain.ParseURL(url)
			if err != nil {
				return err
			}
			b := tx.Bucket([]byte(model))
			if b == nil {
				return ErrModelNotFound
			}
			if err := b.Delete([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Blob removal is best effort, the index is the source of truth
	for _, url := range urls {
		model, name, err := domain.ParseURL(url)
		if err != nil {
			continue
		}
		if err := os.Remove(s.blobPath(model, name)); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove blob for %s: %v", url, err)
		}
	}
	return nil
}

func (s *boltStore) DeleteAllImages(ctx context.Context, model string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(model))
		if err == bolt.ErrBucketNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.dir, blobsDir, model)); err != nil {
		log.Printf("Failed to remove blob dir for %s: %v", model, err)
	}
	return nil
}

func (s *boltStore) ShareImages(ctx context.Context, urls []string, anchor *domain.Rect) (domain.ShareLink, error) {
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

	// All shared pictures must exist and belong to a single model
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

	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(sharesBucket))
		if err != nil {
			return err
		}
		return put(b, []byte(rec.Token), rec)
	})
	if err != nil {
		return domain.ShareLink{}, err
	}

	return domain.ShareLink{
		URL:     s.opts.ShareBaseURL + "/s/" + rec.Token + "/",
		Token:   rec.Token,
		Count:   len(urls),
		Expires: rec.Expires,
	}, nil
}

func (s *boltStore) ResolveShare(ctx context.Context, token string) (ShareRecord, error) {
	if err := ctx.Err(); err != nil {
		return ShareRecord{}, err
	}
	var rec ShareRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(sharesBucket))
		if b == nil {
			return ErrShareNotFound
		}
		data := b.Get([]byte(token))
		if data == nil {
			return ErrShareNotFound
		}
		return decode(data, &rec)
	})
	if err != nil {
		return ShareRecord{}, err
	}
	if time.Now().After(rec.Expires) {
		return ShareRecord{}, ErrShareNotFound
	}
	return rec, nil
}

func (s *boltStore) PickImage(ctx context.Context, model string, fromLibrary bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if fromLibrary {
		return pickFrom(ctx, s, s.opts.PhotosDir, model, domain.OriginLibrary)
	}
	return pickFrom(ctx, s, s.opts.CameraDir, model, domain.OriginCamera)
}

func (s *boltStore) Models(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	models := make([]string, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			id := string(name)
			if domain.ValidModelID(id) {
				models = append(models, id)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return models, nil
}

func get(b *bolt.Bucket, key []byte, v interface{}) error {
	data := b.Get(key)
	if data == nil {
		return ErrPictureNotFound
	}
	return decode(data, v)
}

func decode(data []byte, v interface{}) error {
	buf := bytes.Buffer{}
	if _, err := buf.Write(data); err != nil {
		return err
	}
	return json.NewDecoder(&buf).Decode(v)
}

func put(b *bolt.Bucket, key []byte, v interface{}) error {
	buf := bytes.Buffer{}
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return err
	}
	return b.Put(key, buf.Bytes())
}
