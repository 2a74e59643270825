// Package store fetches and publishes library documents from blob storage.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mtslab/mtslab/internal/logging"
	"github.com/mtslab/mtslab/pkg/config"
	"github.com/mtslab/mtslab/pkg/library"
)

// ErrNotFound is returned when a document does not exist in the backend.
var ErrNotFound = errors.New("store: document not found")

// Client abstracts blob storage for library documents.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// LocalStorage implements Client using the local filesystem.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a LocalStorage rooted at the given directory.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

func (s *LocalStorage) path(key string) string {
	return filepath.Join(s.BaseDir, filepath.FromSlash(key))
}

// Get reads a document.
func (s *LocalStorage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path(key))
	}
	return data, err
}

// Put writes a document, creating parent directories.
func (s *LocalStorage) Put(ctx context.Context, key string, data []byte) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Source is a configured library location: a backend plus the document key.
type Source struct {
	Client Client
	Key    string
	// CachePath keeps the last good remote document; empty disables it.
	CachePath string
	builtin   bool
}

// Open builds the Source described by the library config section.
func Open(ctx context.Context, cfg *config.Config) (*Source, error) {
	lc := cfg.Library
	switch lc.Source {
	case config.SourceBuiltin, "":
		return &Source{builtin: true}, nil
	case config.SourceLocal:
		// A path that names a file is split into directory and key.
		if info, err := os.Stat(lc.Path); err == nil && info.IsDir() {
			return &Source{Client: NewLocalStorage(lc.Path), Key: lc.Key}, nil
		}
		return &Source{Client: NewLocalStorage(filepath.Dir(lc.Path)), Key: filepath.Base(lc.Path)}, nil
	case config.SourceS3:
		s3, err := NewS3Storage(ctx, S3Config{
			Bucket:    lc.Bucket,
			Region:    lc.Region,
			Endpoint:  lc.Endpoint,
			AccessKey: os.Getenv("MTSLAB_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("MTSLAB_S3_SECRET_KEY"),
		})
		if err != nil {
			return nil, err
		}
		return &Source{Client: s3, Key: lc.Key, CachePath: cfg.LibraryCachePath()}, nil
	case config.SourceGCS:
		gcs, err := NewGCSStorage(ctx, lc.Bucket)
		if err != nil {
			return nil, err
		}
		return &Source{Client: gcs, Key: lc.Key, CachePath: cfg.LibraryCachePath()}, nil
	default:
		return nil, fmt.Errorf("unknown library source %q", lc.Source)
	}
}

// Describe names the source for logs and CLI output.
func (s *Source) Describe() string {
	switch c := s.Client.(type) {
	case nil:
		return "builtin"
	case *LocalStorage:
		return filepath.Join(c.BaseDir, s.Key)
	case *S3Storage:
		return "s3://" + c.bucket + "/" + s.Key
	case *GCSStorage:
		return "gs://" + c.bucket + "/" + s.Key
	default:
		return s.Key
	}
}

// Fetch returns the raw library document. Remote documents are written to
// CachePath on success and read back from it when the backend fails.
func (s *Source) Fetch(ctx context.Context) ([]byte, error) {
	if s.builtin {
		return library.BuiltinDocument(), nil
	}
	data, err := s.Client.Get(ctx, s.Key)
	if err == nil {
		s.writeCache(data)
		return data, nil
	}
	if s.CachePath == "" || errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("fetching library %s: %w", s.Describe(), err)
	}
	cached, cerr := os.ReadFile(s.CachePath)
	if cerr != nil {
		return nil, fmt.Errorf("fetching library %s: %w", s.Describe(), err)
	}
	logging.Logger(logging.SourceStore).Warn("library backend unavailable, using cached copy",
		"source", s.Describe(), "cache", s.CachePath, "err", err)
	return cached, nil
}

// LoadRegistry fetches and validates the library document.
func (s *Source) LoadRegistry(ctx context.Context) (*library.Registry, error) {
	data, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	reg, err := library.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading library %s: %w", s.Describe(), err)
	}
	logging.Logger(logging.SourceStore).Debug("library loaded",
		"source", s.Describe(), "tests", reg.Len())
	return reg, nil
}

// Publish validates a document and uploads it under the source key.
// Invalid documents are never written.
func (s *Source) Publish(ctx context.Context, data []byte) (*library.Registry, error) {
	if s.builtin {
		return nil, fmt.Errorf("cannot publish to the builtin library; configure a local, s3 or gcs source")
	}
	reg, err := library.Parse(data)
	if err != nil {
		return nil, err
	}
	if err := s.Client.Put(ctx, s.Key, data); err != nil {
		return nil, fmt.Errorf("publishing library %s: %w", s.Describe(), err)
	}
	s.writeCache(data)
	return reg, nil
}

func (s *Source) writeCache(data []byte) {
	if s.CachePath == "" {
		return
	}
	log := logging.Logger(logging.SourceStore)
	if err := os.MkdirAll(filepath.Dir(s.CachePath), 0o755); err != nil {
		log.Debug("library cache unavailable", "err", err)
		return
	}
	if err := os.WriteFile(s.CachePath, data, 0o644); err != nil {
		log.Debug("library cache write failed", "err", err)
	}
}

func contentType(key string) string {
	if strings.HasSuffix(strings.ToLower(key), ".json") {
		return "application/json"
	}
	return "application/yaml"
}
