package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mtslab/mtslab/pkg/config"
	"github.com/mtslab/mtslab/pkg/library"
)

const miniLibrary = `
tests:
  - id: ir
    name: Insulation resistance
    category: Insulation
    summary: Megger test.
    equipment: [Cables]
    phases: [Acceptance]
    purpose: Check insulation.
    procedure: [Apply voltage]
    interpretation: Higher is better.
    diagnostics: {watch: w, investigate: i, fail: f}
    result_implications: {default: d}
    criteria:
      - id: ir_min
        label: Minimum IR
        parameter: Resistance
        unit: MΩ
        evaluation_type: absolute
        minimum: 100
`

func TestLocalStoragePutGet(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	ctx := context.Background()

	data := []byte("tests: []")
	if err := s.Put(ctx, "libs/site-a.yaml", data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "libs/site-a.yaml")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Get = %q, want %q", got, data)
	}

	expectedPath := filepath.Join(dir, "libs", "site-a.yaml")
	if _, err := os.Stat(expectedPath); err != nil {
		t.Errorf("expected file at %s: %v", expectedPath, err)
	}
}

func TestLocalStorageGetNotFound(t *testing.T) {
	s := NewLocalStorage(t.TempDir())
	_, err := s.Get(context.Background(), "missing.yaml")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenBuiltin(t *testing.T) {
	src, err := Open(context.Background(), config.DefaultConfig())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if src.Describe() != "builtin" {
		t.Errorf("Describe = %q", src.Describe())
	}
	reg, err := src.LoadRegistry(context.Background())
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if reg.Len() != 10 {
		t.Errorf("expected 10 builtin tests, got %d", reg.Len())
	}
	if _, err := src.Publish(context.Background(), []byte(miniLibrary)); err == nil {
		t.Error("expected publishing to builtin to fail")
	}
}

func TestOpenLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.yaml")
	if err := os.WriteFile(path, []byte(miniLibrary), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Library.Source = config.SourceLocal
	cfg.Library.Path = path

	src, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if src.Key != "library.yaml" {
		t.Errorf("Key = %q, want library.yaml", src.Key)
	}
	reg, err := src.LoadRegistry(context.Background())
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if _, err := reg.Criterion("ir_min"); err != nil {
		t.Errorf("expected ir_min: %v", err)
	}
}

func TestPublishRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	src := &Source{Client: NewLocalStorage(dir), Key: "library.yaml"}
	ctx := context.Background()

	bad := strings.Replace(miniLibrary, "minimum: 100", "maximum: nope", 1)
	_, err := src.Publish(ctx, []byte(bad))
	var verr *library.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "library.yaml")); !os.IsNotExist(err) {
		t.Error("invalid document should not be written")
	}

	reg, err := src.Publish(ctx, []byte(miniLibrary))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 test, got %d", reg.Len())
	}
}

type failingClient struct{ err error }

func (f failingClient) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingClient) Put(context.Context, string, []byte) error   { return f.err }

func TestFetchFallsBackToCache(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "cache", "library.yaml")
	ctx := context.Background()

	// Prime the cache through a working backend.
	good := &Source{Client: NewLocalStorage(t.TempDir()), Key: "lib.yaml", CachePath: cache}
	if _, err := good.Publish(ctx, []byte(miniLibrary)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	down := &Source{Client: failingClient{err: errors.New("connection refused")}, Key: "lib.yaml", CachePath: cache}
	reg, err := down.LoadRegistry(ctx)
	if err != nil {
		t.Fatalf("expected cached fallback, got %v", err)
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 test, got %d", reg.Len())
	}

	missing := &Source{Client: failingClient{err: ErrNotFound}, Key: "lib.yaml", CachePath: cache}
	if _, err := missing.Fetch(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("not-found should not use the cache, got %v", err)
	}
}

func TestContentType(t *testing.T) {
	if got := contentType("lib.JSON"); got != "application/json" {
		t.Errorf("contentType(json) = %q", got)
	}
	if got := contentType("lib.yaml"); got != "application/yaml" {
		t.Errorf("contentType(yaml) = %q", got)
	}
}
