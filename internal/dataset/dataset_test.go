package dataset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/textsql/textsql/internal/storage"
)

func TestPublishThenFetchRoundTrip(t *testing.T) {
	store := newMemoryStore()
	dir := t.TempDir()
	src := filepath.Join(dir, "retail.db")
	if err := os.WriteFile(src, []byte("SQLite format 3\x00payload"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	info, err := Publish(context.Background(), store, "datasets/retail/retail.db", src, storage.ContentTypeSQLite)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if info.Size != 23 {
		t.Fatalf("Publish() size = %d", info.Size)
	}
	if store.contentTypes["datasets/retail/retail.db"] != storage.ContentTypeSQLite {
		t.Fatalf("content type = %q", store.contentTypes["datasets/retail/retail.db"])
	}

	dst := filepath.Join(dir, "nested", "copy.db")
	if _, err := Fetch(context.Background(), store, "datasets/retail/retail.db", dst); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "SQLite format 3\x00payload" {
		t.Fatalf("fetched body = %q", got)
	}
	assertNoTempFiles(t, filepath.Dir(dst))
}

func TestFetchMissingObjectLeavesDestinationUntouched(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "retail.db")
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := Fetch(context.Background(), newMemoryStore(), "datasets/none.db", dst)
	if !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Fetch() error = %v, want ErrObjectNotFound", err)
	}
	if got, _ := os.ReadFile(dst); string(got) != "old" {
		t.Fatalf("destination overwritten: %q", got)
	}
}

func TestFetchRejectsTruncatedDownload(t *testing.T) {
	store := newMemoryStore()
	store.objects["k"] = []byte("abc")
	store.sizeOverride = 10
	dst := filepath.Join(t.TempDir(), "retail.db")

	if _, err := Fetch(context.Background(), store, "k", dst); err == nil {
		t.Fatal("expected size mismatch error")
	}
	if _, err := os.Stat(dst); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("partial file installed: %v", err)
	}
	assertNoTempFiles(t, filepath.Dir(dst))
}

func TestPublishMissingSource(t *testing.T) {
	if _, err := Publish(context.Background(), newMemoryStore(), "k", filepath.Join(t.TempDir(), "none.db"), ""); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	if err != nil {
		t.Fatalf("Glob() error = %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
}

type memoryStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	sizeOverride int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (m *memoryStore) Put(_ context.Context, key string, body io.Reader, _ int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.contentTypes[key] = opts.ContentType
	return storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	size := int64(len(data))
	if m.sizeOverride > 0 {
		size = m.sizeOverride
	}
	return io.NopCloser(bytes.NewReader(data)), storage.ObjectInfo{Key: key, Size: size}, nil
}

func (m *memoryStore) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}
