// Package dataset moves SQLite database files between the local disk and an
// object store.
package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/textsql/textsql/internal/storage"
)

// Fetch downloads key into dst. The file is written next to dst and renamed
// into place, so readers never see a partial database.
func Fetch(ctx context.Context, store storage.ObjectStore, key, dst string) (storage.ObjectInfo, error) {
	if store == nil {
		return storage.ObjectInfo{}, fmt.Errorf("object store is required")
	}
	reader, info, err := store.Get(ctx, key)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("get dataset %q: %w", key, err)
	}
	defer func() { _ = reader.Close() }()

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("create dataset dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	written, err := io.Copy(tmp, reader)
	if err != nil {
		_ = tmp.Close()
		return storage.ObjectInfo{}, fmt.Errorf("download dataset %q: %w", key, err)
	}
	if info.Size > 0 && written != info.Size {
		_ = tmp.Close()
		return storage.ObjectInfo{}, fmt.Errorf("download dataset %q: got %d bytes, want %d", key, written, info.Size)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return storage.ObjectInfo{}, fmt.Errorf("sync dataset file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("close dataset file: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("install dataset: %w", err)
	}
	info.Size = written
	return info, nil
}

// Publish uploads the file at src under key.
func Publish(ctx context.Context, store storage.ObjectStore, key, src, contentType string) (storage.ObjectInfo, error) {
	if store == nil {
		return storage.ObjectInfo{}, fmt.Errorf("object store is required")
	}
	file, err := os.Open(src)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("stat %s: %w", src, err)
	}
	info, err := store.Put(ctx, key, file, stat.Size(), storage.PutOptions{ContentType: contentType})
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("publish %s: %w", src, err)
	}
	return info, nil
}
