package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

type Object struct {
	Name string
	Size int64
}

// ObjectStore is a flat key space that generated videos are published to.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data io.Reader) error

	GetObject(ctx context.Context, key string) (io.ReadCloser, error)

	ListObjects(ctx context.Context, prefix string) ([]Object, error)

	URI(key string) string
}

// PublishFile copies the local file at src into the store under prefix,
// keeping its base name, and returns the URI of the new object.
func PublishFile(ctx context.Context, store ObjectStore, prefix, src string) (string, error) {
	file, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer file.Close()

	key := path.Join(prefix, filepath.Base(src))
	if err := store.PutObject(ctx, key, file); err != nil {
		return "", err
	}

	return store.URI(key), nil
}
