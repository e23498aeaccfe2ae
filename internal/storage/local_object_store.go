package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type LocalObjectStore struct {
	baseDir string
}

var _ ObjectStore = (*LocalObjectStore)(nil)

func NewLocalObjectStore(dir string) (*LocalObjectStore, error) {
	baseDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", dir, err)
	}

	if err := os.MkdirAll(baseDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", baseDir, err)
	}

	return &LocalObjectStore{baseDir: baseDir}, nil
}

func (s *LocalObjectStore) PutObject(ctx context.Context, key string, data io.Reader) error {
	path := localStorageFullpath(s.baseDir, key)
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for %s/%s: %w", s.baseDir, key, err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s/%s: %w", s.baseDir, key, err)
	}

	_, err = io.Copy(dst, data)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// A partial object must not be listed as published.
		os.Remove(path) //nolint:errcheck
		return fmt.Errorf("failed to write file %s/%s: %w", s.baseDir, key, err)
	}

	return nil
}

func (s *LocalObjectStore) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(localStorageFullpath(s.baseDir, key))
	if err != nil {
		return nil, fmt.Errorf("failed to open object %s/%s: %w", s.baseDir, key, err)
	}
	return file, nil
}

func (s *LocalObjectStore) ListObjects(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object

	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, Object{Name: key, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects in %s with prefix %s: %w", s.baseDir, prefix, err)
	}

	return objects, nil
}

func (s *LocalObjectStore) URI(key string) string {
	return "file://" + filepath.ToSlash(localStorageFullpath(s.baseDir, key))
}
