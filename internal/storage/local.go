package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore writes documents under a directory on disk. Keys look like
// /uploads/<folder>/<file> and double as URL paths when served statically.
type LocalStore struct {
	dir     string
	baseURL string
	now     func() time.Time
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		dir:     abs,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}, nil
}

func (s *LocalStore) Put(_ context.Context, upload Upload, opts PutOptions) (*Object, error) {
	rel := BuildKey(opts.Folder, upload.Name, s.now())
	path := filepath.Join(s.dir, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	if err := os.WriteFile(path, upload.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", rel, err)
	}

	key := LocalKeyPrefix + rel
	return &Object{Key: key, URL: s.baseURL + key}, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) SignURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if _, err := s.path(key); err != nil {
		return "", err
	}
	return s.baseURL + key, nil
}

func (s *LocalStore) Locate(_ context.Context, key string) (Location, error) {
	path, err := s.path(key)
	if err != nil {
		return Location{}, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Location{}, ErrNotFound
		}
		return Location{}, err
	}
	return Location{Path: path}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	if Classify(key) != KeyLocal {
		return "", ErrInvalidKey
	}
	rel := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(key, LocalKeyPrefix)))
	if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, rel), nil
}
