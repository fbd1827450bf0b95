package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nurpe/weshare-leasing/internal/storage"
)

// MemoryStore is an in-memory storage.Store with switchable failures.
type MemoryStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	FailPut    error
	FailDelete error
	Deleted    []string
	// OnPut runs after a successful Put, outside the store lock.
	OnPut func(key string)
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte), now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, upload storage.Upload, opts storage.PutOptions) (*storage.Object, error) {
	s.mu.Lock()
	if s.FailPut != nil {
		s.mu.Unlock()
		return nil, s.FailPut
	}
	key := storage.BuildKey(opts.Folder, upload.Name, s.now())
	s.objects[key] = append([]byte(nil), upload.Data...)
	hook := s.OnPut
	s.mu.Unlock()

	if hook != nil {
		hook(key)
	}
	return &storage.Object{Key: key, URL: "https://blobs.test/" + key}, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete != nil {
		return s.FailDelete
	}
	delete(s.objects, key)
	s.Deleted = append(s.Deleted, key)
	return nil
}

func (s *MemoryStore) SignURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://blobs.test/" + key + "?signed=1", nil
}

func (s *MemoryStore) Locate(ctx context.Context, key string) (storage.Location, error) {
	s.mu.Lock()
	_, ok := s.objects[key]
	s.mu.Unlock()
	if !ok {
		return storage.Location{}, storage.ErrNotFound
	}
	url, _ := s.SignURL(ctx, key, 0)
	return storage.Location{URL: url}, nil
}

func (s *MemoryStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

var ErrBlobDown = errors.New("object store is down")
