package storage

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Manager applies the storage policy. New documents go to the remote store
// when it is configured; otherwise to local disk when fallback is allowed;
// otherwise the write fails closed. Reads and deletes are routed by the
// key's shape so old documents stay addressable.
type Manager struct {
	remote        Store
	local         Store
	fallback      bool
	signedURLTTL  time.Duration
	deadLetter    zerolog.Logger
	orphanedBlobs atomic.Int64
}

// NewManager accepts a nil remote (object store disabled) or a nil local
// store (no disk fallback).
func NewManager(remote, local Store, fallbackToLocal bool, signedURLTTL time.Duration, deadLetter zerolog.Logger) *Manager {
	return &Manager{
		remote:       remote,
		local:        local,
		fallback:     fallbackToLocal && local != nil,
		signedURLTTL: signedURLTTL,
		deadLetter:   deadLetter,
	}
}

func (m *Manager) Put(ctx context.Context, upload Upload, opts PutOptions) (*Object, error) {
	store, err := m.writer()
	if err != nil {
		return nil, err
	}
	obj, err := store.Put(ctx, upload, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return obj, nil
}

// PutReplacing stores a document that supersedes previousKey. It refuses to
// write a local copy over a remote history. The other direction is allowed:
// once the object store is enabled, documents first uploaded to disk move to
// it on their next replacement, and the old local key still routes to disk.
func (m *Manager) PutReplacing(ctx context.Context, upload Upload, opts PutOptions, previousKey string) (*Object, error) {
	if previousKey != "" && Classify(previousKey) != KeyLocal && m.remote == nil {
		return nil, fmt.Errorf("%w: document history is in the object store", ErrUnavailable)
	}
	return m.Put(ctx, upload, opts)
}

func (m *Manager) Delete(ctx context.Context, key string) error {
	store, err := m.route(key)
	if err != nil {
		return err
	}
	return store.Delete(ctx, key)
}

// DeleteQuietly removes a superseded or orphaned document. Failures are
// reported on the dead-letter log and counted, never returned.
func (m *Manager) DeleteQuietly(ctx context.Context, key, reason string) {
	if key == "" {
		return
	}
	if err := m.Delete(ctx, key); err != nil {
		m.orphanedBlobs.Add(1)
		m.deadLetter.Warn().
			Err(err).
			Str("event", "orphaned_blob").
			Str("key", key).
			Str("reason", reason).
			Msg("document cleanup failed")
	}
}

func (m *Manager) SignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	store, err := m.route(key)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = m.signedURLTTL
	}
	return store.SignURL(ctx, key, ttl)
}

func (m *Manager) Locate(ctx context.Context, key string) (Location, error) {
	store, err := m.route(key)
	if err != nil {
		return Location{}, err
	}
	return store.Locate(ctx, key)
}

// OrphanCount is the number of failed cleanups since start.
func (m *Manager) OrphanCount() int64 {
	return m.orphanedBlobs.Load()
}

func (m *Manager) RemoteEnabled() bool {
	return m.remote != nil
}

func (m *Manager) writer() (Store, error) {
	if m.remote != nil {
		return m.remote, nil
	}
	if m.fallback {
		return m.local, nil
	}
	return nil, ErrUnavailable
}

func (m *Manager) route(key string) (Store, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	if Classify(key) == KeyLocal {
		if m.local == nil {
			return nil, ErrUnavailable
		}
		return m.local, nil
	}
	if m.remote == nil {
		return nil, ErrUnavailable
	}
	return m.remote, nil
}
