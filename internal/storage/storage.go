// Package storage keeps binary documents (signed contracts, payment
// screenshots, payout receipts) in an object store or on local disk.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnavailable = errors.New("blob storage unavailable")
	ErrNotFound    = errors.New("blob not found")
	ErrInvalidKey  = errors.New("invalid blob key")
)

const (
	FolderContracts       = "contracts"
	FolderSignedContracts = "contracts/signed"
	FolderPayments        = "payments"
	FolderPayouts         = "payouts"
)

type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

func (u *Upload) Empty() bool {
	return u == nil || len(u.Data) == 0
}

type PutOptions struct {
	Folder   string
	Metadata map[string]string
}

type Object struct {
	Key string
	URL string
}

// Location tells a consumer how to fetch a stored document: remote objects
// come back as a signed URL, local ones as a filesystem path.
type Location struct {
	URL  string
	Path string
}

type Store interface {
	Put(ctx context.Context, upload Upload, opts PutOptions) (*Object, error)
	Delete(ctx context.Context, key string) error
	SignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Locate(ctx context.Context, key string) (Location, error)
}
