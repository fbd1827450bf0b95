package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/weshare-leasing/internal/notify"
	"github.com/nurpe/weshare-leasing/internal/storage"
)

type Documents interface {
	Put(ctx context.Context, upload storage.Upload, opts storage.PutOptions) (*storage.Object, error)
	PutReplacing(ctx context.Context, upload storage.Upload, opts storage.PutOptions, previousKey string) (*storage.Object, error)
	DeleteQuietly(ctx context.Context, key, reason string)
	SignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Notifier interface {
	Deliver(ctx context.Context, del notify.Delivery) error
	DeliverTo(ctx context.Context, userID int64, del notify.Delivery) error
	DeliverToAdmins(ctx context.Context, del notify.Delivery) error
}

// storeDocument uploads a document that may supersede previousKey. It
// returns "" when there is nothing to upload.
func storeDocument(ctx context.Context, docs Documents, upload *storage.Upload, folder, previousKey string, meta map[string]string) (string, error) {
	if upload.Empty() {
		return "", nil
	}
	obj, err := docs.PutReplacing(ctx, *upload, storage.PutOptions{Folder: folder, Metadata: meta}, previousKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDependency, err)
	}
	return obj.Key, nil
}

func entityMeta(entity string, id int64) map[string]string {
	if id == 0 {
		return map[string]string{"entity": entity}
	}
	return map[string]string{"entity": entity, "entity_id": strconv.FormatInt(id, 10)}
}

// bestEffort logs a failed side effect. The caller carries on.
func bestEffort(log zerolog.Logger, err error, event string, id int64) {
	if err == nil {
		return
	}
	log.Warn().Err(err).Str("event", event).Int64("id", id).Msg("notification fan-out failed")
}

func attachKey(key, filename string) []notify.Attachment {
	if key == "" {
		return nil
	}
	return []notify.Attachment{{BlobKey: key, Filename: filename}}
}
