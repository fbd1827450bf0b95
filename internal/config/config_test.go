package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/leasing")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 7090, cfg.HTTP.Port)
	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	assert.Equal(t, StorageFallbackLocal, cfg.Storage.Fallback)
	assert.Equal(t, time.Hour, cfg.Storage.SignedURLTTL)
	assert.Equal(t, 4, cfg.Sequence.PadWidth)
	assert.Equal(t, "INV-", cfg.Sequence.InvoicePrefix)
	assert.Equal(t, "PO-", cfg.Sequence.PayoutPrefix)
	assert.Equal(t, "en", cfg.Site.DefaultLanguage)
	assert.False(t, cfg.Storage.RemoteEnabled())
}

func TestLoad_RequiresBucketForS3(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/leasing")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("STORAGE_DRIVER", "s3")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET")
}

func TestLoad_RejectsUnknownFallback(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/leasing")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("STORAGE_FALLBACK", "memory")

	_, err := Load()
	require.Error(t, err)
}

func TestParseList(t *testing.T) {
	assert.Nil(t, parseList("  "))
	assert.Equal(t, []string{"a", "b"}, parseList(" a, ,b "))
}
