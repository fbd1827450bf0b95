package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("production", &buf)

	log.Debug().Msg("hidden")
	log.Info().Str("invoice", "INV-2026-0001").Msg("created")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "leasing", entry["service"])
	assert.Equal(t, "INV-2026-0001", entry["invoice"])
	assert.Equal(t, "created", entry["message"])
}

func TestDeadLetter_TagsChannel(t *testing.T) {
	var buf bytes.Buffer
	log := DeadLetter(newWithWriter("production", &buf))
	log.Warn().Msg("blob delete failed")

	assert.Contains(t, buf.String(), `"channel":"dead_letter"`)
}
