package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslator_InterpolatesVars(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	got := tr.T("en", "contract.rejected.offtaker.message", map[string]any{
		"project": "Solar Farm 7",
		"reason":  "missing docs",
	})
	assert.Equal(t, "Your contract for project Solar Farm 7 was rejected. Reason: missing docs", got)
}

func TestTranslator_UsesRequestedLanguage(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	got := tr.T("es-MX", "payout.paid.investor.title", map[string]any{"number": "PO-2026-0001"})
	assert.Equal(t, "Liquidación PO-2026-0001 pagada", got)
}

func TestTranslator_FallsBackToDefaultThenKey(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	assert.Equal(t, "{company}", tr.T("es", "email.header", nil), "es has no header, default is used")
	assert.Equal(t, "contract.unknown.key", tr.T("es", "contract.unknown.key", nil))
	assert.Equal(t, "contract.created", tr.T("en", "contract.created", nil), "branch nodes are not messages")
}

func TestTranslator_Normalize(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	assert.Equal(t, "es", tr.Normalize("ES"))
	assert.Equal(t, "en", tr.Normalize("de"))
	assert.Equal(t, "en", tr.Normalize(""))
	assert.Equal(t, []string{"en", "es"}, tr.Languages())
}

func TestNew_RejectsUnknownDefault(t *testing.T) {
	_, err := New("xx")
	assert.Error(t, err)
}

func TestParseCatalog_FlattensNestedKeys(t *testing.T) {
	catalog, err := parseCatalog([]byte("a:\n  b:\n    c: deep\n  n: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, "deep", catalog["a.b.c"])
	assert.Equal(t, "3", catalog["a.n"])
}
