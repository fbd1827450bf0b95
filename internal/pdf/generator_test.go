package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/weshare-leasing/internal/model"
)

func TestGenerate_ProducesPDF(t *testing.T) {
	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	doc := model.InvoiceDocument{
		Invoice: model.Invoice{
			InvoicePrefix: "INV-2026-",
			InvoiceNumber: "0001",
			InvoiceDate:   &date,
			SubAmount:     decimal.RequireFromString("250"),
			TotalAmount:   decimal.RequireFromString("250"),
			Notes:         "Energía de febrero",
			Items: []model.InvoiceItem{
				{Item: "Capacity", Unit: 2, Price: decimal.NewFromInt(100), Total: decimal.NewFromInt(200)},
				{Item: "Service", Unit: 1, Price: decimal.NewFromInt(50), Total: decimal.NewFromInt(50)},
			},
		},
		ProjectName:  "Solar A",
		OfftakerName: "Omar",
		CompanyName:  "WeShare",
		SupportEmail: "help@weshare.test",
	}

	out, err := NewGenerator().Generate(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "-", safeValue("  "))
	assert.Equal(t, "-", formatDate(nil))
	assert.Equal(t, "12.50", formatAmount(decimal.RequireFromString("12.5")))
	assert.Equal(t, "Paid", statusLabel(model.InvoiceStatusPaid))
	assert.Equal(t, "Draft", statusLabel(model.InvoiceStatusDraft))
}
