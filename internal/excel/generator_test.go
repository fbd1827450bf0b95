package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/weshare-leasing/internal/model"
)

func TestGenerate_WritesSummaryAndProjectSheets(t *testing.T) {
	paidOn := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	statement := model.PayoutStatement{
		InvestorName: "Ines",
		Year:         2026,
		ProjectNames: map[int64]string{1: "Solar A", 2: "Wind/B"},
		Payouts: []model.Payout{
			{ProjectID: 1, PayoutPrefix: "PO-2026-", PayoutNumber: "0001", PayoutAmount: decimal.RequireFromString("125"), Status: model.PayoutStatusPaid, PayoutDate: &paidOn},
			{ProjectID: 1, PayoutPrefix: "PO-2026-", PayoutNumber: "0002", PayoutAmount: decimal.RequireFromString("10.5"), Status: model.PayoutStatusPending},
			{ProjectID: 2, PayoutPrefix: "PO-2026-", PayoutNumber: "0003", PayoutAmount: decimal.RequireFromString("4"), Status: model.PayoutStatusPending},
		},
	}

	out, err := NewGenerator().Generate(statement)
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{"Summary", "Solar A", "Wind-B"}, file.GetSheetList())

	paid, err := file.GetCellValue("Summary", "B4")
	require.NoError(t, err)
	assert.Equal(t, "125.00", paid)
	pending, err := file.GetCellValue("Summary", "B5")
	require.NoError(t, err)
	assert.Equal(t, "14.50", pending)

	number, err := file.GetCellValue("Solar A", "A5")
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-0001", number)
	paidCell, err := file.GetCellValue("Solar A", "G5")
	require.NoError(t, err)
	assert.Equal(t, "2026-04-02", paidCell)
}

func TestBuildSheetName_DedupesAndTruncates(t *testing.T) {
	used := map[string]struct{}{}
	long := "A very long project name that exceeds the limit"
	first := buildSheetName(long, 1, used)
	used[first] = struct{}{}
	second := buildSheetName(long, 2, used)

	assert.Len(t, first, 31)
	assert.NotEqual(t, first, second)
	assert.Equal(t, "Project 9", buildSheetName("", 9, map[string]struct{}{}))
}
