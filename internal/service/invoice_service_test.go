package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/weshare-leasing/internal/model"
)

func draft() *model.InvoiceStatus {
	s := model.InvoiceStatusDraft
	return &s
}

func TestInvoiceCreate_DerivesTotalsFromItems(t *testing.T) {
	h := newHarness(t)

	inv, err := h.invoices.Create(h.ctx(), h.as(h.admin), InvoiceInput{
		ProjectID:  h.project.ID,
		OfftakerID: h.offtaker.ID,
		Status:     draft(),
		Items: []InvoiceItemInput{
			{Item: "Capacity", Unit: 2, Price: decimal.NewFromInt(100)},
			{Item: "Service", Unit: 1, Price: decimal.NewFromInt(50)},
		},
	})
	require.NoError(t, err)

	stored, err := h.invoices.Get(h.ctx(), h.as(h.admin), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "250.00", stored.SubAmount.StringFixed(2))
	assert.Equal(t, "250.00", stored.TotalAmount.StringFixed(2))
	assert.Equal(t, "0.00", stored.TaxAmount.StringFixed(2))
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "200.00", stored.Items[0].Total.StringFixed(2))

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("INV-%d-0001", year), stored.Number())

	notes := h.notificationsFor(h.offtaker)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Title, stored.Number())
	assert.Contains(t, notes[0].Message, "250.00")

	mail := h.sender.To(h.offtaker.Email)
	require.Len(t, mail, 1)
	require.Len(t, mail[0].Attachments, 1)
	assert.Equal(t, stored.Number()+".pdf", mail[0].Attachments[0].Filename)
}

func TestInvoiceCreate_ExplicitAmountsWinAndNumbersAdvance(t *testing.T) {
	h := newHarness(t)
	amount := decimal.RequireFromString("1000")
	tax := decimal.RequireFromString("160")

	first, err := h.invoices.Create(h.ctx(), h.as(h.admin), InvoiceInput{
		ProjectID:  h.project.ID,
		OfftakerID: h.offtaker.ID,
		Status:     draft(),
		Amount:     &amount,
		TaxAmount:  &tax,
		Items:      []InvoiceItemInput{{Item: "x", Unit: 1, Price: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "1000.00", first.SubAmount.StringFixed(2))
	assert.Equal(t, "1160.00", first.TotalAmount.StringFixed(2))

	second := h.paidInvoice("10")
	assert.Equal(t, "0001", first.InvoiceNumber)
	assert.Equal(t, "0002", second.InvoiceNumber)

	next, err := h.invoices.NextNumber(h.ctx())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("INV-%d-0003", time.Now().Year()), next)
}

func TestInvoiceCreate_Validation(t *testing.T) {
	h := newHarness(t)
	base := InvoiceInput{ProjectID: h.project.ID, OfftakerID: h.offtaker.ID, Status: draft()}

	missingStatus := base
	missingStatus.Status = nil
	_, err := h.invoices.Create(h.ctx(), h.as(h.admin), missingStatus)
	assert.ErrorIs(t, err, ErrInvalidInput)

	wrongOfftaker := base
	wrongOfftaker.OfftakerID = h.investor.ID
	_, err = h.invoices.Create(h.ctx(), h.as(h.admin), wrongOfftaker)
	assert.ErrorIs(t, err, ErrInvalidInput)

	badItem := base
	badItem.Items = []InvoiceItemInput{{Item: "x", Unit: 0, Price: decimal.NewFromInt(1)}}
	_, err = h.invoices.Create(h.ctx(), h.as(h.admin), badItem)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.invoices.Create(h.ctx(), h.as(h.offtaker), base)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	assert.Zero(t, h.count(&model.Invoice{}))
}

func TestInvoiceUpdate_ReplacesItemsWholesale(t *testing.T) {
	h := newHarness(t)
	inv, err := h.invoices.Create(h.ctx(), h.as(h.admin), InvoiceInput{
		ProjectID:  h.project.ID,
		OfftakerID: h.offtaker.ID,
		Status:     draft(),
		Items: []InvoiceItemInput{
			{Item: "A", Unit: 1, Price: decimal.NewFromInt(10)},
			{Item: "B", Unit: 1, Price: decimal.NewFromInt(20)},
		},
	})
	require.NoError(t, err)

	updated, err := h.invoices.Update(h.ctx(), h.as(h.admin), inv.ID, InvoiceInput{
		ProjectID:  h.project.ID,
		OfftakerID: h.offtaker.ID,
		Status:     draft(),
		Notes:      "revised",
		Items:      []InvoiceItemInput{{Item: "C", Unit: 3, Price: decimal.NewFromInt(7)}},
	})
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.Equal(t, "C", updated.Items[0].Item)
	assert.Equal(t, "21.00", updated.TotalAmount.StringFixed(2))
	assert.Equal(t, inv.Number(), updated.Number())
	assert.Equal(t, "revised", updated.Notes)
	assert.Equal(t, int64(1), h.count(&model.InvoiceItem{}))
}

func TestInvoiceAccess_OfftakerSeesOwnOnly(t *testing.T) {
	h := newHarness(t)
	other := h.user("Other Offtaker", "other@example.test", model.RoleOfftaker)
	mine := h.paidInvoice("10")
	theirs, err := h.invoices.Create(h.ctx(), h.as(h.admin), InvoiceInput{ProjectID: h.project.ID, OfftakerID: other.ID, Status: draft()})
	require.NoError(t, err)

	list, err := h.invoices.List(h.ctx(), h.as(h.offtaker), InvoiceFilter{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, mine.ID, list.Items[0].ID)
	assert.Equal(t, int64(1), list.Total)

	_, err = h.invoices.Get(h.ctx(), h.as(h.offtaker), theirs.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = h.invoices.List(h.ctx(), h.as(h.investor), InvoiceFilter{})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestInvoiceDelete_IsSoft(t *testing.T) {
	h := newHarness(t)
	inv := h.paidInvoice("10")

	require.NoError(t, h.invoices.Delete(h.ctx(), h.as(h.admin), inv.ID))

	_, err := h.invoices.Get(h.ctx(), h.as(h.admin), inv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, h.invoices.Delete(h.ctx(), h.as(h.admin), inv.ID), ErrNotFound)

	var raw int64
	require.NoError(t, h.db.Unscoped().Model(&model.Invoice{}).Count(&raw).Error)
	assert.Equal(t, int64(1), raw)
}

func TestInvoiceRenderPDF(t *testing.T) {
	h := newHarness(t)
	inv := h.paidInvoice("99.90")

	content, name, err := h.invoices.RenderPDF(h.ctx(), h.as(h.offtaker), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.Number()+".pdf", name)
	assert.Equal(t, "%PDF-", string(content[:5]))
}
