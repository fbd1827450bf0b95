package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/weshare-leasing/internal/model"
	"github.com/nurpe/weshare-leasing/internal/testutil"
)

func draftInvoice(t *testing.T, h *harness, total string) *model.Invoice {
	t.Helper()
	amount := decimal.RequireFromString(total)
	inv, err := h.invoices.Create(h.ctx(), h.as(h.admin), InvoiceInput{
		ProjectID:  h.project.ID,
		OfftakerID: h.offtaker.ID,
		Status:     draft(),
		Amount:     &amount,
	})
	require.NoError(t, err)
	return inv
}

func TestPaymentCreate_ByOfftakerStaysPendingAndAlertsAdmins(t *testing.T) {
	h := newHarness(t)
	inv := draftInvoice(t, h, "250")
	offtakerBefore := len(h.notificationsFor(h.offtaker))

	payment, err := h.payments.Create(h.ctx(), CreatePaymentInput{
		Principal:  h.as(h.offtaker),
		InvoiceID:  inv.ID,
		Screenshot: pngUpload("transfer.png"),
	})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.Equal(t, "250.00", payment.Amount.StringFixed(2))
	assert.True(t, h.blobs.Has(payment.ScreenshotKey))

	stored, err := h.invoices.Get(h.ctx(), h.as(h.admin), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusDraft, stored.Status)

	adminNotes := h.notificationsFor(h.admin)
	require.Len(t, adminNotes, 1)
	assert.Contains(t, adminNotes[0].Title, inv.Number())
	assert.Len(t, h.notificationsFor(h.offtaker), offtakerBefore)

	mail := h.sender.To(h.admin.Email)
	require.Len(t, mail, 1)
	assert.Equal(t, "payment_submitted_admin:en", mail[0].Subject)
	assert.Len(t, mail[0].Attachments, 2)
}

func TestPaymentCreate_ByAdminAutoApproves(t *testing.T) {
	h := newHarness(t)
	inv := draftInvoice(t, h, "250")
	offtakerBefore := len(h.notificationsFor(h.offtaker))

	payment, err := h.payments.Create(h.ctx(), CreatePaymentInput{Principal: h.as(h.admin), InvoiceID: inv.ID})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, payment.Status)
	assert.NotNil(t, payment.PaidAt)

	stored, err := h.invoices.Get(h.ctx(), h.as(h.admin), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, stored.Status)

	adminNotes := h.notificationsFor(h.admin)
	require.Len(t, adminNotes, 1)
	assert.Contains(t, adminNotes[0].Title, "recorded")
	assert.Len(t, h.notificationsFor(h.offtaker), offtakerBefore)
}

func TestPaymentCreate_Rules(t *testing.T) {
	h := newHarness(t)
	inv := draftInvoice(t, h, "250")

	_, err := h.payments.Create(h.ctx(), CreatePaymentInput{Principal: h.as(h.investor), InvoiceID: inv.ID})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = h.payments.Create(h.ctx(), CreatePaymentInput{Principal: h.as(h.offtaker), InvoiceID: 404})
	assert.ErrorIs(t, err, ErrNotFound)

	zero := decimal.Zero
	_, err = h.payments.Create(h.ctx(), CreatePaymentInput{Principal: h.as(h.offtaker), InvoiceID: inv.ID, Amount: &zero})
	assert.ErrorIs(t, err, ErrInvalidInput)

	h.blobs.FailPut = testutil.ErrBlobDown
	_, err = h.payments.Create(h.ctx(), CreatePaymentInput{Principal: h.as(h.offtaker), InvoiceID: inv.ID, Screenshot: pngUpload("transfer.png")})
	assert.ErrorIs(t, err, ErrDependency)
	assert.Zero(t, h.count(&model.Payment{}))
}

func TestPaymentMarkPaid_IsIdempotent(t *testing.T) {
	h := newHarness(t)
	inv := draftInvoice(t, h, "250")
	payment, err := h.payments.Create(h.ctx(), CreatePaymentInput{Principal: h.as(h.offtaker), InvoiceID: inv.ID})
	require.NoError(t, err)
	before := len(h.notificationsFor(h.offtaker))

	for i := 0; i < 2; i++ {
		paid, err := h.payments.MarkPaid(h.ctx(), h.as(h.admin), payment.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusPaid, paid.Status)
	}

	stored, err := h.invoices.Get(h.ctx(), h.as(h.admin), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, stored.Status)

	notes := h.notificationsFor(h.offtaker)
	assert.Len(t, notes, before+1)
	assert.Contains(t, notes[len(notes)-1].Title, "Payment confirmed")
	assert.Len(t, h.sender.To(h.offtaker.Email), 2) // invoice created + payment confirmed

	_, err = h.payments.MarkPaid(h.ctx(), h.as(h.offtaker), payment.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = h.payments.MarkPaid(h.ctx(), h.as(h.admin), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaymentMarkPaid_DeletedInvoiceIsNotFound(t *testing.T) {
	h := newHarness(t)
	inv := draftInvoice(t, h, "250")
	payment, err := h.payments.Create(h.ctx(), CreatePaymentInput{Principal: h.as(h.offtaker), InvoiceID: inv.ID})
	require.NoError(t, err)
	require.NoError(t, h.invoices.Delete(h.ctx(), h.as(h.admin), inv.ID))
	before := len(h.notificationsFor(h.offtaker))

	_, err = h.payments.MarkPaid(h.ctx(), h.as(h.admin), payment.ID)
	require.ErrorIs(t, err, ErrNotFound)

	var stored model.Payment
	require.NoError(t, h.db.First(&stored, payment.ID).Error)
	assert.Equal(t, model.PaymentStatusPending, stored.Status)
	assert.Nil(t, stored.PaidAt)
	assert.Len(t, h.notificationsFor(h.offtaker), before)
}

func TestPaymentRead(t *testing.T) {
	h := newHarness(t)
	inv := draftInvoice(t, h, "250")
	payment, err := h.payments.Create(h.ctx(), CreatePaymentInput{Principal: h.as(h.offtaker), InvoiceID: inv.ID})
	require.NoError(t, err)

	got, err := h.payments.Get(h.ctx(), h.as(h.offtaker), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, got.ID)

	_, err = h.payments.Get(h.ctx(), h.as(h.investor), payment.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	list, err := h.payments.ListByInvoice(h.ctx(), h.as(h.admin), inv.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
