package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/weshare-leasing/internal/model"
	"github.com/nurpe/weshare-leasing/internal/testutil"
	"github.com/nurpe/weshare-leasing/internal/testutil/mailtest"
)

func TestContractCreate_DefaultsToPendingAndNotifiesParties(t *testing.T) {
	h := newHarness(t)

	c, err := h.contracts.Create(h.ctx(), CreateContractInput{
		Principal: h.as(h.admin),
		ProjectID: h.project.ID,
		Title:     "Lease agreement",
		Document:  pdfUpload("lease.pdf"),
	})
	require.NoError(t, err)

	var stored model.Contract
	require.NoError(t, h.db.First(&stored, c.ID).Error)
	assert.Equal(t, model.ContractStatusPending, stored.Status)
	assert.Nil(t, stored.RejectReason)
	assert.True(t, h.blobs.Has(stored.DocumentKey))
	require.NotNil(t, stored.OfftakerID)
	assert.Equal(t, h.offtaker.ID, *stored.OfftakerID)
	assert.Equal(t, int64(1), h.count(&model.Contract{}))

	require.Len(t, h.notificationsFor(h.offtaker), 1)
	require.Len(t, h.notificationsFor(h.investor), 1)
	assert.Len(t, h.notificationsFor(h.admin), 1)

	offtakerMail := h.sender.To(h.offtaker.Email)
	require.Len(t, offtakerMail, 1)
	assert.Equal(t, "contract_created_offtaker:en", offtakerMail[0].Subject)
	require.Len(t, offtakerMail[0].Attachments, 1)
	assert.Contains(t, offtakerMail[0].Attachments[0].URL, stored.DocumentKey)
	assert.Equal(t, "contract_created_investor:en", h.sender.To(h.investor.Email)[0].Subject)
}

func TestContractCreate_EmailFailureKeepsSingleRow(t *testing.T) {
	h := newHarness(t)
	h.sender.Fail = mailtest.ErrSMTPDown

	_, err := h.contracts.Create(h.ctx(), CreateContractInput{
		Principal: h.as(h.admin),
		ProjectID: h.project.ID,
		Title:     "Lease agreement",
	})
	require.NoError(t, err)

	var contracts []model.Contract
	require.NoError(t, h.db.Find(&contracts).Error)
	require.Len(t, contracts, 1)
	assert.Equal(t, model.ContractStatusPending, contracts[0].Status)
	assert.Equal(t, 2, h.scheduler.Failures())
}

func TestContractCreate_UploadFailureAbortsBeforePersisting(t *testing.T) {
	h := newHarness(t)
	h.blobs.FailPut = testutil.ErrBlobDown

	_, err := h.contracts.Create(h.ctx(), CreateContractInput{
		Principal: h.as(h.admin),
		ProjectID: h.project.ID,
		Title:     "Lease agreement",
		Document:  pdfUpload("lease.pdf"),
	})
	assert.ErrorIs(t, err, ErrDependency)
	assert.Zero(t, h.count(&model.Contract{}))
	assert.Empty(t, h.notificationsFor(h.offtaker))
}

func TestContractCreate_Validation(t *testing.T) {
	h := newHarness(t)

	_, err := h.contracts.Create(h.ctx(), CreateContractInput{Principal: h.as(h.admin), ProjectID: h.project.ID, Title: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.contracts.Create(h.ctx(), CreateContractInput{Principal: h.as(h.offtaker), ProjectID: h.project.ID, Title: "x"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = h.contracts.Create(h.ctx(), CreateContractInput{Principal: h.as(h.admin), ProjectID: 404, Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.contracts.Create(h.ctx(), CreateContractInput{Principal: h.as(h.admin), ProjectID: h.project.ID, Title: "x", InvestorID: &h.offtaker.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestContractCreate_PreSuppliedDocumentKey(t *testing.T) {
	h := newHarness(t)

	c, err := h.contracts.Create(h.ctx(), CreateContractInput{
		Principal:   h.as(h.admin),
		ProjectID:   h.project.ID,
		Title:       "Lease",
		DocumentKey: "contracts/existing.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "contracts/existing.pdf", c.DocumentKey)
	assert.Zero(t, h.blobs.Len())
}

func TestContractStatus_RejectStoresReasonApproveClearsIt(t *testing.T) {
	h := newHarness(t)
	c, err := h.contracts.Create(h.ctx(), CreateContractInput{Principal: h.as(h.admin), ProjectID: h.project.ID, Title: "Lease"})
	require.NoError(t, err)

	rejected, err := h.contracts.SetStatus(h.ctx(), SetContractStatusInput{
		Principal: h.as(h.admin),
		ID:        c.ID,
		Status:    model.ContractStatusRejected,
		Reason:    "missing docs",
	})
	require.NoError(t, err)
	require.NotNil(t, rejected.RejectReason)
	assert.Equal(t, "missing docs", *rejected.RejectReason)

	offtakerNotes := h.notificationsFor(h.offtaker)
	assert.Contains(t, offtakerNotes[len(offtakerNotes)-1].Message, "missing docs")

	approved, err := h.contracts.SetStatus(h.ctx(), SetContractStatusInput{
		Principal:      h.as(h.admin),
		ID:             c.ID,
		Status:         model.ContractStatusApproved,
		SignedDocument: pdfUpload("signed.pdf"),
	})
	require.NoError(t, err)
	assert.Nil(t, approved.RejectReason)
	assert.Equal(t, model.ContractStatusApproved, approved.Status)
	assert.True(t, h.blobs.Has(approved.SignedDocumentKey))

	adminMail := h.sender.To(h.admin.Email)
	require.Len(t, adminMail, 1)
	assert.Equal(t, "contract_approved_admin:en", adminMail[0].Subject)
	require.Len(t, adminMail[0].Attachments, 1)
}

func TestContractStatus_ApproveReplacesSignedDocument(t *testing.T) {
	h := newHarness(t)
	c, err := h.contracts.Create(h.ctx(), CreateContractInput{Principal: h.as(h.admin), ProjectID: h.project.ID, Title: "Lease"})
	require.NoError(t, err)

	first, err := h.contracts.SetStatus(h.ctx(), SetContractStatusInput{Principal: h.as(h.admin), ID: c.ID, Status: model.ContractStatusApproved, SignedDocument: pdfUpload("v1.pdf")})
	require.NoError(t, err)

	second, err := h.contracts.SetStatus(h.ctx(), SetContractStatusInput{Principal: h.as(h.admin), ID: c.ID, Status: model.ContractStatusApproved, SignedDocument: pdfUpload("v2.pdf")})
	require.NoError(t, err)

	assert.NotEqual(t, first.SignedDocumentKey, second.SignedDocumentKey)
	assert.False(t, h.blobs.Has(first.SignedDocumentKey))
	assert.True(t, h.blobs.Has(second.SignedDocumentKey))
	assert.Equal(t, 1, h.blobs.Len())
}

func TestContractStatus_ReapprovalNeedsNewSignedDocument(t *testing.T) {
	h := newHarness(t)
	c, err := h.contracts.Create(h.ctx(), CreateContractInput{Principal: h.as(h.admin), ProjectID: h.project.ID, OfftakerID: &h.offtaker.ID, Title: "Lease"})
	require.NoError(t, err)
	approved, err := h.contracts.SetStatus(h.ctx(), SetContractStatusInput{Principal: h.as(h.admin), ID: c.ID, Status: model.ContractStatusApproved, SignedDocument: pdfUpload("v1.pdf")})
	require.NoError(t, err)
	notes := len(h.notificationsFor(h.offtaker))
	mail := len(h.sender.To(h.offtaker.Email))

	_, err = h.contracts.SetStatus(h.ctx(), SetContractStatusInput{Principal: h.as(h.admin), ID: c.ID, Status: model.ContractStatusApproved})
	assert.ErrorIs(t, err, ErrInvalidInput)

	var stored model.Contract
	require.NoError(t, h.db.First(&stored, c.ID).Error)
	assert.Equal(t, approved.SignedDocumentKey, stored.SignedDocumentKey)
	assert.Len(t, h.notificationsFor(h.offtaker), notes)
	assert.Len(t, h.sender.To(h.offtaker.Email), mail)
}

func TestContractStatus_Rules(t *testing.T) {
	h := newHarness(t)
	c, err := h.contracts.Create(h.ctx(), CreateContractInput{Principal: h.as(h.admin), ProjectID: h.project.ID, Title: "Lease"})
	require.NoError(t, err)

	_, err = h.contracts.SetStatus(h.ctx(), SetContractStatusInput{Principal: h.as(h.admin), ID: c.ID, Status: model.ContractStatusRejected})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.contracts.SetStatus(h.ctx(), SetContractStatusInput{Principal: h.as(h.admin), ID: c.ID, Status: model.ContractStatus(7)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.contracts.SetStatus(h.ctx(), SetContractStatusInput{Principal: h.as(h.investor), ID: c.ID, Status: model.ContractStatusApproved})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	cancelled, err := h.contracts.SetStatus(h.ctx(), SetContractStatusInput{Principal: h.as(h.admin), ID: c.ID, Status: model.ContractStatusCancelled})
	require.NoError(t, err)
	assert.Nil(t, cancelled.RejectReason)

	_, err = h.contracts.SetStatus(h.ctx(), SetContractStatusInput{Principal: h.as(h.admin), ID: c.ID, Status: model.ContractStatusApproved})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestContractStatus_SignedUploadFailureKeepsStatus(t *testing.T) {
	h := newHarness(t)
	c, err := h.contracts.Create(h.ctx(), CreateContractInput{Principal: h.as(h.admin), ProjectID: h.project.ID, Title: "Lease"})
	require.NoError(t, err)
	h.blobs.FailPut = testutil.ErrBlobDown

	_, err = h.contracts.SetStatus(h.ctx(), SetContractStatusInput{Principal: h.as(h.admin), ID: c.ID, Status: model.ContractStatusApproved, SignedDocument: pdfUpload("s.pdf")})
	assert.ErrorIs(t, err, ErrDependency)

	var stored model.Contract
	require.NoError(t, h.db.First(&stored, c.ID).Error)
	assert.Equal(t, model.ContractStatusPending, stored.Status)
}

func TestContractUpdate_ReplacesDocumentWithoutNotifying(t *testing.T) {
	h := newHarness(t)
	c, err := h.contracts.Create(h.ctx(), CreateContractInput{Principal: h.as(h.admin), ProjectID: h.project.ID, Title: "Lease", Document: pdfUpload("v1.pdf")})
	require.NoError(t, err)
	before := len(h.notificationsFor(h.offtaker))
	oldKey := c.DocumentKey

	title := "Lease v2"
	updated, err := h.contracts.Update(h.ctx(), UpdateContractInput{Principal: h.as(h.admin), ID: c.ID, Title: &title, Document: pdfUpload("v2.pdf")})
	require.NoError(t, err)

	assert.Equal(t, "Lease v2", updated.Title)
	assert.NotEqual(t, oldKey, updated.DocumentKey)
	assert.False(t, h.blobs.Has(oldKey))
	assert.True(t, h.blobs.Has(updated.DocumentKey))
	assert.Equal(t, model.ContractStatusPending, updated.Status)
	assert.Len(t, h.notificationsFor(h.offtaker), before)
}

func TestContractUpdate_OldDocumentDeleteFailureIsSwallowed(t *testing.T) {
	h := newHarness(t)
	c, err := h.contracts.Create(h.ctx(), CreateContractInput{Principal: h.as(h.admin), ProjectID: h.project.ID, Title: "Lease", Document: pdfUpload("v1.pdf")})
	require.NoError(t, err)
	h.blobs.FailDelete = testutil.ErrBlobDown

	updated, err := h.contracts.Update(h.ctx(), UpdateContractInput{Principal: h.as(h.admin), ID: c.ID, Document: pdfUpload("v2.pdf")})
	require.NoError(t, err)
	assert.NotEqual(t, c.DocumentKey, updated.DocumentKey)
	assert.Equal(t, int64(1), h.docs.OrphanCount())
}

func TestContractRead_PartiesOnly(t *testing.T) {
	h := newHarness(t)
	c, err := h.contracts.Create(h.ctx(), CreateContractInput{Principal: h.as(h.admin), ProjectID: h.project.ID, Title: "Lease"})
	require.NoError(t, err)

	_, err = h.contracts.Get(h.ctx(), h.as(h.offtaker), c.ID)
	assert.NoError(t, err)
	_, err = h.contracts.Get(h.ctx(), h.as(h.investor2), c.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	list, err := h.contracts.ListByProject(h.ctx(), h.as(h.investor2), h.project.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = h.contracts.ListByProject(h.ctx(), h.as(h.investor), h.project.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
