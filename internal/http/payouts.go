package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/weshare-leasing/internal/model"
	"github.com/nurpe/weshare-leasing/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type payoutView struct {
	model.Payout
	PayoutNumberFull string `json:"payout_number_full"`
	DocumentURL      string `json:"document_url,omitempty"`
}

func (h *Handler) payoutView(ctx context.Context, p *model.Payout) payoutView {
	return payoutView{Payout: *p, PayoutNumberFull: p.Number(), DocumentURL: h.link(ctx, p.DocumentKey)}
}

type createPayoutRequest struct {
	InvoiceID     int64  `json:"invoice_id" form:"invoice_id" binding:"required"`
	ProjectID     int64  `json:"project_id" form:"project_id"`
	TransactionID string `json:"transaction_id" form:"transaction_id"`
	DocumentKey   string `json:"document_key" form:"document_key"`
}

func (h *Handler) createPayout(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req createPayoutRequest
	if err := bindBody(c, &req); err != nil {
		h.handleError(c, err)
		return
	}
	upload, err := readUpload(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	payout, err := h.svc.Payouts.Create(c.Request.Context(), service.CreatePayoutInput{
		Principal:     principal,
		InvoiceID:     req.InvoiceID,
		ProjectID:     req.ProjectID,
		TransactionID: req.TransactionID,
		Document:      upload,
		DocumentKey:   req.DocumentKey,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusCreated, h.payoutView(c.Request.Context(), payout))
}

type updatePayoutRequest struct {
	TransactionID *string `json:"transaction_id" form:"transaction_id"`
	Status        string  `json:"status" form:"status"`
	PayoutDate    *string `json:"payout_date" form:"payout_date"`
}

func (h *Handler) updatePayout(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updatePayoutRequest
	if err := bindBody(c, &req); err != nil {
		h.handleError(c, err)
		return
	}
	status := model.PayoutStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if status != "" && status != model.PayoutStatusPaid && status != model.PayoutStatusPending {
		fail(c, http.StatusBadRequest, "status must be pending or paid")
		return
	}
	payoutDate, err := optionalDate(req.PayoutDate, "payout_date")
	if err != nil {
		h.handleError(c, err)
		return
	}
	upload, err := readUpload(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	payout, err := h.svc.Payouts.Update(c.Request.Context(), service.UpdatePayoutInput{
		Principal:     principal,
		ID:            id,
		TransactionID: req.TransactionID,
		Document:      upload,
		MarkPaid:      status == model.PayoutStatusPaid,
		PayoutDate:    payoutDate,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, h.payoutView(c.Request.Context(), payout))
}

func (h *Handler) getPayout(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	payout, err := h.svc.Payouts.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, h.payoutView(c.Request.Context(), payout))
}

func (h *Handler) listPayouts(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	filter, err := payoutFilter(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	payouts, err := h.svc.Payouts.List(c.Request.Context(), principal, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	views := make([]payoutView, 0, len(payouts))
	for i := range payouts {
		views = append(views, h.payoutView(c.Request.Context(), &payouts[i]))
	}
	respond(c, http.StatusOK, views)
}

func payoutFilter(c *gin.Context) (service.PayoutFilter, error) {
	var filter service.PayoutFilter
	var err error
	if filter.InvestorID, err = queryID(c, "investor_id"); err != nil {
		return filter, err
	}
	if filter.ProjectID, err = queryID(c, "project_id"); err != nil {
		return filter, err
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := model.PayoutStatus(strings.ToLower(raw))
		filter.Status = &status
	}
	if filter.Year, err = queryInt(c, "year"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *Handler) exportPayouts(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	investorID, err := queryID(c, "investor_id")
	if err != nil {
		h.handleError(c, err)
		return
	}
	year, err := queryInt(c, "year")
	if err != nil {
		h.handleError(c, err)
		return
	}
	var id int64
	if investorID != nil {
		id = *investorID
	}

	content, fileName, err := h.svc.Payouts.ExportStatement(c.Request.Context(), principal, id, year)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendFile(c, xlsxContentType, fileName, content)
}

func (h *Handler) deletePayout(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Payouts.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "payout deleted")
}
