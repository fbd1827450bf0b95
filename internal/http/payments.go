package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/weshare-leasing/internal/model"
	"github.com/nurpe/weshare-leasing/internal/service"
)

type paymentView struct {
	model.Payment
	ScreenshotURL string `json:"screenshot_url,omitempty"`
}

func (h *Handler) paymentView(ctx context.Context, p *model.Payment) paymentView {
	return paymentView{Payment: *p, ScreenshotURL: h.link(ctx, p.ScreenshotKey)}
}

type createPaymentRequest struct {
	InvoiceID     int64        `json:"invoice_id" form:"invoice_id" binding:"required"`
	Amount        *flexDecimal `json:"amount" form:"amount"`
	ScreenshotKey string       `json:"screenshot_key" form:"screenshot_key"`
}

func (h *Handler) createPayment(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req createPaymentRequest
	if err := bindBody(c, &req); err != nil {
		h.handleError(c, err)
		return
	}
	amount, err := req.Amount.value("amount")
	if err != nil {
		h.handleError(c, err)
		return
	}
	upload, err := readUpload(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	payment, err := h.svc.Payments.Create(c.Request.Context(), service.CreatePaymentInput{
		Principal:     principal,
		InvoiceID:     req.InvoiceID,
		Amount:        amount,
		Screenshot:    upload,
		ScreenshotKey: req.ScreenshotKey,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusCreated, h.paymentView(c.Request.Context(), payment))
}

func (h *Handler) getPayment(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	payment, err := h.svc.Payments.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, h.paymentView(c.Request.Context(), payment))
}

func (h *Handler) listInvoicePayments(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	payments, err := h.svc.Payments.ListByInvoice(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	views := make([]paymentView, 0, len(payments))
	for i := range payments {
		views = append(views, h.paymentView(c.Request.Context(), &payments[i]))
	}
	respond(c, http.StatusOK, views)
}

func (h *Handler) markPaymentPaid(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	payment, err := h.svc.Payments.MarkPaid(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, h.paymentView(c.Request.Context(), payment))
}
