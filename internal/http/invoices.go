package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/nurpe/weshare-leasing/internal/model"
	"github.com/nurpe/weshare-leasing/internal/service"
)

type invoiceItemRequest struct {
	Item  string          `json:"item"`
	Unit  int             `json:"unit"`
	Price decimal.Decimal `json:"price"`
}

type invoiceRequest struct {
	ProjectID   int64                `json:"project_id" binding:"required"`
	OfftakerID  int64                `json:"offtaker_id" binding:"required"`
	Status      *model.InvoiceStatus `json:"status"`
	Amount      *decimal.Decimal     `json:"amount"`
	TaxAmount   *decimal.Decimal     `json:"tax_amount"`
	TotalAmount *decimal.Decimal     `json:"total_amount"`
	InvoiceDate *string              `json:"invoice_date"`
	DueDate     *string              `json:"due_date"`
	Notes       string               `json:"notes"`
	Items       []invoiceItemRequest `json:"items"`
}

func (r invoiceRequest) input() (service.InvoiceInput, error) {
	invoiceDate, err := optionalDate(r.InvoiceDate, "invoice_date")
	if err != nil {
		return service.InvoiceInput{}, err
	}
	dueDate, err := optionalDate(r.DueDate, "due_date")
	if err != nil {
		return service.InvoiceInput{}, err
	}
	items := make([]service.InvoiceItemInput, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, service.InvoiceItemInput{Item: it.Item, Unit: it.Unit, Price: it.Price})
	}
	return service.InvoiceInput{
		ProjectID:   r.ProjectID,
		OfftakerID:  r.OfftakerID,
		Status:      r.Status,
		Amount:      r.Amount,
		TaxAmount:   r.TaxAmount,
		TotalAmount: r.TotalAmount,
		InvoiceDate: invoiceDate,
		DueDate:     dueDate,
		Notes:       r.Notes,
		Items:       items,
	}, nil
}

func (h *Handler) createInvoice(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	input, err := req.input()
	if err != nil {
		h.handleError(c, err)
		return
	}

	invoice, err := h.svc.Invoices.Create(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusCreated, invoice)
}

func (h *Handler) updateInvoice(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	input, err := req.input()
	if err != nil {
		h.handleError(c, err)
		return
	}

	invoice, err := h.svc.Invoices.Update(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, invoice)
}

func (h *Handler) listInvoices(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	filter, err := invoiceFilter(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	list, err := h.svc.Invoices.List(c.Request.Context(), principal, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

func invoiceFilter(c *gin.Context) (service.InvoiceFilter, error) {
	var filter service.InvoiceFilter
	var err error
	if filter.ProjectID, err = queryID(c, "project_id"); err != nil {
		return filter, err
	}
	if filter.OfftakerID, err = queryID(c, "offtaker_id"); err != nil {
		return filter, err
	}
	if raw := c.Query("status"); raw != "" {
		v, err := queryInt(c, "status")
		if err != nil {
			return filter, err
		}
		status := model.InvoiceStatus(v)
		filter.Status = &status
	}
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(c, "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *Handler) getInvoice(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	invoice, err := h.svc.Invoices.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, invoice)
}

func (h *Handler) nextInvoiceNumber(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	if !principal.IsPrivileged() {
		h.handleError(c, service.ErrPermissionDenied)
		return
	}
	number, err := h.svc.Invoices.NextNumber(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"invoice_number": number})
}

func (h *Handler) invoicePDF(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	content, fileName, err := h.svc.Invoices.RenderPDF(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendFile(c, "application/pdf", fileName, content)
}

func (h *Handler) deleteInvoice(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Invoices.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "invoice deleted")
}
