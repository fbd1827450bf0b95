package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/weshare-leasing/internal/model"
	"github.com/nurpe/weshare-leasing/internal/service"
)

type contractView struct {
	model.Contract
	DocumentURL       string `json:"document_url,omitempty"`
	SignedDocumentURL string `json:"signed_document_url,omitempty"`
}

func (h *Handler) contractView(ctx context.Context, c *model.Contract) contractView {
	return contractView{
		Contract:          *c,
		DocumentURL:       h.link(ctx, c.DocumentKey),
		SignedDocumentURL: h.link(ctx, c.SignedDocumentKey),
	}
}

type createContractRequest struct {
	ProjectID    int64   `json:"project_id" form:"project_id" binding:"required"`
	OfftakerID   *int64  `json:"offtaker_id" form:"offtaker_id"`
	InvestorID   *int64  `json:"investor_id" form:"investor_id"`
	Title        string  `json:"title" form:"title" binding:"required"`
	Description  string  `json:"description" form:"description"`
	ContractDate *string `json:"contract_date" form:"contract_date"`
	DocumentKey  string  `json:"document_key" form:"document_key"`
}

func (h *Handler) createContract(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req createContractRequest
	if err := bindBody(c, &req); err != nil {
		h.handleError(c, err)
		return
	}
	date, err := optionalDate(req.ContractDate, "contract_date")
	if err != nil {
		h.handleError(c, err)
		return
	}
	upload, err := readUpload(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	contract, err := h.svc.Contracts.Create(c.Request.Context(), service.CreateContractInput{
		Principal:    principal,
		ProjectID:    req.ProjectID,
		OfftakerID:   req.OfftakerID,
		InvestorID:   req.InvestorID,
		Title:        req.Title,
		Description:  req.Description,
		ContractDate: date,
		Document:     upload,
		DocumentKey:  req.DocumentKey,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusCreated, h.contractView(c.Request.Context(), contract))
}

func (h *Handler) getContract(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	contract, err := h.svc.Contracts.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, h.contractView(c.Request.Context(), contract))
}

func (h *Handler) listProjectContracts(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	contracts, err := h.svc.Contracts.ListByProject(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	views := make([]contractView, 0, len(contracts))
	for i := range contracts {
		views = append(views, h.contractView(c.Request.Context(), &contracts[i]))
	}
	respond(c, http.StatusOK, views)
}

type updateContractRequest struct {
	Title        *string `json:"title" form:"title"`
	Description  *string `json:"description" form:"description"`
	OfftakerID   *int64  `json:"offtaker_id" form:"offtaker_id"`
	InvestorID   *int64  `json:"investor_id" form:"investor_id"`
	ContractDate *string `json:"contract_date" form:"contract_date"`
	DocumentKey  *string `json:"document_key" form:"document_key"`
}

func (h *Handler) updateContract(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateContractRequest
	if err := bindBody(c, &req); err != nil {
		h.handleError(c, err)
		return
	}
	date, err := optionalDate(req.ContractDate, "contract_date")
	if err != nil {
		h.handleError(c, err)
		return
	}
	upload, err := readUpload(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	contract, err := h.svc.Contracts.Update(c.Request.Context(), service.UpdateContractInput{
		Principal:    principal,
		ID:           id,
		Title:        req.Title,
		Description:  req.Description,
		OfftakerID:   req.OfftakerID,
		InvestorID:   req.InvestorID,
		ContractDate: date,
		Document:     upload,
		DocumentKey:  req.DocumentKey,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, h.contractView(c.Request.Context(), contract))
}

type contractStatusRequest struct {
	Status *model.ContractStatus `json:"status" form:"status" binding:"required"`
	Reason string                `json:"reason" form:"reason"`
}

func (h *Handler) setContractStatus(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req contractStatusRequest
	if err := bindBody(c, &req); err != nil {
		h.handleError(c, err)
		return
	}
	upload, err := readUpload(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	contract, err := h.svc.Contracts.SetStatus(c.Request.Context(), service.SetContractStatusInput{
		Principal:      principal,
		ID:             id,
		Status:         *req.Status,
		Reason:         req.Reason,
		SignedDocument: upload,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, h.contractView(c.Request.Context(), contract))
}
