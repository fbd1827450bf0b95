package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/weshare-leasing/internal/service"
)

func (h *Handler) getProject(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	project, err := h.svc.Projects.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, project)
}

// A null or absent user id clears the assignment.
type assignUserRequest struct {
	UserID *int64 `json:"user_id"`
}

func (h *Handler) assignInvestor(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req assignUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.Projects.AssignInvestor(c.Request.Context(), service.AssignInvestorInput{
		Principal:  principal,
		ProjectID:  id,
		InvestorID: req.UserID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}

func (h *Handler) assignOfftaker(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req assignUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.svc.Projects.AssignOfftaker(c.Request.Context(), principal, id, req.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, project)
}
