package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listNotifications(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.handleError(c, err)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		h.handleError(c, err)
		return
	}
	unreadOnly := c.Query("unread") == "true" || c.Query("unread") == "1"

	items, err := h.svc.Notifications.List(c.Request.Context(), principal, unreadOnly, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, items)
}

func (h *Handler) unreadNotifications(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	count, err := h.svc.Notifications.UnreadCount(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"count": count})
}

func (h *Handler) readNotification(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Notifications.MarkRead(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "notification marked as read")
}

func (h *Handler) readAllNotifications(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	updated, err := h.svc.Notifications.MarkAllRead(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"updated": updated})
}

func (h *Handler) deleteNotification(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Notifications.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "notification deleted")
}
