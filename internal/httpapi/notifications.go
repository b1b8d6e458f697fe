package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"communityhub/internal/auth"
	"communityhub/internal/notifications"
)

// ListNotifications returns the caller's notifications, newest first.
func (h *Handler) ListNotifications(c *gin.Context) {
	claims := auth.FromContext(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	list, err := h.notifs.List(c.Request.Context(), claims.Subject, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// MarkNotificationRead flags one of the caller's notifications read.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	claims := auth.FromContext(c)
	err := h.notifs.MarkRead(c.Request.Context(), claims.Subject, c.Param("id"))
	if err != nil {
		if errors.Is(err, notifications.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllNotificationsRead flags every unread notification of the caller read.
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	claims := auth.FromContext(c)
	n, err := h.notifs.MarkAllRead(c.Request.Context(), claims.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}

// UnreadNotifications returns the caller's unread count.
func (h *Handler) UnreadNotifications(c *gin.Context) {
	claims := auth.FromContext(c)
	count, err := h.notifs.UnreadCount(c.Request.Context(), claims.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}
