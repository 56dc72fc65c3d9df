package handlers

import (
	"net/http"
	"strings"

	"deployhub/middleware"
	"deployhub/models"
	"deployhub/services/notification"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	Service notification.NotificationService
}

func NewNotificationHandler(svc notification.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: svc}
}

// CreateNotificationHandler lets admins queue a notification directly.
func (h *NotificationHandler) CreateNotificationHandler(c *gin.Context) {
	var in models.CreateNotificationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	n, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *NotificationHandler) ListNotificationsHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var filter models.NotificationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters", "details": err.Error()})
		return
	}
	filter.Types = splitTypes(filter.Types)
	if !middleware.IsAdmin(c) || (filter.UserID == "" && c.Query("all") != "true") {
		filter.UserID = userID
	}

	page, err := h.Service.FindAll(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *NotificationHandler) GetNotificationHandler(c *gin.Context) {
	n, ok := h.loadOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, n)
}

// UpdateNotificationHandler applies a partial update. Non-admins may only change the read flag.
func (h *NotificationHandler) UpdateNotificationHandler(c *gin.Context) {
	var in models.UpdateNotificationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	if !middleware.IsAdmin(c) && (in.Subject != nil || in.Message != nil || in.Recipient != nil ||
		in.Template != nil || in.Data != nil || in.Status != nil || in.Error != nil) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the read flag can be updated"})
		return
	}
	if _, ok := h.loadOwned(c); !ok {
		return
	}

	n, err := h.Service.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) MarkAsReadHandler(c *gin.Context) {
	if _, ok := h.loadOwned(c); !ok {
		return
	}
	n, err := h.Service.MarkAsRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllAsReadHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	affected, err := h.Service.MarkAllAsRead(c.Request.Context(), userID, queryTypes(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affected": affected})
}

func (h *NotificationHandler) UnreadCountHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	count, err := h.Service.CountUnread(c.Request.Context(), userID, queryTypes(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *NotificationHandler) DeleteNotificationHandler(c *gin.Context) {
	if _, ok := h.loadOwned(c); !ok {
		return
	}
	if err := h.Service.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// loadOwned fetches the notification in the path. Another user's notification is reported as missing.
func (h *NotificationHandler) loadOwned(c *gin.Context) (*models.Notification, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	n, err := h.Service.FindOne(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if n.UserID != userID && !middleware.IsAdmin(c) {
		respondError(c, notification.ErrNotFound)
		return nil, false
	}
	return n, true
}

func queryTypes(c *gin.Context) []models.NotificationType {
	var types []models.NotificationType
	for _, t := range c.QueryArray("types") {
		types = append(types, models.NotificationType(t))
	}
	return splitTypes(types)
}

// splitTypes accepts both repeated and comma separated type parameters.
func splitTypes(in []models.NotificationType) []models.NotificationType {
	var out []models.NotificationType
	for _, t := range in {
		for _, part := range strings.Split(string(t), ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, models.NotificationType(strings.ToUpper(part)))
			}
		}
	}
	return out
}
