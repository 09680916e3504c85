package handler

import (
	"errors"
	"net/http"

	"inboxhub/internal/microservices/http-api/dto"
	"inboxhub/internal/microservices/http-api/middleware"
	"inboxhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NotificationHandler serves the authenticated user's inbox.
type NotificationHandler struct {
	svc service.InboxService
}

func NewNotificationHandler(svc service.InboxService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// RegisterRoutes mounts the inbox routes. Static paths come before :record_id.
func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/unread-count", h.UnreadCount)
	rg.POST("/read-all", h.MarkAllRead)
	rg.GET("/:record_id", h.Detail)
	rg.POST("/:record_id/read", h.MarkRead)
	rg.DELETE("/:record_id", h.Delete)
}

// List returns one page of the inbox together with the unread count
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var query dto.InboxQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.svc.List(c.Request.Context(), userID, query)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := h.svc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UnreadCountResponse{UnreadCount: count})
}

// MarkAllRead marks all visible notifications as read for the user
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := h.svc.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MarkAllReadResponse{Message: "all notifications marked as read", Count: count})
}

func (h *NotificationHandler) Detail(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	recordID, ok := uuidParam(c, "record_id")
	if !ok {
		return
	}

	record, err := h.svc.Detail(c.Request.Context(), userID, recordID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// MarkRead marks a specific notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	recordID, ok := uuidParam(c, "record_id")
	if !ok {
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), userID, recordID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	recordID, ok := uuidParam(c, "record_id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, recordID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, service.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	internalError(c, err)
}

func currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return "", false
	}
	return userID, true
}

// uuidParam reads a path id, answering 400 when it is not a UUID.
func uuidParam(c *gin.Context, name string) (string, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return "", false
	}
	return id.String(), true
}
