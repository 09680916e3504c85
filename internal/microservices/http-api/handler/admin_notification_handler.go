package handler

import (
	"errors"
	"fmt"
	"net/http"

	"inboxhub/internal/microservices/http-api/dto"
	"inboxhub/internal/microservices/http-api/middleware"
	"inboxhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// AdminNotificationHandler manages notification content and fan-out.
// Routes are expected behind AuthMiddleware and RequireAdmin.
type AdminNotificationHandler struct {
	svc service.NotificationService
}

func NewAdminNotificationHandler(svc service.NotificationService) *AdminNotificationHandler {
	return &AdminNotificationHandler{svc: svc}
}

func (h *AdminNotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/send", h.Send)
}

func (h *AdminNotificationHandler) Create(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notification, err := h.svc.Create(c.Request.Context(), req, c.GetString(middleware.ContextUserID))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromNotificationModel(notification))
}

func (h *AdminNotificationHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notifications, total, err := h.svc.List(c.Request.Context(), query.Skip, query.Limit)
	if err != nil {
		internalError(c, err)
		return
	}

	items := make([]dto.NotificationResponse, len(notifications))
	for i := range notifications {
		items[i] = dto.FromNotificationModel(&notifications[i])
	}
	c.JSON(http.StatusOK, dto.NotificationListResponse{
		Total: total,
		Skip:  query.Skip,
		Limit: query.Limit,
		Items: items,
	})
}

func (h *AdminNotificationHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	notification, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromNotificationModel(notification))
}

func (h *AdminNotificationHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notification, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromNotificationModel(notification))
}

func (h *AdminNotificationHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Send fans the notification out to the listed users or to everyone.
func (h *AdminNotificationHandler) Send(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req dto.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sent, err := h.svc.Send(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SendNotificationResponse{
		Message:   fmt.Sprintf("sent to %d users", sent),
		SentCount: sent,
	})
}

func (h *AdminNotificationHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotificationExpired):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoRecipients),
		errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidNotification):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		internalError(c, err)
	}
}
