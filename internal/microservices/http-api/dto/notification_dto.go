package dto

import (
	"time"

	"inboxhub/internal/microservices/http-api/models"
)

// CreateNotificationRequest: payload for POST /admin/notifications
type CreateNotificationRequest struct {
	Type      string     `json:"type" binding:"required,oneof=system business reminder announcement"`
	Title     string     `json:"title" binding:"required,min=1,max=200"`
	Content   string     `json:"content" binding:"required,min=1"`
	ActionURL *string    `json:"action_url" binding:"omitempty,max=500"`
	Priority  int        `json:"priority" binding:"min=0,max=2"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// UpdateNotificationRequest: only non-nil fields are applied
type UpdateNotificationRequest struct {
	Type      *string    `json:"type" binding:"omitempty,oneof=system business reminder announcement"`
	Title     *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Content   *string    `json:"content" binding:"omitempty,min=1"`
	ActionURL *string    `json:"action_url" binding:"omitempty,max=500"`
	Priority  *int       `json:"priority" binding:"omitempty,min=0,max=2"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// SendNotificationRequest: user_ids is ignored when send_to_all is set
type SendNotificationRequest struct {
	UserIDs   []string `json:"user_ids"`
	SendToAll bool     `json:"send_to_all"`
}

type SendNotificationResponse struct {
	Message   string `json:"message"`
	SentCount int64  `json:"sent_count"`
}

type NotificationResponse struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	ActionURL *string    `json:"action_url,omitempty"`
	Priority  int        `json:"priority"`
	CreatedBy *string    `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func FromNotificationModel(n *models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Content:   n.Content,
		ActionURL: n.ActionURL,
		Priority:  n.Priority,
		CreatedBy: n.CreatedBy,
		CreatedAt: n.CreatedAt,
		ExpiresAt: n.ExpiresAt,
	}
}

type NotificationListResponse struct {
	Total int64                  `json:"total"`
	Skip  int                    `json:"skip"`
	Limit int                    `json:"limit"`
	Items []NotificationResponse `json:"items"`
}

// RecordResponse is one inbox entry: the user's delivery state plus the content.
type RecordResponse struct {
	ID           string               `json:"id"`
	Notification NotificationResponse `json:"notification"`
	IsRead       bool                 `json:"is_read"`
	ReadAt       *time.Time           `json:"read_at,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

func FromRecordModel(r *models.NotificationRecord) RecordResponse {
	resp := RecordResponse{
		ID:        r.ID,
		IsRead:    r.IsRead,
		ReadAt:    r.ReadAt,
		CreatedAt: r.CreatedAt,
	}
	if r.Notification != nil {
		resp.Notification = FromNotificationModel(r.Notification)
	}
	return resp
}

type InboxListResponse struct {
	Total       int64            `json:"total"`
	UnreadCount int64            `json:"unread_count"`
	Page        int              `json:"page"`
	PageSize    int              `json:"page_size"`
	Items       []RecordResponse `json:"items"`
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

type MarkAllReadResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}
