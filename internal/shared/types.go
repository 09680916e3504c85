package shared

import (
	"context"
	"time"
)

// shared types across the application
// 1st: delivery events produced by the notification service and pushed by the websocket hub
// 2nd: the publisher contract between both sides

const EventNotification = "notification"

// DeliveryEvent tells one user that a notification landed in their inbox.
type DeliveryEvent struct {
	Type         string                `json:"type"`
	UserID       string                `json:"user_id"`
	Notification DeliveredNotification `json:"notification"`
	SentAt       time.Time             `json:"sent_at"`
}

type DeliveredNotification struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	ActionURL *string    `json:"action_url,omitempty"`
	Priority  int        `json:"priority"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// DeliveryPublisher hands delivery events to whatever pushes them to clients.
type DeliveryPublisher interface {
	Publish(ctx context.Context, events []DeliveryEvent) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []DeliveryEvent) error { return nil }
