package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	TypeSystem       NotificationType = "system"
	TypeBusiness     NotificationType = "business"
	TypeReminder     NotificationType = "reminder"
	TypeAnnouncement NotificationType = "announcement"
)

func (t NotificationType) Valid() bool {
	switch t {
	case TypeSystem, TypeBusiness, TypeReminder, TypeAnnouncement:
		return true
	}
	return false
}

// Priority levels
const (
	PriorityNormal    = 0
	PriorityImportant = 1
	PriorityUrgent    = 2
)

// Notification is the content written once by an administrator and fanned
// out to users through NotificationRecord rows.
type Notification struct {
	ID        string           `gorm:"primaryKey;type:uuid" json:"id"`
	Type      NotificationType `gorm:"size:50;not null;index" json:"type"`
	Title     string           `gorm:"size:200;not null" json:"title"`
	Content   string           `gorm:"type:text;not null" json:"content"`
	ActionURL *string          `gorm:"size:500" json:"action_url,omitempty"`
	Priority  int              `gorm:"not null;default:0" json:"priority"`
	CreatedBy *string          `gorm:"type:uuid;index" json:"created_by,omitempty"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`

	// Associations
	Creator *User                `gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL" json:"-"`
	Records []NotificationRecord `gorm:"foreignKey:NotificationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return
}

// IsExpired reports whether the notification stopped being visible at now.
func (n *Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && !n.ExpiresAt.After(now)
}

func (Notification) TableName() string {
	return "notifications"
}
