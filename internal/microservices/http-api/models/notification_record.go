package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRecord is one user's copy of a notification. A user holds at
// most one record per notification (unique_notification_user). Deleting is
// soft: IsDeleted hides the row from the inbox but keeps it for auditing.
type NotificationRecord struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	NotificationID string     `gorm:"type:uuid;not null;index;uniqueIndex:unique_notification_user,priority:1" json:"notification_id"`
	UserID         string     `gorm:"type:uuid;not null;index;uniqueIndex:unique_notification_user,priority:2" json:"user_id"`
	IsRead         bool       `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	IsDeleted      bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`

	// Associations
	Notification *Notification `gorm:"foreignKey:NotificationID" json:"notification,omitempty"`
	User         *User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (r *NotificationRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

func (NotificationRecord) TableName() string {
	return "notification_records"
}
