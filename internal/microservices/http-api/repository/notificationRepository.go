package repository

import (
	"context"

	"inboxhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// NotificationRepository stores the notification content managed by administrators.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	List(ctx context.Context, offset, limit int) ([]models.Notification, int64, error)
	Save(ctx context.Context, notification *models.Notification) error
	// Delete removes the notification together with all of its delivery records.
	Delete(ctx context.Context, id string) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.WithContext(ctx).First(&notification, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) List(ctx context.Context, offset, limit int) ([]models.Notification, int64, error) {
	var (
		notifications []models.Notification
		total         int64
	)
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Notification{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Order("id").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error
	return notifications, total, err
}

func (r *notificationRepository) Save(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Omit("Creator", "Records").Save(notification).Error
}

func (r *notificationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// explicit delete so SQLite (no FK enforcement by default) matches the Postgres cascade
		if err := tx.Where("notification_id = ?", id).Delete(&models.NotificationRecord{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Notification{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
