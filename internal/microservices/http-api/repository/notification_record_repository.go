package repository

import (
	"context"
	"time"

	"inboxhub/internal/microservices/http-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InboxFilter narrows a user's inbox listing.
type InboxFilter struct {
	IsRead *bool
	Type   string
	Offset int
	Limit  int
	// Now decides which notifications count as expired.
	Now time.Time
}

// NotificationRecordRepository tracks per-user delivery state. Every read,
// count and mutation skips soft-deleted records.
type NotificationRecordRepository interface {
	// Deliver inserts one record per user that does not hold one yet and
	// returns the number of inserted rows with the users those rows belong
	// to. Rows a concurrent send inserted first are not reported.
	Deliver(ctx context.Context, notificationID string, userIDs []string) (int64, []string, error)
	ListForUser(ctx context.Context, userID string, filter InboxFilter) ([]models.NotificationRecord, int64, error)
	// CountUnread also returns the earliest expiry among the counted
	// records, the moment the count goes stale on its own.
	CountUnread(ctx context.Context, userID string, now time.Time) (count int64, nextExpiry *time.Time, err error)
	FindForUser(ctx context.Context, userID, recordID string) (*models.NotificationRecord, error)
	MarkRead(ctx context.Context, recordID string, at time.Time) (int64, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	// SoftDelete hides a record. It returns gorm.ErrRecordNotFound when the
	// user owns no such record and changed=false when it was already deleted.
	SoftDelete(ctx context.Context, userID, recordID string, at time.Time) (changed bool, err error)
	RecipientIDs(ctx context.Context, notificationID string) ([]string, error)
}

type notificationRecordRepository struct {
	db *gorm.DB
}

func NewNotificationRecordRepository(db *gorm.DB) NotificationRecordRepository {
	return &notificationRecordRepository{db: db}
}

func (r *notificationRecordRepository) Deliver(ctx context.Context, notificationID string, userIDs []string) (int64, []string, error) {
	if len(userIDs) == 0 {
		return 0, nil, nil
	}

	var (
		inserted int64
		targets  []string
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&models.NotificationRecord{}).
			Where("notification_id = ? AND user_id IN ?", notificationID, userIDs).
			Pluck("user_id", &existing).Error; err != nil {
			return err
		}
		held := make(map[string]struct{}, len(existing))
		for _, id := range existing {
			held[id] = struct{}{}
		}

		records := make([]models.NotificationRecord, 0, len(userIDs))
		ids := make([]string, 0, len(userIDs))
		for _, uid := range userIDs {
			if _, ok := held[uid]; ok {
				continue
			}
			id := uuid.New().String()
			records = append(records, models.NotificationRecord{ID: id, NotificationID: notificationID, UserID: uid})
			ids = append(ids, id)
		}
		if len(records) == 0 {
			return nil
		}

		// a concurrent send may have inserted some of these rows since the
		// lookup above, DO NOTHING keeps the unique pair intact
		res := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "notification_id"}, {Name: "user_id"}},
				DoNothing: true,
			}).
			Create(&records)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		// only the rows that carry our ids were written by this call
		var written []string
		if err := tx.Model(&models.NotificationRecord{}).
			Where("id IN ?", ids).
			Pluck("user_id", &written).Error; err != nil {
			return err
		}
		ours := make(map[string]struct{}, len(written))
		for _, uid := range written {
			ours[uid] = struct{}{}
		}
		for _, rec := range records {
			if _, ok := ours[rec.UserID]; ok {
				targets = append(targets, rec.UserID)
			}
		}
		inserted = int64(len(targets))
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return inserted, targets, nil
}

// visible scopes records to a user's non-deleted, non-expired inbox.
func visible(userID string, now time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("JOIN notifications ON notifications.id = notification_records.notification_id").
			Where("notification_records.user_id = ? AND notification_records.is_deleted = ?", userID, false).
			Where("notifications.expires_at IS NULL OR notifications.expires_at > ?", now)
	}
}

func (r *notificationRecordRepository) ListForUser(ctx context.Context, userID string, filter InboxFilter) ([]models.NotificationRecord, int64, error) {
	query := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.NotificationRecord{}).Scopes(visible(userID, filter.Now))
		if filter.IsRead != nil {
			q = q.Where("notification_records.is_read = ?", *filter.IsRead)
		}
		if filter.Type != "" {
			q = q.Where("notifications.type = ?", filter.Type)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.NotificationRecord
	err := query().
		Preload("Notification").
		Order("notification_records.created_at DESC").
		Order("notifications.created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&records).Error
	return records, total, err
}

func (r *notificationRecordRepository) CountUnread(ctx context.Context, userID string, now time.Time) (int64, *time.Time, error) {
	unread := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.NotificationRecord{}).
			Scopes(visible(userID, now)).
			Where("notification_records.is_read = ?", false)
	}

	var count int64
	if err := unread().Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// a plain column rather than MIN() so drivers keep the datetime type
	var expiries []time.Time
	err := unread().
		Where("notifications.expires_at IS NOT NULL").
		Order("notifications.expires_at ASC").
		Limit(1).
		Pluck("notifications.expires_at", &expiries).Error
	if err != nil {
		return 0, nil, err
	}
	if len(expiries) == 0 {
		return count, nil, nil
	}
	return count, &expiries[0], nil
}

func (r *notificationRecordRepository) FindForUser(ctx context.Context, userID, recordID string) (*models.NotificationRecord, error) {
	var record models.NotificationRecord
	err := r.db.WithContext(ctx).
		Preload("Notification").
		Where("id = ? AND user_id = ? AND is_deleted = ?", recordID, userID, false).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkRead only touches unread rows so read_at keeps the first read time.
func (r *notificationRecordRepository) MarkRead(ctx context.Context, recordID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.NotificationRecord{}).
		Where("id = ? AND is_read = ? AND is_deleted = ?", recordID, false, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *notificationRecordRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	live := r.db.Model(&models.Notification{}).
		Select("id").
		Where("expires_at IS NULL OR expires_at > ?", at)

	res := r.db.WithContext(ctx).Model(&models.NotificationRecord{}).
		Where("user_id = ? AND is_read = ? AND is_deleted = ?", userID, false, false).
		Where("notification_id IN (?)", live).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *notificationRecordRepository) SoftDelete(ctx context.Context, userID, recordID string, at time.Time) (bool, error) {
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.NotificationRecord
		if err := tx.Where("id = ? AND user_id = ?", recordID, userID).First(&record).Error; err != nil {
			return err
		}
		if record.IsDeleted {
			return nil
		}
		res := tx.Model(&models.NotificationRecord{}).
			Where("id = ? AND is_deleted = ?", record.ID, false).
			Updates(map[string]interface{}{"is_deleted": true, "deleted_at": at})
		if res.Error != nil {
			return res.Error
		}
		changed = res.RowsAffected > 0
		return nil
	})
	return changed, err
}

func (r *notificationRecordRepository) RecipientIDs(ctx context.Context, notificationID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.NotificationRecord{}).
		Where("notification_id = ?", notificationID).
		Pluck("user_id", &ids).Error
	return ids, err
}
