package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inboxhub/internal/microservices/http-api/dto"
	"inboxhub/internal/microservices/http-api/models"
	"inboxhub/internal/microservices/http-api/repository"
	"inboxhub/internal/shared"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotificationExpired  = errors.New("notification has expired")
	ErrNoRecipients         = errors.New("user_ids must not be empty unless send_to_all is set")
	ErrInvalidUserID        = errors.New("invalid user id")
	ErrInvalidNotification  = errors.New("invalid notification")
)

// DefaultSendBatchSize bounds the rows inserted per statement during fan-out.
const DefaultSendBatchSize = 500

// NotificationService is the administrator side: content management and fan-out.
type NotificationService interface {
	Create(ctx context.Context, input dto.CreateNotificationRequest, creatorID string) (*models.Notification, error)
	List(ctx context.Context, skip, limit int) ([]models.Notification, int64, error)
	Get(ctx context.Context, id string) (*models.Notification, error)
	Update(ctx context.Context, id string, input dto.UpdateNotificationRequest) (*models.Notification, error)
	Delete(ctx context.Context, id string) error
	// Send delivers the notification and returns the number of new records.
	Send(ctx context.Context, id string, input dto.SendNotificationRequest) (int64, error)
}

type notificationService struct {
	notifications repository.NotificationRepository
	records       repository.NotificationRecordRepository
	users         repository.UserRepository
	cache         repository.UnreadCache
	publisher     shared.DeliveryPublisher
	logger        logrus.FieldLogger
	batchSize     int
	now           func() time.Time
}

func NewNotificationService(
	notifications repository.NotificationRepository,
	records repository.NotificationRecordRepository,
	users repository.UserRepository,
	cache repository.UnreadCache,
	publisher shared.DeliveryPublisher,
	logger logrus.FieldLogger,
) NotificationService {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	return &notificationService{
		notifications: notifications,
		records:       records,
		users:         users,
		cache:         cache,
		publisher:     publisher,
		logger:        logger,
		batchSize:     DefaultSendBatchSize,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *notificationService) Create(ctx context.Context, input dto.CreateNotificationRequest, creatorID string) (*models.Notification, error) {
	typ := models.NotificationType(input.Type)
	if !typ.Valid() || strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Content) == "" {
		return nil, ErrInvalidNotification
	}
	if input.Priority < models.PriorityNormal || input.Priority > models.PriorityUrgent {
		return nil, ErrInvalidNotification
	}

	notification := &models.Notification{
		Type:      typ,
		Title:     input.Title,
		Content:   input.Content,
		ActionURL: input.ActionURL,
		Priority:  input.Priority,
		ExpiresAt: input.ExpiresAt,
	}
	if creatorID != "" {
		notification.CreatedBy = &creatorID
	}

	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (s *notificationService) List(ctx context.Context, skip, limit int) ([]models.Notification, int64, error) {
	return s.notifications.List(ctx, skip, limit)
}

func (s *notificationService) Get(ctx context.Context, id string) (*models.Notification, error) {
	notification, err := s.notifications.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return notification, nil
}

// Update applies the provided fields only. Records already delivered keep
// pointing at the same row, so users see the new content.
func (s *notificationService) Update(ctx context.Context, id string, input dto.UpdateNotificationRequest) (*models.Notification, error) {
	notification, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Type != nil {
		typ := models.NotificationType(*input.Type)
		if !typ.Valid() {
			return nil, ErrInvalidNotification
		}
		notification.Type = typ
	}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrInvalidNotification
		}
		notification.Title = *input.Title
	}
	if input.Content != nil {
		if strings.TrimSpace(*input.Content) == "" {
			return nil, ErrInvalidNotification
		}
		notification.Content = *input.Content
	}
	if input.ActionURL != nil {
		notification.ActionURL = input.ActionURL
	}
	if input.Priority != nil {
		if *input.Priority < models.PriorityNormal || *input.Priority > models.PriorityUrgent {
			return nil, ErrInvalidNotification
		}
		notification.Priority = *input.Priority
	}
	if input.ExpiresAt != nil {
		notification.ExpiresAt = input.ExpiresAt
	}

	if err := s.notifications.Save(ctx, notification); err != nil {
		return nil, err
	}

	// expiry decides visibility, so cached counts of recipients may be stale
	if input.ExpiresAt != nil {
		s.invalidateRecipients(ctx, notification.ID)
	}
	return notification, nil
}

func (s *notificationService) Delete(ctx context.Context, id string) error {
	recipients, err := s.records.RecipientIDs(ctx, id)
	if err != nil {
		return err
	}
	if err := s.notifications.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	s.invalidate(ctx, recipients)

	s.logger.WithFields(logrus.Fields{
		"notification_id": id,
		"recipients":      len(recipients),
	}).Info("notification_deleted")
	return nil
}

func (s *notificationService) Send(ctx context.Context, id string, input dto.SendNotificationRequest) (int64, error) {
	notification, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if notification.IsExpired(s.now()) {
		return 0, ErrNotificationExpired
	}

	var (
		sent      int64
		delivered []string
	)
	deliver := func(userIDs []string) error {
		inserted, targets, err := s.records.Deliver(ctx, notification.ID, userIDs)
		if err != nil {
			return err
		}
		sent += inserted
		delivered = append(delivered, targets...)
		return nil
	}

	if input.SendToAll {
		if err := s.users.EachIDBatch(ctx, s.batchSize, deliver); err != nil {
			return s.finishSend(ctx, notification, input, sent, delivered, fmt.Errorf("send to all users: %w", err))
		}
	} else {
		userIDs, err := normalizeUserIDs(input.UserIDs)
		if err != nil {
			return 0, err
		}
		for start := 0; start < len(userIDs); start += s.batchSize {
			end := min(start+s.batchSize, len(userIDs))
			// unknown users are skipped rather than failing the whole send
			existing, err := s.users.ExistingIDs(ctx, userIDs[start:end])
			if err != nil {
				return s.finishSend(ctx, notification, input, sent, delivered, err)
			}
			if err := deliver(existing); err != nil {
				return s.finishSend(ctx, notification, input, sent, delivered, err)
			}
		}
	}

	return s.finishSend(ctx, notification, input, sent, delivered, nil)
}

// finishSend runs after the last batch, or after the first failing one:
// earlier batches are already committed, so their recipients still get the
// cache invalidation and the push.
func (s *notificationService) finishSend(ctx context.Context, notification *models.Notification, input dto.SendNotificationRequest, sent int64, delivered []string, sendErr error) (int64, error) {
	if len(delivered) > 0 {
		s.invalidate(ctx, delivered)
		s.publish(ctx, notification, delivered)
	}

	fields := logrus.Fields{
		"notification_id": notification.ID,
		"send_to_all":     input.SendToAll,
		"sent_count":      sent,
	}
	if sendErr != nil {
		s.logger.WithFields(fields).WithError(sendErr).Error("notification_send_partial")
		return sent, sendErr
	}
	s.logger.WithFields(fields).Info("notification_sent")
	return sent, nil
}

// normalizeUserIDs validates and de-duplicates the requested recipients,
// keeping the first occurrence order.
func normalizeUserIDs(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, ErrNoRecipients
	}
	seen := make(map[string]struct{}, len(raw))
	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		parsed, err := uuid.Parse(strings.TrimSpace(r))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidUserID, r)
		}
		id := parsed.String()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *notificationService) publish(ctx context.Context, n *models.Notification, userIDs []string) {
	payload := shared.DeliveredNotification{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Content:   n.Content,
		ActionURL: n.ActionURL,
		Priority:  n.Priority,
		ExpiresAt: n.ExpiresAt,
	}
	sentAt := s.now()
	events := make([]shared.DeliveryEvent, len(userIDs))
	for i, uid := range userIDs {
		events[i] = shared.DeliveryEvent{
			Type:         shared.EventNotification,
			UserID:       uid,
			Notification: payload,
			SentAt:       sentAt,
		}
	}
	// records are already committed, a lost push only delays what the inbox shows
	if err := s.publisher.Publish(ctx, events); err != nil {
		s.logger.WithError(err).WithField("notification_id", n.ID).Warn("delivery_publish_failed")
	}
}

func (s *notificationService) invalidateRecipients(ctx context.Context, notificationID string) {
	recipients, err := s.records.RecipientIDs(ctx, notificationID)
	if err != nil {
		s.logger.WithError(err).WithField("notification_id", notificationID).Warn("unread_cache_invalidate_failed")
		return
	}
	s.invalidate(ctx, recipients)
}

func (s *notificationService) invalidate(ctx context.Context, userIDs []string) {
	if len(userIDs) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, userIDs...); err != nil {
		s.logger.WithError(err).WithField("users", len(userIDs)).Warn("unread_cache_invalidate_failed")
	}
}
