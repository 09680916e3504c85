package service

import (
	"context"
	"errors"
	"time"

	"inboxhub/internal/microservices/http-api/dto"
	"inboxhub/internal/microservices/http-api/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrRecordNotFound = errors.New("notification record not found")

// InboxService is the recipient side: listing and read/delete state.
type InboxService interface {
	List(ctx context.Context, userID string, query dto.InboxQuery) (*dto.InboxListResponse, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	Detail(ctx context.Context, userID, recordID string) (*dto.RecordResponse, error)
	MarkRead(ctx context.Context, userID, recordID string) error
	// MarkAllRead returns the number of records that changed.
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, recordID string) error
}

type inboxService struct {
	records repository.NotificationRecordRepository
	cache   repository.UnreadCache
	logger  logrus.FieldLogger
	now     func() time.Time
}

func NewInboxService(records repository.NotificationRecordRepository, cache repository.UnreadCache, logger logrus.FieldLogger) InboxService {
	return &inboxService{
		records: records,
		cache:   cache,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List reads the unread count from the database too, so it always agrees
// with total and items.
func (s *inboxService) List(ctx context.Context, userID string, query dto.InboxQuery) (*dto.InboxListResponse, error) {
	now := s.now()
	records, total, err := s.records.ListForUser(ctx, userID, repository.InboxFilter{
		IsRead: query.IsRead,
		Type:   query.Type,
		Offset: query.Offset(),
		Limit:  query.PageSize,
		Now:    now,
	})
	if err != nil {
		return nil, err
	}

	unread, _, err := s.records.CountUnread(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	items := make([]dto.RecordResponse, len(records))
	for i := range records {
		items[i] = dto.FromRecordModel(&records[i])
	}
	return &dto.InboxListResponse{
		Total:       total,
		UnreadCount: unread,
		Page:        query.Page,
		PageSize:    query.PageSize,
		Items:       items,
	}, nil
}

func (s *inboxService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, ok, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("unread_cache_get_failed")
	} else if ok {
		return count, nil
	}

	now := s.now()
	count, nextExpiry, err := s.records.CountUnread(ctx, userID, now)
	if err != nil {
		return 0, err
	}

	// the count drops by itself once a counted notification expires
	var maxAge time.Duration
	if nextExpiry != nil {
		maxAge = nextExpiry.Sub(now)
		if maxAge <= 0 {
			return count, nil
		}
	}
	if err := s.cache.Set(ctx, userID, count, maxAge); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("unread_cache_set_failed")
	}
	return count, nil
}

func (s *inboxService) Detail(ctx context.Context, userID, recordID string) (*dto.RecordResponse, error) {
	record, err := s.records.FindForUser(ctx, userID, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	resp := dto.FromRecordModel(record)
	return &resp, nil
}

// MarkRead sets read state only on the first read, read_at is never moved.
func (s *inboxService) MarkRead(ctx context.Context, userID, recordID string) error {
	record, err := s.records.FindForUser(ctx, userID, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return err
	}
	if record.IsRead {
		return nil
	}

	changed, err := s.records.MarkRead(ctx, record.ID, s.now())
	if err != nil {
		return err
	}
	if changed > 0 {
		s.invalidate(ctx, userID)
	}
	return nil
}

func (s *inboxService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	changed, err := s.records.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		s.invalidate(ctx, userID)
	}
	return changed, nil
}

func (s *inboxService) Delete(ctx context.Context, userID, recordID string) error {
	changed, err := s.records.SoftDelete(ctx, userID, recordID, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return err
	}
	if changed {
		s.invalidate(ctx, userID)
	}
	return nil
}

func (s *inboxService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("unread_cache_invalidate_failed")
	}
}
