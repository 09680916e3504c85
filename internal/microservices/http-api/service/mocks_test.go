package service

import (
	"context"
	"time"

	"inboxhub/internal/microservices/http-api/models"
	"inboxhub/internal/microservices/http-api/repository"
	"inboxhub/internal/shared"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByLogin(ctx context.Context, identifier string) (*models.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateStatus(ctx context.Context, id string, status models.UserStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id, role string) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *MockUserRepository) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUserRepository) EachIDBatch(ctx context.Context, batchSize int, fn func(ids []string) error) error {
	args := m.Called(ctx, batchSize, fn)
	// batches to feed through fn are passed as the first return value
	if batches, ok := args.Get(0).([][]string); ok {
		for _, b := range batches {
			if err := fn(b); err != nil {
				return err
			}
		}
	}
	return args.Error(1)
}

// MockRefreshTokenRepository mocks the RefreshTokenRepository interface
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) Revoke(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockTokenDenylist mocks the TokenDenylist interface
type MockTokenDenylist struct {
	mock.Mock
}

func (m *MockTokenDenylist) Deny(ctx context.Context, jti string, ttl time.Duration) error {
	args := m.Called(ctx, jti, ttl)
	return args.Error(0)
}

func (m *MockTokenDenylist) IsDenied(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

// MockNotificationRepository mocks the NotificationRepository interface
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *MockNotificationRepository) List(ctx context.Context, offset, limit int) ([]models.Notification, int64, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationRepository) Save(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRecordRepository mocks the NotificationRecordRepository interface
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) Deliver(ctx context.Context, notificationID string, userIDs []string) (int64, []string, error) {
	args := m.Called(ctx, notificationID, userIDs)
	var targets []string
	if args.Get(1) != nil {
		targets = args.Get(1).([]string)
	}
	return args.Get(0).(int64), targets, args.Error(2)
}

func (m *MockRecordRepository) ListForUser(ctx context.Context, userID string, filter repository.InboxFilter) ([]models.NotificationRecord, int64, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.NotificationRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockRecordRepository) CountUnread(ctx context.Context, userID string, now time.Time) (int64, *time.Time, error) {
	args := m.Called(ctx, userID, now)
	var next *time.Time
	if args.Get(1) != nil {
		next = args.Get(1).(*time.Time)
	}
	return args.Get(0).(int64), next, args.Error(2)
}

func (m *MockRecordRepository) FindForUser(ctx context.Context, userID, recordID string) (*models.NotificationRecord, error) {
	args := m.Called(ctx, userID, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationRecord), args.Error(1)
}

func (m *MockRecordRepository) MarkRead(ctx context.Context, recordID string, at time.Time) (int64, error) {
	args := m.Called(ctx, recordID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRecordRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRecordRepository) SoftDelete(ctx context.Context, userID, recordID string, at time.Time) (bool, error) {
	args := m.Called(ctx, userID, recordID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockRecordRepository) RecipientIDs(ctx context.Context, notificationID string) ([]string, error) {
	args := m.Called(ctx, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockUnreadCache mocks the UnreadCache interface
type MockUnreadCache struct {
	mock.Mock
}

func (m *MockUnreadCache) Get(ctx context.Context, userID string) (int64, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockUnreadCache) Set(ctx context.Context, userID string, count int64, maxAge time.Duration) error {
	args := m.Called(ctx, userID, count, maxAge)
	return args.Error(0)
}

func (m *MockUnreadCache) Invalidate(ctx context.Context, userIDs ...string) error {
	args := m.Called(ctx, userIDs)
	return args.Error(0)
}

// MockPublisher mocks shared.DeliveryPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, events []shared.DeliveryEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
