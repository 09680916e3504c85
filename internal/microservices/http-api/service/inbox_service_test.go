package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"inboxhub/internal/logger"
	"inboxhub/internal/microservices/http-api/dto"
	"inboxhub/internal/microservices/http-api/models"
	"inboxhub/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestInboxService() (*inboxService, *MockRecordRepository, *MockUnreadCache) {
	records := new(MockRecordRepository)
	cache := new(MockUnreadCache)
	svc := NewInboxService(records, cache, logger.Discard()).(*inboxService)
	svc.now = func() time.Time { return fixedNow }
	return svc, records, cache
}

func TestInboxList(t *testing.T) {
	svc, records, cache := newTestInboxService()
	ctx := context.Background()

	unread := false
	query := dto.InboxQuery{IsRead: &unread, Type: "system", Page: 2, PageSize: 10}
	rows := []models.NotificationRecord{
		{ID: "r1", NotificationID: "n1", Notification: &models.Notification{ID: "n1", Title: "hello", Type: models.TypeSystem}},
	}
	records.On("ListForUser", ctx, "u1", repository.InboxFilter{
		IsRead: &unread, Type: "system", Offset: 10, Limit: 10, Now: fixedNow,
	}).Return(rows, int64(11), nil)
	records.On("CountUnread", ctx, "u1", fixedNow).Return(int64(4), nil, nil)

	resp, err := svc.List(ctx, "u1", query)

	require.NoError(t, err)
	assert.Equal(t, int64(11), resp.Total)
	assert.Equal(t, int64(4), resp.UnreadCount)
	assert.Equal(t, 2, resp.Page)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "hello", resp.Items[0].Notification.Title)
	cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestUnreadCount_CacheMissFillsCache(t *testing.T) {
	svc, records, cache := newTestInboxService()
	ctx := context.Background()

	cache.On("Get", ctx, "u1").Return(int64(0), false, nil)
	records.On("CountUnread", ctx, "u1", fixedNow).Return(int64(7), nil, nil)
	cache.On("Set", ctx, "u1", int64(7), time.Duration(0)).Return(nil)

	count, err := svc.UnreadCount(ctx, "u1")

	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	cache.AssertExpectations(t)
}

func TestUnreadCount_CachedUntilNextExpiry(t *testing.T) {
	svc, records, cache := newTestInboxService()
	ctx := context.Background()

	next := fixedNow.Add(30 * time.Second)
	cache.On("Get", ctx, "u1").Return(int64(0), false, nil)
	records.On("CountUnread", ctx, "u1", fixedNow).Return(int64(3), &next, nil)
	cache.On("Set", ctx, "u1", int64(3), 30*time.Second).Return(nil)

	count, err := svc.UnreadCount(ctx, "u1")

	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	cache.AssertExpectations(t)
}

func TestUnreadCount_ExpiringNowSkipsCache(t *testing.T) {
	svc, records, cache := newTestInboxService()
	ctx := context.Background()

	next := fixedNow
	cache.On("Get", ctx, "u1").Return(int64(0), false, nil)
	records.On("CountUnread", ctx, "u1", fixedNow).Return(int64(1), &next, nil)

	count, err := svc.UnreadCount(ctx, "u1")

	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUnreadCount_CacheErrorFallsBack(t *testing.T) {
	svc, records, cache := newTestInboxService()
	ctx := context.Background()

	cache.On("Get", ctx, "u1").Return(int64(0), false, errors.New("redis down"))
	records.On("CountUnread", ctx, "u1", fixedNow).Return(int64(2), nil, nil)
	cache.On("Set", ctx, "u1", int64(2), time.Duration(0)).Return(errors.New("redis down"))

	count, err := svc.UnreadCount(ctx, "u1")

	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestDetail(t *testing.T) {
	svc, records, _ := newTestInboxService()
	ctx := context.Background()

	records.On("FindForUser", ctx, "u1", "r1").Return(&models.NotificationRecord{ID: "r1", IsRead: true}, nil)
	records.On("FindForUser", ctx, "u1", "r2").Return(nil, gorm.ErrRecordNotFound)

	resp, err := svc.Detail(ctx, "u1", "r1")
	require.NoError(t, err)
	assert.True(t, resp.IsRead)

	_, err = svc.Detail(ctx, "u1", "r2")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestMarkRead_FirstReadOnly(t *testing.T) {
	svc, records, cache := newTestInboxService()
	ctx := context.Background()

	records.On("FindForUser", ctx, "u1", "r1").Return(&models.NotificationRecord{ID: "r1"}, nil).Once()
	records.On("MarkRead", ctx, "r1", fixedNow).Return(int64(1), nil).Once()
	cache.On("Invalidate", ctx, []string{"u1"}).Return(nil).Once()

	require.NoError(t, svc.MarkRead(ctx, "u1", "r1"))

	readAt := fixedNow.Add(-time.Hour)
	records.On("FindForUser", ctx, "u1", "r1").Return(&models.NotificationRecord{ID: "r1", IsRead: true, ReadAt: &readAt}, nil).Once()

	require.NoError(t, svc.MarkRead(ctx, "u1", "r1"))
	records.AssertNumberOfCalls(t, "MarkRead", 1)
	cache.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestMarkRead_NotFound(t *testing.T) {
	svc, records, _ := newTestInboxService()
	ctx := context.Background()

	records.On("FindForUser", ctx, "u1", "r1").Return(nil, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, svc.MarkRead(ctx, "u1", "r1"), ErrRecordNotFound)
}

func TestMarkAllRead(t *testing.T) {
	svc, records, cache := newTestInboxService()
	ctx := context.Background()

	records.On("MarkAllRead", ctx, "u1", fixedNow).Return(int64(3), nil).Once()
	cache.On("Invalidate", ctx, []string{"u1"}).Return(nil).Once()

	count, err := svc.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	records.On("MarkAllRead", ctx, "u1", fixedNow).Return(int64(0), nil).Once()
	count, err = svc.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)
	cache.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestDeleteRecord(t *testing.T) {
	svc, records, cache := newTestInboxService()
	ctx := context.Background()

	records.On("SoftDelete", ctx, "u1", "r1", fixedNow).Return(true, nil)
	records.On("SoftDelete", ctx, "u1", "r2", fixedNow).Return(false, nil)
	records.On("SoftDelete", ctx, "u1", "r3", fixedNow).Return(false, gorm.ErrRecordNotFound)
	cache.On("Invalidate", ctx, []string{"u1"}).Return(nil).Once()

	assert.NoError(t, svc.Delete(ctx, "u1", "r1"))
	assert.NoError(t, svc.Delete(ctx, "u1", "r2"), "deleting twice is a no-op")
	assert.ErrorIs(t, svc.Delete(ctx, "u1", "r3"), ErrRecordNotFound)
	cache.AssertExpectations(t)
}
