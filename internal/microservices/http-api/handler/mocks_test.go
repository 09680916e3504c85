package handler

import (
	"context"

	"inboxhub/internal/microservices/http-api/dto"
	"inboxhub/internal/microservices/http-api/middleware"
	"inboxhub/internal/microservices/http-api/models"
	"inboxhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	args := m.Called(username, password, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, identifier, password string) (*service.TokenPair, *models.User, error) {
	args := m.Called(identifier, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*service.TokenPair), args.Get(1).(*models.User), args.Error(2)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	args := m.Called(refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) ValidateToken(ctx context.Context, tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, claims *service.Claims) error {
	return m.Called(claims).Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) UpdateStatus(ctx context.Context, userID string, status models.UserStatus) error {
	return m.Called(userID, status).Error(0)
}

func (m *MockAuthService) EnsureAdmin(ctx context.Context, username, email, password string) (*models.User, error) {
	args := m.Called(username, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// MockInboxService mocks the InboxService interface
type MockInboxService struct {
	mock.Mock
}

func (m *MockInboxService) List(ctx context.Context, userID string, query dto.InboxQuery) (*dto.InboxListResponse, error) {
	args := m.Called(userID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.InboxListResponse), args.Error(1)
}

func (m *MockInboxService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInboxService) Detail(ctx context.Context, userID, recordID string) (*dto.RecordResponse, error) {
	args := m.Called(userID, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RecordResponse), args.Error(1)
}

func (m *MockInboxService) MarkRead(ctx context.Context, userID, recordID string) error {
	return m.Called(userID, recordID).Error(0)
}

func (m *MockInboxService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInboxService) Delete(ctx context.Context, userID, recordID string) error {
	return m.Called(userID, recordID).Error(0)
}

// MockNotificationService mocks the NotificationService interface
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Create(ctx context.Context, input dto.CreateNotificationRequest, creatorID string) (*models.Notification, error) {
	args := m.Called(input, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *MockNotificationService) List(ctx context.Context, skip, limit int) ([]models.Notification, int64, error) {
	args := m.Called(skip, limit)
	return args.Get(0).([]models.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationService) Get(ctx context.Context, id string) (*models.Notification, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *MockNotificationService) Update(ctx context.Context, id string, input dto.UpdateNotificationRequest) (*models.Notification, error) {
	args := m.Called(id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *MockNotificationService) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockNotificationService) Send(ctx context.Context, id string, input dto.SendNotificationRequest) (int64, error) {
	args := m.Called(id, input)
	return args.Get(0).(int64), args.Error(1)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// withUser stands in for AuthMiddleware in handler tests.
func withUser(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetClaims(c, &service.Claims{UserID: userID, Username: "tester", Role: role, TokenType: service.TokenTypeAccess})
		c.Next()
	}
}
