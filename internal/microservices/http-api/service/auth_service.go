package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inboxhub/internal/config"
	"inboxhub/internal/microservices/http-api/models"
	"inboxhub/internal/microservices/http-api/repository"
	"inboxhub/internal/middleware/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNameInUse          = errors.New("username already in use")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrRevokedToken       = errors.New("token has been revoked")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidStatus      = errors.New("invalid user status")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims carried by both token kinds. Refresh tokens leave Username and Role empty.
type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // access token lifetime in seconds
}

type AuthService interface {
	Register(ctx context.Context, username, password, email string) (*models.User, error)
	// Login accepts a username or an email as identifier.
	Login(ctx context.Context, identifier, password string) (*TokenPair, *models.User, error)
	// Refresh exchanges a refresh token for a new pair and revokes the old one.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
	Logout(ctx context.Context, claims *Claims) error
	Me(ctx context.Context, userID string) (*models.User, error)
	UpdateStatus(ctx context.Context, userID string, status models.UserStatus) error
	EnsureAdmin(ctx context.Context, username, email, password string) (*models.User, error)
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

type authService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	denylist         repository.TokenDenylist
	jwtSecret        []byte
	accessTokenTTL   time.Duration
	refreshTokenTTL  time.Duration
	bcryptCost       int
	now              func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	denylist repository.TokenDenylist,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		denylist:         denylist,
		jwtSecret:        []byte(cfg.JWTSecret),
		accessTokenTTL:   cfg.AccessTokenTTL,  // 15 minutes
		refreshTokenTTL:  cfg.RefreshTokenTTL, // 7 days
		bcryptCost:       cfg.BcryptCost,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Register: registers a new user with the given username, password, and email.
func (s *authService) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, ErrNameInUse
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Username: username,
		Email:    email,
		Password: hashedPassword,
		Status:   models.StatusOffline,
		Role:     models.RoleUser,
	}

	// the unique indexes still guard against a concurrent registration
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.takenField(ctx, username, email)
		}
		return nil, err
	}
	return user, nil
}

// takenField tells which unique field a concurrent registration claimed.
func (s *authService) takenField(ctx context.Context, username, email string) error {
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		if _, err := s.userRepo.FindByUsername(ctx, username); err != nil {
			return ErrEmailInUse
		}
	}
	return ErrNameInUse
}

// Login: authenticates a user and returns access and refresh tokens upon successful login.
func (s *authService) Login(ctx context.Context, identifier, password string) (*TokenPair, *models.User, error) {
	user, err := s.userRepo.FindByLogin(ctx, identifier)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
		// keep the timing of unknown users equal to a wrong password
		auth.DummyVerify(password)
		return nil, nil, ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(user.Password, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, nil, err
	}
	user.LastLoginAt = &now

	return pair, user, nil
}

func (s *authService) issuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTokenTTL.Seconds()),
	}, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// generateRefreshToken signs a refresh JWT and stores its jti.
func (s *authService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	now := s.now()
	record := &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: now.Add(s.refreshTokenTTL),
	}

	claims := Claims{
		UserID:    user.ID,
		TokenType: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        record.Token,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(record.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}

	if err := s.refreshTokenRepo.Create(ctx, record); err != nil {
		return "", err
	}
	return signed, nil
}

func (s *authService) Refresh(ctx context.Context, refreshTokenString string) (*TokenPair, error) {
	claims, err := s.parse(refreshTokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	stored, err := s.refreshTokenRepo.FindByToken(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if stored.Revoked {
		return nil, ErrRevokedToken
	}
	if !stored.Usable(s.now()) {
		return nil, ErrExpiredToken
	}
	if stored.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// rotation: only one caller can revoke the old token
	revoked, err := s.refreshTokenRepo.Revoke(ctx, stored.ID)
	if err != nil {
		return nil, err
	}
	if !revoked {
		return nil, ErrRevokedToken
	}

	return s.issuePair(ctx, user)
}

func (s *authService) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if claims.ID != "" {
		denied, err := s.denylist.IsDenied(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if denied {
			return nil, ErrRevokedToken
		}
	}
	return claims, nil
}

// Logout revokes every refresh token of the user and denylists the access
// token until it would expire on its own.
func (s *authService) Logout(ctx context.Context, claims *Claims) error {
	if err := s.refreshTokenRepo.RevokeAllForUser(ctx, claims.UserID); err != nil {
		return err
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return s.denylist.Deny(ctx, claims.ID, claims.ExpiresAt.Sub(s.now()))
}

func (s *authService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateStatus(ctx context.Context, userID string, status models.UserStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if err := s.userRepo.UpdateStatus(ctx, userID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin or promotes the existing account
// with that username. The password of an existing account is left alone.
func (s *authService) EnsureAdmin(ctx context.Context, username, email, password string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if !user.IsAdmin() {
			if err := s.userRepo.UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
				return nil, err
			}
			user.Role = models.RoleAdmin
		}
		return user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	user, err = s.Register(ctx, username, password, email)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
		return nil, err
	}
	user.Role = models.RoleAdmin
	return user, nil
}

func (s *authService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.refreshTokenRepo.DeleteExpired(ctx, s.now())
}
