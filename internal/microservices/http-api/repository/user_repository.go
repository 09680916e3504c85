package repository

import (
	"context"
	"time"

	"inboxhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByLogin matches the identifier against username first, then email.
	FindByLogin(ctx context.Context, identifier string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateStatus(ctx context.Context, id string, status models.UserStatus) error
	UpdateRole(ctx context.Context, id, role string) error
	// ExistingIDs returns the subset of ids that belong to a user.
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
	// EachIDBatch walks every user id in primary key order, batchSize at a time.
	EachIDBatch(ctx context.Context, batchSize int, fn func(ids []string) error) error
}

// userRepository is the GORM implementation of UserRepository.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository in a GORM implementation
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	// return nil on error so callers never see a zero-value user
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByLogin(ctx context.Context, identifier string) (*models.User, error) {
	user, err := r.FindByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	return r.FindByEmail(ctx, identifier)
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login_at", at).Error
}

func (r *userRepository) UpdateStatus(ctx context.Context, id string, status models.UserStatus) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id, role string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role).Error
}

func (r *userRepository) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	found := make([]string, 0, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id IN ?", ids).Pluck("id", &found).Error
	return found, err
}

func (r *userRepository) EachIDBatch(ctx context.Context, batchSize int, fn func(ids []string) error) error {
	var users []models.User
	return r.db.WithContext(ctx).Select("id").FindInBatches(&users, batchSize, func(tx *gorm.DB, batch int) error {
		ids := make([]string, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		return fn(ids)
	}).Error
}
