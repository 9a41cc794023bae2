package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tiendreiliass0x/school-management-system/internal/models"
)

// UserStore is the slice of user persistence the auth service needs.
// Lookups return (nil, nil) when no row matches.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.UserModel, error)
	FindByID(ctx context.Context, id string) (*models.UserModel, error)
	Create(ctx context.Context, user *models.UserModel) error
	Count(ctx context.Context) (int64, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateLastLogin(ctx context.Context, id, ip string, at time.Time) error
}

type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) FindByEmail(ctx context.Context, email string) (*models.UserModel, error) {
	var user models.UserModel
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormUserStore) FindByID(ctx context.Context, id string) (*models.UserModel, error) {
	var user models.UserModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormUserStore) Create(ctx context.Context, user *models.UserModel) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *GormUserStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.UserModel{}).Count(&count).Error
	return count, err
}

func (s *GormUserStore) UpdatePassword(ctx context.Context, id, hash string) error {
	return s.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", id).
		Update("password", hash).Error
}

func (s *GormUserStore) UpdateLastLogin(ctx context.Context, id, ip string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_login_time": at, "last_login_ip": ip}).Error
}
