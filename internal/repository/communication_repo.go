package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/models"
)

// FollowUpRepository records sent follow-up emails.
type FollowUpRepository interface {
	Create(ctx context.Context, email *models.FollowUpEmail) error
	ListByInviteID(ctx context.Context, inviteID uint) ([]models.FollowUpEmail, error)
}

type followUpRepository struct {
	db *gorm.DB
}

// NewFollowUpRepository instantiates the repository.
func NewFollowUpRepository(db *gorm.DB) FollowUpRepository {
	return &followUpRepository{db: db}
}

func (r *followUpRepository) Create(ctx context.Context, email *models.FollowUpEmail) error {
	return r.db.WithContext(ctx).Create(email).Error
}

func (r *followUpRepository) ListByInviteID(ctx context.Context, inviteID uint) ([]models.FollowUpEmail, error) {
	var emails []models.FollowUpEmail
	err := r.db.WithContext(ctx).
		Where("invite_id = ?", inviteID).
		Order("sent_at DESC").
		Find(&emails).Error
	if err != nil {
		return nil, err
	}

	return emails, nil
}

// SettingRepository stores global key/value configuration.
type SettingRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository instantiates the repository.
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) Get(ctx context.Context, key string) (string, error) {
	var setting models.Setting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error; err != nil {
		return "", err
	}

	return setting.Value, nil
}

func (r *settingRepository) Set(ctx context.Context, key, value string) error {
	var setting models.Setting
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(&models.Setting{Key: key, Value: value}).Error
		}
		return err
	}

	setting.Value = value
	return r.db.WithContext(ctx).Save(&setting).Error
}
