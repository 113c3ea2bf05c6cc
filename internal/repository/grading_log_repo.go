package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/models"
)

// GradingLogRepository records AI grading attempts. Rows are append-only.
type GradingLogRepository interface {
	Create(ctx context.Context, log *models.AIGradingLog) error
	ListByInviteID(ctx context.Context, inviteID uint) ([]models.AIGradingLog, error)
}

type gradingLogRepository struct {
	db *gorm.DB
}

// NewGradingLogRepository instantiates the repository.
func NewGradingLogRepository(db *gorm.DB) GradingLogRepository {
	return &gradingLogRepository{db: db}
}

func (r *gradingLogRepository) Create(ctx context.Context, log *models.AIGradingLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *gradingLogRepository) ListByInviteID(ctx context.Context, inviteID uint) ([]models.AIGradingLog, error) {
	var logs []models.AIGradingLog
	err := r.db.WithContext(ctx).
		Where("invite_id = ?", inviteID).
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}

	return logs, nil
}
