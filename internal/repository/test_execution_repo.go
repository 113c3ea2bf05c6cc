package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/models"
)

// TestExecutionRepository records sandboxed test suite runs.
type TestExecutionRepository interface {
	Create(ctx context.Context, execution *models.TestExecution) error
	ListByInviteID(ctx context.Context, inviteID uint) ([]models.TestExecution, error)
	LatestByInviteID(ctx context.Context, inviteID uint) (models.TestExecution, error)
}

type testExecutionRepository struct {
	db *gorm.DB
}

// NewTestExecutionRepository instantiates the repository.
func NewTestExecutionRepository(db *gorm.DB) TestExecutionRepository {
	return &testExecutionRepository{db: db}
}

func (r *testExecutionRepository) Create(ctx context.Context, execution *models.TestExecution) error {
	return r.db.WithContext(ctx).Create(execution).Error
}

func (r *testExecutionRepository) ListByInviteID(ctx context.Context, inviteID uint) ([]models.TestExecution, error) {
	var executions []models.TestExecution
	err := r.db.WithContext(ctx).
		Where("invite_id = ?", inviteID).
		Order("executed_at DESC").
		Find(&executions).Error
	if err != nil {
		return nil, err
	}

	return executions, nil
}

func (r *testExecutionRepository) LatestByInviteID(ctx context.Context, inviteID uint) (models.TestExecution, error) {
	var execution models.TestExecution
	err := r.db.WithContext(ctx).
		Where("invite_id = ?", inviteID).
		Order("executed_at DESC").
		First(&execution).Error
	if err != nil {
		return models.TestExecution{}, err
	}

	return execution, nil
}
