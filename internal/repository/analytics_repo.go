package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/models"
)

// FunnelRow is the per-assessment invite funnel with its average grade.
type FunnelRow struct {
	AssessmentID    uint
	AssessmentTitle string
	Invited         int64
	Started         int64
	Submitted       int64
	Graded          int64
	AverageScore    float64
}

// AnalyticsRepository supplies data for the admin analytics dashboard.
type AnalyticsRepository interface {
	CountAssessments(ctx context.Context) (int64, error)
	Funnels(ctx context.Context) ([]FunnelRow, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository constructs the analytics repository.
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) CountAssessments(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Assessment{}).
		Where("archived = ?", false).
		Count(&count).Error
	return count, err
}

func (r *analyticsRepository) Funnels(ctx context.Context) ([]FunnelRow, error) {
	var rows []FunnelRow
	err := r.db.WithContext(ctx).
		Table("assessments").
		Select(`assessments.id AS assessment_id,
			assessments.title AS assessment_title,
			COUNT(assessment_invites.id) AS invited,
			SUM(CASE WHEN assessment_invites.started_at IS NOT NULL THEN 1 ELSE 0 END) AS started,
			SUM(CASE WHEN assessment_invites.status = ? THEN 1 ELSE 0 END) AS submitted,
			COUNT(submission_scores.id) AS graded,
			COALESCE(AVG(submission_scores.total_score), 0) AS average_score`,
			models.InviteStatusSubmitted).
		Joins("LEFT JOIN assessment_invites ON assessment_invites.assessment_id = assessments.id").
		Joins("LEFT JOIN submission_scores ON submission_scores.invite_id = assessment_invites.id").
		Where("assessments.archived = ?", false).
		Group("assessments.id, assessments.title").
		Order("assessments.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}
