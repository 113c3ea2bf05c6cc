package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/models"
	"github.com/talentgate/talentgate-api/internal/scoring"
)

// RankedRow is one graded invite joined with its candidate, in the shape the
// ranking engine consumes.
type RankedRow struct {
	InviteID       uint
	CandidateID    uint
	CandidateEmail string
	CandidateName  string
	TotalScore     scoring.Decimal
	ManualRank     *int
	Status         string
	GradedAt       *time.Time
	SubmittedAt    *time.Time
}

// ScoreRepository defines persistence operations for submission scores.
type ScoreRepository interface {
	GetByInviteID(ctx context.Context, inviteID uint) (models.SubmissionScore, error)
	Upsert(ctx context.Context, score *models.SubmissionScore) error
	Delete(ctx context.Context, id uint) error
	UpdateManualRank(ctx context.Context, inviteID uint, rank *int) error
	ListGradedForAssessment(ctx context.Context, assessmentID uint, status string) ([]RankedRow, error)
	ListUngradedForAssessment(ctx context.Context, assessmentID uint) ([]models.AssessmentInvite, error)
	CountGraded(ctx context.Context) (int64, error)
	CountGradedBy(ctx context.Context, gradedBy string) (int64, error)
}

type scoreRepository struct {
	db *gorm.DB
}

// NewScoreRepository instantiates the repository.
func NewScoreRepository(db *gorm.DB) ScoreRepository {
	return &scoreRepository{db: db}
}

func (r *scoreRepository) GetByInviteID(ctx context.Context, inviteID uint) (models.SubmissionScore, error) {
	var score models.SubmissionScore
	if err := r.db.WithContext(ctx).Where("invite_id = ?", inviteID).First(&score).Error; err != nil {
		return models.SubmissionScore{}, err
	}

	return score, nil
}

// Upsert stores a grade, replacing any existing row for the invite. A manual
// rank pinned on the previous grade survives re-grading.
func (r *scoreRepository) Upsert(ctx context.Context, score *models.SubmissionScore) error {
	var existing models.SubmissionScore
	err := r.db.WithContext(ctx).Where("invite_id = ?", score.InviteID).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(score).Error
		}
		return err
	}

	score.ID = existing.ID
	score.ManualRank = existing.ManualRank
	return r.db.WithContext(ctx).Save(score).Error
}

func (r *scoreRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.SubmissionScore{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *scoreRepository) UpdateManualRank(ctx context.Context, inviteID uint, rank *int) error {
	result := r.db.WithContext(ctx).
		Model(&models.SubmissionScore{}).
		Where("invite_id = ?", inviteID).
		Update("manual_rank", rank)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListGradedForAssessment returns graded invites ordered by submission
// recency, newest first. The ranking engine's stable sort keeps that order
// for equal scores. An empty status or "all" disables the invite-status
// filter.
func (r *scoreRepository) ListGradedForAssessment(ctx context.Context, assessmentID uint, status string) ([]RankedRow, error) {
	query := r.db.WithContext(ctx).
		Table("submission_scores").
		Select(`submission_scores.invite_id,
			assessment_invites.candidate_id,
			candidates.email AS candidate_email,
			candidates.full_name AS candidate_name,
			submission_scores.total_score,
			submission_scores.manual_rank,
			assessment_invites.status,
			submission_scores.graded_at,
			assessment_invites.submitted_at`).
		Joins("JOIN assessment_invites ON assessment_invites.id = submission_scores.invite_id").
		Joins("JOIN candidates ON candidates.id = assessment_invites.candidate_id").
		Where("assessment_invites.assessment_id = ?", assessmentID).
		Order("assessment_invites.submitted_at DESC")
	if status != "" && status != models.InviteStatusAll {
		query = query.Where("assessment_invites.status = ?", status)
	}

	var rows []RankedRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *scoreRepository) ListUngradedForAssessment(ctx context.Context, assessmentID uint) ([]models.AssessmentInvite, error) {
	var invites []models.AssessmentInvite
	err := r.db.WithContext(ctx).
		Preload("Candidate").
		Preload("Submission").
		Where("assessment_id = ?", assessmentID).
		Where("status = ?", models.InviteStatusSubmitted).
		Where("id NOT IN (?)", r.db.Model(&models.SubmissionScore{}).Select("invite_id")).
		Order("submitted_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, err
	}

	return invites, nil
}

func (r *scoreRepository) CountGraded(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SubmissionScore{}).Count(&count).Error
	return count, err
}

func (r *scoreRepository) CountGradedBy(ctx context.Context, gradedBy string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SubmissionScore{}).
		Where("graded_by = ?", gradedBy).
		Count(&count).Error
	return count, err
}
