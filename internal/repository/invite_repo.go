package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/models"
)

// InviteFilter narrows invite queries.
type InviteFilter struct {
	AssessmentID *uint
	Status       *string
}

// InviteRepository defines persistence operations for assessment invites and
// their candidate repositories.
type InviteRepository interface {
	List(ctx context.Context, filter InviteFilter) ([]models.AssessmentInvite, error)
	GetByID(ctx context.Context, id uint) (models.AssessmentInvite, error)
	GetBySlug(ctx context.Context, slug string) (models.AssessmentInvite, error)
	Create(ctx context.Context, invite *models.AssessmentInvite) error
	Update(ctx context.Context, invite *models.AssessmentInvite) error
	Count(ctx context.Context) (int64, error)
	SaveCandidateRepo(ctx context.Context, repo *models.CandidateRepo) error
	SaveAccessToken(ctx context.Context, token *models.RepoAccessToken) error
	RevokeTokens(ctx context.Context, candidateRepoID uint) error
	CreateSubmission(ctx context.Context, submission *models.Submission) error
	CountSubmissions(ctx context.Context) (int64, error)
}

type inviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository instantiates the repository.
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.AssessmentInvite{}).
		Preload("Assessment").
		Preload("Candidate").
		Preload("CandidateRepo").
		Preload("Submission")
}

func (r *inviteRepository) List(ctx context.Context, filter InviteFilter) ([]models.AssessmentInvite, error) {
	query := r.baseQuery(ctx)

	if filter.AssessmentID != nil {
		query = query.Where("assessment_id = ?", *filter.AssessmentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var invites []models.AssessmentInvite
	if err := query.Order("created_at DESC").Find(&invites).Error; err != nil {
		return nil, err
	}

	return invites, nil
}

func (r *inviteRepository) GetByID(ctx context.Context, id uint) (models.AssessmentInvite, error) {
	var invite models.AssessmentInvite
	if err := r.baseQuery(ctx).First(&invite, id).Error; err != nil {
		return models.AssessmentInvite{}, err
	}

	return invite, nil
}

func (r *inviteRepository) GetBySlug(ctx context.Context, slug string) (models.AssessmentInvite, error) {
	var invite models.AssessmentInvite
	if err := r.baseQuery(ctx).Where("start_url_slug = ?", slug).First(&invite).Error; err != nil {
		return models.AssessmentInvite{}, err
	}

	return invite, nil
}

func (r *inviteRepository) Create(ctx context.Context, invite *models.AssessmentInvite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *inviteRepository) Update(ctx context.Context, invite *models.AssessmentInvite) error {
	return r.db.WithContext(ctx).Omit("Assessment", "Candidate", "CandidateRepo", "Submission").Save(invite).Error
}

func (r *inviteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AssessmentInvite{}).Count(&count).Error
	return count, err
}

func (r *inviteRepository) SaveCandidateRepo(ctx context.Context, repo *models.CandidateRepo) error {
	return r.db.WithContext(ctx).Save(repo).Error
}

func (r *inviteRepository) SaveAccessToken(ctx context.Context, token *models.RepoAccessToken) error {
	return r.db.WithContext(ctx).Save(token).Error
}

// RevokeTokens marks every live access token of the candidate repo revoked.
func (r *inviteRepository) RevokeTokens(ctx context.Context, candidateRepoID uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.RepoAccessToken{}).
		Where("candidate_repo_id = ? AND revoked_at IS NULL", candidateRepoID).
		Update("revoked_at", &now).Error
}

func (r *inviteRepository) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *inviteRepository) CountSubmissions(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).Count(&count).Error
	return count, err
}
