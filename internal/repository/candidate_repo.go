package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/models"
)

// CandidateRepository defines persistence operations for candidates.
type CandidateRepository interface {
	FindOrCreateByEmail(ctx context.Context, email, fullName string) (models.Candidate, error)
	GetByID(ctx context.Context, id uint) (models.Candidate, error)
	Count(ctx context.Context) (int64, error)
}

type candidateRepository struct {
	db *gorm.DB
}

// NewCandidateRepository instantiates the repository.
func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) FindOrCreateByEmail(ctx context.Context, email, fullName string) (models.Candidate, error) {
	var candidate models.Candidate
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&candidate).Error
	if err == nil {
		// Keep the stored name fresh when the invite carries one.
		if fullName != "" && candidate.FullName != fullName {
			candidate.FullName = fullName
			if err := r.db.WithContext(ctx).Save(&candidate).Error; err != nil {
				return models.Candidate{}, err
			}
		}
		return candidate, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Candidate{}, err
	}

	candidate = models.Candidate{Email: email, FullName: fullName}
	if err := r.db.WithContext(ctx).Create(&candidate).Error; err != nil {
		return models.Candidate{}, err
	}

	return candidate, nil
}

func (r *candidateRepository) GetByID(ctx context.Context, id uint) (models.Candidate, error) {
	var candidate models.Candidate
	if err := r.db.WithContext(ctx).First(&candidate, id).Error; err != nil {
		return models.Candidate{}, err
	}

	return candidate, nil
}

func (r *candidateRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Candidate{}).Count(&count).Error
	return count, err
}
