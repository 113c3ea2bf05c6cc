package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/models"
)

// RubricRepository defines persistence operations for assessment rubrics.
type RubricRepository interface {
	GetByAssessmentID(ctx context.Context, assessmentID uint) (models.AssessmentRubric, error)
	Upsert(ctx context.Context, rubric *models.AssessmentRubric) error
	Delete(ctx context.Context, id uint) error
}

type rubricRepository struct {
	db *gorm.DB
}

// NewRubricRepository instantiates the repository.
func NewRubricRepository(db *gorm.DB) RubricRepository {
	return &rubricRepository{db: db}
}

func (r *rubricRepository) GetByAssessmentID(ctx context.Context, assessmentID uint) (models.AssessmentRubric, error) {
	var rubric models.AssessmentRubric
	if err := r.db.WithContext(ctx).Where("assessment_id = ?", assessmentID).First(&rubric).Error; err != nil {
		return models.AssessmentRubric{}, err
	}

	return rubric, nil
}

// Upsert replaces the criteria document of the assessment's rubric, creating
// the row on first use. One rubric per assessment.
func (r *rubricRepository) Upsert(ctx context.Context, rubric *models.AssessmentRubric) error {
	var existing models.AssessmentRubric
	err := r.db.WithContext(ctx).Where("assessment_id = ?", rubric.AssessmentID).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(rubric).Error
		}
		return err
	}

	existing.Criteria = rubric.Criteria
	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return err
	}

	*rubric = existing
	return nil
}

func (r *rubricRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.AssessmentRubric{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
