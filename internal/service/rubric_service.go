package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/dto"
	"github.com/talentgate/talentgate-api/internal/models"
	"github.com/talentgate/talentgate-api/internal/repository"
	"github.com/talentgate/talentgate-api/internal/scoring"
)

// ErrRubricNotFound indicates the assessment has no rubric yet.
var ErrRubricNotFound = errors.New("rubric not found")

// DefaultCriteria is the rubric applied to assessments that never configured
// their own.
var DefaultCriteria = []scoring.Criterion{
	{Name: "code_quality", Description: "Code readability, structure, and craftsmanship", Weight: 0.34, Type: scoring.CriterionTypeManual, Scoring: scoring.ScoringScale, MaxScore: 10},
	{Name: "design", Description: "Architecture and API design decisions", Weight: 0.33, Type: scoring.CriterionTypeManual, Scoring: scoring.ScoringScale, MaxScore: 10},
	{Name: "creativity", Description: "Original thinking beyond the minimum requirements", Weight: 0.33, Type: scoring.CriterionTypeManual, Scoring: scoring.ScoringScale, MaxScore: 10},
}

// RubricService manages weighted grading criteria per assessment.
type RubricService interface {
	Get(ctx context.Context, assessmentID uint) (dto.RubricResponse, error)
	Upsert(ctx context.Context, payload dto.RubricUpsertRequest) (dto.RubricResponse, error)
	Delete(ctx context.Context, id uint) error
	CriteriaFor(ctx context.Context, assessmentID uint) ([]scoring.Criterion, error)
}

type rubricService struct {
	rubrics     repository.RubricRepository
	assessments repository.AssessmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewRubricService constructs the rubric service.
func NewRubricService(rubrics repository.RubricRepository, assessments repository.AssessmentRepository, validate *validator.Validate, logger zerolog.Logger) RubricService {
	return &rubricService{
		rubrics:     rubrics,
		assessments: assessments,
		validator:   validate,
		logger:      logger.With().Str("component", "rubric_service").Logger(),
	}
}

func (s *rubricService) Get(ctx context.Context, assessmentID uint) (dto.RubricResponse, error) {
	rubric, err := s.rubrics.GetByAssessmentID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RubricResponse{}, ErrRubricNotFound
		}
		return dto.RubricResponse{}, err
	}

	criteria, err := scoring.DecodeCriteria(rubric.Criteria)
	if err != nil {
		return dto.RubricResponse{}, err
	}

	return dto.NewRubricResponse(rubric, criteria), nil
}

func (s *rubricService) Upsert(ctx context.Context, payload dto.RubricUpsertRequest) (dto.RubricResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RubricResponse{}, err
	}

	if _, err := s.assessments.GetByID(ctx, payload.AssessmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RubricResponse{}, ErrAssessmentNotFound
		}
		return dto.RubricResponse{}, err
	}

	if err := scoring.ValidateWeights(payload.Criteria); err != nil {
		return dto.RubricResponse{}, err
	}

	document, err := scoring.EncodeCriteria(payload.Criteria)
	if err != nil {
		return dto.RubricResponse{}, err
	}
	if err := scoring.ValidateCriteriaDocument(document); err != nil {
		return dto.RubricResponse{}, err
	}

	rubric := models.AssessmentRubric{
		AssessmentID: payload.AssessmentID,
		Criteria:     document,
	}
	if err := s.rubrics.Upsert(ctx, &rubric); err != nil {
		return dto.RubricResponse{}, err
	}

	criteria, err := scoring.DecodeCriteria(rubric.Criteria)
	if err != nil {
		return dto.RubricResponse{}, err
	}

	s.logger.Info().
		Uint("assessment_id", payload.AssessmentID).
		Int("criteria", len(criteria)).
		Msg("rubric updated")

	return dto.NewRubricResponse(rubric, criteria), nil
}

// Delete removes a rubric. Grading for the assessment falls back to the
// default criteria afterwards.
func (s *rubricService) Delete(ctx context.Context, id uint) error {
	if err := s.rubrics.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRubricNotFound
		}
		return err
	}

	s.logger.Info().Uint("rubric_id", id).Msg("rubric deleted")
	return nil
}

// CriteriaFor returns the assessment's criteria, falling back to the default
// rubric when none is configured.
func (s *rubricService) CriteriaFor(ctx context.Context, assessmentID uint) ([]scoring.Criterion, error) {
	rubric, err := s.rubrics.GetByAssessmentID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DefaultCriteria, nil
		}
		return nil, err
	}

	return scoring.DecodeCriteria(rubric.Criteria)
}
