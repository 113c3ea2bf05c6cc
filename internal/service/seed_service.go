package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/models"
	"github.com/talentgate/talentgate-api/internal/repository"
	"github.com/talentgate/talentgate-api/internal/scoring"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService provisions default rubrics and settings for new environments.
type SeedService interface {
	SeedDefaultRubrics(ctx context.Context, token string) (int, error)
	SeedSettings(ctx context.Context, token string, settings map[string]string) (int, error)
}

type seedService struct {
	assessments repository.AssessmentRepository
	rubrics     repository.RubricRepository
	settings    repository.SettingRepository
	enabled     bool
	token       string
	logger      zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(assessments repository.AssessmentRepository, rubrics repository.RubricRepository, settings repository.SettingRepository, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		assessments: assessments,
		rubrics:     rubrics,
		settings:    settings,
		enabled:     enabled,
		token:       token,
		logger:      logger.With().Str("component", "seed_service").Logger(),
	}
}

// SeedDefaultRubrics attaches the default criteria to every assessment that
// has no rubric yet.
func (s *seedService) SeedDefaultRubrics(ctx context.Context, token string) (int, error) {
	if !s.enabled {
		return 0, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return 0, ErrSeedUnauthorized
	}

	document, err := scoring.EncodeCriteria(DefaultCriteria)
	if err != nil {
		return 0, err
	}

	assessments, _, err := s.assessments.List(ctx, repository.AssessmentFilter{IncludeArchived: true})
	if err != nil {
		return 0, err
	}

	seeded := 0
	for _, assessment := range assessments {
		if _, err := s.rubrics.GetByAssessmentID(ctx, assessment.ID); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return seeded, err
		}

		rubric := models.AssessmentRubric{AssessmentID: assessment.ID, Criteria: document}
		if err := s.rubrics.Upsert(ctx, &rubric); err != nil {
			return seeded, err
		}
		seeded++
	}

	s.logger.Info().Int("seeded", seeded).Msg("default rubrics seeded")
	return seeded, nil
}

// SeedSettings upserts the given global settings.
func (s *seedService) SeedSettings(ctx context.Context, token string, settings map[string]string) (int, error) {
	if !s.enabled {
		return 0, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return 0, ErrSeedUnauthorized
	}

	seeded := 0
	for key, value := range settings {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if err := s.settings.Set(ctx, key, value); err != nil {
			return seeded, err
		}
		seeded++
	}

	s.logger.Info().Int("seeded", seeded).Msg("settings seeded")
	return seeded, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}
