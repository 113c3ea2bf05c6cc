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
)

var (
	// ErrAssessmentNotFound indicates the assessment was not located.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrSeedRepoInvalid indicates the seed repository could not be verified.
	ErrSeedRepoInvalid = errors.New("seed repository is not reachable")
	// ErrNextStageInvalid indicates the next-stage reference points nowhere.
	ErrNextStageInvalid = errors.New("next stage assessment does not exist")
)

// SeedVerifier resolves and checks a seed repository URL with the
// source-control provider, and archives candidate repositories when an
// assessment is retired.
type SeedVerifier interface {
	EnsureSeedRepo(ctx context.Context, seedRepoURL string) (string, error)
	GetBranchSHA(ctx context.Context, repoFullName, branch string) (string, error)
	ArchiveRepo(ctx context.Context, repoFullName string) error
}

// AssessmentService manages the assessment catalogue.
type AssessmentService interface {
	List(ctx context.Context, filter repository.AssessmentFilter) ([]dto.AssessmentResponse, int64, error)
	Get(ctx context.Context, id uint) (dto.AssessmentResponse, error)
	Create(ctx context.Context, payload dto.AssessmentCreateRequest) (dto.AssessmentResponse, error)
	Update(ctx context.Context, id uint, payload dto.AssessmentUpdateRequest) (dto.AssessmentResponse, error)
	Archive(ctx context.Context, id uint, archived bool) (dto.AssessmentResponse, error)
	Delete(ctx context.Context, id uint) error
}

type assessmentService struct {
	repo      repository.AssessmentRepository
	invites   repository.InviteRepository
	verifier  SeedVerifier
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAssessmentService constructs the assessment service.
func NewAssessmentService(repo repository.AssessmentRepository, invites repository.InviteRepository, verifier SeedVerifier, validate *validator.Validate, logger zerolog.Logger) AssessmentService {
	return &assessmentService{
		repo:      repo,
		invites:   invites,
		verifier:  verifier,
		validator: validate,
		logger:    logger.With().Str("component", "assessment_service").Logger(),
	}
}

func (s *assessmentService) List(ctx context.Context, filter repository.AssessmentFilter) ([]dto.AssessmentResponse, int64, error) {
	assessments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return dto.NewAssessmentResponseSlice(assessments), total, nil
}

func (s *assessmentService) Get(ctx context.Context, id uint) (dto.AssessmentResponse, error) {
	assessment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) Create(ctx context.Context, payload dto.AssessmentCreateRequest) (dto.AssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentResponse{}, err
	}

	if payload.NextStageAssessmentID != nil {
		if _, err := s.repo.GetByID(ctx, *payload.NextStageAssessmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.AssessmentResponse{}, ErrNextStageInvalid
			}
			return dto.AssessmentResponse{}, err
		}
	}

	fullName, err := s.verifier.EnsureSeedRepo(ctx, payload.SeedRepoURL)
	if err != nil {
		s.logger.Warn().Err(err).Str("seed_repo", payload.SeedRepoURL).Msg("seed repo verification failed")
		return dto.AssessmentResponse{}, ErrSeedRepoInvalid
	}

	assessment := models.Assessment{
		Title:                 payload.Title,
		Description:           payload.Description,
		Instructions:          payload.Instructions,
		SeedRepoURL:           payload.SeedRepoURL,
		StartWithinHours:      payload.StartWithinHours,
		CompleteWithinHours:   payload.CompleteWithinHours,
		CalendlyLink:          payload.CalendlyLink,
		FollowupSubject:       payload.FollowupSubject,
		FollowupBody:          payload.FollowupBody,
		NextStageAssessmentID: payload.NextStageAssessmentID,
	}

	if err := s.repo.Create(ctx, &assessment); err != nil {
		return dto.AssessmentResponse{}, err
	}

	seed := models.SeedRepo{AssessmentID: assessment.ID, DefaultBranch: "main"}
	if sha, err := s.verifier.GetBranchSHA(ctx, fullName, "main"); err == nil {
		seed.LatestMainSHA = sha
	} else {
		s.logger.Warn().Err(err).Str("seed_repo", fullName).Msg("could not resolve seed main sha")
	}
	if err := s.repo.SaveSeedRepo(ctx, &seed); err != nil {
		return dto.AssessmentResponse{}, err
	}
	assessment.SeedRepo = &seed

	s.logger.Info().Uint("assessment_id", assessment.ID).Str("title", assessment.Title).Msg("assessment created")

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) Update(ctx context.Context, id uint, payload dto.AssessmentUpdateRequest) (dto.AssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentResponse{}, err
	}

	assessment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	if payload.NextStageAssessmentID != nil {
		if _, err := s.repo.GetByID(ctx, *payload.NextStageAssessmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.AssessmentResponse{}, ErrNextStageInvalid
			}
			return dto.AssessmentResponse{}, err
		}
		assessment.NextStageAssessmentID = payload.NextStageAssessmentID
	}

	if payload.Title != nil {
		assessment.Title = *payload.Title
	}
	if payload.Description != nil {
		assessment.Description = *payload.Description
	}
	if payload.Instructions != nil {
		assessment.Instructions = *payload.Instructions
	}
	if payload.StartWithinHours != nil {
		assessment.StartWithinHours = *payload.StartWithinHours
	}
	if payload.CompleteWithinHours != nil {
		assessment.CompleteWithinHours = *payload.CompleteWithinHours
	}
	if payload.CalendlyLink != nil {
		assessment.CalendlyLink = *payload.CalendlyLink
	}
	if payload.FollowupSubject != nil {
		assessment.FollowupSubject = *payload.FollowupSubject
	}
	if payload.FollowupBody != nil {
		assessment.FollowupBody = *payload.FollowupBody
	}
	if payload.Archived != nil {
		assessment.Archived = *payload.Archived
	}

	if err := s.repo.Update(ctx, &assessment); err != nil {
		return dto.AssessmentResponse{}, err
	}

	return dto.NewAssessmentResponse(assessment), nil
}

// Archive toggles the archived flag. Archiving also archives every candidate
// repository created for the assessment so the provider stops accepting
// pushes; archival failures on individual repos are logged and skipped.
func (s *assessmentService) Archive(ctx context.Context, id uint, archived bool) (dto.AssessmentResponse, error) {
	assessment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	assessment.Archived = archived
	if err := s.repo.Update(ctx, &assessment); err != nil {
		return dto.AssessmentResponse{}, err
	}

	if archived {
		invites, err := s.invites.List(ctx, repository.InviteFilter{AssessmentID: &id})
		if err != nil {
			return dto.AssessmentResponse{}, err
		}
		for _, invite := range invites {
			repo := invite.CandidateRepo
			if repo == nil || repo.Archived {
				continue
			}
			if err := s.verifier.ArchiveRepo(ctx, repo.RepoFullName); err != nil {
				s.logger.Warn().Err(err).Str("repo", repo.RepoFullName).Msg("candidate repo archive failed")
				continue
			}
			repo.Archived = true
			if err := s.invites.SaveCandidateRepo(ctx, repo); err != nil {
				return dto.AssessmentResponse{}, err
			}
		}
	}

	s.logger.Info().Uint("assessment_id", id).Bool("archived", archived).Msg("assessment archive state changed")

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssessmentNotFound
		}
		return err
	}

	return nil
}
