package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/dto"
	"github.com/talentgate/talentgate-api/internal/models"
	"github.com/talentgate/talentgate-api/internal/repository"
	"github.com/talentgate/talentgate-api/pkg/ai"
	"github.com/talentgate/talentgate-api/pkg/email"
	"github.com/talentgate/talentgate-api/pkg/github"
)

var (
	// ErrInviteNotFound indicates the invite was not located.
	ErrInviteNotFound = errors.New("invite not found")
	// ErrInviteClosed indicates the invite is not in a state for the operation.
	ErrInviteClosed = errors.New("invite is not open for this operation")
	// ErrInviteExpired indicates a deadline has passed.
	ErrInviteExpired = errors.New("invite deadline has passed")
	// ErrAssessmentArchived indicates invites cannot be issued anymore.
	ErrAssessmentArchived = errors.New("assessment is archived")
)

const accessTokenTTL = 14 * 24 * time.Hour

// RepoProvisioner provisions per-candidate repositories.
type RepoProvisioner interface {
	EnsureSeedRepo(ctx context.Context, seedRepoURL string) (string, error)
	CreateCandidateRepo(ctx context.Context, seedFullName string) (github.CloneResult, error)
	GetBranchSHA(ctx context.Context, repoFullName, branch string) (string, error)
	GetCommitHistory(ctx context.Context, repoFullName string) ([]ai.Commit, error)
}

// AutoGrader runs the post-submission grading pass. Implementations swallow
// their own errors; a failed auto-grade never fails the submission.
type AutoGrader interface {
	AutoGrade(inviteID uint)
}

// InviteService manages the candidate invite lifecycle.
type InviteService interface {
	Create(ctx context.Context, assessmentID uint, payload dto.InviteCreateRequest) (dto.InviteResponse, error)
	List(ctx context.Context, filter repository.InviteFilter) ([]dto.InviteResponse, error)
	Get(ctx context.Context, id uint) (dto.InviteResponse, error)
	Preview(ctx context.Context, slug string) (dto.InviteResponse, error)
	Start(ctx context.Context, slug string) (dto.StartResponse, error)
	Submit(ctx context.Context, slug string, payload dto.SubmitRequest) (dto.SubmissionResponse, error)
	Commits(ctx context.Context, slug string) ([]dto.CommitResponse, error)
}

type inviteService struct {
	invites     repository.InviteRepository
	candidates  repository.CandidateRepository
	assessments repository.AssessmentRepository
	provisioner RepoProvisioner
	sender      email.Sender
	events      EventPublisher
	autoGrader  AutoGrader
	baseURL     string
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewInviteService constructs the invite service. The sender and auto grader
// may be nil; invites then skip email delivery and auto grading.
func NewInviteService(
	invites repository.InviteRepository,
	candidates repository.CandidateRepository,
	assessments repository.AssessmentRepository,
	provisioner RepoProvisioner,
	sender email.Sender,
	events EventPublisher,
	autoGrader AutoGrader,
	baseURL string,
	validate *validator.Validate,
	logger zerolog.Logger,
) InviteService {
	return &inviteService{
		invites:     invites,
		candidates:  candidates,
		assessments: assessments,
		provisioner: provisioner,
		sender:      sender,
		events:      events,
		autoGrader:  autoGrader,
		baseURL:     strings.TrimRight(baseURL, "/"),
		validator:   validate,
		logger:      logger.With().Str("component", "invite_service").Logger(),
		now:         time.Now,
	}
}

func (s *inviteService) Create(ctx context.Context, assessmentID uint, payload dto.InviteCreateRequest) (dto.InviteResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.InviteResponse{}, err
	}

	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.InviteResponse{}, ErrAssessmentNotFound
		}
		return dto.InviteResponse{}, err
	}
	if assessment.Archived {
		return dto.InviteResponse{}, ErrAssessmentArchived
	}

	candidate, err := s.candidates.FindOrCreateByEmail(ctx, strings.ToLower(strings.TrimSpace(payload.CandidateEmail)), strings.TrimSpace(payload.CandidateName))
	if err != nil {
		return dto.InviteResponse{}, err
	}

	startDeadline := s.now().Add(time.Duration(assessment.StartWithinHours) * time.Hour)
	invite := models.AssessmentInvite{
		AssessmentID:    assessment.ID,
		CandidateID:     candidate.ID,
		Status:          models.InviteStatusPending,
		StartDeadlineAt: &startDeadline,
		StartURLSlug:    uuid.NewString(),
	}
	if err := s.invites.Create(ctx, &invite); err != nil {
		return dto.InviteResponse{}, err
	}
	invite.Candidate = candidate

	s.sendInviteEmail(ctx, assessment, candidate, invite)
	s.events.Publish(ctx, SubjectInviteCreated, dto.NewInviteResponse(invite))

	s.logger.Info().
		Uint("invite_id", invite.ID).
		Uint("assessment_id", assessment.ID).
		Str("candidate", candidate.Email).
		Msg("invite created")

	return dto.NewInviteResponse(invite), nil
}

func (s *inviteService) sendInviteEmail(ctx context.Context, assessment models.Assessment, candidate models.Candidate, invite models.AssessmentInvite) {
	if s.sender == nil {
		return
	}

	startURL := fmt.Sprintf("%s/assessments/start/%s", s.baseURL, invite.StartURLSlug)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>You have been invited to the <strong>%s</strong> assessment.</p><p><a href=%q>Start your assessment</a> before %s.</p>",
		displayName(candidate), assessment.Title, startURL, invite.StartDeadlineAt.Format(time.RFC1123),
	)

	if _, err := s.sender.Send(ctx, email.Message{
		To:      candidate.Email,
		Subject: fmt.Sprintf("You're invited: %s", assessment.Title),
		HTML:    body,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("invite_id", invite.ID).Msg("failed to send invite email")
	}
}

func (s *inviteService) List(ctx context.Context, filter repository.InviteFilter) ([]dto.InviteResponse, error) {
	invites, err := s.invites.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewInviteResponseSlice(invites), nil
}

func (s *inviteService) Get(ctx context.Context, id uint) (dto.InviteResponse, error) {
	invite, err := s.invites.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.InviteResponse{}, ErrInviteNotFound
		}
		return dto.InviteResponse{}, err
	}

	return dto.NewInviteResponse(invite), nil
}

// Preview returns the invite state behind a start link without mutating it.
func (s *inviteService) Preview(ctx context.Context, slug string) (dto.InviteResponse, error) {
	invite, err := s.invites.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.InviteResponse{}, ErrInviteNotFound
		}
		return dto.InviteResponse{}, err
	}

	return dto.NewInviteResponse(invite), nil
}

func (s *inviteService) Start(ctx context.Context, slug string) (dto.StartResponse, error) {
	invite, err := s.invites.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StartResponse{}, ErrInviteNotFound
		}
		return dto.StartResponse{}, err
	}

	if !invite.IsOpen() {
		return dto.StartResponse{}, ErrInviteClosed
	}

	now := s.now()
	if invite.StartDeadlineAt != nil && now.After(*invite.StartDeadlineAt) {
		invite.Status = models.InviteStatusExpired
		if err := s.invites.Update(ctx, &invite); err != nil {
			s.logger.Warn().Err(err).Uint("invite_id", invite.ID).Msg("failed to mark invite expired")
		}
		return dto.StartResponse{}, ErrInviteExpired
	}

	seedFullName, err := s.provisioner.EnsureSeedRepo(ctx, invite.Assessment.SeedRepoURL)
	if err != nil {
		return dto.StartResponse{}, ErrSeedRepoInvalid
	}

	clone, err := s.provisioner.CreateCandidateRepo(ctx, seedFullName)
	if err != nil {
		return dto.StartResponse{}, fmt.Errorf("provision candidate repo: %w", err)
	}

	repo := models.CandidateRepo{
		InviteID:      invite.ID,
		RepoFullName:  clone.RepoFullName,
		GitProvider:   "github",
		PinnedMainSHA: clone.PinnedMainSHA,
	}
	if err := s.invites.SaveCandidateRepo(ctx, &repo); err != nil {
		return dto.StartResponse{}, err
	}

	token := uuid.NewString()
	hash := sha256.Sum256([]byte(token))
	accessToken := models.RepoAccessToken{
		CandidateRepoID: repo.ID,
		TokenHash:       hex.EncodeToString(hash[:]),
		ExpiresAt:       now.Add(accessTokenTTL),
	}
	if err := s.invites.SaveAccessToken(ctx, &accessToken); err != nil {
		return dto.StartResponse{}, err
	}

	completeDeadline := now.Add(time.Duration(invite.Assessment.CompleteWithinHours) * time.Hour)
	invite.Status = models.InviteStatusStarted
	invite.StartedAt = &now
	invite.CompleteDeadlineAt = &completeDeadline
	if err := s.invites.Update(ctx, &invite); err != nil {
		return dto.StartResponse{}, err
	}
	invite.CandidateRepo = &repo

	s.events.Publish(ctx, SubjectInviteStarted, dto.NewInviteResponse(invite))

	s.logger.Info().
		Uint("invite_id", invite.ID).
		Str("repo", clone.RepoFullName).
		Msg("assessment started")

	return dto.StartResponse{
		AssessmentTitle:    invite.Assessment.Title,
		Instructions:       invite.Assessment.Instructions,
		RepoFullName:       clone.RepoFullName,
		AccessToken:        token,
		CompleteDeadlineAt: invite.CompleteDeadlineAt,
	}, nil
}

func (s *inviteService) Submit(ctx context.Context, slug string, payload dto.SubmitRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	invite, err := s.invites.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrInviteNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if invite.Status != models.InviteStatusStarted {
		return dto.SubmissionResponse{}, ErrInviteClosed
	}

	now := s.now()
	if invite.CompleteDeadlineAt != nil && now.After(*invite.CompleteDeadlineAt) {
		invite.Status = models.InviteStatusExpired
		if err := s.invites.Update(ctx, &invite); err != nil {
			s.logger.Warn().Err(err).Uint("invite_id", invite.ID).Msg("failed to mark invite expired")
		}
		return dto.SubmissionResponse{}, ErrInviteExpired
	}

	finalSHA := ""
	if invite.CandidateRepo != nil {
		if sha, err := s.provisioner.GetBranchSHA(ctx, invite.CandidateRepo.RepoFullName, "main"); err == nil {
			finalSHA = sha
		} else {
			s.logger.Warn().Err(err).Uint("invite_id", invite.ID).Msg("could not pin final sha at submission")
		}
	}

	submission := models.Submission{
		InviteID:    invite.ID,
		FinalSHA:    finalSHA,
		DemoLink:    payload.DemoLink,
		SubmittedAt: now,
	}
	if err := s.invites.CreateSubmission(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	invite.Status = models.InviteStatusSubmitted
	invite.SubmittedAt = &now
	if err := s.invites.Update(ctx, &invite); err != nil {
		return dto.SubmissionResponse{}, err
	}

	// The candidate no longer needs push access once the work is snapshot.
	if invite.CandidateRepo != nil {
		if err := s.invites.RevokeTokens(ctx, invite.CandidateRepo.ID); err != nil {
			s.logger.Warn().Err(err).Uint("invite_id", invite.ID).Msg("failed to revoke access tokens")
		}
	}

	s.events.Publish(ctx, SubjectInviteSubmitted, dto.NewSubmissionResponse(submission))

	// Grading runs inline on the submit request; the grader swallows its own
	// failures, so a broken grade never blocks the submission.
	if s.autoGrader != nil {
		s.autoGrader.AutoGrade(invite.ID)
	}

	s.logger.Info().Uint("invite_id", invite.ID).Str("final_sha", finalSHA).Msg("submission recorded")

	return dto.NewSubmissionResponse(submission), nil
}

// Commits lets a candidate review the history of their own repository.
func (s *inviteService) Commits(ctx context.Context, slug string) ([]dto.CommitResponse, error) {
	invite, err := s.invites.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}

	if invite.CandidateRepo == nil || invite.CandidateRepo.RepoFullName == "" {
		return nil, ErrInviteClosed
	}

	commits, err := s.provisioner.GetCommitHistory(ctx, invite.CandidateRepo.RepoFullName)
	if err != nil {
		return nil, fmt.Errorf("fetch commit history: %w", err)
	}

	return dto.NewCommitResponseSlice(commits), nil
}

func displayName(candidate models.Candidate) string {
	if candidate.FullName != "" {
		return candidate.FullName
	}
	return candidate.Email
}
