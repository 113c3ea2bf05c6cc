package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/dto"
	"github.com/talentgate/talentgate-api/internal/models"
	"github.com/talentgate/talentgate-api/internal/observability"
	"github.com/talentgate/talentgate-api/internal/repository"
	"github.com/talentgate/talentgate-api/internal/scoring"
	"github.com/talentgate/talentgate-api/pkg/ai"
)

var (
	// ErrNotSubmitted indicates the invite has no submission to grade.
	ErrNotSubmitted = errors.New("invite has not been submitted")
	// ErrNotGraded indicates no score exists for the invite.
	ErrNotGraded = errors.New("invite has not been graded")
	// ErrNoCandidateRepo indicates the invite has no working repository, so
	// there is nothing to diff for AI grading.
	ErrNoCandidateRepo = errors.New("invite has no candidate repository")
	// ErrAIGradingDisabled indicates no grader is configured.
	ErrAIGradingDisabled = errors.New("ai grading is not configured")
)

const autoGradeTimeout = 5 * time.Minute

// CodeReviewSource supplies the diff and commit history AI grading evaluates.
type CodeReviewSource interface {
	CompareCommits(ctx context.Context, repoFullName, base, head string) (ai.CodeDiff, error)
	GetCommitHistory(ctx context.Context, repoFullName string) ([]ai.Commit, error)
}

// GradingService applies manual and AI grades to submissions.
type GradingService interface {
	ApplyGrading(ctx context.Context, payload dto.ScoreUpsertRequest) (dto.ScoreResponse, error)
	GetScore(ctx context.Context, inviteID uint) (dto.ScoreResponse, error)
	DeleteScore(ctx context.Context, id uint) error
	AIGrade(ctx context.Context, inviteID uint) (dto.AIGradeResponse, error)
	AutoGrade(inviteID uint)
	EstimateCost(ctx context.Context, inviteID uint) (dto.CostEstimateResponse, error)
	Logs(ctx context.Context, inviteID uint) ([]dto.GradingLogResponse, error)
}

type gradingService struct {
	scores    repository.ScoreRepository
	invites   repository.InviteRepository
	logs      repository.GradingLogRepository
	rubrics   RubricService
	source    CodeReviewSource
	grader    ai.Grader
	model     string
	events    EventPublisher
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewGradingService constructs the grading service. The grader and review
// source may be nil; AI grading is then rejected with ErrAIGradingDisabled.
func NewGradingService(
	scores repository.ScoreRepository,
	invites repository.InviteRepository,
	logs repository.GradingLogRepository,
	rubrics RubricService,
	source CodeReviewSource,
	grader ai.Grader,
	model string,
	events EventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		scores:    scores,
		invites:   invites,
		logs:      logs,
		rubrics:   rubrics,
		source:    source,
		grader:    grader,
		model:     model,
		events:    events,
		validator: validate,
		logger:    logger.With().Str("component", "grading_service").Logger(),
		tracer:    otel.Tracer("github.com/talentgate/talentgate-api/internal/service/grading"),
		now:       time.Now,
	}
}

// ApplyGrading stores a full grade for one invite. The criteria scores
// document replaces any previous grade wholesale and the total is recomputed
// from the rubric; a pinned manual rank survives.
func (s *gradingService) ApplyGrading(ctx context.Context, payload dto.ScoreUpsertRequest) (dto.ScoreResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.apply", trace.WithAttributes(
		attribute.Int64("grading.invite_id", int64(payload.InviteID)),
		attribute.String("grading.graded_by", payload.GradedBy),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ScoreResponse{}, err
	}

	invite, err := s.invites.GetByID(ctx, payload.InviteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ScoreResponse{}, ErrInviteNotFound
		}
		return dto.ScoreResponse{}, err
	}
	if invite.Status != models.InviteStatusSubmitted {
		return dto.ScoreResponse{}, ErrNotSubmitted
	}

	criteria, err := s.rubrics.CriteriaFor(ctx, invite.AssessmentID)
	if err != nil {
		return dto.ScoreResponse{}, err
	}

	total, err := scoring.Aggregate(payload.CriteriaScores, criteria)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregation_failed")
		return dto.ScoreResponse{}, err
	}

	document, err := scoring.EncodeScores(payload.CriteriaScores)
	if err != nil {
		return dto.ScoreResponse{}, err
	}

	score := models.SubmissionScore{
		InviteID:       payload.InviteID,
		CriteriaScores: document,
		TotalScore:     total,
		GradedBy:       payload.GradedBy,
		GradedAt:       s.now(),
		Notes:          payload.Notes,
	}
	if err := s.scores.Upsert(ctx, &score); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "score_upsert_failed")
		return dto.ScoreResponse{}, err
	}

	span.SetAttributes(attribute.Float64("grading.total_score", total.Float64()))

	response := dto.NewScoreResponse(score, payload.CriteriaScores)
	s.events.Publish(ctx, SubjectScoreUpdated, response)

	s.logger.Info().
		Uint("invite_id", payload.InviteID).
		Str("graded_by", payload.GradedBy).
		Str("total", total.String()).
		Msg("grade recorded")

	return response, nil
}

func (s *gradingService) GetScore(ctx context.Context, inviteID uint) (dto.ScoreResponse, error) {
	score, err := s.scores.GetByInviteID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ScoreResponse{}, ErrNotGraded
		}
		return dto.ScoreResponse{}, err
	}

	criteriaScores, err := scoring.DecodeScores(score.CriteriaScores)
	if err != nil {
		return dto.ScoreResponse{}, err
	}

	return dto.NewScoreResponse(score, criteriaScores), nil
}

// DeleteScore removes a grade entirely, returning the invite to the ungraded
// pool.
func (s *gradingService) DeleteScore(ctx context.Context, id uint) error {
	if err := s.scores.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotGraded
		}
		return err
	}

	s.logger.Info().Uint("score_id", id).Msg("score deleted")
	return nil
}

// AIGrade evaluates the invite's code changes with the configured model and
// records the result as its grade.
func (s *gradingService) AIGrade(ctx context.Context, inviteID uint) (dto.AIGradeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.ai_grade", trace.WithAttributes(
		attribute.Int64("grading.invite_id", int64(inviteID)),
	))
	defer span.End()

	if s.grader == nil || s.source == nil {
		return dto.AIGradeResponse{}, ErrAIGradingDisabled
	}

	invite, diff, commits, criteria, err := s.collectGradingInput(ctx, inviteID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "input_collection_failed")
		return dto.AIGradeResponse{}, err
	}

	input := ai.GradingInput{
		AssessmentTitle:        invite.Assessment.Title,
		AssessmentDescription:  invite.Assessment.Description,
		AssessmentInstructions: invite.Assessment.Instructions,
		Diff:                   diff,
		Commits:                commits,
		Criteria:               toGradingCriteria(criteria),
	}

	result, err := s.grader.Grade(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model_call_failed")
		return dto.AIGradeResponse{}, err
	}

	criteriaScores := make(map[string]scoring.CriterionScore, len(result.Scores))
	for name, verdict := range result.Scores {
		criteriaScores[name] = scoring.CriterionScore{
			Score:    verdict.Score,
			MaxScore: verdict.MaxScore,
			Notes:    verdict.Reasoning,
		}
	}

	scoreResponse, err := s.ApplyGrading(ctx, dto.ScoreUpsertRequest{
		InviteID:       inviteID,
		CriteriaScores: criteriaScores,
		GradedBy:       models.GradedByAI,
	})
	if err != nil {
		return dto.AIGradeResponse{}, err
	}

	s.recordLog(ctx, inviteID, result)
	observability.AIGradingTokens().WithLabelValues(result.Model).Add(float64(result.TokensUsed()))

	estimate := ai.EstimateCost(diff, result.Model)

	return dto.AIGradeResponse{
		Score:         scoreResponse,
		Model:         result.Model,
		TokensUsed:    result.TokensUsed(),
		EstimatedCost: estimate.EstimatedCostUSD,
	}, nil
}

// AutoGrade runs AI grading after a submission. Failures are recorded in the
// grading log and never surface to the submitting candidate.
func (s *gradingService) AutoGrade(inviteID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), autoGradeTimeout)
	defer cancel()

	if _, err := s.AIGrade(ctx, inviteID); err != nil {
		s.logger.Warn().Err(err).Uint("invite_id", inviteID).Msg("auto grading failed")
		s.recordFailureLog(ctx, inviteID, err)
	}
}

func (s *gradingService) EstimateCost(ctx context.Context, inviteID uint) (dto.CostEstimateResponse, error) {
	if s.source == nil {
		return dto.CostEstimateResponse{}, ErrAIGradingDisabled
	}

	_, diff, _, _, err := s.collectGradingInput(ctx, inviteID)
	if err != nil {
		return dto.CostEstimateResponse{}, err
	}

	estimate := ai.EstimateCost(diff, s.model)

	return dto.CostEstimateResponse{
		Model:           estimate.Model,
		EstimatedTokens: estimate.EstimatedTokens,
		EstimatedCost:   estimate.EstimatedCostUSD,
	}, nil
}

func (s *gradingService) Logs(ctx context.Context, inviteID uint) ([]dto.GradingLogResponse, error) {
	logs, err := s.logs.ListByInviteID(ctx, inviteID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.GradingLogResponse, 0, len(logs))
	for _, log := range logs {
		var analyzed []string
		if len(log.CriteriaAnalyzed) > 0 {
			if err := json.Unmarshal(log.CriteriaAnalyzed, &analyzed); err != nil {
				s.logger.Warn().Err(err).Uint("log_id", log.ID).Msg("invalid criteria_analyzed document")
			}
		}

		responses = append(responses, dto.GradingLogResponse{
			ID:               log.ID,
			InviteID:         log.InviteID,
			Model:            log.Model,
			PromptTokens:     log.PromptTokens,
			CompletionTokens: log.CompletionTokens,
			CriteriaAnalyzed: analyzed,
			RawResponse:      log.RawResponse,
			CreatedAt:        log.CreatedAt,
		})
	}

	return responses, nil
}

func (s *gradingService) collectGradingInput(ctx context.Context, inviteID uint) (models.AssessmentInvite, ai.CodeDiff, []ai.Commit, []scoring.Criterion, error) {
	invite, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AssessmentInvite{}, ai.CodeDiff{}, nil, nil, ErrInviteNotFound
		}
		return models.AssessmentInvite{}, ai.CodeDiff{}, nil, nil, err
	}
	if invite.Status != models.InviteStatusSubmitted {
		return models.AssessmentInvite{}, ai.CodeDiff{}, nil, nil, ErrNotSubmitted
	}
	if invite.CandidateRepo == nil || invite.CandidateRepo.RepoFullName == "" {
		return models.AssessmentInvite{}, ai.CodeDiff{}, nil, nil, ErrNoCandidateRepo
	}

	base := invite.CandidateRepo.PinnedMainSHA
	head := ""
	if invite.Submission != nil {
		head = invite.Submission.FinalSHA
	}
	if head == "" {
		head = "main"
	}
	if base == "" {
		return models.AssessmentInvite{}, ai.CodeDiff{}, nil, nil, ErrNoCandidateRepo
	}

	diff, err := s.source.CompareCommits(ctx, invite.CandidateRepo.RepoFullName, base, head)
	if err != nil {
		return models.AssessmentInvite{}, ai.CodeDiff{}, nil, nil, err
	}

	commits, err := s.source.GetCommitHistory(ctx, invite.CandidateRepo.RepoFullName)
	if err != nil {
		s.logger.Warn().Err(err).Uint("invite_id", inviteID).Msg("could not fetch commit history")
		commits = nil
	}

	criteria, err := s.rubrics.CriteriaFor(ctx, invite.AssessmentID)
	if err != nil {
		return models.AssessmentInvite{}, ai.CodeDiff{}, nil, nil, err
	}

	return invite, diff, commits, criteria, nil
}

func (s *gradingService) recordLog(ctx context.Context, inviteID uint, result ai.GradingResult) {
	names := make([]string, 0, len(result.Scores))
	raw := make(map[string]interface{}, len(result.Scores))
	for name, verdict := range result.Scores {
		names = append(names, name)
		raw[name] = map[string]interface{}{
			"score":     verdict.Score,
			"max_score": verdict.MaxScore,
			"reasoning": verdict.Reasoning,
		}
	}

	analyzed, err := json.Marshal(names)
	if err != nil {
		analyzed = []byte("[]")
	}

	log := models.AIGradingLog{
		InviteID:         inviteID,
		Model:            result.Model,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		CriteriaAnalyzed: datatypes.JSON(analyzed),
		RawResponse:      datatypes.JSONMap(raw),
	}
	if err := s.logs.Create(ctx, &log); err != nil {
		s.logger.Warn().Err(err).Uint("invite_id", inviteID).Msg("failed to record grading log")
	}
}

func (s *gradingService) recordFailureLog(ctx context.Context, inviteID uint, cause error) {
	log := models.AIGradingLog{
		InviteID:         inviteID,
		Model:            s.model,
		CriteriaAnalyzed: datatypes.JSON([]byte("[]")),
		RawResponse:      datatypes.JSONMap{"error": cause.Error()},
	}
	if err := s.logs.Create(ctx, &log); err != nil {
		s.logger.Warn().Err(err).Uint("invite_id", inviteID).Msg("failed to record grading failure log")
	}
}

func toGradingCriteria(criteria []scoring.Criterion) []ai.GradingCriterion {
	converted := make([]ai.GradingCriterion, 0, len(criteria))
	for _, criterion := range criteria {
		converted = append(converted, ai.GradingCriterion{
			Name:        criterion.Name,
			Description: criterion.Description,
			Weight:      criterion.Weight,
			Scoring:     criterion.Scoring,
			MaxScore:    criterion.MaxScore,
		})
	}

	return converted
}
