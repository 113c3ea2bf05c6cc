package dto

import (
	"time"

	"github.com/talentgate/talentgate-api/internal/models"
	"github.com/talentgate/talentgate-api/internal/scoring"
)

// RubricUpsertRequest replaces the criteria document of an assessment rubric.
type RubricUpsertRequest struct {
	AssessmentID uint                `json:"assessment_id" validate:"required,gt=0"`
	Criteria     []scoring.Criterion `json:"criteria" validate:"required,min=1,dive"`
}

// RubricResponse is the serialized rubric returned to API clients.
type RubricResponse struct {
	ID           uint                `json:"id"`
	AssessmentID uint                `json:"assessment_id"`
	Criteria     []scoring.Criterion `json:"criteria"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// NewRubricResponse converts a rubric model and its decoded criteria into a DTO.
func NewRubricResponse(model models.AssessmentRubric, criteria []scoring.Criterion) RubricResponse {
	return RubricResponse{
		ID:           model.ID,
		AssessmentID: model.AssessmentID,
		Criteria:     criteria,
		UpdatedAt:    model.UpdatedAt,
	}
}

// ScoreUpsertRequest records a full manual grade for one invite. The criteria
// scores document replaces any previous grade wholesale.
type ScoreUpsertRequest struct {
	InviteID       uint                              `json:"invite_id" validate:"required,gt=0"`
	CriteriaScores map[string]scoring.CriterionScore `json:"criteria_scores" validate:"required,min=1"`
	GradedBy       string                            `json:"graded_by" validate:"required,max=255"`
	Notes          string                            `json:"notes" validate:"omitempty"`
}

// ScoreResponse is the serialized submission score.
type ScoreResponse struct {
	ID             uint                              `json:"id"`
	InviteID       uint                              `json:"invite_id"`
	CriteriaScores map[string]scoring.CriterionScore `json:"criteria_scores"`
	TotalScore     scoring.Decimal                   `json:"total_score"`
	GradedBy       string                            `json:"graded_by"`
	GradedAt       time.Time                         `json:"graded_at"`
	Notes          string                            `json:"notes,omitempty"`
	ManualRank     *int                              `json:"manual_rank,omitempty"`
}

// NewScoreResponse converts a score model and its decoded criteria scores into a DTO.
func NewScoreResponse(model models.SubmissionScore, criteriaScores map[string]scoring.CriterionScore) ScoreResponse {
	return ScoreResponse{
		ID:             model.ID,
		InviteID:       model.InviteID,
		CriteriaScores: criteriaScores,
		TotalScore:     model.TotalScore,
		GradedBy:       model.GradedBy,
		GradedAt:       model.GradedAt,
		Notes:          model.Notes,
		ManualRank:     model.ManualRank,
	}
}

// AIGradeRequest triggers an explicit AI grading run for one invite.
type AIGradeRequest struct {
	InviteID uint `json:"invite_id" validate:"required,gt=0"`
}

// AIGradeResponse reports the outcome of an AI grading run.
type AIGradeResponse struct {
	Score         ScoreResponse `json:"score"`
	Model         string        `json:"model"`
	TokensUsed    int           `json:"tokens_used"`
	EstimatedCost float64       `json:"estimated_cost"`
	Summary       string        `json:"summary,omitempty"`
}

// GradingLogResponse is the serialized audit record of one AI grading attempt.
type GradingLogResponse struct {
	ID               uint                   `json:"id"`
	InviteID         uint                   `json:"invite_id"`
	Model            string                 `json:"model"`
	PromptTokens     int                    `json:"prompt_tokens"`
	CompletionTokens int                    `json:"completion_tokens"`
	CriteriaAnalyzed []string               `json:"criteria_analyzed"`
	RawResponse      map[string]interface{} `json:"raw_response"`
	CreatedAt        time.Time              `json:"created_at"`
}

// CostEstimateResponse reports the projected cost of an AI grading run.
type CostEstimateResponse struct {
	Model           string  `json:"model"`
	EstimatedTokens int     `json:"estimated_tokens"`
	EstimatedCost   float64 `json:"estimated_cost"`
}
