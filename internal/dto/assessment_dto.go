package dto

import (
	"time"

	"github.com/talentgate/talentgate-api/internal/models"
)

// AssessmentCreateRequest describes the payload for creating an assessment.
type AssessmentCreateRequest struct {
	Title                 string `json:"title" validate:"required,min=3"`
	Description           string `json:"description" validate:"omitempty"`
	Instructions          string `json:"instructions" validate:"omitempty"`
	SeedRepoURL           string `json:"seed_repo_url" validate:"required,url"`
	StartWithinHours      int    `json:"start_within_hours" validate:"required,gt=0"`
	CompleteWithinHours   int    `json:"complete_within_hours" validate:"required,gt=0"`
	CalendlyLink          string `json:"calendly_link" validate:"omitempty,url"`
	FollowupSubject       string `json:"followup_subject" validate:"omitempty,max=255"`
	FollowupBody          string `json:"followup_body" validate:"omitempty"`
	NextStageAssessmentID *uint  `json:"next_stage_assessment_id" validate:"omitempty,gt=0"`
}

// AssessmentUpdateRequest describes a partial assessment update.
type AssessmentUpdateRequest struct {
	Title                 *string `json:"title" validate:"omitempty,min=3"`
	Description           *string `json:"description"`
	Instructions          *string `json:"instructions"`
	StartWithinHours      *int    `json:"start_within_hours" validate:"omitempty,gt=0"`
	CompleteWithinHours   *int    `json:"complete_within_hours" validate:"omitempty,gt=0"`
	CalendlyLink          *string `json:"calendly_link" validate:"omitempty,url"`
	FollowupSubject       *string `json:"followup_subject" validate:"omitempty,max=255"`
	FollowupBody          *string `json:"followup_body"`
	NextStageAssessmentID *uint   `json:"next_stage_assessment_id" validate:"omitempty,gt=0"`
	Archived              *bool   `json:"archived"`
}

// AssessmentResponse is the serialized representation returned to API clients.
type AssessmentResponse struct {
	ID                    uint      `json:"id"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	Instructions          string    `json:"instructions"`
	SeedRepoURL           string    `json:"seed_repo_url"`
	StartWithinHours      int       `json:"start_within_hours"`
	CompleteWithinHours   int       `json:"complete_within_hours"`
	CalendlyLink          string    `json:"calendly_link,omitempty"`
	FollowupSubject       string    `json:"followup_subject,omitempty"`
	FollowupBody          string    `json:"followup_body,omitempty"`
	NextStageAssessmentID *uint     `json:"next_stage_assessment_id,omitempty"`
	Archived              bool      `json:"archived"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// NewAssessmentResponse converts a model into a DTO.
func NewAssessmentResponse(model models.Assessment) AssessmentResponse {
	return AssessmentResponse{
		ID:                    model.ID,
		Title:                 model.Title,
		Description:           model.Description,
		Instructions:          model.Instructions,
		SeedRepoURL:           model.SeedRepoURL,
		StartWithinHours:      model.StartWithinHours,
		CompleteWithinHours:   model.CompleteWithinHours,
		CalendlyLink:          model.CalendlyLink,
		FollowupSubject:       model.FollowupSubject,
		FollowupBody:          model.FollowupBody,
		NextStageAssessmentID: model.NextStageAssessmentID,
		Archived:              model.Archived,
		CreatedAt:             model.CreatedAt,
		UpdatedAt:             model.UpdatedAt,
	}
}

// NewAssessmentResponseSlice converts a slice of models into DTOs.
func NewAssessmentResponseSlice(assessments []models.Assessment) []AssessmentResponse {
	responses := make([]AssessmentResponse, 0, len(assessments))
	for _, assessment := range assessments {
		responses = append(responses, NewAssessmentResponse(assessment))
	}

	return responses
}
