package dto

import (
	"time"

	"github.com/talentgate/talentgate-api/internal/models"
	"github.com/talentgate/talentgate-api/pkg/ai"
)

// InviteCreateRequest invites one candidate to an assessment.
type InviteCreateRequest struct {
	CandidateEmail string `json:"candidate_email" validate:"required,email"`
	CandidateName  string `json:"candidate_name" validate:"omitempty,max=255"`
}

// SubmitRequest is the candidate-facing submission payload.
type SubmitRequest struct {
	DemoLink string `json:"demo_link" validate:"omitempty,url"`
}

// InviteResponse is the serialized invite returned to admins.
type InviteResponse struct {
	ID                 uint       `json:"id"`
	AssessmentID       uint       `json:"assessment_id"`
	CandidateID        uint       `json:"candidate_id"`
	CandidateEmail     string     `json:"candidate_email,omitempty"`
	CandidateName      string     `json:"candidate_name,omitempty"`
	Status             string     `json:"status"`
	StartURLSlug       string     `json:"start_url_slug,omitempty"`
	StartDeadlineAt    *time.Time `json:"start_deadline_at,omitempty"`
	CompleteDeadlineAt *time.Time `json:"complete_deadline_at,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	SubmittedAt        *time.Time `json:"submitted_at,omitempty"`
	RepoFullName       string     `json:"repo_full_name,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// NewInviteResponse converts a model into a DTO. Candidate and repo fields are
// filled only when the associations were preloaded.
func NewInviteResponse(model models.AssessmentInvite) InviteResponse {
	resp := InviteResponse{
		ID:                 model.ID,
		AssessmentID:       model.AssessmentID,
		CandidateID:        model.CandidateID,
		Status:             model.Status,
		StartURLSlug:       model.StartURLSlug,
		StartDeadlineAt:    model.StartDeadlineAt,
		CompleteDeadlineAt: model.CompleteDeadlineAt,
		StartedAt:          model.StartedAt,
		SubmittedAt:        model.SubmittedAt,
		CreatedAt:          model.CreatedAt,
	}

	if model.Candidate.ID != 0 {
		resp.CandidateEmail = model.Candidate.Email
		resp.CandidateName = model.Candidate.FullName
	}
	if model.CandidateRepo != nil {
		resp.RepoFullName = model.CandidateRepo.RepoFullName
	}

	return resp
}

// NewInviteResponseSlice converts a slice of models into DTOs.
func NewInviteResponseSlice(invites []models.AssessmentInvite) []InviteResponse {
	responses := make([]InviteResponse, 0, len(invites))
	for _, invite := range invites {
		responses = append(responses, NewInviteResponse(invite))
	}

	return responses
}

// StartResponse is returned to a candidate who starts their assessment. The
// access token is shown exactly once; only its hash is stored.
type StartResponse struct {
	AssessmentTitle    string     `json:"assessment_title"`
	Instructions       string     `json:"instructions"`
	RepoFullName       string     `json:"repo_full_name"`
	AccessToken        string     `json:"access_token"`
	CompleteDeadlineAt *time.Time `json:"complete_deadline_at,omitempty"`
}

// SubmissionResponse is the serialized submission snapshot.
type SubmissionResponse struct {
	ID          uint      `json:"id"`
	InviteID    uint      `json:"invite_id"`
	FinalSHA    string    `json:"final_sha"`
	DemoLink    string    `json:"demo_link,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewSubmissionResponse converts a model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:          model.ID,
		InviteID:    model.InviteID,
		FinalSHA:    model.FinalSHA,
		DemoLink:    model.DemoLink,
		SubmittedAt: model.SubmittedAt,
	}
}

// CommitResponse is one commit of a candidate repository.
type CommitResponse struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	Author  string `json:"author"`
	Date    string `json:"date"`
}

// NewCommitResponseSlice converts provider commits into DTOs.
func NewCommitResponseSlice(commits []ai.Commit) []CommitResponse {
	responses := make([]CommitResponse, 0, len(commits))
	for _, commit := range commits {
		responses = append(responses, CommitResponse{
			SHA:     commit.SHA,
			Message: commit.Message,
			Author:  commit.Author,
			Date:    commit.Date,
		})
	}

	return responses
}
