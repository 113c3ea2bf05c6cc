package dto

import (
	"time"

	"github.com/talentgate/talentgate-api/internal/models"
)

// TestRunRequest triggers a sandboxed test suite run for one invite.
type TestRunRequest struct {
	InviteID uint   `json:"invite_id" validate:"required,gt=0"`
	Image    string `json:"image" validate:"omitempty,max=255"`
}

// TestRunResponse is the serialized outcome of a test suite run.
type TestRunResponse struct {
	ID              uint                   `json:"id"`
	InviteID        uint                   `json:"invite_id"`
	TestsPassed     int                    `json:"tests_passed"`
	TestsFailed     int                    `json:"tests_failed"`
	TestsSkipped    int                    `json:"tests_skipped"`
	TestOutput      map[string]interface{} `json:"test_output"`
	ExecutionTimeMs int                    `json:"execution_time_ms"`
	ExecutedAt      time.Time              `json:"executed_at"`
}

// NewTestRunResponse converts a model into a DTO.
func NewTestRunResponse(model models.TestExecution) TestRunResponse {
	return TestRunResponse{
		ID:              model.ID,
		InviteID:        model.InviteID,
		TestsPassed:     model.TestsPassed,
		TestsFailed:     model.TestsFailed,
		TestsSkipped:    model.TestsSkipped,
		TestOutput:      model.TestOutput,
		ExecutionTimeMs: model.ExecutionTimeMs,
		ExecutedAt:      model.ExecutedAt,
	}
}

// NewTestRunResponseSlice converts a slice of models into DTOs.
func NewTestRunResponseSlice(runs []models.TestExecution) []TestRunResponse {
	responses := make([]TestRunResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, NewTestRunResponse(run))
	}

	return responses
}
