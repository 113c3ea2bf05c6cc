package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/talentgate/talentgate-api/internal/scoring"
)

// GradedByAI identifies scores produced by the automatic post-submission grader.
const GradedByAI = "AI Auto-Grading"

// AssessmentRubric holds the weighted grading criteria for one assessment.
// Criteria live in an open JSON document so new scoring dimensions require
// no migration.
type AssessmentRubric struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AssessmentID uint           `gorm:"uniqueIndex;not null" json:"assessment_id"`
	Criteria     datatypes.JSON `gorm:"not null" json:"criteria"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// SubmissionScore is the single authoritative grade for a candidate invite.
// Re-grading replaces the whole criteria_scores document and recomputes the
// total; it never merges per criterion.
type SubmissionScore struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	InviteID       uint            `gorm:"uniqueIndex;not null" json:"invite_id"`
	CriteriaScores datatypes.JSON  `gorm:"not null" json:"criteria_scores"`
	TotalScore     scoring.Decimal `gorm:"not null" json:"total_score"`
	GradedBy       string          `gorm:"size:255" json:"graded_by"`
	GradedAt       time.Time       `gorm:"not null" json:"graded_at"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	ManualRank     *int            `json:"manual_rank,omitempty"`
}

// AIGradingLog is a write-once audit record for each AI grading attempt,
// successful or not. The scoring logic never reads it back.
type AIGradingLog struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	InviteID         uint              `gorm:"not null;index" json:"invite_id"`
	Model            string            `gorm:"size:64;not null" json:"model"`
	PromptTokens     int               `json:"prompt_tokens"`
	CompletionTokens int               `json:"completion_tokens"`
	CriteriaAnalyzed datatypes.JSON    `json:"criteria_analyzed"`
	RawResponse      datatypes.JSONMap `json:"raw_response"`
	CreatedAt        time.Time         `json:"created_at"`
}

// TestExecution records one run of the candidate repository's test suite.
type TestExecution struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	InviteID        uint              `gorm:"not null;index" json:"invite_id"`
	TestsPassed     int               `gorm:"not null;default:0" json:"tests_passed"`
	TestsFailed     int               `gorm:"not null;default:0" json:"tests_failed"`
	TestsSkipped    int               `gorm:"not null;default:0" json:"tests_skipped"`
	TestOutput      datatypes.JSONMap `json:"test_output"`
	ExecutionTimeMs int               `json:"execution_time_ms"`
	ExecutedAt      time.Time         `gorm:"not null" json:"executed_at"`
}
