package models

import "time"

// Assessment represents one coding challenge offered to candidates.
type Assessment struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	Title                 string    `gorm:"size:255;not null" json:"title"`
	Description           string    `gorm:"type:text" json:"description"`
	Instructions          string    `gorm:"type:text" json:"instructions"`
	SeedRepoURL           string    `gorm:"size:512;not null" json:"seed_repo_url"`
	StartWithinHours      int       `gorm:"not null" json:"start_within_hours"`
	CompleteWithinHours   int       `gorm:"not null" json:"complete_within_hours"`
	CalendlyLink          string    `gorm:"size:512" json:"calendly_link,omitempty"`
	FollowupSubject       string    `gorm:"size:255" json:"followup_subject,omitempty"`
	FollowupBody          string    `gorm:"type:text" json:"followup_body,omitempty"`
	NextStageAssessmentID *uint     `json:"next_stage_assessment_id,omitempty"`
	Archived              bool      `gorm:"not null;default:false" json:"archived"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`

	SeedRepo *SeedRepo          `json:"seed_repo,omitempty"`
	Invites  []AssessmentInvite `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// SeedRepo tracks the template repository an assessment is provisioned from.
type SeedRepo struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AssessmentID  uint      `gorm:"uniqueIndex;not null" json:"assessment_id"`
	DefaultBranch string    `gorm:"size:64;not null" json:"default_branch"`
	LatestMainSHA string    `gorm:"size:64" json:"latest_main_sha"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
