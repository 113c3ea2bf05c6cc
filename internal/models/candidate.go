package models

import "time"

// Candidate is a person invited to complete one or more assessments.
type Candidate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName  string    `gorm:"size:255" json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Invites []AssessmentInvite `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
