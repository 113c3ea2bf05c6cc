package models

import "time"

// Submission is the snapshot captured when a candidate submits their work.
type Submission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	InviteID    uint      `gorm:"uniqueIndex;not null" json:"invite_id"`
	FinalSHA    string    `gorm:"size:64" json:"final_sha"`
	DemoLink    string    `gorm:"size:512" json:"demo_link,omitempty"`
	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`
}
