package models

import "time"

// FollowUpEmail records a follow-up message sent to a candidate, keeping the
// template as it was at send time.
type FollowUpEmail struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	InviteID        uint      `gorm:"not null;index" json:"invite_id"`
	SentAt          time.Time `gorm:"not null" json:"sent_at"`
	TemplateSubject string    `gorm:"size:255;not null" json:"template_subject"`
	TemplateBody    string    `gorm:"type:text;not null" json:"template_body"`
}

// Setting keys used by the communication tooling.
const (
	SettingCalendlyLink     = "calendly_link"
	SettingFollowupTemplate = "followup_template"
)

// Setting is a global key/value configuration row. Assessment-specific values
// override these defaults; resolution is explicit in the services, never
// ambient.
type Setting struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Key   string `gorm:"size:64;uniqueIndex;not null" json:"key"`
	Value string `gorm:"type:text;not null" json:"value"`
}
