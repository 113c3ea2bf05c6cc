package models

import "time"

// InviteStatus enumerates the invite lifecycle states. InviteStatusAll is
// not a stored state; it is the filter value that matches every state.
const (
	InviteStatusPending   = "pending"
	InviteStatusStarted   = "started"
	InviteStatusSubmitted = "submitted"
	InviteStatusExpired   = "expired"
	InviteStatusAll       = "all"
)

// AssessmentInvite ties a candidate to an assessment and tracks its lifecycle.
type AssessmentInvite struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	AssessmentID       uint       `gorm:"not null;index" json:"assessment_id"`
	CandidateID        uint       `gorm:"not null;index" json:"candidate_id"`
	Status             string     `gorm:"size:32;not null" json:"status"`
	StartDeadlineAt    *time.Time `json:"start_deadline_at,omitempty"`
	CompleteDeadlineAt *time.Time `json:"complete_deadline_at,omitempty"`
	StartURLSlug       string     `gorm:"size:64;uniqueIndex" json:"start_url_slug,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	SubmittedAt        *time.Time `json:"submitted_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`

	Assessment    Assessment     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Candidate     Candidate      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CandidateRepo *CandidateRepo `gorm:"foreignKey:InviteID" json:"candidate_repo,omitempty"`
	Submission    *Submission    `gorm:"foreignKey:InviteID" json:"submission,omitempty"`
}

// IsOpen reports whether the invite can still be started.
func (i AssessmentInvite) IsOpen() bool {
	return i.Status == InviteStatusPending
}

// CandidateRepo is the per-invite working repository cloned from the seed.
type CandidateRepo struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	InviteID      uint      `gorm:"uniqueIndex;not null" json:"invite_id"`
	RepoFullName  string    `gorm:"size:255" json:"repo_full_name"`
	GitProvider   string    `gorm:"size:32;not null" json:"git_provider"`
	PinnedMainSHA string    `gorm:"size:64" json:"pinned_main_sha"`
	Archived      bool      `gorm:"not null;default:false" json:"archived"`
	CreatedAt     time.Time `json:"created_at"`

	AccessTokens []RepoAccessToken `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// RepoAccessToken grants time-boxed push access to a candidate repo. Only the
// SHA-256 hash of the token is stored.
type RepoAccessToken struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	CandidateRepoID uint       `gorm:"not null;index" json:"candidate_repo_id"`
	TokenHash       string     `gorm:"size:64;not null" json:"-"`
	ExpiresAt       time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt       *time.Time `json:"revoked_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
