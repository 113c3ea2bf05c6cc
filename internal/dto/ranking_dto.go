package dto

import (
	"time"

	"github.com/talentgate/talentgate-api/internal/scoring"
)

// RankingEntryResponse is one row of the assessment leaderboard.
type RankingEntryResponse struct {
	Rank           int             `json:"rank"`
	InviteID       uint            `json:"invite_id"`
	CandidateID    uint            `json:"candidate_id"`
	CandidateEmail string          `json:"candidate_email"`
	CandidateName  string          `json:"candidate_name,omitempty"`
	TotalScore     scoring.Decimal `json:"total_score"`
	ManualRank     *int            `json:"manual_rank,omitempty"`
	Status         string          `json:"status"`
	GradedAt       *time.Time      `json:"graded_at,omitempty"`
	SubmittedAt    *time.Time      `json:"submitted_at,omitempty"`
}

// NewRankingEntryResponse converts a ranked scoring entry into a DTO. The
// position is 1-based.
func NewRankingEntryResponse(entry scoring.RankingEntry, position int) RankingEntryResponse {
	return RankingEntryResponse{
		Rank:           position,
		InviteID:       entry.InviteID,
		CandidateID:    entry.CandidateID,
		CandidateEmail: entry.CandidateEmail,
		CandidateName:  entry.CandidateName,
		TotalScore:     entry.TotalScore,
		ManualRank:     entry.ManualRank,
		Status:         entry.Status,
		GradedAt:       entry.GradedAt,
		SubmittedAt:    entry.SubmittedAt,
	}
}

// NewRankingEntryResponseSlice converts ranked entries into DTOs, assigning
// 1-based positions in order.
func NewRankingEntryResponseSlice(entries []scoring.RankingEntry) []RankingEntryResponse {
	responses := make([]RankingEntryResponse, 0, len(entries))
	for i, entry := range entries {
		responses = append(responses, NewRankingEntryResponse(entry, i+1))
	}

	return responses
}

// ManualRankUpdate pins one invite to an explicit leaderboard position.
// A nil rank clears the pin.
type ManualRankUpdate struct {
	InviteID   uint `json:"invite_id" validate:"required,gt=0"`
	ManualRank *int `json:"manual_rank" validate:"omitempty,gt=0"`
}

// ReorderRequest applies a batch of manual rank updates.
type ReorderRequest struct {
	Ranks []ManualRankUpdate `json:"ranks" validate:"required,min=1,dive"`
}

// SendTopNRequest targets the top N ranked candidates of an assessment. The
// status narrows the pool by invite state; it defaults to submitted, and
// "all" disables the filter.
type SendTopNRequest struct {
	TopN   int    `json:"top_n" validate:"required,gt=0"`
	Status string `json:"status" validate:"omitempty,oneof=pending started submitted expired all"`
}

// SendResultResponse reports the outcome of a batch send.
type SendResultResponse struct {
	Requested int      `json:"requested"`
	Sent      int      `json:"sent"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}
