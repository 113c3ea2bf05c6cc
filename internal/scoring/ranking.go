package scoring

import (
	"sort"
	"time"
)

// RankingEntry is one graded candidate within an assessment cohort. Entries
// are derived fresh on every ranking query, never persisted.
type RankingEntry struct {
	InviteID       uint       `json:"invite_id"`
	CandidateID    uint       `json:"candidate_id"`
	CandidateEmail string     `json:"candidate_email"`
	CandidateName  string     `json:"candidate_name,omitempty"`
	TotalScore     Decimal    `json:"total_score"`
	ManualRank     *int       `json:"manual_rank,omitempty"`
	Status         string     `json:"status"`
	GradedAt       *time.Time `json:"graded_at,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
}

// Rank orders a cohort of graded candidates. Manually ranked entries come
// first, ascending by rank; unranked entries follow, descending by total
// score. The sort is stable, so the caller's input order (typically
// submission recency) is the final tie-break. The engine performs no
// filtering: callers pass exactly the pool they want ranked.
func Rank(entries []RankingEntry) []RankingEntry {
	ranked := make([]RankingEntry, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		left, right := ranked[i], ranked[j]

		switch {
		case left.ManualRank != nil && right.ManualRank != nil:
			if *left.ManualRank != *right.ManualRank {
				return *left.ManualRank < *right.ManualRank
			}
		case left.ManualRank != nil:
			return true
		case right.ManualRank != nil:
			return false
		}

		return left.TotalScore > right.TotalScore
	})

	return ranked
}

// TopN returns the first n ranked entries. Cohorts smaller than n come back
// whole; ties at the cutoff boundary are not expanded.
func TopN(entries []RankingEntry, n int) []RankingEntry {
	if n <= 0 {
		return []RankingEntry{}
	}
	if n >= len(entries) {
		return entries
	}
	return entries[:n]
}
