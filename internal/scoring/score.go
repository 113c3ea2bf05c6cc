package scoring

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
)

// ErrInvalidMaxScore indicates a criterion score with a non-positive maximum.
var ErrInvalidMaxScore = errors.New("max_score must be greater than zero")

// CriterionScore is the raw score recorded for a single criterion.
type CriterionScore struct {
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
	Notes    string  `json:"notes,omitempty"`
}

// Normalize converts a raw (score, max) pair onto the common 0-100 scale.
// Scores are deliberately not clamped: a score above max or below zero
// propagates arithmetically, so a total can land outside [0, 100]. Clamping
// would be a policy change callers have to opt into explicitly.
func Normalize(score, maxScore float64) (float64, error) {
	if maxScore <= 0 {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidMaxScore, maxScore)
	}

	return (score / maxScore) * 100, nil
}

// Aggregate combines per-criterion scores into one weighted total out of 100,
// rounded to two decimal places.
//
// Matching is lenient by name: rubric criteria with no submitted score
// contribute zero, and submitted scores for names the rubric does not know
// are ignored. Partial grading under-scores silently instead of failing.
func Aggregate(scores map[string]CriterionScore, criteria []Criterion) (Decimal, error) {
	total := 0.0

	for _, criterion := range criteria {
		record, ok := scores[criterion.Name]
		if !ok {
			continue
		}

		normalized, err := Normalize(record.Score, record.MaxScore)
		if err != nil {
			return 0, fmt.Errorf("criterion %q: %w", criterion.Name, err)
		}

		total += normalized * criterion.Weight
	}

	return DecimalFromFloat(total), nil
}

// DecodeScores parses a persisted criteria_scores document.
func DecodeScores(raw datatypes.JSON) (map[string]CriterionScore, error) {
	if len(raw) == 0 {
		return map[string]CriterionScore{}, nil
	}

	var scores map[string]CriterionScore
	if err := json.Unmarshal(raw, &scores); err != nil {
		return nil, fmt.Errorf("decode criteria scores: %w", err)
	}

	return scores, nil
}

// EncodeScores serialises a score mapping into a storage document.
func EncodeScores(scores map[string]CriterionScore) (datatypes.JSON, error) {
	raw, err := json.Marshal(scores)
	if err != nil {
		return nil, fmt.Errorf("encode criteria scores: %w", err)
	}

	return datatypes.JSON(raw), nil
}
