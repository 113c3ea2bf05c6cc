package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"
)

// Scoring kinds supported by rubric criteria.
const (
	ScoringScale      = "scale"
	ScoringPercentage = "percentage"
	ScoringBinary     = "binary"
)

// Criterion grading types.
const (
	CriterionTypeManual    = "manual"
	CriterionTypeAutomated = "automated"
)

// ErrWeightSum indicates rubric criterion weights do not sum to 1.0.
var ErrWeightSum = errors.New("criteria weights must sum to 1.0")

// ErrNoCriteria indicates an empty rubric was supplied.
var ErrNoCriteria = errors.New("rubric requires at least one criterion")

// Criterion is one gradable dimension of a rubric. Criteria are stored as
// open JSON documents so new scoring dimensions need no schema migration;
// unknown keys survive a decode/encode round trip untouched at the storage
// layer because raw documents are only re-encoded on rubric updates.
type Criterion struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	Type        string  `json:"type,omitempty"`
	Scoring     string  `json:"scoring,omitempty"`
	MaxScore    float64 `json:"max_score,omitempty"`
}

var criteriaSchema = jsonschema.MustCompileString("criteria.json", `{
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["name", "weight"],
    "properties": {
      "name": {"type": "string", "minLength": 1},
      "description": {"type": "string"},
      "weight": {"type": "number", "exclusiveMinimum": 0, "maximum": 1},
      "type": {"enum": ["manual", "automated"]},
      "scoring": {"enum": ["scale", "percentage", "binary"]},
      "max_score": {"type": "number", "exclusiveMinimum": 0}
    }
  }
}`)

// ValidateWeights enforces the rubric weight invariant: the sum of all
// criterion weights must fall within [0.99, 1.01].
func ValidateWeights(criteria []Criterion) error {
	if len(criteria) == 0 {
		return ErrNoCriteria
	}

	total := 0.0
	for _, criterion := range criteria {
		total += criterion.Weight
	}

	if total < 0.99 || total > 1.01 {
		return fmt.Errorf("%w: got %.4f", ErrWeightSum, total)
	}

	return nil
}

// ValidateCriteriaDocument checks a raw criteria document against the open
// schema. Unknown keys are allowed; required shape and ranges are not.
func ValidateCriteriaDocument(raw []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var document interface{}
	if err := decoder.Decode(&document); err != nil {
		return fmt.Errorf("decode criteria document: %w", err)
	}

	if err := criteriaSchema.Validate(document); err != nil {
		return fmt.Errorf("invalid criteria document: %w", err)
	}

	return nil
}

// DecodeCriteria parses a persisted criteria document into typed criteria.
func DecodeCriteria(raw datatypes.JSON) ([]Criterion, error) {
	if len(raw) == 0 {
		return nil, ErrNoCriteria
	}

	var criteria []Criterion
	if err := json.Unmarshal(raw, &criteria); err != nil {
		return nil, fmt.Errorf("decode criteria: %w", err)
	}

	for i := range criteria {
		criteria[i].Name = strings.TrimSpace(criteria[i].Name)
		if criteria[i].Scoring == "" {
			criteria[i].Scoring = ScoringScale
		}
		if criteria[i].Type == "" {
			criteria[i].Type = CriterionTypeManual
		}
		if criteria[i].MaxScore == 0 {
			criteria[i].MaxScore = defaultMaxScore(criteria[i].Scoring)
		}
	}

	return criteria, nil
}

// EncodeCriteria serialises typed criteria back into a storage document.
func EncodeCriteria(criteria []Criterion) (datatypes.JSON, error) {
	raw, err := json.Marshal(criteria)
	if err != nil {
		return nil, fmt.Errorf("encode criteria: %w", err)
	}

	return datatypes.JSON(raw), nil
}

func defaultMaxScore(scoring string) float64 {
	switch scoring {
	case ScoringPercentage:
		return 100
	case ScoringBinary:
		return 1
	default:
		return 5
	}
}
