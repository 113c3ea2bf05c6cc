package ai

import "context"

// DiffFile is one changed file from the source-control provider's compare
// output, forwarded into the grading prompt as-is.
type DiffFile struct {
	Filename  string `json:"filename"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Status    string `json:"status"`
	Patch     string `json:"patch,omitempty"`
}

// CodeDiff is the set of changes between the pinned seed SHA and the
// candidate's final state.
type CodeDiff struct {
	Files []DiffFile `json:"files"`
}

// Commit is one entry of the candidate's commit history.
type Commit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	Author  string `json:"author"`
	Date    string `json:"date"`
}

// GradingCriterion describes one rubric dimension the model should score.
type GradingCriterion struct {
	Name        string
	Description string
	Weight      float64
	Scoring     string
	MaxScore    float64
}

// GradingInput bundles everything the grader needs to evaluate a submission.
type GradingInput struct {
	AssessmentTitle        string
	AssessmentDescription  string
	AssessmentInstructions string
	Diff                   CodeDiff
	Commits                []Commit
	Criteria               []GradingCriterion
}

// CriterionResult is the model's verdict for a single criterion.
type CriterionResult struct {
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"max_score"`
	Reasoning string  `json:"reasoning"`
}

// GradingResult is the structured outcome of one grading call.
type GradingResult struct {
	Scores           map[string]CriterionResult
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// TokensUsed returns the total token count for audit records.
func (r GradingResult) TokensUsed() int {
	return r.PromptTokens + r.CompletionTokens
}

// Grader describes a model capable of scoring a submission against rubric
// criteria.
type Grader interface {
	Grade(ctx context.Context, input GradingInput) (GradingResult, error)
}
