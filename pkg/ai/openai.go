package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxDiffFiles    = 20
	maxPatchChars   = 2000
	maxCommits      = 10
	defaultModel    = "gpt-4o-mini"
	defaultMaxResp  = 1024
	gradingTemp     = 0.3
)

var (
	gradingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "talentgate",
		Subsystem: "ai",
		Name:      "grading_duration_seconds",
		Help:      "Duration of AI grading requests",
	}, []string{"model"})

	gradingFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talentgate",
		Subsystem: "ai",
		Name:      "grading_failures_total",
		Help:      "Number of AI grading failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI grader.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGrader implements Grader against the OpenAI chat completion API.
type OpenAIGrader struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGrader builds a grader using the provided configuration.
func NewOpenAIGrader(cfg OpenAIConfig) (*OpenAIGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxResp
	}

	if cfg.Temperature == 0 {
		cfg.Temperature = gradingTemp
	}

	tracer := otel.Tracer("github.com/talentgate/talentgate-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIGrader{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Model returns the configured model identifier.
func (g *OpenAIGrader) Model() string {
	return g.cfg.Model
}

// Grade sends the grading request to OpenAI and parses the per-criterion
// scores from the JSON response.
func (g *OpenAIGrader) Grade(parent context.Context, input GradingInput) (GradingResult, error) {
	ctx, span := g.tracer.Start(parent, "openai.grade", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.Int("criteria", len(input.Criteria)),
	))
	defer span.End()

	if len(input.Criteria) == 0 {
		err := fmt.Errorf("no criteria to grade")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingResult{}, err
	}

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: graderSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildGradingPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := g.client.CreateChatCompletion(ctx, request)
	gradingDuration.WithLabelValues(g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingResult{}, fmt.Errorf("openai grade: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	scores, err := parseGradingResponse(content)
	if err != nil {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingResult{}, err
	}

	return GradingResult{
		Scores:           scores,
		Model:            g.cfg.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func graderSystemPrompt() string {
	return "You are an expert code reviewer tasked with evaluating programming assignments. " +
		"Provide objective, constructive feedback based on the given rubric. Respond with JSON only."
}

func buildGradingPrompt(input GradingInput) string {
	builder := strings.Builder{}
	builder.WriteString("You are grading a programming assignment submission. Analyze the code changes and provide scores based on the rubric below.\n")

	if input.AssessmentTitle != "" || input.AssessmentDescription != "" || input.AssessmentInstructions != "" {
		builder.WriteString("\n## ASSIGNMENT CONTEXT\n")
		if input.AssessmentTitle != "" {
			builder.WriteString("Title: " + input.AssessmentTitle + "\n")
		}
		if input.AssessmentDescription != "" {
			builder.WriteString("Description: " + input.AssessmentDescription + "\n")
		}
		if input.AssessmentInstructions != "" {
			builder.WriteString("Instructions:\n" + input.AssessmentInstructions + "\n")
		}
	}

	builder.WriteString("\n## CODE CHANGES\n")
	builder.WriteString(formatDiff(input.Diff))
	builder.WriteString("\n## COMMIT HISTORY\n")
	builder.WriteString(formatCommits(input.Commits))
	builder.WriteString("\n## GRADING RUBRIC\n")
	builder.WriteString(formatCriteria(input.Criteria))

	builder.WriteString(`
## INSTRUCTIONS
For each criterion:
1. Review the assignment context to understand what was required
2. Analyze the code thoroughly against the requirements
3. Assign a score based on the criterion's scoring system
4. Provide clear, constructive reasoning that references specific code examples

Return your evaluation as JSON in this exact format:
{"scores": {"criterion_name": {"score": <number>, "max_score": <number>, "reasoning": "<explanation>"}}}

Be objective and fair. Focus on what the code demonstrates, not what's missing unless that's explicitly part of the criterion.
`)

	return builder.String()
}

func formatDiff(diff CodeDiff) string {
	if len(diff.Files) == 0 {
		return "No code changes found.\n"
	}

	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("Total files changed: %d\n\n", len(diff.Files)))

	limit := len(diff.Files)
	if limit > maxDiffFiles {
		limit = maxDiffFiles
	}

	for _, file := range diff.Files[:limit] {
		builder.WriteString(fmt.Sprintf("### File: %s\n", file.Filename))
		builder.WriteString(fmt.Sprintf("Lines added: %d, Lines deleted: %d\n", file.Additions, file.Deletions))

		if file.Patch != "" {
			patch := file.Patch
			if len(patch) > maxPatchChars {
				patch = patch[:maxPatchChars] + "..."
			}
			builder.WriteString("```diff\n" + patch + "\n```\n\n")
		} else {
			builder.WriteString("(No patch available)\n\n")
		}
	}

	if len(diff.Files) > maxDiffFiles {
		builder.WriteString(fmt.Sprintf("... and %d more files\n", len(diff.Files)-maxDiffFiles))
	}

	return builder.String()
}

func formatCommits(commits []Commit) string {
	if len(commits) == 0 {
		return "No commits found.\n"
	}

	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("Total commits: %d\n\n", len(commits)))

	limit := len(commits)
	if limit > maxCommits {
		limit = maxCommits
	}

	for _, commit := range commits[:limit] {
		sha := commit.SHA
		if len(sha) > 7 {
			sha = sha[:7]
		}
		builder.WriteString(fmt.Sprintf("- [%s] %s (by %s)\n", sha, commit.Message, commit.Author))
	}

	if len(commits) > maxCommits {
		builder.WriteString(fmt.Sprintf("\n... and %d more commits\n", len(commits)-maxCommits))
	}

	return builder.String()
}

func formatCriteria(criteria []GradingCriterion) string {
	builder := strings.Builder{}
	for _, criterion := range criteria {
		builder.WriteString(fmt.Sprintf("### %s\n", criterion.Name))
		builder.WriteString(fmt.Sprintf("Description: %s\n", criterion.Description))
		builder.WriteString(fmt.Sprintf("Scoring: %s (0-%g)\n", criterion.Scoring, criterion.MaxScore))
		builder.WriteString(fmt.Sprintf("Weight: %g%%\n\n", criterion.Weight*100))
	}
	return builder.String()
}

func parseGradingResponse(content string) (map[string]CriterionResult, error) {
	type payload struct {
		Scores map[string]CriterionResult `json:"scores"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return nil, fmt.Errorf("parse grading json: %w", err)
	}

	if len(data.Scores) == 0 {
		return nil, fmt.Errorf("grading response contained no scores")
	}

	return data.Scores, nil
}
