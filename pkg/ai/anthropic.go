package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	anthropicBaseURL      = "https://api.anthropic.com/v1/messages"
	anthropicVersion      = "2023-06-01"
	defaultAnthropicModel = "claude-3-5-haiku-latest"
)

// AnthropicConfig defines configuration options for the Anthropic grader.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	Logger    zerolog.Logger
}

// AnthropicGrader implements Grader against the Anthropic messages API. It
// reuses the same prompt and response contract as the OpenAI grader, so the
// two are interchangeable behind the provider setting.
type AnthropicGrader struct {
	httpClient *http.Client
	cfg        AnthropicConfig
	logger     zerolog.Logger
}

// NewAnthropicGrader builds a grader using the provided configuration.
func NewAnthropicGrader(cfg AnthropicConfig) (*AnthropicGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultAnthropicModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxResp
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &AnthropicGrader{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Model returns the configured model identifier.
func (g *AnthropicGrader) Model() string {
	return g.cfg.Model
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Grade sends the grading request and parses the per-criterion scores from
// the JSON response.
func (g *AnthropicGrader) Grade(ctx context.Context, input GradingInput) (GradingResult, error) {
	if len(input.Criteria) == 0 {
		return GradingResult{}, fmt.Errorf("no criteria to grade")
	}

	payload, err := json.Marshal(anthropicRequest{
		Model:     g.cfg.Model,
		MaxTokens: g.cfg.MaxTokens,
		System:    graderSystemPrompt(),
		Messages: []anthropicMessage{
			{Role: "user", Content: buildGradingPrompt(input)},
		},
	})
	if err != nil {
		return GradingResult{}, fmt.Errorf("encode anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicBaseURL, bytes.NewReader(payload))
	if err != nil {
		return GradingResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	gradingDuration.WithLabelValues(g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		return GradingResult{}, fmt.Errorf("anthropic grade: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		return GradingResult{}, fmt.Errorf("read anthropic response: %w", err)
	}

	var decoded anthropicResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		return GradingResult{}, fmt.Errorf("decode anthropic response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		if decoded.Error != nil {
			return GradingResult{}, fmt.Errorf("anthropic grade: %s: %s", decoded.Error.Type, decoded.Error.Message)
		}
		return GradingResult{}, fmt.Errorf("anthropic grade: status %d", resp.StatusCode)
	}

	var text strings.Builder
	for _, block := range decoded.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	scores, err := parseGradingResponse(strings.TrimSpace(text.String()))
	if err != nil {
		gradingFailures.WithLabelValues(g.cfg.Model).Inc()
		return GradingResult{}, err
	}

	return GradingResult{
		Scores:           scores,
		Model:            g.cfg.Model,
		PromptTokens:     decoded.Usage.InputTokens,
		CompletionTokens: decoded.Usage.OutputTokens,
	}, nil
}
