package ai

import "math"

// CostEstimate approximates the price of grading one submission.
type CostEstimate struct {
	EstimatedTokens  int     `json:"estimated_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	Model            string  `json:"model"`
}

type modelPricing struct {
	inputPerToken  float64
	outputPerToken float64
}

// Per-token USD pricing, as published by OpenAI in 2024.
var pricing = map[string]modelPricing{
	"gpt-4o":      {inputPerToken: 0.005 / 1000, outputPerToken: 0.015 / 1000},
	"gpt-4o-mini": {inputPerToken: 0.00015 / 1000, outputPerToken: 0.0006 / 1000},
	"gpt-4-turbo": {inputPerToken: 0.01 / 1000, outputPerToken: 0.03 / 1000},
}

const (
	basePromptTokens      = 1000
	assumedResponseTokens = 500
	charsPerToken         = 4
)

// EstimateCost approximates grading cost from the size of the code diff.
// Roughly one token per four characters of patch text, plus a base prompt.
func EstimateCost(diff CodeDiff, model string) CostEstimate {
	totalChars := 0
	for _, file := range diff.Files {
		totalChars += len(file.Patch)
	}

	tokens := totalChars/charsPerToken + basePromptTokens

	rates, ok := pricing[model]
	if !ok {
		rates = pricing[defaultModel]
	}

	cost := float64(tokens)*rates.inputPerToken + assumedResponseTokens*rates.outputPerToken

	return CostEstimate{
		EstimatedTokens:  tokens,
		EstimatedCostUSD: math.Round(cost*10000) / 10000,
		Model:            model,
	}
}
