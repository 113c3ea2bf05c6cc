package email

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

const defaultBaseURL = "https://api.resend.com"

// Config describes the Resend delivery client settings.
type Config struct {
	APIKey  string
	From    string
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers transactional email. Services depend on this interface so
// tests can capture outbound mail without a live provider.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// ResendClient sends email through the Resend REST API.
type ResendClient struct {
	apiKey  string
	from    string
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewResendClient builds the Resend client.
func NewResendClient(cfg Config) (*ResendClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("sender address is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &ResendClient{
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  cfg.Logger.With().Str("component", "resend_client").Logger(),
	}, nil
}

// Send delivers one message and returns the provider message id.
func (c *ResendClient) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", fmt.Errorf("recipient is required")
	}
	if msg.Subject == "" {
		return "", fmt.Errorf("subject is required")
	}

	payload := map[string]interface{}{
		"from":    c.from,
		"to":      []string{msg.To},
		"subject": msg.Subject,
		"html":    msg.HTML,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("resend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode resend response: %w", err)
	}

	c.logger.Info().Str("to", msg.To).Str("message_id", decoded.ID).Msg("email delivered")

	return decoded.ID, nil
}
