package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/talentgate/talentgate-api/pkg/ai"
)

const defaultBaseURL = "https://api.github.com"

// Config describes the GitHub REST client settings.
type Config struct {
	Token       string
	TargetOwner string
	BaseURL     string
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// Client talks to the GitHub REST API for repo provisioning and code review
// inputs. The scoring core consumes its outputs opaquely.
type Client struct {
	token       string
	targetOwner string
	baseURL     string
	http        *http.Client
	logger      zerolog.Logger
}

// CloneResult reports a freshly provisioned candidate repository.
type CloneResult struct {
	RepoFullName  string
	PinnedMainSHA string
}

// NewClient builds the GitHub client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github token is required")
	}
	if cfg.TargetOwner == "" {
		return nil, fmt.Errorf("github target owner is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		token:       cfg.Token,
		targetOwner: cfg.TargetOwner,
		baseURL:     baseURL,
		http:        &http.Client{Timeout: timeout},
		logger:      cfg.Logger.With().Str("component", "github_client").Logger(),
	}, nil
}

// EnsureSeedRepo resolves a seed repository URL to its owner/name form and
// verifies it is reachable with the configured token.
func (c *Client) EnsureSeedRepo(ctx context.Context, seedRepoURL string) (string, error) {
	fullName, err := parseRepoFullName(seedRepoURL)
	if err != nil {
		return "", err
	}

	var repo struct {
		FullName string `json:"full_name"`
	}
	if err := c.get(ctx, fmt.Sprintf("/repos/%s", fullName), &repo); err != nil {
		return "", fmt.Errorf("seed repo %s not reachable: %w", fullName, err)
	}

	return repo.FullName, nil
}

// GetBranchSHA returns the head commit SHA of a branch.
func (c *Client) GetBranchSHA(ctx context.Context, repoFullName, branch string) (string, error) {
	if branch == "" {
		branch = "main"
	}

	var payload struct {
		Commit struct {
			SHA string `json:"sha"`
		} `json:"commit"`
	}
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/branches/%s", repoFullName, branch), &payload); err != nil {
		return "", err
	}

	return payload.Commit.SHA, nil
}

// CreateCandidateRepo provisions a private copy of the seed repository for
// one candidate using the repo generate API, then pins its main SHA.
func (c *Client) CreateCandidateRepo(ctx context.Context, seedFullName string) (CloneResult, error) {
	name := fmt.Sprintf("candidate-%s", uuid.NewString()[:8])

	body := map[string]interface{}{
		"owner":                c.targetOwner,
		"name":                 name,
		"private":              true,
		"include_all_branches": false,
	}

	var created struct {
		FullName string `json:"full_name"`
	}
	if err := c.post(ctx, fmt.Sprintf("/repos/%s/generate", seedFullName), body, &created); err != nil {
		return CloneResult{}, fmt.Errorf("create candidate repo: %w", err)
	}

	sha, err := c.GetBranchSHA(ctx, created.FullName, "main")
	if err != nil {
		c.logger.Warn().Err(err).Str("repo", created.FullName).Msg("could not pin main sha for new candidate repo")
	}

	c.logger.Info().Str("repo", created.FullName).Msg("candidate repository provisioned")

	return CloneResult{RepoFullName: created.FullName, PinnedMainSHA: sha}, nil
}

// CompareCommits returns the diff between two refs of a candidate repository.
func (c *Client) CompareCommits(ctx context.Context, repoFullName, base, head string) (ai.CodeDiff, error) {
	if base == "" || head == "" {
		return ai.CodeDiff{}, fmt.Errorf("compare requires base and head refs")
	}

	var payload struct {
		Files []ai.DiffFile `json:"files"`
	}
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/compare/%s...%s", repoFullName, base, head), &payload); err != nil {
		return ai.CodeDiff{}, fmt.Errorf("compare commits: %w", err)
	}

	return ai.CodeDiff{Files: payload.Files}, nil
}

// GetCommitHistory lists the commits on the default branch, newest first.
func (c *Client) GetCommitHistory(ctx context.Context, repoFullName string) ([]ai.Commit, error) {
	var payload []struct {
		SHA    string `json:"sha"`
		Commit struct {
			Message string `json:"message"`
			Author  struct {
				Name string `json:"name"`
				Date string `json:"date"`
			} `json:"author"`
		} `json:"commit"`
	}
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/commits", repoFullName), &payload); err != nil {
		return nil, fmt.Errorf("commit history: %w", err)
	}

	commits := make([]ai.Commit, 0, len(payload))
	for _, entry := range payload {
		commits = append(commits, ai.Commit{
			SHA:     entry.SHA,
			Message: entry.Commit.Message,
			Author:  entry.Commit.Author.Name,
			Date:    entry.Commit.Author.Date,
		})
	}

	return commits, nil
}

// ArchiveRepo marks a candidate repository as archived.
func (c *Client) ArchiveRepo(ctx context.Context, repoFullName string) error {
	body := map[string]interface{}{"archived": true}
	if err := c.patch(ctx, fmt.Sprintf("/repos/%s", repoFullName), body, nil); err != nil {
		return fmt.Errorf("archive repo: %w", err)
	}
	return nil
}

func parseRepoFullName(repoURL string) (string, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(repoURL), ".git")
	trimmed = strings.TrimSuffix(trimmed, "/")

	for _, prefix := range []string{"https://github.com/", "http://github.com/", "git@github.com:"} {
		if strings.HasPrefix(trimmed, prefix) {
			trimmed = strings.TrimPrefix(trimmed, prefix)
			break
		}
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", fmt.Errorf("invalid repository url %q", repoURL)
	}

	return parts[len(parts)-2] + "/" + parts[len(parts)-1], nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("github %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode github response: %w", err)
	}

	return nil
}
