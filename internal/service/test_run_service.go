package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/dto"
	"github.com/talentgate/talentgate-api/internal/models"
	"github.com/talentgate/talentgate-api/internal/repository"
	"github.com/talentgate/talentgate-api/pkg/docker"
)

// ErrTestRunnerDisabled indicates no sandbox runner is configured.
var ErrTestRunnerDisabled = errors.New("test runner is not configured")

const (
	defaultSuiteImage   = "node:20-alpine"
	defaultSuiteTimeout = 10 * time.Minute
)

// WorkspacePreparer checks a candidate repository out into a local directory
// the sandbox can mount.
type WorkspacePreparer interface {
	Prepare(ctx context.Context, repoFullName, ref string) (string, func(), error)
}

// TestRunService executes candidate test suites in the sandbox and records
// the outcomes.
type TestRunService interface {
	Run(ctx context.Context, payload dto.TestRunRequest) (dto.TestRunResponse, error)
	List(ctx context.Context, inviteID uint) ([]dto.TestRunResponse, error)
}

type testRunService struct {
	runner     docker.Runner
	workspaces WorkspacePreparer
	invites    repository.InviteRepository
	executions repository.TestExecutionRepository
	validator  *validator.Validate
	logger     zerolog.Logger
	now        func() time.Time
}

// NewTestRunService constructs the test run service. A nil runner rejects
// runs with ErrTestRunnerDisabled.
func NewTestRunService(
	runner docker.Runner,
	workspaces WorkspacePreparer,
	invites repository.InviteRepository,
	executions repository.TestExecutionRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) TestRunService {
	return &testRunService{
		runner:     runner,
		workspaces: workspaces,
		invites:    invites,
		executions: executions,
		validator:  validate,
		logger:     logger.With().Str("component", "test_run_service").Logger(),
		now:        time.Now,
	}
}

func (s *testRunService) Run(ctx context.Context, payload dto.TestRunRequest) (dto.TestRunResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TestRunResponse{}, err
	}
	if s.runner == nil || s.workspaces == nil {
		return dto.TestRunResponse{}, ErrTestRunnerDisabled
	}

	invite, err := s.invites.GetByID(ctx, payload.InviteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TestRunResponse{}, ErrInviteNotFound
		}
		return dto.TestRunResponse{}, err
	}
	if invite.Status != models.InviteStatusSubmitted {
		return dto.TestRunResponse{}, ErrNotSubmitted
	}
	if invite.CandidateRepo == nil || invite.CandidateRepo.RepoFullName == "" {
		return dto.TestRunResponse{}, ErrNoCandidateRepo
	}

	ref := "main"
	if invite.Submission != nil && invite.Submission.FinalSHA != "" {
		ref = invite.Submission.FinalSHA
	}

	workspace, cleanup, err := s.workspaces.Prepare(ctx, invite.CandidateRepo.RepoFullName, ref)
	if err != nil {
		return dto.TestRunResponse{}, fmt.Errorf("prepare workspace: %w", err)
	}
	defer cleanup()

	image := payload.Image
	if image == "" {
		image = defaultSuiteImage
	}

	result, runErr := s.runner.RunSuite(ctx, docker.SuiteRequest{
		Image:     image,
		Command:   []string{"sh", "-c", "npm test"},
		Workspace: workspace,
		Timeout:   defaultSuiteTimeout,
	})
	if runErr != nil && !result.TimedOut {
		return dto.TestRunResponse{}, fmt.Errorf("run suite: %w", runErr)
	}

	execution := models.TestExecution{
		InviteID:    invite.ID,
		TestsPassed: result.Passed,
		TestsFailed: result.Failed,
		TestOutput: datatypes.JSONMap{
			"stdout":    result.Stdout,
			"stderr":    result.Stderr,
			"exit_code": result.ExitCode,
			"timed_out": result.TimedOut,
		},
		ExecutionTimeMs: int(result.Duration.Milliseconds()),
		ExecutedAt:      s.now(),
	}
	if err := s.executions.Create(ctx, &execution); err != nil {
		return dto.TestRunResponse{}, err
	}

	s.logger.Info().
		Uint("invite_id", invite.ID).
		Int("passed", result.Passed).
		Int("failed", result.Failed).
		Bool("timed_out", result.TimedOut).
		Msg("test suite executed")

	return dto.NewTestRunResponse(execution), nil
}

func (s *testRunService) List(ctx context.Context, inviteID uint) ([]dto.TestRunResponse, error) {
	executions, err := s.executions.ListByInviteID(ctx, inviteID)
	if err != nil {
		return nil, err
	}

	return dto.NewTestRunResponseSlice(executions), nil
}

// LocalWorkspacePreparer clones repositories into temp directories via the
// local git binary.
type LocalWorkspacePreparer struct {
	cloneBase string
	logger    zerolog.Logger
}

// NewLocalWorkspacePreparer builds a preparer that clones from the given base
// URL (e.g. "https://token@github.com").
func NewLocalWorkspacePreparer(cloneBase string, logger zerolog.Logger) *LocalWorkspacePreparer {
	return &LocalWorkspacePreparer{
		cloneBase: cloneBase,
		logger:    logger.With().Str("component", "workspace_preparer").Logger(),
	}
}

// Prepare creates the workspace directory. The caller owns cleanup.
func (p *LocalWorkspacePreparer) Prepare(ctx context.Context, repoFullName, ref string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "talentgate-suite-*")
	if err != nil {
		return "", nil, err
	}

	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			p.logger.Warn().Err(err).Str("dir", dir).Msg("failed to remove workspace")
		}
	}

	if err := cloneInto(ctx, dir, p.cloneBase, repoFullName, ref); err != nil {
		cleanup()
		return "", nil, err
	}

	return filepath.Clean(dir), cleanup, nil
}

func cloneInto(ctx context.Context, dir, cloneBase, repoFullName, ref string) error {
	remote := fmt.Sprintf("%s/%s.git", strings.TrimRight(cloneBase, "/"), repoFullName)

	clone := exec.CommandContext(ctx, "git", "clone", "--quiet", remote, dir)
	if output, err := clone.CombinedOutput(); err != nil {
		return fmt.Errorf("git clone %s: %w: %s", repoFullName, err, strings.TrimSpace(string(output)))
	}

	if ref != "" && ref != "main" {
		checkout := exec.CommandContext(ctx, "git", "-C", dir, "checkout", "--quiet", ref)
		if output, err := checkout.CombinedOutput(); err != nil {
			return fmt.Errorf("git checkout %s: %w: %s", ref, err, strings.TrimSpace(string(output)))
		}
	}

	return nil
}
