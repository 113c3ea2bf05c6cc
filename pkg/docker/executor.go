package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	suiteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "talentgate",
		Subsystem: "testrunner",
		Name:      "suite_duration_seconds",
		Help:      "Duration of sandboxed test suite runs",
		Buckets:   prometheus.DefBuckets,
	}, []string{"image"})

	suiteTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talentgate",
		Subsystem: "testrunner",
		Name:      "suite_timeouts_total",
		Help:      "Number of test suite runs that hit the timeout",
	}, []string{"image"})

	suiteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talentgate",
		Subsystem: "testrunner",
		Name:      "suite_failures_total",
		Help:      "Number of test suite runs that errored before completion",
	}, []string{"image"})
)

// Runner executes a candidate repository's test suite inside a sandbox.
type Runner interface {
	RunSuite(ctx context.Context, req SuiteRequest) (SuiteResult, error)
}

// SuiteRequest describes one sandboxed test suite run against a checked-out
// candidate workspace.
type SuiteRequest struct {
	Image         string
	Command       []string
	Env           []string
	Workspace     string
	Timeout       time.Duration
	MemoryLimitMB int64
	CPUShares     int64
}

// SuiteResult summarises the outcome of a test suite run. Passed and Failed
// are best-effort counts parsed from the runner output.
type SuiteResult struct {
	Stdout           string
	Stderr           string
	ExitCode         int
	Passed           int
	Failed           int
	Duration         time.Duration
	TimedOut         bool
	MemoryUsageBytes int64
}

// Config groups sandbox runner configuration values.
type Config struct {
	Host          string
	Timeout       time.Duration
	MemoryLimitMB int64
	CPUShares     int64
	WorkingDir    string
	Logger        zerolog.Logger
}

// SandboxRunner runs candidate test suites in Docker containers with the
// network disabled. Candidate code is untrusted, so the workspace is the only
// writable surface the container gets.
type SandboxRunner struct {
	client *client.Client
	cfg    Config
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewSandboxRunner constructs a Docker backed test suite runner.
func NewSandboxRunner(cfg Config) (*SandboxRunner, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	if cfg.WorkingDir == "" {
		cfg.WorkingDir = "/workspace"
	}

	return &SandboxRunner{
		client: cli,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/talentgate/talentgate-api/pkg/docker"),
		logger: cfg.Logger.With().Str("component", "sandbox_runner").Logger(),
	}, nil
}

// RunSuite executes the suite command inside a throwaway container and parses
// pass/fail counts from its output.
func (r *SandboxRunner) RunSuite(parent context.Context, req SuiteRequest) (SuiteResult, error) {
	image := req.Image
	if image == "" {
		return SuiteResult{}, errors.New("image is required")
	}

	ctx, span := r.tracer.Start(parent, "docker.sandbox.run_suite", trace.WithAttributes(
		attribute.String("docker.image", image),
	))
	defer span.End()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.cfg.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	hostCfg := &container.HostConfig{
		AutoRemove: false,
		Resources: container.Resources{
			Memory:    req.MemoryLimitMB * 1024 * 1024,
			CPUShares: req.CPUShares,
		},
		// Untrusted code never gets network access.
		NetworkMode:    "none",
		ReadonlyRootfs: true,
	}

	if req.Workspace != "" {
		hostCfg.Mounts = append(hostCfg.Mounts, mount.Mount{
			Type:   mount.TypeBind,
			Source: req.Workspace,
			Target: r.cfg.WorkingDir,
		})
	}

	if hostCfg.Resources.Memory == 0 && r.cfg.MemoryLimitMB > 0 {
		hostCfg.Resources.Memory = r.cfg.MemoryLimitMB * 1024 * 1024
	}
	if hostCfg.Resources.CPUShares == 0 && r.cfg.CPUShares > 0 {
		hostCfg.Resources.CPUShares = r.cfg.CPUShares
	}

	containerCfg := &container.Config{
		Image:        image,
		Cmd:          req.Command,
		Env:          req.Env,
		WorkingDir:   r.cfg.WorkingDir,
		AttachStdout: true,
		AttachStderr: true,
	}

	start := time.Now()
	result := SuiteResult{}

	resp, err := r.client.ContainerCreate(ctx, containerCfg, hostCfg, &network.NetworkingConfig{}, nil, "")
	if err != nil {
		suiteFailures.WithLabelValues(image).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, fmt.Errorf("container create: %w", err)
	}

	containerID := resp.ID
	defer func() {
		removeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.client.ContainerRemove(removeCtx, containerID, container.RemoveOptions{Force: true}); err != nil {
			r.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to remove container")
		}
	}()

	if err := r.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		suiteFailures.WithLabelValues(image).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, fmt.Errorf("container start: %w", err)
	}

	statusCh, errCh := r.client.ContainerWait(ctx, containerID, container.WaitConditionNextExit)

	var waitErr error
	select {
	case err := <-errCh:
		waitErr = err
	case status := <-statusCh:
		result.ExitCode = int(status.StatusCode)
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	result.Duration = time.Since(start)
	suiteDuration.WithLabelValues(image).Observe(result.Duration.Seconds())

	if waitErr != nil {
		if errors.Is(waitErr, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			result.TimedOut = true
			suiteTimeouts.WithLabelValues(image).Inc()
			killCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := r.client.ContainerKill(killCtx, containerID, "KILL"); err != nil {
				r.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to kill timed out container")
			}
			span.RecordError(waitErr)
			span.SetStatus(codes.Error, "suite run timed out")
		} else if !errors.Is(waitErr, context.Canceled) {
			suiteFailures.WithLabelValues(image).Inc()
			span.RecordError(waitErr)
			span.SetStatus(codes.Error, waitErr.Error())
			return result, fmt.Errorf("container wait: %w", waitErr)
		}
	}

	logReader, err := r.client.ContainerLogs(parent, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		r.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to fetch container logs")
	} else {
		defer logReader.Close()
		stdout, stderr, splitErr := splitDockerLogs(logReader)
		if splitErr != nil {
			r.logger.Error().Err(splitErr).Str("container_id", containerID).Msg("failed to read container logs")
		} else {
			result.Stdout = stdout
			result.Stderr = stderr
			result.Passed, result.Failed = ParseSuiteCounts(stdout + "\n" + stderr)
		}
	}

	statsCtx, cancelStats := context.WithTimeout(parent, 2*time.Second)
	defer cancelStats()
	if stats, err := r.client.ContainerStatsOneShot(statsCtx, containerID); err == nil {
		defer stats.Body.Close()
		var data types.StatsJSON
		if decodeErr := json.NewDecoder(stats.Body).Decode(&data); decodeErr == nil {
			result.MemoryUsageBytes = int64(data.MemoryStats.Usage)
		}
	}

	if result.TimedOut {
		return result, fmt.Errorf("suite run timed out after %s", timeout)
	}

	return result, nil
}

// Patterns emitted by the common test runners candidate repos ship with.
var suiteCountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+) passed(?:, (\d+) failed)?`),        // pytest, jest summary line
	regexp.MustCompile(`(\d+) passing(?:\s*\n?\s*(\d+) failing)?`), // mocha
	regexp.MustCompile(`Tests:\s+(\d+) passed(?:, (\d+) failed)?`),
	regexp.MustCompile(`(\d+) failed, (\d+) passed`),
}

// ParseSuiteCounts extracts pass/fail counts from raw runner output. Unknown
// formats report zero counts; the exit code remains the source of truth for
// overall success.
func ParseSuiteCounts(output string) (passed, failed int) {
	for i, pattern := range suiteCountPatterns {
		match := pattern.FindStringSubmatch(output)
		if match == nil {
			continue
		}
		if i == len(suiteCountPatterns)-1 {
			failed, _ = strconv.Atoi(match[1])
			passed, _ = strconv.Atoi(match[2])
			return passed, failed
		}
		passed, _ = strconv.Atoi(match[1])
		if len(match) > 2 && match[2] != "" {
			failed, _ = strconv.Atoi(match[2])
		}
		return passed, failed
	}
	return 0, 0
}

func splitDockerLogs(reader io.Reader) (string, string, error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, reader); err != nil {
		return "", "", err
	}
	return stdoutBuf.String(), stderrBuf.String(), nil
}

// Close shuts down the runner's underlying Docker client.
func (r *SandboxRunner) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
