package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/msp-agents/msp/internal/errors"
	"github.com/msp-agents/msp/internal/logging"
	"github.com/msp-agents/msp/internal/util"
)

// DefaultTimeout bounds a single worker invocation.
const DefaultTimeout = 5 * time.Minute

// DefaultAllowedTools is the tool allowance passed to workers when the
// configuration does not narrow it.
var DefaultAllowedTools = []string{"file_read", "file_write", "shell"}

// Runner spawns worker processes and collects their results. A failed
// spawn is a failed WorkerResult, never a Go error: one broken worker
// must not abort the run.
type Runner struct {
	agentsDir          string
	timeout            time.Duration
	maxScratchpadChars int
	allowedTools       []string
	logger             *logging.Logger
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithTimeout overrides the per-worker execution deadline.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.timeout = d }
}

// WithMaxScratchpadChars overrides the scratchpad budget advertised to
// workers.
func WithMaxScratchpadChars(n int) RunnerOption {
	return func(r *Runner) { r.maxScratchpadChars = n }
}

// WithAllowedTools overrides the tool allowance passed to workers.
func WithAllowedTools(tools []string) RunnerOption {
	return func(r *Runner) { r.allowedTools = tools }
}

// WithRunnerLogger attaches a logger to the Runner.
func WithRunnerLogger(logger *logging.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner creates a Runner over agentsDir.
func NewRunner(agentsDir string, opts ...RunnerOption) *Runner {
	r := &Runner{
		agentsDir:          agentsDir,
		timeout:            DefaultTimeout,
		maxScratchpadChars: 8192,
		allowedTools:       DefaultAllowedTools,
		logger:             logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SpawnOptions carries the per-invocation wiring handed to a worker.
type SpawnOptions struct {
	// ScratchpadPath is where the worker narrates its progress.
	ScratchpadPath string

	// ClarificationEndpoint, when non-empty, is the URL the worker may
	// POST a question to before pausing.
	ClarificationEndpoint string

	// BridgeDir, when non-empty, is the shared directory holding the
	// message bridges this worker participates in.
	BridgeDir string
}

// Run executes one worker process for the given subtask and returns its
// result. Every failure mode folds into a Failed result whose Error
// field explains what happened.
func (r *Runner) Run(ctx context.Context, kind Kind, sub Subtask, opts SpawnOptions) WorkerResult {
	log := r.logger.WithAgent(kind.String())

	spec, err := r.resolve(kind)
	if err != nil {
		log.Warn("worker unavailable", "error", err, "severity", errors.GetSeverity(err).String())
		return failedResult(err)
	}

	taskJSON, err := json.Marshal(Task{Description: sub.Description, Context: sub.Context})
	if err != nil {
		return failedResult(errors.Wrapf(errors.ErrInvalidInput,
			"worker %s: cannot encode task: %v", kind, err))
	}

	args := []string{
		"--task", string(taskJSON),
		"--scratchpad-path", opts.ScratchpadPath,
		"--max-scratchpad-chars", strconv.Itoa(r.maxScratchpadChars),
		"--allowed-tools", strings.Join(r.allowedTools, ","),
	}
	if opts.ClarificationEndpoint != "" {
		args = append(args, "--clarification-endpoint", opts.ClarificationEndpoint)
	}
	if opts.BridgeDir != "" {
		args = append(args, "--bridge-dir", opts.BridgeDir)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, spec.CommandPath(), args...)
	cmd.Dir = spec.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Info("spawning worker", "command", spec.CommandPath(), "timeout", r.timeout.String())
	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		terr := errors.NewTimeoutError(fmt.Sprintf("worker %s timed out", kind), r.timeout).
			WithCause(errors.ErrSpawnTimeout)
		log.Warn("worker timed out", "elapsed", elapsed.String(), "retryable", errors.IsRetryable(terr))
		return failedResult(terr)
	case runCtx.Err() == context.Canceled && err != nil:
		return failedResult(errors.NewWorkerError(
			fmt.Sprintf("worker %s canceled after %s", kind, elapsed),
			errors.ErrCanceled).WithAgent(kind.String()))
	case err != nil:
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		log.Warn("worker exited non-zero", "exit_code", exitCode, "stderr", truncateForLog(stderr.String()))
		return failedResult(errors.NewWorkerError(
			fmt.Sprintf("worker %s failed with exit code %d: %s",
				kind, exitCode, strings.TrimSpace(stderr.String())),
			errors.ErrSpawnNonZeroExit).WithAgent(kind.String()).WithExitCode(exitCode))
	}

	var parsed WorkerResult
	if err := json.Unmarshal(lastJSONObject(stdout.Bytes()), &parsed); err != nil {
		log.Warn("worker produced invalid output", "error", err)
		return failedResult(errors.NewWorkerError(
			fmt.Sprintf("worker %s returned invalid output: %v", kind, err),
			errors.ErrMalformedWorkerOutput).WithAgent(kind.String()))
	}
	if parsed.Status == "" {
		return failedResult(errors.NewWorkerError(
			fmt.Sprintf("worker %s returned invalid output: missing status", kind),
			errors.ErrMalformedWorkerOutput).WithAgent(kind.String()))
	}

	log.Info("worker finished", "status", parsed.Status, "elapsed", elapsed.String())
	return parsed
}

// resolve locates the worker executable for kind. Failures come back as
// WorkerErrors carrying the matching sentinel so callers can classify
// them with errors.Is.
func (r *Runner) resolve(kind Kind) (Spec, error) {
	dir := filepath.Join(r.agentsDir, kind.String())
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return Spec{}, errors.NewWorkerError(
			fmt.Sprintf("worker %s not found in %s", kind, r.agentsDir),
			errors.ErrWorkerNotFound).WithAgent(kind.String())
	}

	cfg, err := loadSpecConfig(filepath.Join(dir, "agent.yaml"))
	if err != nil {
		return Spec{}, errors.NewWorkerError(
			fmt.Sprintf("worker %s not found: %v", kind, err),
			errors.ErrWorkerNotFound).WithAgent(kind.String())
	}
	spec := Spec{Name: kind.String(), Dir: dir, Config: cfg}

	if _, err := os.Stat(spec.CommandPath()); err != nil {
		return Spec{}, errors.NewWorkerError(
			fmt.Sprintf("worker %s script missing: %s", kind, spec.CommandPath()),
			errors.ErrWorkerScriptMissing).WithAgent(kind.String())
	}
	return spec, nil
}

func failedResult(err error) WorkerResult {
	return WorkerResult{Status: StatusFailed, Error: err.Error()}
}

// lastJSONObject returns the final line of output that looks like a
// JSON object, tolerating workers that chatter on stdout before their
// result. Falls back to the raw output when no line qualifies.
func lastJSONObject(out []byte) []byte {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) > 0 && line[0] == '{' {
			return line
		}
	}
	return bytes.TrimSpace(out)
}

func truncateForLog(s string) string {
	return util.TruncateString(strings.TrimSpace(s), 256)
}
