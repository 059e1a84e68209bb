package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/msp-agents/msp/internal/agent"
	"github.com/msp-agents/msp/internal/bridge"
	"github.com/msp-agents/msp/internal/config"
	"github.com/msp-agents/msp/internal/logging"
	"github.com/msp-agents/msp/internal/scratchpad"
)

// MasterScratchpadName is the file the orchestrator narrates into.
const MasterScratchpadName = "master.scratchpad.md"

// Run status values returned to callers.
const (
	RunSuccess = "success"
	RunFailed  = "failed"
)

// Clarifier answers a worker's clarification question. The default
// implementation echoes a canned answer; the CLI wires in a prompt.
type Clarifier func(question string) (string, error)

// Result is the final outcome of one orchestrated run.
type Result struct {
	Status        string       `json:"status"`
	Result        ResultDetail `json:"result"`
	ProducedFiles []string     `json:"produced_files,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// ResultDetail carries the per-subtask evidence behind a Result.
type ResultDetail struct {
	SubtaskResults []agent.WorkerResult      `json:"subtask_results"`
	Validations    []agent.ValidationOutcome `json:"validations,omitempty"`
	Summary        string                    `json:"summary"`
}

// Orchestrator decomposes a task, runs one worker per subtask, and
// validates the combined output. All run state lives on the instance;
// two Orchestrators never share anything but the filesystem.
type Orchestrator struct {
	cfg     *config.Config
	workdir string
	logger  *logging.Logger
	out     io.Writer
	clarify Clarifier
	runner  *agent.Runner
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger attaches a logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithOutput redirects console output (poller snapshots, final banner).
func WithOutput(out io.Writer) Option {
	return func(o *Orchestrator) { o.out = out }
}

// WithClarifier sets the function that answers worker questions.
func WithClarifier(fn Clarifier) Option {
	return func(o *Orchestrator) { o.clarify = fn }
}

// New creates an Orchestrator over workdir using cfg.
func New(cfg *config.Config, workdir string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:     cfg,
		workdir: workdir,
		logger:  logging.NopLogger(),
		out:     os.Stdout,
		clarify: func(question string) (string, error) {
			return "Proceed with reasonable defaults.", nil
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.runner = agent.NewRunner(
		cfg.Paths.ResolveAgentsDir(workdir),
		agent.WithTimeout(cfg.Orchestrator.WorkerTimeout()),
		agent.WithMaxScratchpadChars(cfg.Orchestrator.MaxScratchpadChars),
		agent.WithAllowedTools(cfg.Orchestrator.AllowedTools),
		agent.WithRunnerLogger(o.logger),
	)
	return o
}

// run carries the mutable state of a single Run invocation.
type run struct {
	id       string
	state    State
	log      *logging.Logger
	master   *scratchpad.Scratchpad
	listener *Listener
	poller   *Poller
	registry *bridge.Registry
	specs    map[string]agent.Spec
	subtasks []agent.Subtask
	results  []agent.WorkerResult
	outcomes []agent.ValidationOutcome
}

// Run executes the full lifecycle for one task description and returns
// its Result. A panic anywhere in the pipeline folds into a failed
// Result rather than crashing the caller.
func (o *Orchestrator) Run(ctx context.Context, description string) (result Result) {
	r := &run{
		id:    uuid.NewString(),
		state: StateInit,
		specs: map[string]agent.Spec{},
	}
	r.log = o.logger.WithRun(r.id)

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("run panicked", "panic", fmt.Sprint(rec))
			result = Result{Status: RunFailed, Error: fmt.Sprintf("internal error: %v", rec)}
		}
	}()

	master, err := scratchpad.New(
		filepath.Join(o.workdir, MasterScratchpadName),
		scratchpad.WithMaxChars(o.cfg.Orchestrator.MaxScratchpadChars),
		scratchpad.WithLogger(r.log),
	)
	if err != nil {
		return o.fail(r, fmt.Sprintf("cannot create master scratchpad: %v", err))
	}
	r.master = master
	o.narrate(r, "run %s started: %s", r.id[:8], description)

	r.listener = NewListener(
		o.cfg.Orchestrator.PortRangeStart,
		o.cfg.Orchestrator.PortRangeEnd,
		r.log,
	)
	if err := r.listener.Start(); err != nil {
		return o.fail(r, fmt.Sprintf("clarification listener: %v", err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		r.listener.Stop(stopCtx)
	}()

	specs, err := agent.Discover(o.cfg.Paths.ResolveAgentsDir(o.workdir))
	if err != nil {
		return o.fail(r, fmt.Sprintf("worker discovery: %v", err))
	}
	for _, spec := range specs {
		r.specs[spec.Name] = spec
	}
	r.log.Info("workers discovered", "count", len(specs))

	r.poller = NewPoller(o.cfg.Orchestrator.PollInterval(), o.out, r.log)
	r.poller.Watch("orchestrator", master.Path())
	if err := r.poller.Start(ctx); err != nil {
		r.log.Warn("status poller unavailable", "error", err)
	}
	defer r.poller.Stop()

	r.subtasks = Decompose(description)
	if r.state, err = transition(r.state, StateDecomposed); err != nil {
		return o.fail(r, err.Error())
	}
	o.narrate(r, "decomposed into %d subtask(s): %s", len(r.subtasks), kindList(r.subtasks))

	r.registry = bridge.NewRegistry(
		o.cfg.Paths.SharedDir(o.workdir),
		bridge.WithLogger(r.log),
	)
	if err := o.setupBridges(r); err != nil {
		r.log.Warn("bridge setup incomplete", "error", err)
	}

	if r.state, err = transition(r.state, StateExecuting); err != nil {
		return o.fail(r, err.Error())
	}
	o.execute(ctx, r)

	if o.needsValidation(r) {
		if r.state, err = transition(r.state, StateValidating); err != nil {
			return o.fail(r, err.Error())
		}
		o.validateAndRework(ctx, r, description)
	}

	if !r.state.Terminal() {
		r.state, _ = transition(r.state, StateDone)
	}

	return o.finalize(r)
}

// execute runs every subtask in order, handling clarification pauses.
func (o *Orchestrator) execute(ctx context.Context, r *run) {
	for i, sub := range r.subtasks {
		res := o.runSubtask(ctx, r, i, sub)
		r.results = append(r.results, res)
		o.narrate(r, "subtask %d (%s) finished with status %s", i, sub.Agent, res.Status)
	}
}

// runSubtask spawns one worker, re-spawning once if it pauses for a
// clarification answer.
func (o *Orchestrator) runSubtask(ctx context.Context, r *run, i int, sub agent.Subtask) agent.WorkerResult {
	pad := filepath.Join(o.workdir, sub.Agent.ScratchpadName(i))
	r.poller.Watch(fmt.Sprintf("%s #%d", sub.Agent, i), pad)

	opts := agent.SpawnOptions{
		ScratchpadPath:        pad,
		ClarificationEndpoint: r.listener.Endpoint(),
	}
	if spec, ok := r.specs[sub.Agent.String()]; ok && spec.Config.AcceptsBridges {
		opts.BridgeDir = o.cfg.Paths.SharedDir(o.workdir)
	}

	o.narrate(r, "spawning %s for subtask %d", sub.Agent, i)
	res := o.runner.Run(ctx, sub.Agent, sub, opts)

	if !res.NeedsClarification() {
		return res
	}

	question := res.ClarificationResponse
	for _, req := range r.listener.Drain() {
		if req.Question != "" {
			question = req.Question
		}
	}
	if question == "" {
		question = "Worker requested clarification without a question."
	}
	o.narrate(r, "%s asked: %s", sub.Agent, question)

	answer, err := o.clarify(question)
	if err != nil {
		r.log.Warn("clarifier failed", "error", err)
		return agent.WorkerResult{
			Status: agent.StatusFailed,
			Error:  fmt.Sprintf("clarification unavailable: %v", err),
		}
	}
	o.narrate(r, "answered: %s", answer)

	// One clarification round per subtask. The re-spawned worker's
	// result replaces the paused one entirely.
	clarified := sub
	clarified.Context = cloneContext(sub.Context)
	clarified.Context["clarification_response"] = answer
	return o.runner.Run(ctx, sub.Agent, clarified, opts)
}

// needsValidation reports whether any subtask succeeded with produced
// files; without artifacts there is nothing for a validator to check.
func (o *Orchestrator) needsValidation(r *run) bool {
	for _, res := range r.results {
		if res.Succeeded() && len(res.ProducedFiles) > 0 {
			return true
		}
	}
	return false
}

// validateAndRework runs the validation worker and, when it fails with
// targeted fixes, reworks the named subtasks and validates once more.
func (o *Orchestrator) validateAndRework(ctx context.Context, r *run, description string) {
	outcome := o.validate(ctx, r, description)
	r.outcomes = append(r.outcomes, outcome)

	if outcome.Passed {
		r.state, _ = transition(r.state, StateApproved)
		o.narrate(r, "validation passed")
		return
	}
	o.narrate(r, "validation failed with %d issue(s)", len(outcome.Issues))

	if len(outcome.SuggestedFixes) == 0 || o.cfg.Orchestrator.MaxReworkRounds < 1 {
		// Nothing targeted to rework; the failing outcome stays on record.
		r.state, _ = transition(r.state, StateDone)
		return
	}

	r.state, _ = transition(r.state, StateReworking)
	for _, fix := range outcome.SuggestedFixes {
		o.rework(ctx, r, fix)
	}

	r.state, _ = transition(r.state, StateRevalidatingFinal)
	final := o.validate(ctx, r, description)
	r.outcomes = append(r.outcomes, final)

	if final.Passed {
		r.state, _ = transition(r.state, StateApproved)
		o.narrate(r, "rework validated")
	} else {
		o.narrate(r, "rework still failing validation")
		r.state, _ = transition(r.state, StateDone)
	}
}

// rework re-runs the subtask the fix targets, feeding the validator's
// feedback into the worker's context. The fresh result replaces the
// original at the same position.
func (o *Orchestrator) rework(ctx context.Context, r *run, fix agent.SuggestedFix) {
	kind, err := agent.ParseKind(fix.Agent)
	if err != nil {
		r.log.Warn("validator named unknown agent", "agent", fix.Agent)
		return
	}

	idx := -1
	for i, sub := range r.subtasks {
		if sub.Agent == kind {
			idx = i
			break
		}
	}
	if idx == -1 {
		r.log.Warn("no subtask to rework for agent", "agent", fix.Agent)
		return
	}

	o.narrate(r, "reworking %s: %s", fix.Agent, fix.Issue)
	sub := r.subtasks[idx]
	sub.Context = cloneContext(sub.Context)
	sub.Context["feedback_from_tester"] = fix.Issue + ": " + fix.Suggestion

	res := o.runSubtask(ctx, r, idx, sub)
	r.results[idx] = res
}

// validate spawns the tester worker against everything produced so far.
func (o *Orchestrator) validate(ctx context.Context, r *run, description string) agent.ValidationOutcome {
	produced := producedFiles(r.results)
	sub := agent.Subtask{
		Agent:       agent.KindTester,
		Description: "Test and validate: " + description,
		Context: map[string]any{
			"task_type":        "validation",
			"validation_level": o.cfg.Orchestrator.ValidationLevel,
			"produced_files":   produced,
		},
	}

	idx := len(r.subtasks) + len(r.outcomes)
	res := o.runSubtask(ctx, r, idx, sub)
	return outcomeFromResult(res)
}

// outcomeFromResult converts a tester's WorkerResult into a
// ValidationOutcome, tolerating testers that only report a status.
func outcomeFromResult(res agent.WorkerResult) agent.ValidationOutcome {
	if res.Status == agent.StatusFailed {
		return agent.ValidationOutcome{Passed: false, Issues: []string{res.Error}}
	}

	var outcome agent.ValidationOutcome
	raw, err := json.Marshal(res.Result)
	if err == nil {
		// Result maps straight onto the outcome shape when the tester
		// fills it in.
		_ = json.Unmarshal(raw, &outcome)
	}
	if _, ok := res.Result["passed"]; !ok {
		// Anything short of an outright failure counts as passing when
		// the tester reports no verdict of its own.
		outcome.Passed = res.Status != agent.StatusFailed
	}
	return outcome
}

// setupBridges creates a message bridge for every ordered pair of
// distinct subtask kinds whose manifests accept bridges.
func (o *Orchestrator) setupBridges(r *run) error {
	var kinds []agent.Kind
	seen := map[agent.Kind]bool{}
	for _, sub := range r.subtasks {
		spec, ok := r.specs[sub.Agent.String()]
		if !ok || !spec.Config.AcceptsBridges || seen[sub.Agent] {
			continue
		}
		seen[sub.Agent] = true
		kinds = append(kinds, sub.Agent)
	}

	for _, a := range kinds {
		for _, b := range kinds {
			if a == b {
				continue
			}
			id := fmt.Sprintf("%s_to_%s", a, b)
			if _, err := r.registry.Create(id); err != nil {
				return err
			}
			r.log.Debug("bridge created", "bridge", id)
		}
	}
	return nil
}

// finalize assembles the Result and prints the end-of-run banner.
func (o *Orchestrator) finalize(r *run) Result {
	produced := producedFiles(r.results)
	successes := 0
	for _, res := range r.results {
		if res.Succeeded() {
			successes++
		}
	}
	summary := fmt.Sprintf("Processed %d subtasks with %d successful completions",
		len(r.subtasks), successes)
	o.narrate(r, "run complete: %s", summary)

	// The poller renders to the same writer as the banner; stop it
	// first so the two never interleave. The deferred Stop in Run is
	// then a no-op.
	if r.poller != nil {
		r.poller.Stop()
	}

	result := Result{
		Status: RunSuccess,
		Result: ResultDetail{
			SubtaskResults: r.results,
			Validations:    r.outcomes,
			Summary:        summary,
		},
		ProducedFiles: produced,
	}
	o.printBanner(result)
	return result
}

// fail aborts the run with an error message.
func (o *Orchestrator) fail(r *run, msg string) Result {
	r.state, _ = transition(r.state, StateFailed)
	r.log.Error("run failed", "error", msg)
	o.narrate(r, "run failed: %s", msg)
	return Result{
		Status: RunFailed,
		Result: ResultDetail{
			SubtaskResults: r.results,
			Validations:    r.outcomes,
			Summary:        msg,
		},
		Error: msg,
	}
}

// narrate appends a timestamped line to the master scratchpad.
func (o *Orchestrator) narrate(r *run, format string, args ...any) {
	if r.master == nil {
		return
	}
	line := fmt.Sprintf("[%s] %s\n", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	if err := r.master.Append(line); err != nil {
		r.log.Warn("master scratchpad write failed", "error", err)
	}
}

var (
	bannerBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)
	bannerOK   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	bannerBad  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	bannerDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	bannerItem = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

func (o *Orchestrator) printBanner(result Result) {
	status := bannerOK.Render("RUN COMPLETE")
	if result.Status != RunSuccess {
		status = bannerBad.Render("RUN FAILED")
	}

	var sb strings.Builder
	sb.WriteString(status + "\n")
	sb.WriteString(result.Result.Summary + "\n")
	if len(result.ProducedFiles) > 0 {
		sb.WriteString(bannerDim.Render("produced files:") + "\n")
		for _, f := range result.ProducedFiles {
			sb.WriteString("  " + bannerItem.Render(f) + "\n")
		}
	}
	if result.Error != "" {
		sb.WriteString(bannerBad.Render(result.Error) + "\n")
	}

	fmt.Fprintln(o.out, bannerBox.Render(strings.TrimRight(sb.String(), "\n")))
}

// producedFiles returns the ordered union of every result's files.
func producedFiles(results []agent.WorkerResult) []string {
	seen := map[string]bool{}
	var files []string
	for _, res := range results {
		for _, f := range res.ProducedFiles {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files
}

func kindList(subtasks []agent.Subtask) string {
	var names []string
	for _, sub := range subtasks {
		names = append(names, sub.Agent.String())
	}
	return strings.Join(names, ", ")
}

func cloneContext(ctx map[string]any) map[string]any {
	clone := make(map[string]any, len(ctx)+1)
	for k, v := range ctx {
		clone[k] = v
	}
	return clone
}
