package agent

// Task is the unit of work handed to the orchestrator: a natural
// language description plus optional structured context.
type Task struct {
	Description string         `json:"description"`
	Context     map[string]any `json:"context,omitempty"`
}

// Subtask is one decomposed slice of a Task, bound to the worker kind
// that should execute it. Lower Priority values run first.
type Subtask struct {
	Agent       Kind           `json:"agent"`
	Description string         `json:"description"`
	Context     map[string]any `json:"context,omitempty"`
	Priority    int            `json:"priority"`
}

// Worker result status values. These form the wire contract with worker
// processes, so the strings are load-bearing.
const (
	StatusSuccess            = "success"
	StatusFailed             = "failed"
	StatusNeedsClarification = "needs_clarification"
)

// WorkerResult is the single JSON object a worker process writes to
// stdout before exiting.
type WorkerResult struct {
	Status                string         `json:"status"`
	Result                map[string]any `json:"result,omitempty"`
	ProducedFiles         []string       `json:"produced_files,omitempty"`
	Error                 string         `json:"error,omitempty"`
	ClarificationResponse string         `json:"clarification_response,omitempty"`
}

// Succeeded reports whether the worker completed its subtask.
func (r WorkerResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

// NeedsClarification reports whether the worker paused for a question.
func (r WorkerResult) NeedsClarification() bool {
	return r.Status == StatusNeedsClarification
}

// SuggestedFix is a validator's targeted rework instruction: which
// agent should redo its work and why.
type SuggestedFix struct {
	Agent      string `json:"agent"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

// ValidationOutcome is the structured verdict of a validation pass.
type ValidationOutcome struct {
	Passed         bool           `json:"passed"`
	Issues         []string       `json:"issues,omitempty"`
	SuggestedFixes []SuggestedFix `json:"suggested_fixes,omitempty"`
}
