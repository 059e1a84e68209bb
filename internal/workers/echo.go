package workers

import (
	"fmt"

	"github.com/msp-agents/msp/internal/agent"
)

// Echo is the fallback worker: it acknowledges the task and reflects it
// back. It exists so every decomposition produces at least one worker
// invocation end to end.
func Echo(p Params) agent.WorkerResult {
	sp := p.pad()
	narrate(sp, "echo worker started")
	narrate(sp, "task: %s", p.Task.Description)

	response := fmt.Sprintf("Echo: %s", p.Task.Description)
	if answer, ok := p.Task.Context["clarification_response"].(string); ok && answer != "" {
		narrate(sp, "clarification received: %s", answer)
		response = fmt.Sprintf("Echo: %s (clarified: %s)", p.Task.Description, answer)
	}
	narrate(sp, "response: %s", response)

	return agent.WorkerResult{
		Status: agent.StatusSuccess,
		Result: map[string]any{"response": response},
	}
}
