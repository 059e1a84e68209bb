package orchestrator

import (
	"sort"
	"strings"

	"github.com/msp-agents/msp/internal/agent"
)

// decomposeRule binds a worker kind to the keywords that recruit it.
type decomposeRule struct {
	kind     agent.Kind
	priority int
	prefix   string
	context  string
	keywords []string
}

// decomposeRules is the keyword table driving task decomposition.
// Matching is case-insensitive substring search over the description.
var decomposeRules = []decomposeRule{
	{
		kind:     agent.KindCoder,
		priority: 1,
		prefix:   "Implement the code for: ",
		context:  "code_generation",
		keywords: []string{
			"fastapi", "api", "create", "build", "implement", "code",
			"application", "app", "service", "server", "endpoint", "crud",
		},
	},
	{
		kind:     agent.KindDocumenter,
		priority: 2,
		prefix:   "Create documentation for: ",
		context:  "documentation",
		keywords: []string{
			"documentation", "readme", "openapi", "specify", "guide", "manual",
		},
	},
	{
		kind:     agent.KindTester,
		priority: 3,
		prefix:   "Test and validate: ",
		context:  "validation",
		keywords: []string{
			"test", "tests", "validate", "verify", "qa",
		},
	},
}

// Decompose splits a task description into agent-bound subtasks. A
// description matching no rule becomes a single echo subtask so every
// run produces at least one worker invocation.
func Decompose(description string) []agent.Subtask {
	lowered := strings.ToLower(description)

	var subtasks []agent.Subtask
	for _, rule := range decomposeRules {
		if !matchesAny(lowered, rule.keywords) {
			continue
		}
		subtasks = append(subtasks, agent.Subtask{
			Agent:       rule.kind,
			Description: rule.prefix + description,
			Context:     map[string]any{"task_type": rule.context},
			Priority:    rule.priority,
		})
	}

	if len(subtasks) == 0 {
		subtasks = append(subtasks, agent.Subtask{
			Agent:       agent.KindEcho,
			Description: description,
			Context:     map[string]any{"task_type": "simple_response"},
			Priority:    1,
		})
	}

	sort.SliceStable(subtasks, func(i, j int) bool {
		return subtasks[i].Priority < subtasks[j].Priority
	})
	return subtasks
}

func matchesAny(lowered string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
