package workers

import (
	"github.com/msp-agents/msp/internal/agent"
	"github.com/msp-agents/msp/internal/logging"
	"github.com/msp-agents/msp/internal/scratchpad"
)

// Params is the decoded process contract for one worker invocation.
type Params struct {
	Task                  agent.Task
	ScratchpadPath        string
	MaxScratchpadChars    int
	AllowedTools          []string
	ClarificationEndpoint string
	BridgeDir             string
	Logger                *logging.Logger
}

// pad opens the worker's scratchpad, or nil when none was wired.
func (p Params) pad() *scratchpad.Scratchpad {
	if p.ScratchpadPath == "" {
		return nil
	}
	opts := []scratchpad.Option{scratchpad.WithLogger(p.logger())}
	if p.MaxScratchpadChars > 0 {
		opts = append(opts, scratchpad.WithMaxChars(p.MaxScratchpadChars))
	}
	sp, err := scratchpad.New(p.ScratchpadPath, opts...)
	if err != nil {
		p.logger().Warn("scratchpad unavailable", "error", err)
		return nil
	}
	return sp
}

func (p Params) logger() *logging.Logger {
	if p.Logger == nil {
		return logging.NopLogger()
	}
	return p.Logger
}

// narrate appends a line to the scratchpad, ignoring a nil pad.
func narrate(sp *scratchpad.Scratchpad, format string, args ...any) {
	if sp == nil {
		return
	}
	_ = sp.Appendf(format+"\n", args...)
}
