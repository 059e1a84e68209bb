// msp-worker is the built-in worker binary. It speaks the worker
// process contract: task and wiring arrive as flags, progress goes to
// the scratchpad, and exactly one JSON result is printed on stdout.
//
// Install it as the "agent" executable inside a worker directory:
//
//	agents/available/echo/agent    -> msp-worker --kind echo ...
//	agents/available/tester/agent  -> msp-worker --kind tester ...
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/msp-agents/msp/internal/agent"
	"github.com/msp-agents/msp/internal/workers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		kindName              string
		taskJSON              string
		scratchpadPath        string
		maxScratchpadChars    int
		allowedTools          string
		clarificationEndpoint string
		bridgeDir             string
	)

	flags := pflag.NewFlagSet("msp-worker", pflag.ContinueOnError)
	flags.StringVar(&kindName, "kind", "echo", "worker kind to run (echo or tester)")
	flags.StringVar(&taskJSON, "task", "", "task as a JSON object")
	flags.StringVar(&scratchpadPath, "scratchpad-path", "", "scratchpad file to narrate into")
	flags.IntVar(&maxScratchpadChars, "max-scratchpad-chars", 8192, "scratchpad history budget in characters")
	flags.StringVar(&allowedTools, "allowed-tools", "", "comma-separated tool allowance")
	flags.StringVar(&clarificationEndpoint, "clarification-endpoint", "", "URL for clarification questions")
	flags.StringVar(&bridgeDir, "bridge-dir", "", "shared directory holding message bridges")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	var task agent.Task
	if taskJSON != "" {
		if err := json.Unmarshal([]byte(taskJSON), &task); err != nil {
			return fmt.Errorf("parsing --task: %w", err)
		}
	}

	params := workers.Params{
		Task:                  task,
		ScratchpadPath:        scratchpadPath,
		MaxScratchpadChars:    maxScratchpadChars,
		AllowedTools:          splitTools(allowedTools),
		ClarificationEndpoint: clarificationEndpoint,
		BridgeDir:             bridgeDir,
	}

	var result agent.WorkerResult
	switch kindName {
	case "echo":
		result = workers.Echo(params)
	case "tester":
		result = workers.Tester(params)
	default:
		return fmt.Errorf("unknown worker kind %q (built-ins: echo, tester)", kindName)
	}

	return json.NewEncoder(os.Stdout).Encode(result)
}

func splitTools(s string) []string {
	if s == "" {
		return nil
	}
	var tools []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tools = append(tools, t)
		}
	}
	return tools
}
