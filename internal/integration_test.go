// Package internal contains integration tests that verify the packages
// work together the way a real run composes them: scratchpads feeding
// the poller, bridges carrying messages between workers, and the
// built-in workers honoring the process contract.
package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/msp-agents/msp/internal/agent"
	"github.com/msp-agents/msp/internal/bridge"
	"github.com/msp-agents/msp/internal/scratchpad"
	"github.com/msp-agents/msp/internal/workers"
)

// TestWorkerScratchpadRoundTrip runs the echo worker against a real
// scratchpad and confirms its narration survives the history budget.
func TestWorkerScratchpadRoundTrip(t *testing.T) {
	pad := filepath.Join(t.TempDir(), "echo_0.scratchpad.md")

	res := workers.Echo(workers.Params{
		Task:               agent.Task{Description: "integration check"},
		ScratchpadPath:     pad,
		MaxScratchpadChars: 256,
	})
	if !res.Succeeded() {
		t.Fatalf("echo result = %+v", res)
	}

	sp, err := scratchpad.New(pad, scratchpad.WithMaxChars(256))
	if err != nil {
		t.Fatal(err)
	}
	content, err := sp.Read()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(content, "integration check") {
		t.Errorf("scratchpad missing narration:\n%s", content)
	}
	if len([]rune(content)) > 256 {
		t.Errorf("scratchpad exceeded its budget: %d chars", len([]rune(content)))
	}
}

// TestBridgeBetweenWorkers simulates a coder announcing an artifact and
// a tester validating it after reading the bridge.
func TestBridgeBetweenWorkers(t *testing.T) {
	workdir := t.TempDir()
	shared := filepath.Join(workdir, "shared")

	reg := bridge.NewRegistry(shared)
	b, err := reg.Create("coder_to_tester")
	if err != nil {
		t.Fatal(err)
	}

	artifact := filepath.Join(workdir, "app.py")
	if err := os.WriteFile(artifact, []byte("print('ok')\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := b.Send("coder", "artifact", artifact); err != nil {
		t.Fatal(err)
	}

	// The tester side opens its own Bridge over the same directory, the
	// way a separate process would.
	reader, err := bridge.New("coder_to_tester", shared)
	if err != nil {
		t.Fatal(err)
	}
	msg, err := reader.Latest("artifact")
	if err != nil || msg == nil {
		t.Fatalf("Latest() = %v, %v", msg, err)
	}

	path, _ := msg.Data.(string)
	res := workers.Tester(workers.Params{
		Task: agent.Task{
			Description: "Test and validate: the announced artifact",
			Context:     map[string]any{"produced_files": []string{path}},
		},
	})
	if res.Result["passed"] != true {
		t.Errorf("tester result = %+v, want pass", res)
	}
}
