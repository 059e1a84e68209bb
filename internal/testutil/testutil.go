// Package testutil provides shared helpers for msp tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// WriteWorkerScript installs a fake worker under agentsDir/name.
// The script body is wrapped in a /bin/sh shebang and made executable.
// When manifest is non-empty it is written as the worker's agent.yaml.
// Returns the worker directory.
func WriteWorkerScript(t *testing.T, agentsDir, name, script, manifest string) string {
	t.Helper()

	dir := filepath.Join(agentsDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create worker dir %s: %v", dir, err)
	}

	body := "#!/bin/sh\n" + script + "\n"
	if err := os.WriteFile(filepath.Join(dir, "agent"), []byte(body), 0755); err != nil {
		t.Fatalf("failed to write worker script for %s: %v", name, err)
	}

	if manifest != "" {
		if err := os.WriteFile(filepath.Join(dir, "agent.yaml"), []byte(manifest), 0644); err != nil {
			t.Fatalf("failed to write agent.yaml for %s: %v", name, err)
		}
	}
	return dir
}

// SuccessScript returns a worker script body that emits a minimal
// successful result with the given produced files.
func SuccessScript(producedFiles ...string) string {
	files := ""
	for i, f := range producedFiles {
		if i > 0 {
			files += ","
		}
		files += `"` + f + `"`
	}
	return `printf '{"status":"success","result":{"ok":true},"produced_files":[` + files + `]}\n'`
}

// SkipIfNoSh skips the test when /bin/sh is unavailable, which the
// fake worker scripts depend on.
func SkipIfNoSh(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH, skipping test")
	}
}
