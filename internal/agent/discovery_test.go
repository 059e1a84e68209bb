package agent

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDiscoverMissingDirReturnsEmpty(t *testing.T) {
	specs, err := Discover(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(specs) != 0 {
		t.Errorf("expected no specs, got %d", len(specs))
	}
}

func TestDiscoverAppliesManifestDefaults(t *testing.T) {
	agentsDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(agentsDir, "echo"), 0755); err != nil {
		t.Fatal(err)
	}

	specs, err := Discover(agentsDir)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(specs) != 1 {
		t.Fatalf("expected 1 spec, got %d", len(specs))
	}

	got := specs[0]
	if got.Name != "echo" {
		t.Errorf("Name = %q, want echo", got.Name)
	}
	if got.Config.Command != DefaultCommand {
		t.Errorf("Command = %q, want %q", got.Config.Command, DefaultCommand)
	}
	if got.Config.AcceptsBridges {
		t.Error("AcceptsBridges should default to false")
	}
	if !reflect.DeepEqual(got.Config.Capabilities, []string{"basic"}) {
		t.Errorf("Capabilities = %v, want [basic]", got.Config.Capabilities)
	}
}

func TestDiscoverReadsManifest(t *testing.T) {
	agentsDir := t.TempDir()
	dir := filepath.Join(agentsDir, "coder")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	manifest := "command: run.sh\naccepts_bridges: true\ncapabilities:\n  - code\n  - spec\n"
	if err := os.WriteFile(filepath.Join(dir, "agent.yaml"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	specs, err := Discover(agentsDir)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	cfg := specs[0].Config
	if cfg.Command != "run.sh" {
		t.Errorf("Command = %q, want run.sh", cfg.Command)
	}
	if !cfg.AcceptsBridges {
		t.Error("expected AcceptsBridges true")
	}
	if !reflect.DeepEqual(cfg.Capabilities, []string{"code", "spec"}) {
		t.Errorf("Capabilities = %v", cfg.Capabilities)
	}
	if specs[0].CommandPath() != filepath.Join(dir, "run.sh") {
		t.Errorf("CommandPath() = %q", specs[0].CommandPath())
	}
}

func TestDiscoverSortsByNameAndSkipsFiles(t *testing.T) {
	agentsDir := t.TempDir()
	for _, name := range []string{"tester", "coder", "documenter"} {
		if err := os.MkdirAll(filepath.Join(agentsDir, name), 0755); err != nil {
			t.Fatal(err)
		}
	}
	// Stray files at the top level are not workers.
	if err := os.WriteFile(filepath.Join(agentsDir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	specs, err := Discover(agentsDir)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	var names []string
	for _, s := range specs {
		names = append(names, s.Name)
	}
	want := []string{"coder", "documenter", "tester"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
}

func TestDiscoverRejectsBadManifest(t *testing.T) {
	agentsDir := t.TempDir()
	dir := filepath.Join(agentsDir, "echo")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "agent.yaml"), []byte(":\t not yaml ["), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Discover(agentsDir); err == nil {
		t.Error("expected error for malformed agent.yaml")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k, got, err)
		}
	}
	if _, err := ParseKind("welder"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
