package cmd

import "testing"

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"run":    false,
		"agents": false,
		"config": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestConfigSubcommands(t *testing.T) {
	want := map[string]bool{
		"show": false,
		"init": false,
		"path": false,
	}
	for _, c := range configCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("config subcommand %q not registered", name)
		}
	}
}

func TestRunRequiresTask(t *testing.T) {
	if err := runCmd.Args(runCmd, []string{}); err == nil {
		t.Error("run should require a task description argument")
	}
	if err := runCmd.Args(runCmd, []string{"build", "an", "api"}); err != nil {
		t.Errorf("run should accept a multi-word task: %v", err)
	}
}
