package config

import (
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "test.field",
		Value:   123,
		Message: "must be greater than zero",
	}

	expected := "test.field: must be greater than zero (got: 123)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := (ValidationErrors{}).Error(); got != "" {
			t.Errorf("Error() = %q, want empty", got)
		}
	})

	t.Run("single", func(t *testing.T) {
		errs := ValidationErrors{{Field: "a.b", Value: 1, Message: "bad"}}
		if got := errs.Error(); got != "a.b: bad (got: 1)" {
			t.Errorf("Error() = %q", got)
		}
	})

	t.Run("multiple", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "a.b", Value: 1, Message: "bad"},
			{Field: "c.d", Value: 2, Message: "worse"},
		}
		got := errs.Error()
		if !strings.Contains(got, "2 validation errors") {
			t.Errorf("Error() = %q, want count header", got)
		}
		if !strings.Contains(got, "a.b") || !strings.Contains(got, "c.d") {
			t.Errorf("Error() = %q, want both fields", got)
		}
	})
}

func hasFieldError(errs []ValidationError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidateOrchestrator(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "zero worker timeout",
			mutate:    func(c *Config) { c.Orchestrator.WorkerTimeoutSeconds = 0 },
			wantField: "orchestrator.worker_timeout_seconds",
		},
		{
			name:      "negative poll interval",
			mutate:    func(c *Config) { c.Orchestrator.PollIntervalMs = -1 },
			wantField: "orchestrator.poll_interval_ms",
		},
		{
			name:      "port start out of range",
			mutate:    func(c *Config) { c.Orchestrator.PortRangeStart = 0 },
			wantField: "orchestrator.port_range_start",
		},
		{
			name:      "port end out of range",
			mutate:    func(c *Config) { c.Orchestrator.PortRangeEnd = 70000 },
			wantField: "orchestrator.port_range_end",
		},
		{
			name: "inverted port range",
			mutate: func(c *Config) {
				c.Orchestrator.PortRangeStart = 9000
				c.Orchestrator.PortRangeEnd = 8000
			},
			wantField: "orchestrator.port_range_end",
		},
		{
			name:      "unknown tool",
			mutate:    func(c *Config) { c.Orchestrator.AllowedTools = []string{"file_read", "network"} },
			wantField: "orchestrator.allowed_tools",
		},
		{
			name:      "zero scratchpad budget",
			mutate:    func(c *Config) { c.Orchestrator.MaxScratchpadChars = 0 },
			wantField: "orchestrator.max_scratchpad_chars",
		},
		{
			name:      "unknown validation level",
			mutate:    func(c *Config) { c.Orchestrator.ValidationLevel = "paranoid" },
			wantField: "orchestrator.validation_level",
		},
		{
			name:      "negative rework rounds",
			mutate:    func(c *Config) { c.Orchestrator.MaxReworkRounds = -1 },
			wantField: "orchestrator.max_rework_rounds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			if !hasFieldError(errs, tt.wantField) {
				t.Errorf("expected error on %s, got: %v", tt.wantField, ValidationErrors(errs))
			}
		})
	}
}

func TestValidateLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "verbose"

	if !hasFieldError(cfg.Validate(), "logging.level") {
		t.Error("expected error for unknown log level")
	}

	// Empty level is allowed; the logger falls back to info.
	cfg.Logging.Level = ""
	if hasFieldError(cfg.Validate(), "logging.level") {
		t.Error("empty log level should be accepted")
	}
}

func TestValidatePaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.AgentsDir = ""
	if !hasFieldError(cfg.Validate(), "paths.agents_dir") {
		t.Error("expected error for empty agents_dir")
	}

	cfg = Default()
	cfg.Paths.SharedDirName = ""
	if !hasFieldError(cfg.Validate(), "paths.shared_dir_name") {
		t.Error("expected error for empty shared_dir_name")
	}

	cfg = Default()
	cfg.Paths.SharedDirName = "a/b"
	if !hasFieldError(cfg.Validate(), "paths.shared_dir_name") {
		t.Error("expected error for shared_dir_name containing a separator")
	}
}
