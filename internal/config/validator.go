package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "orchestrator.port_range_start")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// knownTools is the set of tool names workers understand.
var knownTools = []string{"file_read", "file_write", "shell"}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateOrchestrator()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validatePaths()...)

	return errors
}

// validateOrchestrator validates the OrchestratorConfig
func (c *Config) validateOrchestrator() []ValidationError {
	var errors []ValidationError
	o := c.Orchestrator

	if o.WorkerTimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "orchestrator.worker_timeout_seconds",
			Value:   o.WorkerTimeoutSeconds,
			Message: "must be positive",
		})
	}

	if o.PollIntervalMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "orchestrator.poll_interval_ms",
			Value:   o.PollIntervalMs,
			Message: "must be positive",
		})
	}

	if o.PortRangeStart < 1 || o.PortRangeStart > 65535 {
		errors = append(errors, ValidationError{
			Field:   "orchestrator.port_range_start",
			Value:   o.PortRangeStart,
			Message: "must be a valid port (1-65535)",
		})
	}
	if o.PortRangeEnd < 1 || o.PortRangeEnd > 65535 {
		errors = append(errors, ValidationError{
			Field:   "orchestrator.port_range_end",
			Value:   o.PortRangeEnd,
			Message: "must be a valid port (1-65535)",
		})
	}
	if o.PortRangeEnd < o.PortRangeStart {
		errors = append(errors, ValidationError{
			Field:   "orchestrator.port_range_end",
			Value:   o.PortRangeEnd,
			Message: fmt.Sprintf("must not be below port_range_start (%d)", o.PortRangeStart),
		})
	}

	for _, tool := range o.AllowedTools {
		if !slices.Contains(knownTools, tool) {
			errors = append(errors, ValidationError{
				Field:   "orchestrator.allowed_tools",
				Value:   tool,
				Message: fmt.Sprintf("must be one of: %s", strings.Join(knownTools, ", ")),
			})
		}
	}

	if o.MaxScratchpadChars <= 0 {
		errors = append(errors, ValidationError{
			Field:   "orchestrator.max_scratchpad_chars",
			Value:   o.MaxScratchpadChars,
			Message: "must be positive",
		})
	}

	if !IsValidValidationLevel(o.ValidationLevel) {
		errors = append(errors, ValidationError{
			Field:   "orchestrator.validation_level",
			Value:   o.ValidationLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidValidationLevels(), ", ")),
		})
	}

	if o.MaxReworkRounds < 0 {
		errors = append(errors, ValidationError{
			Field:   "orchestrator.max_rework_rounds",
			Value:   o.MaxReworkRounds,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}

// validatePaths validates the PathsConfig
func (c *Config) validatePaths() []ValidationError {
	var errors []ValidationError

	if c.Paths.AgentsDir == "" {
		errors = append(errors, ValidationError{
			Field:   "paths.agents_dir",
			Value:   c.Paths.AgentsDir,
			Message: "must not be empty",
		})
	}

	if c.Paths.SharedDirName == "" {
		errors = append(errors, ValidationError{
			Field:   "paths.shared_dir_name",
			Value:   c.Paths.SharedDirName,
			Message: "must not be empty",
		})
	} else if strings.ContainsAny(c.Paths.SharedDirName, "/\\") {
		errors = append(errors, ValidationError{
			Field:   "paths.shared_dir_name",
			Value:   c.Paths.SharedDirName,
			Message: "must be a plain directory name, not a path",
		})
	}

	return errors
}
