// Package errors provides centralized error definitions and error handling
// utilities for the MSP orchestrator. It defines domain-specific errors,
// sentinel errors for the orchestration fault taxonomy, error constructors
// with context wrapping, and classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - WorkerError: errors from spawning or communicating with a worker process
//   - BridgeError: errors from the inter-worker message bus
//   - ScratchpadError: errors from scratchpad file operations
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewWorkerError("spawn failed", errors.ErrSpawnNonZeroExit).WithAgent("coder")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrSpawnTimeout) { ... }
//
//	var workerErr *errors.WorkerError
//	if errors.As(err, &workerErr) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Worker-related sentinel errors
var (
	// ErrWorkerNotFound indicates that no agent directory exists for the requested kind.
	ErrWorkerNotFound = New("worker not found")
	// ErrWorkerScriptMissing indicates the agent directory exists but has no executable.
	ErrWorkerScriptMissing = New("worker script missing")
	// ErrSpawnTimeout indicates a worker exceeded its wall-clock timeout.
	ErrSpawnTimeout = New("worker timed out")
	// ErrSpawnNonZeroExit indicates a worker exited with a non-zero code.
	ErrSpawnNonZeroExit = New("worker exited non-zero")
	// ErrMalformedWorkerOutput indicates worker stdout did not parse as a result object.
	ErrMalformedWorkerOutput = New("invalid worker output")
)

// Listener-related sentinel errors
var (
	// ErrPortExhaustion indicates no free port was found in the configured range.
	ErrPortExhaustion = New("no free port in range")
)

// Scratchpad-related sentinel errors
var (
	// ErrScratchpadIO indicates a scratchpad read or write failed.
	ErrScratchpadIO = New("scratchpad I/O failed")
	// ErrScratchpadDecode indicates scratchpad bytes are not valid UTF-8 text.
	ErrScratchpadDecode = New("scratchpad content is not valid text")
)

// Bridge-related sentinel errors
var (
	// ErrBridgeIO indicates a bridge message write or listing failed.
	ErrBridgeIO = New("bridge I/O failed")
	// ErrBridgeMalformedMessage indicates a bridge message file could not be parsed.
	ErrBridgeMalformedMessage = New("malformed bridge message")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
)

// MSPError is the base interface for all MSP errors. It extends the standard
// error interface with classification methods used by callers to decide how
// to surface or retry a failure.
type MSPError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	severity  Severity
	retryable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// WorkerError represents errors from spawning or communicating with a worker
// process.
//
// Example:
//
//	err := errors.NewWorkerError("agent failed", errors.ErrSpawnNonZeroExit).
//		WithAgent("coder").WithExitCode(7)
type WorkerError struct {
	baseError
	Agent    string
	ExitCode int
}

// NewWorkerError creates a new WorkerError.
func NewWorkerError(message string, cause error) *WorkerError {
	return &WorkerError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
		ExitCode: -1, // -1 indicates not set
	}
}

// WithAgent adds the agent kind to the error context.
func (e *WorkerError) WithAgent(agent string) *WorkerError {
	e.Agent = agent
	return e
}

// WithExitCode adds the child process exit code to the error context.
func (e *WorkerError) WithExitCode(code int) *WorkerError {
	e.ExitCode = code
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *WorkerError) WithRetryable(r bool) *WorkerError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *WorkerError) Error() string {
	var parts []string
	if e.Agent != "" {
		parts = append(parts, fmt.Sprintf("agent=%s", e.Agent))
	}
	if e.ExitCode >= 0 {
		parts = append(parts, fmt.Sprintf("exit=%d", e.ExitCode))
	}

	prefix := "worker error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("worker error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *WorkerError) Is(target error) bool {
	if _, ok := target.(*WorkerError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// BridgeError represents errors from the inter-worker message bus.
//
// Example:
//
//	err := errors.NewBridgeError("write message", cause).WithBridgeID("coder_to_documenter")
type BridgeError struct {
	baseError
	BridgeID string
}

// NewBridgeError creates a new BridgeError.
func NewBridgeError(message string, cause error) *BridgeError {
	return &BridgeError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithBridgeID adds the bridge id to the error context.
func (e *BridgeError) WithBridgeID(id string) *BridgeError {
	e.BridgeID = id
	return e
}

// Error returns the formatted error message.
func (e *BridgeError) Error() string {
	prefix := "bridge error"
	if e.BridgeID != "" {
		prefix = fmt.Sprintf("bridge error [bridge=%s]", e.BridgeID)
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *BridgeError) Is(target error) bool {
	if _, ok := target.(*BridgeError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ScratchpadError represents errors from scratchpad file operations.
type ScratchpadError struct {
	baseError
	Path string
}

// NewScratchpadError creates a new ScratchpadError.
func NewScratchpadError(message string, cause error) *ScratchpadError {
	return &ScratchpadError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithPath adds the scratchpad path to the error context.
func (e *ScratchpadError) WithPath(path string) *ScratchpadError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *ScratchpadError) Error() string {
	prefix := "scratchpad error"
	if e.Path != "" {
		prefix = fmt.Sprintf("scratchpad error [path=%s]", e.Path)
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ScratchpadError) Is(target error) bool {
	if _, ok := target.(*ScratchpadError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("waiting for worker", 5*time.Minute)
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:   operation,
			severity:  SeverityWarning,
			retryable: true, // Timeouts are generally retryable
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrSpawnTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var mspErr MSPError
	if As(err, &mspErr) {
		return mspErr.IsRetryable()
	}

	return Is(err, ErrSpawnTimeout)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement MSPError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var mspErr MSPError
	if As(err, &mspErr) {
		return mspErr.Severity()
	}

	return SeverityError
}

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to run subtask")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
