// Package scratchpad provides the bounded, atomically-written progress log
// owned by each worker instance. A scratchpad is append-only from the
// worker's point of view; when the content exceeds the character budget the
// writer drops the oldest data and keeps the trailing suffix.
package scratchpad

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/msp-agents/msp/internal/errors"
	"github.com/msp-agents/msp/internal/logging"
)

// DefaultMaxChars is the default character budget for a scratchpad.
const DefaultMaxChars = 8192

// Scratchpad is a size-bounded append log backed by a single file.
// Exactly one worker instance owns a scratchpad path for its lifetime, so
// no cross-process locking is needed; atomicity toward concurrent readers
// is guaranteed by the write-temp-then-rename protocol.
type Scratchpad struct {
	path     string
	maxChars int
	logger   *logging.Logger
}

// Option configures a Scratchpad.
type Option func(*Scratchpad)

// WithMaxChars sets the character budget. A zero or negative value is
// replaced with DefaultMaxChars.
func WithMaxChars(n int) Option {
	return func(s *Scratchpad) {
		s.maxChars = n
	}
}

// WithLogger sets the logger used for degraded-mode warnings.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Scratchpad) {
		s.logger = logger
	}
}

// New creates a Scratchpad at the given path, creating the parent directory
// if needed.
func New(path string, opts ...Option) (*Scratchpad, error) {
	s := &Scratchpad{
		path:     path,
		maxChars: DefaultMaxChars,
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxChars <= 0 {
		s.maxChars = DefaultMaxChars
	}
	if s.logger == nil {
		s.logger = logging.NopLogger()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.NewScratchpadError(fmt.Sprintf("create parent directory: %v", err),
			errors.ErrScratchpadIO).WithPath(path)
	}
	return s, nil
}

// Path returns the scratchpad file path.
func (s *Scratchpad) Path() string {
	return s.path
}

// MaxChars returns the configured character budget.
func (s *Scratchpad) MaxChars() int {
	return s.maxChars
}

// Read returns the full content of the scratchpad. A missing file reads as
// the empty string. Content that is not valid UTF-8 fails with a decode
// error rather than returning mangled text.
func (s *Scratchpad) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.NewScratchpadError(fmt.Sprintf("read: %v", err),
			errors.ErrScratchpadIO).WithPath(s.path)
	}
	if !utf8.Valid(data) {
		return "", errors.NewScratchpadError("decode", errors.ErrScratchpadDecode).WithPath(s.path)
	}
	return string(data), nil
}

// Write writes content to the scratchpad. When appending, the existing
// content is read first; a failed history read degrades to an empty history
// with a logged warning so a corrupt file never blocks new progress lines.
// The combined content is truncated to the trailing maxChars characters,
// written to a temporary sibling file, and atomically renamed over the
// destination. A reader never observes a partially-written file, and a
// failed write leaves the previous content untouched.
func (s *Scratchpad) Write(content string, appendMode bool) error {
	combined := content
	if appendMode {
		existing, err := s.Read()
		if err != nil {
			s.logger.Warn("scratchpad history unreadable, starting fresh",
				"path", s.path, "error", err)
			existing = ""
		}
		combined = existing + content
	}

	// Keep the trailing suffix, dropping oldest data first.
	if utf8.RuneCountInString(combined) > s.maxChars {
		runes := []rune(combined)
		combined = string(runes[len(runes)-s.maxChars:])
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(combined), 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return errors.NewScratchpadError(fmt.Sprintf("write temp file: %v", err),
			errors.ErrScratchpadIO).WithPath(s.path)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.NewScratchpadError(fmt.Sprintf("rename temp file: %v", err),
			errors.ErrScratchpadIO).WithPath(s.path)
	}
	return nil
}

// Append appends content to the scratchpad.
func (s *Scratchpad) Append(content string) error {
	return s.Write(content, true)
}

// Appendf appends a formatted line to the scratchpad.
func (s *Scratchpad) Appendf(format string, args ...any) error {
	return s.Append(fmt.Sprintf(format, args...))
}

// Clear empties the scratchpad. It is a no-op if the file does not exist.
func (s *Scratchpad) Clear() error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}
	return s.Write("", false)
}
