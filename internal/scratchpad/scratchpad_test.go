package scratchpad

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/msp-agents/msp/internal/errors"
)

func newPad(t *testing.T, maxChars int) *Scratchpad {
	t.Helper()

	path := filepath.Join(t.TempDir(), "agent.scratchpad.md")
	pad, err := New(path, WithMaxChars(maxChars))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return pad
}

func TestReadMissingFileReturnsEmpty(t *testing.T) {
	pad := newPad(t, 100)

	got, err := pad.Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty content, got %q", got)
	}
}

func TestReadIOFailureCarriesSentinel(t *testing.T) {
	// Point the scratchpad at a directory so the read fails without
	// being a not-exist miss.
	dir := t.TempDir()
	pad, err := New(filepath.Join(dir, "pad"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := os.MkdirAll(pad.Path(), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err = pad.Read()
	if !errors.Is(err, errors.ErrScratchpadIO) {
		t.Errorf("error = %v, want ErrScratchpadIO", err)
	}
	var serr *errors.ScratchpadError
	if !errors.As(err, &serr) || serr.Path != pad.Path() {
		t.Errorf("error = %v, want ScratchpadError carrying the path", err)
	}
}

func TestAppendConcatenates(t *testing.T) {
	pad := newPad(t, 100)

	if err := pad.Append("hello "); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := pad.Append("world\n"); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	got, err := pad.Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got != "hello world\n" {
		t.Errorf("unexpected content: %q", got)
	}
}

func TestSizeBoundKeepsTrailingSuffix(t *testing.T) {
	pad := newPad(t, 10)

	var logical strings.Builder
	for _, chunk := range []string{"abcdefg", "hijklmn", "opqrstu"} {
		logical.WriteString(chunk)
		if err := pad.Append(chunk); err != nil {
			t.Fatalf("Append() error: %v", err)
		}

		got, err := pad.Read()
		if err != nil {
			t.Fatalf("Read() error: %v", err)
		}
		if utf8.RuneCountInString(got) > 10 {
			t.Errorf("content exceeds budget: %d chars", utf8.RuneCountInString(got))
		}
		if !strings.HasSuffix(logical.String(), got) {
			t.Errorf("content %q is not a suffix of the logical log %q", got, logical.String())
		}
	}

	got, _ := pad.Read()
	if got != "lmnopqrstu" {
		t.Errorf("expected trailing 10 chars, got %q", got)
	}
}

func TestSizeBoundCountsRunesNotBytes(t *testing.T) {
	pad := newPad(t, 4)

	if err := pad.Append("日本語テキスト"); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	got, err := pad.Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got != "テキスト" {
		t.Errorf("expected trailing 4 runes, got %q", got)
	}
}

func TestOverwriteReplacesContent(t *testing.T) {
	pad := newPad(t, 100)

	if err := pad.Append("old content"); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := pad.Write("new", false); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	got, _ := pad.Read()
	if got != "new" {
		t.Errorf("expected overwrite, got %q", got)
	}
}

func TestClear(t *testing.T) {
	pad := newPad(t, 100)

	// Clear on a missing file is a no-op.
	if err := pad.Clear(); err != nil {
		t.Fatalf("Clear() on missing file error: %v", err)
	}
	if _, err := os.Stat(pad.Path()); !os.IsNotExist(err) {
		t.Error("Clear() on missing file should not create it")
	}

	if err := pad.Append("something"); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := pad.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}

	got, _ := pad.Read()
	if got != "" {
		t.Errorf("expected empty content after Clear, got %q", got)
	}
}

func TestNoTempFileSurvivesWrite(t *testing.T) {
	pad := newPad(t, 100)

	for range 5 {
		if err := pad.Append("line\n"); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}

	if _, err := os.Stat(pad.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file survived a completed write")
	}
}

func TestReadInvalidUTF8FailsWithDecodeError(t *testing.T) {
	pad := newPad(t, 100)

	if err := os.WriteFile(pad.Path(), []byte{0xff, 0xfe, 0x01}, 0o644); err != nil {
		t.Fatalf("failed to seed invalid bytes: %v", err)
	}

	_, err := pad.Read()
	if !errors.Is(err, errors.ErrScratchpadDecode) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestAppendToleratesCorruptHistory(t *testing.T) {
	pad := newPad(t, 100)

	if err := os.WriteFile(pad.Path(), []byte{0xff, 0xfe, 0x01}, 0o644); err != nil {
		t.Fatalf("failed to seed invalid bytes: %v", err)
	}

	// The append-time history read degrades to empty rather than failing.
	if err := pad.Append("fresh start\n"); err != nil {
		t.Fatalf("Append() over corrupt history error: %v", err)
	}

	got, err := pad.Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got != "fresh start\n" {
		t.Errorf("expected fresh content, got %q", got)
	}
}

func TestNewCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "pad.md")

	pad, err := New(path)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := pad.Append("x"); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if pad.MaxChars() != DefaultMaxChars {
		t.Errorf("expected default budget, got %d", pad.MaxChars())
	}
}
