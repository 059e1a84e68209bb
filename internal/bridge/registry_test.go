package bridge

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestCreateIsIdempotent(t *testing.T) {
	reg := NewRegistry(t.TempDir())

	first, err := reg.Create("coder_to_documenter")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	second, err := reg.Create("coder_to_documenter")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if first != second {
		t.Error("expected repeated Create to return the same instance")
	}
}

func TestCreateMakesBackingDirectory(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(dir)

	if _, err := reg.Create("a_to_b"); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "a_to_b"))
	if err != nil || !info.IsDir() {
		t.Errorf("expected backing directory to exist: %v", err)
	}
}

func TestGetUnknownReturnsNil(t *testing.T) {
	reg := NewRegistry(t.TempDir())

	if got := reg.Get("missing"); got != nil {
		t.Errorf("expected nil for unknown id, got %+v", got)
	}
}

func TestListReturnsSortedIDs(t *testing.T) {
	reg := NewRegistry(t.TempDir())

	for _, id := range []string{"c_to_d", "a_to_b", "b_to_c"} {
		if _, err := reg.Create(id); err != nil {
			t.Fatalf("Create(%s) error: %v", id, err)
		}
	}

	want := []string{"a_to_b", "b_to_c", "c_to_d"}
	if got := reg.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestBridgesOnSameRegistryShareDirectoryTree(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(dir)

	b, err := reg.Create("a_to_b")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := b.Send("a", "spec", "hello"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	// A second Bridge value over the same id sees the message, mirroring
	// how a worker process opens its own Bridge over the shared directory.
	other, err := New("a_to_b", dir)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	messages, err := other.Messages("spec", 0)
	if err != nil {
		t.Fatalf("Messages() error: %v", err)
	}
	if len(messages) != 1 || messages[0].Data != "hello" {
		t.Errorf("expected cross-instance visibility, got %+v", messages)
	}
}
