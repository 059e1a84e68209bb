package workers

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/msp-agents/msp/internal/agent"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestTesterPassesWithHealthyFiles(t *testing.T) {
	dir := t.TempDir()
	app := filepath.Join(dir, "app.py")
	writeFile(t, app, "print('ok')\n")

	res := Tester(Params{
		Task: agent.Task{
			Description: "Test and validate: build the service",
			Context:     map[string]any{"produced_files": []string{app}},
		},
	})

	if !res.Succeeded() {
		t.Fatalf("result = %+v", res)
	}
	if res.Result["passed"] != true {
		t.Errorf("passed = %v, want true", res.Result["passed"])
	}
	if _, ok := res.Result["issues"]; ok {
		t.Errorf("no issues expected, got %v", res.Result["issues"])
	}
}

func TestTesterFlagsMissingAndEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.py")
	writeFile(t, empty, "")
	missing := filepath.Join(dir, "ghost.py")

	res := Tester(Params{
		Task: agent.Task{
			Description: "Test and validate: build the service",
			Context:     map[string]any{"produced_files": []string{empty, missing}},
		},
	})

	if res.Result["passed"] != false {
		t.Fatalf("passed = %v, want false", res.Result["passed"])
	}
	issues, _ := res.Result["issues"].([]string)
	if len(issues) != 2 {
		t.Errorf("issues = %v, want 2", issues)
	}
	fixes, _ := res.Result["suggested_fixes"].([]agent.SuggestedFix)
	if len(fixes) != 2 {
		t.Fatalf("fixes = %v, want 2", fixes)
	}
	for _, fix := range fixes {
		if fix.Agent != "coder" {
			t.Errorf("fix for %s routed to %s, want coder", fix.Issue, fix.Agent)
		}
	}
}

func TestTesterAcceptsJSONDecodedFileList(t *testing.T) {
	dir := t.TempDir()
	app := filepath.Join(dir, "app.py")
	writeFile(t, app, "code\n")

	// Context that crossed the process contract arrives as []any.
	res := Tester(Params{
		Task: agent.Task{
			Description: "Test and validate: the service",
			Context:     map[string]any{"produced_files": []any{app}},
		},
	})

	if res.Result["passed"] != true {
		t.Errorf("passed = %v, want true", res.Result["passed"])
	}
}

func TestTesterGlobCriteria(t *testing.T) {
	dir := t.TempDir()
	app := filepath.Join(dir, "main.go")
	writeFile(t, app, "package main\n")

	res := Tester(Params{
		Task: agent.Task{
			Description: "Test and validate: produce *.py output",
			Context:     map[string]any{"produced_files": []string{app}},
		},
	})

	if res.Result["passed"] != false {
		t.Fatalf("passed = %v, want false when no file matches *.py", res.Result["passed"])
	}
	issues, _ := res.Result["issues"].([]string)
	if len(issues) != 1 || issues[0] != "no produced file matches *.py" {
		t.Errorf("issues = %v", issues)
	}
}

func TestTesterRoutesDocumentationFixes(t *testing.T) {
	res := Tester(Params{
		Task: agent.Task{
			Description: "Test and validate: check README.md",
			Context:     map[string]any{"produced_files": []string{}},
		},
	})

	if res.Result["passed"] != false {
		t.Fatalf("passed = %v, want false", res.Result["passed"])
	}
	fixes, _ := res.Result["suggested_fixes"].([]agent.SuggestedFix)
	if len(fixes) != 1 || fixes[0].Agent != "documenter" {
		t.Errorf("fixes = %+v, want documenter", fixes)
	}
}

func TestCriteriaPatterns(t *testing.T) {
	tests := []struct {
		description string
		want        []string
	}{
		{"validate *.py and README.md", []string{"*.py", "README.md"}},
		{"check the app for bugs", nil},
		{"verify main.go, utils.go.", []string{"main.go", "utils.go"}},
		{"run tests.", nil},
	}
	for _, tt := range tests {
		if got := criteriaPatterns(tt.description); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("criteriaPatterns(%q) = %v, want %v", tt.description, got, tt.want)
		}
	}
}
