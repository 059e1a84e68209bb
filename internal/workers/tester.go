package workers

import (
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"

	"github.com/msp-agents/msp/internal/agent"
)

// Tester validates produced files against criteria mined from the task
// description. It never fails as a process; a bad artifact set becomes
// a failing ValidationOutcome in its result.
func Tester(p Params) agent.WorkerResult {
	sp := p.pad()
	narrate(sp, "tester worker started")
	narrate(sp, "task: %s", p.Task.Description)

	produced := producedFilesFromContext(p.Task.Context)
	narrate(sp, "checking %d produced file(s)", len(produced))

	var issues []string
	var fixes []agent.SuggestedFix

	for _, file := range produced {
		info, err := os.Stat(file)
		switch {
		case err != nil:
			issues = append(issues, fmt.Sprintf("produced file %s does not exist", file))
			fixes = append(fixes, fixFor(file, "recreate the missing file"))
		case info.Size() == 0:
			issues = append(issues, fmt.Sprintf("produced file %s is empty", file))
			fixes = append(fixes, fixFor(file, "write real content into the file"))
		}
	}

	for _, pattern := range criteriaPatterns(p.Task.Description) {
		g, err := glob.Compile(pattern)
		if err != nil {
			narrate(sp, "skipping unparseable criterion %q", pattern)
			continue
		}
		if !anyMatch(g, produced) {
			issues = append(issues, fmt.Sprintf("no produced file matches %s", pattern))
			fixes = append(fixes, fixFor(pattern, fmt.Sprintf("produce a file matching %s", pattern)))
		}
	}

	passed := len(issues) == 0
	if passed {
		narrate(sp, "validation passed")
	} else {
		narrate(sp, "validation failed: %s", strings.Join(issues, "; "))
	}

	result := map[string]any{"passed": passed}
	if len(issues) > 0 {
		result["issues"] = issues
		result["suggested_fixes"] = fixes
	}
	return agent.WorkerResult{Status: agent.StatusSuccess, Result: result}
}

// producedFilesFromContext tolerates both []string (in-process callers)
// and []any (JSON round-trip through the process contract).
func producedFilesFromContext(ctx map[string]any) []string {
	switch v := ctx["produced_files"].(type) {
	case []string:
		return v
	case []any:
		var files []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				files = append(files, s)
			}
		}
		return files
	}
	return nil
}

// criteriaPatterns extracts glob-looking tokens from a description.
// "validate *.py and README.md" yields the patterns *.py and README.md.
func criteriaPatterns(description string) []string {
	var patterns []string
	for _, token := range strings.Fields(description) {
		token = strings.Trim(token, ".,;:()\"'")
		if token == "" {
			continue
		}
		if strings.ContainsAny(token, "*?[") || looksLikeFilename(token) {
			patterns = append(patterns, token)
		}
	}
	return patterns
}

// looksLikeFilename reports whether a token names a concrete file,
// like app.py or README.md, as opposed to a plain word.
func looksLikeFilename(token string) bool {
	dot := strings.LastIndex(token, ".")
	if dot <= 0 || dot == len(token)-1 {
		return false
	}
	ext := token[dot+1:]
	if len(ext) > 5 {
		return false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func anyMatch(g glob.Glob, files []string) bool {
	for _, f := range files {
		if g.Match(f) {
			return true
		}
	}
	return false
}

// fixFor attributes an issue to the worker most likely responsible.
// Documentation artifacts route to the documenter, everything else to
// the coder.
func fixFor(subject, suggestion string) agent.SuggestedFix {
	lowered := strings.ToLower(subject)
	target := agent.KindCoder
	if strings.Contains(lowered, "readme") ||
		strings.Contains(lowered, "doc") ||
		strings.HasSuffix(lowered, ".md") {
		target = agent.KindDocumenter
	}
	return agent.SuggestedFix{
		Agent:      target.String(),
		Issue:      fmt.Sprintf("problem with %s", subject),
		Suggestion: suggestion,
	}
}
