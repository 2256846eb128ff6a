package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLintInlineQueriesAreClean(t *testing.T) {
	violations, err := lint([]string{"../../sqlinline"})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	for _, v := range violations {
		t.Errorf("unexpected violation: %s", v)
	}
}

func TestLintMissingMarker(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "q.go", "package q\n\nconst QBad = `select 1;`\n\nconst Greeting = \"hello\"\n")

	violations, err := lint([]string{dir})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %v", violations)
	}
	if violations[0].name != "QBad" || violations[0].line != 3 {
		t.Fatalf("unexpected violation %+v", violations[0])
	}
}

func TestLintDuplicateMarkerAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	marker := "--sql 11111111-2222-4333-8444-555555555555"
	writeSource(t, dir, "a.go", "package q\n\nconst QA = `"+marker+"\nselect 1;`\n")
	writeSource(t, dir, "b.go", "package q\n\nconst QB = `"+marker+"\nselect 2;`\n")

	violations, err := lint([]string{dir})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %v", violations)
	}
	if violations[0].name != "QB" || !strings.Contains(violations[0].message, "QA") {
		t.Fatalf("unexpected violation %+v", violations[0])
	}
}

func TestLintSkipsTestFiles(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "q_test.go", "package q\n\nconst QFixture = `select 1;`\n")

	violations, err := lint([]string{dir})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestLintMissingTarget(t *testing.T) {
	if _, err := lint([]string{filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Fatal("expected error for missing target")
	}
}
