package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestLintFileAcceptsMarkedQueries(t *testing.T) {
	path := writeSource(t, t.TempDir(), "queries.go", "package q\n\nconst cols = `id, status`\n\nconst QSelectJob = `--sql 059ac5eb-7963-4a0c-963a-3bb86294c37f\nselect ` + cols + `\nfrom generation_jobs;\n`\n")
	vs, ms, err := lintFile(path)
	if err != nil {
		t.Fatalf("lintFile error: %v", err)
	}
	if len(vs) != 0 {
		t.Fatalf("unexpected violations: %+v", vs)
	}
	if len(ms) != 1 || ms[0].id != "059ac5eb-7963-4a0c-963a-3bb86294c37f" || ms[0].name != "QSelectJob" {
		t.Fatalf("unexpected markers: %+v", ms)
	}
}

func TestLintFileFlagsUnmarkedQueries(t *testing.T) {
	src := "package q\n\n" +
		"const QBare = `select 1`\n\n" +
		"const QConcat = `update jobs set ` + \"status = 'x'\"\n\n" +
		"const prompt = `Write with care and select facts.`\n"
	vs, ms, err := lintFile(writeSource(t, t.TempDir(), "queries.go", src))
	if err != nil {
		t.Fatalf("lintFile error: %v", err)
	}
	if len(vs) != 2 {
		t.Fatalf("expected 2 violations, got %+v", vs)
	}
	if vs[0].name != "QBare" || vs[1].name != "QConcat" {
		t.Fatalf("unexpected names: %q %q", vs[0].name, vs[1].name)
	}
	if len(ms) != 0 {
		t.Fatalf("unexpected markers: %+v", ms)
	}
}

func TestLintFlagsMarkersSharedAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "keywords.go", "package q\n\nconst QClaimKeyword = `--sql 3f0c2a51-8d7e-4b7a-9f61-2c4d8e1a7b90\nupdate content_keywords set status = 'generating';\n`\n")
	writeSource(t, dir, "jobs.go", "package q\n\nconst QClaimJob = `--sql 3f0c2a51-8d7e-4b7a-9f61-2c4d8e1a7b90\nselect id from generation_jobs;\n`\n")
	writeSource(t, dir, "jobs_test.go", "package q\n\nconst QIgnored = `select 1`\n")

	vs, err := lint([]string{dir})
	if err != nil {
		t.Fatalf("lint error: %v", err)
	}
	if len(vs) != 1 {
		t.Fatalf("expected 1 violation, got %+v", vs)
	}
	if !strings.Contains(vs[0].message, "already used by") {
		t.Fatalf("unexpected message: %q", vs[0].message)
	}
}

func TestLintSkipsUnderscoreDirectories(t *testing.T) {
	dir := t.TempDir()
	hidden := filepath.Join(dir, "_examples")
	if err := os.Mkdir(hidden, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeSource(t, hidden, "raw.go", "package q\n\nconst QBare = `select 1`\n")

	vs, err := lint([]string{dir})
	if err != nil {
		t.Fatalf("lint error: %v", err)
	}
	if len(vs) != 0 {
		t.Fatalf("expected no violations, got %+v", vs)
	}
}
