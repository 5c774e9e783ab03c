package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestQueryPackageIsClean(t *testing.T) {
	var stderr bytes.Buffer
	if code := run([]string{"../../sqlinline"}, &stderr); code != 0 {
		t.Fatalf("sqllint reported violations:\n%s", stderr.String())
	}
}

func TestMissingMarker(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "q.go", "package q\n\nconst QBad = `select 1`\n")

	var stderr bytes.Buffer
	if code := run([]string{dir}, &stderr); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "QBad") {
		t.Fatalf("violation does not name the constant: %s", stderr.String())
	}
}

func TestDuplicateMarker(t *testing.T) {
	dir := t.TempDir()
	marker := "--sql 3f1c9f0e-4f65-4c5e-9c3b-0f6a4f8e2d11"
	writeGo(t, dir, "a.go", "package q\n\nconst QOne = `"+marker+"\nselect 1`\n")
	writeGo(t, dir, "b.go", "package q\n\nconst QTwo = `"+marker+"\nselect 2`\n")

	var stderr bytes.Buffer
	if code := run([]string{dir}, &stderr); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "already used by") {
		t.Fatalf("expected duplicate marker violation: %s", stderr.String())
	}
}

func TestNonSQLStringsIgnored(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "c.go", "package q\n\nconst greeting = \"hello\"\n")

	var stderr bytes.Buffer
	if code := run([]string{dir}, &stderr); code != 0 {
		t.Fatalf("run() = %d, want 0: %s", code, stderr.String())
	}
}
