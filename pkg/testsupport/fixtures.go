// Package testsupport holds fixture helpers shared by the generation tests.
package testsupport

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-schemagen/pkg/report"
)

// WriteFile writes content to path, creating parent directories, and returns
// path.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir fixture dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// MustReadFile returns the content of path.
func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// ListDir returns the sorted entry names of dir.
func ListDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}

// StripLineComments drops every line whose first non-blank text starts with
// prefix. Generated manifests and registries open with such a header.
func StripLineComments(doc, prefix string) string {
	var lines []string
	for _, line := range strings.Split(doc, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), prefix) {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// Statuses maps the base name of every reported file to its status.
func Statuses(rep *report.Report) map[string]report.FileStatus {
	out := make(map[string]report.FileStatus, len(rep.Files))
	for _, f := range rep.Files {
		out[filepath.Base(f.Path)] = f.Status
	}
	return out
}

// AssertStatuses fails when the report statuses differ from want.
func AssertStatuses(t *testing.T, rep *report.Report, want map[string]report.FileStatus) {
	t.Helper()
	if diff := cmp.Diff(want, Statuses(rep)); diff != "" {
		t.Fatalf("file statuses mismatch (-want +got):\n%s", diff)
	}
}

// AssertContains fails unless every fragment occurs in doc.
func AssertContains(t *testing.T, name, doc string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(doc, fragment) {
			t.Fatalf("expected %q in %s:\n%s", fragment, name, doc)
		}
	}
}

// AssertGolden compares got with the golden file at path. With UPDATE_GOLDENS
// set the golden is rewritten instead.
func AssertGolden(t *testing.T, path, got string) {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") != "" {
		WriteFile(t, path, got)
		return
	}
	if diff := cmp.Diff(MustReadFile(t, path), got); diff != "" {
		t.Fatalf("%s mismatch (-want +got):\n%s", filepath.Base(path), diff)
	}
}
