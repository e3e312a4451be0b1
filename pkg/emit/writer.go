package emit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/goliatone/go-schemagen/pkg/report"
)

// Writer persists generated files, leaving untouched any file whose content
// already matches.
type Writer struct {
	// Validate compares instead of writing; differences are reported stale.
	Validate bool
	// Perm is used for created files. Zero means 0o644.
	Perm fs.FileMode
}

// Write stores content at path, adding a final newline when it is missing.
// I/O failures are returned inside the result rather than as an error so one
// unwritable file does not stop the rest of the run.
func (w Writer) Write(path, content string) report.FileResult {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return w.WriteVerbatim(path, content)
}

// WriteVerbatim is Write without newline normalization. Files carrying a
// hand-written tail use it so the tail survives byte for byte.
func (w Writer) WriteVerbatim(path, content string) report.FileResult {
	result := report.FileResult{Path: path}

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if string(existing) == content {
			result.Status = report.StatusUnchanged
			return result
		}
	case errors.Is(err, fs.ErrNotExist):
		existing = nil
	default:
		result.Status = report.StatusFailed
		result.Err = fmt.Errorf("emit: read %s: %w", path, err)
		return result
	}

	if w.Validate {
		result.Status = report.StatusStale
		result.Diff = unifiedDiff(path, string(existing), content)
		return result
	}

	perm := w.Perm
	if perm == 0 {
		perm = 0o644
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		result.Status = report.StatusFailed
		result.Err = fmt.Errorf("emit: create directory for %s: %w", path, err)
		return result
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		result.Status = report.StatusFailed
		result.Err = fmt.Errorf("emit: write %s: %w", path, err)
		return result
	}
	result.Status = report.StatusWrote
	return result
}

// ReadExisting returns the current content of path, or "" when it does not
// exist or cannot be read.
func ReadExisting(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

func unifiedDiff(path, before, after string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: path + " (on disk)",
		ToFile:   path + " (generated)",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}
