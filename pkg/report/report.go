// Package report collects the per-item diagnostics and per-file outcomes of a
// generation run. Fatal problems are returned as errors by the stages; anything
// a run can survive lands here instead.
package report

import (
	"fmt"
	"slices"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is a non-fatal problem attached to a subject such as a class,
// property or file.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject,omitempty"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Subject == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Subject, d.Message)
}

// FileStatus is the outcome of one output file.
type FileStatus string

const (
	StatusWrote     FileStatus = "wrote"
	StatusUnchanged FileStatus = "unchanged"
	// StatusStale marks a file that differs from the generated content in
	// validate mode.
	StatusStale  FileStatus = "stale"
	StatusFailed FileStatus = "failed"
)

// FileResult records what happened to one output file.
type FileResult struct {
	Path   string     `json:"path"`
	Status FileStatus `json:"status"`
	// Diff is a unified diff against the file on disk, set for stale files.
	Diff string `json:"diff,omitempty"`
	Err  error  `json:"-"`
}

// Report accumulates diagnostics and file results. It is not safe for
// concurrent use; a run has exactly one writer.
type Report struct {
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	Files       []FileResult `json:"files,omitempty"`
}

// New returns an empty report.
func New() *Report {
	return &Report{}
}

// Warnf records a warning about subject.
func (r *Report) Warnf(subject, format string, args ...any) {
	r.add(SeverityWarning, subject, fmt.Sprintf(format, args...))
}

// Errorf records a non-fatal error about subject.
func (r *Report) Errorf(subject, format string, args ...any) {
	r.add(SeverityError, subject, fmt.Sprintf(format, args...))
}

func (r *Report) add(severity Severity, subject, message string) {
	if r == nil {
		return
	}
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Severity: severity, Subject: subject, Message: message})
}

// AddFile records a file outcome.
func (r *Report) AddFile(result FileResult) {
	if r == nil {
		return
	}
	r.Files = append(r.Files, result)
}

// Merge appends the contents of other.
func (r *Report) Merge(other *Report) {
	if r == nil || other == nil {
		return
	}
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
	r.Files = append(r.Files, other.Files...)
}

// Warnings returns the recorded warnings.
func (r *Report) Warnings() []Diagnostic {
	return r.filter(SeverityWarning)
}

// Errors returns the recorded non-fatal errors.
func (r *Report) Errors() []Diagnostic {
	return r.filter(SeverityError)
}

func (r *Report) filter(severity Severity) []Diagnostic {
	if r == nil {
		return nil
	}
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == severity {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the number of files with the given status.
func (r *Report) Count(status FileStatus) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, f := range r.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// File returns the result recorded for path.
func (r *Report) File(path string) (FileResult, bool) {
	if r == nil {
		return FileResult{}, false
	}
	idx := slices.IndexFunc(r.Files, func(f FileResult) bool { return f.Path == path })
	if idx < 0 {
		return FileResult{}, false
	}
	return r.Files[idx], true
}

// Failed reports whether the run must exit non-zero: a validate-mode file is
// stale, or files failed and none was produced.
func (r *Report) Failed() bool {
	if r == nil {
		return false
	}
	if r.Count(StatusStale) > 0 {
		return true
	}
	failed := r.Count(StatusFailed)
	produced := r.Count(StatusWrote) + r.Count(StatusUnchanged)
	return failed > 0 && produced == 0
}
