package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/goliatone/go-schemagen/pkg/report"
)

var (
	statusOrder = []report.FileStatus{
		report.StatusWrote,
		report.StatusUnchanged,
		report.StatusStale,
		report.StatusFailed,
	}
	statusColors = map[report.FileStatus]*color.Color{
		report.StatusWrote:     color.New(color.FgGreen),
		report.StatusUnchanged: color.New(color.Faint),
		report.StatusStale:     color.New(color.FgYellow),
		report.StatusFailed:    color.New(color.FgRed, color.Bold),
	}
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
)

// Printer writes run results for people.
type Printer struct {
	out   io.Writer
	errw  io.Writer
	quiet bool
}

// NewPrinter returns a Printer. Quiet printers only show diagnostics with
// error severity and fatal errors.
func NewPrinter(out, errw io.Writer, quiet bool) *Printer {
	return &Printer{out: out, errw: errw, quiet: quiet}
}

// Report prints one line per file, the diagnostics and a summary table.
func (p *Printer) Report(rep *report.Report) {
	if rep == nil {
		return
	}
	if !p.quiet {
		for _, f := range rep.Files {
			c := statusColors[f.Status]
			fmt.Fprintf(p.out, "  %s %s\n", c.Sprintf("%-9s", f.Status), f.Path)
			if f.Status == report.StatusStale && f.Diff != "" {
				fmt.Fprint(p.out, indent(f.Diff, "    "))
			}
		}
	}

	for _, d := range rep.Diagnostics {
		switch d.Severity {
		case report.SeverityError:
			fmt.Fprintln(p.errw, errorColor.Sprint(d.String()))
		default:
			if !p.quiet {
				fmt.Fprintln(p.errw, warnColor.Sprint(d.String()))
			}
		}
	}

	if p.quiet || len(rep.Files) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	style := table.StyleLight
	style.Format.Footer = text.FormatDefault
	t.SetStyle(style)
	t.AppendHeader(table.Row{"Status", "Files"})
	for _, status := range statusOrder {
		if n := rep.Count(status); n > 0 {
			t.AppendRow(table.Row{string(status), n})
		}
	}
	t.AppendFooter(table.Row{"Total", len(rep.Files)})
	t.Render()
}

// Fatal prints an error that stopped the run.
func (p *Printer) Fatal(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(p.errw, errorColor.Sprint("error: ")+err.Error())
}

func indent(text, prefix string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(line)
	}
	if !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
	return b.String()
}
