package report

import (
	"io"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
)

// Writer outputs an audit report in some format.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(report *model.AuditReport) (int, error)
}

// MultiWriter writes a report to several Writers in order.
// Writing stops at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
func (m *MultiWriter) Write(report *model.AuditReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// summaryOf returns the report summary, computing it when the summary step
// did not run (for example when the audit failed early).
func summaryOf(report *model.AuditReport) *model.Summary {
	if report.Summary != nil {
		return report.Summary
	}
	return report.Summarize()
}

// issuesBySeverity returns every issue of the report with the given severity,
// in crawl order.
func issuesBySeverity(report *model.AuditReport, sev model.Severity) []model.Issue {
	var out []model.Issue
	for _, issue := range report.AllIssues() {
		if issue.Severity == sev {
			out = append(out, issue)
		}
	}
	return out
}

// statusText describes how the audit ended.
func statusText(report *model.AuditReport) string {
	switch {
	case report.Cancelled:
		return "cancelled (partial results)"
	case report.Status == model.StatusFailed:
		if report.Error != "" {
			return "failed - " + report.Error
		}
		return "failed"
	case report.Status == model.StatusCompleted:
		return "complete"
	default:
		return report.Status
	}
}

// truncateString truncates a string to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
