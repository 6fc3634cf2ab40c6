package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
)

// ruleWidth is the width of the section rules in text output.
const ruleWidth = 70

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no issues are shown.
	showEmpty bool

	// verbose adds descriptions and recommendations to every issue.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.AuditReport) (int, error) {
	summary := summaryOf(report)

	var sb strings.Builder
	w.writeHeader(&sb, report, summary)
	w.writeSummary(&sb, summary)
	w.writeCategories(&sb, summary)
	w.writeIssues(&sb, report)
	w.writeRedirects(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func writeRule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, ruleWidth))
	sb.WriteString("\n")
}

func writeSection(sb *strings.Builder, title string) {
	writeRule(sb, "-")
	sb.WriteString(title)
	sb.WriteString("\n")
	writeRule(sb, "-")
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.AuditReport, summary *model.Summary) {
	sb.WriteString("\n")
	writeRule(sb, "=")
	sb.WriteString("                      WEBSITE QUALITY REPORT\n")
	writeRule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Site:           %s\n", report.Target)
	fmt.Fprintf(sb, "Audit ID:       %s\n", report.ID)
	fmt.Fprintf(sb, "Started:        %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if d := report.Duration(); d > 0 {
		fmt.Fprintf(sb, "Duration:       %s\n", d.Round(time.Millisecond))
	}
	fmt.Fprintf(sb, "Pages Crawled:  %d (%d analyzed)\n", summary.TotalPages, summary.PagesAnalyzed)
	fmt.Fprintf(sb, "Status:         %s\n", statusText(report))
	fmt.Fprintf(sb, "Overall Score:  %.1f / 100\n", summary.OverallScore)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, summary *model.Summary) {
	writeSection(sb, "SEVERITY SUMMARY")

	for _, sev := range model.AllSeverities() {
		label := strings.ToUpper(sev.String()) + ":"
		fmt.Fprintf(sb, "  %-10s%d\n", label, summary.CountBySeverity(sev))
	}
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  %-10s%d issues\n", "TOTAL:", summary.TotalIssues)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCategories(sb *strings.Builder, summary *model.Summary) {
	var rows []model.CategoryScore
	for _, cs := range summary.CategoryScores {
		if cs.IssueCount > 0 || w.showEmpty {
			rows = append(rows, cs)
		}
	}
	if len(rows) == 0 {
		return
	}

	writeSection(sb, "CATEGORY SCORES")
	for _, cs := range rows {
		fmt.Fprintf(sb, "  %-15s%5.1f  (%d issues)\n", CategoryTitle(cs.Category), cs.Score, cs.IssueCount)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeIssues(sb *strings.Builder, report *model.AuditReport) {
	if len(report.AllIssues()) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "ISSUES")

	for _, sev := range model.AllSeverities() {
		issues := issuesBySeverity(report, sev)
		if len(issues) == 0 && !w.showEmpty {
			continue
		}
		w.writeIssuesForSeverity(sb, sev, issues)
	}
}

func (w *SimpleWriter) writeIssuesForSeverity(sb *strings.Builder, sev model.Severity, issues []model.Issue) {
	fmt.Fprintf(sb, "[%s] %s\n", severityIndicator(sev), strings.ToUpper(sev.String()))

	if len(issues) == 0 {
		sb.WriteString("  No issues\n\n")
		return
	}

	for _, issue := range issues {
		fmt.Fprintf(sb, "  * %s\n", issue.Title)
		fmt.Fprintf(sb, "    Page: %s\n", issue.URL)
		if issue.Element != "" {
			fmt.Fprintf(sb, "    Element: %s\n", truncateString(issue.Element, 80))
		}
		if w.verbose {
			if issue.Description != "" {
				fmt.Fprintf(sb, "    Description: %s\n", issue.Description)
			}
			if issue.Recommendation != "" {
				fmt.Fprintf(sb, "    Recommendation: %s\n", issue.Recommendation)
			}
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeRedirects(sb *strings.Builder, report *model.AuditReport) {
	if len(report.Redirects) == 0 {
		return
	}

	writeSection(sb, "REDIRECTS")
	for _, target := range sortedKeys(report.Redirects) {
		for _, from := range report.Redirects[target] {
			fmt.Fprintf(sb, "  %s -> %s\n", from, target)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	writeRule(sb, "=")
	sb.WriteString("Report generated by sitequality\n")
	writeRule(sb, "=")
}

// severityIndicator returns a visual indicator for the severity level.
func severityIndicator(sev model.Severity) string {
	switch sev {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	default:
		return "?"
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
