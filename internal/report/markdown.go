package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing. Charts are rendered as mermaid code blocks.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AuditReport) (int, error) {
	summary := summaryOf(report)
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report, summary)
	w.writeSummary(md, summary)
	w.writeCategories(md, summary)
	w.writeTopIssues(md, summary)
	w.writeIssues(md, report)
	w.writeRedirects(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.AuditReport, summary *model.Summary) {
	md.H1("Website Quality Report")
	md.PlainText("")

	rows := [][]string{
		{"Site", "`" + report.Target + "`"},
		{"Audit ID", "`" + report.ID + "`"},
		{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Pages Crawled", strconv.Itoa(summary.TotalPages)},
		{"Pages Analyzed", strconv.Itoa(summary.PagesAnalyzed)},
		{"Overall Score", fmt.Sprintf("**%.1f** / 100", summary.OverallScore)},
		{"Status", markdownStatus(report)},
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func markdownStatus(report *model.AuditReport) string {
	switch {
	case report.Cancelled:
		return "⚠️ Cancelled (partial results)"
	case report.Status == model.StatusFailed:
		return "❌ " + statusText(report)
	case report.Status == model.StatusCompleted:
		return "✅ Complete"
	default:
		return report.Status
	}
}

var severityIcons = map[model.Severity]string{
	model.SeverityCritical: "🔴",
	model.SeverityHigh:     "🟠",
	model.SeverityMedium:   "🟡",
	model.SeverityLow:      "🔵",
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Severity Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(model.AllSeverities())+1)
	for _, sev := range model.AllSeverities() {
		rows = append(rows, []string{
			severityIcons[sev] + " " + SeverityTitle(sev),
			strconv.Itoa(summary.CountBySeverity(sev)),
		})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(summary.TotalIssues) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.TotalIssues > 0 {
		w.writePieChart(md, summary)
	}
	w.writeAlert(md, summary)
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Issue Severity Distribution"),
		piechart.WithShowData(true),
	)
	for _, sev := range model.AllSeverities() {
		if n := summary.CountBySeverity(sev); n > 0 {
			chart.LabelAndIntValue(SeverityTitle(sev), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	switch {
	case summary.CriticalIssues > 0:
		md.Cautionf("%d critical issue(s) need immediate attention.", summary.CriticalIssues)
	case summary.HighIssues > 0:
		md.Warningf("%d high severity issue(s) break the visitor's experience.", summary.HighIssues)
	case summary.MediumIssues > 0:
		md.Importantf("%d medium severity issue(s) degrade site quality.", summary.MediumIssues)
	case summary.TotalIssues > 0:
		md.Note("Only low severity issues detected.")
	default:
		md.Tip("No quality issues detected.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeCategories(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Category Scores")
	md.PlainText("")

	rows := make([][]string, 0, len(summary.CategoryScores))
	for _, cs := range summary.CategoryScores {
		rows = append(rows, []string{
			CategoryTitle(cs.Category),
			fmt.Sprintf("%.1f", cs.Score),
			strconv.Itoa(cs.IssueCount),
			strconv.Itoa(cs.CriticalCount),
			strconv.Itoa(cs.HighCount),
			strconv.Itoa(cs.MediumCount),
			strconv.Itoa(cs.LowCount),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Score", "Issues", "Critical", "High", "Medium", "Low"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeTopIssues(md *markdown.Markdown, summary *model.Summary) {
	if len(summary.TopIssues) == 0 {
		return
	}

	md.H2("Top Issues")
	md.PlainText("")
	items := make([]string, 0, len(summary.TopIssues))
	for _, issue := range summary.TopIssues {
		items = append(items, fmt.Sprintf("**%s** (%s, %s): %s",
			issue.Title, SeverityTitle(issue.Severity), CategoryTitle(issue.Category), issue.URL))
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeIssues(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Issues")
	md.PlainText("")

	if len(report.AllIssues()) == 0 {
		md.PlainText("No issues detected.")
		md.PlainText("")
		return
	}

	for _, sev := range model.AllSeverities() {
		issues := issuesBySeverity(report, sev)
		if len(issues) == 0 {
			continue
		}
		md.PlainText("### " + severityIcons[sev] + " " + SeverityTitle(sev))
		md.PlainText("")
		w.writeIssuesTable(md, issues)
	}
}

func (w *MarkdownWriter) writeIssuesTable(md *markdown.Markdown, issues []model.Issue) {
	rows := make([][]string, len(issues))
	for i, issue := range issues {
		rows[i] = []string{
			issue.Title,
			CategoryTitle(issue.Category),
			truncateString(issue.URL, 60),
			truncateString(orDash(issue.Recommendation), 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Title", "Category", "Page", "Recommendation"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, issue := range issues {
		if issue.Description != "" {
			md.Details(issue.Title, issue.Description)
		}
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeRedirects(md *markdown.Markdown, report *model.AuditReport) {
	if len(report.Redirects) == 0 {
		return
	}

	md.H2("Redirects")
	md.PlainText("")
	var rows [][]string
	for _, target := range sortedKeys(report.Redirects) {
		for _, from := range report.Redirects[target] {
			rows = append(rows, []string{from, target})
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"From", "To"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by sitequality*")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
