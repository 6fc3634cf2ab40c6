package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
)

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testPage(url string, status int, issues ...model.Issue) *model.PageResult {
	page := model.NewPageResult(&model.FetchResult{URL: url, StatusCode: status, FetchedAt: testStart})
	page.AddIssues(issues...)
	return page
}

// createTestReport creates a completed report with sample issues.
func createTestReport() *model.AuditReport {
	report := model.NewAuditReport("audit-1234", "https://example.test/")
	report.StartedAt = testStart
	report.CompletedAt = testStart.Add(90 * time.Second)
	report.Status = model.StatusCompleted
	report.Pages = []*model.PageResult{
		testPage("https://example.test/", 200, model.Issue{
			Category:       model.CategoryLinks,
			Severity:       model.SeverityHigh,
			Title:          "Broken link (404)",
			Description:    "The link target returned HTTP 404.",
			Recommendation: "Fix or remove the link",
			URL:            "https://example.test/",
			Element:        "https://example.test/missing",
		}),
		testPage("https://example.test/about", 200, model.Issue{
			Category: model.CategorySEO,
			Severity: model.SeverityMedium,
			Title:    "Thin content page",
			URL:      "https://example.test/about",
		}),
	}
	report.Redirects = map[string][]string{
		"https://example.test/about": {"https://example.test/about-us"},
	}
	report.Summarize()
	return report
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"WEBSITE QUALITY REPORT", "https://example.test/", "audit-1234", "Duration:       1m30s", "Status:         complete"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes severity summary and category scores", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "HIGH:     1") {
			t.Errorf("expected HIGH count in output:\n%s", output)
		}
		if !strings.Contains(output, "TOTAL:    2 issues") {
			t.Errorf("expected total in output:\n%s", output)
		}
		if !strings.Contains(output, "SEO") || !strings.Contains(output, "Links") {
			t.Error("expected category titles in output")
		}
		if strings.Contains(output, "Grammar") {
			t.Error("expected categories without issues to be hidden")
		}
	})

	t.Run("writes issues and redirects", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!!] HIGH") || !strings.Contains(output, "* Broken link (404)") {
			t.Errorf("expected high issue in output:\n%s", output)
		}
		if !strings.Contains(output, "https://example.test/about-us -> https://example.test/about") {
			t.Error("expected redirect in output")
		}
		if strings.Contains(output, "Recommendation:") {
			t.Error("expected recommendation only in verbose mode")
		}
	})

	t.Run("verbose mode includes descriptions", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Description: The link target returned HTTP 404.") {
			t.Error("expected description in verbose output")
		}
		if !strings.Contains(output, "Recommendation: Fix or remove the link") {
			t.Error("expected recommendation in verbose output")
		}
	})

	t.Run("shows empty sections when asked", func(t *testing.T) {
		t.Parallel()

		report := model.NewAuditReport("empty", "https://empty.test/")
		report.Status = model.StatusCompleted

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithShowEmpty(true)).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No issues") || !strings.Contains(buf.String(), "Grammar") {
			t.Errorf("expected empty sections:\n%s", buf.String())
		}
	})

	t.Run("shows failure and cancellation", func(t *testing.T) {
		t.Parallel()

		failed := model.NewAuditReport("f", "https://down.test/")
		failed.Status = model.StatusFailed
		failed.Error = "homepage failed: timeout"

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(failed); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "failed - homepage failed: timeout") {
			t.Errorf("expected error in status:\n%s", buf.String())
		}

		cancelled := model.NewAuditReport("c", "https://slow.test/")
		cancelled.Status = model.StatusFailed
		cancelled.Cancelled = true
		buf.Reset()
		if _, err := NewSimpleWriter(&buf).Write(cancelled); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "cancelled (partial results)") {
			t.Errorf("expected cancellation in status:\n%s", buf.String())
		}
	})

	t.Run("computes missing summary", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Summary = nil

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Summary == nil || report.Summary.TotalIssues != 2 {
			t.Errorf("expected summary to be computed, got %+v", report.Summary)
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.AuditReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.ID != "audit-1234" || len(decoded.Pages) != 2 {
			t.Errorf("unexpected decoded report %+v", decoded)
		}
		if decoded.Summary == nil || decoded.Summary.HighIssues != 1 {
			t.Errorf("expected summary in JSON, got %+v", decoded.Summary)
		}
		if !strings.Contains(buf.String(), `"severity":"high"`) {
			t.Error("expected textual severity in JSON")
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected compact JSON with one trailing newline")
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"id\": \"audit-1234\"") {
			t.Errorf("expected indented JSON:\n%s", buf.String())
		}
	})

	t.Run("uses custom prefix and indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent(">", "\t")).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n>\t\"id\"") {
			t.Errorf("expected custom indentation:\n%s", buf.String())
		}
	})

	t.Run("wraps report with version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithVersion("1.2.3")).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded JSONReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Version != "1.2.3" || decoded.Report == nil || decoded.Report.Target != "https://example.test/" {
			t.Errorf("unexpected wrapper %+v", decoded)
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, report *model.AuditReport) string {
		t.Helper()
		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return buf.String()
	}

	t.Run("writes header and summary", func(t *testing.T) {
		t.Parallel()

		output := write(t, createTestReport())
		for _, want := range []string{"# Website Quality Report", "`https://example.test/`", "## Severity Summary", "✅ Complete", "**2**"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("includes pie chart and alert", func(t *testing.T) {
		t.Parallel()

		output := write(t, createTestReport())
		if !strings.Contains(output, "```mermaid") || !strings.Contains(output, "pie") {
			t.Error("expected mermaid pie chart")
		}
		if !strings.Contains(output, "[!WARNING]") {
			t.Error("expected WARNING alert for high issues")
		}
	})

	t.Run("writes category scores and issues", func(t *testing.T) {
		t.Parallel()

		output := write(t, createTestReport())
		for _, want := range []string{"## Category Scores", "Accessibility", "## Top Issues", "### 🟠 High", "Broken link (404)", "Fix or remove the link", "The link target returned HTTP 404."} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes redirects", func(t *testing.T) {
		t.Parallel()

		output := write(t, createTestReport())
		if !strings.Contains(output, "## Redirects") || !strings.Contains(output, "https://example.test/about-us") {
			t.Error("expected redirects table")
		}
	})

	t.Run("handles report with no issues", func(t *testing.T) {
		t.Parallel()

		report := model.NewAuditReport("clean", "https://clean.test/")
		report.Status = model.StatusCompleted
		report.Pages = []*model.PageResult{testPage("https://clean.test/", 200)}

		output := write(t, report)
		if !strings.Contains(output, "No issues detected.") {
			t.Error("expected no-issues message")
		}
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected TIP alert")
		}
		if strings.Contains(output, "```mermaid") {
			t.Error("expected no pie chart without issues")
		}
	})

	t.Run("shows critical alert and failure", func(t *testing.T) {
		t.Parallel()

		report := model.NewAuditReport("crit", "https://crit.test/")
		report.Status = model.StatusFailed
		report.Error = "no pages could be loaded successfully"
		report.Pages = []*model.PageResult{testPage("https://crit.test/", 500, model.Issue{
			Category: model.CategorySecurity,
			Severity: model.SeverityCritical,
			Title:    "Mixed content",
			URL:      "https://crit.test/",
		})}

		output := write(t, report)
		if !strings.Contains(output, "[!CAUTION]") {
			t.Error("expected CAUTION alert for critical issues")
		}
		if !strings.Contains(output, "no pages could be loaded successfully") {
			t.Error("expected error in status")
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*model.AuditReport) (int, error) {
	return 0, errors.New("disk full")
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		n, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops at first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&after))
		if _, err := mw.Write(createTestReport()); err == nil {
			t.Fatal("expected error")
		}
		if after.Len() != 0 {
			t.Error("expected later writers to be skipped")
		}
	})

	t.Run("handles empty writers list", func(t *testing.T) {
		t.Parallel()

		n, err := NewMultiWriter().Write(createTestReport())
		if err != nil || n != 0 {
			t.Errorf("expected (0, nil), got (%d, %v)", n, err)
		}
	})
}

// TestCategoryTitle tests category display names.
func TestCategoryTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category model.Category
		want     string
	}{
		{model.CategorySEO, "SEO"},
		{model.CategoryLinks, "Links"},
		{model.CategoryAccessibility, "Accessibility"},
		{model.Category("core_web_vitals"), "Core Web Vitals"},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			t.Parallel()
			if got := CategoryTitle(tt.category); got != tt.want {
				t.Errorf("CategoryTitle(%q) = %q, want %q", tt.category, got, tt.want)
			}
		})
	}

	if got := SeverityTitle(model.SeverityCritical); got != "Critical" {
		t.Errorf("SeverityTitle(critical) = %q", got)
	}
}

// TestTruncateString tests the string truncation helper.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a longer string", 10, "this is..."},
		{"abcd", 3, "abc"},
		{"ürlaubsseite", 6, "ürl..."},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.input, tt.maxLen); got != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
		})
	}
}
