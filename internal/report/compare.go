package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
)

// Comparison describes how a site changed between two audits.
type Comparison struct {
	Target string `json:"target"`

	PreviousID   string    `json:"previous_id"`
	PreviousDate time.Time `json:"previous_date"`
	CurrentID    string    `json:"current_id"`
	CurrentDate  time.Time `json:"current_date"`

	PreviousScore float64 `json:"previous_score"`
	CurrentScore  float64 `json:"current_score"`
	ScoreDelta    float64 `json:"score_delta"`

	// NewIssues are present in the current audit only.
	NewIssues []model.Issue `json:"new_issues"`

	// ResolvedIssues are present in the previous audit only.
	ResolvedIssues []model.Issue `json:"resolved_issues"`

	// Unchanged counts issues present in both audits.
	Unchanged int `json:"unchanged"`
}

// Compare matches the issues of two audits of the same site by Issue.Key.
func Compare(previous, current *model.AuditReport) *Comparison {
	prevSummary := summaryOf(previous)
	currSummary := summaryOf(current)

	c := &Comparison{
		Target:         current.Target,
		PreviousID:     previous.ID,
		PreviousDate:   previous.StartedAt,
		CurrentID:      current.ID,
		CurrentDate:    current.StartedAt,
		PreviousScore:  prevSummary.OverallScore,
		CurrentScore:   currSummary.OverallScore,
		ScoreDelta:     math.Round((currSummary.OverallScore-prevSummary.OverallScore)*10) / 10,
		NewIssues:      []model.Issue{},
		ResolvedIssues: []model.Issue{},
	}

	prevKeys := issueKeys(previous)
	currKeys := issueKeys(current)

	for _, issue := range uniqueIssues(current) {
		if _, ok := prevKeys[issue.Key()]; ok {
			c.Unchanged++
			continue
		}
		c.NewIssues = append(c.NewIssues, issue)
	}
	for _, issue := range uniqueIssues(previous) {
		if _, ok := currKeys[issue.Key()]; !ok {
			c.ResolvedIssues = append(c.ResolvedIssues, issue)
		}
	}
	return c
}

// Improved reports whether the score went up.
func (c *Comparison) Improved() bool {
	return c.ScoreDelta > 0
}

func issueKeys(report *model.AuditReport) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, issue := range report.AllIssues() {
		keys[issue.Key()] = struct{}{}
	}
	return keys
}

// uniqueIssues returns the first issue for every key, in crawl order.
func uniqueIssues(report *model.AuditReport) []model.Issue {
	seen := make(map[string]struct{})
	var out []model.Issue
	for _, issue := range report.AllIssues() {
		if _, ok := seen[issue.Key()]; ok {
			continue
		}
		seen[issue.Key()] = struct{}{}
		out = append(out, issue)
	}
	return out
}

// WriteComparison outputs a comparison in human-readable format.
func (w *SimpleWriter) WriteComparison(c *Comparison) (int, error) {
	var sb strings.Builder

	writeSection(&sb, "AUDIT COMPARISON")
	fmt.Fprintf(&sb, "Site:      %s\n", c.Target)
	fmt.Fprintf(&sb, "Previous:  %s  %s  score %.1f\n", c.PreviousID, c.PreviousDate.Format("2006-01-02 15:04"), c.PreviousScore)
	fmt.Fprintf(&sb, "Current:   %s  %s  score %.1f\n", c.CurrentID, c.CurrentDate.Format("2006-01-02 15:04"), c.CurrentScore)
	fmt.Fprintf(&sb, "Change:    %+.1f\n\n", c.ScoreDelta)

	fmt.Fprintf(&sb, "New issues (%d):\n", len(c.NewIssues))
	for _, issue := range c.NewIssues {
		fmt.Fprintf(&sb, "  + [%s] %s  %s\n", issue.Severity, issue.Title, issue.URL)
	}
	fmt.Fprintf(&sb, "Resolved issues (%d):\n", len(c.ResolvedIssues))
	for _, issue := range c.ResolvedIssues {
		fmt.Fprintf(&sb, "  - [%s] %s  %s\n", issue.Severity, issue.Title, issue.URL)
	}
	fmt.Fprintf(&sb, "Unchanged: %d\n", c.Unchanged)

	return io.WriteString(w.output, sb.String())
}
