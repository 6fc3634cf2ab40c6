package model

import (
	"math"
	"sort"
	"time"
)

// Audit statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// maxScore is the best possible score for a site or a category.
const maxScore = 100.0

// topIssueLimit is how many issues Summary.TopIssues keeps.
const topIssueLimit = 10

// PageResult is one crawled page together with the issues found on it.
type PageResult struct {
	*FetchResult

	// Title is the document title, if any.
	Title string `json:"title,omitempty"`

	// MetaDescription is the content of the description meta tag.
	MetaDescription string `json:"meta_description,omitempty"`

	// Headings are the texts of the page's h1 elements.
	Headings []string `json:"h1_tags,omitempty"`

	// WordCount is the number of words in the visible text.
	WordCount int `json:"word_count"`

	// Issues are the problems found on this page.
	Issues []Issue `json:"issues,omitempty"`
}

// NewPageResult wraps a fetch result.
func NewPageResult(result *FetchResult) *PageResult {
	return &PageResult{FetchResult: result}
}

// AddIssues appends issues to the page.
func (p *PageResult) AddIssues(issues ...Issue) {
	p.Issues = append(p.Issues, issues...)
}

// CategoryScore is the score of one category.
type CategoryScore struct {
	Category      Category `json:"category"`
	Score         float64  `json:"score"`
	IssueCount    int      `json:"issue_count"`
	CriticalCount int      `json:"critical_count"`
	HighCount     int      `json:"high_count"`
	MediumCount   int      `json:"medium_count"`
	LowCount      int      `json:"low_count"`
}

// Summary aggregates an audit into counts and scores.
type Summary struct {
	TotalPages     int             `json:"total_pages"`
	PagesAnalyzed  int             `json:"pages_analyzed"`
	TotalIssues    int             `json:"total_issues"`
	CriticalIssues int             `json:"critical_issues"`
	HighIssues     int             `json:"high_issues"`
	MediumIssues   int             `json:"medium_issues"`
	LowIssues      int             `json:"low_issues"`
	OverallScore   float64         `json:"overall_score"`
	CategoryScores []CategoryScore `json:"category_scores"`
	TopIssues      []Issue         `json:"top_issues,omitempty"`
}

// CountBySeverity returns the number of issues with the given severity.
func (s *Summary) CountBySeverity(sev Severity) int {
	switch sev {
	case SeverityCritical:
		return s.CriticalIssues
	case SeverityHigh:
		return s.HighIssues
	case SeverityMedium:
		return s.MediumIssues
	case SeverityLow:
		return s.LowIssues
	default:
		return 0
	}
}

// AuditReport is everything collected while auditing one site.
type AuditReport struct {
	// ID uniquely identifies the audit run.
	ID string `json:"id"`

	// Target is the normalized root URL that was audited.
	Target string `json:"target"`

	// Status is one of pending, running, completed, failed.
	Status string `json:"status"`

	// StartedAt is when the audit began.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the audit ended. Zero while running.
	CompletedAt time.Time `json:"completed_at,omitzero"`

	// Pages are the crawled pages in crawl order.
	Pages []*PageResult `json:"pages"`

	// Redirects maps each redirect target to the URLs that led to it.
	Redirects map[string][]string `json:"redirects,omitempty"`

	// Summary is filled by the summary step.
	Summary *Summary `json:"summary,omitempty"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error is the first step error, if any.
	Error string `json:"error,omitempty"`

	// Cancelled is true when the audit was interrupted.
	Cancelled bool `json:"cancelled,omitempty"`
}

// NewAuditReport creates a pending report for target.
func NewAuditReport(id, target string) *AuditReport {
	return &AuditReport{
		ID:        id,
		Target:    target,
		Status:    StatusPending,
		StartedAt: time.Now(),
		Pages:     make([]*PageResult, 0),
	}
}

// Duration returns how long the audit took, or zero while running.
func (r *AuditReport) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// AllIssues returns the issues of every page in crawl order.
func (r *AuditReport) AllIssues() []Issue {
	var issues []Issue
	for _, p := range r.Pages {
		issues = append(issues, p.Issues...)
	}
	return issues
}

// Summarize computes the summary from the current pages and stores it.
func (r *AuditReport) Summarize() *Summary {
	issues := r.AllIssues()

	summary := &Summary{
		TotalPages:  len(r.Pages),
		TotalIssues: len(issues),
	}
	for _, p := range r.Pages {
		if p.StatusCode == 200 {
			summary.PagesAnalyzed++
		}
	}

	var penalty float64
	for _, issue := range issues {
		penalty += issue.Severity.Weight()
		switch issue.Severity {
		case SeverityCritical:
			summary.CriticalIssues++
		case SeverityHigh:
			summary.HighIssues++
		case SeverityMedium:
			summary.MediumIssues++
		case SeverityLow:
			summary.LowIssues++
		}
	}

	summary.OverallScore = overallScore(penalty, len(r.Pages))
	summary.CategoryScores = categoryScores(issues)
	summary.TopIssues = topIssues(issues, topIssueLimit)

	r.Summary = summary
	return summary
}

// overallScore normalizes the penalty by page count so that large sites are
// not punished for their size.
func overallScore(penalty float64, pages int) float64 {
	if pages == 0 {
		return maxScore
	}
	avg := penalty / float64(pages)
	return round1(math.Max(0, maxScore-math.Min(avg*2, maxScore)))
}

func categoryScores(issues []Issue) []CategoryScore {
	byCategory := make(map[Category][]Issue)
	for _, issue := range issues {
		byCategory[issue.Category] = append(byCategory[issue.Category], issue)
	}

	scores := make([]CategoryScore, 0, len(AllCategories()))
	for _, category := range AllCategories() {
		cs := CategoryScore{Category: category}
		var penalty float64
		for _, issue := range byCategory[category] {
			cs.IssueCount++
			penalty += issue.Severity.Weight()
			switch issue.Severity {
			case SeverityCritical:
				cs.CriticalCount++
			case SeverityHigh:
				cs.HighCount++
			case SeverityMedium:
				cs.MediumCount++
			case SeverityLow:
				cs.LowCount++
			}
		}
		cs.Score = round1(math.Max(0, maxScore-penalty))
		scores = append(scores, cs)
	}
	return scores
}

func topIssues(issues []Issue, limit int) []Issue {
	sorted := make([]Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Severity != sorted[j].Severity {
			return sorted[i].Severity > sorted[j].Severity
		}
		return sorted[i].Category < sorted[j].Category
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
