package linkcheck

import (
	"context"
	"fmt"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/htmldoc"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
)

// Structural check thresholds.
const (
	// ThinContentWords is the word count below which a page is thin.
	ThinContentWords = 50

	// jsLinkSample is how many javascript: anchors are inspected.
	jsLinkSample = 5
)

// AnalyzeStructure runs the link checks that need only the parsed page:
// empty hrefs, javascript-only anchors and thin content.
func AnalyzeStructure(doc htmldoc.Document, text, pageURL string) []model.Issue {
	var issues []model.Issue

	if empty := doc.FindAll("a", htmldoc.AttrEquals("href", "")); len(empty) > 0 {
		issues = append(issues, model.Issue{
			Category:       model.CategoryLinks,
			Severity:       model.SeverityMedium,
			Title:          fmt.Sprintf("Found %d empty links", len(empty)),
			Description:    "Links with empty href attributes don't navigate anywhere.",
			Recommendation: "Add valid href or remove the link.",
			URL:            pageURL,
		})
	}

	jsLinks := doc.FindAll("a", htmldoc.AttrHasPrefix("href", "javascript:"))
	if len(jsLinks) > jsLinkSample {
		jsLinks = jsLinks[:jsLinkSample]
	}
	for _, a := range jsLinks {
		href, _ := a.Attr("href")
		if href != "javascript:void(0)" && href != "javascript:;" {
			continue
		}
		issues = append(issues, model.Issue{
			Category:       model.CategoryLinks,
			Severity:       model.SeverityLow,
			Title:          "JavaScript-only link",
			Description:    "Link uses javascript: href which may not work if JavaScript is disabled.",
			Recommendation: "Use a button element for actions, or provide a fallback href.",
			URL:            pageURL,
			Element:        fmt.Sprintf(`<a href="javascript:...">%s</a>`, truncate(a.Text(), 30)),
		})
	}

	if words := htmldoc.WordCount(text); words < ThinContentWords {
		issues = append(issues, model.Issue{
			Category:       model.CategoryLinks,
			Severity:       model.SeverityMedium,
			Title:          "Thin content page",
			Description:    fmt.Sprintf("Page has only %d words, which may indicate thin content.", words),
			Recommendation: "Add more substantial content or consider if this page is necessary.",
			URL:            pageURL,
		})
	}

	return issues
}

// StructureAnalyzer adapts AnalyzeStructure to the audit pipeline.
type StructureAnalyzer struct{}

// Name returns the analyzer name.
func (StructureAnalyzer) Name() string {
	return "link-structure"
}

// Analyze checks one page.
func (StructureAnalyzer) Analyze(_ context.Context, page *model.PageResult, doc htmldoc.Document) []model.Issue {
	return AnalyzeStructure(doc, page.Text, page.URL)
}
