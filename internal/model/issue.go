package model

// Category groups issues by the quality area they belong to.
type Category string

// Issue categories.
const (
	CategorySEO           Category = "seo"
	CategorySpelling      Category = "spelling"
	CategoryGrammar       Category = "grammar"
	CategoryFormatting    Category = "formatting"
	CategoryAccessibility Category = "accessibility"
	CategoryLinks         Category = "links"
	CategoryCompliance    Category = "compliance"
	CategoryPerformance   Category = "performance"
	CategoryMobile        Category = "mobile"
	CategorySecurity      Category = "security"
)

// AllCategories returns every category in reporting order.
func AllCategories() []Category {
	return []Category{
		CategorySEO,
		CategorySpelling,
		CategoryGrammar,
		CategoryFormatting,
		CategoryAccessibility,
		CategoryLinks,
		CategoryCompliance,
		CategoryPerformance,
		CategoryMobile,
		CategorySecurity,
	}
}

// Issue is a single quality problem found on a page.
// Issues are produced by the crawler's structural checks, the link checker
// and any registered analyzers, and are consumed by the report writers and
// the database.
type Issue struct {
	// Category is the quality area of the issue.
	Category Category `json:"category"`

	// Severity is how urgently the issue should be addressed.
	Severity Severity `json:"severity"`

	// Title is a short, human-readable summary.
	Title string `json:"title"`

	// Description explains the problem in more detail.
	Description string `json:"description"`

	// Recommendation tells the site owner how to fix the problem.
	Recommendation string `json:"recommendation"`

	// URL is the page on which the issue was found.
	URL string `json:"url"`

	// Element is the offending markup, if any.
	Element string `json:"element,omitempty"`

	// Context carries extra detail such as the observed HTTP status.
	Context string `json:"context,omitempty"`

	// LineNumber is the source line, when the producer knows it.
	LineNumber int `json:"line_number,omitempty"`
}

// Key identifies an issue across audits of the same site.
// Two audits report "the same" issue when title and page URL match.
func (i Issue) Key() string {
	return i.URL + "\x00" + i.Title
}
