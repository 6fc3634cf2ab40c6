package report

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
)

// acronyms are category names that are displayed upper-case.
var acronyms = map[model.Category]string{
	model.CategorySEO: "SEO",
}

// CategoryTitle returns the display name of a category, e.g. "Accessibility".
func CategoryTitle(c model.Category) string {
	if a, ok := acronyms[c]; ok {
		return a
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(c), "_", " "))
}

// SeverityTitle returns the display name of a severity, e.g. "High".
func SeverityTitle(s model.Severity) string {
	return cases.Title(language.English).String(s.String())
}
