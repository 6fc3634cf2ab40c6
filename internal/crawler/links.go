package crawler

import (
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/htmldoc"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/urlnorm"
)

// extractLinks returns the normalized absolute targets of the page's
// anchors, resolved against base, in document order. Domain and robots
// filtering is left to the frontier. Markup that cannot be parsed yields
// no links.
func extractLinks(markup, base string) []string {
	doc, err := htmldoc.Parse(markup)
	if err != nil {
		return nil
	}

	var links []string
	for _, a := range doc.FindAll("a", htmldoc.HasAttr("href")) {
		href, _ := a.Attr("href")
		if urlnorm.IsSkippableHref(href) {
			continue
		}
		if resolved, ok := urlnorm.Resolve(base, href); ok {
			links = append(links, resolved)
		}
	}
	return links
}
