package linkcheck

import (
	"strings"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/htmldoc"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/urlnorm"
)

// linkTextLimit is the number of characters of anchor text kept.
const linkTextLimit = 50

// manualCheckDomains reject automated requests. A link to one of them or
// to one of their subdomains is reported for manual review instead of
// being probed.
var manualCheckDomains = []string{
	"twitter.com",
	"x.com",
	"instagram.com",
	"facebook.com",
	"linkedin.com",
	"clutch.co",
	"tiktok.com",
	"pinterest.com",
	"threads.net",
}

// ManualCheckDomains returns the denylisted domains.
func ManualCheckDomains() []string {
	return append([]string(nil), manualCheckDomains...)
}

// isManualCheckHost reports whether host is a denylisted domain or one of
// its subdomains. "netflix.com" does not match "x.com".
func isManualCheckHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for _, d := range manualCheckDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// ExtractLinks returns the page's anchors as link records in document
// order. Anchors without an href or with a javascript:, mailto:, tel:,
// data: or fragment-only href are dropped. A link is internal when its host
// equals the host of rootURL.
func ExtractLinks(doc htmldoc.Document, pageURL, rootURL string) []model.LinkRecord {
	rootHost := urlnorm.Hostname(rootURL)

	var links []model.LinkRecord
	for _, a := range doc.FindAll("a", htmldoc.HasAttr("href")) {
		href, _ := a.Attr("href")
		if urlnorm.IsSkippableHref(strings.TrimSpace(href)) {
			continue
		}
		target, ok := urlnorm.ResolveAbsolute(pageURL, href)
		if !ok {
			continue
		}

		host := urlnorm.Hostname(target)
		record := model.LinkRecord{
			URL:       target,
			Text:      truncate(a.Text(), linkTextLimit),
			SourceURL: pageURL,
			Class:     model.LinkExternal,
		}
		if host == rootHost {
			record.Class = model.LinkInternal
		} else {
			record.BlocksBots = isManualCheckHost(host)
		}
		links = append(links, record)
	}
	return links
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
