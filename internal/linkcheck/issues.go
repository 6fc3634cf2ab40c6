package linkcheck

import (
	"fmt"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
)

// brokenLinkIssue describes a link that answered with status >= 400.
func brokenLinkIssue(link model.LinkRecord, status int) model.Issue {
	severity := model.SeverityMedium
	if link.IsInternal() {
		severity = model.SeverityHigh
	}

	short := truncate(link.URL, 50)
	issue := model.Issue{
		Category: model.CategoryLinks,
		Severity: severity,
		URL:      link.SourceURL,
		Element:  anchorElement(link.URL, link.Text),
		Context:  fmt.Sprintf("Status: %d", status),
	}

	switch status {
	case 404:
		issue.Title = "Broken link (404): " + short
		issue.Description = "Link returns 404 Not Found."
		issue.Recommendation = "Update or remove the broken link."
	case 403:
		issue.Title = "Forbidden link (403): " + short
		issue.Description = "Link returns 403 Forbidden, which may be exposed to users."
		issue.Recommendation = "Check if this link should be accessible or remove it."
	case 500:
		issue.Title = "Server error (500): " + short
		issue.Description = "Link returns a server error."
		issue.Recommendation = "Check the linked page for server-side issues."
	default:
		issue.Title = fmt.Sprintf("Link error (%d): %s", status, short)
		issue.Description = fmt.Sprintf("Link returns HTTP %d.", status)
		issue.Recommendation = "Investigate and fix the linked resource."
	}
	return issue
}

// unreachableLinkIssue describes a link whose probe failed in transport.
func unreachableLinkIssue(link model.LinkRecord, err error) model.Issue {
	severity := model.SeverityLow
	if link.IsInternal() {
		severity = model.SeverityMedium
	}
	return model.Issue{
		Category:       model.CategoryLinks,
		Severity:       severity,
		Title:          "Link unreachable: " + truncate(link.URL, 50),
		Description:    fmt.Sprintf("Could not connect to the linked URL: %v", err),
		Recommendation: "Check if the URL is correct and the server is accessible.",
		URL:            link.SourceURL,
		Context:        link.Text,
	}
}

// manualCheckIssue asks for a human to verify a link on a bot-blocking site.
func manualCheckIssue(link model.LinkRecord) model.Issue {
	return model.Issue{
		Category: model.CategoryLinks,
		Severity: model.SeverityLow,
		Title:    "Manual check needed: " + truncate(link.URL, 60),
		Description: "This link is to a domain that blocks automated requests " +
			"(social media, etc.). Please verify manually that the link works.",
		Recommendation: "Open the link in a browser to verify it's not broken.",
		URL:            link.SourceURL,
		Element:        anchorElement(link.URL, link.Text),
		Context:        "Domain blocks automated checking",
	}
}

func anchorElement(href, text string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, href, text)
}
