package model

import "time"

// FetchResult is the immutable record of loading one page.
// A result is created once per fetch; when a fetch is retried only the
// final attempt's result is kept.
type FetchResult struct {
	// URL is the normalized URL that was requested.
	URL string `json:"url"`

	// FinalURL is the normalized URL after redirects.
	// It is empty when the page did not redirect.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP status of the main document.
	// Zero means no HTTP response was obtained.
	StatusCode int `json:"status_code"`

	// HTML is the raw document markup.
	HTML string `json:"-"`

	// Text is the visible text content of the rendered page.
	Text string `json:"-"`

	// LoadTimeMS is how long the successful navigation took, in milliseconds.
	LoadTimeMS float64 `json:"load_time_ms"`

	// Error describes why the fetch failed. Empty on success.
	Error string `json:"error,omitempty"`

	// FetchedAt is when the result was produced.
	FetchedAt time.Time `json:"fetched_at"`

	// Attempts is the number of navigation attempts made.
	Attempts int `json:"attempts"`
}

// WasRedirect reports whether the page resolved to a different URL.
func (r *FetchResult) WasRedirect() bool {
	return r.FinalURL != "" && r.FinalURL != r.URL
}

// ResolvedURL returns FinalURL when the page redirected and URL otherwise.
func (r *FetchResult) ResolvedURL() string {
	if r.WasRedirect() {
		return r.FinalURL
	}
	return r.URL
}

// Failed reports whether no HTTP response was obtained.
func (r *FetchResult) Failed() bool {
	return r.StatusCode == 0
}

// IsHTMLSuccess reports whether the page returned 200 with markup to parse.
func (r *FetchResult) IsHTMLSuccess() bool {
	return r.StatusCode == 200 && r.HTML != ""
}

// LinkClass distinguishes links on the audited site from links elsewhere.
type LinkClass string

// Link classes.
const (
	LinkInternal LinkClass = "internal"
	LinkExternal LinkClass = "external"
)

// LinkRecord is an outbound anchor found on a page.
// Link records are derived from parsed HTML and consumed immediately by the
// link checker; they are not stored on their own.
type LinkRecord struct {
	// URL is the absolute link target.
	URL string `json:"url"`

	// Text is the trimmed anchor text.
	Text string `json:"text"`

	// SourceURL is the page the link was found on.
	SourceURL string `json:"source_url"`

	// Class tells whether the target is on the audited site.
	Class LinkClass `json:"class"`

	// BlocksBots is true when the target domain is known to reject
	// automated clients, so the link needs a manual check.
	BlocksBots bool `json:"blocks_bots"`
}

// IsInternal reports whether the link points at the audited site.
func (l LinkRecord) IsInternal() bool {
	return l.Class == LinkInternal
}
