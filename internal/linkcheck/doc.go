// Package linkcheck finds broken and suspicious links on crawled pages.
//
// Each page's anchors are classified as internal (same host as the crawl
// root) or external. Internal links are always probed with a HEAD request;
// external ones only when enabled. Links to social networks and similar
// sites that reject automated clients are never probed and are reported
// for manual review instead.
//
// Probe results are kept in a StatusCache owned by the audit run, so a URL
// linked from every page (a footer link, say) is requested once per audit.
// A cached status of 400 or above re-emits the issue for every page that
// links to it without another request.
//
// The package also implements the structural link checks that need no
// network: empty hrefs, javascript-only anchors and thin content.
package linkcheck
