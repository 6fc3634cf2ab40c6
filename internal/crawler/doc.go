// Package crawler walks a website breadth-first and collects one
// FetchResult per distinct page.
//
// # Architecture
//
// A Crawler owns a frontier (queue plus visited set), a robots policy and a
// fetcher.Fetcher wrapping one Navigator. Pages are fetched strictly one
// after another: a single browser session is shared by the whole crawl, and
// audited sites are often production systems that must not see bursts.
//
// # Redirects
//
// When a URL redirects to a page that an earlier fetch already produced,
// the second result is discarded so the page is analyzed once. The crawler
// still records which requested URLs led to each final URL; see
// RedirectAliases.
//
// # Politeness
//
//   - robots.txt Disallow rules (the root page is always fetched)
//   - a base delay of at least 2 seconds between fetches plus random jitter
//   - a page budget (MaxPages, default 100)
//
// # Usage
//
//	c, err := crawler.New(root, nav, policy, crawler.WithMaxPages(50))
//	results, stats, err := c.Crawl(ctx)
package crawler
