// Package model defines the data structures shared by the crawler, the link
// checker, the pipeline and the report writers.
//
// The main types are:
//   - FetchResult: the outcome of loading one page
//   - LinkRecord: an outbound anchor found on a page
//   - Issue: a single quality problem with severity and category
//   - AuditReport: everything collected for one audited site
//
// Models live in their own package so that crawler, linkcheck, database and
// report can share them without import cycles. All of them serialize to JSON
// for report output and database storage.
package model
