// Package database provides SQLite-based storage for audits.
//
// AuditDB keeps one row per audit together with the crawled pages, the
// issues found on each page and the link statuses probed during the run,
// so that later audits of the same site can be compared. It uses
// modernc.org/sqlite, a CGO-free driver, and WAL mode.
//
// AuditDB implements pipeline.IssueSink: pages can be recorded while an
// audit runs and SaveAudit finalizes the audit afterwards.
package database
