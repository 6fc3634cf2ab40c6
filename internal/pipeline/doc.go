// Package pipeline runs a website audit as a sequence of steps.
//
// The default pipeline crawls the target, runs page analyzers over every
// page that loaded, probes the links found on those pages, aggregates the
// issues into a summary. An optional IssueSink receives each page as soon
// as it is crawled and again once its links are checked.
// Each step receives the same *model.AuditReport and adds to it.
//
// BatchProcessor audits several sites concurrently with errgroup. Every
// site gets its own auditrun.Run, pipeline and navigator.
package pipeline
