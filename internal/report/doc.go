// Package report renders audit reports.
//
// Writers exist for three formats:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: JSON for tool integration
//   - MarkdownWriter: Markdown with a mermaid severity chart
//
// Compare matches the issues of two audits of the same site so that the
// history command can show what changed between runs.
package report
