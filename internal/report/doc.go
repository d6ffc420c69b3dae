// Package report renders audit batches for people and tools.
//
// Render produces the two bodies of the notification email, an HTML
// document and a plain text document. Both are generated from one
// intermediate view of the batch, so every fact shown in one (scores,
// tiers, previous scores, change indicators, failed audits, the batch
// banner) is shown in the other.
//
// Writers put a batch on an io.Writer in a chosen format:
//   - TextWriter: plain text, the default terminal output
//   - HTMLWriter: the HTML email body
//   - MarkdownWriter: GitHub flavored markdown for sharing
//   - JSONWriter: structured JSON for tool integration
package report
