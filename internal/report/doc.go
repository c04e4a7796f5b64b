// Package report renders finalized run summaries and their result
// records for humans: a compact text form for terminals and a Markdown
// form for documentation and sharing.
package report
