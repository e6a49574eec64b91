// Package report renders analysis, simulation and benchmark results.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for the terminal
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown for sharing in issues and docs
//
// Report data structures live in the model package; writers only format
// them. Writers implement the Writer interface and can be combined with
// MultiWriter.
package report
