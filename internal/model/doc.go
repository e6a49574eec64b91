// Package model defines the data structures shared by prefixdiff's packages.
//
// This package contains the following main types:
//   - AnalysisReport: the result of comparing two prompts for a common prefix
//   - SectionOverlap: the comparison of the system sections of two prompts
//   - SimulationReport: per prompt hit accounting of a simulated prefix cache
//   - BenchRun: the measurements of one inference benchmark run
//
// Models live in their own package so that the analyzer, the report writers
// and the database can share them without import cycles. All of them are
// serializable to JSON for report output and database storage.
package model
