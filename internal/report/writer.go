package report

import (
	"io"

	"github.com/nao1215/prefixdiff/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// WriteAnalysis outputs a prefix analysis report.
	// Returns the number of bytes written and any error encountered.
	WriteAnalysis(report *model.AnalysisReport) (int, error)

	// WriteSimulation outputs a prefix cache simulation report.
	WriteSimulation(report *model.SimulationReport) (int, error)

	// WriteBench outputs a benchmark run.
	WriteBench(run *model.BenchRun) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// The bench command uses it to print a table while saving JSON.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteAnalysis outputs the report to all Writers. Stops on the first error.
func (m *MultiWriter) WriteAnalysis(report *model.AnalysisReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteAnalysis(report) })
}

// WriteSimulation outputs the report to all Writers. Stops on the first error.
func (m *MultiWriter) WriteSimulation(report *model.SimulationReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteSimulation(report) })
}

// WriteBench outputs the run to all Writers. Stops on the first error.
func (m *MultiWriter) WriteBench(run *model.BenchRun) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteBench(run) })
}

func (m *MultiWriter) each(write func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := write(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
