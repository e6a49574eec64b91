package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/prefixdiff/internal/model"
)

// JSONWriter outputs reports in JSON format.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteAnalysis outputs the analysis report in JSON format.
func (w *JSONWriter) WriteAnalysis(report *model.AnalysisReport) (int, error) {
	return w.writeJSON(report)
}

// WriteSimulation outputs the simulation report in JSON format.
// Hit ratios are added per prompt since they are methods on the model.
func (w *JSONWriter) WriteSimulation(report *model.SimulationReport) (int, error) {
	type promptJSON struct {
		model.PromptHits
		HitRatio float64 `json:"hit_ratio"`
	}
	prompts := make([]promptJSON, len(report.Prompts))
	for i, p := range report.Prompts {
		prompts[i] = promptJSON{PromptHits: p, HitRatio: p.HitRatio()}
	}

	return w.writeJSON(struct {
		Backend   string             `json:"backend"`
		BlockSize int                `json:"block_size"`
		Prompts   []promptJSON       `json:"prompts"`
		Totals    promptJSON         `json:"totals"`
		Metrics   model.CacheMetrics `json:"metrics"`
	}{
		Backend:   report.Backend,
		BlockSize: report.BlockSize,
		Prompts:   prompts,
		Totals:    promptJSON{PromptHits: report.Totals, HitRatio: report.Totals.HitRatio()},
		Metrics:   report.Metrics,
	})
}

// WriteBench outputs the benchmark run in JSON format.
func (w *JSONWriter) WriteBench(run *model.BenchRun) (int, error) {
	return w.writeJSON(run)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
