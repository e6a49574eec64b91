package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/prefixdiff/internal/model"
	"github.com/nao1215/prefixdiff/internal/prefix"
)

// separatorWidth is the width of the "=" and "-" rules.
const separatorWidth = 80

// SimpleWriter outputs human-readable text reports.
// Counts are printed with thousands separators and quoted context windows
// keep control characters visible.
type SimpleWriter struct {
	baseWriter

	// printer formats numbers with thousands separators.
	printer *message.Printer
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}
}

// WriteAnalysis outputs the analysis report in human-readable format.
func (w *SimpleWriter) WriteAnalysis(report *model.AnalysisReport) (int, error) {
	var sb strings.Builder

	w.writeFiles(&sb, report)
	w.writeResults(&sb, report)
	w.writePreview(&sb, report)
	w.writeDivergence(&sb, report)
	w.writeSystemSection(&sb, report)

	return io.WriteString(w.output, sb.String())
}

// writeFiles writes the size block of both inputs and the comparison mode.
func (w *SimpleWriter) writeFiles(sb *strings.Builder, report *model.AnalysisReport) {
	sb.WriteString("\n")
	w.writeSeparator(sb, "=")
	w.printf(sb, "File 1: %s\n", report.File1.Path)
	w.printf(sb, "  Size: %d characters (%s)\n", report.File1.Size, prefix.FormatSize(int64(report.File1.Size)))
	w.printf(sb, "\nFile 2: %s\n", report.File2.Path)
	w.printf(sb, "  Size: %d characters (%s)\n", report.File2.Size, prefix.FormatSize(int64(report.File2.Size)))
	w.writeSeparator(sb, "=")
	sb.WriteString("\n")

	if report.Marker != "" {
		w.printf(sb, "Finding common prefix until marker: '%s'\n", report.Marker)
	} else {
		sb.WriteString("Finding common prefix (character by character)...\n")
	}
}

// writeResults writes the prefix length, coverage and remaining counts.
func (w *SimpleWriter) writeResults(sb *strings.Builder, report *model.AnalysisReport) {
	w.writeHeading(sb, "RESULTS:")
	w.printf(sb, "Common prefix length: %d characters (%s)\n",
		report.PrefixLength, prefix.FormatSize(int64(report.PrefixLength)))
	w.printf(sb, "  - %.2f%% of file 1\n", report.File1Percent)
	w.printf(sb, "  - %.2f%% of file 2\n", report.File2Percent)
	w.printf(sb, "\nRemaining in file 1: %d characters\n", report.File1.Remaining)
	w.printf(sb, "Remaining in file 2: %d characters\n", report.File2.Remaining)
}

// writePreview writes the beginning of the common prefix.
func (w *SimpleWriter) writePreview(sb *strings.Builder, report *model.AnalysisReport) {
	w.writeHeading(sb, fmt.Sprintf("COMMON PREFIX PREVIEW (first %d characters):", report.PreviewLimit))
	sb.WriteString(report.Preview)
	sb.WriteString("\n")
	if report.PreviewElided > 0 {
		w.printf(sb, "\n... (%d more characters)\n", report.PreviewElided)
	}
}

// writeDivergence writes the context around the first difference.
func (w *SimpleWriter) writeDivergence(sb *strings.Builder, report *model.AnalysisReport) {
	d := report.Divergence
	if d == nil {
		return
	}

	w.writeHeading(sb, "DIFFERENCE STARTS AT:")
	w.printf(sb, "Position: %d\n", d.Position)

	for i, ctx := range []string{d.Context1, d.Context2} {
		w.printf(sb, "\nFile %d (around position %d):\n", i+1, d.Position)
		w.writeSeparator(sb, "-")
		sb.WriteString(fmt.Sprintf("%q", ctx))
		sb.WriteString("\n")
	}
}

// writeSystemSection writes the ChatML system section comparison.
func (w *SimpleWriter) writeSystemSection(sb *strings.Builder, report *model.AnalysisReport) {
	s := report.SystemSection
	if s == nil {
		return
	}

	w.writeHeading(sb, "SYSTEM MESSAGE ANALYSIS:")
	if s.Identical {
		sb.WriteString("✅ System messages are IDENTICAL\n")
		w.printf(sb, "System message length: %d characters\n", s.Section1Length)
		sb.WriteString("This is the cacheable prefix for vLLM prefix caching!\n")
		return
	}

	sb.WriteString("⚠️  System messages are DIFFERENT\n")
	w.printf(sb, "Common system prefix: %d characters\n", s.CommonPrefixLength)
	w.printf(sb, "File 1 system message: %d characters\n", s.Section1Length)
	w.printf(sb, "File 2 system message: %d characters\n", s.Section2Length)
}

// WriteSimulation outputs the per prompt hit table followed by the counters.
func (w *SimpleWriter) WriteSimulation(report *model.SimulationReport) (int, error) {
	var sb strings.Builder

	w.printf(&sb, "Backend: %s, block size: %d bytes\n\n", report.Backend, report.BlockSize)

	rows := make([][]string, 0, len(report.Prompts)+1)
	for _, p := range report.Prompts {
		rows = append(rows, w.hitRow(p))
	}
	rows = append(rows, w.hitRow(report.Totals))

	table := newTable(&sb)
	table.Header([]string{"PROMPT", "BYTES", "BLOCKS", "HIT BLOCKS", "HIT BYTES", "HIT RATIO"})
	if err := table.Bulk(rows); err != nil {
		return 0, err
	}
	if err := table.Render(); err != nil {
		return 0, err
	}

	m := report.Metrics
	w.printf(&sb, "\nlookups: %.0f  hits: %.0f  admissions: %.0f  evictions: %.0f\n",
		m.Lookups, m.Hits, m.Admissions, m.Evictions)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) hitRow(p model.PromptHits) []string {
	return []string{
		p.Name,
		w.printer.Sprintf("%d", p.Bytes),
		w.printer.Sprintf("%d", p.Blocks),
		w.printer.Sprintf("%d", p.HitBlocks),
		w.printer.Sprintf("%d", p.HitBytes),
		fmt.Sprintf("%.2f%%", p.HitRatio()*100),
	}
}

// WriteBench outputs the per request table followed by the run means.
func (w *SimpleWriter) WriteBench(run *model.BenchRun) (int, error) {
	var sb strings.Builder

	w.printf(&sb, "Model: %s (%s)\n\n", run.Model, run.BaseURL)

	rows := make([][]string, 0, len(run.Results))
	for _, r := range run.Results {
		cached := "-"
		if r.CachedTokens != nil {
			cached = w.printer.Sprintf("%d", *r.CachedTokens)
		}
		rows = append(rows, []string{
			r.Name,
			fmt.Sprintf("%.2f", r.TimeMs),
			w.printer.Sprintf("%d", r.TokensProcessed),
			cached,
			w.printer.Sprintf("%d", r.TokensGenerated),
		})
	}

	table := newTable(&sb)
	table.Header([]string{"PROMPT", "TIME (MS)", "PROMPT TOKENS", "CACHED", "GENERATED"})
	if err := table.Bulk(rows); err != nil {
		return 0, err
	}
	if err := table.Render(); err != nil {
		return 0, err
	}

	sb.WriteString("\n")
	w.printf(&sb, "Total prompts: %d\n", run.TotalPrompts)
	w.printf(&sb, "Mean time: %.2f ms\n", run.MeanTimeMs)
	w.printf(&sb, "Mean tokens processed: %.2f\n", run.MeanTokensProcessed)
	w.printf(&sb, "Mean tokens generated: %.2f\n", run.MeanTokensGenerated)
	w.printf(&sb, "Mean cached tokens: %.2f\n", run.MeanCachedTokens)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) printf(sb *strings.Builder, format string, args ...any) {
	sb.WriteString(w.printer.Sprintf(format, args...))
}

// writeHeading writes a title framed by "=" rules, preceded by a blank line.
func (w *SimpleWriter) writeHeading(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	w.writeSeparator(sb, "=")
	sb.WriteString(title)
	sb.WriteString("\n")
	w.writeSeparator(sb, "=")
}

func (w *SimpleWriter) writeSeparator(sb *strings.Builder, char string) {
	sb.WriteString(strings.Repeat(char, separatorWidth))
	sb.WriteString("\n")
}

// newTable returns a table rendering to out.
func newTable(out io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(out)
}
