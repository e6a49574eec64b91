package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/prefixdiff/internal/model"
	"github.com/nao1215/prefixdiff/internal/prefix"
)

// MarkdownWriter outputs reports in Markdown format.
// The output is meant to be pasted into issues and pull requests.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteAnalysis outputs the analysis report in Markdown format.
func (w *MarkdownWriter) WriteAnalysis(report *model.AnalysisReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeSummary(md, report)
	w.writeShare(md, report)
	w.writePreview(md, report)
	w.writeDivergence(md, report)
	w.writeSystemSection(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeSummary writes the file table and the prefix length.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H1("Common Prefix Report")
	md.PlainText("")

	mode := "whole file"
	if report.Marker != "" {
		mode = "until `" + report.Marker + "`"
	}

	md.Table(markdown.TableSet{
		Header: []string{"File", "Characters", "Size", "Prefix Share", "Remaining"},
		Rows: [][]string{
			w.fileRow(report.File1, report.File1Percent),
			w.fileRow(report.File2, report.File2Percent),
		},
	})
	md.PlainText("")
	md.PlainTextf("Common prefix: **%d characters** (%s), compared %s.",
		report.PrefixLength, prefix.FormatSize(int64(report.PrefixLength)), mode)
	md.PlainText("")
}

func (w *MarkdownWriter) fileRow(f model.FileStat, pct float64) []string {
	return []string{
		"`" + f.Path + "`",
		strconv.Itoa(f.Size),
		prefix.FormatSize(int64(f.Size)),
		fmt.Sprintf("%.2f%%", pct),
		strconv.Itoa(f.Remaining),
	}
}

// writeShare writes a mermaid pie chart of shared and unique characters.
func (w *MarkdownWriter) writeShare(md *markdown.Markdown, report *model.AnalysisReport) {
	if report.File1.Size == 0 && report.File2.Size == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Characters of file 1 and file 2"),
		piechart.WithShowData(true),
	)
	if report.PrefixLength > 0 {
		chart.LabelAndIntValue("Shared prefix", uint64(report.PrefixLength))
	}
	if report.File1.Remaining > 0 {
		chart.LabelAndIntValue("Only file 1", uint64(report.File1.Remaining))
	}
	if report.File2.Remaining > 0 {
		chart.LabelAndIntValue("Only file 2", uint64(report.File2.Remaining))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writePreview writes the beginning of the common prefix.
func (w *MarkdownWriter) writePreview(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H2("Common Prefix Preview")
	md.PlainText("")

	if report.Preview == "" {
		md.PlainText("The files share no prefix.")
		md.PlainText("")
		return
	}

	md.CodeBlocks(markdown.SyntaxHighlightText, report.Preview)
	md.PlainText("")
	if report.PreviewElided > 0 {
		md.PlainTextf("... (%d more characters)", report.PreviewElided)
		md.PlainText("")
	}
}

// writeDivergence writes the context windows around the first difference.
func (w *MarkdownWriter) writeDivergence(md *markdown.Markdown, report *model.AnalysisReport) {
	d := report.Divergence
	if d == nil {
		md.Tip("No difference before the end of the shorter file.")
		md.PlainText("")
		return
	}

	md.H2("Difference")
	md.PlainText("")
	md.PlainTextf("The files differ at character **%d**.", d.Position)
	md.PlainText("")
	md.PlainText("**File 1**")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightText, strconv.Quote(d.Context1))
	md.PlainText("")
	md.PlainText("**File 2**")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightText, strconv.Quote(d.Context2))
	md.PlainText("")
}

// writeSystemSection writes the ChatML system section comparison.
func (w *MarkdownWriter) writeSystemSection(md *markdown.Markdown, report *model.AnalysisReport) {
	s := report.SystemSection
	if s == nil {
		return
	}

	md.H2("System Message")
	md.PlainText("")
	if s.Identical {
		md.Note(fmt.Sprintf("System messages are identical (%d characters) and can be served from the prefix cache.",
			s.Section1Length))
		md.PlainText("")
		return
	}

	md.Warningf("System messages differ after %d characters (file 1: %d, file 2: %d).",
		s.CommonPrefixLength, s.Section1Length, s.Section2Length)
	md.PlainText("")
}

// WriteSimulation outputs the simulation report in Markdown format.
func (w *MarkdownWriter) WriteSimulation(report *model.SimulationReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Prefix Cache Simulation")
	md.PlainText("")
	md.PlainTextf("Backend `%s`, block size %d bytes.", report.Backend, report.BlockSize)
	md.PlainText("")

	rows := make([][]string, 0, len(report.Prompts)+1)
	for _, p := range report.Prompts {
		rows = append(rows, hitCells(p.Name, p))
	}
	rows = append(rows, hitCells("**Total**", report.Totals))

	md.Table(markdown.TableSet{
		Header: []string{"Prompt", "Bytes", "Blocks", "Hit Blocks", "Hit Bytes", "Hit Ratio"},
		Rows:   rows,
	})
	md.PlainText("")

	m := report.Metrics
	md.BulletList(
		fmt.Sprintf("lookups: %.0f", m.Lookups),
		fmt.Sprintf("hits: %.0f", m.Hits),
		fmt.Sprintf("admissions: %.0f", m.Admissions),
		fmt.Sprintf("evictions: %.0f", m.Evictions),
	)
	md.PlainText("")
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func hitCells(name string, p model.PromptHits) []string {
	return []string{
		name,
		strconv.Itoa(p.Bytes),
		strconv.Itoa(p.Blocks),
		strconv.Itoa(p.HitBlocks),
		strconv.Itoa(p.HitBytes),
		fmt.Sprintf("%.2f%%", p.HitRatio()*100),
	}
}

// WriteBench outputs the benchmark run in Markdown format.
func (w *MarkdownWriter) WriteBench(run *model.BenchRun) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Inference Benchmark")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Model", "`" + run.Model + "`"},
			{"Server", run.BaseURL},
			{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Prompts", strconv.Itoa(run.TotalPrompts)},
			{"Mean time", fmt.Sprintf("%.2f ms", run.MeanTimeMs)},
			{"Mean prompt tokens", fmt.Sprintf("%.2f", run.MeanTokensProcessed)},
			{"Mean cached tokens", fmt.Sprintf("%.2f", run.MeanCachedTokens)},
			{"Mean generated tokens", fmt.Sprintf("%.2f", run.MeanTokensGenerated)},
		},
	})
	md.PlainText("")

	rows := make([][]string, len(run.Results))
	for i, r := range run.Results {
		cached := "-"
		if r.CachedTokens != nil {
			cached = strconv.Itoa(*r.CachedTokens)
		}
		rows[i] = []string{
			r.Name,
			fmt.Sprintf("%.2f", r.TimeMs),
			strconv.Itoa(r.TokensProcessed),
			cached,
			strconv.Itoa(r.TokensGenerated),
		}
	}
	md.H2("Requests")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Prompt", "Time (ms)", "Prompt Tokens", "Cached", "Generated"},
		Rows:   rows,
	})
	md.PlainText("")
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [prefixdiff](https://github.com/nao1215/prefixdiff)*")
}
