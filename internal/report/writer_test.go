package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/prefixdiff/internal/model"
	"github.com/nao1215/prefixdiff/internal/prefix"
)

// createAnalysisReport builds a report for two prompts that share a system
// section and differ in the user turn.
func createAnalysisReport() *model.AnalysisReport {
	system := "<|im_start|>system\nYou are a router expert.<|im_end|>\n"
	buf1 := prefix.NewTextBuffer("prompt01.txt", system+"<|im_start|>user\nABCDEF")
	buf2 := prefix.NewTextBuffer("prompt02.txt", system+"<|im_start|>user\nABCXYZ\n")
	return prefix.Analyze(buf1, buf2, prefix.DefaultReportOptions())
}

func createSimulationReport() *model.SimulationReport {
	return &model.SimulationReport{
		Backend:   "memory",
		BlockSize: 4,
		Prompts: []model.PromptHits{
			{Name: "a.txt", Bytes: 8, Blocks: 2, HitBlocks: 0, HitBytes: 0},
			{Name: "b.txt", Bytes: 8, Blocks: 2, HitBlocks: 1, HitBytes: 4},
		},
		Totals:  model.PromptHits{Name: "total", Bytes: 16, Blocks: 4, HitBlocks: 1, HitBytes: 4},
		Metrics: model.CacheMetrics{Lookups: 3, Hits: 1, Admissions: 3, Evictions: 0},
	}
}

func createBenchRun() *model.BenchRun {
	cached := 1536
	run := &model.BenchRun{
		Model:     "qwen2.5-7b-instruct",
		BaseURL:   "http://127.0.0.1:8000/v1",
		StartedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Results: []model.BenchResult{
			{Name: "prompt01.txt", TimeMs: 20, TokensProcessed: 2048, TokensGenerated: 64},
			{Name: "prompt02.txt", TimeMs: 5, TokensProcessed: 2048, TokensGenerated: 64, CachedTokens: &cached},
		},
	}
	run.Summarize()
	return run
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes file sizes with thousands separators", func(t *testing.T) {
		t.Parallel()

		report := &model.AnalysisReport{
			File1:        model.FileStat{Path: "big.txt", Size: 1536, Remaining: 1536},
			File2:        model.FileStat{Path: "other.txt", Size: 2048, Remaining: 2048},
			PreviewLimit: 500,
		}

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteAnalysis(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "File 1: big.txt\n  Size: 1,536 characters (1.50 KB)") {
			t.Errorf("expected file 1 size line, got:\n%s", output)
		}
		if !strings.Contains(output, "Remaining in file 2: 2,048 characters") {
			t.Errorf("expected remaining line, got:\n%s", output)
		}
		if !strings.Contains(output, "Finding common prefix (character by character)...") {
			t.Errorf("expected whole file comparison line, got:\n%s", output)
		}
	})

	t.Run("writes results and divergence", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteAnalysis(createAnalysisReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			strings.Repeat("=", 80) + "\nRESULTS:\n" + strings.Repeat("=", 80),
			"COMMON PREFIX PREVIEW (first 500 characters):",
			"DIFFERENCE STARTS AT:",
			strings.Repeat("-", 80),
			`DEF"`,
			`XYZ\n"`,
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("writes identical system section", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteAnalysis(createAnalysisReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "SYSTEM MESSAGE ANALYSIS:") {
			t.Error("expected system message analysis")
		}
		if !strings.Contains(output, "System messages are IDENTICAL") {
			t.Error("expected identical system messages")
		}
	})

	t.Run("writes different system section", func(t *testing.T) {
		t.Parallel()

		report := createAnalysisReport()
		report.SystemSection = &model.SectionOverlap{CommonPrefixLength: 10, Section1Length: 40, Section2Length: 42}

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteAnalysis(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "System messages are DIFFERENT") {
			t.Error("expected different system messages")
		}
		if !strings.Contains(output, "File 2 system message: 42 characters") {
			t.Errorf("expected section lengths, got:\n%s", output)
		}
	})

	t.Run("writes elided count and marker", func(t *testing.T) {
		t.Parallel()

		report := &model.AnalysisReport{
			File1:         model.FileStat{Path: "a", Size: 2000},
			File2:         model.FileStat{Path: "b", Size: 2000},
			Marker:        "<|im_start|>user",
			PrefixLength:  2000,
			Preview:       strings.Repeat("x", 500),
			PreviewLimit:  500,
			PreviewElided: 1500,
		}

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteAnalysis(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "... (1,500 more characters)") {
			t.Errorf("expected elided count, got:\n%s", output)
		}
		if !strings.Contains(output, "Finding common prefix until marker: '<|im_start|>user'") {
			t.Errorf("expected marker line, got:\n%s", output)
		}
		if strings.Contains(output, "DIFFERENCE STARTS AT") {
			t.Error("expected no divergence block for identical inputs")
		}
	})

	t.Run("writes simulation table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteSimulation(createSimulationReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"Backend: memory", "b.txt", "50.00%", "25.00%", "evictions: 0"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("writes bench table and means", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteBench(createBenchRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"prompt02.txt", "1,536", "Total prompts: 2", "Mean time: 12.50 ms", "Mean cached tokens: 1,536.00"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("analysis round trips", func(t *testing.T) {
		t.Parallel()

		report := createAnalysisReport()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteAnalysis(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got model.AnalysisReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}
		if diff := cmp.Diff(report, &got); diff != "" {
			t.Errorf("report mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteAnalysis(createAnalysisReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"file1\"") {
			t.Errorf("expected indented output, got:\n%s", buf.String())
		}
	})

	t.Run("simulation includes hit ratios", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteSimulation(createSimulationReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got struct {
			Prompts []struct {
				Name     string  `json:"name"`
				HitRatio float64 `json:"hit_ratio"`
			} `json:"prompts"`
			Totals struct {
				HitRatio float64 `json:"hit_ratio"`
			} `json:"totals"`
		}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}
		if len(got.Prompts) != 2 || got.Prompts[1].HitRatio != 0.5 {
			t.Errorf("unexpected prompts %+v", got.Prompts)
		}
		if got.Totals.HitRatio != 0.25 {
			t.Errorf("expected total hit ratio 0.25, got %v", got.Totals.HitRatio)
		}
	})

	t.Run("bench omits missing cached tokens", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteBench(createBenchRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), `"cached_tokens"`) != 1 {
			t.Errorf("expected cached_tokens once, got:\n%s", buf.String())
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("analysis has summary chart and contexts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteAnalysis(createAnalysisReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"# Common Prefix Report", "```mermaid", "## Difference", "`prompt01.txt`", "identical"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("identical inputs get a tip instead of a difference", func(t *testing.T) {
		t.Parallel()

		buf1 := prefix.NewTextBuffer("a", "same")
		buf2 := prefix.NewTextBuffer("b", "same")

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteAnalysis(prefix.Analyze(buf1, buf2, prefix.DefaultReportOptions())); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "## Difference") {
			t.Error("expected no difference section")
		}
	})

	t.Run("simulation and bench tables", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		if _, err := w.WriteSimulation(createSimulationReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := w.WriteBench(createBenchRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"# Prefix Cache Simulation", "**Total**", "# Inference Benchmark", "qwen2.5-7b-instruct"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})
}

// TestMultiWriter tests that every writer receives the report.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, data bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&data))

	n, err := mw.WriteBench(createBenchRun())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != text.Len()+data.Len() {
		t.Errorf("expected %d bytes, got %d", text.Len()+data.Len(), n)
	}
	if !json.Valid(data.Bytes()) {
		t.Error("expected valid JSON from the JSON writer")
	}
	if !strings.Contains(text.String(), "Total prompts: 2") {
		t.Error("expected text summary from the simple writer")
	}
}
