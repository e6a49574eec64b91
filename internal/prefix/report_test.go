package prefix

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/prefixdiff/internal/model"
)

func TestBuildReport(t *testing.T) {
	t.Parallel()

	t.Run("divergence context shows both tails", func(t *testing.T) {
		t.Parallel()
		buf1 := NewTextBuffer("one.txt", "ABCDEF")
		buf2 := NewTextBuffer("two.txt", "ABCXYZ")
		res := CommonPrefix(buf1.Content, buf2.Content)

		got := BuildReport(buf1, buf2, res, ReportOptions{PreviewLimit: 500, ContextSize: 3})
		want := &model.AnalysisReport{
			File1:         model.FileStat{Path: "one.txt", Size: 6, Bytes: 6, Remaining: 3},
			File2:         model.FileStat{Path: "two.txt", Size: 6, Bytes: 6, Remaining: 3},
			PrefixLength:  3,
			PrefixBytes:   3,
			File1Percent:  50,
			File2Percent:  50,
			Preview:       "ABC",
			PreviewLimit:  500,
			PreviewElided: 0,
			Divergence: &model.Divergence{
				Position:    3,
				ContextSize: 3,
				Context1:    "ABCDEF",
				Context2:    "ABCXYZ",
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("report mismatch (-want +got):\n%s", diff)
		}
		if !strings.HasSuffix(got.Divergence.Context1, "DEF") || !strings.HasSuffix(got.Divergence.Context2, "XYZ") {
			t.Errorf("expected contexts to end in DEF/XYZ, got %q / %q",
				got.Divergence.Context1, got.Divergence.Context2)
		}
	})

	t.Run("empty first file reports zero percent", func(t *testing.T) {
		t.Parallel()
		buf1 := NewTextBuffer("empty.txt", "")
		buf2 := NewTextBuffer("hello.txt", "hello")
		res := CommonPrefix(buf1.Content, buf2.Content)

		got := BuildReport(buf1, buf2, res, DefaultReportOptions())
		if res.Prefix != "" || res.Length != 0 {
			t.Errorf("expected empty prefix, got %+v", res)
		}
		if got.File1Percent != 0 || got.File2Percent != 0 {
			t.Errorf("expected 0%% coverage, got %v / %v", got.File1Percent, got.File2Percent)
		}
		if got.HasDivergence() {
			t.Error("expected no divergence when one file is empty")
		}
		if got.File2.Remaining != 5 {
			t.Errorf("expected 5 remaining characters, got %d", got.File2.Remaining)
		}
	})

	t.Run("exact prefix of the other has no divergence", func(t *testing.T) {
		t.Parallel()
		buf1 := NewTextBuffer("a", "help")
		buf2 := NewTextBuffer("b", "helpful")
		got := BuildReport(buf1, buf2, CommonPrefix(buf1.Content, buf2.Content), DefaultReportOptions())
		if got.HasDivergence() {
			t.Errorf("expected no divergence, got %+v", got.Divergence)
		}
		if got.File1Percent != 100 {
			t.Errorf("expected 100%% of file 1, got %v", got.File1Percent)
		}
	})

	t.Run("preview is truncated with an elided count", func(t *testing.T) {
		t.Parallel()
		text := strings.Repeat("語", 520)
		buf1 := NewTextBuffer("a", text+"x")
		buf2 := NewTextBuffer("b", text+"y")
		got := BuildReport(buf1, buf2, CommonPrefix(buf1.Content, buf2.Content), DefaultReportOptions())

		if n := len([]rune(got.Preview)); n != 500 {
			t.Errorf("expected 500 preview characters, got %d", n)
		}
		if got.PreviewElided != 20 {
			t.Errorf("expected 20 elided characters, got %d", got.PreviewElided)
		}
	})

	t.Run("context window is clamped to buffer bounds", func(t *testing.T) {
		t.Parallel()
		buf1 := NewTextBuffer("a", "xy1")
		buf2 := NewTextBuffer("b", "xy2long tail")
		got := BuildReport(buf1, buf2, CommonPrefix(buf1.Content, buf2.Content), ReportOptions{ContextSize: 4})

		if got.Divergence.Context1 != "xy1" {
			t.Errorf("expected clamped context %q, got %q", "xy1", got.Divergence.Context1)
		}
		if got.Divergence.Context2 != "xy2lon" {
			t.Errorf("expected context %q, got %q", "xy2lon", got.Divergence.Context2)
		}
	})

	t.Run("marker bounded comparison reports divergence at the marker", func(t *testing.T) {
		t.Parallel()
		buf1 := NewTextBuffer("a", "shared|same")
		buf2 := NewTextBuffer("b", "shared|same")
		opts := DefaultReportOptions()
		opts.Marker = "|"
		got := BuildReport(buf1, buf2, Compare(buf1, buf2, "|"), opts)

		if got.Marker != "|" {
			t.Errorf("expected marker to be recorded, got %q", got.Marker)
		}
		if got.PrefixLength != 6 {
			t.Errorf("expected prefix length 6, got %d", got.PrefixLength)
		}
		if !got.HasDivergence() || got.Divergence.Position != 6 {
			t.Errorf("expected divergence at 6, got %+v", got.Divergence)
		}
	})
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	system := "<|im_start|>system\nYou are a network engineer.<|im_end|>\n"

	t.Run("identical system sections are reported in full", func(t *testing.T) {
		t.Parallel()
		buf1 := NewTextBuffer("a", system+"<|im_start|>user\nshow ip route<|im_end|>")
		buf2 := NewTextBuffer("b", system+"<|im_start|>user\nshow version<|im_end|>")

		got := Analyze(buf1, buf2, DefaultReportOptions())
		if got.SystemSection == nil {
			t.Fatal("expected system section analysis")
		}
		sectionLen := len([]rune(system))
		want := model.SectionOverlap{
			Identical:          true,
			CommonPrefixLength: sectionLen,
			Section1Length:     sectionLen,
			Section2Length:     sectionLen,
		}
		if diff := cmp.Diff(want, *got.SystemSection); diff != "" {
			t.Errorf("section mismatch (-want +got):\n%s", diff)
		}
		if got.PrefixLength <= sectionLen {
			t.Errorf("expected prefix to extend past the system section, got %d", got.PrefixLength)
		}
	})

	t.Run("plain text has no system section", func(t *testing.T) {
		t.Parallel()
		buf1 := NewTextBuffer("a", "ABCDEF")
		buf2 := NewTextBuffer("b", "ABCXYZ")

		got := Analyze(buf1, buf2, DefaultReportOptions())
		if got.SystemSection != nil {
			t.Errorf("expected no system section, got %+v", got.SystemSection)
		}
		if got.PrefixLength != 3 {
			t.Errorf("expected prefix length 3, got %d", got.PrefixLength)
		}
	})

	t.Run("empty markers skip the section comparison", func(t *testing.T) {
		t.Parallel()
		buf1 := NewTextBuffer("a", system+"<|im_start|>user\nx")
		buf2 := NewTextBuffer("b", system+"<|im_start|>user\ny")

		got := Analyze(buf1, buf2, ReportOptions{PreviewLimit: 10, ContextSize: 10})
		if got.SystemSection != nil {
			t.Errorf("expected no system section, got %+v", got.SystemSection)
		}
	})
}
