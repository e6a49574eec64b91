package model

import (
	"testing"
)

func TestPromptHitsHitRatio(t *testing.T) {
	t.Parallel()

	t.Run("empty prompt has zero ratio", func(t *testing.T) {
		t.Parallel()
		if got := (PromptHits{}).HitRatio(); got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})

	t.Run("half of the bytes served from cache", func(t *testing.T) {
		t.Parallel()
		p := PromptHits{Bytes: 512, HitBytes: 256}
		if got := p.HitRatio(); got != 0.5 {
			t.Errorf("expected 0.5, got %v", got)
		}
	})
}

func TestBenchRunSummarize(t *testing.T) {
	t.Parallel()

	t.Run("empty run keeps zero means", func(t *testing.T) {
		t.Parallel()
		run := &BenchRun{}
		run.Summarize()
		if run.TotalPrompts != 0 || run.MeanTimeMs != 0 {
			t.Errorf("expected zero summary, got %+v", run)
		}
	})

	t.Run("means are computed over all results", func(t *testing.T) {
		t.Parallel()
		cached := 8
		run := &BenchRun{
			Results: []BenchResult{
				{TimeMs: 10, TokensProcessed: 20, TokensGenerated: 4, CachedTokens: &cached},
				{TimeMs: 30, TokensProcessed: 40, TokensGenerated: 6},
			},
		}
		run.Summarize()

		if run.TotalPrompts != 2 {
			t.Errorf("expected 2 prompts, got %d", run.TotalPrompts)
		}
		if run.MeanTimeMs != 20 {
			t.Errorf("expected mean time 20, got %v", run.MeanTimeMs)
		}
		if run.MeanTokensProcessed != 30 {
			t.Errorf("expected mean processed 30, got %v", run.MeanTokensProcessed)
		}
		if run.MeanTokensGenerated != 5 {
			t.Errorf("expected mean generated 5, got %v", run.MeanTokensGenerated)
		}
		// only the first result reported cached tokens
		if run.MeanCachedTokens != 8 {
			t.Errorf("expected mean cached 8, got %v", run.MeanCachedTokens)
		}
	})
}

func TestAnalysisReportHelpers(t *testing.T) {
	t.Parallel()

	r := &AnalysisReport{
		File1: FileStat{Size: 6},
		File2: FileStat{Size: 4},
	}
	if r.MinSize() != 4 {
		t.Errorf("expected min size 4, got %d", r.MinSize())
	}
	if r.HasDivergence() {
		t.Error("expected no divergence")
	}
	r.Divergence = &Divergence{Position: 3}
	if !r.HasDivergence() {
		t.Error("expected divergence")
	}
}
