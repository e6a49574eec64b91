package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/prefixdiff/internal/prompt"
)

type fakeEngine struct {
	prompts []string
	err     error
}

func (f *fakeEngine) Complete(_ context.Context, p string) (Completion, error) {
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return Completion{}, f.err
	}
	cached := len(f.prompts) * 10
	return Completion{Text: "ok", PromptTokens: 100, CompletionTokens: 4, CachedTokens: &cached}, nil
}

func TestRunnerFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opts   []RunnerOption
		input  string
		expect string
	}{
		{
			name:   "default template",
			input:  "hi",
			expect: "user: hi\nassistant: ",
		},
		{
			name:   "system prompt is prepended inside the template",
			opts:   []RunnerOption{WithSystemPrompt("be brief")},
			input:  "hi",
			expect: "user: be brief\n\nhi\nassistant: ",
		},
		{
			name:   "template without placeholder sends the raw prompt",
			opts:   []RunnerOption{WithTemplate("")},
			input:  "hi",
			expect: "hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NewRunner(&fakeEngine{}, tt.opts...).Format(tt.input); got != tt.expect {
				t.Errorf("Format() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestRunnerRun(t *testing.T) {
	t.Parallel()

	t.Run("repeats the list and summarizes", func(t *testing.T) {
		t.Parallel()

		e := &fakeEngine{}
		r := NewRunner(e, WithRepeat(2), WithTemplate("{prompt}"))
		run, err := r.Run(context.Background(), []prompt.Source{{Name: "a", Text: "A"}, {Name: "b", Text: "B"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if diff := cmp.Diff([]string{"A", "B", "A", "B"}, e.prompts); diff != "" {
			t.Errorf("sent prompts mismatch (-want +got):\n%s", diff)
		}
		if run.TotalPrompts != 4 {
			t.Errorf("expected 4 results, got %d", run.TotalPrompts)
		}
		if run.MeanTokensProcessed != 100 || run.MeanTokensGenerated != 4 {
			t.Errorf("unexpected means: %+v", run)
		}
		if run.MeanCachedTokens != 25 {
			t.Errorf("expected mean cached 25, got %v", run.MeanCachedTokens)
		}
		if run.StartedAt.IsZero() {
			t.Error("expected StartedAt to be set")
		}
	})

	t.Run("engine failure stops the run", func(t *testing.T) {
		t.Parallel()

		e := &fakeEngine{err: ErrCacheMetricsUnavailable}
		_, err := NewRunner(e).Run(context.Background(), []prompt.Source{{Name: "a", Text: "A"}, {Name: "b", Text: "B"}})
		if !errors.Is(err, ErrCacheMetricsUnavailable) {
			t.Errorf("expected ErrCacheMetricsUnavailable, got %v", err)
		}
		if len(e.prompts) != 1 {
			t.Errorf("expected 1 request, got %d", len(e.prompts))
		}
	})
}
