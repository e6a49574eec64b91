package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/prefixdiff/internal/model"
	"github.com/nao1215/prefixdiff/internal/prompt"
)

// DefaultTemplate wraps a prompt as a single user turn.
const DefaultTemplate = "user: {prompt}\nassistant: "

const placeholder = "{prompt}"

// Runner sends prompts through an Engine and times them.
type Runner struct {
	engine       Engine
	template     string
	systemPrompt string
	repeat       int
	logger       *slog.Logger
	now          func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTemplate sets the prompt template. "{prompt}" is replaced by the
// prompt text.
func WithTemplate(tmpl string) RunnerOption {
	return func(r *Runner) {
		r.template = tmpl
	}
}

// WithSystemPrompt prepends system to every prompt, separated by a blank line.
func WithSystemPrompt(system string) RunnerOption {
	return func(r *Runner) {
		r.systemPrompt = system
	}
}

// WithRepeat runs the whole prompt list n times.
func WithRepeat(n int) RunnerOption {
	return func(r *Runner) {
		r.repeat = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner over e.
func NewRunner(e Engine, opts ...RunnerOption) *Runner {
	r := &Runner{
		engine:   e,
		template: DefaultTemplate,
		repeat:   1,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.repeat < 1 {
		r.repeat = 1
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Format returns text as it is sent to the engine.
func (r *Runner) Format(text string) string {
	if r.systemPrompt != "" {
		text = r.systemPrompt + "\n\n" + text
	}
	if r.template == "" || !strings.Contains(r.template, placeholder) {
		return text
	}
	return strings.ReplaceAll(r.template, placeholder, text)
}

// Run sends every source, repeat times, in order. The first failed request
// stops the run.
func (r *Runner) Run(ctx context.Context, sources []prompt.Source) (*model.BenchRun, error) {
	run := &model.BenchRun{
		StartedAt: r.now().UTC(),
		Results:   make([]model.BenchResult, 0, len(sources)*r.repeat),
	}

	for i := range r.repeat {
		for _, src := range sources {
			formatted := r.Format(src.Text)

			start := time.Now()
			c, err := r.engine.Complete(ctx, formatted)
			elapsed := time.Since(start)
			if err != nil {
				return nil, fmt.Errorf("prompt %s (pass %d): %w", src.Name, i+1, err)
			}

			res := model.BenchResult{
				Name:            src.Name,
				Prompt:          formatted,
				Response:        c.Text,
				TimeMs:          float64(elapsed.Microseconds()) / 1000,
				TokensProcessed: c.PromptTokens,
				TokensGenerated: c.CompletionTokens,
				CachedTokens:    c.CachedTokens,
			}
			run.Results = append(run.Results, res)

			r.logger.Debug("prompt completed",
				"name", src.Name,
				"pass", i+1,
				"time_ms", res.TimeMs,
				"prompt_tokens", res.TokensProcessed,
			)
		}
	}

	run.Summarize()
	return run, nil
}
