package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/prefixdiff/internal/model"
	"github.com/nao1215/prefixdiff/internal/pipeline"
	"github.com/nao1215/prefixdiff/internal/prefix"
)

// promptExt is the extension of the prompt files picked up by ProcessDir.
const promptExt = ".txt"

// Processor restructures prompt files.
type Processor struct {
	markers     Markers
	layout      Layout
	concurrency int
	checkOnly   bool
	logger      *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithMarkers overrides the section markers. Empty fields keep the defaults.
func WithMarkers(m Markers) Option {
	return func(p *Processor) {
		p.markers = m.WithDefaults()
	}
}

// WithLayout selects the output layout.
func WithLayout(layout Layout) Option {
	return func(p *Processor) {
		p.layout = layout
	}
}

// WithConcurrency sets the number of files processed at once.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		p.concurrency = n
	}
}

// WithCheckOnly makes the processor split and render every file without
// writing any output.
func WithCheckOnly(checkOnly bool) Option {
	return func(p *Processor) {
		p.checkOnly = checkOnly
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor creates a Processor using the reorder layout and default markers.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		markers:     DefaultMarkers(),
		layout:      LayoutReorder,
		concurrency: pipeline.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// ProcessFile restructures one file and writes the result to outPath.
func (p *Processor) ProcessFile(ctx context.Context, inPath, outPath string) error {
	job := model.NewFileJob(filepath.Base(inPath), inPath, outPath)
	return p.newPipeline().Execute(ctx, job)
}

// ProcessDir restructures every .txt file of inDir into outDir under the
// same name. outDir is created if needed. Files are processed concurrently
// and a bad file is reported in the summary without stopping the others.
func (p *Processor) ProcessDir(ctx context.Context, inDir, outDir string) (*model.BatchSummary, error) {
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt directory: %w", err)
	}

	if !p.checkOnly {
		if err := os.MkdirAll(outDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	jobs := make([]*model.FileJob, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), promptExt) {
			continue
		}
		jobs = append(jobs, model.NewFileJob(e.Name(), filepath.Join(inDir, e.Name()), filepath.Join(outDir, e.Name())))
	}

	p.logger.Debug("restructuring prompts",
		"input", inDir,
		"output", outDir,
		"files", len(jobs),
		"layout", string(p.layout),
		"steps", p.newPipeline().StepNames(),
	)

	bp := pipeline.NewBatchProcessor(p.newPipeline,
		pipeline.WithConcurrency(p.concurrency),
		pipeline.WithBatchLogger(p.logger),
	)
	done, err := bp.ProcessBatch(ctx, jobs)

	return model.NewBatchSummary(done), err
}

// newPipeline returns the read and restructure steps for one file, followed
// by the write step unless the processor only checks.
func (p *Processor) newPipeline() *pipeline.Pipeline {
	pl := pipeline.New([]pipeline.Step{
		pipeline.NewStepFunc("read", readStep),
		pipeline.NewStepFunc("restructure", p.restructureStep),
	}, pipeline.WithLogger(p.logger))
	if !p.checkOnly {
		pl.AddStep(pipeline.NewStepFunc("write", writeStep))
	}
	return pl
}

func readStep(_ context.Context, job *model.FileJob) error {
	buf, err := prefix.Load(job.InputPath)
	if err != nil {
		return err
	}
	job.Input = buf.Content
	return nil
}

func (p *Processor) restructureStep(_ context.Context, job *model.FileJob) error {
	out, err := Restructure(job.Input, p.markers, p.layout)
	if err != nil {
		return err
	}
	job.Output = out
	return nil
}

func writeStep(_ context.Context, job *model.FileJob) error {
	return os.WriteFile(job.OutputPath, []byte(job.Output), 0o600)
}
