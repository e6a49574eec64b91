package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/nao1215/prefixdiff/internal/config"
	"github.com/nao1215/prefixdiff/internal/database"
	"github.com/nao1215/prefixdiff/internal/engine"
	"github.com/nao1215/prefixdiff/internal/model"
	"github.com/nao1215/prefixdiff/internal/prompt"
	"github.com/nao1215/prefixdiff/internal/report"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// ErrRunNotFound is returned by --show for an ID the history does not hold.
var ErrRunNotFound = errors.New("bench run not found")

// NewBenchCmd creates the bench command.
func NewBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench <prompts>...",
		Short: "Benchmark an OpenAI-compatible inference server",
		Long: `Bench sends prompts to the /completions endpoint of an OpenAI-compatible
server such as vLLM and records the time, prompt tokens, generated tokens and
cached prompt tokens of every request.

Each argument is a prompt file, a directory (its .txt files in name order) or
a JSON file of the form {"prompts": ["...", "..."]}.

Every run is stored in the history database under the XDG data directory.
Use --list to show earlier runs.

Examples:
  # Run the prompt list three times against a local vLLM server
  prefixdiff bench --model my-model --repeat 3 test_prompts_50.json

  # Fail if the server does not report prefix cache hits
  prefixdiff bench --model my-model --require-cache-metrics prompts/

  # Save the full results as JSON
  prefixdiff bench --model my-model -o results.json prompts/

  # Show the last 10 runs
  prefixdiff bench --list --limit 10

  # Show every prompt of run 4
  prefixdiff bench --show 4`,
		Args: cobra.ArbitraryArgs,
		RunE: runBenchCmd,
	}

	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"API root of the inference server")
	cmd.Flags().String("model", "",
		"Served model name")
	cmd.Flags().String("api-key-env", config.DefaultAPIKeyEnv,
		"Environment variable holding the API key")
	cmd.Flags().Int("max-tokens", config.DefaultMaxTokens,
		"Maximum generated tokens per request")
	cmd.Flags().Float64("temperature", 0,
		"Sampling temperature")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().String("template", config.DefaultTemplate,
		"Prompt template; {prompt} is replaced by the prompt text")
	cmd.Flags().String("system-prompt", "",
		"File whose content is prepended to every prompt")
	cmd.Flags().Bool("require-cache-metrics", false,
		"Fail when the server does not report cached prompt tokens")
	cmd.Flags().IntP("repeat", "r", 1,
		"Number of passes over the prompt list")
	cmd.Flags().StringP("output", "o", "",
		"Write the full results as JSON to this file")
	cmd.Flags().Bool("no-history", false,
		"Do not store the run in the history database")
	cmd.Flags().BoolP("list", "l", false,
		"List earlier runs from the history database")
	cmd.Flags().Int("limit", 20,
		"Number of runs shown by --list (0 shows all)")
	cmd.Flags().Int64("show", 0,
		"Show the stored run with this ID")

	return cmd
}

// runBenchCmd executes the bench command.
func runBenchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	b := &cfg.Bench
	if err := firstError(
		flagString(cmd, "base-url", &b.BaseURL),
		flagString(cmd, "model", &b.Model),
		flagString(cmd, "api-key-env", &b.APIKeyEnv),
		flagInt(cmd, "max-tokens", &b.MaxTokens),
		flagFloat(cmd, "temperature", &b.Temperature),
		flagDuration(cmd, "timeout", &b.Timeout),
		flagString(cmd, "template", &b.Template),
		flagString(cmd, "system-prompt", &b.SystemPromptFile),
		flagBool(cmd, "require-cache-metrics", &b.RequireCacheMetrics),
		flagInt(cmd, "repeat", &b.Repeat),
		flagString(cmd, "output", &cfg.ReportFile),
	); err != nil {
		return err
	}

	if err := cfg.ValidateFor(config.SectionBench); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return err
	}

	logger := newLogger(cmd, cfg)
	ctx, cancel := signalContext(logger)
	defer cancel()

	if list {
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}
		return listBenchRuns(ctx, cmd.OutOrStdout(), cfg.DBDir, limit)
	}

	if cmd.Flags().Changed("show") {
		id, err := cmd.Flags().GetInt64("show")
		if err != nil {
			return err
		}
		return showBenchRun(ctx, cmd.OutOrStdout(), cfg, id)
	}

	if len(args) == 0 {
		return fmt.Errorf("%w: bench needs at least one prompt source", ErrUsage)
	}

	var db *database.HistoryDB
	if !noHistory {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "dir", cfg.DBDir)
	}

	return runBench(ctx, cmd.OutOrStdout(), cfg, args, db, logger)
}

func runBench(ctx context.Context, stdout io.Writer, cfg *config.Config, args []string, db *database.HistoryDB, logger *slog.Logger) error {
	b := cfg.Bench

	sources, err := prompt.LoadSources(args)
	if err != nil {
		return err
	}

	var systemPrompt string
	if b.SystemPromptFile != "" {
		data, err := os.ReadFile(b.SystemPromptFile) //nolint:gosec // user-provided input path is intentional
		if err != nil {
			if os.IsNotExist(err) {
				return &fileNotFoundError{path: b.SystemPromptFile}
			}
			return fmt.Errorf("failed to read system prompt: %w", err)
		}
		systemPrompt = string(data)
	}

	client, err := engine.NewClient(engine.ClientOptions{
		BaseURL:             b.BaseURL,
		Model:               b.Model,
		APIKeyEnv:           b.APIKeyEnv,
		MaxTokens:           b.MaxTokens,
		Temperature:         b.Temperature,
		Timeout:             b.Timeout,
		RequireCacheMetrics: b.RequireCacheMetrics,
	})
	if err != nil {
		return err
	}

	runner := engine.NewRunner(client,
		engine.WithTemplate(b.Template),
		engine.WithSystemPrompt(systemPrompt),
		engine.WithRepeat(b.Repeat),
		engine.WithLogger(logger),
	)

	fmt.Fprintf(stdout, "Benchmarking %s at %s: %d prompts x %d passes...\n",
		b.Model, b.BaseURL, len(sources), b.Repeat)
	start := time.Now()

	run, err := runner.Run(ctx, sources)
	if err != nil {
		return err
	}
	run.Model = b.Model
	run.BaseURL = b.BaseURL

	fmt.Fprintf(stdout, "Benchmark completed in %s\n", time.Since(start).Round(time.Millisecond))

	if db != nil {
		id, err := db.SaveBenchRun(ctx, run)
		if err != nil {
			logger.Error("failed to save bench run", "error", err)
		} else {
			fmt.Fprintf(stdout, "Run #%d saved to %s\n", id, db.Path())
		}
	}

	return writeBenchRun(stdout, cfg.ReportFile, run)
}

// writeBenchRun prints run as text to stdout and, when reportFile is set,
// writes it as JSON to that file.
func writeBenchRun(stdout io.Writer, reportFile string, run *model.BenchRun) error {
	writers := []report.Writer{report.NewSimpleWriter(stdout)}
	out, closeFn, err := openReportFile(stdout, reportFile)
	if err != nil {
		return err
	}
	if reportFile != "" {
		writers = append(writers, report.NewJSONWriter(out, report.WithPrettyPrint()))
	}

	if _, err := report.NewMultiWriter(writers...).WriteBench(run); err != nil {
		_ = closeFn()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := closeFn(); err != nil {
		return err
	}

	if reportFile != "" {
		fmt.Fprintf(stdout, "Results written to %s\n", reportFile)
	}
	return nil
}

// showBenchRun prints one stored run.
func showBenchRun(ctx context.Context, out io.Writer, cfg *config.Config, id int64) error {
	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if errors.Is(err, database.ErrDatabaseNotFound) {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	run, err := db.GetBenchRun(ctx, id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return writeBenchRun(out, cfg.ReportFile, run)
}

// listBenchRuns prints the stored runs, newest first.
func listBenchRuns(ctx context.Context, out io.Writer, dbDir string, limit int) error {
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(out, "No benchmark runs recorded.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	runs, err := db.ListBenchRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No benchmark runs recorded.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Local().Format(time.DateTime),
			r.Model,
			strconv.Itoa(r.TotalPrompts),
			strconv.FormatFloat(r.MeanTimeMs, 'f', 2, 64),
			strconv.FormatFloat(r.MeanTokensProcessed, 'f', 2, 64),
			strconv.FormatFloat(r.MeanCachedTokens, 'f', 2, 64),
		})
	}

	table := tablewriter.NewTable(out)
	table.Header([]string{"ID", "Started", "Model", "Prompts", "Mean ms", "Mean prompt tokens", "Mean cached tokens"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
