package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/prefixdiff/internal/config"
	"github.com/nao1215/prefixdiff/internal/log"
	"github.com/nao1215/prefixdiff/internal/prefix"
	"github.com/spf13/cobra"
)

// ErrUsage is returned for a wrong number of arguments. The usage text is
// printed before the error.
var ErrUsage = errors.New("invalid arguments")

// fileNotFoundError reports a missing input file by its path.
type fileNotFoundError struct {
	path string
}

func (e *fileNotFoundError) Error() string {
	return fmt.Sprintf("File '%s' not found", e.path)
}

func (e *fileNotFoundError) Unwrap() error {
	return prefix.ErrFileNotFound
}

// NewRootCmd creates the root command for prefixdiff.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefixdiff <file1> <file2>",
		Short: "Measure the common prefix of two prompts",
		Long: `prefixdiff compares two text files and reports the longest run of identical
characters starting at the first character. That shared prefix is what an
inference server with prefix caching can reuse between the two prompts.

The report shows both file sizes, the prefix length and its share of each
file, a preview of the prefix, the text around the first difference and,
for ChatML prompts, whether the system sections are identical.

Examples:
  # Compare two prompts character by character
  prefixdiff prompt1.txt prompt2.txt

  # Only compare the text before the first user turn
  prefixdiff prompt1.txt prompt2.txt --until-marker '<|im_start|>user'

  # Write a Markdown report
  prefixdiff prompt1.txt prompt2.txt --markdown -o report.md`,
		Version:       readBuildInfo().Version,
		Args:          exactArgs(2),
		RunE:          runRootCmd,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", config.LogFormatText, "Log line format on stderr (text or json)")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .prefixdiff in current or home directory)")

	cmd.Flags().StringP("until-marker", "u", "",
		"Only compare the text before the first occurrence of this marker")
	cmd.Flags().Int("preview-limit", config.DefaultPreviewLimit,
		"Number of common prefix characters to print")
	cmd.Flags().Int("context-size", config.DefaultContextSize,
		"Number of characters printed on each side of the first difference")
	cmd.Flags().String("system-marker", config.DefaultSystemMarker,
		"Marker starting the system section")
	cmd.Flags().String("user-marker", config.DefaultUserMarker,
		"Marker ending the system section")
	addReportFlags(cmd)

	cmd.AddCommand(NewRestructureCmd())
	cmd.AddCommand(NewSimulateCmd())
	cmd.AddCommand(NewBenchCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with its status.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI with args and returns the exit status.
func run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteC()
	if err != nil {
		if errors.Is(err, ErrUsage) {
			fmt.Fprint(stderr, cmd.UsageString())
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// exactArgs rejects any other number of positional arguments with ErrUsage.
func exactArgs(n int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("%w: expected %d arguments, got %d", ErrUsage, n, len(args))
		}
		return nil
	}
}

// minimumArgs rejects fewer than n positional arguments with ErrUsage.
func minimumArgs(n int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < n {
			return fmt.Errorf("%w: expected at least %d arguments, got %d", ErrUsage, n, len(args))
		}
		return nil
	}
}

// runRootCmd executes the prefix comparison.
func runRootCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := applyAnalyzeFlags(cmd, &cfg.Analyze); err != nil {
		return err
	}

	if err := cfg.ValidateFor(config.SectionAnalyze); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, cfg)
	return runAnalyze(cmd.OutOrStdout(), cfg, args[0], args[1], logger)
}

func applyAnalyzeFlags(cmd *cobra.Command, a *config.AnalyzeConfig) error {
	return firstError(
		flagString(cmd, "until-marker", &a.UntilMarker),
		flagInt(cmd, "preview-limit", &a.PreviewLimit),
		flagInt(cmd, "context-size", &a.ContextSize),
		flagString(cmd, "system-marker", &a.SystemMarker),
		flagString(cmd, "user-marker", &a.UserMarker),
	)
}

// runAnalyze loads both files, compares them and writes the report.
func runAnalyze(out io.Writer, cfg *config.Config, path1, path2 string, logger *slog.Logger) error {
	textMode := !cfg.JSONReport && !cfg.MarkdownReport

	bufs := make([]prefix.TextBuffer, 0, 2)
	for _, p := range []string{path1, path2} {
		if textMode {
			fmt.Fprintf(out, "Reading %s...\n", p)
		}
		buf, err := prefix.Load(p)
		if err != nil {
			if errors.Is(err, prefix.ErrFileNotFound) {
				return &fileNotFoundError{path: p}
			}
			return err
		}
		bufs = append(bufs, buf)
	}

	logger.Debug("comparing files",
		"file1", path1,
		"file2", path2,
		"until_marker", cfg.Analyze.UntilMarker,
	)

	analysis := prefix.Analyze(bufs[0], bufs[1], prefix.ReportOptions{
		PreviewLimit: cfg.Analyze.PreviewLimit,
		ContextSize:  cfg.Analyze.ContextSize,
		Marker:       cfg.Analyze.UntilMarker,
		SystemMarker: cfg.Analyze.SystemMarker,
		UserMarker:   cfg.Analyze.UserMarker,
	})

	logger.Debug("comparison finished", "prefix_length", analysis.PrefixLength)

	return writeReport(out, cfg, func(w reportWriter) error {
		_, err := w.WriteAnalysis(analysis)
		return err
	})
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger returns the secure logger writing to the command's stderr in the
// configured format.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	if cfg.LogFormat == config.LogFormatJSON {
		return log.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	}
	return newLogger(cmd, cfg)
}

// buildConfig loads the configuration file and applies the flags shared by
// every command. Command specific flags are applied by the caller.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		configPath = ""
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	if format, err := cmd.Flags().GetString("log-format"); err == nil {
		cfg.LogFormat = format
	}

	if err := applyReportFlags(cmd, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
