package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/prefixdiff/internal/config"
	"github.com/nao1215/prefixdiff/internal/report"
	"github.com/spf13/cobra"
)

// reportWriter is the report.Writer used by the commands.
type reportWriter = report.Writer

// addReportFlags adds the report format and destination flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// applyReportFlags copies the report flags of cmd, if it has them, into cfg.
func applyReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Lookup("json") == nil {
		return nil
	}
	return firstError(
		flagBool(cmd, "json", &cfg.JSONReport),
		flagBool(cmd, "markdown", &cfg.MarkdownReport),
		flagString(cmd, "output", &cfg.ReportFile),
	)
}

// newReportWriter selects the writer for the configured format.
func newReportWriter(cfg *config.Config, out io.Writer) reportWriter {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out)
	}
}

// writeReport runs write against the configured writer, sending the report
// to cfg.ReportFile when set and to stdout otherwise.
func writeReport(stdout io.Writer, cfg *config.Config, write func(reportWriter) error) error {
	out, closeFn, err := openReportFile(stdout, cfg.ReportFile)
	if err != nil {
		return err
	}

	if err := write(newReportWriter(cfg, out)); err != nil {
		_ = closeFn()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return closeFn()
}

// openReportFile creates path and its parent directories. An empty path
// returns stdout and a no-op close.
func openReportFile(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // user-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// The flag helpers below copy a flag into dst only when it was set on the
// command line, so values from the configuration file survive otherwise.

func flagString(cmd *cobra.Command, name string, dst *string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func flagInt(cmd *cobra.Command, name string, dst *int) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func flagBool(cmd *cobra.Command, name string, dst *bool) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func flagFloat(cmd *cobra.Command, name string, dst *float64) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func flagDuration(cmd *cobra.Command, name string, dst *time.Duration) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetDuration(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
