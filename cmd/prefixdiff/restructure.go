package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/nao1215/prefixdiff/internal/config"
	"github.com/nao1215/prefixdiff/internal/prompt"
	"github.com/spf13/cobra"
)

// NewRestructureCmd creates the restructure command.
func NewRestructureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restructure <input> <output>",
		Short: "Move the shared instructions of prompt files to the front",
		Long: `Restructure splits raw prompt files into their system block, requirement
document, device output and expected output format, then reassembles them so
every section that is the same across prompts comes before the device output.
The reordered prompts share a longer prefix, which a prefix cache can reuse.

If <input> is a directory, every .txt file in it is restructured into the
<output> directory under the same name. Otherwise <input> is one file and
<output> the file to write.

Layouts:
  reorder  system, expected output, requirement, device output
  chatml   system turn with system, requirement and expected output,
           user turn with the device output

Examples:
  # Restructure a directory of prompts
  prefixdiff restructure prompts/ prompts_processed/

  # Produce ChatML prompts
  prefixdiff restructure --layout chatml prompts/ prompts_chatml/

  # Only check that every prompt has its sections, write nothing
  prefixdiff restructure --check prompts/ prompts_processed/`,
		Args: exactArgs(2),
		RunE: runRestructureCmd,
	}

	cmd.Flags().StringP("layout", "l", config.DefaultLayout,
		"Output layout (reorder or chatml)")
	cmd.Flags().IntP("concurrency", "p", config.DefaultConcurrency,
		"Number of files processed at the same time")
	cmd.Flags().Bool("check", false,
		"Split and render every file without writing output")
	cmd.Flags().String("system-end", "",
		"Marker ending the system block (default: explain exactly why.\\n\\n)")
	cmd.Flags().String("requirement-marker", "",
		"Marker starting the requirement document (default: Requirement Document:)")
	cmd.Flags().String("device-marker", "",
		"Marker starting the device output (default: Device Output:)")
	cmd.Flags().String("expected-marker", "",
		"Marker starting the expected output format (default: Expected Output Format:)")

	return cmd
}

// runRestructureCmd executes the restructure command.
func runRestructureCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	r := &cfg.Restructure
	if err := firstError(
		flagString(cmd, "layout", &r.Layout),
		flagInt(cmd, "concurrency", &r.Concurrency),
		flagString(cmd, "system-end", &r.Markers.SystemEnd),
		flagString(cmd, "requirement-marker", &r.Markers.Requirement),
		flagString(cmd, "device-marker", &r.Markers.DeviceOutput),
		flagString(cmd, "expected-marker", &r.Markers.ExpectedOutput),
	); err != nil {
		return err
	}

	if err := cfg.ValidateFor(config.SectionRestructure); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	layout, err := prompt.ParseLayout(r.Layout)
	if err != nil {
		return err
	}

	checkOnly, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}

	logger := newLogger(cmd, cfg)
	ctx, cancel := signalContext(logger)
	defer cancel()

	p := prompt.NewProcessor(
		prompt.WithLayout(layout),
		prompt.WithConcurrency(r.Concurrency),
		prompt.WithMarkers(prompt.Markers{
			SystemEnd:      r.Markers.SystemEnd,
			Requirement:    r.Markers.Requirement,
			DeviceOutput:   r.Markers.DeviceOutput,
			ExpectedOutput: r.Markers.ExpectedOutput,
		}),
		prompt.WithCheckOnly(checkOnly),
		prompt.WithLogger(logger),
	)

	in, out := args[0], args[1]
	info, err := os.Stat(in)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileNotFoundError{path: in}
		}
		return err
	}

	stdout := cmd.OutOrStdout()
	if !info.IsDir() {
		if err := p.ProcessFile(ctx, in, out); err != nil {
			return fmt.Errorf("failed to restructure %s: %w", in, err)
		}
		if checkOnly {
			fmt.Fprintf(stdout, "Checked %s\n", in)
			return nil
		}
		fmt.Fprintf(stdout, "Restructured %s -> %s\n", in, out)
		return nil
	}

	summary, err := p.ProcessDir(ctx, in, out)
	if err != nil {
		return err
	}

	if checkOnly {
		fmt.Fprintf(stdout, "Checked %d files (layout: %s)\n", len(summary.Processed), layout)
	} else {
		fmt.Fprintf(stdout, "Restructured %d files into %s (layout: %s)\n", len(summary.Processed), out, layout)
	}
	if len(summary.Failed) == 0 {
		return nil
	}

	names := make([]string, 0, len(summary.Failed))
	for name := range summary.Failed {
		names = append(names, name)
	}
	sort.Strings(names)

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "%d files failed:\n", len(names))
	for _, name := range names {
		fmt.Fprintf(stderr, "  %s: %s\n", name, summary.Failed[name])
	}
	return fmt.Errorf("%d of %d files failed", len(names), len(names)+len(summary.Processed))
}
