package main

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/prefixdiff/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//go:embed templates/prefixdiff.yaml
var configTemplate embed.FS

// sectionCommands names the command reading each template section.
var sectionCommands = map[config.Section]string{
	config.SectionAnalyze:     "prefixdiff <file1> <file2>",
	config.SectionRestructure: "prefixdiff restructure",
	config.SectionSimulate:    "prefixdiff simulate",
	config.SectionBench:       "prefixdiff bench",
}

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new prefixdiff configuration file",
		Long: `Initialize creates a new .prefixdiff configuration file in the current directory.

The generated file lists every setting with its default value:
- Preview and context sizes of the prefix comparison
- Layout and section markers of the restructure command
- Cache backend and block size of the simulate command
- Inference server and template of the bench command

Examples:
  # Create .prefixdiff in current directory
  prefixdiff init

  # Create config file at a specific path
  prefixdiff init -o myconfig.yaml

  # Force overwrite existing file
  prefixdiff init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/prefixdiff.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)
	return writeSectionHint(cmd.OutOrStdout(), content)
}

// templateSections returns the top-level sections of a configuration
// document in file order.
func templateSections(content []byte) ([]config.Section, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config template: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, nil
	}

	root := doc.Content[0]
	sections := make([]config.Section, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i+1].Kind == yaml.MappingNode {
			sections = append(sections, config.Section(root.Content[i].Value))
		}
	}
	return sections, nil
}

// writeSectionHint lists each section of the written file with the command
// that reads it.
func writeSectionHint(out io.Writer, content []byte) error {
	sections, err := templateSections(content)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\nSections:")
	for _, s := range sections {
		fmt.Fprintf(out, "  %-12s %s\n", s, sectionCommands[s])
	}
	return nil
}
