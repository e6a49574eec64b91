package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version information set at build time via ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildInfo describes the running binary.
type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// readBuildInfo resolves each field from ldflags first, then from the module
// build information embedded by the go tool.
func readBuildInfo() buildInfo {
	info := buildInfo{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
	}

	bi, ok := debug.ReadBuildInfo()
	if info.Version == "" && ok && bi.Main.Version != "" {
		info.Version = bi.Main.Version
	}
	if info.Commit == "" && ok {
		info.Commit = vcsSetting(bi, "vcs.revision")
		if len(info.Commit) > 7 {
			info.Commit = info.Commit[:7]
		}
	}
	if info.Date == "" && ok {
		info.Date = vcsSetting(bi, "vcs.time")
	}

	if info.Version == "" {
		info.Version = "(devel)"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return info
}

func vcsSetting(bi *debug.BuildInfo, key string) string {
	for _, s := range bi.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, build date and Go version of prefixdiff.`,
		Args:  cobra.NoArgs,
		RunE:  runVersionCmd,
	}
	cmd.Flags().BoolP("json", "j", false, "Print version information as JSON")
	return cmd
}

func runVersionCmd(cmd *cobra.Command, _ []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	return writeVersion(cmd.OutOrStdout(), readBuildInfo(), asJSON)
}

func writeVersion(w io.Writer, info buildInfo, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	_, err := fmt.Fprintf(w, "prefixdiff version %s\n  commit: %s\n  built:  %s\n  go:     %s\n",
		info.Version, info.Commit, info.Date, info.GoVersion)
	return err
}
