package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Build info (set via ldflags)
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display the version, git commit and build date of syntaxia.

Examples:
  syntaxia version                # Show version
  syntaxia version --format json  # Output as JSON`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
}

type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func currentBuildInfo() buildInfo {
	return buildInfo{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := currentBuildInfo()
	out := cmd.OutOrStdout()

	switch versionFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "text":
		fmt.Fprintf(out, "syntaxia %s", info.Version)
		if len(info.Commit) >= 7 {
			fmt.Fprintf(out, " (%s)", info.Commit[:7])
		}
		fmt.Fprintf(out, " built %s with %s for %s\n", info.Date, info.GoVersion, info.Platform)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", versionFormat)
	}
}
