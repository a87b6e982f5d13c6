package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"syntaxia/internal/browse"
	"syntaxia/internal/sandbox"
)

var checkCmd = &cobra.Command{
	Use:   "check <path>",
	Short: "Show how a workspace path would be served",
	Long: `Resolve a workspace-relative path through the sandbox and report how the
server would treat it: not-found, forbidden, directory or file.

Examples:
  syntaxia check alpha              # A project root
  syntaxia check alpha/main.go      # A source file
  syntaxia check ../etc/passwd      # Rejected by the sandbox`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	v, err := sandbox.New(cfg.Workspace.Root, sandbox.Options{
		IgnoreFile:     cfg.Workspace.IgnoreFile,
		DescriptorFile: cfg.Workspace.DescriptorFile,
	})
	if err != nil {
		return err
	}
	svc := browse.New(v, browse.Options{
		ReadmeFile:  cfg.Workspace.ReadmeFile,
		MaxFileSize: cfg.Workspace.MaxFileSize,
	})

	t := svc.Classify(args[0])

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "path:\t%s\n", args[0])
	fmt.Fprintf(tw, "kind:\t%s\n", t.Kind)
	if t.Path.IsValid() {
		fmt.Fprintf(tw, "resolved:\t%s\n", t.Path.Abs())
	}
	switch t.Kind {
	case browse.KindDirectory:
		fmt.Fprintf(tw, "project:\t%t\n", t.Project)
	case browse.KindFile:
		fmt.Fprintf(tw, "size:\t%s\n", humanize.IBytes(uint64(t.Size)))
		fmt.Fprintf(tw, "binary:\t%t\n", t.Binary)
	case browse.KindForbidden:
		if t.Oversize {
			fmt.Fprintf(tw, "reason:\tlarger than %s\n", humanize.IBytes(uint64(cfg.Workspace.MaxFileSize)))
		}
	}
	return tw.Flush()
}
