// Package cmd provides the syntaxia command line.
//
// Configuration is read, from lowest to highest priority, from built-in
// defaults, .syntaxia.yml (or the file named by --config or
// SYNTAXIA_CONFIG_FILE), a .env file, SYNTAXIA_<SECTION>_<OPTION>
// environment variables and flags.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"syntaxia/internal/config"
)

var cfgFile string

// rootCmd serves the workspace when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "syntaxia [workspace-root]",
	Short: "Browse a workspace of source projects in the browser",
	Long: `syntaxia serves a directory of projects as a read-only website.

Every top-level directory of the workspace is a project. Projects show their
README (or the summary line of their ABOUT file) next to a file listing,
source files are syntax highlighted, and any file or directory can be
downloaded, directories as zip archives. Hidden files, symlinks and paths
matched by a project's .gitignore are never served.

Quick Start:
  syntaxia ~/projects            Serve ~/projects on 127.0.0.1:8201
  syntaxia check alpha/main.go   Show how a path would be served
  syntaxia config show           Print the effective configuration`,
	Args:         cobra.MaximumNArgs(1),
	RunE:         runServe,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .syntaxia.yml, can also use SYNTAXIA_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("root", "", "workspace root directory")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	addServeFlags(rootCmd)
}

func initConfig() {
	config.Prepare(viper.GetViper(), cfgFile)

	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("workspace.root", flags.Lookup("root"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
}

// loadConfig reads the config file and returns the validated configuration.
func loadConfig() (*config.Config, error) {
	if err := config.Read(viper.GetViper()); err != nil {
		return nil, err
	}
	return config.Load(viper.GetViper())
}
