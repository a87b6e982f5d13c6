package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"syntaxia/internal/browse"
	"syntaxia/internal/config"
	"syntaxia/internal/logging"
	"syntaxia/internal/sandbox"
	"syntaxia/internal/server"
	"syntaxia/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve [workspace-root]",
	Short: "Start the workspace browser",
	Long: `Start the workspace browser on the configured address.

The workspace root is taken from the argument, --root, SYNTAXIA_WORKSPACE_ROOT
or the config file, in that order. The server stops gracefully on SIGINT or
SIGTERM.

Examples:
  syntaxia serve                       # Serve the configured workspace
  syntaxia serve ./projects -p 9000    # Serve ./projects on port 9000
  syntaxia serve --watch               # Log projects as they come and go`,
	Aliases: []string{"s"},
	Args:    cobra.MaximumNArgs(1),
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServeFlags(serveCmd)
}

// addServeFlags registers the server flags on cmd. The root command serves
// too, so it carries the same flags.
func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("port", "p", 8201, "Port to serve on")
	cmd.Flags().String("host", "127.0.0.1", "Host to bind to")
	cmd.Flags().Int("workers", server.DefaultWorkers, "Maximum concurrently served requests")
	cmd.Flags().Bool("watch", false, "Log projects added to or removed from the workspace")
}

// bindServeFlags binds the flags of the command actually running, since
// root and serve define the same names.
func bindServeFlags(cmd *cobra.Command) error {
	for key, flag := range map[string]string{
		"server.port":    "port",
		"server.host":    "host",
		"server.workers": "workers",
		"watch.enabled":  "watch",
	} {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := bindServeFlags(cmd); err != nil {
		return err
	}
	if len(args) == 1 {
		viper.Set("workspace.root", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Info("using config file", "path", used)
	}

	if err := ensureWorkspace(cfg.Workspace, logger); err != nil {
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
		DarkStyle:   cfg.Highlight.DarkStyle,
		LightStyle:  cfg.Highlight.LightStyle,
	})

	srv, err := server.New(svc, server.Options{
		Workers:         cfg.Server.Workers,
		CacheMaxAge:     cfg.Server.CacheMaxAge,
		FaviconPath:     cfg.Server.Favicon,
		SecurityHeaders: cfg.Server.SecurityHeaders,
		HSTS:            cfg.Server.HSTS,
		Version:         version,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Watch.Enabled {
		w := watch.New(v, logger)
		if err := w.Start(ctx); err != nil {
			logger.Warn("cannot watch workspace for changes", "error", err)
		} else {
			go drain(ctx, w)
		}
	}

	logger.Info("serving workspace",
		"root", v.Root(),
		"url", "http://"+cfg.Server.Addr(),
		"version", version)
	fmt.Fprintln(cmd.ErrOrStderr(), "Press Ctrl+C to quit")

	return srv.ListenAndServe(ctx, cfg.Server.Addr())
}

// drain consumes watch events; the watcher logs them itself.
func drain(ctx context.Context, w *watch.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.Events():
		}
	}
}

// ensureWorkspace creates the workspace root when it is missing and creation
// is enabled. An existing root must be a directory.
func ensureWorkspace(ws config.WorkspaceConfig, logger *slog.Logger) error {
	root, err := filepath.Abs(ws.Root)
	if err != nil {
		return fmt.Errorf("invalid workspace root %q: %w", ws.Root, err)
	}
	info, err := os.Stat(root)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("workspace root %s is not a directory", root)
		}
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("failed to stat workspace root: %w", err)
	case !ws.Create:
		return fmt.Errorf("workspace root %s does not exist", root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create workspace root: %w", err)
	}
	logger.Info("created workspace root", "root", root)
	return nil
}
