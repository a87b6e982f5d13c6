package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syntaxia/internal/config"
	"syntaxia/internal/logging"
)

// execute runs the root command with args against a fresh viper instance
// from an empty working directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	viper.Reset()
	t.Cleanup(viper.Reset)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func newWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "alpha"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "alpha", "main.go"), []byte("package main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "alpha", "blob.bin"), []byte{0, 1, 2}, 0o644))
	return root
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "syntaxia dev")

	out, err = execute(t, "version", "--format", "json")
	require.NoError(t, err)
	var info buildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info.Version)
	assert.NotEmpty(t, info.GoVersion)

	_, err = execute(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestConfigShow(t *testing.T) {
	t.Setenv("SYNTAXIA_SERVER_PORT", "9100")

	out, err := execute(t, "config", "show", "--format", "json")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "ABOUT", cfg.Workspace.DescriptorFile)

	out, err = execute(t, "config", "show", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "descriptor_file: ABOUT")
	assert.Contains(t, out, "port: 9100")
}

func TestConfigShow_Invalid(t *testing.T) {
	t.Setenv("SYNTAXIA_SERVER_WORKERS", "0")

	_, err := execute(t, "config", "show")
	assert.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	root := newWorkspace(t)

	tests := []struct {
		path string
		want []string
	}{
		{"alpha", []string{"kind:", "directory", "project:", "true"}},
		{"alpha/main.go", []string{"kind:", "file", "size:", "13 B", "binary:", "false"}},
		{"alpha/blob.bin", []string{"binary:", "true"}},
		{"../etc/passwd", []string{"not-found"}},
		{"alpha/missing.go", []string{"not-found"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			out, err := execute(t, "check", "--root", root, tt.path)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestEnsureWorkspace(t *testing.T) {
	logger := logging.Discard()
	base := t.TempDir()

	missing := filepath.Join(base, "new", "root")
	require.NoError(t, ensureWorkspace(config.WorkspaceConfig{Root: missing, Create: true}, logger))
	assert.DirExists(t, missing)

	require.NoError(t, ensureWorkspace(config.WorkspaceConfig{Root: missing}, logger), "existing root")

	assert.Error(t, ensureWorkspace(config.WorkspaceConfig{Root: filepath.Join(base, "absent")}, logger))

	file := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.Error(t, ensureWorkspace(config.WorkspaceConfig{Root: file, Create: true}, logger))
}
