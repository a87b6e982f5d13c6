package archive

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syntaxia/internal/sandbox"
)

func newBuilder(t *testing.T, root string, max int64) (*Builder, *sandbox.Validator) {
	t.Helper()
	v, err := sandbox.New(root, sandbox.Options{IgnoreFile: ".gitignore", DescriptorFile: "ABOUT"})
	require.NoError(t, err)
	return New(v, "ABOUT", max), v
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func entries(t *testing.T, data []byte) map[string]*zip.File {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		out[f.Name] = f
	}
	return out
}

func names(files map[string]*zip.File) []string {
	out := make([]string, 0, len(files))
	for name := range files {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// TestBuild_SkipsHiddenAndDescriptor tests the basic filtering rules
func TestBuild_SkipsHiddenAndDescriptor(t *testing.T) {
	root := t.TempDir()
	write(t, root, "proj/a.txt", "alpha")
	write(t, root, "proj/.hidden", "secret")
	write(t, root, "proj/ABOUT", "#tag\nSummary.")

	b, v := newBuilder(t, root, 0)
	dir, ok := v.Resolve("proj", true)
	require.True(t, ok)

	data, err := b.Build(dir)
	require.NoError(t, err)

	files := entries(t, data)
	assert.Equal(t, []string{"a.txt"}, names(files))

	f := files["a.txt"]
	assert.Equal(t, zip.Deflate, f.Method)
	assert.Equal(t, FileMode, f.Mode().Perm())

	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(content))
}

// TestBuild_NestedAndIgnored tests recursion, pruning and ignore rules
func TestBuild_NestedAndIgnored(t *testing.T) {
	root := t.TempDir()
	write(t, root, "proj/.gitignore", "*.log\nbuild/\n")
	write(t, root, "proj/src/main.go", "package main")
	write(t, root, "proj/src/deep/util.go", "package deep")
	write(t, root, "proj/src/ABOUT", "nested descriptor")
	write(t, root, "proj/debug.log", "noise")
	write(t, root, "proj/build/out.bin", "bin")
	write(t, root, "proj/.git/config", "[core]")
	write(t, root, "proj/big.dat", "0123456789abcdef")

	b, v := newBuilder(t, root, 15)
	dir, ok := v.Resolve("proj", true)
	require.True(t, ok)

	data, err := b.Build(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{".gitignore", "src/deep/util.go", "src/main.go"}, names(entries(t, data)))

	sub, ok := v.Resolve("proj/src", true)
	require.True(t, ok)
	data, err = b.Build(sub)
	require.NoError(t, err)
	assert.Equal(t, []string{"deep/util.go", "main.go"}, names(entries(t, data)))
}

// TestBuild_Empty tests that an empty tree yields a valid empty archive
func TestBuild_Empty(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "proj", "empty"), 0o755))
	write(t, root, "proj/.only-hidden", "x")

	b, v := newBuilder(t, root, 0)
	dir, ok := v.Resolve("proj", true)
	require.True(t, ok)

	data, err := b.Build(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Empty(t, entries(t, data))
}

// TestBuild_Symlinks tests that symlinks are never followed into the archive
func TestBuild_Symlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	write(t, outside, "secret.txt", "secret")
	write(t, root, "proj/a.txt", "alpha")
	if err := os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(root, "proj", "leak.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "proj", "leakdir")))

	b, v := newBuilder(t, root, 0)
	dir, ok := v.Resolve("proj", true)
	require.True(t, ok)

	data, err := b.Build(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, names(entries(t, data)))
}

// TestBuild_InvalidTarget tests rejection of files and zero paths
func TestBuild_InvalidTarget(t *testing.T) {
	root := t.TempDir()
	write(t, root, "proj/a.txt", "alpha")
	b, v := newBuilder(t, root, 0)

	file, ok := v.Resolve("proj/a.txt", true)
	require.True(t, ok)
	_, err := b.Build(file)
	assert.Error(t, err)

	_, err = b.Build(sandbox.ResolvedPath{})
	assert.Error(t, err)
}
