// Package archive packs an admitted workspace directory into an in-memory
// zip archive.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"syntaxia/internal/sandbox"
)

// FileMode is the permission set recorded for every archived file.
const FileMode fs.FileMode = 0o755

// Builder creates archives. It holds no per-archive state.
type Builder struct {
	validator      *sandbox.Validator
	descriptorFile string
	maxFileSize    int64
}

// New creates a Builder. A non-positive maxFileSize disables the size check.
func New(v *sandbox.Validator, descriptorFile string, maxFileSize int64) *Builder {
	return &Builder{validator: v, descriptorFile: descriptorFile, maxFileSize: maxFileSize}
}

// Build walks dir and returns a zip holding every admitted regular file,
// named relative to dir. Entries that vanish mid-walk are skipped. A tree
// with nothing admitted yields a valid empty archive.
func (b *Builder) Build(dir sandbox.ResolvedPath) ([]byte, error) {
	if !dir.IsValid() || !dir.IsDir() {
		return nil, fmt.Errorf("not a directory: %q", dir.Rel())
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	root := dir.Abs()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if d.Name() == b.descriptorFile {
			return skip(d)
		}
		if _, ok := b.validator.Check(path, true); !ok {
			return skip(d)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "" || rel == "." {
			return nil
		}
		return b.addFile(zw, path, filepath.ToSlash(rel))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %q: %w", dir.Rel(), err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return buf.Bytes(), nil
}

func (b *Builder) addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	if b.maxFileSize > 0 && info.Size() > b.maxFileSize {
		return nil
	}

	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: info.ModTime(),
	}
	hdr.SetMode(FileMode)

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func skip(d fs.DirEntry) error {
	if d.IsDir() {
		return fs.SkipDir
	}
	return nil
}
