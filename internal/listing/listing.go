// Package listing enumerates the immediate children of a workspace
// directory, filtered through the sandbox and sorted for display.
package listing

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"

	"syntaxia/internal/sandbox"
)

// DefaultMaxFileSize is the size ceiling for listing and serving regular files.
const DefaultMaxFileSize int64 = 10 << 20

// TimeLayout formats Entry.Modified.
const TimeLayout = "Jan 02, 2006 15:04"

// Entry describes one listed child. It is derived from filesystem metadata
// at listing time and never cached.
type Entry struct {
	Name     string
	Path     string // workspace-relative, slash-separated
	IsDir    bool
	Size     string
	Modified string
}

// Lister lists directories admitted by a sandbox validator.
type Lister struct {
	validator   *sandbox.Validator
	maxFileSize int64
}

// New creates a Lister. A non-positive maxFileSize selects DefaultMaxFileSize.
func New(v *sandbox.Validator, maxFileSize int64) *Lister {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Lister{validator: v, maxFileSize: maxFileSize}
}

// MaxFileSize returns the size ceiling in bytes.
func (l *Lister) MaxFileSize() int64 {
	return l.maxFileSize
}

// List returns the children of dir. At the workspace root only project
// directories are listed. Children that vanish, are symlinks, fail the
// sandbox or exceed the size ceiling are dropped.
func (l *Lister) List(dir sandbox.ResolvedPath, enforceIgnore bool) []Entry {
	if !dir.IsValid() || !dir.IsDir() {
		return nil
	}
	children, err := os.ReadDir(dir.Abs())
	if err != nil {
		return nil
	}

	entries := make([]Entry, 0, len(children))
	for _, child := range children {
		childPath := filepath.Join(dir.Abs(), child.Name())
		enforce := enforceIgnore
		if dir.IsRoot() {
			// Projects themselves are never subject to ignore rules.
			enforce = false
		}
		rp, ok := l.validator.Check(childPath, enforce)
		if !ok {
			continue
		}
		if dir.IsRoot() && !rp.IsDir() {
			continue
		}
		entry, ok := l.Describe(rp)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	Sort(entries)
	return entries
}

// Describe builds the Entry for one resolved path. It fails for symlinks,
// vanished paths and regular files over the size ceiling.
func (l *Lister) Describe(rp sandbox.ResolvedPath) (Entry, bool) {
	info, err := os.Lstat(rp.Abs())
	if err != nil {
		return Entry{}, false
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return Entry{}, false
	}
	if !info.IsDir() && info.Size() > l.maxFileSize {
		return Entry{}, false
	}
	return Entry{
		Name:     info.Name(),
		Path:     rp.Rel(),
		IsDir:    info.IsDir(),
		Size:     humanize.IBytes(uint64(info.Size())),
		Modified: FormatTime(info.ModTime()),
	}, true
}

// FormatTime renders a modification time in local time.
func FormatTime(t time.Time) string {
	return t.Local().Format(TimeLayout)
}

// Sort orders entries with directories first, then by case-insensitive
// name. Names that fold equal keep a stable order by their raw form.
func Sort(entries []Entry) {
	fold := cases.Fold()
	keys := make(map[string]string, len(entries))
	for _, e := range entries {
		if _, ok := keys[e.Name]; !ok {
			keys[e.Name] = fold.String(e.Name)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		ka, kb := keys[a.Name], keys[b.Name]
		if ka != kb {
			return ka < kb
		}
		return a.Name < b.Name
	})
}
