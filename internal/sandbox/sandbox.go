// Package sandbox decides which filesystem paths under the workspace root may
// ever be observed or served.
//
// Every rendering, listing and archiving step works on a ResolvedPath, which
// can only be obtained from a Validator. Rejections are silent: callers see
// false and must report "not found" without saying why.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"syntaxia/internal/ignore"
)

// Options names the special files of a project.
type Options struct {
	// IgnoreFile is the per-project rule file. It is the only dot-file that
	// may be observed.
	IgnoreFile string
	// DescriptorFile holds a project's tags and summary. It is never
	// listable or servable; only DescriptorPath grants access to it.
	DescriptorFile string
}

// Validator gates filesystem access to paths inside one workspace root.
// It is immutable after New and safe for concurrent use.
type Validator struct {
	root       string // canonical, symlinks resolved
	configured string // absolute, as configured
	opts       Options
}

// New canonicalizes root and returns a Validator for it.
func New(root string, opts Options) (*Validator, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace root: %w", err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace root does not exist: %w", err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("cannot stat workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", canonical)
	}
	return &Validator{
		root:       canonical,
		configured: filepath.Clean(abs),
		opts:       opts,
	}, nil
}

// Root returns the canonical workspace root.
func (v *Validator) Root() string {
	return v.root
}

// Options returns the special file names the validator was built with.
func (v *Validator) Options() Options {
	return v.opts
}

// Allowed reports whether the absolute path may be observed. When
// enforceIgnore is set, the owning project's ignore rules also apply.
// The descriptor file is never allowed here.
func (v *Validator) Allowed(path string, enforceIgnore bool) bool {
	_, ok := v.check(path, enforceIgnore, false)
	return ok
}

// Resolve joins a workspace-relative path onto the root and validates it.
func (v *Validator) Resolve(rel string, enforceIgnore bool) (ResolvedPath, bool) {
	if strings.ContainsRune(rel, 0) {
		return ResolvedPath{}, false
	}
	rel = strings.TrimPrefix(filepath.FromSlash(rel), string(filepath.Separator))
	return v.check(filepath.Join(v.root, rel), enforceIgnore, false)
}

// Check validates an absolute path and returns it as a ResolvedPath.
func (v *Validator) Check(path string, enforceIgnore bool) (ResolvedPath, bool) {
	return v.check(path, enforceIgnore, false)
}

// Parent returns the directory containing p, validated with the same
// ignore enforcement. The root has no parent.
func (v *Validator) Parent(p ResolvedPath, enforceIgnore bool) (ResolvedPath, bool) {
	if p.abs == "" || p.IsRoot() {
		return ResolvedPath{}, false
	}
	return v.check(filepath.Dir(p.abs), enforceIgnore, false)
}

// DescriptorPath returns the descriptor file of a project. Access is granted
// only for a path that is itself a project root, and only when the
// descriptor exists there as a regular file.
func (v *Validator) DescriptorPath(project ResolvedPath) (string, bool) {
	if !project.IsProject() || v.opts.DescriptorFile == "" {
		return "", false
	}
	rp, ok := v.check(filepath.Join(project.abs, v.opts.DescriptorFile), false, true)
	if !ok || rp.isDir {
		return "", false
	}
	return rp.abs, true
}

func (v *Validator) check(path string, enforceIgnore, descriptor bool) (ResolvedPath, bool) {
	if path == "" || !filepath.IsAbs(path) || strings.ContainsRune(path, 0) {
		return ResolvedPath{}, false
	}
	clean := filepath.Clean(path)

	info, err := os.Lstat(clean)
	if err != nil {
		return ResolvedPath{}, false
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return ResolvedPath{}, false
	}

	canonical, err := filepath.EvalSymlinks(clean)
	if err != nil {
		return ResolvedPath{}, false
	}
	rel, ok := relativeTo(v.root, canonical)
	if !ok {
		return ResolvedPath{}, false
	}
	// A symlink at any component makes the canonical path differ from the
	// lexical one.
	if lexical, ok := v.rebase(clean); !ok || lexical != canonical {
		return ResolvedPath{}, false
	}

	if rel == "" {
		return ResolvedPath{abs: canonical, isDir: true}, true
	}

	parts := strings.Split(rel, string(filepath.Separator))
	projectRoot := filepath.Join(v.root, parts[0])
	pinfo, err := os.Lstat(projectRoot)
	if err != nil || !pinfo.IsDir() {
		return ResolvedPath{}, false
	}

	last := len(parts) - 1
	for i, name := range parts {
		if strings.HasPrefix(name, ".") && name != v.opts.IgnoreFile {
			return ResolvedPath{}, false
		}
		if name == v.opts.DescriptorFile && (!descriptor || i != last) {
			return ResolvedPath{}, false
		}
	}

	rp := ResolvedPath{abs: canonical, rel: filepath.ToSlash(rel), isDir: info.IsDir()}
	if len(parts) == 1 {
		return rp, true
	}

	if enforceIgnore {
		rules, ok := ignore.Load(projectRoot, v.opts.IgnoreFile)
		if ok && rules.Matches(strings.Join(parts[1:], "/"), info.IsDir()) {
			return ResolvedPath{}, false
		}
	}

	return rp, true
}

// rebase maps a cleaned absolute path onto the canonical root, accepting
// paths spelled either through the configured root or the canonical one.
func (v *Validator) rebase(clean string) (string, bool) {
	if rel, ok := relativeTo(v.root, clean); ok {
		return filepath.Join(v.root, rel), true
	}
	if rel, ok := relativeTo(v.configured, clean); ok {
		return filepath.Join(v.root, rel), true
	}
	return "", false
}

// relativeTo returns path relative to base ("" when equal), or false when
// path lies outside base.
func relativeTo(base, path string) (string, bool) {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
