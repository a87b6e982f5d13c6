package sandbox

import (
	"path"
	"strings"
)

// ResolvedPath is a canonical absolute path that a Validator has admitted.
// The zero value is invalid and admits nothing.
type ResolvedPath struct {
	abs   string
	rel   string // slash-separated, "" for the workspace root
	isDir bool
}

// Abs returns the canonical filesystem path.
func (p ResolvedPath) Abs() string { return p.abs }

// Rel returns the slash-separated path relative to the workspace root.
func (p ResolvedPath) Rel() string { return p.rel }

// Name returns the last path element, or "" for the workspace root.
func (p ResolvedPath) Name() string {
	if p.rel == "" {
		return ""
	}
	return path.Base(p.rel)
}

// IsDir reports whether the path was a directory when it was validated.
func (p ResolvedPath) IsDir() bool { return p.isDir }

// IsValid reports whether p came from a Validator.
func (p ResolvedPath) IsValid() bool { return p.abs != "" }

// IsRoot reports whether p is the workspace root.
func (p ResolvedPath) IsRoot() bool { return p.abs != "" && p.rel == "" }

// IsProject reports whether p is a project root: a direct child directory
// of the workspace root.
func (p ResolvedPath) IsProject() bool {
	return p.isDir && p.rel != "" && !strings.Contains(p.rel, "/")
}

// Project returns the name of the project that owns p.
func (p ResolvedPath) Project() string {
	if p.rel == "" {
		return ""
	}
	name, _, _ := strings.Cut(p.rel, "/")
	return name
}
