// Package ignore loads and evaluates a project's gitignore-style rule file.
//
// Rules are read fresh on every call. A project without a rule file gets a
// nil *Set, which matches nothing.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// maxPatternLength bounds a single rule line; longer lines are skipped.
const maxPatternLength = 1024

// Set is the compiled rule set for exactly one project.
type Set struct {
	rules    *gitignore.GitIgnore
	patterns []string
}

// Load reads fileName from the top level of projectRoot and compiles it.
// The boolean is false when the file is absent or unreadable.
func Load(projectRoot, fileName string) (*Set, bool) {
	f, err := os.Open(filepath.Join(projectRoot, fileName))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(line) > maxPatternLength {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, false
	}

	return Compile(patterns...), true
}

// Compile builds a Set from raw rule lines. Lines the matcher cannot compile
// are dropped by the underlying library rather than failing the whole set.
func Compile(lines ...string) *Set {
	return &Set{
		rules:    gitignore.CompileIgnoreLines(lines...),
		patterns: lines,
	}
}

// Matches reports whether rel (slash- or OS-separated, relative to the
// project root) is excluded. Directories are also tried with a trailing
// slash so directory-only rules like "build/" hide the directory itself.
func (s *Set) Matches(rel string, isDir bool) bool {
	if s == nil || s.rules == nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimPrefix(rel, "./")
	if rel == "" || rel == "." {
		return false
	}
	if s.rules.MatchesPath(rel) {
		return true
	}
	return isDir && s.rules.MatchesPath(rel+"/")
}

// Patterns returns the rule lines the set was compiled from.
func (s *Set) Patterns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.patterns))
	copy(out, s.patterns)
	return out
}
