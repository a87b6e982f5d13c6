// Package descriptor reads a project's descriptor file: a plain-text list of
// "#tag" lines plus a one-sentence summary.
package descriptor

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// maxLineLength bounds a single descriptor line.
const maxLineLength = 64 * 1024

// Descriptor is the parsed content of a descriptor file.
type Descriptor struct {
	Tags    []string
	Summary string
}

// IsEmpty reports whether the descriptor carries neither tags nor summary.
func (d Descriptor) IsEmpty() bool {
	return len(d.Tags) == 0 && d.Summary == ""
}

// Parse reads a descriptor. A line whose first non-space character is '#'
// is a tag; the first other non-blank line is the summary. Tags keep file
// order. Read errors end parsing and keep what was read so far.
func Parse(r io.Reader) Descriptor {
	var d Descriptor
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if tag := strings.TrimSpace(strings.TrimLeft(line, "#")); tag != "" {
				d.Tags = append(d.Tags, tag)
			}
			continue
		}
		if d.Summary == "" {
			d.Summary = line
		}
	}
	return d
}

// ParseFile parses the descriptor at path. It reports false when the file
// cannot be opened; callers obtain path from the sandbox.
func ParseFile(path string) (Descriptor, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Descriptor{}, false
	}
	defer f.Close()
	return Parse(f), true
}
