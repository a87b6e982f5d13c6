package browse

import (
	"bytes"
	"io"
	"os"

	"syntaxia/internal/sandbox"
)

// binarySniffLen is how many leading bytes are checked for a NUL byte.
const binarySniffLen = 1024

// Kind is the outcome of classifying a request path.
type Kind int

const (
	KindNotFound Kind = iota
	KindForbidden
	KindDirectory
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindForbidden:
		return "forbidden"
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	default:
		return "not-found"
	}
}

// Target is a classified request path.
type Target struct {
	Kind Kind
	Path sandbox.ResolvedPath
	// Project is set for directories that are project roots.
	Project bool
	// Binary is set for files with a NUL byte near the start.
	Binary bool
	// Oversize is set when Kind is KindForbidden because of the size ceiling.
	Oversize bool
	Size     int64
}

// Err returns the sentinel error matching a non-servable target.
func (t Target) Err() error {
	switch t.Kind {
	case KindNotFound:
		return ErrNotFound
	case KindForbidden:
		return ErrForbidden
	}
	return nil
}

// Classify resolves a workspace-relative path with ignore rules enforced
// and reports what it is. Any rejection or metadata failure is KindNotFound.
func (s *Service) Classify(rel string) Target {
	rp, ok := s.validator.Resolve(rel, true)
	if !ok {
		return Target{Kind: KindNotFound}
	}

	info, err := os.Lstat(rp.Abs())
	if err != nil || info.Mode()&os.ModeSymlink != 0 {
		return Target{Kind: KindNotFound}
	}

	if info.IsDir() {
		return Target{Kind: KindDirectory, Path: rp, Project: rp.IsProject()}
	}
	if !info.Mode().IsRegular() {
		return Target{Kind: KindNotFound}
	}
	if info.Size() > s.lister.MaxFileSize() {
		return Target{Kind: KindForbidden, Path: rp, Oversize: true, Size: info.Size()}
	}

	binary, err := IsBinary(rp.Abs())
	if err != nil {
		return Target{Kind: KindNotFound}
	}
	return Target{Kind: KindFile, Path: rp, Binary: binary, Size: info.Size()}
}

// IsBinary reports whether any of the first 1024 bytes of the file is NUL.
func IsBinary(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, binarySniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	return bytes.IndexByte(buf[:n], 0) >= 0, nil
}
