// Package browse exposes the workspace to a presentation layer: it
// classifies request paths and builds the data behind the index, directory,
// file, project and download responses.
package browse

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"syntaxia/internal/archive"
	"syntaxia/internal/descriptor"
	"syntaxia/internal/highlight"
	"syntaxia/internal/listing"
	"syntaxia/internal/markdown"
	"syntaxia/internal/sandbox"
	"syntaxia/internal/sanitize"
)

// DefaultReadmeFile is the preferred About source of a project.
const DefaultReadmeFile = "README.md"

// Options configures a Service.
type Options struct {
	ReadmeFile  string
	MaxFileSize int64
	DarkStyle   string
	LightStyle  string
}

// Service is built once at startup. Every component it holds is immutable,
// so one Service serves all requests concurrently.
type Service struct {
	validator   *sandbox.Validator
	lister      *listing.Lister
	highlighter *highlight.Highlighter
	code        *bluemonday.Policy
	markdown    *markdown.Renderer
	archive     *archive.Builder
	readme      string
}

// New wires the rendering pipeline around a validator.
func New(v *sandbox.Validator, opts Options) *Service {
	if opts.ReadmeFile == "" {
		opts.ReadmeFile = DefaultReadmeFile
	}
	lister := listing.New(v, opts.MaxFileSize)
	h := highlight.New(opts.DarkStyle, opts.LightStyle)
	code := sanitize.Code()

	return &Service{
		validator:   v,
		lister:      lister,
		highlighter: h,
		code:        code,
		markdown:    markdown.New(h, code, sanitize.Document()),
		archive:     archive.New(v, v.Options().DescriptorFile, lister.MaxFileSize()),
		readme:      opts.ReadmeFile,
	}
}

// Validator returns the sandbox the service was built on.
func (s *Service) Validator() *sandbox.Validator {
	return s.validator
}

// IndexView lists the projects of the workspace.
type IndexView struct {
	Projects []listing.Entry
}

// Location places a view in the tree. Dir is the directory whose entries
// are listed. Parent links one level above it.
type Location struct {
	Path      string
	Name      string
	Dir       string
	Parent    string
	HasParent bool
	Entries   []listing.Entry
}

// DirectoryView is a plain directory listing.
type DirectoryView struct {
	Location
}

// FileView is a highlighted source file next to the listing of its directory.
type FileView struct {
	Location
	Code     string
	Lines    int
	Size     string
	Modified string
}

// ProjectView is a project root with its About content and tags.
type ProjectView struct {
	Location
	About   string
	Source  string
	Summary string
	Tags    []string
}

// Download is a file or archive ready to be sent.
type Download struct {
	Name        string
	ContentType string
	Body        []byte
}

// Index lists the project directories under the workspace root.
func (s *Service) Index() IndexView {
	root, ok := s.validator.Resolve("", false)
	if !ok {
		return IndexView{}
	}
	return IndexView{Projects: s.lister.List(root, false)}
}

// Directory lists a directory that is not a project root.
func (s *Service) Directory(t Target) (DirectoryView, error) {
	if t.Kind != KindDirectory {
		return DirectoryView{}, kindError(t)
	}
	return DirectoryView{Location: s.locate(t.Path, t.Path)}, nil
}

// FileView highlights a text file with line numbers.
func (s *Service) FileView(t Target) (FileView, error) {
	if t.Kind != KindFile {
		return FileView{}, kindError(t)
	}
	if t.Binary {
		return FileView{}, ErrUnprocessable
	}

	entry, ok := s.lister.Describe(t.Path)
	if !ok {
		return FileView{}, ErrNotFound
	}
	content, err := s.readFile(t.Path)
	if err != nil {
		return FileView{}, err
	}
	if !utf8.Valid(content) {
		return FileView{}, ErrUnprocessable
	}

	dir, ok := s.validator.Parent(t.Path, true)
	if !ok {
		return FileView{}, ErrNotFound
	}

	text := string(content)
	res := s.highlighter.Highlight(t.Path.Name(), text, true)
	return FileView{
		Location: s.locate(t.Path, dir),
		Code:     s.code.Sanitize(res.HTML()),
		Lines:    highlight.CountLines(text),
		Size:     entry.Size,
		Modified: entry.Modified,
	}, nil
}

// ProjectView renders a project root. The About content comes from the
// README when one is admitted, otherwise from the descriptor summary. Tags
// always come from the descriptor.
func (s *Service) ProjectView(t Target) (ProjectView, error) {
	if t.Kind != KindDirectory {
		return ProjectView{}, kindError(t)
	}
	if !t.Path.IsProject() {
		return ProjectView{}, fmt.Errorf("%q is not a project root", t.Path.Rel())
	}

	view := ProjectView{Location: s.locate(t.Path, t.Path)}

	if readme, ok := s.findReadme(t.Path); ok {
		if content, err := s.readFile(readme); err == nil {
			about, err := s.markdown.Render(string(content), t.Path.Rel())
			if err != nil {
				return ProjectView{}, err
			}
			view.About = about
			view.Source = readme.Name()
		}
	}

	if p, ok := s.validator.DescriptorPath(t.Path); ok {
		if d, ok := descriptor.ParseFile(p); ok {
			view.Tags = d.Tags
			view.Summary = d.Summary
			if view.Source == "" && d.Summary != "" {
				about, err := s.markdown.Render(d.Summary, t.Path.Rel())
				if err != nil {
					return ProjectView{}, err
				}
				view.About = about
				view.Source = filepath.Base(p)
			}
		}
	}

	return view, nil
}

// Download returns raw file bytes, or a zip archive for a directory.
func (s *Service) Download(t Target) (Download, error) {
	switch t.Kind {
	case KindDirectory:
		if t.Path.IsRoot() {
			return Download{}, ErrNotFound
		}
		body, err := s.archive.Build(t.Path)
		if err != nil {
			return Download{}, err
		}
		return Download{
			Name:        t.Path.Name() + ".zip",
			ContentType: "application/zip",
			Body:        body,
		}, nil
	case KindFile:
		body, err := s.readFile(t.Path)
		if err != nil {
			return Download{}, err
		}
		return Download{
			Name:        t.Path.Name(),
			ContentType: ContentTypeFor(t.Path.Name()),
			Body:        body,
		}, nil
	}
	return Download{}, kindError(t)
}

// locate fills the navigation fields for a view of p listing dir.
func (s *Service) locate(p, dir sandbox.ResolvedPath) Location {
	loc := Location{
		Path:    p.Rel(),
		Name:    p.Name(),
		Dir:     dir.Rel(),
		Entries: s.lister.List(dir, true),
	}
	if !dir.IsRoot() {
		loc.HasParent = true
		if parent := path.Dir(dir.Rel()); parent != "." {
			loc.Parent = parent
		}
	}
	return loc
}

// findReadme looks for the configured README name, then for a
// case-insensitive match among the project's files.
func (s *Service) findReadme(project sandbox.ResolvedPath) (sandbox.ResolvedPath, bool) {
	if rp, ok := s.validator.Resolve(path.Join(project.Rel(), s.readme), true); ok && !rp.IsDir() {
		return rp, true
	}
	entries, err := os.ReadDir(project.Abs())
	if err != nil {
		return sandbox.ResolvedPath{}, false
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(e.Name(), s.readme) {
			continue
		}
		if rp, ok := s.validator.Check(filepath.Join(project.Abs(), e.Name()), true); ok {
			return rp, true
		}
	}
	return sandbox.ResolvedPath{}, false
}

// readFile reads an admitted regular file, enforcing the size ceiling again
// at read time. A file that vanished since classification is not found.
func (s *Service) readFile(rp sandbox.ResolvedPath) ([]byte, error) {
	info, err := os.Lstat(rp.Abs())
	if err != nil || !info.Mode().IsRegular() {
		return nil, ErrNotFound
	}
	if info.Size() > s.lister.MaxFileSize() {
		return nil, ErrForbidden
	}
	content, err := os.ReadFile(rp.Abs())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", rp.Rel(), err)
	}
	if int64(len(content)) > s.lister.MaxFileSize() {
		return nil, ErrForbidden
	}
	return content, nil
}

func kindError(t Target) error {
	if err := t.Err(); err != nil {
		return err
	}
	return fmt.Errorf("unexpected %s target %q", t.Kind, t.Path.Rel())
}
