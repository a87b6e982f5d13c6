package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"path"
	"strings"

	"syntaxia/internal/browse"
	"syntaxia/internal/listing"
)

//go:embed theme/*
var themeFS embed.FS

// pagePair holds the full page and the "content" block of the same page,
// served to XMLHttpRequest navigation.
type pagePair struct {
	full    *template.Template
	partial *template.Template
}

type templates struct {
	css   template.CSS
	js    template.JS
	index pagePair
	code  pagePair
	repo  pagePair
	error pagePair
}

var funcMap = template.FuncMap{
	"href": href,
}

// href builds a site-absolute link from slash-separated parts, escaping
// every path segment.
func href(parts ...string) string {
	var segments []string
	for _, p := range parts {
		for _, s := range strings.Split(p, "/") {
			if s != "" {
				segments = append(segments, url.PathEscape(s))
			}
		}
	}
	return "/" + strings.Join(segments, "/")
}

func loadTemplates() (*templates, error) {
	read := func(name string) (string, error) {
		data, err := themeFS.ReadFile("theme/" + name)
		if err != nil {
			return "", fmt.Errorf("failed to load %s: %w", name, err)
		}
		return string(data), nil
	}

	layout, err := read("layout.html")
	if err != nil {
		return nil, err
	}
	css, err := read("style.css")
	if err != nil {
		return nil, err
	}
	js, err := read("theme.js")
	if err != nil {
		return nil, err
	}

	pair := func(name string) (pagePair, error) {
		page, err := read(name)
		if err != nil {
			return pagePair{}, err
		}
		full, err := template.New(name).Funcs(funcMap).Parse(layout)
		if err != nil {
			return pagePair{}, fmt.Errorf("failed to parse layout for %s: %w", name, err)
		}
		if _, err := full.Parse(page); err != nil {
			return pagePair{}, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		return pagePair{full: full, partial: full.Lookup("content")}, nil
	}

	t := &templates{css: template.CSS(css), js: template.JS(js)}
	for name, dst := range map[string]*pagePair{
		"index.html":     &t.index,
		"code_view.html": &t.code,
		"repo_view.html": &t.repo,
		"error.html":     &t.error,
	} {
		if *dst, err = pair(name); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func isPartialRequest(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

// renderTemplatePair selects the full or partial template, executes it into
// a buffer and writes the response with status.
// Returns true on success, false if an error was written to w.
func (s *Server) renderTemplatePair(w http.ResponseWriter, r *http.Request, p pagePair, status int, data any) bool {
	tmpl := p.full
	if isPartialRequest(r) {
		tmpl = p.partial
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		s.logger.Error("template execution failed", "template", tmpl.Name(), "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return false
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
	return true
}

// crumb is one breadcrumb link.
type crumb struct {
	Name string
	Path string
}

func breadcrumbs(rel string) []crumb {
	if rel == "" {
		return nil
	}
	parts := strings.Split(rel, "/")
	crumbs := make([]crumb, 0, len(parts))
	for i, p := range parts {
		crumbs = append(crumbs, crumb{Name: p, Path: path.Join(parts[:i+1]...)})
	}
	return crumbs
}

// baseTemplateData is shared by every page.
type baseTemplateData struct {
	StyleCSS template.CSS
	ThemeJS  template.JS
	Version  string
	Crumbs   []crumb
}

func (s *Server) base(rel string) baseTemplateData {
	return baseTemplateData{
		StyleCSS: s.templates.css,
		ThemeJS:  s.templates.js,
		Version:  s.opts.Version,
		Crumbs:   breadcrumbs(rel),
	}
}

type indexTemplateData struct {
	baseTemplateData
	Projects []listing.Entry
}

type codeViewTemplateData struct {
	baseTemplateData
	browse.Location
	IsFile   bool
	Code     template.HTML
	Lines    int
	Size     string
	Modified string
}

type repoViewTemplateData struct {
	baseTemplateData
	browse.Location
	About   template.HTML
	Source  string
	Summary string
	Tags    []string
}

type errorTemplateData struct {
	baseTemplateData
	Status      int
	Title       string
	Description string
}
