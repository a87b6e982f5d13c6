package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"syntaxia/internal/browse"
	"syntaxia/internal/logging"
	"syntaxia/internal/sandbox"
)

const testMaxSize = 4096

// newTestWorkspace lays out two projects, a hidden directory and the files
// the handlers are exercised against.
func newTestWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"alpha/README.md":     testMarkdownComplex + "\n\n" + testMarkdownScript + "\n\n[guide](./docs/guide.md)\n",
		"alpha/ABOUT":         testDescriptor,
		"alpha/main.go":       testGoSource,
		"alpha/my file.txt":   "spaced\n",
		"alpha/.gitignore":    "*.log\n",
		"alpha/run.log":       "log line\n",
		"alpha/blob.bin":      "\x00\x01\x02",
		"alpha/huge.txt":      strings.Repeat("x", testMaxSize+1),
		"alpha/docs/guide.md": "# Guide\n",
		"beta/ABOUT":          "#rust\nBeta summary.\n",
		"beta/lib.rs":         "fn main() {}\n",
		".secret/key":         "hidden\n",
	}
	for name, content := range files {
		createTestFile(t, root, name, content)
	}
	return root
}

// createTestFile creates a file with specified content below dir
func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create test dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to create test file %s: %v", path, err)
	}
	return path
}

func defaultTestOptions() Options {
	return Options{
		Workers:         4,
		CacheMaxAge:     DefaultCacheMaxAge,
		SecurityHeaders: true,
		HSTS:            true,
		Version:         "test",
	}
}

func newTestServer(t *testing.T, root string, opts Options) *Server {
	t.Helper()
	v, err := sandbox.New(root, sandbox.Options{IgnoreFile: ".gitignore", DescriptorFile: "ABOUT"})
	if err != nil {
		t.Fatalf("failed to create validator: %v", err)
	}
	svc := browse.New(v, browse.Options{MaxFileSize: testMaxSize})
	s, err := New(svc, opts, logging.Discard())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return s
}

// get performs a request against the full handler chain.
func get(t *testing.T, s *Server, target string, header ...string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	resp := w.Result()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp, string(body)
}

// assertValidHTML checks for required HTML structure elements
func assertValidHTML(t *testing.T, html string) {
	t.Helper()
	required := []string{
		"<!DOCTYPE html>",
		"<html",
		"<head>",
		"<body>",
		"</body>",
		"</html>",
	}
	for _, tag := range required {
		if !strings.Contains(html, tag) {
			t.Errorf("HTML missing required tag: %s", tag)
		}
	}
}

// assertContains is a helper for checking string containment with clear error messages
func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("expected string to contain %q, got: %s", substr, s)
	}
}

// assertNotContains is a helper for checking string non-containment
func assertNotContains(t *testing.T, s, substr string) {
	t.Helper()
	if strings.Contains(s, substr) {
		t.Errorf("expected string NOT to contain %q, but it does", substr)
	}
}

// assertStatusCode checks HTTP status code with clear error message
func assertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("expected status code %d, got %d", want, got)
	}
}
