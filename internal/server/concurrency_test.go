package server

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// TestConcurrentRequests serves every view from many goroutines at once.
// Run with: go test -race
func TestConcurrentRequests(t *testing.T) {
	s := newTestServer(t, newTestWorkspace(t), defaultTestOptions())

	targets := map[string]int{
		"/":                       http.StatusOK,
		"/alpha":                  http.StatusOK,
		"/beta":                   http.StatusOK,
		"/alpha/main.go":          http.StatusOK,
		"/alpha/docs":             http.StatusOK,
		"/download/alpha":         http.StatusOK,
		"/download/alpha/main.go": http.StatusOK,
		"/alpha/blob.bin":         http.StatusUnprocessableEntity,
		"/missing":                http.StatusNotFound,
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		for target, want := range targets {
			wg.Add(1)
			go func(target string, want int) {
				defer wg.Done()
				req := httptest.NewRequest("GET", target, nil)
				w := httptest.NewRecorder()
				s.Handler().ServeHTTP(w, req)
				if w.Code != want {
					t.Errorf("%s: expected status code %d, got %d", target, want, w.Code)
				}
			}(target, want)
		}
	}
	wg.Wait()
}

// TestConcurrentTemplateExecution renders the same page pair in parallel,
// full and partial.
func TestConcurrentTemplateExecution(t *testing.T) {
	s := newTestServer(t, newTestWorkspace(t), defaultTestOptions())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(partial bool) {
			defer wg.Done()
			req := httptest.NewRequest("GET", "/", nil)
			if partial {
				req.Header.Set("X-Requested-With", "XMLHttpRequest")
			}
			w := httptest.NewRecorder()
			if !s.renderTemplatePair(w, req, s.templates.error, http.StatusTeapot, errorTemplateData{
				baseTemplateData: s.base(""),
				Status:           http.StatusTeapot,
				Title:            "I'm a teapot",
			}) {
				t.Error("template execution failed")
			}
			if w.Code != http.StatusTeapot {
				t.Errorf("expected status code %d, got %d", http.StatusTeapot, w.Code)
			}
		}(i%2 == 0)
	}
	wg.Wait()
}
