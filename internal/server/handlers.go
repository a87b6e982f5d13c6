package server

import (
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"syntaxia/internal/browse"
	"syntaxia/internal/logging"
)

func (s *Server) cacheControl(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(s.opts.CacheMaxAge))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := s.svc.Index()
	s.cacheControl(w)
	s.renderTemplatePair(w, r, s.templates.index, http.StatusOK, indexTemplateData{
		baseTemplateData: s.base(""),
		Projects:         view.Projects,
	})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte("pong"))
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	s.cacheControl(w)
	_, _ = w.Write([]byte("User-agent: *\nAllow: /\n"))
}

func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	if s.favicon == nil {
		s.renderError(w, r, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/x-icon")
	s.cacheControl(w)
	_, _ = w.Write(s.favicon)
}

// handleView serves the directory, project or file view for the request
// path, or an error page.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	rel, ok := wildcardPath(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound)
		return
	}

	t := s.svc.Classify(rel)
	switch t.Kind {
	case browse.KindDirectory:
		if t.Path.IsRoot() {
			s.handleIndex(w, r)
			return
		}
		if t.Project {
			s.serveProject(w, r, t)
			return
		}
		view, err := s.svc.Directory(t)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.cacheControl(w)
		s.renderTemplatePair(w, r, s.templates.code, http.StatusOK, codeViewTemplateData{
			baseTemplateData: s.base(view.Path),
			Location:         view.Location,
		})
	case browse.KindFile:
		view, err := s.svc.FileView(t)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.cacheControl(w)
		s.renderTemplatePair(w, r, s.templates.code, http.StatusOK, codeViewTemplateData{
			baseTemplateData: s.base(view.Path),
			Location:         view.Location,
			IsFile:           true,
			// Sanitized by the code policy.
			Code:     template.HTML(view.Code),
			Lines:    view.Lines,
			Size:     view.Size,
			Modified: view.Modified,
		})
	default:
		s.fail(w, r, t.Err())
	}
}

func (s *Server) serveProject(w http.ResponseWriter, r *http.Request, t browse.Target) {
	view, err := s.svc.ProjectView(t)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.cacheControl(w)
	s.renderTemplatePair(w, r, s.templates.repo, http.StatusOK, repoViewTemplateData{
		baseTemplateData: s.base(view.Path),
		Location:         view.Location,
		// Sanitized by the document policy.
		About:   template.HTML(view.About),
		Source:  view.Source,
		Summary: view.Summary,
		Tags:    view.Tags,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	rel, ok := wildcardPath(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound)
		return
	}

	d, err := s.svc.Download(s.svc.Classify(rel))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": d.Name})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Body)))
	s.cacheControl(w)
	if _, err := w.Write(d.Body); err != nil {
		s.logger.Debug("download interrupted", "path", logging.SanitizeForLog(rel), "error", err)
	}
}

// wildcardPath returns the decoded workspace path captured by the route.
// chi matches against RawPath when the request carries one.
func wildcardPath(r *http.Request) (string, bool) {
	param := chi.URLParam(r, "*")
	if r.URL.RawPath == "" {
		return param, true
	}
	rel, err := url.PathUnescape(param)
	if err != nil {
		return "", false
	}
	return rel, true
}

// fail maps a browse error to an error page. Unexpected errors are logged
// and reported as 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, browse.ErrNotFound):
		s.renderError(w, r, http.StatusNotFound)
	case errors.Is(err, browse.ErrForbidden):
		s.renderError(w, r, http.StatusForbidden)
	case errors.Is(err, browse.ErrUnprocessable):
		s.renderError(w, r, http.StatusUnprocessableEntity)
	default:
		s.logger.Error("request failed",
			"path", logging.SanitizeForLog(r.URL.Path),
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		s.renderError(w, r, http.StatusInternalServerError)
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int) {
	title, description := errorText(status)
	w.Header().Set("Cache-Control", "no-store")
	s.renderTemplatePair(w, r, s.templates.error, status, errorTemplateData{
		baseTemplateData: s.base(""),
		Status:           status,
		Title:            title,
		Description:      description,
	})
}

var errorDescriptions = map[int]string{
	http.StatusBadRequest:                   "The server cannot process the request due to client error.",
	http.StatusUnauthorized:                 "Authentication is required to access this resource.",
	http.StatusForbidden:                    "You don't have permission to access this resource.",
	http.StatusNotFound:                     "The requested resource could not be found on this server.",
	http.StatusMethodNotAllowed:             "The request method is not supported for this resource.",
	http.StatusNotAcceptable:                "The requested resource cannot generate content according to the Accept headers.",
	http.StatusRequestTimeout:               "The server timed out waiting for the request.",
	http.StatusConflict:                     "The request conflicts with the current state of the server.",
	http.StatusGone:                         "The requested resource is no longer available and has been permanently removed.",
	http.StatusLengthRequired:               "The request did not specify the length of its content.",
	http.StatusPreconditionFailed:           "The server does not meet one of the preconditions in the request.",
	http.StatusRequestEntityTooLarge:        "The request is larger than the server is willing or able to process.",
	http.StatusRequestURITooLong:            "The URI provided was too long for the server to process.",
	http.StatusUnsupportedMediaType:         "The request entity has a media type which the server does not support.",
	http.StatusRequestedRangeNotSatisfiable: "The client has asked for a portion of the file that lies beyond its end.",
	http.StatusExpectationFailed:            "The server cannot meet the requirements of the Expect request-header field.",
	http.StatusTeapot:                       "The server refuses to brew coffee because it is, permanently, a teapot.",
	http.StatusUnprocessableEntity:          "The request was well-formed but was unable to be followed due to semantic errors.",
	http.StatusLocked:                       "The resource that is being accessed is locked.",
	http.StatusFailedDependency:             "The request failed due to failure of a previous request.",
	http.StatusPreconditionRequired:         "The origin server requires the request to be conditional.",
	http.StatusTooManyRequests:              "You have sent too many requests in a given amount of time.",
	http.StatusRequestHeaderFieldsTooLarge:  "The server is unwilling to process the request because its header fields are too large.",
	http.StatusUnavailableForLegalReasons:   "The requested resource is unavailable due to legal reasons.",
	http.StatusInternalServerError:          "The server encountered an unexpected condition that prevented it from fulfilling the request.",
	http.StatusNotImplemented:               "The server does not support the functionality required to fulfill the request.",
	http.StatusBadGateway:                   "The server received an invalid response from the upstream server.",
	http.StatusServiceUnavailable:           "The server is currently unable to handle the request due to temporary overloading or maintenance.",
	http.StatusGatewayTimeout:               "The server did not receive a timely response from the upstream server.",
	http.StatusHTTPVersionNotSupported:      "The server does not support the HTTP protocol version used in the request.",
}

// errorText returns the title and description shown on the error page.
func errorText(status int) (string, string) {
	desc, ok := errorDescriptions[status]
	if !ok {
		return "Unexpected Error", "An unexpected error occurred while processing your request."
	}
	title := http.StatusText(status)
	if status == http.StatusRequestEntityTooLarge {
		title = "Payload Too Large"
	}
	if title == "" {
		title = fmt.Sprintf("Error %d", status)
	}
	return title, desc
}
