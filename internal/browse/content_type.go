package browse

import (
	"path"
	"strings"
)

// downloadTypes maps extensions to download content types. Markup and
// source files go out as text/plain so a browser never renders them.
var downloadTypes = map[string]string{
	"txt":  "text/plain",
	"html": "text/plain",
	"htm":  "text/plain",
	"css":  "text/css",
	"js":   "text/javascript",
	"json": "application/json",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"pdf":  "application/pdf",
	"zip":  "application/zip",
	"md":   "text/markdown",
	"rs":   "text/plain",
	"py":   "text/plain",
	"go":   "text/plain",
	"java": "text/plain",
	"c":    "text/plain",
	"cpp":  "text/plain",
	"h":    "text/plain",
	"hpp":  "text/plain",
}

// ContentTypeFor returns the download content type for a file name.
func ContentTypeFor(name string) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ct, ok := downloadTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
