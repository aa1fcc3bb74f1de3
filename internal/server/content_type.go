package server

import (
	"path/filepath"
	"strings"
)

// contentTypeFor maps a file name to a Content-Type by its extension.
// Only HTML and CSS are recognised; other files are sent without a
// Content-Type header.
func contentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case strings.Contains(ext, "html"):
		return "text/html"
	case strings.Contains(ext, "css"):
		return "text/css"
	default:
		return ""
	}
}
