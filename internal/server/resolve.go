package server

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const indexDocument = "index.html"

type ResolutionKind int

const (
	// Resolved names a canonical path inside the content root. The file
	// may or may not exist.
	Resolved ResolutionKind = iota
	// Redirect names a directory requested without its trailing slash.
	Redirect
	// Forbidden names a target that escapes the content root.
	Forbidden
)

func (k ResolutionKind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case Redirect:
		return "redirect"
	case Forbidden:
		return "forbidden"
	default:
		return fmt.Sprintf("ResolutionKind(%d)", int(k))
	}
}

// ResolvedPath is the outcome of mapping a request target onto the content
// root. Location is set only for Redirect and Path only for Resolved.
type ResolvedPath struct {
	Kind     ResolutionKind
	Location string
	Path     string
}

// ResolvePath maps target onto root. Query strings and fragments are
// ignored and the path is percent-decoded before it touches the
// filesystem. Containment is checked before any directory probing so a
// target outside root is Forbidden whether or not it exists.
func ResolvePath(target, root string, storage Storage) (ResolvedPath, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return ResolvedPath{}, fmt.Errorf("resolve content root %q: %w", root, err)
	}

	target, _, _ = strings.Cut(target, "#")
	rawPath, rawQuery, _ := strings.Cut(target, "?")
	urlPath, err := url.PathUnescape(rawPath)
	if err != nil {
		return ResolvedPath{Kind: Forbidden}, nil
	}
	decoded := urlPath
	urlPath = collapseRootName(urlPath, absRoot)

	candidate, err := filepath.Abs(root + filepath.FromSlash(urlPath))
	if err != nil {
		return ResolvedPath{}, fmt.Errorf("resolve %q: %w", target, err)
	}
	if !within(candidate, absRoot) {
		return ResolvedPath{Kind: Forbidden}, nil
	}

	if storage.IsDir(candidate) {
		// An escaped slash ("/docs%2F") still needs the redirect, so the
		// check is on the path as received.
		if !strings.HasSuffix(rawPath, "/") {
			location := redirectLocation(decoded)
			if rawQuery != "" {
				location += "?" + rawQuery
			}
			return ResolvedPath{Kind: Redirect, Location: location}, nil
		}
		candidate = filepath.Join(candidate, indexDocument)
	}

	return ResolvedPath{Kind: Resolved, Path: candidate}, nil
}

// redirectLocation re-escapes the decoded target path and ensures it ends
// with a slash.
func redirectLocation(decoded string) string {
	if !strings.HasSuffix(decoded, "/") {
		decoded += "/"
	}
	return (&url.URL{Path: decoded}).EscapedPath()
}

// collapseRootName drops a leading segment equal to the content root's own
// directory name, so "/www/a.html" under root "www" maps to "www/a.html"
// rather than "www/www/a.html".
func collapseRootName(urlPath, absRoot string) string {
	name := filepath.Base(absRoot)
	if name == string(filepath.Separator) || name == "." {
		return urlPath
	}
	rest, ok := strings.CutPrefix(urlPath, "/"+name)
	if !ok || (rest != "" && rest[0] != '/') {
		return urlPath
	}
	return rest
}

func within(path, absRoot string) bool {
	if path == absRoot {
		return true
	}
	prefix := absRoot
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// confined reports whether path still lies inside root once every symlink
// along it is evaluated. A path that does not exist is left to the caller's
// existence check.
func confined(path, root string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return false
	}
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return true
	}
	return within(realPath, realRoot)
}
