package server

import (
	"fmt"
	"log/slog"
	"strings"
)

type HandlerFunc func(request *Request) (*Response, error)

type Handler interface {
	Handle() HandlerFunc
}

// FileHandler answers GET requests from the files under FileDirectory.
type FileHandler struct {
	FileDirectory string
	Storage       Storage
	Logger        *slog.Logger

	// LooseMethodMatch accepts any method token containing "GET", not only
	// "GET" itself.
	LooseMethodMatch bool
	// NotFoundContentLength adds Content-Length to 404 responses.
	NotFoundContentLength bool
	// ConfineSymlinks answers 404 for files whose symlinks lead outside
	// FileDirectory. Without it containment is checked on the path text
	// only.
	ConfineSymlinks bool
}

func NewFileHandler(directory string, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		FileDirectory:         directory,
		Storage:               OSStorage{},
		Logger:                logger,
		NotFoundContentLength: true,
	}
}

func (h *FileHandler) Handle() HandlerFunc {
	return h.Respond
}

// Respond builds the complete response for request. The returned error is
// set only when the content root or a file could not be read; the caller
// turns it into a 500.
func (h *FileHandler) Respond(request *Request) (*Response, error) {
	if !h.methodAllowed(request.Method) {
		return HTTP405MethodNotAllowed(), nil
	}

	resolved, err := ResolvePath(request.Target, h.FileDirectory, h.storage())
	if err != nil {
		return nil, err
	}
	h.logger().Debug("resolved target",
		"target", request.Target,
		"kind", resolved.Kind.String(),
		"path", resolved.Path,
		"location", resolved.Location,
	)

	switch resolved.Kind {
	case Redirect:
		return HTTP301MovedPermanently(resolved.Location), nil
	case Forbidden:
		h.logger().Warn("target escapes content root", "target", request.Target, "remote", request.RemoteAddr)
		return HTTP404NotFound(h.NotFoundContentLength), nil
	}

	if h.ConfineSymlinks && !confined(resolved.Path, h.FileDirectory) {
		h.logger().Warn("symlink escapes content root", "target", request.Target, "remote", request.RemoteAddr)
		return HTTP404NotFound(h.NotFoundContentLength), nil
	}

	return h.serveFile(resolved.Path)
}

func (h *FileHandler) serveFile(path string) (*Response, error) {
	storage := h.storage()
	if !storage.Exists(path) {
		return HTTP404NotFound(h.NotFoundContentLength), nil
	}
	if !storage.IsRegular(path) {
		h.logger().Debug("not a regular file", "path", path)
		return HTTP404NotFound(h.NotFoundContentLength), nil
	}

	size, err := storage.Size(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	data, err := storage.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return HTTP200OK(data, contentTypeFor(path), size), nil
}

func (h *FileHandler) methodAllowed(method string) bool {
	if h.LooseMethodMatch {
		return strings.Contains(method, "GET")
	}
	return method == "GET"
}

func (h *FileHandler) storage() Storage {
	if h.Storage == nil {
		return OSStorage{}
	}
	return h.Storage
}

func (h *FileHandler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}
