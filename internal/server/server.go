package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

// DefaultMaxRequestBytes bounds the single read taken from each connection.
const DefaultMaxRequestBytes = 1024

type Server interface {
	ListenAndServe(ctx context.Context) error
}

var _ Server = (*HTTPServer)(nil)

type HTTPServer struct {
	Addr          string
	FileDirectory string
	Handler       *FileHandler
	Middlewares   []Middleware
	Logger        *slog.Logger

	// MaxRequestBytes is the size of the one buffer read per connection.
	// Anything past it, including the rest of the headers, is never read.
	MaxRequestBytes int
	// ReadTimeout and WriteTimeout bound each connection's I/O. Zero means
	// no deadline, in which case a client that never sends blocks its own
	// connection goroutine indefinitely.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// LenientDecoding serves requests whose bytes are not valid UTF-8 using
	// the salvaged request line instead of answering 400.
	LenientDecoding bool

	mu       sync.Mutex
	listener net.Listener
	conns    sync.WaitGroup
}

type Option func(*HTTPServer)

func WithMaxRequestBytes(n int) Option {
	return func(s *HTTPServer) {
		if n > 0 {
			s.MaxRequestBytes = n
		}
	}
}

func WithTimeouts(read, write time.Duration) Option {
	return func(s *HTTPServer) {
		s.ReadTimeout = read
		s.WriteTimeout = write
	}
}

func WithLenientDecoding(lenient bool) Option {
	return func(s *HTTPServer) { s.LenientDecoding = lenient }
}

func WithLooseMethodMatch(loose bool) Option {
	return func(s *HTTPServer) { s.Handler.LooseMethodMatch = loose }
}

func WithNotFoundContentLength(enabled bool) Option {
	return func(s *HTTPServer) { s.Handler.NotFoundContentLength = enabled }
}

func WithConfineSymlinks(confine bool) Option {
	return func(s *HTTPServer) { s.Handler.ConfineSymlinks = confine }
}

func WithStorage(storage Storage) Option {
	return func(s *HTTPServer) { s.Handler.Storage = storage }
}

func NewHTTPServer(addr string, fileDirectory string, logger *slog.Logger, opts ...Option) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &HTTPServer{
		Addr:            addr,
		FileDirectory:   fileDirectory,
		Handler:         NewFileHandler(fileDirectory, logger),
		Logger:          logger,
		MaxRequestBytes: DefaultMaxRequestBytes,
		Middlewares: []Middleware{
			LoggingMiddleware(logger),
			RecoverMiddleware(logger),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe accepts connections until ctx is cancelled, then waits for
// the connections already accepted to finish.
func (s *HTTPServer) ListenAndServe(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.Addr)
	if err != nil {
		s.Logger.Error("failed to listen", "addr", s.Addr, "error", err)
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}

	s.mu.Lock()
	s.listener = listen
	s.mu.Unlock()

	s.Logger.Info("listening", "addr", listen.Addr().String(), "directory", s.FileDirectory)

	stop := context.AfterFunc(ctx, func() {
		listen.Close()
	})
	defer stop()

	for {
		conn, err := listen.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.Logger.Info("shutting down", "addr", s.Addr)
				s.conns.Wait()
				return nil
			}
			s.Logger.Error("failed to accept connection", "error", err)
			continue
		}
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// ListenAddr reports the bound address once ListenAndServe is listening.
func (s *HTTPServer) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *HTTPServer) handleConnection(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	s.Logger.Debug("accepted connection", "remote", remote)

	if s.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(s.ReadTimeout))
	}
	buf := make([]byte, s.MaxRequestBytes)
	n, err := conn.Read(buf)
	if n == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			s.Logger.Warn("failed to read request", "remote", remote, "error", err)
		}
		return
	}

	response := s.serve(buf[:n], remote)

	if s.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
	}
	if err := writeResponse(bufio.NewWriter(conn), response); err != nil {
		s.Logger.Error("failed to write response", "remote", remote, "error", err)
		return
	}
	s.Logger.Debug("sent response", "remote", remote, "status", response.StatusCode, "text", response.StatusText)
}

func (s *HTTPServer) serve(raw []byte, remote string) *Response {
	request, err := ParseRequest(raw)
	request.RemoteAddr = remote
	if err != nil {
		if !s.LenientDecoding {
			s.Logger.Warn("failed to parse request", "remote", remote, "error", err)
			return HTTP400BadRequest()
		}
		s.Logger.Warn("serving undecodable request", "remote", remote, "error", err)
	}

	response, err := s.pipeline()(&request)
	if err != nil || response == nil {
		s.Logger.Error("failed to handle request", "target", request.Target, "error", err)
		return HTTP500InternalServerError()
	}
	return response
}

func (s *HTTPServer) pipeline() HandlerFunc {
	return Chain(s.Handler.Handle(), s.Middlewares...)
}

func writeResponse(w *bufio.Writer, response *Response) error {
	if _, err := fmt.Fprintf(w, "%s %d %s\r\n", response.Protocol, response.StatusCode, response.StatusText); err != nil {
		return fmt.Errorf("failed to write status line: %w", err)
	}
	for _, header := range response.Headers {
		if _, err := fmt.Fprintf(w, "%s: %s\r\n", header.Key, header.Value); err != nil {
			return fmt.Errorf("failed to write header %s: %w", header.Key, err)
		}
	}
	if _, err := w.WriteString(crlf); err != nil {
		return fmt.Errorf("failed to write header terminator: %w", err)
	}
	if _, err := w.Write(response.Body); err != nil {
		return fmt.Errorf("failed to write body: %w", err)
	}
	return w.Flush()
}

// MarshalResponse renders response exactly as it is sent on the wire.
func MarshalResponse(response *Response) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = writeResponse(bufio.NewWriter(&buf), response)
	return buf.Bytes()
}
