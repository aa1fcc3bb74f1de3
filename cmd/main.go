package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/marcocampos/tiny-static/internal/config"
	"github.com/marcocampos/tiny-static/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(args, stderr)
	if err != nil {
		return err
	}

	logger := setupLogger(stdout, cfg.LogLevel, cfg.LogFormat)
	printBanner(stdout, cfg)

	srv := server.NewHTTPServer(cfg.Addr(), cfg.Root, logger,
		server.WithMaxRequestBytes(cfg.MaxRequestBytes),
		server.WithTimeouts(cfg.ReadTimeout, cfg.WriteTimeout),
		server.WithLooseMethodMatch(cfg.LooseMethodMatch),
		server.WithLenientDecoding(cfg.LenientDecoding),
		server.WithNotFoundContentLength(cfg.NotFoundContentLength),
		server.WithConfineSymlinks(cfg.ConfineSymlinks),
	)
	return srv.ListenAndServe(ctx)
}

// loadConfig layers explicitly set flags over the config file, which is
// itself layered over config.Default.
func loadConfig(args []string, stderr io.Writer) (config.Config, error) {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath      = fs.String("config", "", "Path to a .toml or .yaml config file")
		directory       = fs.String("directory", "", "Directory to serve files from")
		hostname        = fs.String("hostname", "", "Hostname or IP address to bind to")
		port            = fs.Int("port", 0, "Port to listen on")
		logLevel        = fs.String("log-level", "", "Log level (debug, info, warn, error)")
		logFormat       = fs.String("log-format", "", "Log format (text, json)")
		looseMethod     = fs.Bool("loose-method", false, "Accept any method token containing GET")
		lenientDecoding = fs.Bool("lenient-decoding", false, "Serve requests that are not valid UTF-8 instead of answering 400")
		notFoundLength  = fs.Bool("not-found-content-length", true, "Send Content-Length on 404 responses")
		confineSymlinks = fs.Bool("confine-symlinks", false, "Answer 404 for files whose symlinks lead outside the directory")
		maxRequestBytes = fs.Int("max-request-bytes", 0, "Size of the single buffer read from each connection")
		readTimeout     = fs.Duration("read-timeout", 0, "Read deadline per connection (0 disables)")
		writeTimeout    = fs.Duration("write-timeout", 0, "Write deadline per connection (0 disables)")
	)
	if err := fs.Parse(args[1:]); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "directory":
			cfg.Root = *directory
		case "hostname":
			cfg.Host = *hostname
		case "port":
			cfg.Port = *port
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "loose-method":
			cfg.LooseMethodMatch = *looseMethod
		case "lenient-decoding":
			cfg.LenientDecoding = *lenientDecoding
		case "not-found-content-length":
			cfg.NotFoundContentLength = *notFoundLength
		case "confine-symlinks":
			cfg.ConfineSymlinks = *confineSymlinks
		case "max-request-bytes":
			cfg.MaxRequestBytes = *maxRequestBytes
		case "read-timeout":
			cfg.ReadTimeout = *readTimeout
		case "write-timeout":
			cfg.WriteTimeout = *writeTimeout
		}
	})

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func setupLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printBanner(w io.Writer, cfg config.Config) {
	color.New(color.FgCyan, color.Bold).Fprintln(w, "tiny-static: a static file server")
	fmt.Fprintf(w, "serving %s on http://%s\n", color.GreenString(cfg.Root), cfg.Addr())
}
