package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcocampos/tiny-static/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"info level", "info", slog.LevelInfo},
		{"warn level", "warn", slog.LevelWarn},
		{"error level", "error", slog.LevelError},
		{"mixed case", "DeBuG", slog.LevelDebug},
		{"invalid level defaults to info", "invalid", slog.LevelInfo},
		{"empty level defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, "warn", "text")
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")

	buf.Reset()
	logger = setupLogger(&buf, "info", "json")
	logger.Info("hello", "status", 200)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"status":200`)
}

func TestLoadConfigFlags(t *testing.T) {
	root := t.TempDir()
	var stderr bytes.Buffer

	cfg, err := loadConfig([]string{"cmd",
		"-directory", root,
		"-hostname", "127.0.0.1",
		"-port", "9090",
		"-log-level", "debug",
		"-loose-method",
	}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LooseMethodMatch)
	assert.False(t, cfg.LenientDecoding)
	assert.True(t, cfg.NotFoundContentLength)
}

func TestLoadConfigTuningFlags(t *testing.T) {
	root := t.TempDir()

	cfg, err := loadConfig([]string{"cmd",
		"-directory", root,
		"-not-found-content-length=false",
		"-confine-symlinks",
		"-max-request-bytes", "4096",
		"-read-timeout", "5s",
		"-write-timeout", "250ms",
	}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, cfg.NotFoundContentLength)
	assert.True(t, cfg.ConfineSymlinks)
	assert.Equal(t, 4096, cfg.MaxRequestBytes)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.WriteTimeout)

	// Unset tuning flags keep the defaults.
	cfg, err = loadConfig([]string{"cmd", "-directory", root}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, cfg.NotFoundContentLength)
	assert.False(t, cfg.ConfineSymlinks)
	assert.Equal(t, 1024, cfg.MaxRequestBytes)
	assert.Zero(t, cfg.ReadTimeout)

	_, err = loadConfig([]string{"cmd", "-directory", root, "-max-request-bytes", "0"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestLoadConfigFileWithOverrides(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	path := filepath.Join(t.TempDir(), "server.toml")
	content := "root = \"" + filepath.ToSlash(root) + "\"\nport = 7000\nlog_format = \"json\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := loadConfig([]string{"cmd", "-config", path}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(root), cfg.Root)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)

	cfg, err = loadConfig([]string{"cmd", "-config", path, "-directory", other, "-port", "7001"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, other, cfg.Root)
	assert.Equal(t, 7001, cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("non-existent directory", func(t *testing.T) {
		_, err := loadConfig([]string{"cmd", "-directory", "/non/existent/path"}, &bytes.Buffer{})
		require.ErrorIs(t, err, config.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("bad config file", func(t *testing.T) {
		_, err := loadConfig([]string{"cmd", "-config", "server.ini"}, &bytes.Buffer{})
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("help flag", func(t *testing.T) {
		var stderr bytes.Buffer
		_, err := loadConfig([]string{"cmd", "-h"}, &stderr)
		assert.True(t, errors.Is(err, flag.ErrHelp))
		assert.Contains(t, stderr.String(), "-directory")
	})

	t.Run("unknown flag", func(t *testing.T) {
		_, err := loadConfig([]string{"cmd", "-verbose"}, &bytes.Buffer{})
		assert.Error(t, err)
	})
}

func TestRunStopsWithContext(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout bytes.Buffer
	err := run(ctx, []string{"cmd", "-directory", root, "-hostname", "127.0.0.1", "-port", "0"}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, strings.Contains(stdout.String(), "tiny-static"), "banner missing from %q", stdout.String())
	assert.Contains(t, stdout.String(), root)
}
