// Package config holds the runtime settings of the static server and loads
// them from TOML or YAML files.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every error Validate and Load report for
// bad values.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// Root is the content directory every request target is resolved in.
	Root string `toml:"root" yaml:"root"`
	Host string `toml:"host" yaml:"host"`
	Port int    `toml:"port" yaml:"port"`

	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format"`

	MaxRequestBytes int           `toml:"max_request_bytes" yaml:"max_request_bytes"`
	ReadTimeout     time.Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout" yaml:"write_timeout"`

	LooseMethodMatch      bool `toml:"loose_method_match" yaml:"loose_method_match"`
	LenientDecoding       bool `toml:"lenient_decoding" yaml:"lenient_decoding"`
	NotFoundContentLength bool `toml:"not_found_content_length" yaml:"not_found_content_length"`
	ConfineSymlinks       bool `toml:"confine_symlinks" yaml:"confine_symlinks"`
}

func Default() Config {
	return Config{
		Root:                  "www",
		Host:                  "localhost",
		Port:                  8080,
		LogLevel:              "info",
		LogFormat:             "text",
		MaxRequestBytes:       1024,
		NotFoundContentLength: true,
	}
}

// Load reads path on top of Default. The format is chosen by extension:
// .toml, .yaml or .yml. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("%w: unknown keys in %s: %v", ErrInvalidConfig, path, undecoded)
		}
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, ext)
	}

	return cfg, nil
}

// Addr is the host:port the server binds to.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("%w: root is required", ErrInvalidConfig)
	}
	info, err := os.Stat(c.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: root %s does not exist", ErrInvalidConfig, c.Root)
		}
		return fmt.Errorf("%w: root %s: %v", ErrInvalidConfig, c.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: root %s is not a directory", ErrInvalidConfig, c.Root)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.MaxRequestBytes <= 0 {
		return fmt.Errorf("%w: max_request_bytes must be positive", ErrInvalidConfig)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	return nil
}
