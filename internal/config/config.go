// Package config handles TOML configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	toml "github.com/pelletier/go-toml/v2"

	"privacy-center-proxy/internal/backend"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/privacy-center-proxy/config.toml",
	"configs/config.toml",
}

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config         string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host           string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port           int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	UpstreamScheme string `kong:"help='Upstream scheme: http|https (overrides config).',env='UPSTREAM_SCHEME'"`
	LogLevel       string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig             `toml:"server"`
	Upstream UpstreamConfig           `toml:"upstream"`
	Backends map[string]BackendConfig `toml:"backends"`
	Log      LogConfig                `toml:"log"`
	Metrics  MetricsConfig            `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"` // 0 means "use default" (8000); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64  `toml:"body_max_bytes"`
}

// UpstreamConfig holds settings shared by all backend connections.
type UpstreamConfig struct {
	Scheme          string `toml:"scheme"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	IdleConnections int    `toml:"idle_connections"`
}

// BackendConfig overrides how a backend is reached. The Host header sent
// upstream always comes from the static backend table.
type BackendConfig struct {
	// Address is the host:port dialed for this backend. Empty means the
	// backend hostname on the scheme's default port.
	Address string `toml:"address"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/privacy-center-proxy/config.toml then configs/config.toml, and falls
// back to built-in defaults if neither exists.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.UpstreamScheme != "" {
		c.Upstream.Scheme = cli.UpstreamScheme
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
}

func (c *Config) validate() error {
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&c.Server.BodyMaxBytes, validation.Min(int64(0))),
	); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if err := validation.ValidateStruct(&c.Upstream,
		validation.Field(&c.Upstream.Scheme, validation.In("http", "https").Error("must be http or https")),
		validation.Field(&c.Upstream.TimeoutSeconds, validation.Min(0)),
		validation.Field(&c.Upstream.IdleConnections, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("upstream: %w", err)
	}

	for name, b := range c.Backends {
		if !backend.Known(backend.ID(name)) {
			return fmt.Errorf("backends.%s: unknown backend; known backends are %v", name, backend.IDs())
		}
		if err := validation.ValidateStruct(&b,
			validation.Field(&b.Address, is.DialString),
		); err != nil {
			return fmt.Errorf("backends.%s: %w", name, err)
		}
	}

	if err := validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Level, validation.By(oneOfFold("debug", "info", "warn", "error"))),
		validation.Field(&c.Log.Format, validation.By(oneOfFold("json", "text"))),
	); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range []string{"/api/", "/sdk/", "/healthz", "/proxy/status"} {
			if strings.HasPrefix(p, reserved) || p == strings.TrimSuffix(reserved, "/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// oneOfFold accepts an empty string or any of values, case-insensitively.
func oneOfFold(values ...string) validation.RuleFunc {
	return func(v any) error {
		s, _ := v.(string)
		if s == "" {
			return nil
		}
		for _, want := range values {
			if strings.EqualFold(s, want) {
				return nil
			}
		}
		return errors.New("must be one of: " + strings.Join(values, ", "))
	}
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields (Port, BodyMaxBytes, etc.), zero means "unset" because TOML
// cannot distinguish between an explicit 0 and an omitted key.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 10 * 1024 * 1024 // 10 MB
	}
	if c.Upstream.Scheme == "" {
		c.Upstream.Scheme = "https"
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 30
	}
	if c.Upstream.IdleConnections == 0 {
		c.Upstream.IdleConnections = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// BackendAddress returns the dial address for id: the configured override,
// or the backend hostname.
func (c *Config) BackendAddress(id backend.ID) (string, bool) {
	if b, ok := c.Backends[string(id)]; ok && b.Address != "" {
		return b.Address, true
	}
	return backend.Host(id)
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is writable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o022 != 0 {
		logger.Warn("config file is writable by group/others; consider chmod 644",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
