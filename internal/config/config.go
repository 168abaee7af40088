// Package config provides configuration management for the ArangoDB MCP
// server. It loads settings from environment variables with the ARANGO_
// prefix and provides sensible defaults for all configuration options.
//
// An optional YAML file (pointed at by ARANGO_MCP_CONFIG) supplies values
// for settings that have no environment variable set; environment variables
// always win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the ArangoDB MCP server.
type Config struct {
	Arango    ArangoConfig
	Server    ServerConfig
	Tools     ToolsConfig
	Reconnect ReconnectConfig
	Audit     AuditConfig
	Backup    BackupConfig
}

// ArangoConfig contains connection settings for the target database.
type ArangoConfig struct {
	URL            string        // ArangoDB endpoint (default: http://localhost:8529)
	Database       string        // Database name (default: _system)
	Username       string        // Basic auth username (default: root)
	Password       string        // Basic auth password
	ConnectRetries int           // Startup connection attempts (default: 5)
	ConnectDelay   time.Duration // Fixed delay between startup attempts (default: 2s)
}

// ServerConfig contains transport configuration.
type ServerConfig struct {
	Transport string // Transport: stdio, http (default: stdio)
	HTTPAddr  string // HTTP listen address when Transport is http (default: 127.0.0.1:6364)
}

// ToolsConfig controls which tools are exposed.
type ToolsConfig struct {
	// Allowed restricts discovery and dispatch to the listed tool names.
	// Empty means every registered tool is exposed.
	// Env var: ARANGO_MCP_TOOLS (comma-separated)
	Allowed []string
}

// ReconnectConfig tunes on-demand reconnection after a lost connection.
type ReconnectConfig struct {
	Interval        time.Duration // Minimum spacing between downstream attempts (default: 2s)
	BreakerFailures uint32        // Consecutive failures before the breaker opens (default: 3)
	BreakerCooldown time.Duration // Open-state duration before a new probe (default: 30s)
}

// AuditConfig controls the local tool-call audit trail.
type AuditConfig struct {
	Enabled bool   // Record dispatched tool calls to SQLite (default: false)
	Path    string // Audit database file (default: ./arango-mcp-audit.db)
}

// BackupConfig contains defaults for the backup tool and CLI.
type BackupConfig struct {
	OutputDir string // Base directory for backups (default: ./backups)
	DocLimit  int    // Per-collection document cap, 0 = unlimited (default: 0)
}

// fileConfig mirrors Config for the YAML overlay. Pointer fields distinguish
// "absent from file" from zero values.
type fileConfig struct {
	Arango struct {
		URL            *string `yaml:"url"`
		Database       *string `yaml:"database"`
		Username       *string `yaml:"username"`
		Password       *string `yaml:"password"`
		ConnectRetries *int    `yaml:"connect_retries"`
		ConnectDelay   *string `yaml:"connect_delay"`
	} `yaml:"arango"`
	Server struct {
		Transport *string `yaml:"transport"`
		HTTPAddr  *string `yaml:"http_addr"`
	} `yaml:"server"`
	Tools struct {
		Allowed []string `yaml:"allowed"`
	} `yaml:"tools"`
	Audit struct {
		Enabled *bool   `yaml:"enabled"`
		Path    *string `yaml:"path"`
	} `yaml:"audit"`
	Backup struct {
		OutputDir *string `yaml:"output_dir"`
		DocLimit  *int    `yaml:"doc_limit"`
	} `yaml:"backup"`
}

// LoadConfig loads configuration from environment variables, applying the
// optional YAML overlay file named by ARANGO_MCP_CONFIG underneath them.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("ARANGO_MCP_CONFIG"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.Arango.ConnectRetries < 1 {
		cfg.Arango.ConnectRetries = 1
	}
	switch cfg.Server.Transport {
	case "stdio", "http":
	default:
		return nil, fmt.Errorf("config: unknown transport %q", cfg.Server.Transport)
	}
	return cfg, nil
}

// defaultConfig constructs a Config carrying only defaults.
func defaultConfig() *Config {
	return &Config{
		Arango: ArangoConfig{
			URL:            "http://localhost:8529",
			Database:       "_system",
			Username:       "root",
			ConnectRetries: 5,
			ConnectDelay:   2 * time.Second,
		},
		Server: ServerConfig{
			Transport: "stdio",
			HTTPAddr:  "127.0.0.1:6364",
		},
		Reconnect: ReconnectConfig{
			Interval:        2 * time.Second,
			BreakerFailures: 3,
			BreakerCooldown: 30 * time.Second,
		},
		Audit: AuditConfig{
			Path: "./arango-mcp-audit.db",
		},
		Backup: BackupConfig{
			OutputDir: "./backups",
		},
	}
}

// applyFile overlays values from a YAML file onto cfg.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.Arango.URL, fc.Arango.URL)
	setString(&cfg.Arango.Database, fc.Arango.Database)
	setString(&cfg.Arango.Username, fc.Arango.Username)
	setString(&cfg.Arango.Password, fc.Arango.Password)
	setInt(&cfg.Arango.ConnectRetries, fc.Arango.ConnectRetries)
	if fc.Arango.ConnectDelay != nil {
		d, err := time.ParseDuration(*fc.Arango.ConnectDelay)
		if err != nil {
			return fmt.Errorf("parse arango.connect_delay: %w", err)
		}
		cfg.Arango.ConnectDelay = d
	}
	setString(&cfg.Server.Transport, fc.Server.Transport)
	setString(&cfg.Server.HTTPAddr, fc.Server.HTTPAddr)
	if len(fc.Tools.Allowed) > 0 {
		cfg.Tools.Allowed = fc.Tools.Allowed
	}
	setBool(&cfg.Audit.Enabled, fc.Audit.Enabled)
	setString(&cfg.Audit.Path, fc.Audit.Path)
	setString(&cfg.Backup.OutputDir, fc.Backup.OutputDir)
	setInt(&cfg.Backup.DocLimit, fc.Backup.DocLimit)
	return nil
}

// applyEnv overlays environment variables onto cfg. Environment variables
// take precedence over both defaults and the YAML file.
func applyEnv(cfg *Config) {
	cfg.Arango.URL = getEnv("ARANGO_URL", cfg.Arango.URL)
	cfg.Arango.Database = getEnv("ARANGO_DB", cfg.Arango.Database)
	cfg.Arango.Username = getEnv("ARANGO_USERNAME", cfg.Arango.Username)
	cfg.Arango.Password = getEnv("ARANGO_PASSWORD", cfg.Arango.Password)
	cfg.Arango.ConnectRetries = getEnvInt("ARANGO_CONNECT_RETRIES", cfg.Arango.ConnectRetries)
	cfg.Arango.ConnectDelay = getEnvDuration("ARANGO_CONNECT_DELAY", cfg.Arango.ConnectDelay)

	cfg.Server.Transport = getEnv("ARANGO_MCP_TRANSPORT", cfg.Server.Transport)
	cfg.Server.HTTPAddr = getEnv("ARANGO_MCP_HTTP_ADDR", cfg.Server.HTTPAddr)

	if v := os.Getenv("ARANGO_MCP_TOOLS"); v != "" {
		cfg.Tools.Allowed = splitList(v)
	}

	cfg.Reconnect.Interval = getEnvDuration("ARANGO_RECONNECT_INTERVAL", cfg.Reconnect.Interval)
	if n := getEnvInt("ARANGO_RECONNECT_BREAKER_FAILURES", int(cfg.Reconnect.BreakerFailures)); n > 0 {
		cfg.Reconnect.BreakerFailures = uint32(n)
	}
	cfg.Reconnect.BreakerCooldown = getEnvDuration("ARANGO_RECONNECT_BREAKER_COOLDOWN", cfg.Reconnect.BreakerCooldown)

	cfg.Audit.Enabled = getEnvBool("ARANGO_MCP_AUDIT", cfg.Audit.Enabled)
	cfg.Audit.Path = getEnv("ARANGO_MCP_AUDIT_DB", cfg.Audit.Path)

	cfg.Backup.OutputDir = getEnv("ARANGO_BACKUP_DIR", cfg.Backup.OutputDir)
	cfg.Backup.DocLimit = getEnvInt("ARANGO_BACKUP_DOC_LIMIT", cfg.Backup.DocLimit)
}

// RedactedURL returns the endpoint for logging. Credentials are carried
// separately from the URL, so only the password needs masking elsewhere;
// the URL is returned as-is unless it embeds userinfo.
func (a ArangoConfig) RedactedURL() string {
	if i := strings.Index(a.URL, "@"); i >= 0 {
		if j := strings.Index(a.URL, "://"); j >= 0 && j < i {
			return a.URL[:j+3] + "***" + a.URL[i:]
		}
	}
	return a.URL
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// splitList parses a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (Go duration
// syntax, e.g. "2s") or returns a default value. A bare number is read as
// seconds for compatibility with the ARANGO_CONNECT_DELAY_SEC convention.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(f * float64(time.Second))
	}
	return defaultValue
}
