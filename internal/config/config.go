package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration for the flowguard server.
// Precedence: environment variables > config file > defaults.
type Config struct {
	Store     StoreConfig     `toml:"store"`
	Server    ServerConfig    `toml:"server"`
	Transport TransportConfig `toml:"transport"`
	Log       LogConfig       `toml:"log"`
	Audit     AuditConfig     `toml:"audit"`
}

// StoreConfig holds connection details for the backing workflow-definition
// service and its relational mirror.
type StoreConfig struct {
	URL         string `toml:"url"`
	Token       string `toml:"token"`        // Project-scoped token or standalone API key.
	AdminToken  string `toml:"admin_token"`  // Admin token for server-side operations (audit) in HTTP mode.
	DatabaseURL string `toml:"database_url"` // Postgres DSN for the read-only relational mirror used by the auditor.
}

// ServerConfig holds MCP server metadata.
type ServerConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// TransportConfig holds transport-related settings.
type TransportConfig struct {
	// Mode selects the transport: "stdio" (default) or "http".
	Mode string `toml:"mode"`
	// Port is the HTTP listen port (default: 8420). Only used when Mode is "http".
	Port string `toml:"port"`
	// Host is the HTTP listen address (default: "0.0.0.0"). Only used when Mode is "http".
	Host string `toml:"host"`
	// CORSOrigins is a comma-separated list of allowed CORS origins (default: "*").
	CORSOrigins string `toml:"cors_origins"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// AuditConfig holds scheduled re-audit configuration.
type AuditConfig struct {
	Enabled       bool `toml:"enabled"`        // Enable scheduled audit runs.
	IntervalHours int  `toml:"interval_hours"` // How often to run (in hours).
}

// Load creates a Config by reading from a TOML config file and environment
// variables. Precedence: environment variables > config file > defaults.
//
// Config file search order (first found wins):
//  1. Path passed via configPath parameter (from --config flag)
//  2. FLOWGUARD_CONFIG environment variable
//  3. ./flowguard.toml (current directory)
//  4. ~/.config/flowguard/flowguard.toml (XDG-style)
//
// All fields are optional in the config file. Environment variables always
// override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Store: StoreConfig{
			URL: "http://localhost:3002",
		},
		Server: ServerConfig{
			Name:    "flowguard",
			Version: "0.1.0",
		},
		Transport: TransportConfig{
			Mode:        "stdio",
			Port:        "8420",
			Host:        "0.0.0.0",
			CORSOrigins: "*",
		},
		Log: LogConfig{
			Level: "info",
		},
		Audit: AuditConfig{
			Enabled:       false,
			IntervalHours: 1,
		},
	}

	if err := cfg.loadFile(configPath); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile finds and parses the TOML config file. If no file is found,
// this is a no-op (config file is optional).
func (c *Config) loadFile(configPath string) error {
	path := resolveConfigPath(configPath)
	if path == "" {
		return nil
	}

	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	return nil
}

// resolveConfigPath determines which config file to use. Returns empty string
// if no config file is found (config file is optional).
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}

	if p := os.Getenv("FLOWGUARD_CONFIG"); p != "" {
		return p
	}

	if _, err := os.Stat("flowguard.toml"); err == nil {
		return "flowguard.toml"
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := home + "/.config/flowguard/flowguard.toml"
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnv overlays environment variables on top of existing config values.
// An env var only takes effect if it is non-empty. FLOWGUARD_AUDIT_ENABLED
// enables the audit for "true" or "1" and disables it for any other value;
// FLOWGUARD_AUDIT_INTERVAL_HOURS is applied only if it is a positive integer.
func (c *Config) applyEnv() {
	stringOverrides := map[string]*string{
		"FLOWGUARD_STORE_URL":         &c.Store.URL,
		"FLOWGUARD_STORE_TOKEN":       &c.Store.Token,
		"FLOWGUARD_STORE_ADMIN_TOKEN": &c.Store.AdminToken,
		"FLOWGUARD_DATABASE_URL":      &c.Store.DatabaseURL,
		"FLOWGUARD_TRANSPORT":         &c.Transport.Mode,
		"FLOWGUARD_PORT":              &c.Transport.Port,
		"FLOWGUARD_HOST":              &c.Transport.Host,
		"FLOWGUARD_CORS_ORIGINS":      &c.Transport.CORSOrigins,
		"FLOWGUARD_LOG_LEVEL":         &c.Log.Level,
	}
	for key, dst := range stringOverrides {
		envOverride(key, dst)
	}

	if v := os.Getenv("FLOWGUARD_AUDIT_ENABLED"); v != "" {
		c.Audit.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("FLOWGUARD_AUDIT_INTERVAL_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			c.Audit.IntervalHours = hours
		}
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio":
		// Stdio mode requires a token because there's no HTTP auth layer.
		if c.Store.Token == "" {
			return fmt.Errorf("store token is required for stdio mode: set store.token in config file, or FLOWGUARD_STORE_TOKEN env var")
		}
	case "http":
		// HTTP mode gets the token from each request's Authorization header.
		// AdminToken is optional but required for the scheduled auditor.
		if c.Store.AdminToken == "" && c.Audit.Enabled {
			return fmt.Errorf("store admin_token is required when audit is enabled in HTTP mode: set store.admin_token in config file, or FLOWGUARD_STORE_ADMIN_TOKEN env var")
		}
	default:
		return fmt.Errorf("invalid transport mode: %q (must be \"stdio\" or \"http\")", c.Transport.Mode)
	}

	if c.Audit.Enabled && c.Store.DatabaseURL == "" {
		return fmt.Errorf("store database_url is required when audit is enabled: set store.database_url in config file, or FLOWGUARD_DATABASE_URL env var")
	}

	return nil
}

// envOverride sets *dst to the value of the named env var, if it is non-empty.
func envOverride(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
