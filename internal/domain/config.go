package domain

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"text/template"
	"time"
)

//go:embed config_template.toml
var configTemplateContent string

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings  []string        `toml:"-"`
	Store     StoreConfig     `toml:"store"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
	Reconcile ReconcileConfig `toml:"reconcile"`
}

// StoreConfig selects and configures the remote store from the [store] section.
type StoreConfig struct {
	Backend    string `toml:"backend,omitempty"`     // json (default), git, redis, sqlite, http
	Path       string `toml:"path,omitempty"`        // JSON file path (json backend)
	Namespace  string `toml:"namespace,omitempty"`   // Ref namespace (git backend)
	RedisURL   string `toml:"redis_url,omitempty"`   // redis://host:port/db (redis backend)
	RedisKey   string `toml:"redis_key,omitempty"`   // Key holding the board (redis backend)
	SQLitePath string `toml:"sqlite_path,omitempty"` // Database file (sqlite backend)
	RemoteURL  string `toml:"remote_url,omitempty"`  // Base URL such as http://localhost:8000/api (http backend)
	Timeout    string `toml:"timeout,omitempty"`     // Per-request timeout (http backend)
}

// RequestTimeout parses Timeout, falling back to DefaultRequestTimeout.
func (s StoreConfig) RequestTimeout() time.Duration {
	if s.Timeout == "" {
		return DefaultRequestTimeout
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d <= 0 {
		return DefaultRequestTimeout
	}
	return d
}

// ServerConfig holds HTTP server settings from the [server] section.
type ServerConfig struct {
	Addr string `toml:"addr,omitempty"` // Listen address
}

// LogConfig holds logging settings from the [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty"` // Log level: debug, info, warn, error
}

// ReconcilePolicy decides how a commit for a scope with an in-flight
// mutation is issued.
type ReconcilePolicy string

// Reconcile policies.
const (
	// PolicyQueue issues a mutation only after earlier mutations sharing a scope complete.
	PolicyQueue ReconcilePolicy = "queue"
	// PolicySupersede issues immediately; older responses for the scope are discarded.
	PolicySupersede ReconcilePolicy = "supersede"
)

// IsValid reports whether p is a known policy.
func (p ReconcilePolicy) IsValid() bool {
	return p == PolicyQueue || p == PolicySupersede
}

// ReconcileConfig holds gateway settings from the [reconcile] section.
type ReconcileConfig struct {
	Policy           ReconcilePolicy `toml:"policy,omitempty"`
	RefetchOnFailure *bool           `toml:"refetch_on_failure,omitempty"`
}

// ShouldRefetchOnFailure returns the effective refetch_on_failure value (default true).
func (r ReconcileConfig) ShouldRefetchOnFailure() bool {
	return r.RefetchOnFailure == nil || *r.RefetchOnFailure
}

// Store backends.
const (
	BackendJSON   = "json"
	BackendGit    = "git"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendHTTP   = "http"
)

// Default configuration values.
const (
	DefaultLogLevel       = "info"
	DefaultNamespace      = "board"
	DefaultRedisKey       = "board"
	DefaultRedisURL       = "redis://localhost:6379/0"
	DefaultServerAddr     = ":8000"
	DefaultRemoteURL      = "http://localhost:8000/api"
	DefaultRequestTimeout = 10 * time.Second
)

// File and directory names.
const (
	BoardDirName     = ".board"
	ConfigFileName   = "config.toml"
	StoreFileName    = "board.json"
	SQLiteFileName   = "board.sqlite"
	GlobalConfigName = "board"
)

// RepoBoardDir returns the board directory for a project root.
func RepoBoardDir(root string) string {
	return filepath.Join(root, BoardDirName)
}

// LogPath returns the log file path under a board directory.
func LogPath(boardDir string) string {
	return filepath.Join(boardDir, "logs", "board.log")
}

// GlobalBoardDir returns the global config directory.
// configHome is typically XDG_CONFIG_HOME or ~/.config (resolved by caller).
func GlobalBoardDir(configHome string) string {
	return filepath.Join(configHome, GlobalConfigName)
}

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:   BackendJSON,
			Namespace: DefaultNamespace,
			RedisKey:  DefaultRedisKey,
			RedisURL:  DefaultRedisURL,
			RemoteURL: DefaultRemoteURL,
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Reconcile: ReconcileConfig{
			Policy: PolicyQueue,
		},
	}
}

// Validate reports configuration values that cannot be used.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendJSON, BackendGit, BackendRedis, BackendSQLite, BackendHTTP:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Store.Backend)
	}
	if !c.Reconcile.Policy.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownPolicy, c.Reconcile.Policy)
	}
	return nil
}

// templateData holds all data for rendering the config template.
type templateData struct {
	Backend   string
	LogLevel  string
	Addr      string
	RemoteURL string
	Policy    ReconcilePolicy
}

// RenderConfigTemplate renders the commented config file written by 'board init'.
func RenderConfigTemplate(cfg *Config) string {
	data := templateData{
		Backend:   cfg.Store.Backend,
		LogLevel:  cfg.Log.Level,
		Addr:      cfg.Server.Addr,
		RemoteURL: cfg.Store.RemoteURL,
		Policy:    cfg.Reconcile.Policy,
	}

	tmpl, err := template.New("config").Delims("<<", ">>").Parse(configTemplateContent)
	if err != nil {
		// Should never happen with embedded template
		panic(fmt.Sprintf("failed to parse config template: %v", err))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		panic(fmt.Sprintf("failed to execute config template: %v", err))
	}
	return buf.String()
}
