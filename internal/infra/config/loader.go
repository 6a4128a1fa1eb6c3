// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/runoshun/board/internal/domain"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	boardDir      string // Path to .board directory
	globalConfDir string // Path to global config directory (e.g., ~/.config/board)
}

// NewLoader creates a new Loader.
func NewLoader(boardDir string) *Loader {
	return &Loader{
		boardDir:      boardDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(boardDir, globalConfDir string) *Loader {
	return &Loader{
		boardDir:      boardDir,
		globalConfDir: globalConfDir,
	}
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalBoardDir(configHome)
}

// Load returns the merged configuration (repo + global).
// Repository config takes precedence over global config.
func (l *Loader) Load() (*domain.Config, error) {
	global, err := l.LoadGlobal()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	repo, err := l.LoadRepo()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	// Merge: default <- global <- repo (later takes precedence)
	base := domain.NewDefaultConfig()
	if global != nil {
		base = mergeConfigs(base, global)
	}
	if repo != nil {
		base = mergeConfigs(base, repo)
	}

	if err := base.Validate(); err != nil {
		return nil, err
	}
	return base, nil
}

// LoadGlobal returns only the global configuration.
func (l *Loader) LoadGlobal() (*domain.Config, error) {
	if l.globalConfDir == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(filepath.Join(l.globalConfDir, domain.ConfigFileName))
}

// LoadRepo returns only the repository configuration.
func (l *Loader) LoadRepo() (*domain.Config, error) {
	return l.loadFile(filepath.Join(l.boardDir, domain.ConfigFileName))
}

// loadFile loads a configuration from a file.
func (l *Loader) loadFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return convertRawToDomainConfig(raw), nil
}

// convertRawToDomainConfig converts the raw map to domain config and collects warnings.
func convertRawToDomainConfig(raw map[string]any) *domain.Config {
	res := &domain.Config{}
	var warnings []string

	for section, value := range raw {
		m, ok := value.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown key: %s", section))
			continue
		}
		switch section {
		case "log":
			for k, v := range m {
				switch k {
				case "level":
					setString(&res.Log.Level, v)
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [log]: %s", k))
				}
			}
		case "store":
			for k, v := range m {
				switch k {
				case "backend":
					setString(&res.Store.Backend, v)
				case "path":
					setString(&res.Store.Path, v)
				case "namespace":
					setString(&res.Store.Namespace, v)
				case "redis_url":
					setString(&res.Store.RedisURL, v)
				case "redis_key":
					setString(&res.Store.RedisKey, v)
				case "sqlite_path":
					setString(&res.Store.SQLitePath, v)
				case "remote_url":
					setString(&res.Store.RemoteURL, v)
				case "timeout":
					setString(&res.Store.Timeout, v)
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [store]: %s", k))
				}
			}
		case "server":
			for k, v := range m {
				switch k {
				case "addr":
					setString(&res.Server.Addr, v)
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [server]: %s", k))
				}
			}
		case "reconcile":
			for k, v := range m {
				switch k {
				case "policy":
					if s, ok := v.(string); ok {
						res.Reconcile.Policy = domain.ReconcilePolicy(s)
					}
				case "refetch_on_failure":
					if b, ok := v.(bool); ok {
						res.Reconcile.RefetchOnFailure = &b
					}
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [reconcile]: %s", k))
				}
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", section))
		}
	}

	sort.Strings(warnings)
	res.Warnings = warnings
	return res
}

func setString(dst *string, v any) {
	if s, ok := v.(string); ok {
		*dst = s
	}
}

// mergeConfigs merges two configs, with override taking precedence.
func mergeConfigs(base, override *domain.Config) *domain.Config {
	result := &domain.Config{
		Store:     base.Store,
		Server:    base.Server,
		Log:       base.Log,
		Reconcile: base.Reconcile,
		Warnings:  append([]string{}, base.Warnings...),
	}
	result.Warnings = append(result.Warnings, override.Warnings...)

	overrideString(&result.Log.Level, override.Log.Level)
	overrideString(&result.Store.Backend, override.Store.Backend)
	overrideString(&result.Store.Path, override.Store.Path)
	overrideString(&result.Store.Namespace, override.Store.Namespace)
	overrideString(&result.Store.RedisURL, override.Store.RedisURL)
	overrideString(&result.Store.RedisKey, override.Store.RedisKey)
	overrideString(&result.Store.SQLitePath, override.Store.SQLitePath)
	overrideString(&result.Store.RemoteURL, override.Store.RemoteURL)
	overrideString(&result.Store.Timeout, override.Store.Timeout)
	overrideString(&result.Server.Addr, override.Server.Addr)
	if override.Reconcile.Policy != "" {
		result.Reconcile.Policy = override.Reconcile.Policy
	}
	if override.Reconcile.RefetchOnFailure != nil {
		v := *override.Reconcile.RefetchOnFailure
		result.Reconcile.RefetchOnFailure = &v
	}

	return result
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
