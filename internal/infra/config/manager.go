package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/runoshun/board/internal/domain"
)

// Ensure Manager implements domain.ConfigManager.
var _ domain.ConfigManager = (*Manager)(nil)

// Manager manages configuration files.
type Manager struct {
	boardDir      string // Path to .board directory
	globalConfDir string // Path to global config directory (e.g., ~/.config/board)
}

// NewManager creates a new Manager.
func NewManager(boardDir string) *Manager {
	return &Manager{
		boardDir:      boardDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewManagerWithGlobalDir creates a new Manager with a custom global config directory.
// This is useful for testing.
func NewManagerWithGlobalDir(boardDir, globalConfDir string) *Manager {
	return &Manager{
		boardDir:      boardDir,
		globalConfDir: globalConfDir,
	}
}

// RepoConfigPath returns the repository config file path.
func (m *Manager) RepoConfigPath() string {
	return filepath.Join(m.boardDir, domain.ConfigFileName)
}

// GlobalConfigPath returns the global config file path, or "" when unknown.
func (m *Manager) GlobalConfigPath() string {
	if m.globalConfDir == "" {
		return ""
	}
	return filepath.Join(m.globalConfDir, domain.ConfigFileName)
}

// InitRepoConfig creates a repository config file with default template.
func (m *Manager) InitRepoConfig(cfg *domain.Config) error {
	if err := os.MkdirAll(m.boardDir, 0o750); err != nil {
		return err
	}
	return m.initConfig(m.RepoConfigPath(), cfg)
}

// InitGlobalConfig creates a global config file with default template.
func (m *Manager) InitGlobalConfig(cfg *domain.Config) error {
	if m.globalConfDir == "" {
		return errors.New("global config directory not available")
	}
	if err := os.MkdirAll(m.globalConfDir, 0o700); err != nil {
		return err
	}
	return m.initConfig(m.GlobalConfigPath(), cfg)
}

// initConfig creates a config file with default template.
func (m *Manager) initConfig(path string, cfg *domain.Config) error {
	if _, err := os.Stat(path); err == nil {
		return domain.ErrConfigExists
	}
	content := domain.RenderConfigTemplate(cfg)
	return os.WriteFile(path, []byte(content), 0o600)
}
