package usecase

import (
	"context"

	"github.com/runoshun/board/internal/domain"
)

// InitConfigInput contains the input for the InitConfig use case.
type InitConfigInput struct {
	Config *domain.Config // Values rendered into the template
}

// InitConfigOutput contains the output of the InitConfig use case.
type InitConfigOutput struct {
	Path string // Path to the created config file
}

// InitConfig generates the repository configuration file.
type InitConfig struct {
	configManager domain.ConfigManager
}

// NewInitConfig creates a new InitConfig use case.
func NewInitConfig(configManager domain.ConfigManager) *InitConfig {
	return &InitConfig{configManager: configManager}
}

// Execute writes the config template; an existing file is left untouched
// and reported as domain.ErrConfigExists.
func (uc *InitConfig) Execute(_ context.Context, in InitConfigInput) (*InitConfigOutput, error) {
	cfg := in.Config
	if cfg == nil {
		cfg = domain.NewDefaultConfig()
	}
	if err := uc.configManager.InitRepoConfig(cfg); err != nil {
		return nil, err
	}
	return &InitConfigOutput{Path: uc.configManager.RepoConfigPath()}, nil
}

// ShowConfigInput contains the input for the ShowConfig use case.
type ShowConfigInput struct{}

// ShowConfigOutput contains the effective configuration.
type ShowConfigOutput struct {
	Config   *domain.Config
	RepoPath string
}

// ShowConfig loads the effective configuration.
type ShowConfig struct {
	loader        domain.ConfigLoader
	configManager domain.ConfigManager
}

// NewShowConfig creates a new ShowConfig use case.
func NewShowConfig(loader domain.ConfigLoader, configManager domain.ConfigManager) *ShowConfig {
	return &ShowConfig{loader: loader, configManager: configManager}
}

// Execute loads the merged configuration.
func (uc *ShowConfig) Execute(_ context.Context, _ ShowConfigInput) (*ShowConfigOutput, error) {
	cfg, err := uc.loader.Load()
	if err != nil {
		return nil, err
	}
	return &ShowConfigOutput{Config: cfg, RepoPath: uc.configManager.RepoConfigPath()}, nil
}
