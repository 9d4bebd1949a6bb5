package cmd

import (
	"fmt"

	"github.com/barysiuk/hatch/internal/core"
)

// deps holds shared dependencies for CLI commands.
type deps struct {
	config   *core.ConfigManager
	settings *core.Config
	store    *core.StoreManager
	archives *core.ArchiveRouter
}

// newDeps creates shared dependencies. Called lazily by commands that need them.
func newDeps() (*deps, error) {
	config, err := newConfigManager()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	return &deps{
		config:   config,
		settings: cfg,
		store:    core.NewStoreManager(config.ConfigDir()),
		archives: core.NewArchiveRouter(config.ArchivesDir(cfg), cfg.Settings.HTTPRetryMax),
	}, nil
}

// newConfigManager honors --home / HATCH_HOME, falling back to ~/.hatch.
func newConfigManager() (*core.ConfigManager, error) {
	if home := settings.GetString("home"); home != "" {
		return core.NewConfigManagerWithDir(home), nil
	}
	config, err := core.NewConfigManager()
	if err != nil {
		return nil, fmt.Errorf("initializing config: %w", err)
	}
	return config, nil
}
