package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

const (
	configDirName  = ".hatch"
	configFileName = "config.json"
	logFileName    = "hatch.log"
	archivesDir    = "archives"
)

// ConfigManager handles reading and writing the hatch configuration.
type ConfigManager struct {
	configDir string
	mu        sync.RWMutex
}

// NewConfigManager creates a ConfigManager using the default config path (~/.hatch/).
func NewConfigManager() (*ConfigManager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	return &ConfigManager{
		configDir: filepath.Join(home, configDirName),
	}, nil
}

// NewConfigManagerWithDir creates a ConfigManager using a custom config directory.
// Useful for testing.
func NewConfigManagerWithDir(dir string) *ConfigManager {
	return &ConfigManager{configDir: dir}
}

// ConfigDir returns the configuration directory path.
func (cm *ConfigManager) ConfigDir() string {
	return cm.configDir
}

// ConfigPath returns the full path to the config file.
func (cm *ConfigManager) ConfigPath() string {
	return filepath.Join(cm.configDir, configFileName)
}

// LogPath returns the path of the debug log file.
func (cm *ConfigManager) LogPath() string {
	return filepath.Join(cm.configDir, logFileName)
}

// ArchivesDir returns where dat:// archives are looked up, honoring the
// archivesDir setting when present.
func (cm *ConfigManager) ArchivesDir(cfg *Config) string {
	if cfg != nil && cfg.Settings.ArchivesDir != "" {
		return cfg.Settings.ArchivesDir
	}
	return filepath.Join(cm.configDir, archivesDir)
}

// Load reads the config from disk. Returns default config if file doesn't exist.
func (cm *ConfigManager) Load() (*Config, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	path := cm.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := defaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (cm *ConfigManager) Save(cfg *Config) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := os.MkdirAll(cm.configDir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Write atomically: write to temp file then rename
	tmpPath := cm.ConfigPath() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmpPath, cm.ConfigPath()); err != nil {
		_ = os.Remove(tmpPath) // clean up on failure
		return fmt.Errorf("saving config: %w", err)
	}

	return nil
}

// SettingKeys lists the keys accepted by SetSetting, in display order.
var SettingKeys = []string{"archivesDir", "httpRetryMax"}

// SetSetting parses value into the setting named key. An empty value
// restores the default.
func SetSetting(cfg *Config, key, value string) error {
	switch key {
	case "archivesDir":
		if value != "" && !filepath.IsAbs(value) {
			return fmt.Errorf("archivesDir must be an absolute path, got %q", value)
		}
		cfg.Settings.ArchivesDir = value
	case "httpRetryMax":
		if value == "" {
			cfg.Settings.HTTPRetryMax = defaultHTTPRetryMax
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("httpRetryMax must be a positive integer, got %q", value)
		}
		cfg.Settings.HTTPRetryMax = n
	default:
		return fmt.Errorf("unknown setting %q (known: archivesDir, httpRetryMax)", key)
	}
	return nil
}

// Setting returns the value of key as SetSetting would accept it.
func Setting(cfg *Config, key string) (string, error) {
	switch key {
	case "archivesDir":
		return cfg.Settings.ArchivesDir, nil
	case "httpRetryMax":
		return strconv.Itoa(cfg.Settings.HTTPRetryMax), nil
	default:
		return "", fmt.Errorf("unknown setting %q (known: archivesDir, httpRetryMax)", key)
	}
}

func defaultConfig() *Config {
	return &Config{
		Settings: Settings{
			HTTPRetryMax: defaultHTTPRetryMax,
		},
	}
}
