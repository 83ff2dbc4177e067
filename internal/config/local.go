package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LocalConfigFileName is the per-repo config file at the repository root.
const LocalConfigFileName = ".brancher.toml"

// LocalConfig holds the hooks of one repository's .brancher.toml.
type LocalConfig struct {
	Hooks HooksConfig `toml:"-"` // merge by name into global
}

// LoadLocal reads a per-repo .brancher.toml config from the given repo path.
// Returns nil (no error) if the file doesn't exist.
// Returns an error only on parse or validation failure.
func LoadLocal(repoPath string) (*LocalConfig, error) {
	configFile := filepath.Join(repoPath, LocalConfigFileName)

	data, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read local config %s: %w", configFile, err)
	}

	var raw struct {
		Hooks map[string]any `toml:"hooks"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse local config %s: %w", configFile, err)
	}

	local := &LocalConfig{Hooks: parseHooksConfig(raw.Hooks)}
	if err := validateHooks(local.Hooks, configFile); err != nil {
		return nil, err
	}
	return local, nil
}

// defaultLocalConfig is the template for brancher config init --local
const defaultLocalConfig = `# brancher local config (per-repo hooks)
# Place this file at the root of the repository.

# Add repo-specific hooks or override global hooks.
# Set enabled = false to disable a global hook for this repo.
#
# [hooks.setup]
# command = "go mod download"
# description = "Fetch modules after switching branches"
# on = ["checkout", "new"]
#
# [hooks.global-hook-name]
# enabled = false
`

// DefaultLocalConfig returns the default local configuration template content.
func DefaultLocalConfig() string {
	return defaultLocalConfig
}

// MergeLocal layers a repository's local hooks over the global config.
// Policies stay global. The result shares nothing mutable with global;
// a nil local returns global itself.
func MergeLocal(global *Config, local *LocalConfig) *Config {
	if local == nil {
		return global
	}
	merged := *global
	merged.Hooks = HooksConfig{Hooks: maps.Clone(global.Hooks.Hooks)}
	if merged.Hooks.Hooks == nil {
		merged.Hooks.Hooks = make(map[string]Hook, len(local.Hooks.Hooks))
	}
	for name, h := range local.Hooks.Hooks {
		if h.IsEnabled() {
			merged.Hooks.Hooks[name] = h
			continue
		}
		// A disabled entry keeps the global definition visible but switched off.
		off := merged.Hooks.Hooks[name]
		off.Enabled = h.Enabled
		merged.Hooks.Hooks[name] = off
	}
	return &merged
}
