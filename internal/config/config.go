package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// PathEnv overrides the config file location.
const PathEnv = "BRANCHER_CONFIG"

// Hook is a command run after an operation succeeds in a repository.
type Hook struct {
	Command     string   `toml:"command"`
	Description string   `toml:"description"`
	On          []string `toml:"on"`      // operations this hook runs after (empty = only via --hook)
	Enabled     *bool    `toml:"enabled"` // false in a repo's .brancher.toml disables a global hook
}

// IsEnabled reports whether the hook is enabled. Unset means enabled.
func (h Hook) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// HooksConfig holds the [hooks.NAME] sections.
type HooksConfig struct {
	Hooks map[string]Hook `toml:"-"`
}

// Config holds the brancher configuration.
type Config struct {
	// GitPath is the git executable; "git" from PATH when empty.
	GitPath string `toml:"git_path"`
	// Smart decides whether local changes are stashed and the operation
	// retried: "ask", "always" or "never".
	Smart string `toml:"smart"`
	// Rollback decides whether repositories that succeeded are rolled back
	// after a fatal error: "ask", "always" or "never".
	Rollback string `toml:"rollback"`
	// DeleteOnMerge is what merge does with the merged branch: "nothing",
	// "propose" or "delete".
	DeleteOnMerge string `toml:"delete_on_merge"`

	Hooks HooksConfig `toml:"-"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Smart:         "ask",
		Rollback:      "ask",
		DeleteOnMerge: "nothing",
		Hooks:         HooksConfig{Hooks: map[string]Hook{}},
	}
}

// Path returns the config file location: $BRANCHER_CONFIG, or
// ~/.config/brancher/config.toml.
func Path() (string, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "brancher", "config.toml"), nil
}

// rawConfig is the file layout before hooks are parsed.
type rawConfig struct {
	GitPath       string         `toml:"git_path"`
	Smart         string         `toml:"smart"`
	Rollback      string         `toml:"rollback"`
	DeleteOnMerge string         `toml:"delete_on_merge"`
	Hooks         map[string]any `toml:"hooks"`
}

// Load reads the config file.
// Returns Default() if the file doesn't exist (no error).
// Returns an error only if the file exists but is invalid.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config file at path.
func LoadFrom(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Default(), fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := Default()
	cfg.GitPath = raw.GitPath
	cfg.Hooks = parseHooksConfig(raw.Hooks)
	if raw.Smart != "" {
		cfg.Smart = raw.Smart
	}
	if raw.Rollback != "" {
		cfg.Rollback = raw.Rollback
	}
	if raw.DeleteOnMerge != "" {
		cfg.DeleteOnMerge = raw.DeleteOnMerge
	}

	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	if cfg.GitPath != "" {
		expanded, err := expandPath(cfg.GitPath)
		if err != nil {
			return Default(), fmt.Errorf("expand git_path: %w", err)
		}
		cfg.GitPath = expanded
	}
	return cfg, nil
}

// Validate checks enum values and hook triggers.
func (c *Config) Validate() error {
	if err := validatePolicy(c.Smart, "smart"); err != nil {
		return err
	}
	if err := validatePolicy(c.Rollback, "rollback"); err != nil {
		return err
	}
	if err := validateDeleteOnMerge(c.DeleteOnMerge); err != nil {
		return err
	}
	if err := ValidatePath(c.GitPath, "git_path"); err != nil {
		return err
	}
	return validateHooks(c.Hooks, "")
}

// ValidatePath checks that a configured path is absolute or starts with ~.
// A bare command name ("git") is allowed and looked up in PATH.
func ValidatePath(path, fieldName string) error {
	if path == "" || path[0] == '~' || filepath.IsAbs(path) {
		return nil
	}
	if filepath.Base(path) == path {
		return nil
	}
	return fmt.Errorf("%s must be absolute, start with ~ or be a command name, got: %q", fieldName, path)
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) (string, error) {
	if path == "~" {
		return os.UserHomeDir()
	}
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// parseHooksConfig extracts [hooks.NAME] tables from the raw TOML map.
func parseHooksConfig(raw map[string]any) HooksConfig {
	hc := HooksConfig{
		Hooks: make(map[string]Hook),
	}

	for name, value := range raw {
		hookMap, ok := value.(map[string]any)
		if !ok {
			continue
		}
		var hook Hook
		if cmd, ok := hookMap["command"].(string); ok {
			hook.Command = cmd
		}
		if desc, ok := hookMap["description"].(string); ok {
			hook.Description = desc
		}
		if on, ok := hookMap["on"].([]any); ok {
			for _, v := range on {
				if s, ok := v.(string); ok {
					hook.On = append(hook.On, s)
				}
			}
		}
		if enabled, ok := hookMap["enabled"].(bool); ok {
			hook.Enabled = &enabled
		}
		hc.Hooks[name] = hook
	}

	return hc
}

func validateHooks(hc HooksConfig, source string) error {
	for name, hook := range hc.Hooks {
		for _, on := range hook.On {
			if err := validateTrigger(name, on); err != nil {
				if source != "" {
					err = fmt.Errorf("%w in %s", err, source)
				}
				return err
			}
		}
		if hook.IsEnabled() && hook.Command == "" {
			return fmt.Errorf("hooks.%s has no command", name)
		}
	}
	return nil
}

const defaultConfig = `# brancher configuration

# git executable (default: git from PATH)
# git_path = "/usr/local/bin/git"

# Local changes that would be overwritten by checkout, merge or rebase:
#   "ask"    - prompt (in a terminal; otherwise stash and retry)
#   "always" - stash, retry and restore the changes
#   "never"  - stop the operation
smart = "ask"

# After an operation fails in one repository, roll back the repositories
# where it already succeeded: "ask", "always" or "never"
rollback = "ask"

# What "brancher merge" does with the merged branch after a clean merge:
#   "nothing" - keep it
#   "propose" - ask whether to delete it
#   "delete"  - delete it in every repository
delete_on_merge = "nothing"

# Hooks run in each repository after an operation succeeded there.
# Use --hook=name to run a specific hook, --no-hook to skip all hooks.
#
# Hooks with "on" run automatically for matching operations.
# Hooks without "on" only run when explicitly called with --hook=name.
#
# [hooks.notify]
# command = "notify-send 'brancher' '{operation} {branch} in {repo}'"
# description = "Desktop notification"
# on = ["merge", "rebase"]
#
# [hooks.deps]
# command = "npm install"
# description = "Install dependencies after switching branches"
# on = ["checkout", "new"]
#
# Available "on" values: "checkout", "new", "merge", "delete", "rename",
# "rebase", "restore", "all"
#
# Available placeholders:
#   {path}      - repository root
#   {repo}      - registered repository name
#   {branch}    - branch the operation was about
#   {operation} - operation that triggered the hook
#   {key}       - custom variable passed via --arg key=value
#   {key:-def}  - custom variable with default value if not provided
#
# A repository can add or disable hooks in .brancher.toml at its root.
`

// Init creates a default config file.
// If force is true, overwrites an existing file.
// Returns the path to the created file.
func Init(force bool) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", errors.New("config file already exists: " + path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// DefaultConfig returns the commented default config file content.
func DefaultConfig() string {
	return defaultConfig
}

type configKey struct{}

// WithConfig returns a context carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored in ctx, or defaults.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey{}).(*Config); ok && cfg != nil {
		return cfg
	}
	d := Default()
	return &d
}
