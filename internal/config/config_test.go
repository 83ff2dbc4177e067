package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Smart != "ask" || cfg.Rollback != "ask" {
		t.Errorf("expected ask policies, got smart=%q rollback=%q", cfg.Smart, cfg.Rollback)
	}
	if cfg.DeleteOnMerge != "nothing" {
		t.Errorf("expected delete_on_merge %q, got %q", "nothing", cfg.DeleteOnMerge)
	}
	if cfg.Hooks.Hooks == nil {
		t.Error("expected non-nil hooks map")
	}
}

func TestLoadFrom_Nonexistent(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Smart != "ask" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFrom(t *testing.T) {
	path := writeConfig(t, `
git_path = "/opt/git/bin/git"
smart = "always"
rollback = "never"
delete_on_merge = "propose"

[hooks.deps]
command = "npm install"
on = ["checkout", "new"]
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.GitPath != "/opt/git/bin/git" {
		t.Errorf("GitPath = %q", cfg.GitPath)
	}
	if cfg.Smart != "always" || cfg.Rollback != "never" || cfg.DeleteOnMerge != "propose" {
		t.Errorf("unexpected policies: %+v", cfg)
	}
	hook, ok := cfg.Hooks.Hooks["deps"]
	if !ok {
		t.Fatal("missing hook deps")
	}
	if len(hook.On) != 2 || hook.On[1] != "new" {
		t.Errorf("hook On = %v", hook.On)
	}
}

func TestLoadFrom_PartialKeepsDefaults(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, `rollback = "always"`))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Smart != "ask" || cfg.Rollback != "always" || cfg.DeleteOnMerge != "nothing" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadFrom_ExpandsGitPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg, err := LoadFrom(writeConfig(t, `git_path = "~/bin/git"`))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if want := filepath.Join(home, "bin", "git"); cfg.GitPath != want {
		t.Errorf("GitPath = %q, want %q", cfg.GitPath, want)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "bad toml", content: "smart = [", wantErr: "parse"},
		{name: "bad smart", content: `smart = "sometimes"`, wantErr: "invalid smart"},
		{name: "bad rollback", content: `rollback = "yes"`, wantErr: "invalid rollback"},
		{name: "bad delete_on_merge", content: `delete_on_merge = "always"`, wantErr: "invalid delete_on_merge"},
		{name: "relative git_path", content: `git_path = "bin/git"`, wantErr: "git_path"},
		{
			name:    "bad hook trigger",
			content: "[hooks.x]\ncommand = \"true\"\non = [\"push\"]",
			wantErr: "invalid hooks.x.on",
		},
		{
			name:    "hook without command",
			content: "[hooks.x]\non = [\"merge\"]",
			wantErr: "no command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestPath_EnvOverride(t *testing.T) {
	t.Setenv(PathEnv, "/tmp/brancher-test.toml")
	path, err := Path()
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if path != "/tmp/brancher-test.toml" {
		t.Errorf("Path = %q", path)
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	t.Setenv(PathEnv, path)

	got, err := Init(false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got != path {
		t.Errorf("Init path = %q, want %q", got, path)
	}

	if _, err := Init(false); err == nil {
		t.Error("expected error when config already exists")
	}
	if _, err := Init(true); err != nil {
		t.Errorf("Init(force): %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.Smart != "ask" {
		t.Errorf("Smart = %q", cfg.Smart)
	}
}

func TestParseHooksConfig(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]any
		expected HooksConfig
	}{
		{
			name: "full hooks config",
			raw: map[string]any{
				"notify": map[string]any{
					"command":     "notify-send {branch}",
					"description": "Notify",
					"on":          []any{"merge", "rebase"},
				},
				"editor": map[string]any{
					"command":     "code {path}",
					"description": "Open VS Code",
				},
			},
			expected: HooksConfig{
				Hooks: map[string]Hook{
					"notify": {
						Command:     "notify-send {branch}",
						Description: "Notify",
						On:          []string{"merge", "rebase"},
					},
					"editor": {
						Command:     "code {path}",
						Description: "Open VS Code",
					},
				},
			},
		},
		{
			name: "hook without on",
			raw: map[string]any{
				"test": map[string]any{
					"command": "echo test",
				},
			},
			expected: HooksConfig{
				Hooks: map[string]Hook{
					"test": {Command: "echo test"},
				},
			},
		},
		{
			name:     "non-table value ignored",
			raw:      map[string]any{"stray": "value"},
			expected: HooksConfig{Hooks: map[string]Hook{}},
		},
		{
			name:     "nil input",
			raw:      nil,
			expected: HooksConfig{Hooks: map[string]Hook{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseHooksConfig(tt.raw)

			if len(result.Hooks) != len(tt.expected.Hooks) {
				t.Errorf("len(Hooks) = %d, want %d", len(result.Hooks), len(tt.expected.Hooks))
				return
			}

			for name, expectedHook := range tt.expected.Hooks {
				gotHook, ok := result.Hooks[name]
				if !ok {
					t.Errorf("missing hook %q", name)
					continue
				}
				if gotHook.Command != expectedHook.Command {
					t.Errorf("hook %q Command = %q, want %q", name, gotHook.Command, expectedHook.Command)
				}
				if gotHook.Description != expectedHook.Description {
					t.Errorf("hook %q Description = %q, want %q", name, gotHook.Description, expectedHook.Description)
				}
				if len(gotHook.On) != len(expectedHook.On) {
					t.Errorf("hook %q On = %v, want %v", name, gotHook.On, expectedHook.On)
				}
			}
		})
	}
}

func TestParseHooksConfig_WithEnabled(t *testing.T) {
	result := parseHooksConfig(map[string]any{
		"off": map[string]any{"enabled": false},
		"on":  map[string]any{"command": "true", "enabled": true},
	})

	if result.Hooks["off"].IsEnabled() {
		t.Error("expected hook off to be disabled")
	}
	if !result.Hooks["on"].IsEnabled() {
		t.Error("expected hook on to be enabled")
	}
}

func TestDefaultConfigIsValidTOML(t *testing.T) {
	var raw map[string]any
	if _, err := toml.Decode(DefaultConfig(), &raw); err != nil {
		t.Fatalf("default config is not valid TOML: %v", err)
	}
}

func TestDefaultLocalConfigIsValidTOML(t *testing.T) {
	var raw map[string]any
	if _, err := toml.Decode(DefaultLocalConfig(), &raw); err != nil {
		t.Fatalf("default local config is not valid TOML: %v", err)
	}
}

func TestWithConfig_FromContext(t *testing.T) {
	ctx := context.Background()

	if got := FromContext(ctx); got.Smart != "ask" {
		t.Errorf("expected defaults without config in context, got %+v", got)
	}

	cfg := &Config{Smart: "never"}
	ctx = WithConfig(ctx, cfg)
	if got := FromContext(ctx); got != cfg {
		t.Error("expected same config from context")
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"", false},
		{"git", false},
		{"~/bin/git", false},
		{"/usr/bin/git", false},
		{"./git", true},
		{"bin/git", true},
	}
	for _, tt := range tests {
		err := ValidatePath(tt.path, "git_path")
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
	}
}

func TestValidatePolicy(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"empty means ask", "", false},
		{"valid value", "always", false},
		{"invalid value", "maybe", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePolicy(tt.value, "smart")
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePolicy(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTrigger(t *testing.T) {
	for _, on := range []string{"checkout", "new", "restore", "all"} {
		if err := validateTrigger("h", on); err != nil {
			t.Errorf("validateTrigger(%q) = %v", on, err)
		}
	}
	err := validateTrigger("h", "push")
	if err == nil || !strings.Contains(err.Error(), `invalid hooks.h.on "push"`) {
		t.Errorf("validateTrigger(push) = %v", err)
	}
}

func TestFormatOptions(t *testing.T) {
	tests := []struct {
		opts []string
		want string
	}{
		{[]string{"a"}, `"a"`},
		{[]string{"a", "b"}, `"a" or "b"`},
		{[]string{"ask", "always", "never"}, `"ask", "always", or "never"`},
	}

	for _, tt := range tests {
		if got := formatOptions(tt.opts); got != tt.want {
			t.Errorf("formatOptions(%v) = %q, want %q", tt.opts, got, tt.want)
		}
	}
}
