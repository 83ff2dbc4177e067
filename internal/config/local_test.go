package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLocal(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, LocalConfigFileName), []byte(content), 0644); err != nil {
		t.Fatalf("write local config: %v", err)
	}
}

func TestLoadLocal_NoFile(t *testing.T) {
	t.Parallel()

	local, err := LoadLocal(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if local != nil {
		t.Errorf("expected nil local config, got %+v", local)
	}
}

func TestLoadLocal_EmptyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeLocal(t, dir, "")

	local, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if local == nil {
		t.Fatal("expected non-nil local config")
	}
	if len(local.Hooks.Hooks) != 0 {
		t.Errorf("expected no hooks, got %v", local.Hooks.Hooks)
	}
}

func TestLoadLocal_Hooks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeLocal(t, dir, `
[hooks.setup]
command = "go mod download"
on = ["checkout"]

[hooks.notify]
enabled = false
`)

	local, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := local.Hooks.Hooks["setup"].Command; got != "go mod download" {
		t.Errorf("setup command = %q", got)
	}
	if local.Hooks.Hooks["notify"].IsEnabled() {
		t.Error("expected notify to be disabled")
	}
}

func TestLoadLocal_InvalidTrigger(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeLocal(t, dir, "[hooks.x]\ncommand = \"true\"\non = [\"create\"]\n")

	if _, err := LoadLocal(dir); err == nil {
		t.Fatal("expected error for invalid trigger")
	}
}

func TestLoadLocal_InvalidTOML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeLocal(t, dir, "invalid [[[")

	if _, err := LoadLocal(dir); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func boolPtr(b bool) *bool { return &b }

func TestMergeLocal(t *testing.T) {
	t.Parallel()

	global := &Config{
		Smart: "always",
		Hooks: HooksConfig{Hooks: map[string]Hook{
			"keep":     {Command: "keep"},
			"override": {Command: "old"},
			"mute":     {Command: "notify-send done", On: []string{"merge"}},
		}},
	}

	t.Run("nil local returns global", func(t *testing.T) {
		t.Parallel()
		if got := MergeLocal(global, nil); got != global {
			t.Error("expected global itself")
		}
	})

	t.Run("local hooks layer by name", func(t *testing.T) {
		t.Parallel()
		local := &LocalConfig{Hooks: HooksConfig{Hooks: map[string]Hook{
			"override": {Command: "new"},
			"mute":     {Enabled: boolPtr(false)},
			"add":      {Command: "added"},
		}}}

		merged := MergeLocal(global, local)
		hooks := merged.Hooks.Hooks

		if len(hooks) != 4 {
			t.Fatalf("expected 4 hooks, got %v", hooks)
		}
		if hooks["override"].Command != "new" || hooks["add"].Command != "added" || hooks["keep"].Command != "keep" {
			t.Errorf("unexpected hooks %v", hooks)
		}
		if mute := hooks["mute"]; mute.IsEnabled() || mute.Command != "notify-send done" {
			t.Errorf("mute = %+v, want global definition switched off", mute)
		}
		if merged.Smart != "always" {
			t.Errorf("Smart = %q, want inherited always", merged.Smart)
		}
		if global.Hooks.Hooks["override"].Command != "old" || !global.Hooks.Hooks["mute"].IsEnabled() {
			t.Error("global hooks were mutated")
		}
	})
}

func TestHookIsEnabled(t *testing.T) {
	t.Parallel()

	if !(Hook{}).IsEnabled() {
		t.Error("unset enabled should mean enabled")
	}
	if !(Hook{Enabled: boolPtr(true)}).IsEnabled() {
		t.Error("enabled = true")
	}
	if (Hook{Enabled: boolPtr(false)}).IsEnabled() {
		t.Error("enabled = false")
	}
}
