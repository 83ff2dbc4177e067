package hooks

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raphi011/brancher/internal/branch"
	"github.com/raphi011/brancher/internal/config"
	"github.com/raphi011/brancher/internal/log"
	"github.com/raphi011/brancher/internal/output"
	"github.com/raphi011/brancher/internal/repo"
)

func TestSubstitutePlaceholders(t *testing.T) {
	ctx := Context{
		Path:      "/home/user/src/api",
		Repo:      "api",
		Branch:    "feature-branch",
		Operation: "merge",
	}

	tests := []struct {
		name     string
		command  string
		expected string
	}{
		{
			name:     "single placeholder",
			command:  "code {path}",
			expected: "code '/home/user/src/api'",
		},
		{
			name:     "multiple placeholders",
			command:  "cd {path} && echo {branch}",
			expected: "cd '/home/user/src/api' && echo 'feature-branch'",
		},
		{
			name:     "all placeholders",
			command:  "{path} {repo} {branch} {operation}",
			expected: "'/home/user/src/api' 'api' 'feature-branch' 'merge'",
		},
		{
			name:     "no placeholders",
			command:  "echo hello",
			expected: "echo hello",
		},
		{
			name:     "repeated placeholder",
			command:  "{repo} and {repo}",
			expected: "'api' and 'api'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SubstitutePlaceholders(tt.command, ctx)
			if result != tt.expected {
				t.Errorf("SubstitutePlaceholders(%q) = %q, want %q", tt.command, result, tt.expected)
			}
		})
	}
}

func TestSubstitutePlaceholders_ShellEscaping(t *testing.T) {
	tests := []struct {
		name     string
		ctx      Context
		command  string
		expected string
	}{
		{
			name:     "path with spaces",
			ctx:      Context{Path: "/home/user/my documents/api"},
			command:  "code {path}",
			expected: "code '/home/user/my documents/api'",
		},
		{
			name:     "branch with slash",
			ctx:      Context{Branch: "feature/test-branch"},
			command:  "echo {branch}",
			expected: "echo 'feature/test-branch'",
		},
		{
			name:     "value with single quotes",
			ctx:      Context{Path: "/home/user/it's a path"},
			command:  "code {path}",
			expected: "code '/home/user/it'\\''s a path'",
		},
		{
			name:     "injection attempt",
			ctx:      Context{Branch: "x; rm -rf /"},
			command:  "echo {branch}",
			expected: "echo 'x; rm -rf /'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SubstitutePlaceholders(tt.command, tt.ctx)
			if result != tt.expected {
				t.Errorf("SubstitutePlaceholders(%q) = %q, want %q", tt.command, result, tt.expected)
			}
		})
	}
}

func TestSubstitutePlaceholders_Env(t *testing.T) {
	ctx := Context{Env: map[string]string{"msg": "it's done", "n": "3"}}

	tests := []struct {
		command  string
		expected string
	}{
		{"echo {msg}", `echo 'it'\''s done'`},
		{"echo {n:raw}", "echo 3"},
		{"echo {missing:-fallback}", "echo 'fallback'"},
		{"echo {n:-7}", "echo '3'"},
		{"echo {missing}", "echo ''"},
	}

	for _, tt := range tests {
		if got := SubstitutePlaceholders(tt.command, ctx); got != tt.expected {
			t.Errorf("SubstitutePlaceholders(%q) = %q, want %q", tt.command, got, tt.expected)
		}
	}
}

func TestSelectHooks(t *testing.T) {
	hooksConfig := config.HooksConfig{
		Hooks: map[string]config.Hook{
			"deps": {
				Command:     "npm install",
				Description: "Install dependencies",
				On:          []string{"checkout", "new"},
			},
			"editor": {
				Command:     "code {path}",
				Description: "Open VS Code",
				// no On - only runs via explicit --hook
			},
			"notify": {
				Command: "notify-send {branch}",
				On:      []string{"merge"},
			},
		},
	}

	tests := []struct {
		name        string
		hookFlag    string
		noHook      bool
		op          branch.Kind
		expectNames []string
		expectError bool
	}{
		{
			name:        "on=checkout,new runs for checkout",
			op:          branch.KindCheckout,
			expectNames: []string{"deps"},
		},
		{
			name:        "on=checkout,new runs for new",
			op:          branch.KindNewBranch,
			expectNames: []string{"deps"},
		},
		{
			name:        "on=merge runs for merge",
			op:          branch.KindMerge,
			expectNames: []string{"notify"},
		},
		{
			name: "nothing matches delete",
			op:   branch.KindDelete,
		},
		{
			name:        "explicit hook runs regardless of on condition",
			hookFlag:    "editor",
			op:          branch.KindCheckout,
			expectNames: []string{"editor"},
		},
		{
			name:   "no-hook skips all",
			noHook: true,
			op:     branch.KindCheckout,
		},
		{
			name:        "unknown hook errors",
			hookFlag:    "nonexistent",
			op:          branch.KindCheckout,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := SelectHooks(hooksConfig, tt.hookFlag, tt.noHook, tt.op)

			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(matches) != len(tt.expectNames) {
				t.Fatalf("expected %d hooks, got %d", len(tt.expectNames), len(matches))
			}
			for i, expectedName := range tt.expectNames {
				if matches[i].Name != expectedName {
					t.Errorf("expected name %q at position %d, got %q", expectedName, i, matches[i].Name)
				}
			}
		})
	}
}

func TestSelectHooks_OnAllSorted(t *testing.T) {
	hooksConfig := config.HooksConfig{
		Hooks: map[string]config.Hook{
			"zz": {Command: "true", On: []string{"all"}},
			"aa": {Command: "true", On: []string{"all"}},
			"mm": {Command: "true", On: []string{"rename", "all"}},
		},
	}

	for op := branch.KindCheckout; op <= branch.KindRestore; op++ {
		matches, err := SelectHooks(hooksConfig, "", false, op)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", op, err)
		}
		if len(matches) != 3 {
			t.Fatalf("expected 3 hooks for %s with on=all, got %d", op, len(matches))
		}
		if matches[0].Name != "aa" || matches[1].Name != "mm" || matches[2].Name != "zz" {
			t.Errorf("hooks not sorted by name: %v", []string{matches[0].Name, matches[1].Name, matches[2].Name})
		}
	}
}

func TestSelectHooks_SkipsDisabled(t *testing.T) {
	off := false
	hooksConfig := config.HooksConfig{
		Hooks: map[string]config.Hook{
			"on":  {Command: "true", On: []string{"merge"}},
			"off": {Command: "true", On: []string{"merge"}, Enabled: &off},
		},
	}

	matches, err := SelectHooks(hooksConfig, "", false, branch.KindMerge)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].Name != "on" {
		t.Errorf("expected only the enabled hook, got %v", matches)
	}

	matches, err = SelectHooks(hooksConfig, "off", false, branch.KindMerge)
	if err != nil || matches != nil {
		t.Errorf("explicit disabled hook = %v, %v; want nothing", matches, err)
	}
}

func TestParseEnv(t *testing.T) {
	env, err := ParseEnv([]string{"a=1", "b=x=y", "c="})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env["a"] != "1" || env["b"] != "x=y" || env["c"] != "" {
		t.Errorf("ParseEnv = %v", env)
	}

	for _, bad := range []string{"novalue", "=value"} {
		if _, err := ParseEnv([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestParseEnv_Stdin(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("piped content"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	env, err := parseEnv([]string{"body=-", "other=-", "x=1"}, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env["body"] != "piped content" || env["other"] != "piped content" || env["x"] != "1" {
		t.Errorf("parseEnv = %v", env)
	}
}

func testContext(buf *bytes.Buffer) context.Context {
	ctx := output.WithPrinter(context.Background(), buf)
	return log.WithLogger(ctx, log.New(buf, false, true))
}

func TestRunForResult(t *testing.T) {
	done := t.TempDir()
	failed := t.TempDir()
	followup := t.TempDir()

	global := config.Default()
	global.Hooks.Hooks["record"] = config.Hook{
		Command: "echo {operation} {branch} {repo} >> hook.out",
		On:      []string{"merge", "delete"},
	}

	res := &branch.Result{
		Op:     branch.KindMerge,
		Target: "feature",
		Repos: []branch.RepoResult{
			{Repo: repo.Ref{Name: "done", Path: done}, Status: branch.StatusDone},
			{Repo: repo.Ref{Name: "failed", Path: failed}, Status: branch.StatusFailed},
		},
		Followup: &branch.Result{
			Op:     branch.KindDelete,
			Target: "feature",
			Repos: []branch.RepoResult{
				{Repo: repo.Ref{Name: "followup", Path: followup}, Status: branch.StatusDone},
			},
		},
	}

	var buf bytes.Buffer
	RunForResult(testContext(&buf), config.NewResolver(&global), res, Options{})

	got, err := os.ReadFile(filepath.Join(done, "hook.out"))
	if err != nil {
		t.Fatalf("hook did not run in done repo: %v", err)
	}
	if strings.TrimSpace(string(got)) != "merge feature done" {
		t.Errorf("hook output = %q", got)
	}

	if _, err := os.Stat(filepath.Join(failed, "hook.out")); !os.IsNotExist(err) {
		t.Error("hook ran in a failed repo")
	}

	got, err = os.ReadFile(filepath.Join(followup, "hook.out"))
	if err != nil {
		t.Fatalf("hook did not run for follow-up: %v", err)
	}
	if strings.TrimSpace(string(got)) != "delete feature followup" {
		t.Errorf("follow-up hook output = %q", got)
	}
}

func TestRunForResult_LocalDisable(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.LocalConfigFileName), []byte("[hooks.record]\nenabled = false\n"), 0644); err != nil {
		t.Fatal(err)
	}

	global := config.Default()
	global.Hooks.Hooks["record"] = config.Hook{Command: "touch hook.out", On: []string{"all"}}

	res := &branch.Result{
		Op:    branch.KindCheckout,
		Repos: []branch.RepoResult{{Repo: repo.Ref{Name: "r", Path: dir}, Status: branch.StatusDone}},
	}

	var buf bytes.Buffer
	RunForResult(testContext(&buf), config.NewResolver(&global), res, Options{})

	if _, err := os.Stat(filepath.Join(dir, "hook.out")); !os.IsNotExist(err) {
		t.Error("hook disabled in .brancher.toml still ran")
	}
}

func TestRunForResult_DryRun(t *testing.T) {
	dir := t.TempDir()

	global := config.Default()
	global.Hooks.Hooks["record"] = config.Hook{Command: "touch {branch}.out", On: []string{"rename"}}

	res := &branch.Result{
		Op:     branch.KindRename,
		Target: "old-name -> new-name",
		Repos:  []branch.RepoResult{{Repo: repo.Ref{Name: "r", Path: dir}, Status: branch.StatusDone}},
	}

	var buf bytes.Buffer
	RunForResult(testContext(&buf), config.NewResolver(&global), res, Options{DryRun: true})

	if !strings.Contains(buf.String(), "[dry-run] record (r): touch 'new-name'.out") {
		t.Errorf("dry-run output = %q", buf.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "new-name.out")); !os.IsNotExist(err) {
		t.Error("dry-run executed the hook")
	}
}

func TestRunSingle_Failure(t *testing.T) {
	var buf bytes.Buffer
	hook := &config.Hook{Command: "exit 3"}
	err := RunSingle(testContext(&buf), "broken", hook, Context{Path: t.TempDir()})
	if err == nil || !strings.Contains(err.Error(), `hook "broken" failed`) {
		t.Errorf("RunSingle error = %v", err)
	}
}
