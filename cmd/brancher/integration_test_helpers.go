//go:build integration

package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raphi011/brancher/internal/config"
	"github.com/raphi011/brancher/internal/output"
	"github.com/raphi011/brancher/internal/storage"
)

// resolvePath resolves symlinks in a path.
// This is needed on macOS where /var is a symlink to /private/var.
func resolvePath(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatalf("failed to resolve path %s: %v", path, err)
	}
	return resolved
}

// isolateState points the registry, journal and config at temp dirs.
// Tests using it cannot run in parallel.
func isolateState(t *testing.T) {
	t.Helper()
	t.Setenv(storage.HomeEnv, t.TempDir())
	t.Setenv(config.PathEnv, filepath.Join(t.TempDir(), "config.toml"))
}

// setupTestRepo creates a git repo on main with an initial commit in dir/name.
// Returns the absolute path to the created repo (with symlinks resolved).
func setupTestRepo(t *testing.T, dir, name string) string {
	t.Helper()

	repoPath := filepath.Join(resolvePath(t, dir), name)
	if err := os.MkdirAll(repoPath, 0755); err != nil {
		t.Fatalf("failed to create repo dir: %v", err)
	}

	runGitCommand(t, repoPath, "git", "init", "-b", "main")
	runGitCommand(t, repoPath, "git", "config", "user.email", "test@test.com")
	runGitCommand(t, repoPath, "git", "config", "user.name", "Test User")
	runGitCommand(t, repoPath, "git", "config", "commit.gpgsign", "false")

	commitFile(t, repoPath, "README.md", "# "+name+"\n")
	return repoPath
}

// commitFile writes a file and commits it on the current branch.
func commitFile(t *testing.T, repoPath, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(repoPath, filename), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", filename, err)
	}
	runGitCommand(t, repoPath, "git", "add", filename)
	runGitCommand(t, repoPath, "git", "commit", "-m", "Add "+filename)
}

// runGitCommand runs a command in dir and returns its trimmed output.
func runGitCommand(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to run %v: %v\n%s", args, err, out)
	}
	return strings.TrimSpace(string(out))
}

// currentBranch returns the checked out branch of repoPath.
func currentBranch(t *testing.T, repoPath string) string {
	t.Helper()
	return runGitCommand(t, repoPath, "git", "rev-parse", "--abbrev-ref", "HEAD")
}

// branchExists reports whether a local branch exists in repoPath.
func branchExists(t *testing.T, repoPath, branch string) bool {
	t.Helper()
	return runGitCommand(t, repoPath, "git", "branch", "--list", branch) != ""
}

// runBrancher runs the CLI with the default config and returns stdout.
func runBrancher(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfg := config.Default()
	var stdout bytes.Buffer

	ctx := config.WithConfig(context.Background(), &cfg)
	ctx = config.WithResolver(ctx, config.NewResolver(&cfg))
	ctx = output.WithPrinter(ctx, &stdout)

	root := newRootCmd()
	root.SetArgs(append([]string{"--quiet"}, args...))
	err := root.ExecuteContext(ctx)
	return stdout.String(), err
}

// mustRunBrancher runs the CLI and fails the test on error.
func mustRunBrancher(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runBrancher(t, args...)
	if err != nil {
		t.Fatalf("brancher %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}
