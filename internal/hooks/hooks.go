package hooks

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"slices"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/raphi011/brancher/internal/branch"
	"github.com/raphi011/brancher/internal/config"
	"github.com/raphi011/brancher/internal/log"
	"github.com/raphi011/brancher/internal/output"
)

// shellQuote escapes a string for safe use in shell commands.
// It wraps the value in single quotes and escapes any embedded single quotes.
func shellQuote(s string) string {
	// e.g., "it's" becomes 'it'\''s'
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

// Context holds the values for placeholder substitution
type Context struct {
	Path      string            // repository root
	Repo      string            // registered repository name
	Branch    string            // branch the operation was about
	Operation string            // operation that triggered the hook
	Env       map[string]string // custom variables from --arg key=value flags
	DryRun    bool              // if true, print command instead of executing
}

// HookMatch represents a hook that matched the current operation
type HookMatch struct {
	Hook *config.Hook
	Name string
}

// SelectHooks determines which hooks to run based on config and CLI flags.
// If hookName is specified, only that hook runs. Otherwise, all hooks with
// a matching "on" condition run, ordered by name.
// Returns nil slice if no hooks should run, error if specified hook doesn't exist.
func SelectHooks(cfg config.HooksConfig, hookName string, noHook bool, op branch.Kind) ([]HookMatch, error) {
	if noHook {
		return nil, nil
	}

	// An explicit hook ignores its "on" condition.
	if hookName != "" {
		hook, exists := cfg.Hooks[hookName]
		if !exists {
			return nil, fmt.Errorf("unknown hook %q", hookName)
		}
		if !hook.IsEnabled() {
			return nil, nil
		}
		return []HookMatch{{Hook: &hook, Name: hookName}}, nil
	}

	return findMatchingHooks(cfg, op), nil
}

// findMatchingHooks returns all hooks that have op in their "on" list.
// Disabled hooks and hooks without "on" never match.
func findMatchingHooks(cfg config.HooksConfig, op branch.Kind) []HookMatch {
	var matches []HookMatch
	for name, hook := range cfg.Hooks {
		if hook.IsEnabled() && hookMatchesOperation(hook, op) {
			hookCopy := hook
			matches = append(matches, HookMatch{Hook: &hookCopy, Name: name})
		}
	}
	slices.SortFunc(matches, func(a, b HookMatch) int { return strings.Compare(a.Name, b.Name) })
	return matches
}

// hookMatchesOperation returns true if op is in the hook's "on" list.
// Special value "all" matches every operation.
func hookMatchesOperation(hook config.Hook, op branch.Kind) bool {
	for _, on := range hook.On {
		if on == "all" || on == op.String() {
			return true
		}
	}
	return false
}

// Options selects hooks for RunForResult.
type Options struct {
	Hook   string // run only this hook
	NoHook bool   // run no hooks
	Env    map[string]string
	DryRun bool
}

// RunForResult runs the matching hooks in every repository where the
// operation took effect, then does the same for a follow-up operation.
// Each repository's .brancher.toml is merged over the global hooks.
// Failures are logged as warnings and do not stop the remaining hooks.
func RunForResult(ctx context.Context, resolver *config.ConfigResolver, res *branch.Result, opts Options) {
	for ; res != nil; res = res.Followup {
		for _, rr := range res.Repos {
			if rr.Status != branch.StatusDone {
				continue
			}
			runInRepo(ctx, resolver, res, rr, opts)
		}
	}
}

func runInRepo(ctx context.Context, resolver *config.ConfigResolver, res *branch.Result, rr branch.RepoResult, opts Options) {
	l := log.FromContext(ctx)

	cfg, err := resolver.ConfigForRepo(rr.Repo.Path)
	if err != nil {
		l.Warn("skipping hooks", "repo", rr.Repo.Name, "err", err)
		return
	}
	matches, err := SelectHooks(cfg.Hooks, opts.Hook, opts.NoHook, res.Op)
	if err != nil {
		l.Warn("skipping hooks", "repo", rr.Repo.Name, "err", err)
		return
	}

	branchName := res.Target
	if res.Op == branch.KindRename {
		// Rename targets read "old -> new".
		if _, to, ok := strings.Cut(res.Target, " -> "); ok {
			branchName = to
		}
	}

	hctx := Context{
		Path:      rr.Repo.Path,
		Repo:      rr.Repo.Name,
		Branch:    branchName,
		Operation: res.Op.String(),
		Env:       opts.Env,
		DryRun:    opts.DryRun,
	}
	for _, m := range matches {
		if err := runHook(ctx, m.Name, m.Hook, hctx); err != nil {
			l.Warn(fmt.Sprintf("hook %q failed", m.Name), "repo", rr.Repo.Name, "err", err)
		}
	}
}

// RunSingle runs a single hook by name with the given context.
// Used by `brancher hook` to execute a specific hook manually.
func RunSingle(ctx context.Context, name string, hook *config.Hook, hctx Context) error {
	if err := runHook(ctx, name, hook, hctx); err != nil {
		return fmt.Errorf("hook %q failed: %w", name, err)
	}
	return nil
}

// runHook executes a single hook with variable substitution.
func runHook(ctx context.Context, name string, hook *config.Hook, hctx Context) error {
	out := output.FromContext(ctx)
	cmdLine := SubstitutePlaceholders(hook.Command, hctx)

	if hctx.DryRun {
		out.Printf("[dry-run] %s (%s): %s\n", name, hctx.Repo, cmdLine)
		return nil
	}

	log.FromContext(ctx).Printf("Running hook '%s' in %s...\n", name, hctx.Repo)

	shellCmd := exec.CommandContext(ctx, "sh", "-c", cmdLine)
	shellCmd.Dir = hctx.Path
	shellCmd.Stdout = out.Writer()
	shellCmd.Stderr = os.Stderr
	shellCmd.Stdin = os.Stdin

	if err := shellCmd.Run(); err != nil {
		return err
	}

	if hook.Description != "" {
		out.Printf("  ✓ %s\n", hook.Description)
	}
	return nil
}

// readStdinIfPiped reads all content from stdin if it's piped (not a TTY).
// Returns empty string and nil if stdin is a TTY (interactive).
func readStdinIfPiped(stdin *os.File) (string, error) {
	if isatty.IsTerminal(stdin.Fd()) || isatty.IsCygwinTerminal(stdin.Fd()) {
		return "", nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// ParseEnv parses a slice of "key=value" strings into a map.
// If any value is "-", stdin is read once and assigned to all such keys.
// Returns an error if stdin is requested but not piped or empty.
func ParseEnv(envSlice []string) (map[string]string, error) {
	return parseEnv(envSlice, os.Stdin)
}

func parseEnv(envSlice []string, stdin *os.File) (map[string]string, error) {
	result := make(map[string]string)
	var stdinKeys []string

	for _, e := range envSlice {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			return nil, fmt.Errorf("invalid env format %q: expected KEY=VALUE", e)
		}
		if key == "" {
			return nil, fmt.Errorf("invalid env format %q: key cannot be empty", e)
		}
		if value == "-" {
			stdinKeys = append(stdinKeys, key)
		} else {
			result[key] = value
		}
	}

	if len(stdinKeys) > 0 {
		content, err := readStdinIfPiped(stdin)
		if err != nil {
			return nil, err
		}
		if content == "" {
			return nil, fmt.Errorf("stdin not piped: KEY=- requires piped input")
		}
		for _, key := range stdinKeys {
			result[key] = content
		}
	}

	return result, nil
}

// envPlaceholderRegex matches {key}, {key:raw}, or {key:-default} patterns
// for custom variables. Supported formats:
//   - {key}           - value is shell-quoted
//   - {key:raw}       - value is used as-is (no quoting)
//   - {key:-default}  - value is shell-quoted, uses default if key not set
var envPlaceholderRegex = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)(?:(:raw)|:-([^}]*))?\}`)

// SubstitutePlaceholders replaces {placeholder} with shell-quoted values from Context.
//
// Static placeholders: {path}, {repo}, {branch}, {operation}
// Custom placeholders come from Context.Env.
func SubstitutePlaceholders(command string, hctx Context) string {
	replacements := map[string]string{
		"{path}":      shellQuote(hctx.Path),
		"{repo}":      shellQuote(hctx.Repo),
		"{branch}":    shellQuote(hctx.Branch),
		"{operation}": shellQuote(hctx.Operation),
	}

	result := command
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	return envPlaceholderRegex.ReplaceAllStringFunc(result, func(match string) string {
		submatch := envPlaceholderRegex.FindStringSubmatch(match)
		if submatch == nil {
			return match
		}
		key := submatch[1]
		isRaw := submatch[2] == ":raw"
		defaultVal := submatch[3]

		val, ok := hctx.Env[key]
		if !ok {
			val = defaultVal
		}
		if isRaw {
			return val
		}
		return shellQuote(val)
	})
}
