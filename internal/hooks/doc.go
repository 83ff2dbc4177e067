// Package hooks runs configured shell commands after branch operations.
//
// Hooks are defined in config and run in each repository where an
// operation took effect, e.g. to install dependencies after a checkout or
// to send a notification after a merge.
//
// # Hook Selection
//
//   - Automatic: hooks whose "on" list names the operation (or "all")
//   - Manual: --hook=name runs one hook, --no-hook skips all
//
// Example config:
//
//	[hooks.deps]
//	command = "npm install"
//	on = ["checkout", "new"]
//
//	[hooks.cleanup]
//	command = "echo 'Done with {branch}'"
//	# no "on" - only runs via --hook=cleanup
//
// A repository's .brancher.toml can add hooks or disable global ones.
//
// # Placeholder Substitution
//
//   - {path}: repository root
//   - {repo}: registered repository name
//   - {branch}: branch the operation was about
//   - {operation}: checkout, new, merge, delete, rename, rebase or restore
//
// Custom variables via --arg key=value:
//
//   - {key}: Value from --arg key=value
//   - {key:-default}: Value with fallback if not provided
//   - {key:raw}: Value without shell quoting
//
// Values are shell-quoted. Use --arg key=- to read stdin into a variable.
//
// Hooks run with the repository root as working directory. A failing hook
// is reported as a warning and does not stop hooks in other repositories.
package hooks
